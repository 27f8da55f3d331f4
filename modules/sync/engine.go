// Copyright 2022-2026 The N42 Authors
// This file is part of the N42 library.
//
// The N42 library is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// The N42 library is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with the N42 library. If not, see <http://www.gnu.org/licenses/>.

package sync

import (
	"context"
	"math/rand/v2"
	"net"
	"sync"
	"time"

	"github.com/n42blockchain/n42-ledger/common/block"
	"github.com/n42blockchain/n42-ledger/common/transaction"
	"github.com/n42blockchain/n42-ledger/common/types"
	"github.com/n42blockchain/n42-ledger/conf"
	"github.com/n42blockchain/n42-ledger/internal/p2p"
	intsync "github.com/n42blockchain/n42-ledger/internal/sync"
	"github.com/n42blockchain/n42-ledger/log"
	"github.com/n42blockchain/n42-ledger/modules/rawdb"
	"github.com/n42blockchain/n42-ledger/pkg/errors"
)

// downloadBatchSize bounds how many blocks a single RequestBlocks asks for;
// maintainDownloadingQueue drains whatever arrives regardless of batch size.
const downloadBatchSize = 128

// requestTimeout bounds a RequestBlocks round trip; a silent peer is simply
// left alone; the status loop will re-trigger a request on the next beat.
const requestTimeout = 10 * time.Second

// ExecutiveContextFactory produces the ExecutiveContext a commit needs for
// blk. It is owned by the execution engine; the sync engine only consumes
// it.
type ExecutiveContextFactory func(blk *block.Block) (rawdb.ExecutiveContext, error)

// downloadQueue buffers blocks received out of order until
// maintainDownloadingQueue can commit a contiguous run of them.
type downloadQueue struct {
	mu     sync.Mutex
	blocks map[int64]*block.Block
}

func newDownloadQueue() *downloadQueue {
	return &downloadQueue{blocks: make(map[int64]*block.Block)}
}

func (q *downloadQueue) push(blk *block.Block) {
	q.mu.Lock()
	if _, exists := q.blocks[blk.Number()]; !exists {
		q.blocks[blk.Number()] = blk
	}
	q.mu.Unlock()
}

func (q *downloadQueue) depth() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.blocks)
}

// Engine is the sync engine: it tracks whether the node is downloading and
// exchanges Status/Transactions/Blocks/ReqBlocks packets with peers on its
// own tick loop. All exported methods are safe for concurrent use.
type Engine struct {
	selfNodeID types.NodeId
	chain      rawdb.BlockChain
	pool       TxPool
	cfg        conf.P2PConfig
	execCtxFor ExecutiveContextFactory

	peers *PeerSet
	dq    *downloadQueue

	observedTxs  *intsync.ShardedHashMap[bool]
	syncing      *intsync.AtomicBool
	newTxFlag    *intsync.AtomicBool
	newBlockFlag *intsync.AtomicBool
	knownHighest *intsync.AtomicInt64
	stopped      *intsync.AtomicBool

	wake   chan struct{}
	stopCh chan struct{}
}

// NewEngine builds an Engine bound to chain and pool. execCtxFor supplies
// the ExecutiveContext each downloaded block needs to commit.
func NewEngine(selfNodeID types.NodeId, chain rawdb.BlockChain, pool TxPool, cfg conf.P2PConfig, execCtxFor ExecutiveContextFactory) *Engine {
	e := &Engine{
		selfNodeID:   selfNodeID,
		chain:        chain,
		pool:         pool,
		cfg:          cfg,
		execCtxFor:   execCtxFor,
		peers:        newPeerSet(),
		dq:           newDownloadQueue(),
		observedTxs:  intsync.NewShardedHashMap[bool](),
		syncing:      intsync.NewAtomicBool(false),
		newTxFlag:    intsync.NewAtomicBool(false),
		newBlockFlag: intsync.NewAtomicBool(false),
		knownHighest: intsync.NewAtomicInt64(0),
		stopped:      intsync.NewAtomicBool(false),
		wake:         make(chan struct{}, 1),
		stopCh:       make(chan struct{}),
	}
	chain.RegisterOnReady(func(*block.Block) { e.NotifyNewBlock() })
	return e
}

// Connected implements p2p.Host: sessions the engine owns stay readable as
// long as the engine itself hasn't been stopped.
func (e *Engine) Connected() bool { return !e.stopped.Load() }

// AcceptPeer wraps an already-established connection whose peer identity
// has been confirmed (e.g. by a TLS client certificate), registers it, and
// starts its read loop. nodeID equal to the engine's own identity is
// rejected before any session is created, mirroring the message_handler
// self-identity check for the handshake path.
func (e *Engine) AcceptPeer(nodeID types.NodeId, conn net.Conn) (*Peer, error) {
	if nodeID == e.selfNodeID {
		return nil, errors.ErrLocalIdentity
	}
	peer := newPeer(nodeID, nil)
	session := p2p.NewSession(conn, e, func(err error, s *p2p.Session, msg *p2p.Message) {
		e.handleSessionEvent(peer, err, s, msg)
	})
	peer.Session = session
	e.peers.add(peer)
	session.Start()
	peerCount.Set(float64(e.peers.len()))
	return peer, nil
}

// RemovePeer deregisters a peer, e.g. after its session drops.
func (e *Engine) RemovePeer(nodeID types.NodeId) {
	e.peers.remove(nodeID)
	peerCount.Set(float64(e.peers.len()))
}

// NotifyNewTransactions flags the next tick to run maintainTransactions —
// called by the TxPool when it accepts a new local or imported transaction.
func (e *Engine) NotifyNewTransactions() {
	e.newTxFlag.Store(true)
	e.signal()
}

// NotifyNewBlock flags the next tick to run maintainBlocks — called by the
// Block Committer's on_ready callback after a commit (wired in NewEngine).
func (e *Engine) NotifyNewBlock() {
	e.newBlockFlag.Store(true)
	e.signal()
}

func (e *Engine) signal() {
	select {
	case e.wake <- struct{}{}:
	default:
	}
}

// Start runs the do_work tick loop until ctx is done or Stop is called.
func (e *Engine) Start(ctx context.Context) {
	go e.run(ctx)
}

// Stop halts the tick loop and marks the engine's sessions as disconnected
// for Connected().
func (e *Engine) Stop() {
	e.stopped.Store(true)
	close(e.stopCh)
}

func (e *Engine) run(ctx context.Context) {
	idle := time.Duration(e.cfg.IdleWaitMs) * time.Millisecond
	if idle <= 0 {
		idle = 30 * time.Millisecond
	}
	for {
		e.doWork()

		timer := time.NewTimer(idle)
		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case <-e.stopCh:
			timer.Stop()
			return
		case <-e.wake:
			timer.Stop()
		case <-timer.C:
		}
	}
}

// doWork is one tick: drain the download queue while syncing, otherwise
// react to pending new-transaction/new-block notifications.
func (e *Engine) doWork() {
	if e.syncing.Load() {
		if e.maintainDownloadingQueue() {
			e.syncing.Store(false)
		}
		return
	}
	if e.newTxFlag.CompareAndSwap(true, false) {
		e.maintainTransactions()
	}
	if e.newBlockFlag.CompareAndSwap(true, false) {
		e.maintainBlocks()
	}
}

// maintainTransactions offers up to cfg.MaxSendTransactions unsent pool
// transactions to a random subset of peers: 25% of the candidate peers if
// the transaction has been observed from the network, 100% if it
// originated locally, always excluding peers already known to hold it.
// Selected transactions are batched per peer into one Transactions packet.
func (e *Engine) maintainTransactions() {
	pending := e.pool.PendingUnsent(e.cfg.MaxSendTransactions)
	if len(pending) == 0 {
		return
	}
	peers := e.peers.snapshot()
	if len(peers) == 0 {
		return
	}

	perPeer := make(map[*Peer][][]byte)
	for _, tx := range pending {
		hash := tx.Sha3()
		candidates := make([]*Peer, 0, len(peers))
		for _, p := range peers {
			if !p.knows(hash) {
				candidates = append(candidates, p)
			}
		}
		if len(candidates) == 0 {
			continue
		}

		ratio := 1.0
		if _, observed := e.observedTxs.Get(hash); observed {
			ratio = 0.25
		}
		n := int(float64(len(candidates)) * ratio)
		if n < 1 {
			n = 1
		}
		subset := randomSubset(candidates, n)
		if len(subset) == 0 {
			continue
		}

		encoded := tx.Encode()
		for _, p := range subset {
			perPeer[p] = append(perPeer[p], encoded)
			p.markKnown(hash)
		}
		e.pool.MarkSent(hash)
	}

	for p, encodedTxs := range perPeer {
		payload := encodeTransactionsPacket(encodedTxs)
		p.Session.AsyncSendMessage(p2p.NewRequest(PacketTransactions, payload), p2p.SendOptions{}, nil)
		packetsSent.WithLabelValues("transactions").Inc()
	}
}

// randomSubset returns n distinct elements of peers in random order.
func randomSubset(peers []*Peer, n int) []*Peer {
	if n >= len(peers) {
		return peers
	}
	shuffled := make([]*Peer, len(peers))
	copy(shuffled, peers)
	rand.Shuffle(len(shuffled), func(i, j int) { shuffled[i], shuffled[j] = shuffled[j], shuffled[i] })
	return shuffled[:n]
}

// maintainBlocks broadcasts the current chain status to every peer. A peer
// that advertises a higher height than ours triggers a RequestBlocks round
// and enters the downloading state.
func (e *Engine) maintainBlocks() {
	cur := e.chain.Number()
	latestHash, err := e.chain.NumberHash(cur)
	if err != nil {
		log.Warn("sync: failed reading current hash for status broadcast", "err", err)
		return
	}
	genesisHash, err := e.chain.NumberHash(0)
	if err != nil {
		log.Warn("sync: failed reading genesis hash for status broadcast", "err", err)
		return
	}
	pkt := &StatusPacket{Number: cur, GenesisHash: genesisHash, LatestHash: latestHash}
	payload := pkt.Encode()
	for _, p := range e.peers.snapshot() {
		p.Session.AsyncSendMessage(p2p.NewRequest(PacketStatus, payload), p2p.SendOptions{}, nil)
		packetsSent.WithLabelValues("status").Inc()
	}
}

// maintainDownloadingQueue pops a contiguous run of blocks from the
// download queue starting at current_number+1 and commits them in order,
// stopping at the first missing block or commit failure. A gap stops the
// drain for retry next tick rather than skipping ahead. It reports true
// once current_number has caught up to knownHighest.
func (e *Engine) maintainDownloadingQueue() bool {
	for {
		cur := e.chain.Number()
		next := cur + 1

		e.dq.mu.Lock()
		blk, ok := e.dq.blocks[next]
		if ok {
			delete(e.dq.blocks, next)
		}
		downloadQueueDepth.Set(float64(len(e.dq.blocks)))
		e.dq.mu.Unlock()

		if !ok {
			break
		}

		execCtx, err := e.execCtxFor(blk)
		if err != nil {
			log.Error("sync: failed building executive context for downloaded block", "number", next, "err", err)
			e.dq.push(blk)
			break
		}
		result, err := e.chain.CommitBlock(blk, execCtx)
		if err != nil {
			log.Error("sync: commit of downloaded block failed", "number", next, "err", err)
			break
		}
		if result != errors.CommitOK {
			log.Warn("sync: commit of downloaded block rejected", "number", next, "result", result.String())
			break
		}
		blocksCommitted.Inc()
	}
	return e.chain.Number() >= e.knownHighest.Load()
}

// handleSessionEvent is the p2p.MessageHandler bound to peer's session: a
// non-nil err is a session-level notification (protocol error or drop), a
// non-nil msg is an inbound frame to dispatch.
func (e *Engine) handleSessionEvent(peer *Peer, err error, session *p2p.Session, msg *p2p.Message) {
	if err != nil {
		e.RemovePeer(peer.NodeID)
		return
	}
	if msg == nil {
		return
	}
	e.handleMessage(peer, msg)
}

// handleMessage rejects the local node's own identity, validates the
// envelope via the packet-specific decoders, and dispatches by packet
// type.
func (e *Engine) handleMessage(peer *Peer, msg *p2p.Message) {
	if peer.NodeID == e.selfNodeID {
		peer.Session.Disconnect(errors.DisconnectLocalIdentity)
		return
	}

	switch msg.PacketType {
	case PacketStatus:
		e.handleStatus(peer, msg)
	case PacketTransactions:
		e.handleTransactions(peer, msg)
	case PacketBlocks:
		e.handleBlocks(peer, msg)
	case PacketReqBlocks:
		e.handleReqBlocks(peer, msg)
	default:
		log.Warn("sync: unknown packet type", "type", msg.PacketType, "peer", peer.NodeID.Hex())
	}
}

func (e *Engine) handleStatus(peer *Peer, msg *p2p.Message) {
	status, err := decodeStatusPacket(msg.Data)
	if err != nil {
		protocolErrors.Inc()
		peer.Session.Disconnect(errors.DisconnectBadProtocol)
		return
	}
	peer.setStatus(status)
	packetsReceived.WithLabelValues("status").Inc()

	cur := e.chain.Number()
	if status.Number <= cur {
		return
	}
	prev := e.knownHighest.Load()
	for status.Number > prev && !e.knownHighest.CompareAndSwap(prev, status.Number) {
		prev = e.knownHighest.Load()
	}
	e.syncing.Store(true)
	e.requestBlocksFrom(peer)
}

func (e *Engine) requestBlocksFrom(peer *Peer) {
	cur := e.chain.Number()
	size := e.knownHighest.Load() - cur
	if size <= 0 {
		return
	}
	if size > downloadBatchSize {
		size = downloadBatchSize
	}
	pkt := &ReqBlocksPacket{From: cur + 1, Size: size}
	peer.Session.AsyncSendMessage(p2p.NewRequest(PacketReqBlocks, pkt.Encode()), p2p.SendOptions{Timeout: requestTimeout}, nil)
	packetsSent.WithLabelValues("reqblocks").Inc()
}

func (e *Engine) handleTransactions(peer *Peer, msg *p2p.Message) {
	items, err := decodeTransactionsPacket(msg.Data)
	if err != nil {
		protocolErrors.Inc()
		peer.Session.Disconnect(errors.DisconnectBadProtocol)
		return
	}
	packetsReceived.WithLabelValues("transactions").Inc()
	for _, item := range items {
		tx, err := transaction.Decode(item)
		if err != nil {
			continue
		}
		hash := tx.Sha3()
		if err := e.pool.Import(tx); err != nil {
			log.Trace("sync: tx import rejected", "hash", hash.Hex(), "err", err)
		}
		e.observedTxs.Set(hash, true)
		peer.markKnown(hash)
	}
}

func (e *Engine) handleBlocks(peer *Peer, msg *p2p.Message) {
	items, err := decodeBlocksPacket(msg.Data)
	if err != nil {
		protocolErrors.Inc()
		peer.Session.Disconnect(errors.DisconnectBadProtocol)
		return
	}
	packetsReceived.WithLabelValues("blocks").Inc()
	cur := e.chain.Number()
	for _, item := range items {
		blk, err := block.Decode(item)
		if err != nil {
			continue
		}
		if blk.Number() <= cur {
			continue
		}
		e.dq.push(blk)
		prev := e.knownHighest.Load()
		for blk.Number() > prev && !e.knownHighest.CompareAndSwap(prev, blk.Number()) {
			prev = e.knownHighest.Load()
		}
	}
	downloadQueueDepth.Set(float64(e.dq.depth()))
	e.syncing.Store(true)
	e.signal()
}

func (e *Engine) handleReqBlocks(peer *Peer, msg *p2p.Message) {
	req, err := decodeReqBlocksPacket(msg.Data)
	if err != nil {
		protocolErrors.Inc()
		peer.Session.Disconnect(errors.DisconnectBadProtocol)
		return
	}
	packetsReceived.WithLabelValues("reqblocks").Inc()

	var encoded [][]byte
	for n := req.From; n < req.From+req.Size; n++ {
		blk, err := e.chain.GetBlockByNumber(n)
		if err != nil || blk == nil {
			break
		}
		encoded = append(encoded, blk.Encode())
	}
	if len(encoded) == 0 {
		return
	}

	maxPayload := e.cfg.MaxPayloadBytes
	if maxPayload <= 0 {
		maxPayload = 1 << 20
	}
	for _, shard := range shardByBudget(encoded, maxPayload) {
		payload := encodeBlocksPacket(shard)
		peer.Session.AsyncSendMessage(p2p.NewResponse(PacketBlocks, msg.Seq, payload), p2p.SendOptions{}, nil)
		packetsSent.WithLabelValues("blocks").Inc()
	}
}
