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
	"encoding/binary"
	"net"
	"sync"
	"testing"
	"time"

	"github.com/n42blockchain/n42-ledger/common/block"
	"github.com/n42blockchain/n42-ledger/common/transaction"
	"github.com/n42blockchain/n42-ledger/common/types"
	"github.com/n42blockchain/n42-ledger/conf"
	"github.com/n42blockchain/n42-ledger/internal/p2p"
	"github.com/n42blockchain/n42-ledger/modules/rawdb"
	"github.com/n42blockchain/n42-ledger/pkg/errors"
	"github.com/stretchr/testify/require"
)

// fakeChain is a minimal in-memory rawdb.BlockChain for exercising the
// Sync Engine without a real Table Store.
type fakeChain struct {
	mu      sync.Mutex
	byNum   map[int64]*block.Block
	byHash  map[types.Hash]*block.Block
	onReady []func(*block.Block)
}

func newFakeChain() *fakeChain {
	genesis := block.NewBlock(&block.Header{Number: 0}, nil, nil)
	c := &fakeChain{
		byNum:  map[int64]*block.Block{0: genesis},
		byHash: map[types.Hash]*block.Block{genesis.Hash(): genesis},
	}
	return c
}

func (c *fakeChain) Number() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	var max int64
	for n := range c.byNum {
		if n > max {
			max = n
		}
	}
	return max
}

func (c *fakeChain) NumberHash(n int64) (types.Hash, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	blk, ok := c.byNum[n]
	if !ok {
		return types.Hash{}, nil
	}
	return blk.Hash(), nil
}

func (c *fakeChain) GetBlockByHash(h types.Hash) (*block.Block, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.byHash[h], nil
}

func (c *fakeChain) GetBlockByNumber(n int64) (*block.Block, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.byNum[n], nil
}

func (c *fakeChain) GetTxByHash(types.Hash) (*block.LocalisedTransaction, error) { return nil, nil }
func (c *fakeChain) GetLocalisedTxByHash(types.Hash) (*block.LocalisedTransaction, error) {
	return nil, nil
}
func (c *fakeChain) GetTransactionReceiptByHash(types.Hash) (*block.Receipt, error) { return nil, nil }
func (c *fakeChain) GetLocalisedTxReceiptByHash(types.Hash) (*block.LocalisedReceipt, error) {
	return nil, nil
}

func (c *fakeChain) CommitBlock(blk *block.Block, execCtx rawdb.ExecutiveContext) (errors.CommitResult, error) {
	c.mu.Lock()
	var cur int64
	for n := range c.byNum {
		if n > cur {
			cur = n
		}
	}
	tip := c.byNum[cur]
	if blk.Number() != cur+1 {
		c.mu.Unlock()
		return errors.CommitErrorNumber, nil
	}
	if blk.ParentHash() != tip.Hash() {
		c.mu.Unlock()
		return errors.CommitErrorParentHash, nil
	}
	c.byNum[blk.Number()] = blk
	c.byHash[blk.Hash()] = blk
	callbacks := append([]func(*block.Block){}, c.onReady...)
	c.mu.Unlock()

	for _, cb := range callbacks {
		cb(blk)
	}
	return errors.CommitOK, nil
}

func (c *fakeChain) TotalTransactionCount() (int64, int64, error) { return 0, c.Number(), nil }
func (c *fakeChain) GetCode(types.Address) ([]byte, error)        { return nil, nil }
func (c *fakeChain) MinerList() ([]types.NodeId, error)           { return nil, nil }
func (c *fakeChain) ObserverList() ([]types.NodeId, error)        { return nil, nil }
func (c *fakeChain) GetSystemConfigByKey(string, int64) (string, error) { return "", nil }
func (c *fakeChain) CheckAndBuildGenesisBlock(*rawdb.GenesisBlockParam) (bool, error) {
	return true, nil
}

func (c *fakeChain) RegisterOnReady(cb func(*block.Block)) {
	c.mu.Lock()
	c.onReady = append(c.onReady, cb)
	c.mu.Unlock()
}

func (c *fakeChain) childBlock(parent *block.Block, extra ...*transaction.Transaction) *block.Block {
	return block.NewBlock(&block.Header{
		Number:     parent.Number() + 1,
		ParentHash: parent.Hash(),
	}, extra, nil)
}

// fakePool is a minimal TxPool for exercising maintainTransactions.
type fakePool struct {
	mu       sync.Mutex
	pending  []*transaction.Transaction
	sent     map[types.Hash]bool
	imported []*transaction.Transaction
}

func newFakePool() *fakePool {
	return &fakePool{sent: make(map[types.Hash]bool)}
}

func (p *fakePool) PendingUnsent(max int) []*transaction.Transaction {
	p.mu.Lock()
	defer p.mu.Unlock()
	var out []*transaction.Transaction
	for _, tx := range p.pending {
		if p.sent[tx.Sha3()] {
			continue
		}
		out = append(out, tx)
		if len(out) >= max {
			break
		}
	}
	return out
}

func (p *fakePool) Import(tx *transaction.Transaction) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.imported = append(p.imported, tx)
	return nil
}

func (p *fakePool) MarkSent(hash types.Hash) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.sent[hash] = true
}

func noopExecCtxFactory(*block.Block) (rawdb.ExecutiveContext, error) { return nil, nil }

func testNodeID(b byte) types.NodeId {
	var id types.NodeId
	id[0] = b
	return id
}

func newTestEngine(chain rawdb.BlockChain, pool TxPool) *Engine {
	return NewEngine(testNodeID(0x01), chain, pool, conf.DefaultP2PConfig(), noopExecCtxFactory)
}

// readFrame reads one Session-encoded frame off conn, per the wire format
// documented on Message.Encode: a 4-byte length, then type(1)+seq(4)+flag(1)+payload.
func readFrame(t *testing.T, conn net.Conn) (packetType uint8, seq uint32, payload []byte) {
	t.Helper()
	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	lenBuf := make([]byte, 4)
	_, err := readFull(conn, lenBuf)
	require.NoError(t, err)
	bodyLen := binary.BigEndian.Uint32(lenBuf)
	body := make([]byte, bodyLen)
	_, err = readFull(conn, body)
	require.NoError(t, err)
	return body[0], binary.BigEndian.Uint32(body[1:5]), body[6:]
}

func readFull(conn net.Conn, buf []byte) (int, error) {
	total := 0
	for total < len(buf) {
		n, err := conn.Read(buf[total:])
		total += n
		if err != nil {
			return total, err
		}
	}
	return total, nil
}

func newConnectedPeer(t *testing.T, e *Engine, nodeID types.NodeId) (peer *Peer, remote net.Conn) {
	t.Helper()
	local, remote := net.Pipe()
	t.Cleanup(func() { local.Close(); remote.Close() })
	peer, err := e.AcceptPeer(nodeID, local)
	require.NoError(t, err)
	return peer, remote
}

func TestAcceptPeerRejectsSelfIdentity(t *testing.T) {
	chain := newFakeChain()
	e := newTestEngine(chain, newFakePool())
	local, remote := net.Pipe()
	defer local.Close()
	defer remote.Close()
	_, err := e.AcceptPeer(e.selfNodeID, local)
	require.ErrorIs(t, err, errors.ErrLocalIdentity)
}

func TestMaintainBlocksBroadcastsStatus(t *testing.T) {
	chain := newFakeChain()
	e := newTestEngine(chain, newFakePool())
	_, remote := newConnectedPeer(t, e, testNodeID(0x02))

	e.maintainBlocks()

	packetType, _, payload := readFrame(t, remote)
	require.Equal(t, PacketStatus, packetType)
	status, err := decodeStatusPacket(payload)
	require.NoError(t, err)
	require.Equal(t, chain.Number(), status.Number)
}

func TestMaintainTransactionsSendsUnsentTx(t *testing.T) {
	chain := newFakeChain()
	pool := newFakePool()
	tx := &transaction.Transaction{Nonce: 1}
	pool.pending = append(pool.pending, tx)

	e := newTestEngine(chain, pool)
	peer, remote := newConnectedPeer(t, e, testNodeID(0x02))

	e.maintainTransactions()

	packetType, _, payload := readFrame(t, remote)
	require.Equal(t, PacketTransactions, packetType)
	items, err := decodeTransactionsPacket(payload)
	require.NoError(t, err)
	require.Len(t, items, 1)
	require.True(t, pool.sent[tx.Sha3()])
	require.True(t, peer.knows(tx.Sha3()))
}

func TestMaintainTransactionsSkipsPeerAlreadyKnown(t *testing.T) {
	chain := newFakeChain()
	pool := newFakePool()
	tx := &transaction.Transaction{Nonce: 7}
	pool.pending = append(pool.pending, tx)

	e := newTestEngine(chain, pool)
	peer, _ := newConnectedPeer(t, e, testNodeID(0x02))
	peer.markKnown(tx.Sha3())

	e.maintainTransactions()

	// No peer was eligible, so the tx is never marked sent.
	require.False(t, pool.sent[tx.Sha3()])
}

func TestHandleStatusTriggersDownload(t *testing.T) {
	chain := newFakeChain()
	e := newTestEngine(chain, newFakePool())
	peer, remote := newConnectedPeer(t, e, testNodeID(0x02))

	status := &StatusPacket{Number: 5, GenesisHash: types.Hash{}, LatestHash: types.HexToHash("0x09")}
	e.handleMessage(peer, p2p.NewRequest(PacketStatus, status.Encode()))

	require.True(t, e.syncing.Load())
	require.Equal(t, int64(5), e.knownHighest.Load())

	packetType, _, payload := readFrame(t, remote)
	require.Equal(t, PacketReqBlocks, packetType)
	req, err := decodeReqBlocksPacket(payload)
	require.NoError(t, err)
	require.Equal(t, int64(1), req.From)
	require.Equal(t, int64(5), req.Size)
}

func TestMaintainDownloadingQueueCommitsInOrder(t *testing.T) {
	chain := newFakeChain()
	e := newTestEngine(chain, newFakePool())

	genesis := chain.byNum[0]
	b1 := chain.childBlock(genesis)
	b2 := chain.childBlock(b1)
	b3 := chain.childBlock(b2)

	// Push out of order, with a gap (b3 before b2): the drain must stop
	// after b1 and retry b2/b3 on a later tick.
	e.dq.push(b1)
	e.dq.push(b3)
	e.knownHighest.Store(3)

	done := e.maintainDownloadingQueue()
	require.False(t, done)
	require.Equal(t, int64(1), chain.Number())

	e.dq.push(b2)
	done = e.maintainDownloadingQueue()
	require.True(t, done)
	require.Equal(t, int64(3), chain.Number())
}

func TestHandleReqBlocksShardsResponse(t *testing.T) {
	chain := newFakeChain()
	genesis := chain.byNum[0]
	b1 := chain.childBlock(genesis)
	_, err := chain.CommitBlock(b1, nil)
	require.NoError(t, err)

	e := newTestEngine(chain, newFakePool())
	peer, remote := newConnectedPeer(t, e, testNodeID(0x02))

	req := &ReqBlocksPacket{From: 0, Size: 2}
	e.handleMessage(peer, p2p.NewRequest(PacketReqBlocks, req.Encode()))

	packetType, _, payload := readFrame(t, remote)
	require.Equal(t, PacketBlocks, packetType)
	items, err := decodeBlocksPacket(payload)
	require.NoError(t, err)
	require.Len(t, items, 2)
}
