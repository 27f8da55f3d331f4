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
	"sync"

	"github.com/n42blockchain/n42-ledger/common/types"
	"github.com/n42blockchain/n42-ledger/internal/p2p"
	intsync "github.com/n42blockchain/n42-ledger/internal/sync"
)

// Peer is one connected committee member, as seen by the Sync Engine: the
// session it talks over, its last-advertised status, and the set of
// transactions it is already known to hold (so maintainTransactions never
// re-sends a tx to a peer that already has it).
type Peer struct {
	NodeID  types.NodeId
	Session *p2p.Session

	mu          sync.RWMutex
	height      int64
	genesisHash types.Hash
	latestHash  types.Hash

	known *intsync.ShardedHashMap[bool]
}

// newPeer wraps a just-accepted session.
func newPeer(nodeID types.NodeId, session *p2p.Session) *Peer {
	return &Peer{
		NodeID:  nodeID,
		Session: session,
		known:   intsync.NewShardedHashMap[bool](),
	}
}

// setStatus records the peer's latest advertised Status packet.
func (p *Peer) setStatus(s *StatusPacket) {
	p.mu.Lock()
	p.height = s.Number
	p.genesisHash = s.GenesisHash
	p.latestHash = s.LatestHash
	p.mu.Unlock()
}

// Height returns the peer's last-advertised chain height.
func (p *Peer) Height() int64 {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.height
}

// knows reports whether this peer is already a known holder of tx.
func (p *Peer) knows(tx types.Hash) bool {
	_, ok := p.known.Get(tx)
	return ok
}

// markKnown records tx as held by this peer, regardless of how that was
// learned: sent to it, or received from it. Transactions handling marks
// the sender as a known-holder unconditionally.
func (p *Peer) markKnown(tx types.Hash) {
	p.known.Set(tx, true)
}

// PeerSet is the Sync Engine's peer registry, keyed by node id.
type PeerSet struct {
	mu    sync.RWMutex
	peers map[types.NodeId]*Peer
}

func newPeerSet() *PeerSet {
	return &PeerSet{peers: make(map[types.NodeId]*Peer)}
}

func (s *PeerSet) add(p *Peer) {
	s.mu.Lock()
	s.peers[p.NodeID] = p
	s.mu.Unlock()
}

func (s *PeerSet) remove(id types.NodeId) {
	s.mu.Lock()
	delete(s.peers, id)
	s.mu.Unlock()
}

func (s *PeerSet) get(id types.NodeId) (*Peer, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.peers[id]
	return p, ok
}

// snapshot returns a stable slice of the currently registered peers.
func (s *PeerSet) snapshot() []*Peer {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*Peer, 0, len(s.peers))
	for _, p := range s.peers {
		out = append(out, p)
	}
	return out
}

func (s *PeerSet) len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.peers)
}
