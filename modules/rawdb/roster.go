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

package rawdb

import (
	"strconv"
	"sync"

	"github.com/n42blockchain/n42-ledger/common/types"
	"github.com/n42blockchain/n42-ledger/modules/kvtable"
	"github.com/n42blockchain/n42-ledger/pkg/errors"
)

// rosterCache memoizes _sys_miners_ by the height it was computed for.
// Take the read lock to check freshness; on a stale/empty cache, release
// it and take the write lock, re-checking staleness once inside (another
// goroutine may have refreshed it first) before recomputing.
type rosterCache struct {
	mu        sync.RWMutex
	height    int64
	valid     bool
	miners    []types.NodeId
	observers []types.NodeId
}

func (l *Ledger) rosterFor(height int64) (miners, observers []types.NodeId, err error) {
	l.roster.mu.RLock()
	if l.roster.valid && l.roster.height == height {
		miners, observers = l.roster.miners, l.roster.observers
		l.roster.mu.RUnlock()
		return miners, observers, nil
	}
	l.roster.mu.RUnlock()

	l.roster.mu.Lock()
	defer l.roster.mu.Unlock()
	if l.roster.valid && l.roster.height == height {
		return l.roster.miners, l.roster.observers, nil
	}

	m, o, err := l.loadRoster(height)
	if err != nil {
		return nil, nil, err
	}
	l.roster.height = height
	l.roster.valid = true
	l.roster.miners = m
	l.roster.observers = o
	return m, o, nil
}

// loadRoster resolves each node's effective _sys_miners_ row at height:
// of the node's rows with enable_num <= height, the one with the greatest
// enable_num wins (insertion order breaks ties). A winning RoleRemove row
// drops the node from both lists.
func (l *Ledger) loadRoster(height int64) ([]types.NodeId, []types.NodeId, error) {
	rows, err := l.effectiveRosterRows(height)
	if err != nil {
		return nil, nil, err
	}
	var miners, observers []types.NodeId
	for _, row := range rows {
		id, err := types.ParseNodeId(row.Get(kvtable.ColNodeId))
		if err != nil {
			return nil, nil, errors.ErrCorruptSystemTable
		}
		switch row.Get(kvtable.ColType) {
		case kvtable.RoleMiner:
			miners = append(miners, id)
		case kvtable.RoleObserver:
			observers = append(observers, id)
		}
	}
	return miners, observers, nil
}

// effectiveRosterRows returns each node's winning row at height, in the
// insertion order the nodes first appeared.
func (l *Ledger) effectiveRosterRows(height int64) ([]*kvtable.Entry, error) {
	tbl, err := l.readFactory(height).OpenTable(kvtable.SysMiners)
	if err != nil {
		return nil, err
	}
	rows, err := tbl.Select(kvtable.PRIKey, nil)
	if err != nil {
		return nil, err
	}
	return resolveRosterRows(rows, height)
}

func resolveRosterRows(rows kvtable.Entries, height int64) ([]*kvtable.Entry, error) {
	type winner struct {
		row       *kvtable.Entry
		enableNum int64
	}
	best := make(map[string]*winner)
	var order []string
	for _, row := range rows {
		enableNum, err := strconv.ParseInt(row.Get(kvtable.ColEnableNum), 10, 64)
		if err != nil {
			return nil, errors.ErrCorruptSystemTable
		}
		if enableNum > height {
			continue
		}
		id := row.Get(kvtable.ColNodeId)
		w, seen := best[id]
		if !seen {
			best[id] = &winner{row: row, enableNum: enableNum}
			order = append(order, id)
			continue
		}
		if enableNum >= w.enableNum {
			w.row, w.enableNum = row, enableNum
		}
	}
	out := make([]*kvtable.Entry, 0, len(order))
	for _, id := range order {
		out = append(out, best[id].row)
	}
	return out, nil
}

// MinerList returns the nodes eligible to participate in consensus as of
// the current height.
func (l *Ledger) MinerList() ([]types.NodeId, error) {
	m, _, err := l.rosterFor(l.Number())
	return m, err
}

// ObserverList returns the nodes that follow the chain without voting.
func (l *Ledger) ObserverList() ([]types.NodeId, error) {
	_, o, err := l.rosterFor(l.Number())
	return o, err
}

// invalidateRoster is called by the Block Committer after a commit
// advances the height, so the next MinerList/ObserverList call reloads.
func (l *Ledger) invalidateRoster() {
	l.roster.mu.Lock()
	l.roster.valid = false
	l.roster.mu.Unlock()
}

// AddNode inserts a roster row for nodeID, effective at currentHeight+1,
// so a membership change takes effect the block after it is committed.
// Callers validate the node-id format via types.ParseNodeId before any row
// is written.
func AddNode(f *kvtable.TableFactory, currentHeight int64, nodeID types.NodeId, role string) (int, error) {
	tbl, err := f.OpenTable(kvtable.SysMiners)
	if err != nil {
		return 0, err
	}
	e := tbl.NewEntry()
	e.Set(kvtable.ColType, role)
	e.Set(kvtable.ColNodeId, nodeID.Hex())
	e.Set(kvtable.ColEnableNum, strconv.FormatInt(currentHeight+1, 10))
	return tbl.Insert(kvtable.PRIKey, e, nil)
}

// RemoveNode marks nodeID for removal from the roster, effective at
// currentHeight+1: a RoleRemove row is appended rather than the live row
// deleted, so the node stays effective through the current height. Refuses
// to remove the last remaining miner. Returns 0 without mutating the table
// when the node is absent, already removed, or the removal would leave
// zero miners.
func RemoveNode(f *kvtable.TableFactory, currentHeight int64, nodeID types.NodeId) (int, error) {
	tbl, err := f.OpenTable(kvtable.SysMiners)
	if err != nil {
		return 0, err
	}
	rows, err := tbl.Select(kvtable.PRIKey, nil)
	if err != nil {
		return 0, err
	}
	effective, err := resolveRosterRows(rows, currentHeight)
	if err != nil {
		return 0, err
	}

	var target *kvtable.Entry
	minerCount := 0
	for _, row := range effective {
		if row.Get(kvtable.ColType) == kvtable.RoleMiner {
			minerCount++
		}
		if row.Get(kvtable.ColNodeId) == nodeID.Hex() {
			target = row
		}
	}
	if target == nil || target.Get(kvtable.ColType) == kvtable.RoleRemove {
		return 0, nil
	}
	if target.Get(kvtable.ColType) == kvtable.RoleMiner && minerCount <= 1 {
		return 0, nil
	}

	e := tbl.NewEntry()
	e.Set(kvtable.ColType, kvtable.RoleRemove)
	e.Set(kvtable.ColNodeId, nodeID.Hex())
	e.Set(kvtable.ColEnableNum, strconv.FormatInt(currentHeight+1, 10))
	return tbl.Insert(kvtable.PRIKey, e, nil)
}
