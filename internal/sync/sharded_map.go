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

// Package sync provides concurrent-safe data structures for high-performance scenarios.
package sync

import (
	"sync"

	"github.com/n42blockchain/n42-ledger/common/types"
)

// ShardCount defines the number of shards for sharded maps. getShard
// indexes by a hash's first byte, so it must stay 256.
const ShardCount = 256

// ShardedHashMap is a lock-striped map keyed by 32-byte hashes, used by the
// sync engine to track observed transactions without a single hot mutex.
type ShardedHashMap[V any] struct {
	shards [ShardCount]struct {
		sync.RWMutex
		data map[types.Hash]V
	}
}

// NewShardedHashMap creates a new sharded hash map.
func NewShardedHashMap[V any]() *ShardedHashMap[V] {
	m := &ShardedHashMap[V]{}
	for i := range m.shards {
		m.shards[i].data = make(map[types.Hash]V)
	}
	return m
}

// getShard returns the shard index for a hash.
func (m *ShardedHashMap[V]) getShard(hash types.Hash) uint8 {
	return hash[0]
}

// Get retrieves a value by hash.
func (m *ShardedHashMap[V]) Get(hash types.Hash) (V, bool) {
	shard := &m.shards[m.getShard(hash)]
	shard.RLock()
	v, ok := shard.data[hash]
	shard.RUnlock()
	return v, ok
}

// Set stores a value by hash.
func (m *ShardedHashMap[V]) Set(hash types.Hash, value V) {
	shard := &m.shards[m.getShard(hash)]
	shard.Lock()
	shard.data[hash] = value
	shard.Unlock()
}

// Delete removes a value by hash.
func (m *ShardedHashMap[V]) Delete(hash types.Hash) {
	shard := &m.shards[m.getShard(hash)]
	shard.Lock()
	delete(shard.data, hash)
	shard.Unlock()
}

// Range iterates over all entries. The callback should not modify the map.
func (m *ShardedHashMap[V]) Range(f func(hash types.Hash, value V) bool) {
	for i := range m.shards {
		m.shards[i].RLock()
		for hash, value := range m.shards[i].data {
			if !f(hash, value) {
				m.shards[i].RUnlock()
				return
			}
		}
		m.shards[i].RUnlock()
	}
}

// GetOrCreate returns the existing value for hash, or stores and returns
// newValue() if none exists yet. The whole operation holds the shard's write
// lock, so concurrent first-seen lookups for the same hash never race.
func (m *ShardedHashMap[V]) GetOrCreate(hash types.Hash, newValue func() V) V {
	shard := &m.shards[m.getShard(hash)]
	shard.Lock()
	defer shard.Unlock()
	if v, ok := shard.data[hash]; ok {
		return v
	}
	v := newValue()
	shard.data[hash] = v
	return v
}

// Len returns the total number of entries.
func (m *ShardedHashMap[V]) Len() int {
	total := 0
	for i := range m.shards {
		m.shards[i].RLock()
		total += len(m.shards[i].data)
		m.shards[i].RUnlock()
	}
	return total
}

