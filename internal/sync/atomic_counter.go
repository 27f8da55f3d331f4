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
	"sync/atomic"
)

// AtomicInt64 tracks a height or counter shared between the sync worker
// and session handlers. A thin wrapper over sync/atomic's typed value so
// call sites read as engine state rather than raw atomics.
type AtomicInt64 struct {
	value atomic.Int64
}

// NewAtomicInt64 returns a counter holding initial.
func NewAtomicInt64(initial int64) *AtomicInt64 {
	a := &AtomicInt64{}
	a.value.Store(initial)
	return a
}

// Load returns the current value.
func (a *AtomicInt64) Load() int64 {
	return a.value.Load()
}

// Store sets the value.
func (a *AtomicInt64) Store(val int64) {
	a.value.Store(val)
}

// CompareAndSwap performs a CAS operation.
func (a *AtomicInt64) CompareAndSwap(old, new int64) bool {
	return a.value.CompareAndSwap(old, new)
}

// AtomicBool is a lock-free flag: the sync engine's syncing/new-work bits.
type AtomicBool struct {
	value atomic.Bool
}

// NewAtomicBool returns a flag holding initial.
func NewAtomicBool(initial bool) *AtomicBool {
	a := &AtomicBool{}
	a.value.Store(initial)
	return a
}

// Load returns the current value.
func (a *AtomicBool) Load() bool {
	return a.value.Load()
}

// Store sets the value.
func (a *AtomicBool) Store(val bool) {
	a.value.Store(val)
}

// CompareAndSwap performs a CAS operation.
func (a *AtomicBool) CompareAndSwap(old, new bool) bool {
	return a.value.CompareAndSwap(old, new)
}
