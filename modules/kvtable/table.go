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

package kvtable

import (
	"sort"
	"sync"

	"github.com/n42blockchain/n42-ledger/common/encoding"
	"github.com/n42blockchain/n42-ledger/common/types"
	"github.com/n42blockchain/n42-ledger/pkg/errors"
	"golang.org/x/crypto/sha3"
)

// rowSlot is one physical row under a key: either loaded from storage at
// open time or inserted this block. Removed rows stay in place as
// tombstones so insertion order survives interleaved remove/insert calls.
type rowSlot struct {
	entry   *Entry
	removed bool
}

// Table is a handle onto one logical relation. Every open_table call for
// the same name within a TableFactory returns the same *Table, so its
// overlay is shared — per Invariant T1, writes are visible to any reader on
// the same factory immediately, but nothing is durable until CommitDB.
type Table struct {
	factory     *TableFactory
	name        string
	keyField    string
	valueFields []string

	mu     sync.RWMutex
	rows   map[string][]*rowSlot
	loaded map[string]bool
	dirty  map[string]bool
}

func newTable(f *TableFactory, name, keyField string, valueFields []string) *Table {
	return &Table{
		factory:     f,
		name:        name,
		keyField:    keyField,
		valueFields: valueFields,
		rows:        make(map[string][]*rowSlot),
		loaded:      make(map[string]bool),
		dirty:       make(map[string]bool),
	}
}

// NewEntry returns an entry scoped to this table's schema (callers may set
// any column; unknown columns are simply not part of the schema's ordering
// used by Hash).
func (t *Table) NewEntry() *Entry { return NewEntry() }

// NewCondition returns a fresh, empty condition.
func (t *Table) NewCondition() *Condition { return NewCondition() }

// load lazily reads a key's committed rows from storage into memory. Must
// be called with t.mu held for writing.
func (t *Table) load(key string) error {
	if t.loaded[key] {
		return nil
	}
	t.loaded[key] = true

	raw, err := t.factory.storage.Get(t.name, key)
	if err != nil {
		return errors.Wrap(err, "kvtable: load")
	}
	if raw == nil {
		return nil
	}
	rowItems, _, err := encoding.DecodeList(raw)
	if err != nil {
		return errors.ErrCorruptSystemTable
	}
	slots := make([]*rowSlot, 0, len(rowItems))
	for _, ri := range rowItems {
		cols, _, err := encoding.DecodeList(ri)
		if err != nil {
			return errors.ErrCorruptSystemTable
		}
		e := NewEntry()
		for i, col := range cols {
			if i >= len(t.valueFields) {
				break
			}
			e.Set(t.valueFields[i], string(col))
		}
		slots = append(slots, &rowSlot{entry: e})
	}
	t.rows[key] = slots
	return nil
}

// Select returns all non-removed rows under key matching cond, in
// insertion order.
func (t *Table) Select(key string, cond *Condition) (Entries, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if err := t.load(key); err != nil {
		return nil, err
	}
	if cond == nil {
		cond = NewCondition()
	}
	var out Entries
	for _, slot := range t.rows[key] {
		if slot.removed {
			continue
		}
		if cond.Matches(slot.entry) {
			out = append(out, slot.entry)
		}
	}
	return out, nil
}

// checkAuth enforces write authorization: a nil origin means an internal
// (committer) write, which always passes.
func (t *Table) checkAuth(origin *types.Address) (bool, error) {
	if origin == nil {
		return true, nil
	}
	return t.factory.checkAuthorized(t.name, *origin)
}

// Insert appends entry under key. Returns (-1, ErrAuthDenied) if origin is
// set and not authorized for this table; the commit is not faulted by an
// auth denial.
func (t *Table) Insert(key string, entry *Entry, origin *types.Address) (int, error) {
	ok, err := t.checkAuth(origin)
	if err != nil {
		return 0, err
	}
	if !ok {
		return -1, errors.ErrAuthDenied
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	if err := t.load(key); err != nil {
		return 0, err
	}
	t.rows[key] = append(t.rows[key], &rowSlot{entry: entry.clone()})
	t.dirty[key] = true
	return 1, nil
}

// Update applies entry's fields onto every non-removed row under key that
// matches cond, returning the number of rows touched.
func (t *Table) Update(key string, entry *Entry, cond *Condition, origin *types.Address) (int, error) {
	ok, err := t.checkAuth(origin)
	if err != nil {
		return 0, err
	}
	if !ok {
		return -1, errors.ErrAuthDenied
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	if err := t.load(key); err != nil {
		return 0, err
	}
	if cond == nil {
		cond = NewCondition()
	}
	count := 0
	for _, slot := range t.rows[key] {
		if slot.removed || !cond.Matches(slot.entry) {
			continue
		}
		entry.applyTo(slot.entry)
		count++
	}
	if count > 0 {
		t.dirty[key] = true
	}
	return count, nil
}

// Remove tombstones every non-removed row under key matching cond,
// returning the number of rows removed.
func (t *Table) Remove(key string, cond *Condition, origin *types.Address) (int, error) {
	ok, err := t.checkAuth(origin)
	if err != nil {
		return 0, err
	}
	if !ok {
		return -1, errors.ErrAuthDenied
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	if err := t.load(key); err != nil {
		return 0, err
	}
	if cond == nil {
		cond = NewCondition()
	}
	count := 0
	for _, slot := range t.rows[key] {
		if slot.removed || !cond.Matches(slot.entry) {
			continue
		}
		slot.removed = true
		count++
	}
	if count > 0 {
		t.dirty[key] = true
	}
	return count, nil
}

// encodeRow canonically encodes an entry's value columns in schema order.
func (t *Table) encodeRow(e *Entry) []byte {
	cols := make([][]byte, len(t.valueFields))
	for i, f := range t.valueFields {
		cols[i] = []byte(e.Get(f))
	}
	return encoding.EncodeList(cols)
}

// flush persists every dirty key's current row-set to storage: deletes the
// key if no rows survive, else writes the remaining (non-removed) rows.
func (t *Table) flush() error {
	t.mu.Lock()
	defer t.mu.Unlock()

	for key := range t.dirty {
		var live [][]byte
		for _, slot := range t.rows[key] {
			if !slot.removed {
				live = append(live, t.encodeRow(slot.entry))
			}
		}
		if len(live) == 0 {
			if err := t.factory.storage.Delete(t.name, key); err != nil {
				return err
			}
			continue
		}
		if err := t.factory.storage.Put(t.name, key, encoding.EncodeList(live)); err != nil {
			return err
		}
	}
	return nil
}

// Hash is deterministic over the table's uncommitted overlay content: every
// key written this block, in sorted order, each surviving row's columns in
// schema order. It does not depend on load order or removed tombstones.
func (t *Table) Hash() types.Hash {
	t.mu.RLock()
	defer t.mu.RUnlock()

	keys := make([]string, 0, len(t.dirty))
	for k := range t.dirty {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	h := sha3.New256()
	for _, key := range keys {
		h.Write([]byte(key))
		for _, slot := range t.rows[key] {
			if slot.removed {
				continue
			}
			h.Write(t.encodeRow(slot.entry))
		}
	}
	var out types.Hash
	copy(out[:], h.Sum(nil))
	return out
}

