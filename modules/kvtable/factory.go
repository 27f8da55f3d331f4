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
	"strconv"
	"strings"
	"sync"

	"github.com/n42blockchain/n42-ledger/common/encoding"
	"github.com/n42blockchain/n42-ledger/common/types"
	"github.com/n42blockchain/n42-ledger/pkg/errors"
	"golang.org/x/crypto/sha3"
)

// schemaTable is the reserved storage table name holding every dynamically
// created table's schema, so CreateTable survives across factory
// instantiations. The eight system tables never go through it — their
// schemas are compiled in (see systables.go) to avoid a bootstrap cycle.
const schemaTable = "_sys_tables_"

// TableFactory is instantiated per commit attempt (or per read) and binds
// every Table it opens to the same Storage and the same in-memory overlay
// set, per Invariant T1.
type TableFactory struct {
	storage       Storage
	currentHeight int64

	mu     sync.Mutex
	tables map[string]*Table
}

// NewTableFactory binds a factory to storage. currentHeight is the ledger
// height this factory's writes will be committed against (used by
// enable_num / authorization checks); for a read-only factory it is simply
// the chain's current height.
func NewTableFactory(storage Storage, currentHeight int64) *TableFactory {
	return &TableFactory{
		storage:       storage,
		currentHeight: currentHeight,
		tables:        make(map[string]*Table),
	}
}

// OpenTable returns the factory-scoped handle for name, creating it (from
// the compiled-in system schema or the persisted dynamic schema) on first
// access within this factory.
func (f *TableFactory) OpenTable(name string) (*Table, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if t, ok := f.tables[name]; ok {
		return t, nil
	}

	if schema, ok := systemSchemas[name]; ok {
		t := newTable(f, name, schema.keyField, schema.valueFields)
		f.tables[name] = t
		return t, nil
	}

	raw, err := f.storage.Get(schemaTable, name)
	if err != nil {
		return nil, errors.Wrap(err, "kvtable: open_table")
	}
	if raw == nil {
		return nil, errors.ErrTableNotFound
	}
	items, _, err := encoding.DecodeList(raw)
	if err != nil || len(items) != 2 {
		return nil, errors.ErrCorruptSystemTable
	}
	keyField := string(items[0])
	valueFields := strings.Split(string(items[1]), ",")
	t := newTable(f, name, keyField, valueFields)
	f.tables[name] = t
	return t, nil
}

// CreateTable registers a new table's schema, persisting it so later
// factories can OpenTable it. authorize/origin seed the access-control
// table: when authorize is true, origin becomes the sole authorized writer
// recorded in _sys_access_.
func (f *TableFactory) CreateTable(name, keyField string, valueFields []string, authorize bool, origin types.Address) (*Table, error) {
	f.mu.Lock()
	if _, ok := f.tables[name]; ok {
		f.mu.Unlock()
		return nil, errors.Errorf("kvtable: table %q already exists", name)
	}
	f.mu.Unlock()

	encoded := encoding.EncodeList([][]byte{
		[]byte(keyField),
		[]byte(strings.Join(valueFields, ",")),
	})
	if err := f.storage.Put(schemaTable, name, encoded); err != nil {
		return nil, err
	}

	f.mu.Lock()
	t := newTable(f, name, keyField, valueFields)
	f.tables[name] = t
	f.mu.Unlock()

	if authorize {
		access, err := f.OpenTable(SysAccess)
		if err != nil {
			return nil, err
		}
		e := access.NewEntry()
		e.Set(ColAddress, origin.Hex())
		e.Set(ColEnableNum, strconv.FormatInt(f.currentHeight+1, 10))
		if _, err := access.Insert(name, e, nil); err != nil {
			return nil, err
		}
	}
	return t, nil
}

// unrestrictedTables are written by the Block Committer itself, which never
// supplies an origin. checkAuthorized also lets any non-nil origin write
// them without an _sys_access_ row.
var unrestrictedTables = map[string]bool{
	SysCurrentState: true,
	SysNumber2Hash:  true,
	SysHash2Block:   true,
	SysTxHash2Block: true,
}

// checkAuthorized enforces write authorization: origin must appear in
// _sys_access_[tableName] with enable_num <= current height, unless the
// table is unrestricted.
func (f *TableFactory) checkAuthorized(tableName string, origin types.Address) (bool, error) {
	if unrestrictedTables[tableName] {
		return true, nil
	}
	access, err := f.OpenTable(SysAccess)
	if err != nil {
		return false, err
	}
	rows, err := access.Select(tableName, nil)
	if err != nil {
		return false, err
	}
	for _, row := range rows {
		if row.Get(ColAddress) != origin.Hex() {
			continue
		}
		enableNum, err := strconv.ParseInt(row.Get(ColEnableNum), 10, 64)
		if err != nil {
			return false, errors.ErrCorruptSystemTable
		}
		if enableNum <= f.currentHeight {
			return true, nil
		}
	}
	return false, nil
}

// CommitDB flushes every table opened through this factory to storage and
// returns the combined content hash. Tables are visited in a fixed,
// name-sorted order so the composed hash is reproducible across nodes.
func (f *TableFactory) CommitDB() (types.Hash, error) {
	f.mu.Lock()
	names := make([]string, 0, len(f.tables))
	for name := range f.tables {
		names = append(names, name)
	}
	sort.Strings(names)
	tables := make([]*Table, 0, len(names))
	for _, name := range names {
		tables = append(tables, f.tables[name])
	}
	f.mu.Unlock()

	for _, t := range tables {
		if err := t.flush(); err != nil {
			return types.Hash{}, errors.Wrap(err, "kvtable: commit_db")
		}
	}
	return f.Hash(), nil
}

// Hash composes the per-table hashes in fixed table-name order.
func (f *TableFactory) Hash() types.Hash {
	f.mu.Lock()
	names := make([]string, 0, len(f.tables))
	for name := range f.tables {
		names = append(names, name)
	}
	sort.Strings(names)
	tables := make([]*Table, 0, len(names))
	for _, name := range names {
		tables = append(tables, f.tables[name])
	}
	f.mu.Unlock()

	items := make([][]byte, len(tables))
	for i, t := range tables {
		items[i] = t.Hash().Bytes()
	}
	sum := sha3.Sum256(encoding.EncodeList(items))
	return types.Hash(sum)
}
