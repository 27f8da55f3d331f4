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
	"github.com/n42blockchain/n42-ledger/common/types"
	"github.com/n42blockchain/n42-ledger/modules/kvtable"
)

// CNSEntry is one row of _sys_cns_: a named contract's version, address
// and ABI.
type CNSEntry struct {
	Name    string
	Version string
	Address types.Address
	ABI     string
}

// SelectByNameAndVersion looks up a contract by name and exact version.
// Multiple rows can share a name (the key is an index, not a primary key);
// the first row whose version matches wins.
func (l *Ledger) SelectByNameAndVersion(name, version string) (*CNSEntry, error) {
	tbl, err := l.readFactory(0).OpenTable(kvtable.SysCNS)
	if err != nil {
		return nil, err
	}
	rows, err := tbl.Select(name, nil)
	if err != nil {
		return nil, err
	}
	for _, row := range rows {
		if row.Get(kvtable.ColVersion) != version {
			continue
		}
		return &CNSEntry{
			Name:    name,
			Version: row.Get(kvtable.ColVersion),
			Address: types.HexToAddress(row.Get(kvtable.ColAddress)),
			ABI:     row.Get(kvtable.ColABI),
		}, nil
	}
	return nil, nil
}

// RegisterCNS inserts a new name/version/address/abi row. The table's key
// is the contract name, so registering the same name at a new version adds
// another row rather than replacing the existing one.
func RegisterCNS(f *kvtable.TableFactory, name, version string, addr types.Address, abi string) (int, error) {
	tbl, err := f.OpenTable(kvtable.SysCNS)
	if err != nil {
		return 0, err
	}
	e := tbl.NewEntry()
	e.Set(kvtable.ColVersion, version)
	e.Set(kvtable.ColAddress, addr.Hex())
	e.Set(kvtable.ColABI, abi)
	return tbl.Insert(name, e, nil)
}
