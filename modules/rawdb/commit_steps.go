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

	"github.com/n42blockchain/n42-ledger/common/block"
	"github.com/n42blockchain/n42-ledger/modules/kvtable"
	"github.com/n42blockchain/n42-ledger/pkg/errors"
)

// openSysTable opens a system table, surfacing any failure as the fatal
// OpenSysTableFailed kind: a commit never leaves the factory partially
// flushed, so the caller halts rather than retries.
func openSysTable(f *kvtable.TableFactory, name string) (*kvtable.Table, error) {
	tbl, err := f.OpenTable(name)
	if err != nil {
		return nil, errors.Wrap(errors.ErrOpenSysTableFailed, err.Error())
	}
	return tbl, nil
}

// writeNumber upserts _sys_current_state_[current_number], the first of
// the four fixed commit steps.
func writeNumber(f *kvtable.TableFactory, number int64) error {
	return upsertCurrentState(f, kvtable.CurrentNumberKey, strconv.FormatInt(number, 10))
}

// writeTotalTransactionCount performs the read-modify-write of
// _sys_current_state_[total_tx_count], commit step 2. delta is the number
// of transactions the committing block adds (0 for genesis).
func writeTotalTransactionCount(f *kvtable.TableFactory, delta int) error {
	tbl, err := openSysTable(f, kvtable.SysCurrentState)
	if err != nil {
		return err
	}
	rows, err := tbl.Select(kvtable.TotalTxCountKey, nil)
	if err != nil {
		return err
	}
	var current int64
	if len(rows) > 0 {
		current, err = strconv.ParseInt(rows[0].Get(kvtable.ColValue), 10, 64)
		if err != nil {
			return errors.ErrCorruptSystemTable
		}
	}
	return upsertCurrentState(f, kvtable.TotalTxCountKey, strconv.FormatInt(current+int64(delta), 10))
}

// upsertCurrentState inserts or updates a _sys_current_state_ row: the
// table carries at most one live row per state key, so an existing row is
// updated in place rather than appended to.
func upsertCurrentState(f *kvtable.TableFactory, key, value string) error {
	tbl, err := openSysTable(f, kvtable.SysCurrentState)
	if err != nil {
		return err
	}
	rows, err := tbl.Select(key, nil)
	if err != nil {
		return err
	}
	e := tbl.NewEntry()
	e.Set(kvtable.ColValue, value)
	if len(rows) == 0 {
		_, err = tbl.Insert(key, e, nil)
		return err
	}
	_, err = tbl.Update(key, e, nil, nil)
	return err
}

// writeTxIndex upserts _sys_tx_hash_2_block_[tx.sha3()] = (number, index)
// for every transaction in the block, commit step 3.
func writeTxIndex(f *kvtable.TableFactory, blk *block.Block) error {
	tbl, err := openSysTable(f, kvtable.SysTxHash2Block)
	if err != nil {
		return err
	}
	for i, tx := range blk.Transactions {
		e := tbl.NewEntry()
		e.Set(kvtable.ColBlockNumber, strconv.FormatInt(blk.Number(), 10))
		e.Set(kvtable.ColIndex, strconv.FormatUint(uint64(i), 10))
		if _, err := tbl.Insert(tx.Sha3().Hex(), e, nil); err != nil {
			return err
		}
	}
	return nil
}

// writeBlockInfo inserts _sys_number_2_hash_[block.number] = block.hash,
// then _sys_hash_2_block_[block.hash] = encode(block), commit step 4.
func writeBlockInfo(f *kvtable.TableFactory, blk *block.Block) error {
	n2h, err := openSysTable(f, kvtable.SysNumber2Hash)
	if err != nil {
		return err
	}
	e := n2h.NewEntry()
	e.Set(kvtable.ColHash, blk.Hash().Hex())
	if _, err := n2h.Insert(strconv.FormatInt(blk.Number(), 10), e, nil); err != nil {
		return err
	}

	h2b, err := openSysTable(f, kvtable.SysHash2Block)
	if err != nil {
		return err
	}
	be := h2b.NewEntry()
	be.Set(kvtable.ColBlock, EncodeHexBlock(blk))
	_, err = h2b.Insert(blk.Hash().Hex(), be, nil)
	return err
}
