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

	"github.com/n42blockchain/n42-ledger/common/block"
	"github.com/n42blockchain/n42-ledger/common/types"
	"github.com/n42blockchain/n42-ledger/internal/cache"
	"github.com/n42blockchain/n42-ledger/log"
	"github.com/n42blockchain/n42-ledger/modules/kvtable"
	"github.com/n42blockchain/n42-ledger/pkg/errors"
)

// Ledger is the ledger index: a read-only view of the chain
// fronted by a bounded block cache, plus the node-roster and system-config
// caches. It also performs the write-side system-table mutations on behalf
// of the block committer (committer.go), which serializes access.
type Ledger struct {
	storage kvtable.Storage
	cache   *cache.FIFOCache[types.Hash, *block.Block]

	onReadyMu sync.Mutex
	onReady   []func(*block.Block)

	stateMu sync.Mutex
	state   StateReader

	roster rosterCache
	config configCache

	// commitMu serializes CommitBlock attempts: a non-blocking try-lock,
	// never re-entrant. Exactly one commit is in flight at a time.
	commitMu sync.Mutex
}

// NewLedger binds a Ledger to storage, fronted by a block cache of
// capacity 10.
func NewLedger(storage kvtable.Storage) *Ledger {
	return &Ledger{
		storage: storage,
		cache:   cache.NewFIFOCache[types.Hash, *block.Block](10),
		config:  newConfigCache(),
	}
}

// readFactory opens a fresh, throwaway TableFactory for a single read.
// Reads never mutate, so there is nothing to commit or discard.
func (l *Ledger) readFactory(height int64) *kvtable.TableFactory {
	return kvtable.NewTableFactory(l.storage, height)
}

// Number reads _sys_current_state_[current_number], 0 if absent.
func (l *Ledger) Number() int64 {
	n, err := l.readCurrentNumber()
	if err != nil {
		log.Error("ledger: failed to read current number", "err", err)
		return 0
	}
	return n
}

func (l *Ledger) readCurrentNumber() (int64, error) {
	tbl, err := l.readFactory(0).OpenTable(kvtable.SysCurrentState)
	if err != nil {
		return 0, err
	}
	rows, err := tbl.Select(kvtable.CurrentNumberKey, nil)
	if err != nil {
		return 0, err
	}
	if len(rows) == 0 {
		return 0, nil
	}
	n, err := strconv.ParseInt(rows[0].Get(kvtable.ColValue), 10, 64)
	if err != nil {
		return 0, errors.ErrCorruptSystemTable
	}
	return n, nil
}

// NumberHash reads _sys_number_2_hash_[n]; a zero hash means absent.
func (l *Ledger) NumberHash(n int64) (types.Hash, error) {
	tbl, err := l.readFactory(0).OpenTable(kvtable.SysNumber2Hash)
	if err != nil {
		return types.Hash{}, err
	}
	rows, err := tbl.Select(strconv.FormatInt(n, 10), nil)
	if err != nil {
		return types.Hash{}, err
	}
	if len(rows) == 0 {
		return types.Hash{}, nil
	}
	return types.HexToHash(rows[0].Get(kvtable.ColHash)), nil
}

// GetBlockByHash consults the cache then _sys_hash_2_block_.
func (l *Ledger) GetBlockByHash(h types.Hash) (*block.Block, error) {
	if blk, ok := l.cache.Get(h); ok {
		return blk, nil
	}
	tbl, err := l.readFactory(0).OpenTable(kvtable.SysHash2Block)
	if err != nil {
		return nil, err
	}
	rows, err := tbl.Select(h.Hex(), nil)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}
	blk, err := DecodeHexBlock(rows[0].Get(kvtable.ColBlock))
	if err != nil {
		return nil, errors.ErrCorruptSystemTable
	}
	l.cache.Add(h, blk)
	return blk, nil
}

// GetBlockByNumber composes NumberHash and GetBlockByHash.
func (l *Ledger) GetBlockByNumber(n int64) (*block.Block, error) {
	h, err := l.NumberHash(n)
	if err != nil {
		return nil, err
	}
	if h.IsZero() {
		return nil, nil
	}
	return l.GetBlockByHash(h)
}

// GetTxByHash reads _sys_tx_hash_2_block_ then indexes into the resolved
// block's transaction vector.
func (l *Ledger) GetTxByHash(h types.Hash) (*block.LocalisedTransaction, error) {
	tbl, err := l.readFactory(0).OpenTable(kvtable.SysTxHash2Block)
	if err != nil {
		return nil, err
	}
	rows, err := tbl.Select(h.Hex(), nil)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}
	blockNumber, err := strconv.ParseInt(rows[0].Get(kvtable.ColBlockNumber), 10, 64)
	if err != nil {
		return nil, errors.ErrCorruptSystemTable
	}
	index, err := strconv.ParseUint(rows[0].Get(kvtable.ColIndex), 10, 64)
	if err != nil {
		return nil, errors.ErrCorruptSystemTable
	}
	blk, err := l.GetBlockByNumber(blockNumber)
	if err != nil {
		return nil, err
	}
	if blk == nil || index >= uint64(len(blk.Transactions)) {
		return nil, nil
	}
	return &block.LocalisedTransaction{
		Transaction: blk.Transactions[index],
		BlockHash:   blk.Hash(),
		BlockNumber: blockNumber,
		Index:       index,
	}, nil
}

// GetLocalisedTxByHash is an alias for GetTxByHash: both return the
// localised form.
func (l *Ledger) GetLocalisedTxByHash(h types.Hash) (*block.LocalisedTransaction, error) {
	return l.GetTxByHash(h)
}

// GetTransactionReceiptByHash follows the same pattern as GetTxByHash,
// indexing into the resolved block's receipt vector.
func (l *Ledger) GetTransactionReceiptByHash(h types.Hash) (*block.Receipt, error) {
	localised, err := l.GetTxByHash(h)
	if err != nil || localised == nil {
		return nil, err
	}
	blk, err := l.GetBlockByNumber(localised.BlockNumber)
	if err != nil || blk == nil {
		return nil, err
	}
	if localised.Index >= uint64(len(blk.Receipts)) {
		return nil, nil
	}
	return blk.Receipts[localised.Index], nil
}

// GetLocalisedTxReceiptByHash carries the block hash, number and index
// alongside the receipt.
func (l *Ledger) GetLocalisedTxReceiptByHash(h types.Hash) (*block.LocalisedReceipt, error) {
	localised, err := l.GetTxByHash(h)
	if err != nil || localised == nil {
		return nil, err
	}
	receipt, err := l.GetTransactionReceiptByHash(h)
	if err != nil || receipt == nil {
		return nil, err
	}
	return &block.LocalisedReceipt{
		Receipt:     receipt,
		BlockHash:   localised.BlockHash,
		BlockNumber: localised.BlockNumber,
		Index:       localised.Index,
	}, nil
}

// TotalTransactionCount reads _sys_current_state_[total_tx_count].
func (l *Ledger) TotalTransactionCount() (int64, int64, error) {
	tbl, err := l.readFactory(0).OpenTable(kvtable.SysCurrentState)
	if err != nil {
		return 0, 0, err
	}
	rows, err := tbl.Select(kvtable.TotalTxCountKey, nil)
	if err != nil {
		return 0, 0, err
	}
	atBlock := l.Number()
	if len(rows) == 0 {
		return 0, atBlock, nil
	}
	count, err := strconv.ParseInt(rows[0].Get(kvtable.ColValue), 10, 64)
	if err != nil {
		return 0, 0, errors.ErrCorruptSystemTable
	}
	return count, atBlock, nil
}

// RegisterOnReady installs a callback fired after every successful commit.
func (l *Ledger) RegisterOnReady(cb func(*block.Block)) {
	l.onReadyMu.Lock()
	defer l.onReadyMu.Unlock()
	l.onReady = append(l.onReady, cb)
}

// fireOnReady is called by the committer, never directly by readers.
func (l *Ledger) fireOnReady(blk *block.Block) {
	l.onReadyMu.Lock()
	cbs := append([]func(*block.Block){}, l.onReady...)
	l.onReadyMu.Unlock()
	for _, cb := range cbs {
		cb(blk)
	}
}

func DecodeHexBlock(hexPrefixed string) (*block.Block, error) {
	raw, err := decodeHexPrefixed(hexPrefixed)
	if err != nil {
		return nil, err
	}
	return block.Decode(raw)
}
