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

// Package rawdb implements the Ledger Index: the read-only view of chain
// height, hashes, blocks, transactions and receipts, plus the node roster
// and system config, all backed by the KV Table Store (modules/kvtable).
package rawdb

import (
	"github.com/n42blockchain/n42-ledger/common/block"
	"github.com/n42blockchain/n42-ledger/common/types"
	"github.com/n42blockchain/n42-ledger/modules/kvtable"
	"github.com/n42blockchain/n42-ledger/pkg/errors"
)

// ExecutiveContext is consumed, not owned, by the Ledger/Committer. Its
// concrete implementation belongs to the execution engine; this package
// only needs the members below.
type ExecutiveContext interface {
	MemoryTableFactory() *kvtable.TableFactory
	DbCommit(blk *block.Block) error
	BlockInfo() (number int64, hash types.Hash)
}

// BlockChain is the external interface consumed by consensus, sync and
// RPC, implemented by *Ledger.
type BlockChain interface {
	Number() int64
	NumberHash(n int64) (types.Hash, error)
	GetBlockByHash(h types.Hash) (*block.Block, error)
	GetBlockByNumber(n int64) (*block.Block, error)
	GetTxByHash(h types.Hash) (*block.LocalisedTransaction, error)
	GetLocalisedTxByHash(h types.Hash) (*block.LocalisedTransaction, error)
	GetTransactionReceiptByHash(h types.Hash) (*block.Receipt, error)
	GetLocalisedTxReceiptByHash(h types.Hash) (*block.LocalisedReceipt, error)
	CommitBlock(blk *block.Block, execCtx ExecutiveContext) (errors.CommitResult, error)
	TotalTransactionCount() (count int64, atBlock int64, err error)
	GetCode(addr types.Address) ([]byte, error)
	MinerList() ([]types.NodeId, error)
	ObserverList() ([]types.NodeId, error)
	GetSystemConfigByKey(key string, num int64) (string, error)
	CheckAndBuildGenesisBlock(param *GenesisBlockParam) (bool, error)
	RegisterOnReady(cb func(blk *block.Block))
}

// Block/transaction/receipt lookups return (nil, nil) on a miss — the Go
// expression of the interface's Option<T> return shape — reserving a
// non-nil error for genuine corruption of a system table.
