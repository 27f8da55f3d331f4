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
	"github.com/n42blockchain/n42-ledger/common/block"
	"github.com/n42blockchain/n42-ledger/log"
	"github.com/n42blockchain/n42-ledger/pkg/errors"
)

// CommitBlock is the block committer: a single-writer append of a block
// and its derived system-table indices, guarded by a non-reentrant
// try-lock so at most one commit is ever in flight. Precondition checks
// run in a fixed order: height first, then parent hash, then the lock.
func (l *Ledger) CommitBlock(blk *block.Block, execCtx ExecutiveContext) (errors.CommitResult, error) {
	current := l.Number()
	if blk.Number() != current+1 {
		return errors.CommitErrorNumber, nil
	}
	tip, err := l.NumberHash(current)
	if err != nil {
		return errors.CommitErrorNumber, err
	}
	if blk.ParentHash() != tip {
		return errors.CommitErrorParentHash, nil
	}

	if !l.commitMu.TryLock() {
		return errors.CommitErrorCommitting, nil
	}
	defer l.commitMu.Unlock()

	f := execCtx.MemoryTableFactory()

	if err := writeNumber(f, blk.Number()); err != nil {
		return 0, errors.Wrap(err, "rawdb: commit_block write_number")
	}
	if err := writeTotalTransactionCount(f, len(blk.Transactions)); err != nil {
		return 0, errors.Wrap(err, "rawdb: commit_block write_total_transaction_count")
	}
	if err := writeTxIndex(f, blk); err != nil {
		return 0, errors.Wrap(err, "rawdb: commit_block write_tx_to_block")
	}
	if err := writeBlockInfo(f, blk); err != nil {
		return 0, errors.Wrap(err, "rawdb: commit_block write_block_info")
	}

	if err := execCtx.DbCommit(blk); err != nil {
		// The ledger state is now undefined; the caller is expected to halt
		// the node rather than retry.
		return 0, errors.Wrapf(err, "rawdb: db_commit failed at block %d, ledger state undefined", blk.Number())
	}

	l.invalidateRoster()
	l.invalidateConfig()
	l.cache.Add(blk.Hash(), blk)

	log.Info("rawdb: committed block", "number", blk.Number(), "hash", blk.Hash().Hex(), "txs", len(blk.Transactions))
	l.fireOnReady(blk)
	return errors.CommitOK, nil
}
