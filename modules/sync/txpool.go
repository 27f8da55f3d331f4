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
	"github.com/n42blockchain/n42-ledger/common/transaction"
	"github.com/n42blockchain/n42-ledger/common/types"
)

// TxPool is the narrow slice of the transaction pool the Sync Engine
// consumes; admission policy and pool management are out of scope here
// and belong to the pool's own implementation.
type TxPool interface {
	// PendingUnsent returns up to max transactions that have not yet been
	// offered to any peer by maintainTransactions.
	PendingUnsent(max int) []*transaction.Transaction

	// Import hands a transaction received from a peer to the pool. The
	// caller marks the sending peer as a known-holder regardless of the
	// returned error.
	Import(tx *transaction.Transaction) error

	// MarkSent records that tx has now been offered to at least one peer,
	// so later maintainTransactions ticks don't reconsider it.
	MarkSent(hash types.Hash)
}
