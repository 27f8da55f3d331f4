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

package main

import (
	"sync"

	"github.com/n42blockchain/n42-ledger/common/transaction"
	"github.com/n42blockchain/n42-ledger/common/types"
)

// queuePool is the launcher's transaction pool: a FIFO queue with no
// admission policy beyond hash dedup. A real deployment swaps in a full
// pool behind the same interface.
type queuePool struct {
	mu     sync.Mutex
	txs    []*transaction.Transaction
	seen   map[types.Hash]bool
	sent   map[types.Hash]bool
	notify func()
}

func newQueuePool() *queuePool {
	return &queuePool{
		seen: make(map[types.Hash]bool),
		sent: make(map[types.Hash]bool),
	}
}

func (p *queuePool) PendingUnsent(max int) []*transaction.Transaction {
	p.mu.Lock()
	defer p.mu.Unlock()
	var out []*transaction.Transaction
	for _, tx := range p.txs {
		if p.sent[tx.Sha3()] {
			continue
		}
		out = append(out, tx)
		if len(out) >= max {
			break
		}
	}
	return out
}

func (p *queuePool) Import(tx *transaction.Transaction) error {
	hash := tx.Sha3()
	p.mu.Lock()
	if p.seen[hash] {
		p.mu.Unlock()
		return nil
	}
	p.seen[hash] = true
	p.txs = append(p.txs, tx)
	notify := p.notify
	p.mu.Unlock()

	if notify != nil {
		notify()
	}
	return nil
}

func (p *queuePool) MarkSent(hash types.Hash) {
	p.mu.Lock()
	p.sent[hash] = true
	p.mu.Unlock()
}
