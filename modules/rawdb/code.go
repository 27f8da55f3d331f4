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
)

// StateReader resolves account code from a committed post-state root. The
// concrete implementation lives with the execution engine; the ledger only
// needs this one lookup.
type StateReader interface {
	Code(stateRoot types.Hash, addr types.Address) ([]byte, error)
}

// SetStateReader installs the execution engine's state reader. Until one is
// installed, GetCode reports empty code for every address.
func (l *Ledger) SetStateReader(r StateReader) {
	l.stateMu.Lock()
	l.state = r
	l.stateMu.Unlock()
}

// GetCode returns the code stored at addr as of the current tip's state
// root. Empty code when the tip block or the state reader is missing.
func (l *Ledger) GetCode(addr types.Address) ([]byte, error) {
	l.stateMu.Lock()
	reader := l.state
	l.stateMu.Unlock()
	if reader == nil {
		return nil, nil
	}
	blk, err := l.GetBlockByNumber(l.Number())
	if err != nil || blk == nil {
		return nil, err
	}
	return reader.Code(blk.Header.StateRoot, addr)
}
