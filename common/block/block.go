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

// Package block defines the ledger's immutable block, header and receipt
// types and their canonical, hash-stable encoding.
package block

import (
	"github.com/n42blockchain/n42-ledger/common/encoding"
	"github.com/n42blockchain/n42-ledger/common/transaction"
	"github.com/n42blockchain/n42-ledger/common/types"
	"golang.org/x/crypto/sha3"
)

// Header carries everything needed to chain-link and identify a block.
// ExtraData[0] holds the genesis group_mark for block 0; later blocks leave
// it empty.
type Header struct {
	Number     int64
	ParentHash types.Hash
	StateRoot  types.Hash
	MinerID    types.NodeId
	Timestamp  uint64
	ExtraData  [][]byte
}

// Encode produces the header's canonical byte encoding.
func (h *Header) Encode() []byte {
	items := [][]byte{
		encoding.EncodeUint64(uint64(h.Number)),
		encoding.EncodeBytes(h.ParentHash.Bytes()),
		encoding.EncodeBytes(h.StateRoot.Bytes()),
		encoding.EncodeBytes(h.MinerID.Bytes()),
		encoding.EncodeUint64(h.Timestamp),
		encoding.EncodeList(h.ExtraData),
	}
	return encoding.EncodeList(items)
}

// Hash is the sha3-256 digest of the header's canonical encoding. A block's
// identity is its header's hash; transactions and receipts do not enter it.
func (h *Header) Hash() types.Hash {
	sum := sha3.Sum256(h.Encode())
	return types.Hash(sum)
}

// DecodeHeader is the inverse of Header.Encode.
func DecodeHeader(b []byte) (*Header, error) {
	items, _, err := encoding.DecodeList(b)
	if err != nil {
		return nil, err
	}
	if len(items) != 6 {
		return nil, errHeaderShape
	}
	extra, _, err := encoding.DecodeList(items[5])
	if err != nil {
		return nil, err
	}
	return &Header{
		Number:     int64(encoding.DecodeUint64(items[0])),
		ParentHash: types.BytesToHash(items[1]),
		StateRoot:  types.BytesToHash(items[2]),
		MinerID:    types.BytesToNodeId(items[3]),
		Timestamp:  encoding.DecodeUint64(items[4]),
		ExtraData:  extra,
	}, nil
}

// Log is a single execution event attached to a receipt.
type Log struct {
	Address types.Address
	Topics  []types.Hash
	Data    []byte
}

// Receipt records the outcome of executing one transaction.
type Receipt struct {
	TxHash        types.Hash
	Status        uint64
	GasUsed       uint64
	Logs          []Log
	PostStateRoot types.Hash
}

// Receipts is a block's ordered receipt list.
type Receipts []*Receipt

// Block is immutable once constructed: Header, Transactions and Receipts
// are never mutated in place after NewBlock returns.
type Block struct {
	Header       *Header
	Transactions []*transaction.Transaction
	Receipts     Receipts
}

// NewBlock builds a Block from its parts. Callers must not mutate the
// supplied slices afterward.
func NewBlock(header *Header, txs []*transaction.Transaction, receipts Receipts) *Block {
	return &Block{Header: header, Transactions: txs, Receipts: receipts}
}

// Hash delegates to the header: a block's hash is the hash of its header's
// canonical encoding.
func (b *Block) Hash() types.Hash { return b.Header.Hash() }

// Number is a convenience accessor.
func (b *Block) Number() int64 { return b.Header.Number }

// ParentHash is a convenience accessor.
func (b *Block) ParentHash() types.Hash { return b.Header.ParentHash }

// Encode produces the block's canonical byte encoding (header + transaction
// list; receipts are derived data and are not part of block identity).
func (b *Block) Encode() []byte {
	txItems := make([][]byte, len(b.Transactions))
	for i, tx := range b.Transactions {
		txItems[i] = tx.Encode()
	}
	return encoding.EncodeList([][]byte{
		b.Header.Encode(),
		encoding.EncodeList(txItems),
	})
}

// Decode is the inverse of Encode.
func Decode(b []byte) (*Block, error) {
	items, _, err := encoding.DecodeList(b)
	if err != nil {
		return nil, err
	}
	if len(items) != 2 {
		return nil, errHeaderShape
	}
	header, err := DecodeHeader(items[0])
	if err != nil {
		return nil, err
	}
	txItems, _, err := encoding.DecodeList(items[1])
	if err != nil {
		return nil, err
	}
	txs := make([]*transaction.Transaction, len(txItems))
	for i, it := range txItems {
		tx, err := transaction.Decode(it)
		if err != nil {
			return nil, err
		}
		txs[i] = tx
	}
	return &Block{Header: header, Transactions: txs}, nil
}

// LocalisedTransaction is a transaction plus the coordinates of the block
// that contains it.
type LocalisedTransaction struct {
	*transaction.Transaction
	BlockHash   types.Hash
	BlockNumber int64
	Index       uint64
}

// LocalisedReceipt is a receipt plus the coordinates of its containing
// block and transaction.
type LocalisedReceipt struct {
	*Receipt
	BlockHash   types.Hash
	BlockNumber int64
	Index       uint64
}

type shapeError string

func (e shapeError) Error() string { return string(e) }

const errHeaderShape = shapeError("block: malformed canonical encoding")
