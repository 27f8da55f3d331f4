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

// Package sync implements the sync engine: a cooperative,
// per-tick peer-to-peer loop that exchanges chain status, broadcasts
// transactions, and drains a download queue of blocks fetched from peers.
package sync

import (
	"github.com/n42blockchain/n42-ledger/common/encoding"
	"github.com/n42blockchain/n42-ledger/common/types"
	"github.com/n42blockchain/n42-ledger/internal/p2p"
	"github.com/n42blockchain/n42-ledger/pkg/errors"
)

// Packet types are protocol-fixed (every node in the committee must agree
// on them); re-exported from internal/p2p so callers only need this package.
const (
	PacketStatus       = p2p.PacketStatus
	PacketTransactions = p2p.PacketTransactions
	PacketBlocks       = p2p.PacketBlocks
	PacketReqBlocks    = p2p.PacketReqBlocks
)

// validateEnvelope checks a decoded message's payload against the envelope
// rule: at least 2 bytes, and the inner canonical-encoded list re-serializes
// to exactly the bytes given. Re-serialization equality is the cheapest way
// to reject a frame that merely parses without actually being canonical.
func validateEnvelope(data []byte) ([][]byte, error) {
	if len(data) < 2 {
		return nil, errors.ErrBadProtocol
	}
	items, rest, err := encoding.DecodeList(data)
	if err != nil || len(rest) != 0 {
		return nil, errors.ErrBadProtocol
	}
	if string(encoding.EncodeList(items)) != string(data) {
		return nil, errors.ErrBadProtocol
	}
	return items, nil
}

// StatusPacket is the Status payload: [number, genesis_hash, latest_hash].
type StatusPacket struct {
	Number      int64
	GenesisHash types.Hash
	LatestHash  types.Hash
}

func (p *StatusPacket) Encode() []byte {
	return encoding.EncodeList([][]byte{
		encoding.EncodeUint64(uint64(p.Number)),
		encoding.EncodeBytes(p.GenesisHash.Bytes()),
		encoding.EncodeBytes(p.LatestHash.Bytes()),
	})
}

func decodeStatusPacket(data []byte) (*StatusPacket, error) {
	items, err := validateEnvelope(data)
	if err != nil {
		return nil, err
	}
	if len(items) != 3 {
		return nil, errors.ErrBadProtocol
	}
	return &StatusPacket{
		Number:      int64(encoding.DecodeUint64(items[0])),
		GenesisHash: types.BytesToHash(items[1]),
		LatestHash:  types.BytesToHash(items[2]),
	}, nil
}

// encodeTransactionsPacket concatenates already-canonical-encoded
// transaction bytes into one Transactions payload: [tx0, tx1, ...].
func encodeTransactionsPacket(txs [][]byte) []byte {
	return encoding.EncodeList(txs)
}

func decodeTransactionsPacket(data []byte) ([][]byte, error) {
	items, err := validateEnvelope(data)
	if err != nil {
		return nil, err
	}
	return items, nil
}

// encodeBlocksPacket concatenates already-canonical-encoded block bytes
// into one Blocks payload: [block0, block1, ...].
func encodeBlocksPacket(blocks [][]byte) []byte {
	return encoding.EncodeList(blocks)
}

func decodeBlocksPacket(data []byte) ([][]byte, error) {
	items, err := validateEnvelope(data)
	if err != nil {
		return nil, err
	}
	return items, nil
}

// ReqBlocksPacket is the ReqBlocks payload: [from_number, size].
type ReqBlocksPacket struct {
	From int64
	Size int64
}

func (p *ReqBlocksPacket) Encode() []byte {
	return encoding.EncodeList([][]byte{
		encoding.EncodeUint64(uint64(p.From)),
		encoding.EncodeUint64(uint64(p.Size)),
	})
}

func decodeReqBlocksPacket(data []byte) (*ReqBlocksPacket, error) {
	items, err := validateEnvelope(data)
	if err != nil {
		return nil, err
	}
	if len(items) != 2 {
		return nil, errors.ErrBadProtocol
	}
	return &ReqBlocksPacket{
		From: int64(encoding.DecodeUint64(items[0])),
		Size: int64(encoding.DecodeUint64(items[1])),
	}, nil
}

// shardByBudget splits encoded items into shards whose EncodeList size
// does not exceed maxPayload, preserving item order. An item that alone
// exceeds maxPayload is placed in a shard by itself. Used by RequestBlocks
// handling to bound each SyncBlocksPacket's wire size.
func shardByBudget(items [][]byte, maxPayload int) [][][]byte {
	var shards [][][]byte
	var cur [][]byte
	for _, it := range items {
		trial := append(append([][]byte{}, cur...), it)
		if len(trial) > 1 && encoding.ListLen(trial) > maxPayload {
			shards = append(shards, cur)
			cur = [][]byte{it}
			continue
		}
		cur = trial
	}
	if len(cur) > 0 {
		shards = append(shards, cur)
	}
	return shards
}
