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
	"testing"

	"github.com/n42blockchain/n42-ledger/common/types"
	"github.com/stretchr/testify/require"
)

func TestStatusPacketRoundTrip(t *testing.T) {
	pkt := &StatusPacket{
		Number:      42,
		GenesisHash: types.HexToHash("0x01"),
		LatestHash:  types.HexToHash("0x02"),
	}
	decoded, err := decodeStatusPacket(pkt.Encode())
	require.NoError(t, err)
	require.Equal(t, pkt.Number, decoded.Number)
	require.Equal(t, pkt.GenesisHash, decoded.GenesisHash)
	require.Equal(t, pkt.LatestHash, decoded.LatestHash)
}

func TestReqBlocksPacketRoundTrip(t *testing.T) {
	pkt := &ReqBlocksPacket{From: 10, Size: 5}
	decoded, err := decodeReqBlocksPacket(pkt.Encode())
	require.NoError(t, err)
	require.Equal(t, pkt.From, decoded.From)
	require.Equal(t, pkt.Size, decoded.Size)
}

func TestTransactionsPacketRoundTrip(t *testing.T) {
	items := [][]byte{[]byte("tx-one"), []byte("tx-two")}
	decoded, err := decodeTransactionsPacket(encodeTransactionsPacket(items))
	require.NoError(t, err)
	require.Equal(t, items, decoded)
}

func TestDecodeRejectsTooShortEnvelope(t *testing.T) {
	_, err := decodeStatusPacket([]byte{0x01})
	require.Error(t, err)
}

func TestDecodeRejectsTrailingGarbage(t *testing.T) {
	pkt := &StatusPacket{Number: 1}
	data := append(pkt.Encode(), 0xFF)
	_, err := decodeStatusPacket(data)
	require.Error(t, err)
}

func TestDecodeRejectsWrongItemCount(t *testing.T) {
	data := encodeTransactionsPacket([][]byte{[]byte("only-one-item")})
	_, err := decodeStatusPacket(data)
	require.Error(t, err)
}

func TestShardByBudgetRespectsBudget(t *testing.T) {
	items := [][]byte{
		make([]byte, 100),
		make([]byte, 100),
		make([]byte, 100),
	}
	shards := shardByBudget(items, 150)
	require.Len(t, shards, 3)
	for _, s := range shards {
		require.Len(t, s, 1)
	}
}

func TestShardByBudgetPacksWhatFits(t *testing.T) {
	items := [][]byte{
		make([]byte, 10),
		make([]byte, 10),
		make([]byte, 10),
	}
	shards := shardByBudget(items, 1<<20)
	require.Len(t, shards, 1)
	require.Len(t, shards[0], 3)
}
