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
	"testing"

	"github.com/stretchr/testify/require"
)

func TestGroupMarkParsing(t *testing.T) {
	consensus, storage, state, ok := parseGroupMark(testGroupMark)
	require.True(t, ok)
	require.Equal(t, "pbft", consensus)
	require.Equal(t, "mdbx", storage)
	require.Equal(t, "mpt", state)

	_, _, _, ok = parseGroupMark("too-few-fields")
	require.False(t, ok)
}

func TestGenesisGroupMarkMismatchNonFatal(t *testing.T) {
	storage := newMemStorage()
	l := NewLedger(storage)
	ok, err := l.CheckAndBuildGenesisBlock(&GenesisBlockParam{GroupMark: "bad-mark"})
	require.NoError(t, err)
	require.False(t, ok)
	require.Equal(t, int64(0), l.Number())

	// Nothing was committed: the ledger still has no genesis block.
	blk, err := l.GetBlockByNumber(0)
	require.NoError(t, err)
	require.Nil(t, blk)
}

func TestGenesisFillsTypeTriple(t *testing.T) {
	storage := newMemStorage()
	l := NewLedger(storage)
	param := &GenesisBlockParam{GroupMark: testGroupMark, TxCountLimit: 1000, TxGasLimit: 300000000}
	ok, err := l.CheckAndBuildGenesisBlock(param)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "pbft", param.ConsensusType)
	require.Equal(t, "mdbx", param.StorageType)
	require.Equal(t, "mpt", param.StateType)
}

func TestGenesisIdempotentOnMatch(t *testing.T) {
	l, storage := newTestLedger(t)

	l2 := NewLedger(storage)
	ok, err := l2.CheckAndBuildGenesisBlock(&GenesisBlockParam{GroupMark: testGroupMark})
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, int64(0), l2.Number())
	_ = l
}

func TestGenesisRejectsDifferentGroupMark(t *testing.T) {
	_, storage := newTestLedger(t)

	l2 := NewLedger(storage)
	ok, err := l2.CheckAndBuildGenesisBlock(&GenesisBlockParam{
		GroupMark: "other0-pbft-mdbx-mpt-1-0-0",
	})
	require.NoError(t, err)
	require.False(t, ok)
}

func TestGenesisRoundTripsThroughStorage(t *testing.T) {
	l, storage := newTestLedger(t)
	want, err := l.GetBlockByNumber(0)
	require.NoError(t, err)

	l2 := NewLedger(storage)
	got, err := l2.GetBlockByNumber(0)
	require.NoError(t, err)
	require.NotNil(t, got)
	require.Equal(t, want.Hash(), got.Hash())
	require.Equal(t, testGroupMark, string(got.Header.ExtraData[0]))
}
