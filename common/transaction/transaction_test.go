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

package transaction

import (
	"testing"

	"github.com/n42blockchain/n42-ledger/common/types"
	"github.com/stretchr/testify/require"
)

func sampleTx() *Transaction {
	to := types.HexToAddress("0x000000000000000000000000000000000000aa")
	return &Transaction{
		From:    types.HexToAddress("0x000000000000000000000000000000000000bb"),
		To:      &to,
		Nonce:   7,
		Payload: []byte("hello"),
	}
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	tx := sampleTx()
	tx.Signature[64] = 1

	decoded, err := Decode(tx.Encode())
	require.NoError(t, err)
	require.Equal(t, tx.From, decoded.From)
	require.Equal(t, *tx.To, *decoded.To)
	require.Equal(t, tx.Nonce, decoded.Nonce)
	require.Equal(t, tx.Payload, decoded.Payload)
	require.Equal(t, tx.Sha3(), decoded.Sha3())
}

func TestDecodeNilRecipient(t *testing.T) {
	tx := sampleTx()
	tx.To = nil

	decoded, err := Decode(tx.Encode())
	require.NoError(t, err)
	require.Nil(t, decoded.To)
}

func TestSha3Deterministic(t *testing.T) {
	a := sampleTx()
	b := sampleTx()
	require.Equal(t, a.Sha3(), b.Sha3())

	b.Nonce = 8
	require.NotEqual(t, a.Sha3(), b.Sha3())
}
