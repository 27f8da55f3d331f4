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

// Package transaction defines the ledger's transaction type. Signing lives
// with the wallet tooling; this package only offers the narrow
// signature-recovery helper the sync engine and RPC-adjacent callers need
// to recover a sender address.
package transaction

import (
	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/btcec/v2/ecdsa"
	"github.com/n42blockchain/n42-ledger/common/encoding"
	"github.com/n42blockchain/n42-ledger/common/types"
	"golang.org/x/crypto/sha3"
)

const SignatureLength = 65

// Transaction is the ledger's minimal transaction shape: sender, optional
// recipient (nil for a contract-creation style transaction), nonce, an
// opaque payload and an opaque signature.
type Transaction struct {
	From      types.Address
	To        *types.Address
	Nonce     uint64
	Payload   []byte
	Signature [SignatureLength]byte
}

// fields returns the transaction's canonical-encodable parts in wire order.
// The signature is included: Sha3 hashes the whole struct, and
// signatureHash re-encodes with the signature zeroed.
func (t *Transaction) fields() [][]byte {
	to := []byte{}
	if t.To != nil {
		to = t.To.Bytes()
	}
	return [][]byte{
		encoding.EncodeBytes(t.From.Bytes()),
		encoding.EncodeBytes(to),
		encoding.EncodeUint64(t.Nonce),
		encoding.EncodeBytes(t.Payload),
		encoding.EncodeBytes(t.Signature[:]),
	}
}

// Encode produces the transaction's canonical byte encoding.
func (t *Transaction) Encode() []byte {
	return encoding.EncodeList(t.fields())
}

// Sha3 is the hash of the transaction's canonical encoding.
func (t *Transaction) Sha3() types.Hash {
	sum := sha3.Sum256(t.Encode())
	return types.Hash(sum)
}

// Decode is the inverse of Encode.
func Decode(b []byte) (*Transaction, error) {
	items, _, err := encoding.DecodeList(b)
	if err != nil {
		return nil, err
	}
	if len(items) != 5 {
		return nil, errShape
	}
	tx := &Transaction{
		From:  types.BytesToAddress(items[0]),
		Nonce: encoding.DecodeUint64(items[2]),
	}
	if len(items[1]) > 0 {
		to := types.BytesToAddress(items[1])
		tx.To = &to
	}
	tx.Payload = append([]byte(nil), items[3]...)
	copy(tx.Signature[:], items[4])
	return tx, nil
}

// RecoverSender recovers the public key that produced Signature over the
// transaction's pre-signature fields and returns the corresponding address.
// Signature must be a 65-byte [R || S || V] recoverable ECDSA signature.
func (t *Transaction) RecoverSender() (types.Address, error) {
	sigHash := t.signatureHash()
	// btcec expects [V || R || S]; the wire format here is [R || S || V].
	var compact [SignatureLength]byte
	compact[0] = t.Signature[64] + 27
	copy(compact[1:], t.Signature[:64])

	pub, _, err := ecdsa.RecoverCompact(compact[:], sigHash[:])
	if err != nil {
		return types.Address{}, err
	}
	return publicKeyToAddress(pub), nil
}

func (t *Transaction) signatureHash() types.Hash {
	zeroed := *t
	zeroed.Signature = [SignatureLength]byte{}
	sum := sha3.Sum256(zeroed.Encode())
	return types.Hash(sum)
}

func publicKeyToAddress(pub *btcec.PublicKey) types.Address {
	raw := pub.SerializeUncompressed()[1:] // drop the 0x04 prefix
	sum := sha3.Sum256(raw)
	return types.BytesToAddress(sum[12:])
}

type shapeError string

func (e shapeError) Error() string { return string(e) }

const errShape = shapeError("transaction: malformed canonical encoding")
