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

// Package types defines the fixed-size identifiers shared across the ledger:
// hashes, addresses and node ids.
package types

import (
	"encoding/hex"
	"fmt"
)

const (
	HashLength    = 32
	AddressLength = 20
	NodeIdLength  = 64
)

// Hash is a 32-byte opaque content identifier.
type Hash [HashLength]byte

// BytesToHash converts b into a Hash, keeping the rightmost HashLength bytes
// of a longer input and left-padding a shorter one with zeros.
func BytesToHash(b []byte) Hash {
	var h Hash
	if len(b) > HashLength {
		b = b[len(b)-HashLength:]
	}
	copy(h[HashLength-len(b):], b)
	return h
}

// HexToHash decodes a hex string (optionally "0x"-prefixed) into a Hash.
func HexToHash(s string) Hash {
	return BytesToHash(fromHex(s))
}

func (h Hash) Bytes() []byte { return h[:] }

func (h Hash) Hex() string { return "0x" + hex.EncodeToString(h[:]) }

func (h Hash) String() string { return h.Hex() }

func (h Hash) IsZero() bool { return h == Hash{} }

// Address is a 20-byte account/table-owner identifier.
type Address [AddressLength]byte

func BytesToAddress(b []byte) Address {
	var a Address
	if len(b) > AddressLength {
		b = b[len(b)-AddressLength:]
	}
	copy(a[AddressLength-len(b):], b)
	return a
}

func HexToAddress(s string) Address {
	return BytesToAddress(fromHex(s))
}

func (a Address) Bytes() []byte { return a[:] }

func (a Address) Hex() string { return "0x" + hex.EncodeToString(a[:]) }

func (a Address) String() string { return a.Hex() }

func (a Address) IsZero() bool { return a == Address{} }

// NodeId is a 64-byte public-key peer identifier.
type NodeId [NodeIdLength]byte

func BytesToNodeId(b []byte) NodeId {
	var n NodeId
	if len(b) > NodeIdLength {
		b = b[len(b)-NodeIdLength:]
	}
	copy(n[NodeIdLength-len(b):], b)
	return n
}

// HexToNodeId decodes a hex-encoded node id. Node ids are exactly 128 hex
// characters (64 bytes); callers that must enforce that use ParseNodeId
// instead, which reports malformed input.
func HexToNodeId(s string) NodeId {
	return BytesToNodeId(fromHex(s))
}

// ParseNodeId decodes a hex node id and rejects anything other than exactly
// 128 hex characters, mirroring the roster-insertion length check.
func ParseNodeId(s string) (NodeId, error) {
	b := fromHex(s)
	if len(b) != NodeIdLength {
		return NodeId{}, fmt.Errorf("node id must be %d bytes, got %d", NodeIdLength, len(b))
	}
	return BytesToNodeId(b), nil
}

func (n NodeId) Bytes() []byte { return n[:] }

func (n NodeId) Hex() string { return hex.EncodeToString(n[:]) }

func (n NodeId) String() string { return n.Hex() }

func fromHex(s string) []byte {
	if len(s) >= 2 && (s[0:2] == "0x" || s[0:2] == "0X") {
		s = s[2:]
	}
	if len(s)%2 == 1 {
		s = "0" + s
	}
	b, err := hex.DecodeString(s)
	if err != nil {
		return nil
	}
	return b
}
