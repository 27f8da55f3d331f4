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

package encoding

import (
	"encoding/binary"
	"fmt"
)

// Canonical encoding is a minimal, deterministic length-prefixed scheme used
// for both content hashing (blocks, transactions, table rows) and the wire
// frame bodies exchanged by the Session/Sync Engine. A value is a varint
// length followed by that many raw bytes; a list is a varint length of its
// body followed by each element's own length-prefixed encoding. Encoding an
// equal value always produces equal bytes, so hashing and the session's
// re-serialization check are trivial equality tests over these bytes.

// EncodeBytes length-prefixes a single byte string.
func EncodeBytes(b []byte) []byte {
	buf := GetBuffer()
	defer PutBuffer(buf)

	var lenBuf [binary.MaxVarintLen64]byte
	n := binary.PutUvarint(lenBuf[:], uint64(len(b)))
	buf.Write(lenBuf[:n])
	buf.Write(b)

	out := make([]byte, buf.Len())
	copy(out, buf.Bytes())
	return out
}

// EncodeUint64 encodes v as a length-prefixed big-endian byte string with no
// leading zero bytes (so e.g. 0 encodes as an empty string).
func EncodeUint64(v uint64) []byte {
	var b [8]byte
	binary.BigEndian.PutUint64(b[:], v)
	i := 0
	for i < 8 && b[i] == 0 {
		i++
	}
	return EncodeBytes(b[i:])
}

// DecodeUint64 is the inverse of EncodeUint64.
func DecodeUint64(b []byte) uint64 {
	var padded [8]byte
	if len(b) > 8 {
		b = b[len(b)-8:]
	}
	copy(padded[8-len(b):], b)
	return binary.BigEndian.Uint64(padded[:])
}

// DecodeBytes reads one length-prefixed value off buf, returning it and the
// unconsumed remainder.
func DecodeBytes(buf []byte) (value []byte, rest []byte, err error) {
	size, n := binary.Uvarint(buf)
	if n <= 0 {
		return nil, nil, fmt.Errorf("encoding: malformed length prefix")
	}
	buf = buf[n:]
	if uint64(len(buf)) < size {
		return nil, nil, fmt.Errorf("encoding: truncated value, want %d have %d", size, len(buf))
	}
	return buf[:size], buf[size:], nil
}

// EncodeList encodes items as a canonical list: a varint length of the
// concatenated element encodings, followed by the elements themselves.
func EncodeList(items [][]byte) []byte {
	buf := GetBuffer()
	defer PutBuffer(buf)

	for _, it := range items {
		buf.Write(EncodeBytes(it))
	}
	body := make([]byte, buf.Len())
	copy(body, buf.Bytes())

	return EncodeBytes(body)
}

// DecodeList is the inverse of EncodeList: it reads the list's length
// prefix, then splits the body into its element values.
func DecodeList(buf []byte) (items [][]byte, rest []byte, err error) {
	body, rest, err := DecodeBytes(buf)
	if err != nil {
		return nil, nil, err
	}
	for len(body) > 0 {
		var item []byte
		item, body, err = DecodeBytes(body)
		if err != nil {
			return nil, nil, err
		}
		items = append(items, item)
	}
	return items, rest, nil
}

// ListLen reports how many bytes EncodeList(items) would occupy, without
// allocating — used by callers that must bound a batch by an encoded-size
// budget (e.g. the sync engine's payload sharding).
func ListLen(items [][]byte) int {
	total := 0
	for _, it := range items {
		total += uvarintLen(uint64(len(it))) + len(it)
	}
	return uvarintLen(uint64(total)) + total
}

func uvarintLen(v uint64) int {
	n := 1
	for v >= 0x80 {
		v >>= 7
		n++
	}
	return n
}
