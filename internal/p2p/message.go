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

package p2p

import "encoding/binary"

// headerLength is the fixed transport header every frame carries ahead of
// its canonical-encoded payload: a 4-byte big-endian frame length (covering
// everything after itself), a 1-byte packet type, a 4-byte big-endian
// sequence number and a 1-byte request/response flag.
const headerLength = 4 + 1 + 4 + 1

// Packet types exchanged by the sync engine. Values are protocol-fixed:
// every node in the committee must agree on them.
const (
	PacketStatus       uint8 = 0x20
	PacketTransactions uint8 = 0x21
	PacketBlocks       uint8 = 0x22
	PacketReqBlocks    uint8 = 0x23
)

// Message is one Session frame: a packet type, a correlation sequence
// number, a request/response flag, and the canonical-encoded payload body
// (a per-packet-type list, see modules/sync/packet.go).
type Message struct {
	PacketType uint8
	Seq        uint32
	Request    bool
	Data       []byte
}

// NewRequest builds an outbound request frame, seq assigned by the session.
func NewRequest(packetType uint8, data []byte) *Message {
	return &Message{PacketType: packetType, Request: true, Data: data}
}

// NewResponse builds a reply carrying the same seq as the request it answers.
func NewResponse(packetType uint8, seq uint32, data []byte) *Message {
	return &Message{PacketType: packetType, Seq: seq, Request: false, Data: data}
}

// IsRequestPacket distinguishes a request frame from a response: dispatch
// only treats a reply to a pending seq as a response when this is false.
func (m *Message) IsRequestPacket() bool { return m.Request }

// Encode serializes m into its wire form:
//
//	[0:4)   frame length, big-endian (bytes from offset 4 to the end)
//	[4]     packet type
//	[5:9)   sequence number, big-endian
//	[9]     request flag (1 = request, 0 = response)
//	[10:]   payload
func (m *Message) Encode() []byte {
	buf := make([]byte, headerLength+len(m.Data))
	binary.BigEndian.PutUint32(buf[0:4], uint32(headerLength-4+len(m.Data)))
	buf[4] = m.PacketType
	binary.BigEndian.PutUint32(buf[5:9], m.Seq)
	if m.Request {
		buf[9] = 1
	}
	copy(buf[headerLength:], m.Data)
	return buf
}

// decode attempts to parse one frame off the front of buf.
//
// Returns n > 0 and the parsed message when a complete frame was consumed;
// n == 0 when buf does not yet hold a complete frame (the caller must read
// more); n < 0 when buf's header is self-inconsistent (a protocol error).
func decode(buf []byte) (n int, msg *Message) {
	if len(buf) < 4 {
		return 0, nil
	}
	bodyLen := binary.BigEndian.Uint32(buf[0:4])
	if bodyLen < headerLength-4 {
		return -1, nil
	}
	total := 4 + int(bodyLen)
	if total < 0 {
		return -1, nil
	}
	if len(buf) < total {
		return 0, nil
	}
	packetType := buf[4]
	seq := binary.BigEndian.Uint32(buf[5:9])
	request := buf[9] != 0
	data := make([]byte, total-headerLength)
	copy(data, buf[headerLength:total])
	return total, &Message{PacketType: packetType, Seq: seq, Request: request, Data: data}
}
