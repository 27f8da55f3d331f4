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

import (
	"sync"
)

// Read-scratch buffers are pooled in power-of-two size classes so every
// session's read loop reuses the same few allocations instead of churning
// one BufferLength slice per read.
var bufferPools [16]*sync.Pool // 256B .. 8MB

func init() {
	for i := range bufferPools {
		size := 256 << uint(i)
		bufferPools[i] = &sync.Pool{
			New: func() interface{} {
				b := make([]byte, size)
				return &b
			},
		}
	}
}

// bufferSizeClass returns the pool index whose buffers hold size bytes, or
// -1 when size exceeds the largest class.
func bufferSizeClass(size int) int {
	if size <= 256 {
		return 0
	}
	class := 0
	s := (size - 1) >> 8
	for s > 0 {
		s >>= 1
		class++
	}
	if class >= len(bufferPools) {
		return -1
	}
	return class
}

// GetMessageBuffer returns a pooled buffer of at least size bytes. Buffers
// too large for any class are plain allocations and never pooled.
func GetMessageBuffer(size int) []byte {
	class := bufferSizeClass(size)
	if class < 0 {
		return make([]byte, size)
	}
	bp := bufferPools[class].Get().(*[]byte)
	return (*bp)[:size]
}

// PutMessageBuffer recycles a buffer obtained from GetMessageBuffer. A
// buffer whose capacity doesn't match its class exactly is dropped rather
// than poisoning the pool.
func PutMessageBuffer(b []byte) {
	class := bufferSizeClass(cap(b))
	if class >= 0 && class < len(bufferPools) {
		if cap(b) == 256<<uint(class) {
			bp := b[:cap(b)]
			bufferPools[class].Put(&bp)
		}
	}
}

// PeerMessageQueue is a session's bounded egress queue: encoded frames
// wait here while the single in-flight write drains. A full queue means
// the peer cannot keep up and the session is dropped by the caller.
type PeerMessageQueue struct {
	messages [][]byte
	mu       sync.Mutex
	maxSize  int
}

// NewPeerMessageQueue bounds the queue to maxSize frames.
func NewPeerMessageQueue(maxSize int) *PeerMessageQueue {
	return &PeerMessageQueue{
		messages: make([][]byte, 0, maxSize),
		maxSize:  maxSize,
	}
}

// Enqueue appends a frame, reporting false when the queue is full.
func (q *PeerMessageQueue) Enqueue(msg []byte) bool {
	q.mu.Lock()
	defer q.mu.Unlock()

	if len(q.messages) >= q.maxSize {
		return false
	}
	q.messages = append(q.messages, msg)
	return true
}

// Dequeue pops the oldest frame, nil when the queue is empty.
func (q *PeerMessageQueue) Dequeue() []byte {
	q.mu.Lock()
	defer q.mu.Unlock()

	if len(q.messages) == 0 {
		return nil
	}
	msg := q.messages[0]
	q.messages = q.messages[1:]
	return msg
}

// Len reports the number of queued frames.
func (q *PeerMessageQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.messages)
}

// Clear discards everything queued; called when a session drops so no
// frame is written to a closing socket.
func (q *PeerMessageQueue) Clear() {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.messages = q.messages[:0]
}
