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
	"net"
	"sync"
	"sync/atomic"
	"time"

	"github.com/n42blockchain/n42-ledger/log"
	"github.com/n42blockchain/n42-ledger/pkg/errors"
)

// BufferLength is the scratch buffer size for one async read, pulled from
// the pool in message_pool.go rather than allocated per read.
const BufferLength = 4096

// defaultShutdownTimeout bounds the graceful-close attempt in drop(); the
// underlying conn is force-closed once it elapses.
const defaultShutdownTimeout = 3 * time.Second

// maxWriteQueue bounds a session's egress queue. A peer that cannot drain
// this many frames is dropped rather than allowed to grow the queue
// without bound.
const maxWriteQueue = 1024

// SessionState tracks a Session's lifecycle: Idle -> Active (Start) ->
// Closing (Drop) -> Closed.
type SessionState int32

const (
	SessionIdle SessionState = iota
	SessionActive
	SessionClosing
	SessionClosed
)

// Host is the narrow slice of the owning p2p server a Session needs: whether
// the network is still up. start() requires an associated live Host.
type Host interface {
	Connected() bool
}

// MessageHandler receives every inbound message that isn't a response to a
// pending request, plus session-level notifications (a protocol error, or
// the error delivered when the session drops).
type MessageHandler func(err error, session *Session, msg *Message)

// ResponseCallback is invoked exactly once: on a matching response, on
// request timeout, or on session drop.
type ResponseCallback func(err error, msg *Message)

// SendOptions configures AsyncSendMessage. A zero Timeout means the request
// never times out on its own (it still completes via drop).
type SendOptions struct {
	Timeout time.Duration
}

type pendingCall struct {
	callback ResponseCallback
	timer    *time.Timer
}

// Session owns one peer TCP/TLS connection. All exported methods are safe
// for concurrent use.
type Session struct {
	conn            net.Conn
	host            Host
	handler         MessageHandler
	shutdownTimeout time.Duration

	mu      sync.Mutex
	state   SessionState
	pending map[uint32]*pendingCall

	seq uint32

	writeMu    sync.Mutex
	writing    bool
	writeQueue *PeerMessageQueue

	recvBuf []byte
}

// NewSession wraps an already-established connection. Call Start to begin
// the read loop once the session is registered with its owning Host.
func NewSession(conn net.Conn, host Host, handler MessageHandler) *Session {
	return &Session{
		conn:            conn,
		host:            host,
		handler:         handler,
		shutdownTimeout: defaultShutdownTimeout,
		pending:         make(map[uint32]*pendingCall),
		writeQueue:      NewPeerMessageQueue(maxWriteQueue),
	}
}

func (s *Session) isActive() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state == SessionActive
}

// Start transitions Idle -> Active and kicks off the read loop. It is
// idempotent: calling it again while Active, Closing or Closed does nothing.
func (s *Session) Start() {
	s.mu.Lock()
	if s.state != SessionIdle {
		s.mu.Unlock()
		return
	}
	if s.host == nil || !s.host.Connected() {
		s.mu.Unlock()
		return
	}
	s.state = SessionActive
	s.mu.Unlock()

	go s.readLoop()
}

// readLoop is the async read side: it accumulates bytes into recvBuf and
// decodes as many complete frames as are available before issuing the next
// read.
func (s *Session) readLoop() {
	scratch := GetMessageBuffer(BufferLength)
	defer PutMessageBuffer(scratch)

readLoop:
	for s.isActive() {
		n, err := s.conn.Read(scratch)
		if err != nil {
			s.Drop(errors.DisconnectTCPError)
			return
		}
		s.recvBuf = append(s.recvBuf, scratch[:n]...)

		for {
			consumed, msg := decode(s.recvBuf)
			switch {
			case consumed > 0:
				s.recvBuf = s.recvBuf[consumed:]
				s.dispatch(nil, msg)
			case consumed == 0:
				continue readLoop
			default:
				log.Warn("p2p: session decode error, dropping malformed frame")
				s.dispatch(errors.ErrProtocol, nil)
				s.Drop(errors.DisconnectBadProtocol)
				return
			}
		}
	}
}

// dispatch routes a decoded frame: a response to a still-pending request
// goes to that request's callback; everything else goes to the session
// message handler.
func (s *Session) dispatch(err error, msg *Message) {
	if msg != nil && !msg.IsRequestPacket() {
		if p := s.takePending(msg.Seq); p != nil {
			if p.timer != nil {
				p.timer.Stop()
			}
			cb := p.callback
			go cb(err, msg)
			return
		}
	}
	if s.handler != nil {
		h := s.handler
		go h(err, s, msg)
	}
}

// takePending atomically looks up and removes a pending callback, so a
// timeout firing concurrently with a late response can never double-fire it.
func (s *Session) takePending(seq uint32) *pendingCall {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.pending[seq]
	if !ok {
		return nil
	}
	delete(s.pending, seq)
	return p
}

// AsyncSendMessage assigns msg a fresh sequence number, registers callback
// against it, and enqueues the encoded frame for write. A nil callback is
// legal for fire-and-forget sends.
func (s *Session) AsyncSendMessage(msg *Message, opts SendOptions, callback ResponseCallback) {
	if !s.isActive() {
		if callback != nil {
			go callback(errors.ErrSessionInactive, nil)
		}
		return
	}

	seq := atomic.AddUint32(&s.seq, 1)
	msg.Seq = seq

	if callback != nil {
		pc := &pendingCall{callback: callback}
		if opts.Timeout > 0 {
			pc.timer = time.AfterFunc(opts.Timeout, func() {
				if p := s.takePending(seq); p != nil {
					go p.callback(errors.ErrNetworkTimeout, nil)
				}
			})
		}
		s.mu.Lock()
		s.pending[seq] = pc
		s.mu.Unlock()
	}

	s.enqueueWrite(msg.Encode())
}

func (s *Session) enqueueWrite(buf []byte) {
	if !s.writeQueue.Enqueue(buf) {
		log.Warn("p2p: session write queue full, dropping peer")
		s.Drop(errors.DisconnectTCPError)
		return
	}
	s.write()
}

// write serializes sends through the single writing flag: at most one
// outstanding async write per session, draining the FIFO queue on each
// completion.
func (s *Session) write() {
	if !s.isActive() {
		return
	}

	s.writeMu.Lock()
	if s.writing {
		s.writeMu.Unlock()
		return
	}
	buf := s.writeQueue.Dequeue()
	if buf == nil {
		s.writeMu.Unlock()
		return
	}
	s.writing = true
	s.writeMu.Unlock()

	go func() {
		_, err := s.conn.Write(buf)

		s.writeMu.Lock()
		s.writing = false
		s.writeMu.Unlock()

		if err != nil {
			s.Drop(errors.DisconnectTCPError)
			return
		}
		s.write()
	}()
}

// Disconnect is the public request-to-close entry point.
func (s *Session) Disconnect(reason errors.DisconnectReason) {
	s.Drop(reason)
}

// Drop transitions Active -> Closing, fires every pending callback exactly
// once with an error that depends on reason, notifies the session handler,
// and starts a bounded async shutdown. After Drop returns, no new callback
// is ever accepted.
func (s *Session) Drop(reason errors.DisconnectReason) {
	s.mu.Lock()
	if s.state != SessionActive {
		s.mu.Unlock()
		return
	}
	s.state = SessionClosing
	pending := s.pending
	s.pending = make(map[uint32]*pendingCall)
	s.mu.Unlock()

	dropErr := errors.ErrDisconnect
	if reason == errors.DisconnectDuplicatePeer {
		dropErr = errors.ErrDuplicateSession
	}

	log.Info("p2p: session dropped", "reason", reason.String(), "pending", len(pending))

	s.writeQueue.Clear()

	for _, p := range pending {
		if p.timer != nil {
			p.timer.Stop()
		}
		cb := p.callback
		go cb(dropErr, nil)
	}

	if s.handler != nil {
		h := s.handler
		go h(dropErr, s, nil)
	}

	s.shutdown()
}

// shutdown bounds the close attempt with shutdownTimeout: a TLS conn writes
// its close_notify inside Close, which this deadline caps, after which the
// socket is force-closed regardless of how far that handshake got.
func (s *Session) shutdown() {
	go func() {
		_ = s.conn.SetDeadline(time.Now().Add(s.shutdownTimeout))
		if err := s.conn.Close(); err != nil {
			log.Warn("p2p: session shutdown did not complete cleanly", "err", err)
		}

		s.mu.Lock()
		s.state = SessionClosed
		s.mu.Unlock()
	}()
}
