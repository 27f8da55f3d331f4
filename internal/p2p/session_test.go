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
	"testing"
	"time"

	"github.com/n42blockchain/n42-ledger/pkg/errors"
	"github.com/stretchr/testify/require"
)

type alwaysConnected struct{}

func (alwaysConnected) Connected() bool { return true }

func newConnectedSessionPair(t *testing.T, handler MessageHandler) (*Session, net.Conn) {
	t.Helper()
	local, remote := net.Pipe()
	s := NewSession(local, alwaysConnected{}, handler)
	s.Start()
	t.Cleanup(func() { local.Close(); remote.Close() })
	return s, remote
}

func TestSessionRequestResponseCorrelation(t *testing.T) {
	s, remote := newConnectedSessionPair(t, nil)

	go func() {
		buf := make([]byte, BufferLength)
		n, err := remote.Read(buf)
		require.NoError(t, err)
		_, req := decode(buf[:n])
		require.NotNil(t, req)
		resp := NewResponse(PacketStatus, req.Seq, []byte("pong"))
		_, err = remote.Write(resp.Encode())
		require.NoError(t, err)
	}()

	done := make(chan struct{})
	var gotErr error
	var gotMsg *Message
	s.AsyncSendMessage(NewRequest(PacketStatus, []byte("ping")), SendOptions{}, func(err error, msg *Message) {
		gotErr, gotMsg = err, msg
		close(done)
	})

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("callback never fired")
	}
	require.NoError(t, gotErr)
	require.Equal(t, []byte("pong"), gotMsg.Data)
}

func TestSessionTimeoutFiresCallbackOnce(t *testing.T) {
	s, _ := newConnectedSessionPair(t, nil)

	var calls int32
	var mu sync.Mutex
	done := make(chan struct{})
	s.AsyncSendMessage(NewRequest(PacketStatus, nil), SendOptions{Timeout: 20 * time.Millisecond}, func(err error, msg *Message) {
		mu.Lock()
		calls++
		mu.Unlock()
		close(done)
	})

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("timeout callback never fired")
	}

	time.Sleep(50 * time.Millisecond)
	mu.Lock()
	require.Equal(t, int32(1), calls)
	mu.Unlock()
}

func TestSessionDropFiresPendingAndHandler(t *testing.T) {
	var handlerErr error
	var handlerMu sync.Mutex
	handlerDone := make(chan struct{})

	s, _ := newConnectedSessionPair(t, func(err error, session *Session, msg *Message) {
		handlerMu.Lock()
		handlerErr = err
		handlerMu.Unlock()
		close(handlerDone)
	})

	pendingDone := make(chan struct{})
	var pendingErr error
	s.AsyncSendMessage(NewRequest(PacketStatus, nil), SendOptions{}, func(err error, msg *Message) {
		pendingErr = err
		close(pendingDone)
	})

	s.Drop(errors.DisconnectDuplicatePeer)

	select {
	case <-pendingDone:
	case <-time.After(2 * time.Second):
		t.Fatal("pending callback never fired on drop")
	}
	select {
	case <-handlerDone:
	case <-time.After(2 * time.Second):
		t.Fatal("session handler never notified on drop")
	}

	require.ErrorIs(t, pendingErr, errors.ErrDuplicateSession)
	handlerMu.Lock()
	require.ErrorIs(t, handlerErr, errors.ErrDuplicateSession)
	handlerMu.Unlock()

	// A second Drop is a no-op: state is already past Active.
	s.Drop(errors.DisconnectTCPError)
}

func TestSessionAsyncSendWhileInactiveReturnsError(t *testing.T) {
	local, remote := net.Pipe()
	defer local.Close()
	defer remote.Close()

	s := NewSession(local, alwaysConnected{}, nil)
	// Never started: still Idle, not Active.

	done := make(chan error, 1)
	s.AsyncSendMessage(NewRequest(PacketStatus, nil), SendOptions{}, func(err error, msg *Message) {
		done <- err
	})

	select {
	case err := <-done:
		require.ErrorIs(t, err, errors.ErrSessionInactive)
	case <-time.After(2 * time.Second):
		t.Fatal("callback never fired for inactive session")
	}
}
