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

// Package errors defines the error kinds shared by the table store, the
// ledger, the p2p session and the sync engine, plus the CommitResult and
// DisconnectReason enumerations their callers branch on. Keeping them in
// one place avoids duplicated sentinel definitions across modules.
package errors

import (
	"errors"
	"fmt"
)

// =====================
// Table Store / Ledger Errors
// =====================

var (
	// ErrOpenSysTableFailed is raised fatally inside a commit when a system
	// table cannot be opened; the caller must halt the node.
	ErrOpenSysTableFailed = errors.New("ledger: failed to open system table")

	// ErrAuthDenied mirrors the -1 sentinel count: a write was rejected by
	// table authorization. It never halts the caller.
	ErrAuthDenied = errors.New("ledger: origin not authorized for table")

	// ErrCorruptSystemTable is returned when enable_num, a count, or another
	// numeric system-table field fails to parse; treated as fatal.
	ErrCorruptSystemTable = errors.New("ledger: system table contains corrupt numeric field")

	// ErrTableNotFound is returned by open_table for an unknown table name.
	ErrTableNotFound = errors.New("ledger: table not found")
)

// CommitResult is the outcome of a Block Committer commit attempt.
type CommitResult int

const (
	CommitOK CommitResult = iota
	CommitErrorNumber
	CommitErrorParentHash
	CommitErrorCommitting
)

func (r CommitResult) String() string {
	switch r {
	case CommitOK:
		return "OK"
	case CommitErrorNumber:
		return "ERROR_NUMBER"
	case CommitErrorParentHash:
		return "ERROR_PARENT_HASH"
	case CommitErrorCommitting:
		return "ERROR_COMMITTING"
	default:
		return "UNKNOWN"
	}
}

// =====================
// Session / P2P Errors
// =====================

var (
	// ErrProtocol is dispatched to the session-level handler when decode()
	// reports a malformed frame; the session then drops.
	ErrProtocol = errors.New("session: protocol error")

	// ErrNetworkTimeout fires a pending request callback when its timer
	// expires before a response arrives.
	ErrNetworkTimeout = errors.New("session: network timeout")

	// ErrSessionInactive is returned by async_send_message when the
	// session is not in the Active state.
	ErrSessionInactive = errors.New("session: not active")

	// ErrDisconnect is the default error delivered to pending callbacks
	// when a session drops for a reason other than DuplicatePeer.
	ErrDisconnect = errors.New("session: disconnected")

	// ErrDuplicateSession is delivered to pending callbacks when a session
	// drops because of DisconnectReason DuplicatePeer.
	ErrDuplicateSession = errors.New("session: duplicate peer session")

	// ErrLocalIdentity is returned by the sync engine's AcceptPeer when a
	// peer's node id equals the local node id.
	ErrLocalIdentity = errors.New("sync: peer advertised local node identity")

	// ErrBadProtocol is returned when an inbound sync envelope fails the
	// canonical re-serialization check.
	ErrBadProtocol = errors.New("sync: malformed packet envelope")
)

// DisconnectReason enumerates observable session-drop causes.
type DisconnectReason int

const (
	DisconnectRequested DisconnectReason = iota
	DisconnectTCPError
	DisconnectBadProtocol
	DisconnectDuplicatePeer
	DisconnectClientQuit
	DisconnectUserReason
	DisconnectLocalIdentity
)

func (r DisconnectReason) String() string {
	switch r {
	case DisconnectRequested:
		return "DisconnectRequested"
	case DisconnectTCPError:
		return "TCPError"
	case DisconnectBadProtocol:
		return "BadProtocol"
	case DisconnectDuplicatePeer:
		return "DuplicatePeer"
	case DisconnectClientQuit:
		return "ClientQuit"
	case DisconnectUserReason:
		return "UserReason"
	case DisconnectLocalIdentity:
		return "LocalIdentity"
	default:
		return "UnknownReason"
	}
}

// =====================
// Helper Functions
// =====================

// Wrap wraps an error with additional context.
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}

// Wrapf wraps an error with a formatted message.
func Wrapf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), err)
}

// Is reports whether any error in err's chain matches target.
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As finds the first error in err's chain that matches target.
func As(err error, target interface{}) bool {
	return errors.As(err, target)
}

// New returns an error that formats as the given text.
func New(text string) error {
	return errors.New(text)
}

// Errorf formats according to a format specifier and returns the string as a value that satisfies error.
func Errorf(format string, a ...interface{}) error {
	return fmt.Errorf(format, a...)
}

