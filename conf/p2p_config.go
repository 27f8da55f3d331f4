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

package conf

import "time"

// P2PConfig configures the Session transport and the Sync Engine's tick
// loop.
type P2PConfig struct {
	// ListenAddress is the TCP address the node accepts peer connections on.
	ListenAddress string `json:"listen_address" yaml:"listen_address"`

	// TLSCertFile / TLSKeyFile identify this node to peers. TLSClientCAFile
	// is the pool peer certificates are verified against.
	TLSCertFile    string `json:"tls_cert_file" yaml:"tls_cert_file"`
	TLSKeyFile     string `json:"tls_key_file" yaml:"tls_key_file"`
	TLSClientCAFile string `json:"tls_client_ca_file" yaml:"tls_client_ca_file"`

	// ShutdownTimeout is not read by the session layer: every Session bounds
	// its graceful close with the fixed 3-second default in internal/p2p.
	ShutdownTimeout time.Duration `json:"shutdown_timeout" yaml:"shutdown_timeout"`

	// IdleWaitMs bounds the Sync Engine's condition-variable wait between
	// ticks when there is no new work to dispatch.
	IdleWaitMs int `json:"idle_wait_ms" yaml:"idle_wait_ms"`

	// MaxSendTransactions bounds how many pool transactions maintain_transactions
	// selects per tick.
	MaxSendTransactions int `json:"max_send_transactions" yaml:"max_send_transactions"`

	// MaxPayloadBytes bounds how many encoded bytes a single SyncBlocksPacket
	// shard carries in response to RequestBlocks.
	MaxPayloadBytes int `json:"max_payload_bytes" yaml:"max_payload_bytes"`
}

// DefaultP2PConfig returns settings suitable for a small consortium network.
func DefaultP2PConfig() P2PConfig {
	return P2PConfig{
		ListenAddress:       "0.0.0.0:30311",
		ShutdownTimeout:     3 * time.Second,
		IdleWaitMs:          30,
		MaxSendTransactions: 64,
		MaxPayloadBytes:     1 << 20, // 1 MiB
	}
}
