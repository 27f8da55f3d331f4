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

// NodeConfig carries the node-identity and filesystem settings shared by
// logging, storage and the p2p layer.
type NodeConfig struct {
	// Name is a human-readable node label. The node does not read it: it
	// appears neither in log lines nor in the P2P exchange.
	Name string `json:"name" yaml:"name"`

	// DataDir is the root directory the node persists its ledger and logs
	// under. log.Init creates DataDir/log for file output.
	DataDir string `json:"data_dir" yaml:"data_dir"`

	// NodePrivate is the hex-encoded 32-byte secp256k1 private key the node
	// derives its own NodeId from. Empty means a random ephemeral NodeId is
	// generated at startup.
	NodePrivate string `json:"node_private" yaml:"node_private"`
}

// DefaultNodeConfig returns sane defaults for a node running out of the
// current working directory.
func DefaultNodeConfig() NodeConfig {
	return NodeConfig{
		Name:    "n42",
		DataDir: "./data",
	}
}
