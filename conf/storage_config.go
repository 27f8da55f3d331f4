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

// StorageConfig selects and configures the KV backend the Table Store
// (modules/kvtable) binds to. The backend itself is pluggable; this only
// carries what the erigon-lib/kv binding this module ships needs.
type StorageConfig struct {
	// Backend names the erigon-lib/kv driver: "mdbx" or "memory".
	Backend string `json:"backend" yaml:"backend"`

	// DataDir is the directory the backend persists its files under, when
	// Backend != "memory". Defaults to NodeConfig.DataDir/chaindata.
	DataDir string `json:"data_dir" yaml:"data_dir"`

	// Bucket is the single erigon-lib/kv bucket every table-store (table,
	// key) pair is namespaced into (kvtable.KVStorage).
	Bucket string `json:"bucket" yaml:"bucket"`
}

// DefaultStorageConfig binds to an in-process MDBX instance.
func DefaultStorageConfig() StorageConfig {
	return StorageConfig{
		Backend: "mdbx",
		DataDir: "",
		Bucket:  "LedgerTables",
	}
}
