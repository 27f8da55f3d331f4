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

package kvtable

// System table names. These are wire-visible: every node must use these
// exact byte strings or state roots diverge.
const (
	SysCurrentState = "_sys_current_state_"
	SysNumber2Hash  = "_sys_number_2_hash_"
	SysHash2Block   = "_sys_hash_2_block_"
	SysTxHash2Block = "_sys_tx_hash_2_block_"
	SysMiners       = "_sys_miners_"
	SysConfig       = "_sys_config_"
	SysAccess       = "_sys_access_"
	SysCNS          = "_sys_cns_"
)

// Column names shared across system tables.
const (
	ColValue       = "value"
	ColNum         = "_num_"
	ColHash        = "hash"
	ColBlock       = "block"
	ColBlockNumber = "block_number"
	ColIndex       = "index"
	ColType        = "type"
	ColNodeId      = "node_id"
	ColEnableNum   = "enable_num"
	ColAddress     = "address"
	ColVersion     = "version"
	ColABI         = "abi"
)

// PRIKey is the single fixed key every _sys_miners_ row is stored under —
// the roster is a multi-row table keyed by this sentinel rather than by
// node id, since the key is an index (not a primary key) and miner rows
// must all be selectable together.
const PRIKey = "PRI_KEY"

// RoleMiner and RoleObserver are the _sys_miners_ type column values.
// RoleRemove marks a node's pending removal from the roster: the row stays
// in place so the node remains effective until enable_num is reached.
const (
	RoleMiner    = "miner"
	RoleObserver = "observer"
	RoleRemove   = "remove"
)

// CurrentNumberKey and TotalTxCountKey are the _sys_current_state_ state
// keys used by the Ledger Index and Block Committer.
const (
	CurrentNumberKey = "current_number"
	TotalTxCountKey  = "total_tx_count"
)

type tableSchema struct {
	keyField    string
	valueFields []string
}

// systemSchemas are compiled in rather than persisted through
// schemaTable: persisting them would require a table to already exist to
// record its own schema, and their shape is protocol-fixed regardless.
var systemSchemas = map[string]tableSchema{
	SysCurrentState: {keyField: "state_key", valueFields: []string{ColValue, ColNum}},
	SysNumber2Hash:  {keyField: "number", valueFields: []string{ColHash}},
	SysHash2Block:   {keyField: "hash", valueFields: []string{ColBlock}},
	SysTxHash2Block: {keyField: "tx_hash", valueFields: []string{ColBlockNumber, ColIndex}},
	SysMiners:       {keyField: "pri_key", valueFields: []string{ColType, ColNodeId, ColEnableNum}},
	SysConfig:       {keyField: "config_key", valueFields: []string{ColValue, ColEnableNum}},
	SysAccess:       {keyField: "table_name", valueFields: []string{ColAddress, ColEnableNum}},
	SysCNS:          {keyField: "contract_name", valueFields: []string{ColVersion, ColAddress, ColABI}},
}
