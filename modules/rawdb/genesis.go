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

package rawdb

import (
	"strconv"
	"strings"

	"github.com/n42blockchain/n42-ledger/common/block"
	"github.com/n42blockchain/n42-ledger/common/types"
	"github.com/n42blockchain/n42-ledger/log"
	"github.com/n42blockchain/n42-ledger/modules/kvtable"
)

// groupMarkFields is the exact number of hyphen-delimited fields a
// well-formed group_mark carries; fields 1..3 parse out as the
// consensus-storage-state type triple.
const groupMarkFields = 7

// GenesisBlockParam carries the group-wide parameters block 0 is
// synthesized from.
type GenesisBlockParam struct {
	GroupMark     string
	TxCountLimit  uint64
	TxGasLimit    uint64
	MinerList     []types.NodeId
	ObserverList  []types.NodeId
	ConsensusType string
	StorageType   string
	StateType     string
}

// parseGroupMark splits group_mark into its consensus-storage-state type
// triple. A mismatch in field count is non-fatal: the caller warns and
// CheckAndBuildGenesisBlock reports false.
func parseGroupMark(groupMark string) (consensus, storage, state string, ok bool) {
	fields := strings.Split(groupMark, "-")
	if len(fields) != groupMarkFields {
		return "", "", "", false
	}
	return fields[1], fields[2], fields[3], true
}

// CheckAndBuildGenesisBlock builds block 0 from param if the ledger is
// empty, or validates param against the already-committed genesis if one
// exists. A group_mark field-count mismatch reports false without fatally
// erroring; every other failure (a corrupt system table, a storage error)
// is returned as an error.
func (l *Ledger) CheckAndBuildGenesisBlock(param *GenesisBlockParam) (bool, error) {
	consensusType, storageType, stateType, ok := parseGroupMark(param.GroupMark)
	if !ok {
		log.Warn("rawdb: genesis group_mark field count mismatch", "group_mark", param.GroupMark)
		return false, nil
	}
	if param.ConsensusType == "" {
		param.ConsensusType = consensusType
	}
	if param.StorageType == "" {
		param.StorageType = storageType
	}
	if param.StateType == "" {
		param.StateType = stateType
	}

	existing, err := l.GetBlockByNumber(0)
	if err != nil {
		return false, err
	}
	if existing != nil {
		if len(existing.Header.ExtraData) == 0 {
			log.Warn("rawdb: committed genesis carries no group_mark")
			return false, nil
		}
		return string(existing.Header.ExtraData[0]) == param.GroupMark, nil
	}

	f := kvtable.NewTableFactory(l.storage, 0)
	genesis := block.NewBlock(&block.Header{
		Number:    0,
		ExtraData: [][]byte{[]byte(param.GroupMark)},
	}, nil, nil)

	if err := writeNumber(f, 0); err != nil {
		return false, err
	}
	if err := writeTotalTransactionCount(f, 0); err != nil {
		return false, err
	}
	if err := writeBlockInfo(f, genesis); err != nil {
		return false, err
	}

	miners, err := f.OpenTable(kvtable.SysMiners)
	if err != nil {
		return false, err
	}
	for _, id := range param.MinerList {
		e := miners.NewEntry()
		e.Set(kvtable.ColType, kvtable.RoleMiner)
		e.Set(kvtable.ColNodeId, id.Hex())
		e.Set(kvtable.ColEnableNum, "0")
		if _, err := miners.Insert(kvtable.PRIKey, e, nil); err != nil {
			return false, err
		}
	}
	for _, id := range param.ObserverList {
		e := miners.NewEntry()
		e.Set(kvtable.ColType, kvtable.RoleObserver)
		e.Set(kvtable.ColNodeId, id.Hex())
		e.Set(kvtable.ColEnableNum, "0")
		if _, err := miners.Insert(kvtable.PRIKey, e, nil); err != nil {
			return false, err
		}
	}

	configTbl, err := f.OpenTable(kvtable.SysConfig)
	if err != nil {
		return false, err
	}
	for key, value := range map[string]uint64{
		ConfigTxCountLimit: param.TxCountLimit,
		ConfigTxGasLimit:   param.TxGasLimit,
	} {
		e := configTbl.NewEntry()
		e.Set(kvtable.ColValue, strconv.FormatUint(value, 10))
		e.Set(kvtable.ColEnableNum, "0")
		if _, err := configTbl.Insert(key, e, nil); err != nil {
			return false, err
		}
	}

	if _, err := f.CommitDB(); err != nil {
		return false, err
	}
	l.invalidateRoster()
	l.invalidateConfig()
	return true, nil
}

