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
	"sync"

	"github.com/n42blockchain/n42-ledger/modules/kvtable"
	"github.com/n42blockchain/n42-ledger/pkg/errors"
)

// System config keys with an enforced minimum. A SetSystemConfig below the
// minimum is rejected: it returns 0 and the table is left unchanged.
const (
	ConfigTxCountLimit = "tx_count_limit"
	ConfigTxGasLimit   = "tx_gas_limit"

	TxCountLimitMin = 1
	TxGasLimitMin   = 100000
)

type configEntry struct {
	value          string
	seenBlockNumber int64
}

// configCache memoizes get_system_config_by_key results. A miss, or a
// cached entry whose seenBlockNumber no longer matches the requested
// height, triggers a reload.
type configCache struct {
	mu      sync.RWMutex
	entries map[string]configEntry
}

func newConfigCache() configCache {
	return configCache{entries: make(map[string]configEntry)}
}

// GetSystemConfigByKey resolves key as of num; num < 0 means
// current_number + 1, the first block a just-committed change takes
// effect for.
func (l *Ledger) GetSystemConfigByKey(key string, num int64) (string, error) {
	if num < 0 {
		num = l.Number() + 1
	}

	l.config.mu.RLock()
	cached, ok := l.config.entries[key]
	l.config.mu.RUnlock()
	if ok && cached.seenBlockNumber == num {
		return cached.value, nil
	}

	value, err := l.loadSystemConfig(key, num)
	if err != nil {
		return "", err
	}

	l.config.mu.Lock()
	l.config.entries[key] = configEntry{value: value, seenBlockNumber: num}
	l.config.mu.Unlock()
	return value, nil
}

// loadSystemConfig scans _sys_config_[key], applying only rows whose
// enable_num <= num, and returns the most recently enabled one (insertion
// order is the latest-wins tiebreak).
func (l *Ledger) loadSystemConfig(key string, num int64) (string, error) {
	tbl, err := l.readFactory(num).OpenTable(kvtable.SysConfig)
	if err != nil {
		return "", err
	}
	rows, err := tbl.Select(key, nil)
	if err != nil {
		return "", err
	}
	var best string
	var bestEnable int64 = -1
	for _, row := range rows {
		enableNum, err := strconv.ParseInt(row.Get(kvtable.ColEnableNum), 10, 64)
		if err != nil {
			return "", errors.ErrCorruptSystemTable
		}
		if enableNum > num {
			continue
		}
		if enableNum >= bestEnable {
			bestEnable = enableNum
			best = row.Get(kvtable.ColValue)
		}
	}
	return best, nil
}

// invalidateConfig drops every memoized config entry; called by the Block
// Committer after a commit advances the height.
func (l *Ledger) invalidateConfig() {
	l.config.mu.Lock()
	l.config.entries = make(map[string]configEntry)
	l.config.mu.Unlock()
}

// SetSystemConfig writes the _sys_config_ row for key, effective at
// currentHeight+1: an existing row for the key is updated in place, a new
// key is inserted. tx_count_limit/tx_gas_limit below their protocol
// minimums are rejected: the call returns 0 and the table is left
// unchanged.
func SetSystemConfig(f *kvtable.TableFactory, currentHeight int64, key, value string) (int, error) {
	if !validConfigValue(key, value) {
		return 0, nil
	}
	tbl, err := f.OpenTable(kvtable.SysConfig)
	if err != nil {
		return 0, err
	}
	rows, err := tbl.Select(key, nil)
	if err != nil {
		return 0, err
	}
	e := tbl.NewEntry()
	e.Set(kvtable.ColValue, value)
	e.Set(kvtable.ColEnableNum, strconv.FormatInt(currentHeight+1, 10))
	if len(rows) > 0 {
		return tbl.Update(key, e, nil, nil)
	}
	return tbl.Insert(key, e, nil)
}

func validConfigValue(key, value string) bool {
	switch key {
	case ConfigTxCountLimit:
		n, err := strconv.ParseInt(value, 10, 64)
		return err == nil && n >= TxCountLimitMin
	case ConfigTxGasLimit:
		n, err := strconv.ParseInt(value, 10, 64)
		return err == nil && n >= TxGasLimitMin
	default:
		return true
	}
}
