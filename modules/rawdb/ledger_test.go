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
	"strings"
	"sync"
	"testing"

	"github.com/n42blockchain/n42-ledger/common/block"
	"github.com/n42blockchain/n42-ledger/common/transaction"
	"github.com/n42blockchain/n42-ledger/common/types"
	"github.com/n42blockchain/n42-ledger/modules/kvtable"
	"github.com/n42blockchain/n42-ledger/pkg/errors"
	"github.com/stretchr/testify/require"
)

// memStorage is an in-memory kvtable.Storage so ledger tests don't need an
// mdbx environment.
type memStorage struct {
	mu   sync.Mutex
	data map[string][]byte
	gets map[string]int
}

func newMemStorage() *memStorage {
	return &memStorage{data: make(map[string][]byte), gets: make(map[string]int)}
}

func memKey(table, key string) string { return table + "\x00" + key }

func (m *memStorage) Get(table, key string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.gets[table]++
	return m.data[memKey(table, key)], nil
}

func (m *memStorage) Put(table, key string, value []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[memKey(table, key)] = value
	return nil
}

func (m *memStorage) Delete(table, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, memKey(table, key))
	return nil
}

func (m *memStorage) ForEachKey(table string, fn func(key string, value []byte) error) error {
	m.mu.Lock()
	prefix := table + "\x00"
	type pair struct {
		k string
		v []byte
	}
	var matches []pair
	for k, v := range m.data {
		if strings.HasPrefix(k, prefix) {
			matches = append(matches, pair{k[len(prefix):], v})
		}
	}
	m.mu.Unlock()
	for _, e := range matches {
		if err := fn(e.k, e.v); err != nil {
			return err
		}
	}
	return nil
}

// getCount reports how many storage reads have hit table so far.
func (m *memStorage) getCount(table string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.gets[table]
}

// testExecCtx is the minimal ExecutiveContext a commit needs: it owns the
// factory the commit writes through and flushes it on DbCommit.
type testExecCtx struct {
	f *kvtable.TableFactory
}

func (c *testExecCtx) MemoryTableFactory() *kvtable.TableFactory { return c.f }

func (c *testExecCtx) DbCommit(*block.Block) error {
	_, err := c.f.CommitDB()
	return err
}

func (c *testExecCtx) BlockInfo() (int64, types.Hash) { return 0, types.Hash{} }

const testGroupMark = "group0-pbft-mdbx-mpt-1-0-0"

func testNodeID(b byte) types.NodeId {
	var id types.NodeId
	id[0] = b
	return id
}

func newTestLedger(t *testing.T, miners ...types.NodeId) (*Ledger, *memStorage) {
	t.Helper()
	storage := newMemStorage()
	l := NewLedger(storage)
	ok, err := l.CheckAndBuildGenesisBlock(&GenesisBlockParam{
		GroupMark:    testGroupMark,
		TxCountLimit: 1000,
		TxGasLimit:   300000000,
		MinerList:    miners,
	})
	require.NoError(t, err)
	require.True(t, ok)
	return l, storage
}

func childBlock(t *testing.T, l *Ledger, txs ...*transaction.Transaction) *block.Block {
	t.Helper()
	cur := l.Number()
	parent, err := l.NumberHash(cur)
	require.NoError(t, err)
	return block.NewBlock(&block.Header{
		Number:     cur + 1,
		ParentHash: parent,
	}, txs, nil)
}

func mustCommit(t *testing.T, l *Ledger, storage *memStorage, blk *block.Block) {
	t.Helper()
	f := kvtable.NewTableFactory(storage, l.Number())
	result, err := l.CommitBlock(blk, &testExecCtx{f: f})
	require.NoError(t, err)
	require.Equal(t, errors.CommitOK, result)
}

func TestLedgerStartsAtGenesis(t *testing.T) {
	l, _ := newTestLedger(t)
	require.Equal(t, int64(0), l.Number())

	genesis, err := l.GetBlockByNumber(0)
	require.NoError(t, err)
	require.NotNil(t, genesis)
	require.Equal(t, testGroupMark, string(genesis.Header.ExtraData[0]))

	count, atBlock, err := l.TotalTransactionCount()
	require.NoError(t, err)
	require.Equal(t, int64(0), count)
	require.Equal(t, int64(0), atBlock)
}

func TestParentHashLineage(t *testing.T) {
	l, storage := newTestLedger(t)
	for i := 0; i < 3; i++ {
		mustCommit(t, l, storage, childBlock(t, l))
	}
	for n := int64(1); n <= 3; n++ {
		blk, err := l.GetBlockByNumber(n)
		require.NoError(t, err)
		require.NotNil(t, blk)
		prev, err := l.GetBlockByNumber(n - 1)
		require.NoError(t, err)
		require.Equal(t, prev.Hash(), blk.ParentHash())
	}
}

func TestGetTxByHashLocalises(t *testing.T) {
	l, storage := newTestLedger(t)
	txA := &transaction.Transaction{Nonce: 1, Payload: []byte("a")}
	txB := &transaction.Transaction{Nonce: 2, Payload: []byte("b")}
	blk := childBlock(t, l, txA, txB)
	mustCommit(t, l, storage, blk)

	got, err := l.GetTxByHash(txB.Sha3())
	require.NoError(t, err)
	require.NotNil(t, got)
	require.Equal(t, txB.Sha3(), got.Transaction.Sha3())
	require.Equal(t, int64(1), got.BlockNumber)
	require.Equal(t, uint64(1), got.Index)
	require.Equal(t, blk.Hash(), got.BlockHash)

	count, atBlock, err := l.TotalTransactionCount()
	require.NoError(t, err)
	require.Equal(t, int64(2), count)
	require.Equal(t, int64(1), atBlock)
}

func TestTotalTransactionCountAccumulates(t *testing.T) {
	l, storage := newTestLedger(t)
	mustCommit(t, l, storage, childBlock(t, l, &transaction.Transaction{Nonce: 1}))
	mustCommit(t, l, storage, childBlock(t, l, &transaction.Transaction{Nonce: 2}, &transaction.Transaction{Nonce: 3}))

	count, atBlock, err := l.TotalTransactionCount()
	require.NoError(t, err)
	require.Equal(t, int64(3), count)
	require.Equal(t, int64(2), atBlock)
}

func TestLocalisedReceiptFromCachedBlock(t *testing.T) {
	l, storage := newTestLedger(t)
	tx := &transaction.Transaction{Nonce: 9}
	receipt := &block.Receipt{TxHash: tx.Sha3(), Status: 1, GasUsed: 21000}
	cur := l.Number()
	parent, err := l.NumberHash(cur)
	require.NoError(t, err)
	blk := block.NewBlock(&block.Header{Number: cur + 1, ParentHash: parent},
		[]*transaction.Transaction{tx}, block.Receipts{receipt})
	mustCommit(t, l, storage, blk)

	got, err := l.GetLocalisedTxReceiptByHash(tx.Sha3())
	require.NoError(t, err)
	require.NotNil(t, got)
	require.Equal(t, uint64(21000), got.GasUsed)
	require.Equal(t, int64(1), got.BlockNumber)
	require.Equal(t, blk.Hash(), got.BlockHash)
}

func TestGetTxByHashMissReturnsNil(t *testing.T) {
	l, _ := newTestLedger(t)
	got, err := l.GetTxByHash(types.HexToHash("0x01"))
	require.NoError(t, err)
	require.Nil(t, got)
}

func TestBlockCacheEvictsFIFO(t *testing.T) {
	l, storage := newTestLedger(t)
	hashes := []types.Hash{}
	h0, err := l.NumberHash(0)
	require.NoError(t, err)
	hashes = append(hashes, h0)
	for i := 0; i < 10; i++ {
		blk := childBlock(t, l)
		mustCommit(t, l, storage, blk)
		hashes = append(hashes, blk.Hash())
	}

	// A fresh ledger over the same storage starts with a cold cache.
	l2 := NewLedger(storage)
	for _, h := range hashes {
		blk, err := l2.GetBlockByHash(h)
		require.NoError(t, err)
		require.NotNil(t, blk)
	}

	// The 11th read evicted the genesis hash: the newest 10 come from the
	// cache with no storage reads, the oldest misses and hits storage again.
	before := storage.getCount(kvtable.SysHash2Block)
	for _, h := range hashes[1:] {
		_, err := l2.GetBlockByHash(h)
		require.NoError(t, err)
	}
	require.Equal(t, before, storage.getCount(kvtable.SysHash2Block))

	_, err = l2.GetBlockByHash(hashes[0])
	require.NoError(t, err)
	require.Equal(t, before+1, storage.getCount(kvtable.SysHash2Block))
}

type fixedStateReader struct {
	code []byte
}

func (r *fixedStateReader) Code(types.Hash, types.Address) ([]byte, error) {
	return r.code, nil
}

func TestGetCodeDelegatesToStateReader(t *testing.T) {
	l, _ := newTestLedger(t)

	code, err := l.GetCode(types.HexToAddress("0x01"))
	require.NoError(t, err)
	require.Empty(t, code)

	l.SetStateReader(&fixedStateReader{code: []byte{0x60, 0x00}})
	code, err = l.GetCode(types.HexToAddress("0x01"))
	require.NoError(t, err)
	require.Equal(t, []byte{0x60, 0x00}, code)
}

func TestOnReadyFiresAfterCommit(t *testing.T) {
	l, storage := newTestLedger(t)
	var got *block.Block
	l.RegisterOnReady(func(blk *block.Block) { got = blk })

	blk := childBlock(t, l)
	mustCommit(t, l, storage, blk)
	require.NotNil(t, got)
	require.Equal(t, blk.Hash(), got.Hash())
}
