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

// Package kvtable implements the row/column Table Store that every system
// table and every commit is built on: a per-block writable overlay over a
// flat KV backend.
package kvtable

import (
	"bytes"

	"github.com/ledgerwatch/erigon-lib/kv"
)

// Storage is the narrow KV collaborator the table store depends on. The
// concrete on-disk backend is pluggable and out of scope for this module;
// KVStorage below is the one binding this module ships, wired to
// erigon-lib/kv.
type Storage interface {
	Get(table, key string) ([]byte, error)
	Put(table, key string, value []byte) error
	Delete(table, key string) error
	ForEachKey(table string, fn func(key string, value []byte) error) error
}

// KVStorage namespaces every (table, key) pair into a single erigon-lib/kv
// bucket, separated by a NUL byte that cannot appear in a table name.
type KVStorage struct {
	tx     kv.Tx
	bucket string
}

// NewKVStorage wraps a read-only or read-write erigon-lib/kv transaction.
// Mutating calls fail with the transaction's own error if tx is read-only.
func NewKVStorage(tx kv.Tx, bucket string) *KVStorage {
	return &KVStorage{tx: tx, bucket: bucket}
}

func storageKey(table, key string) []byte {
	b := make([]byte, 0, len(table)+1+len(key))
	b = append(b, table...)
	b = append(b, 0)
	b = append(b, key...)
	return b
}

func (s *KVStorage) Get(table, key string) ([]byte, error) {
	return s.tx.GetOne(s.bucket, storageKey(table, key))
}

func (s *KVStorage) rwTx() (kv.RwTx, bool) {
	rw, ok := s.tx.(kv.RwTx)
	return rw, ok
}

func (s *KVStorage) Put(table, key string, value []byte) error {
	rw, ok := s.rwTx()
	if !ok {
		return errReadOnly
	}
	return rw.Put(s.bucket, storageKey(table, key), value)
}

func (s *KVStorage) Delete(table, key string) error {
	rw, ok := s.rwTx()
	if !ok {
		return errReadOnly
	}
	return rw.Delete(s.bucket, storageKey(table, key))
}

func (s *KVStorage) ForEachKey(table string, fn func(key string, value []byte) error) error {
	prefix := append([]byte(table), 0)
	c, err := s.tx.Cursor(s.bucket)
	if err != nil {
		return err
	}
	defer c.Close()

	for k, v, err := c.Seek(prefix); k != nil; k, v, err = c.Next() {
		if err != nil {
			return err
		}
		if !bytes.HasPrefix(k, prefix) {
			break
		}
		if err := fn(string(k[len(prefix):]), v); err != nil {
			return err
		}
	}
	return nil
}

type storageError string

func (e storageError) Error() string { return string(e) }

const errReadOnly = storageError("kvtable: storage opened read-only")
