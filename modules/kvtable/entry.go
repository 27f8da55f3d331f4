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

// Entry is a single row's value columns. Column order is the table's
// schema order; Entry itself is an unordered bag so that update() can set
// a subset of columns without disturbing the rest.
type Entry struct {
	fields map[string]string
}

// NewEntry returns an empty entry.
func NewEntry() *Entry {
	return &Entry{fields: make(map[string]string)}
}

// Set assigns a column value.
func (e *Entry) Set(field, value string) {
	e.fields[field] = value
}

// Get returns a column value, or "" if absent.
func (e *Entry) Get(field string) string {
	return e.fields[field]
}

// Has reports whether field was explicitly set.
func (e *Entry) Has(field string) bool {
	_, ok := e.fields[field]
	return ok
}

func (e *Entry) clone() *Entry {
	c := NewEntry()
	for k, v := range e.fields {
		c.fields[k] = v
	}
	return c
}

// applyTo merges e's fields onto dst, leaving dst's other columns intact.
// Used by update() to apply a partial entry.
func (e *Entry) applyTo(dst *Entry) {
	for k, v := range e.fields {
		dst.fields[k] = v
	}
}

// Entries is a select() result set, ordered by insertion.
type Entries []*Entry
