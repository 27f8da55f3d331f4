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

import "github.com/holiman/uint256"

// Op is a column comparison operator.
type Op int

const (
	EQ Op = iota
	NE
	GT
	GE
	LT
	LE
)

type predicate struct {
	field string
	op    Op
	value string
}

// Condition is a conjunction of column predicates.
type Condition struct {
	predicates []predicate
}

// NewCondition returns an empty condition (matches every row).
func NewCondition() *Condition {
	return &Condition{}
}

func (c *Condition) add(field string, op Op, value string) *Condition {
	c.predicates = append(c.predicates, predicate{field: field, op: op, value: value})
	return c
}

func (c *Condition) EQ(field, value string) *Condition { return c.add(field, EQ, value) }
func (c *Condition) NE(field, value string) *Condition { return c.add(field, NE, value) }
func (c *Condition) GT(field, value string) *Condition { return c.add(field, GT, value) }
func (c *Condition) GE(field, value string) *Condition { return c.add(field, GE, value) }
func (c *Condition) LT(field, value string) *Condition { return c.add(field, LT, value) }
func (c *Condition) LE(field, value string) *Condition { return c.add(field, LE, value) }

// Matches reports whether every predicate in c holds for e.
func (c *Condition) Matches(e *Entry) bool {
	for _, p := range c.predicates {
		if !p.matches(e) {
			return false
		}
	}
	return true
}

func (p predicate) matches(e *Entry) bool {
	actual := e.Get(p.field)
	switch p.op {
	case EQ:
		return actual == p.value
	case NE:
		return actual != p.value
	default:
		a, aok := parseI256(actual)
		b, bok := parseI256(p.value)
		if !aok || !bok {
			return false
		}
		cmp := a.Cmp(b)
		switch p.op {
		case GT:
			return cmp > 0
		case GE:
			return cmp >= 0
		case LT:
			return cmp < 0
		case LE:
			return cmp <= 0
		}
		return false
	}
}

// parseI256 parses a decimal numeric column value. holiman/uint256 has no
// signed representation, so magnitudes are compared; negative numeric
// system-table values are not produced anywhere in this ledger (heights,
// counts and enable_num are all non-negative), so this is not a practical
// restriction here.
func parseI256(s string) (*uint256.Int, bool) {
	v, err := uint256.FromDecimal(s)
	if err != nil {
		return nil, false
	}
	return v, true
}
