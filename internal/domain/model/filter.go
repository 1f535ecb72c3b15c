// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package model

import (
	"sort"
	"strings"
	"time"
)

// CmpOp is a filter comparator.
type CmpOp string

const (
	CmpEq  CmpOp = "eq"
	CmpNe  CmpOp = "ne"
	CmpGt  CmpOp = "gt"
	CmpGte CmpOp = "gte"
	CmpLt  CmpOp = "lt"
	CmpLte CmpOp = "lte"
)

// Cond pairs a comparator with its operand.
type Cond struct {
	Op    CmpOp
	Value any
}

// Condition constructors.
func Eq(v any) Cond  { return Cond{Op: CmpEq, Value: v} }
func Ne(v any) Cond  { return Cond{Op: CmpNe, Value: v} }
func Gt(v any) Cond  { return Cond{Op: CmpGt, Value: v} }
func Gte(v any) Cond { return Cond{Op: CmpGte, Value: v} }
func Lt(v any) Cond  { return Cond{Op: CmpLt, Value: v} }
func Lte(v any) Cond { return Cond{Op: CmpLte, Value: v} }

// Filter maps field names to conditions; a document matches when every
// condition holds. Unknown field names never match.
type Filter map[string]Cond

// Fielder exposes named attributes for filtering and sorting.
type Fielder interface {
	Field(name string) (any, bool)
}

// Matches reports whether doc satisfies every condition of the filter.
func (f Filter) Matches(doc Fielder) bool {
	for name, cond := range f {
		val, ok := doc.Field(name)
		if !ok {
			return false
		}
		cmp, comparable := compareValues(val, cond.Value)
		if !comparable {
			return false
		}
		switch cond.Op {
		case CmpEq:
			if cmp != 0 {
				return false
			}
		case CmpNe:
			if cmp == 0 {
				return false
			}
		case CmpGt:
			if cmp <= 0 {
				return false
			}
		case CmpGte:
			if cmp < 0 {
				return false
			}
		case CmpLt:
			if cmp >= 0 {
				return false
			}
		case CmpLte:
			if cmp > 0 {
				return false
			}
		default:
			return false
		}
	}
	return true
}

// SortByField orders docs by the named field. Documents lacking the field
// keep their relative order at the end.
func SortByField[T Fielder](docs []T, field string, desc bool) {
	if field == "" {
		return
	}
	sort.SliceStable(docs, func(i, j int) bool {
		a, aok := docs[i].Field(field)
		b, bok := docs[j].Field(field)
		if !aok || !bok {
			return false
		}
		cmp, comparable := compareValues(a, b)
		if !comparable {
			return false
		}
		if desc {
			return cmp > 0
		}
		return cmp < 0
	})
}

// compareValues orders two field values of the same kind. Supported kinds:
// strings (status values included), integers, and timestamps.
func compareValues(a, b any) (int, bool) {
	switch av := a.(type) {
	case string:
		bv, ok := toString(b)
		if !ok {
			return 0, false
		}
		return strings.Compare(av, bv), true
	case int64:
		bv, ok := toInt64(b)
		if !ok {
			return 0, false
		}
		switch {
		case av < bv:
			return -1, true
		case av > bv:
			return 1, true
		}
		return 0, true
	case time.Time:
		bv, ok := b.(time.Time)
		if !ok {
			return 0, false
		}
		return av.Compare(bv), true
	}
	return 0, false
}

func toString(v any) (string, bool) {
	switch s := v.(type) {
	case string:
		return s, true
	case Status:
		return string(s), true
	case TenantStatus:
		return string(s), true
	}
	return "", false
}

func toInt64(v any) (int64, bool) {
	switch n := v.(type) {
	case int:
		return int64(n), true
	case int64:
		return n, true
	}
	return 0, false
}
