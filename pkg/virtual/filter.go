package virtual

import (
	"strings"

	"github.com/getmockd/mockforce/pkg/sobject"
)

// kindRank orders values of different kinds against each other.
var kindRank = map[sobject.Kind]int{
	sobject.KindNull:   0,
	sobject.KindBool:   1,
	sobject.KindNumber: 2,
	sobject.KindString: 3,
	sobject.KindList:   4,
	sobject.KindMap:    5,
}

// compareForOrder compares two sort values under one OrderKey.
func compareForOrder(a, b sobject.Value, key OrderKey) int {
	if a.IsNull() || b.IsNull() {
		if a.IsNull() && b.IsNull() {
			return 0
		}
		nullsFirst := !key.Descending
		switch key.Nulls {
		case NullsFirst:
			nullsFirst = true
		case NullsLast:
			nullsFirst = false
		}
		if a.IsNull() == nullsFirst {
			return -1
		}
		return 1
	}

	c := CompareValues(a, b)
	if key.Descending {
		return -c
	}
	return c
}

// CompareValues orders two values: numbers numerically, strings
// lexicographically, false before true. Mixed kinds order by kind.
func CompareValues(a, b sobject.Value) int {
	if a.Kind() != b.Kind() {
		return kindRank[a.Kind()] - kindRank[b.Kind()]
	}
	switch a.Kind() {
	case sobject.KindNumber:
		x, _ := a.Num()
		y, _ := b.Num()
		switch {
		case x < y:
			return -1
		case x > y:
			return 1
		}
		return 0
	case sobject.KindBool:
		x, _ := a.Boolean()
		y, _ := b.Boolean()
		switch {
		case x == y:
			return 0
		case !x:
			return -1
		}
		return 1
	case sobject.KindNull:
		return 0
	default:
		return strings.Compare(a.String(), b.String())
	}
}

// paginate applies offset then limit. A negative offset is treated as 0; a
// nil limit keeps everything after the offset.
func paginate(records []*sobject.Record, offset, limit *int) []*sobject.Record {
	total := len(records)

	start := 0
	if offset != nil && *offset > 0 {
		start = *offset
	}
	if start > total {
		start = total
	}

	end := total
	if limit != nil && *limit < end-start {
		end = start + *limit
	}
	return records[start:end]
}
