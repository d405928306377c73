package sobject

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Kind identifies which member of the Value union is populated.
type Kind uint8

// Value kinds.
const (
	KindNull Kind = iota
	KindString
	KindNumber
	KindBool
	KindMap
	KindList
)

// String returns the kind name.
func (k Kind) String() string {
	switch k {
	case KindNull:
		return "null"
	case KindString:
		return "string"
	case KindNumber:
		return "number"
	case KindBool:
		return "boolean"
	case KindMap:
		return "map"
	case KindList:
		return "list"
	default:
		return fmt.Sprintf("Kind(%d)", uint8(k))
	}
}

// Value is a tagged field value: string, number, boolean, null, a nested
// Record, or a list of strings. The zero Value is null.
type Value struct {
	kind Kind
	str  string
	num  float64
	b    bool
	rec  *Record
	list []string
}

// Null returns the null value.
func Null() Value { return Value{} }

// String returns a string value.
func String(s string) Value { return Value{kind: KindString, str: s} }

// Number returns a numeric value.
func Number(n float64) Value { return Value{kind: KindNumber, num: n} }

// Int returns a numeric value from an integer.
func Int(n int) Value { return Number(float64(n)) }

// Bool returns a boolean value.
func Bool(b bool) Value { return Value{kind: KindBool, b: b} }

// Map returns a nested mapping value. A nil record is treated as null.
func Map(r *Record) Value {
	if r == nil {
		return Null()
	}
	return Value{kind: KindMap, rec: r}
}

// List returns a list-of-strings value.
func List(items ...string) Value {
	cp := make([]string, len(items))
	copy(cp, items)
	return Value{kind: KindList, list: cp}
}

// Kind returns the value's kind.
func (v Value) Kind() Kind { return v.kind }

// IsNull reports whether the value is null.
func (v Value) IsNull() bool { return v.kind == KindNull }

// Str returns the string payload.
func (v Value) Str() (string, bool) { return v.str, v.kind == KindString }

// Num returns the numeric payload.
func (v Value) Num() (float64, bool) { return v.num, v.kind == KindNumber }

// Boolean returns the boolean payload.
func (v Value) Boolean() (bool, bool) { return v.b, v.kind == KindBool }

// Record returns the nested mapping payload.
func (v Value) Record() (*Record, bool) { return v.rec, v.kind == KindMap }

// Strings returns a copy of the list payload.
func (v Value) Strings() ([]string, bool) {
	if v.kind != KindList {
		return nil, false
	}
	cp := make([]string, len(v.list))
	copy(cp, v.list)
	return cp, true
}

// String returns the textual form of the value. Null renders as the empty
// string; numbers render without a trailing ".0" when integral.
func (v Value) String() string {
	switch v.kind {
	case KindString:
		return v.str
	case KindNumber:
		return formatNumber(v.num)
	case KindBool:
		return strconv.FormatBool(v.b)
	case KindMap:
		data, _ := json.Marshal(v.rec)
		return string(data)
	case KindList:
		return strings.Join(v.list, ",")
	default:
		return ""
	}
}

// Interface converts the value to plain Go types: string, float64, bool,
// nil, map[string]interface{} or []string.
func (v Value) Interface() interface{} {
	switch v.kind {
	case KindString:
		return v.str
	case KindNumber:
		return v.num
	case KindBool:
		return v.b
	case KindMap:
		return v.rec.ToMap()
	case KindList:
		cp, _ := v.Strings()
		return cp
	default:
		return nil
	}
}

// Equal reports whether two values have the same kind and payload.
func (v Value) Equal(o Value) bool {
	if v.kind != o.kind {
		return false
	}
	switch v.kind {
	case KindNull:
		return true
	case KindString:
		return v.str == o.str
	case KindNumber:
		return v.num == o.num
	case KindBool:
		return v.b == o.b
	case KindMap:
		return v.rec.Equal(o.rec)
	case KindList:
		if len(v.list) != len(o.list) {
			return false
		}
		for i := range v.list {
			if v.list[i] != o.list[i] {
				return false
			}
		}
		return true
	}
	return false
}

// clone deep-copies nested mappings and lists.
func (v Value) clone() Value {
	switch v.kind {
	case KindMap:
		return Map(v.rec.Clone())
	case KindList:
		return List(v.list...)
	default:
		return v
	}
}

// FromInterface converts a plain Go value into a Value. Supported inputs are
// nil, string, bool, all integer and float types, json.Number, Value,
// *Record, map[string]interface{} (keys sorted), []string and
// []interface{} of scalars.
func FromInterface(in interface{}) (Value, error) {
	switch x := in.(type) {
	case nil:
		return Null(), nil
	case Value:
		return x, nil
	case *Record:
		return Map(x), nil
	case string:
		return String(x), nil
	case bool:
		return Bool(x), nil
	case int:
		return Number(float64(x)), nil
	case int32:
		return Number(float64(x)), nil
	case int64:
		return Number(float64(x)), nil
	case uint:
		return Number(float64(x)), nil
	case uint32:
		return Number(float64(x)), nil
	case uint64:
		return Number(float64(x)), nil
	case float32:
		return Number(float64(x)), nil
	case float64:
		return Number(x), nil
	case json.Number:
		n, err := x.Float64()
		if err != nil {
			return Null(), fmt.Errorf("invalid number %q: %w", x.String(), err)
		}
		return Number(n), nil
	case map[string]interface{}:
		rec, err := FromMap(x)
		if err != nil {
			return Null(), err
		}
		return Map(rec), nil
	case []string:
		return List(x...), nil
	case []interface{}:
		items := make([]string, 0, len(x))
		for i, item := range x {
			sv, err := FromInterface(item)
			if err != nil {
				return Null(), err
			}
			if sv.kind == KindMap || sv.kind == KindList {
				return Null(), fmt.Errorf("list element %d: nested %s not supported", i, sv.kind)
			}
			items = append(items, sv.String())
		}
		return List(items...), nil
	default:
		return Null(), fmt.Errorf("unsupported field value type %T", in)
	}
}

func formatNumber(n float64) string {
	if n == math.Trunc(n) && math.Abs(n) < 1e15 {
		return strconv.FormatInt(int64(n), 10)
	}
	return strconv.FormatFloat(n, 'f', -1, 64)
}
