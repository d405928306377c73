package sobject

import (
	"fmt"
	"sort"
)

// System field names. They are owned by the store and never accepted from
// callers.
const (
	FieldID               = "Id"
	FieldIsDeleted        = "IsDeleted"
	FieldCreatedDate      = "CreatedDate"
	FieldLastModifiedDate = "LastModifiedDate"
	FieldSystemModstamp   = "SystemModstamp"
)

// SystemFields lists the store-owned fields in the order they are stamped.
var SystemFields = []string{
	FieldID,
	FieldIsDeleted,
	FieldCreatedDate,
	FieldLastModifiedDate,
	FieldSystemModstamp,
}

// IsSystemField reports whether name is a store-owned field.
func IsSystemField(name string) bool {
	for _, f := range SystemFields {
		if f == name {
			return true
		}
	}
	return false
}

// Record is an insertion-ordered mapping from field name to Value.
// Field names are case-sensitive. The zero Record is empty and ready to use.
type Record struct {
	keys   []string
	values map[string]Value
}

// NewRecord returns an empty record.
func NewRecord() *Record {
	return &Record{values: make(map[string]Value)}
}

// RecordOf builds a record from alternating name/value arguments. Values are
// converted with FromInterface. It panics on malformed input and is meant
// for literals in code and tests.
func RecordOf(kv ...interface{}) *Record {
	if len(kv)%2 != 0 {
		panic("sobject.RecordOf: odd number of arguments")
	}
	r := NewRecord()
	for i := 0; i < len(kv); i += 2 {
		name, ok := kv[i].(string)
		if !ok {
			panic(fmt.Sprintf("sobject.RecordOf: field name at %d is %T, not string", i, kv[i]))
		}
		v, err := FromInterface(kv[i+1])
		if err != nil {
			panic(fmt.Sprintf("sobject.RecordOf: field %q: %v", name, err))
		}
		r.Set(name, v)
	}
	return r
}

// FromMap converts a plain map into a record. Go maps are unordered, so the
// fields are inserted in sorted key order.
func FromMap(m map[string]interface{}) (*Record, error) {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	r := NewRecord()
	for _, k := range keys {
		v, err := FromInterface(m[k])
		if err != nil {
			return nil, fmt.Errorf("field %q: %w", k, err)
		}
		r.Set(k, v)
	}
	return r, nil
}

// Len returns the number of fields.
func (r *Record) Len() int {
	if r == nil {
		return 0
	}
	return len(r.keys)
}

// Has reports whether the field is present, even if its value is null.
func (r *Record) Has(name string) bool {
	if r == nil {
		return false
	}
	_, ok := r.values[name]
	return ok
}

// Get returns the value of a field and whether it is present.
func (r *Record) Get(name string) (Value, bool) {
	if r == nil {
		return Null(), false
	}
	v, ok := r.values[name]
	return v, ok
}

// Set assigns a field. New fields are appended; existing fields keep their
// position.
func (r *Record) Set(name string, v Value) {
	if r.values == nil {
		r.values = make(map[string]Value)
	}
	if _, ok := r.values[name]; !ok {
		r.keys = append(r.keys, name)
	}
	r.values[name] = v
}

// Delete removes a field if present.
func (r *Record) Delete(name string) {
	if r == nil {
		return
	}
	if _, ok := r.values[name]; !ok {
		return
	}
	delete(r.values, name)
	for i, k := range r.keys {
		if k == name {
			r.keys = append(r.keys[:i], r.keys[i+1:]...)
			break
		}
	}
}

// Keys returns the field names in insertion order.
func (r *Record) Keys() []string {
	if r == nil {
		return nil
	}
	out := make([]string, len(r.keys))
	copy(out, r.keys)
	return out
}

// Range calls fn for each field in order until fn returns false.
func (r *Record) Range(fn func(name string, v Value) bool) {
	if r == nil {
		return
	}
	for _, k := range r.keys {
		if !fn(k, r.values[k]) {
			return
		}
	}
}

// Merge shallow-merges src into r: fields present in src overwrite, all
// others are untouched.
func (r *Record) Merge(src *Record) {
	src.Range(func(name string, v Value) bool {
		r.Set(name, v.clone())
		return true
	})
}

// Clone returns a deep copy.
func (r *Record) Clone() *Record {
	if r == nil {
		return nil
	}
	out := &Record{
		keys:   make([]string, len(r.keys)),
		values: make(map[string]Value, len(r.values)),
	}
	copy(out.keys, r.keys)
	for k, v := range r.values {
		out.values[k] = v.clone()
	}
	return out
}

// ID returns the record's Id field, or "" if unset.
func (r *Record) ID() string {
	v, _ := r.Get(FieldID)
	s, _ := v.Str()
	return s
}

// IsDeleted reports the record's IsDeleted flag.
func (r *Record) IsDeleted() bool {
	v, _ := r.Get(FieldIsDeleted)
	b, _ := v.Boolean()
	return b
}

// Equal reports whether both records contain the same fields in the same
// order with equal values.
func (r *Record) Equal(o *Record) bool {
	if r.Len() != o.Len() {
		return false
	}
	for i, k := range r.Keys() {
		if o.keys[i] != k {
			return false
		}
		if !r.values[k].Equal(o.values[k]) {
			return false
		}
	}
	return true
}

// ToMap converts the record into a plain map, losing field order.
func (r *Record) ToMap() map[string]interface{} {
	out := make(map[string]interface{}, r.Len())
	r.Range(func(name string, v Value) bool {
		out[name] = v.Interface()
		return true
	})
	return out
}

// WithoutSystemFields returns a copy with all store-owned fields removed.
func (r *Record) WithoutSystemFields() *Record {
	out := NewRecord()
	r.Range(func(name string, v Value) bool {
		if !IsSystemField(name) {
			out.Set(name, v.clone())
		}
		return true
	})
	return out
}
