package sobject

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func TestRecord_SetPreservesOrder(t *testing.T) {
	r := NewRecord()
	r.Set("b", Int(1))
	r.Set("a", Int(2))
	r.Set("b", Int(3))

	assert.Equal(t, []string{"b", "a"}, r.Keys())
	v, ok := r.Get("b")
	require.True(t, ok)
	n, _ := v.Num()
	assert.Equal(t, float64(3), n)
}

func TestRecord_ZeroValueUsable(t *testing.T) {
	var r Record
	r.Set("Name", String("Acme"))
	assert.Equal(t, 1, r.Len())
	assert.True(t, r.Has("Name"))
}

func TestRecord_Delete(t *testing.T) {
	r := RecordOf("a", 1, "b", 2, "c", 3)
	r.Delete("b")
	r.Delete("missing")
	assert.Equal(t, []string{"a", "c"}, r.Keys())
	assert.False(t, r.Has("b"))
}

func TestRecord_MergeIsShallow(t *testing.T) {
	r := RecordOf("Name", "Acme", "City", "Paris")
	r.Merge(RecordOf("City", "Rome", "Zip", "00100"))

	assert.Equal(t, []string{"Name", "City", "Zip"}, r.Keys())
	city, _ := r.Get("City")
	assert.Equal(t, "Rome", city.String())
	name, _ := r.Get("Name")
	assert.Equal(t, "Acme", name.String())
}

func TestRecord_CloneIsDeep(t *testing.T) {
	inner := RecordOf("x", 1)
	r := RecordOf("nested", inner, "tags", []string{"a"})
	cp := r.Clone()

	inner.Set("x", Int(2))
	nested, _ := cp.Get("nested")
	rec, ok := nested.Record()
	require.True(t, ok)
	x, _ := rec.Get("x")
	assert.Equal(t, "1", x.String())
	assert.True(t, cp.Equal(RecordOf("nested", RecordOf("x", 1), "tags", []string{"a"})))
}

func TestRecord_CaseSensitiveFields(t *testing.T) {
	r := RecordOf("Name", "Acme")
	assert.True(t, r.Has("Name"))
	assert.False(t, r.Has("name"))
}

func TestRecord_WithoutSystemFields(t *testing.T) {
	r := RecordOf("Id", "x", "Name", "Acme", "IsDeleted", true, "CreatedDate", "2024-01-01")
	assert.Equal(t, []string{"Name"}, r.WithoutSystemFields().Keys())
}

func TestRecordOf_PanicsOnOddArgs(t *testing.T) {
	assert.Panics(t, func() { RecordOf("a") })
	assert.Panics(t, func() { RecordOf(1, "a") })
}

func TestValue_String(t *testing.T) {
	tests := []struct {
		name string
		v    Value
		want string
	}{
		{"null", Null(), ""},
		{"string", String("hi"), "hi"},
		{"integral number", Number(42), "42"},
		{"fraction", Number(1.5), "1.5"},
		{"bool", Bool(true), "true"},
		{"list", List("a", "b"), "a,b"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.v.String())
		})
	}
}

func TestValue_Equal(t *testing.T) {
	assert.True(t, Null().Equal(Value{}))
	assert.True(t, String("a").Equal(String("a")))
	assert.False(t, String("1").Equal(Number(1)))
	assert.True(t, List("a", "b").Equal(List("a", "b")))
	assert.False(t, List("a").Equal(List("a", "b")))
}

func TestFromInterface(t *testing.T) {
	v, err := FromInterface(map[string]interface{}{"b": 1, "a": "x"})
	require.NoError(t, err)
	rec, ok := v.Record()
	require.True(t, ok)
	assert.Equal(t, []string{"a", "b"}, rec.Keys())

	v, err = FromInterface([]interface{}{"a", 1.0, true})
	require.NoError(t, err)
	items, _ := v.Strings()
	assert.Equal(t, []string{"a", "1", "true"}, items)

	_, err = FromInterface(struct{}{})
	assert.Error(t, err)

	_, err = FromInterface([]interface{}{[]interface{}{"nested"}})
	assert.Error(t, err)
}

func TestRecord_JSONRoundTripKeepsOrder(t *testing.T) {
	in := `{"Zeta":"z","Alpha":1,"Flag":true,"Empty":null,"Parent":{"b":1,"a":2},"Tags":["x","y"]}`

	var r Record
	require.NoError(t, json.Unmarshal([]byte(in), &r))
	assert.Equal(t, []string{"Zeta", "Alpha", "Flag", "Empty", "Parent", "Tags"}, r.Keys())

	out, err := json.Marshal(&r)
	require.NoError(t, err)
	assert.JSONEq(t, in, string(out))
	assert.Equal(t, in, string(out))
}

func TestRecord_UnmarshalJSONRejectsNonObject(t *testing.T) {
	var r Record
	assert.Error(t, json.Unmarshal([]byte(`[1,2]`), &r))
	assert.Error(t, json.Unmarshal([]byte(`{"a":[{"b":1}]}`), &r))
}

func TestDecodeRecords(t *testing.T) {
	recs, err := DecodeRecords([]byte(`[{"LastName":"Doe","Ext__c":"1"},{"LastName":"Roe"}]`))
	require.NoError(t, err)
	require.Len(t, recs, 2)
	assert.Equal(t, []string{"LastName", "Ext__c"}, recs[0].Keys())

	_, err = DecodeRecords([]byte(`{"not":"a list"}`))
	assert.Error(t, err)
}

func TestRecord_UnmarshalYAML(t *testing.T) {
	src := `
Name: Acme
Employees: 12
Active: true
Notes: ~
Address:
  City: Paris
Tags: [a, b]
`
	var r Record
	require.NoError(t, yaml.Unmarshal([]byte(src), &r))
	assert.Equal(t, []string{"Name", "Employees", "Active", "Notes", "Address", "Tags"}, r.Keys())

	emp, _ := r.Get("Employees")
	assert.Equal(t, KindNumber, emp.Kind())
	active, _ := r.Get("Active")
	assert.Equal(t, KindBool, active.Kind())
	notes, _ := r.Get("Notes")
	assert.True(t, notes.IsNull())
	tags, _ := r.Get("Tags")
	items, _ := tags.Strings()
	assert.Equal(t, []string{"a", "b"}, items)
}

func TestDecodeSeedYAML(t *testing.T) {
	src := `
Account:
  - Name: Acme
  - Name: Globex
Contact:
  - LastName: Doe
    Ext__c: "1"
`
	sets, err := DecodeSeedYAML([]byte(src))
	require.NoError(t, err)
	require.Len(t, sets, 2)
	assert.Equal(t, "Account", sets[0].SObject)
	assert.Len(t, sets[0].Records, 2)
	ext, _ := sets[1].Records[0].Get("Ext__c")
	assert.Equal(t, KindString, ext.Kind())

	_, err = DecodeSeedYAML([]byte("Account: nope\n"))
	assert.ErrorIs(t, err, ErrNotRecordList)

	sets, err = DecodeSeedYAML([]byte(""))
	require.NoError(t, err)
	assert.Empty(t, sets)
}

func TestParseDate(t *testing.T) {
	want := time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC)
	for _, in := range []string{
		"2024-03-15",
		"2024-03-15T10:20:30.000+0000",
		"2024-03-15T10:20:30Z",
		"2024-03-15T10:20:30",
	} {
		got, ok := ParseDate(in)
		require.True(t, ok, in)
		assert.True(t, want.Equal(got), in)
	}

	_, ok := ParseDate("not a date")
	assert.False(t, ok)
}

func TestFormatDateTime(t *testing.T) {
	ts := time.Date(2024, 3, 15, 10, 20, 30, 0, time.UTC)
	assert.Equal(t, "2024-03-15T10:20:30.000+0000", FormatDateTime(ts))
}

func TestMonthStart(t *testing.T) {
	got := MonthStart(time.Date(2024, 3, 15, 10, 0, 0, 0, time.UTC))
	assert.Equal(t, time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC), got)
}
