package where

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/getmockd/mockforce/pkg/sobject"
)

// fixedToday pins the evaluator to 2024-03-15.
func fixedToday() time.Time {
	return time.Date(2024, 3, 15, 13, 45, 0, 0, time.UTC)
}

func newTestEvaluator() *Evaluator {
	return NewEvaluator(WithToday(fixedToday))
}

func mustMatch(t *testing.T, rec *sobject.Record, expr Expr) bool {
	t.Helper()
	ok, err := newTestEvaluator().Match(rec, expr)
	require.NoError(t, err)
	return ok
}

func TestMatch_EmptyExprExcludes(t *testing.T) {
	assert.False(t, mustMatch(t, sobject.RecordOf("Name", "Acme"), Expr{}))
	assert.False(t, mustMatch(t, sobject.RecordOf("Name", "Acme"), nil))
}

func TestEvaluateCondition_Operators(t *testing.T) {
	rec := sobject.RecordOf(
		"Name", "Acme",
		"Employees", 50,
		"Active", true,
		"Notes", nil,
	)

	tests := []struct {
		name string
		cond Condition
		want bool
	}{
		{"string eq", Cond("Name", "=", Quoted("Acme")), true},
		{"string eq mismatch", Cond("Name", "=", Quoted("acme")), false},
		{"string neq", Cond("Name", "!=", Quoted("Globex")), true},
		{"string lt", Cond("Name", "<", Quoted("B")), true},
		{"string gte", Cond("Name", ">=", Quoted("Acme")), true},
		{"number gt", Cond("Employees", ">", Bare("10")), true},
		{"number lte", Cond("Employees", "<=", Bare("49")), false},
		{"number eq", Cond("Employees", "=", Bare("50")), true},
		{"number vs quoted string", Cond("Employees", "=", Quoted("50")), false},
		{"bool eq", Cond("Active", "=", Bare("TRUE")), true},
		{"bool neq", Cond("Active", "!=", Bare("false")), true},
		{"bool ordering never matches", Cond("Active", ">", Bare("false")), false},
		{"null eq on null field", Cond("Notes", "=", Bare("null")), true},
		{"null neq on null field", Cond("Notes", "!=", Bare("null")), false},
		{"null neq on set field", Cond("Name", "!=", Bare("null")), true},
		{"null ordering", Cond("Employees", ">", Bare("null")), false},
		{"null field vs string", Cond("Notes", "=", Quoted("x")), false},
		{"null field neq string", Cond("Notes", "!=", Quoted("x")), true},
		{"missing field eq", Cond("Missing", "=", Quoted("x")), false},
		{"missing field neq", Cond("Missing", "!=", Quoted("x")), false},
		{"missing field eq null", Cond("Missing", "=", Bare("null")), false},
		{"in match", Cond("Name", "IN", ListOf("Globex", "Acme")), true},
		{"in lowercase operator", Cond("Name", "in", ListOf("Acme")), true},
		{"in miss", Cond("Name", "IN", ListOf("Globex")), false},
		{"in numbers", Cond("Employees", "IN", Literal{IsList: true, Items: []string{"1", "50"}}), true},
		{"in null", Cond("Notes", "IN", Literal{IsList: true, Items: []string{"null"}}), true},
		{"diamond neq", Cond("Name", "<>", Quoted("Globex")), true},
	}

	e := newTestEvaluator()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := e.EvaluateCondition(rec, tt.cond)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestEvaluateCondition_DateTokens(t *testing.T) {
	tests := []struct {
		name  string
		value interface{}
		cond  Condition
		want  bool
	}{
		{"today matches", "2024-03-15", Cond("D", "=", Bare("TODAY")), true},
		{"yesterday does not match today", "2024-03-15", Cond("D", "=", Bare("YESTERDAY")), false},
		{"yesterday", "2024-03-14", Cond("D", "=", Bare("YESTERDAY")), true},
		{"tomorrow", "2024-03-16", Cond("D", "=", Bare("tomorrow")), true},
		{"datetime truncated to date", "2024-03-15T23:10:00.000+0000", Cond("D", "=", Bare("TODAY")), true},
		{"before today", "2024-03-01", Cond("D", "<", Bare("TODAY")), true},
		{"after today", "2024-03-01", Cond("D", ">", Bare("TODAY")), false},
		{"this month", "2024-03-28", Cond("D", "=", Bare("THIS_MONTH")), true},
		{"last month", "2024-02-03", Cond("D", "=", Bare("LAST_MONTH")), true},
		{"next month", "2024-04-30", Cond("D", "=", Bare("NEXT_MONTH")), true},
		{"next month miss", "2024-03-30", Cond("D", "=", Bare("NEXT_MONTH")), false},
		{"before this month", "2024-02-29", Cond("D", "<", Bare("THIS_MONTH")), true},
		{"date literal", "2024-01-31", Cond("D", "=", Bare("2024-01-31")), true},
		{"date literal gt", "2024-02-01", Cond("D", ">", Bare("2024-01-31")), true},
		{"unparseable field", "not a date", Cond("D", "=", Bare("TODAY")), false},
		{"unparseable field neq", "not a date", Cond("D", "!=", Bare("TODAY")), false},
		{"numeric field", 20240315, Cond("D", "=", Bare("TODAY")), false},
		{"null field", nil, Cond("D", "=", Bare("TODAY")), false},
		{"in with date tokens", "2024-03-14", Cond("D", "IN", Literal{IsList: true, Items: []string{"TODAY", "YESTERDAY"}}), true},
	}

	e := newTestEvaluator()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := e.EvaluateCondition(sobject.RecordOf("D", tt.value), tt.cond)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestEvaluator_YearBoundaryMonths(t *testing.T) {
	e := NewEvaluator(WithToday(func() time.Time {
		return time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC)
	}))
	got, err := e.EvaluateCondition(sobject.RecordOf("D", "2023-12-25"), Cond("D", "=", Bare("LAST_MONTH")))
	require.NoError(t, err)
	assert.True(t, got)
}

func TestEvaluator_TodayIsUTCDate(t *testing.T) {
	tokyo := time.FixedZone("JST", 9*60*60)
	e := NewEvaluator(WithToday(func() time.Time {
		return time.Date(2024, 3, 16, 7, 0, 0, 0, tokyo)
	}))
	assert.Equal(t, time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC), e.Today())

	got, err := e.EvaluateCondition(sobject.RecordOf("D", "2024-03-15T22:00:00.000+0000"), Cond("D", "=", Bare("TODAY")))
	require.NoError(t, err)
	assert.True(t, got)
}

func TestMatch_BooleanStructure(t *testing.T) {
	a := Cond("A", "=", Bare("true"))
	b := Cond("B", "=", Bare("true"))
	c := Cond("C", "=", Bare("true"))
	grouped := Expr{AnyOf(a, b), And, c}
	flat := AllOf(a, b, c)

	for _, bits := range [][3]bool{
		{false, false, false}, {true, false, false}, {false, true, false}, {true, true, false},
		{false, false, true}, {true, false, true}, {false, true, true}, {true, true, true},
	} {
		rec := sobject.RecordOf("A", bits[0], "B", bits[1], "C", bits[2])
		assert.Equal(t, (bits[0] || bits[1]) && bits[2], mustMatch(t, rec, grouped), "(A OR B) AND C with %v", bits)
		assert.Equal(t, bits[0] && bits[1] && bits[2], mustMatch(t, rec, flat), "A AND B AND C with %v", bits)
	}
}

func TestMatch_LeftToRightWithoutPrecedence(t *testing.T) {
	// A OR B AND C folds as (A OR B) AND C.
	expr := Expr{
		Cond("A", "=", Bare("true")), Or,
		Cond("B", "=", Bare("true")), And,
		Cond("C", "=", Bare("true")),
	}
	rec := sobject.RecordOf("A", true, "B", false, "C", false)
	assert.False(t, mustMatch(t, rec, expr))
}

func TestMatch_NestedGroups(t *testing.T) {
	expr := Expr{
		Cond("Type", "=", Quoted("Customer")),
		And,
		Expr{
			Cond("City", "=", Quoted("Paris")),
			Or,
			Expr{Cond("City", "=", Quoted("Rome")), And, Cond("Tier", ">", Bare("2"))},
		},
	}
	assert.True(t, mustMatch(t, sobject.RecordOf("Type", "Customer", "City", "Paris"), expr))
	assert.True(t, mustMatch(t, sobject.RecordOf("Type", "Customer", "City", "Rome", "Tier", 3), expr))
	assert.False(t, mustMatch(t, sobject.RecordOf("Type", "Customer", "City", "Rome", "Tier", 1), expr))
	assert.False(t, mustMatch(t, sobject.RecordOf("Type", "Partner", "City", "Paris"), expr))
}

func TestMatch_Malformed(t *testing.T) {
	cond := Cond("Name", "=", Quoted("x"))
	tests := []struct {
		name string
		expr Expr
	}{
		{"unsupported operator", Expr{Cond("Name", "LIKE", Quoted("A%"))}},
		{"leading connective", Expr{And, cond}},
		{"trailing connective", Expr{cond, Or}},
		{"double connective", Expr{cond, And, Or, cond}},
		{"missing connective", Expr{cond, cond}},
		{"bad connective", Expr{cond, Connective("XOR"), cond}},
		{"empty group", Expr{Expr{}}},
		{"in without list", Expr{Cond("Name", "IN", Quoted("x"))}},
		{"list without in", Expr{Cond("Name", "=", ListOf("x"))}},
	}

	e := newTestEvaluator()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := e.Match(sobject.RecordOf("Name", "x"), tt.expr)
			require.Error(t, err)
			var mqe *MalformedQueryError
			assert.True(t, errors.As(err, &mqe))
			assert.Equal(t, "MALFORMED_QUERY", mqe.ErrorCode())

			assert.Error(t, Validate(tt.expr))
		})
	}
}

func TestMatch_MalformedOperatorOnMissingField(t *testing.T) {
	_, err := newTestEvaluator().Match(sobject.NewRecord(), Expr{Cond("Missing", "~", Quoted("x"))})
	assert.Error(t, err)
}

func TestValidate_Valid(t *testing.T) {
	assert.NoError(t, Validate(nil))
	assert.NoError(t, Validate(AllOf(Cond("A", "=", Bare("1")), Cond("B", "IN", ListOf("x")))))
}

func TestUnquote(t *testing.T) {
	got, ok := unquote(`'O\'Brien'`)
	require.True(t, ok)
	assert.Equal(t, "O'Brien", got)

	_, ok = unquote("bare")
	assert.False(t, ok)

	got, ok = unquote(`"double"`)
	require.True(t, ok)
	assert.Equal(t, "double", got)
}

func TestQuotedRoundTrip(t *testing.T) {
	rec := sobject.RecordOf("LastName", "O'Brien")
	assert.True(t, mustMatch(t, rec, Expr{Cond("LastName", "=", Quoted("O'Brien"))}))
}

func TestParse(t *testing.T) {
	src := `[[["A","=","'x'"],"OR",["B","=","'y'"]],"and",["C","IN",["(","'1'","'2'",")"]]]`
	var expr Expr
	require.NoError(t, json.Unmarshal([]byte(src), &expr))
	require.Len(t, expr, 3)

	group, ok := expr[0].(Expr)
	require.True(t, ok)
	assert.Len(t, group, 3)
	assert.Equal(t, And, expr[1])

	in, ok := expr[2].(Condition)
	require.True(t, ok)
	assert.True(t, in.Literal.IsList)
	assert.Equal(t, []string{"'1'", "'2'"}, in.Literal.Items)
	assert.Equal(t, `(A = 'x' OR B = 'y') AND C IN ('1', '2')`, expr.String())
}

func TestParse_Shapes(t *testing.T) {
	expr, err := Parse([]interface{}{"Name", "=", "'Acme'"})
	require.NoError(t, err)
	assert.Equal(t, Expr{Cond("Name", "=", Literal{Raw: "'Acme'"})}, expr)

	expr, err = Parse(nil)
	require.NoError(t, err)
	assert.Empty(t, expr)

	expr, err = Parse([]interface{}{[]interface{}{"Amount", ">", json.Number("10")}})
	require.NoError(t, err)
	assert.Equal(t, "10", expr[0].(Condition).Literal.Raw)

	expr, err = Parse([]interface{}{[]interface{}{"Closed", "=", nil}})
	require.NoError(t, err)
	assert.Equal(t, "null", expr[0].(Condition).Literal.Raw)

	_, err = Parse("Name = 'Acme'")
	assert.Error(t, err)

	_, err = Parse([]interface{}{[]interface{}{"A", "=", "1"}, "NOT"})
	assert.Error(t, err)

	_, err = Parse([]interface{}{42})
	assert.Error(t, err)
}
