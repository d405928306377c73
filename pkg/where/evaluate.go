package where

import (
	"strings"
	"time"

	"github.com/getmockd/mockforce/pkg/sobject"
)

// Evaluator applies where-clauses to records. The current date used by
// TODAY, THIS_MONTH and friends comes from a replaceable source.
type Evaluator struct {
	today func() time.Time
}

// Option configures an Evaluator.
type Option func(*Evaluator)

// WithToday replaces the current date source.
func WithToday(fn func() time.Time) Option {
	return func(e *Evaluator) {
		if fn != nil {
			e.today = fn
		}
	}
}

// NewEvaluator creates an Evaluator using the system clock by default.
func NewEvaluator(opts ...Option) *Evaluator {
	e := &Evaluator{today: time.Now}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Today returns the current UTC calendar date, the frame system timestamps
// are written in.
func (e *Evaluator) Today() time.Time {
	return sobject.Date(e.today().UTC())
}

// Match reports whether rec satisfies expr. An empty expression excludes
// every record; callers wanting all records must skip filtering instead.
func (e *Evaluator) Match(rec *sobject.Record, expr Expr) (bool, error) {
	if len(expr) == 0 {
		return false, nil
	}
	return e.fold(rec, expr, e.Today())
}

// fold walks the sequence left to right. Each connective combines the
// accumulated result with the next operand; there is no precedence beyond
// explicit nesting.
func (e *Evaluator) fold(rec *sobject.Record, expr Expr, today time.Time) (bool, error) {
	var (
		acc     bool
		have    bool
		pending Connective
	)
	for _, term := range expr {
		var (
			v   bool
			err error
		)
		switch t := term.(type) {
		case Connective:
			c, ok := normalizeConnective(string(t))
			if !ok {
				return false, malformed("expected AND or OR", string(t))
			}
			if !have {
				return false, malformed("connective without a left operand", string(t))
			}
			if pending != "" {
				return false, malformed("consecutive connectives", string(t))
			}
			pending = c
			continue
		case Expr:
			if len(t) == 0 {
				return false, malformed("empty group", "()")
			}
			v, err = e.fold(rec, t, today)
		case Condition:
			v, err = evaluateCondition(rec, t, today)
		default:
			return false, malformed("unknown term", "")
		}
		if err != nil {
			return false, err
		}

		switch {
		case !have:
			acc, have = v, true
		case pending == "":
			return false, malformed("missing AND or OR between conditions", "")
		case pending == And:
			acc = acc && v
		default:
			acc = acc || v
		}
		pending = ""
	}
	if pending != "" {
		return false, malformed("trailing connective", string(pending))
	}
	return acc, nil
}

// Validate checks the shape and operators of expr without a record, so a
// malformed clause is reported even when there is nothing to filter.
func Validate(expr Expr) error {
	_, err := NewEvaluator().fold(nil, expr, time.Time{})
	return err
}

// EvaluateCondition evaluates a single leaf against rec.
func (e *Evaluator) EvaluateCondition(rec *sobject.Record, c Condition) (bool, error) {
	return evaluateCondition(rec, c, e.Today())
}

func evaluateCondition(rec *sobject.Record, c Condition, today time.Time) (bool, error) {
	op, ok := normalizeOperator(c.Operator)
	if !ok {
		return false, malformed("unsupported operator", c.Operator)
	}
	if op == OpIn && !c.Literal.IsList {
		return false, malformed("IN requires a parenthesised list", c.Literal.String())
	}
	if op != OpIn && c.Literal.IsList {
		return false, malformed("list literal requires IN", c.Operator)
	}

	field, present := rec.Get(c.Field)
	if !present {
		return false, nil
	}
	lit := coerce(c.Literal, today)

	if op == OpIn {
		for _, item := range lit.items {
			if matchOne(field, OpEq, item) {
				return true, nil
			}
		}
		return false, nil
	}
	return matchOne(field, op, lit), nil
}

func matchOne(field sobject.Value, op string, lit operand) bool {
	if lit.isDate() {
		return compareDate(field, op, lit)
	}
	if lit.kind == operandNull {
		switch op {
		case OpEq:
			return field.IsNull()
		case OpNeq:
			return !field.IsNull()
		default:
			return false
		}
	}
	if field.IsNull() {
		return op == OpNeq
	}

	cmp, ok := compare(field, lit)
	switch op {
	case OpEq:
		return ok && cmp == 0
	case OpNeq:
		return !ok || cmp != 0
	}
	if !ok || lit.kind == operandBool {
		return false
	}
	return ordered(op, cmp)
}

// compareDate compares a field holding a date or datetime string against a
// date operand. Month operands truncate the field to the first of its
// month. Unparseable fields never match.
func compareDate(field sobject.Value, op string, lit operand) bool {
	s, ok := field.Str()
	if !ok {
		return false
	}
	d, ok := sobject.ParseDate(s)
	if !ok {
		return false
	}
	if lit.kind == operandMonth {
		d = sobject.MonthStart(d)
	}
	cmp := 0
	switch {
	case d.Before(lit.date):
		cmp = -1
	case d.After(lit.date):
		cmp = 1
	}
	switch op {
	case OpEq:
		return cmp == 0
	case OpNeq:
		return cmp != 0
	}
	return ordered(op, cmp)
}

// compare orders a non-null field against a scalar operand. ok is false
// when the two are of incomparable kinds.
func compare(field sobject.Value, lit operand) (int, bool) {
	switch lit.kind {
	case operandString:
		s, ok := field.Str()
		if !ok {
			return 0, false
		}
		return strings.Compare(s, lit.str), true
	case operandNumber:
		n, ok := field.Num()
		if !ok {
			return 0, false
		}
		switch {
		case n < lit.num:
			return -1, true
		case n > lit.num:
			return 1, true
		}
		return 0, true
	case operandBool:
		b, ok := field.Boolean()
		if !ok {
			return 0, false
		}
		if b == lit.b {
			return 0, true
		}
		if !b {
			return -1, true
		}
		return 1, true
	}
	return 0, false
}

func ordered(op string, cmp int) bool {
	switch op {
	case OpLt:
		return cmp < 0
	case OpLte:
		return cmp <= 0
	case OpGt:
		return cmp > 0
	case OpGte:
		return cmp >= 0
	}
	return false
}
