package where

import (
	"strconv"
	"strings"
	"time"

	"github.com/getmockd/mockforce/pkg/sobject"
)

type operandKind uint8

const (
	operandString operandKind = iota
	operandNumber
	operandBool
	operandNull
	operandDate
	operandMonth
	operandList
)

// operand is a literal after coercion.
type operand struct {
	kind  operandKind
	str   string
	num   float64
	b     bool
	date  time.Time
	items []operand
}

func (o operand) isDate() bool {
	return o.kind == operandDate || o.kind == operandMonth
}

// coerce converts a raw literal into a typed operand. Date tokens are
// resolved against today.
func coerce(lit Literal, today time.Time) operand {
	if lit.IsList {
		out := operand{kind: operandList, items: make([]operand, 0, len(lit.Items))}
		for _, item := range lit.Items {
			out.items = append(out.items, coerceScalar(item, today))
		}
		return out
	}
	return coerceScalar(lit.Raw, today)
}

func coerceScalar(raw string, today time.Time) operand {
	s := strings.TrimSpace(raw)
	if unq, ok := unquote(s); ok {
		return operand{kind: operandString, str: unq}
	}

	today = sobject.Date(today)
	switch strings.ToUpper(s) {
	case "NULL":
		return operand{kind: operandNull}
	case "TRUE":
		return operand{kind: operandBool, b: true}
	case "FALSE":
		return operand{kind: operandBool, b: false}
	case "TODAY":
		return operand{kind: operandDate, date: today}
	case "TOMORROW":
		return operand{kind: operandDate, date: today.AddDate(0, 0, 1)}
	case "YESTERDAY":
		return operand{kind: operandDate, date: today.AddDate(0, 0, -1)}
	case "THIS_MONTH":
		return operand{kind: operandMonth, date: sobject.MonthStart(today)}
	case "NEXT_MONTH":
		return operand{kind: operandMonth, date: sobject.MonthStart(today).AddDate(0, 1, 0)}
	case "LAST_MONTH":
		return operand{kind: operandMonth, date: sobject.MonthStart(today).AddDate(0, -1, 0)}
	}

	if n, err := strconv.ParseFloat(s, 64); err == nil {
		return operand{kind: operandNumber, num: n}
	}
	if d, err := time.Parse(sobject.DateLayout, s); err == nil {
		return operand{kind: operandDate, date: d}
	}
	return operand{kind: operandString, str: s}
}

// unquote strips surrounding single or double quotes and resolves
// backslash escapes.
func unquote(s string) (string, bool) {
	if len(s) < 2 {
		return "", false
	}
	q := s[0]
	if (q != '\'' && q != '"') || s[len(s)-1] != q {
		return "", false
	}
	body := s[1 : len(s)-1]
	if !strings.Contains(body, `\`) {
		return body, true
	}
	var b strings.Builder
	for i := 0; i < len(body); i++ {
		if body[i] == '\\' && i+1 < len(body) {
			i++
		}
		b.WriteByte(body[i])
	}
	return b.String(), true
}
