package where

import (
	"strings"
)

// Connective joins two adjacent terms at the same nesting level.
type Connective string

// Supported connectives.
const (
	And Connective = "AND"
	Or  Connective = "OR"
)

// Comparison operators.
const (
	OpEq  = "="
	OpNeq = "!="
	OpLt  = "<"
	OpLte = "<="
	OpGt  = ">"
	OpGte = ">="
	OpIn  = "IN"
)

// Term is one element of a where-clause token sequence: a Condition, a
// nested Expr, or a Connective.
type Term interface {
	isTerm()
}

// Expr is a flattened where-clause: terms alternate between operands
// (conditions or nested groups) and connectives, left to right.
type Expr []Term

// Condition is a leaf comparison of a record field against a literal.
type Condition struct {
	Field    string
	Operator string
	Literal  Literal
}

func (Expr) isTerm()       {}
func (Condition) isTerm()  {}
func (Connective) isTerm() {}

// Literal is the unparsed right-hand side of a condition as it appears in
// the query text: a quoted string, a bare token (null, true, TODAY, 42,
// 2024-01-31 ...), or a parenthesised list of such tokens.
type Literal struct {
	Raw    string
	Items  []string
	IsList bool
}

// Quoted returns a quoted string literal.
func Quoted(s string) Literal {
	return Literal{Raw: "'" + strings.ReplaceAll(s, "'", `\'`) + "'"}
}

// Bare returns an unquoted literal token.
func Bare(token string) Literal {
	return Literal{Raw: token}
}

// ListOf returns a list literal of quoted strings.
func ListOf(items ...string) Literal {
	lit := Literal{IsList: true, Items: make([]string, len(items))}
	for i, item := range items {
		lit.Items[i] = Quoted(item).Raw
	}
	return lit
}

// String renders the literal as query text.
func (l Literal) String() string {
	if l.IsList {
		return "(" + strings.Join(l.Items, ", ") + ")"
	}
	return l.Raw
}

// Cond is shorthand for a Condition term.
func Cond(field, operator string, lit Literal) Condition {
	return Condition{Field: field, Operator: operator, Literal: lit}
}

// Join builds an Expr joining operands with a single connective.
func Join(c Connective, operands ...Term) Expr {
	out := make(Expr, 0, len(operands)*2)
	for i, op := range operands {
		if i > 0 {
			out = append(out, c)
		}
		out = append(out, op)
	}
	return out
}

// AllOf joins operands with AND.
func AllOf(operands ...Term) Expr { return Join(And, operands...) }

// AnyOf joins operands with OR.
func AnyOf(operands ...Term) Expr { return Join(Or, operands...) }

// String renders the expression as query text.
func (e Expr) String() string {
	parts := make([]string, 0, len(e))
	for _, t := range e {
		switch t := t.(type) {
		case Condition:
			parts = append(parts, t.Field+" "+t.Operator+" "+t.Literal.String())
		case Expr:
			parts = append(parts, "("+t.String()+")")
		case Connective:
			parts = append(parts, string(t))
		}
	}
	return strings.Join(parts, " ")
}

func normalizeConnective(s string) (Connective, bool) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "AND":
		return And, true
	case "OR":
		return Or, true
	}
	return "", false
}

func normalizeOperator(s string) (string, bool) {
	op := strings.ToUpper(strings.TrimSpace(s))
	switch op {
	case OpEq, OpNeq, OpLt, OpLte, OpGt, OpGte, OpIn:
		return op, true
	case "<>":
		return OpNeq, true
	}
	return op, false
}
