package where

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
)

// Parse converts the token tree produced by the query parser into an Expr.
// The tree is a list whose elements are either a condition
// [field, operator, literal], a connective string ("AND"/"OR"), or a nested
// list representing a parenthesised group. A list literal is itself a list,
// optionally wrapped in "(" and ")" tokens. A nil or empty tree yields an
// empty Expr.
func Parse(tree interface{}) (Expr, error) {
	if tree == nil {
		return Expr{}, nil
	}
	items, ok := tree.([]interface{})
	if !ok {
		return nil, malformed("where clause must be a list", fmt.Sprint(tree))
	}
	if len(items) == 0 {
		return Expr{}, nil
	}
	// A lone condition is accepted in place of a one-element sequence.
	if isConditionShape(items) {
		c, err := parseCondition(items)
		if err != nil {
			return nil, err
		}
		return Expr{c}, nil
	}
	return parseSequence(items)
}

// UnmarshalJSON decodes the parser's token tree.
func (e *Expr) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var tree interface{}
	if err := dec.Decode(&tree); err != nil {
		return err
	}
	expr, err := Parse(tree)
	if err != nil {
		return err
	}
	*e = expr
	return nil
}

func parseSequence(items []interface{}) (Expr, error) {
	out := make(Expr, 0, len(items))
	for _, item := range items {
		switch x := item.(type) {
		case string:
			c, ok := normalizeConnective(x)
			if !ok {
				return nil, malformed("expected AND or OR", x)
			}
			out = append(out, c)
		case []interface{}:
			if isConditionShape(x) {
				c, err := parseCondition(x)
				if err != nil {
					return nil, err
				}
				out = append(out, c)
				continue
			}
			group, err := parseSequence(x)
			if err != nil {
				return nil, err
			}
			out = append(out, group)
		default:
			return nil, malformed("unexpected token in where clause", fmt.Sprint(item))
		}
	}
	return out, nil
}

// isConditionShape reports whether a list is a leaf [field, op, literal].
func isConditionShape(items []interface{}) bool {
	if len(items) != 3 {
		return false
	}
	field, ok := items[0].(string)
	if !ok {
		return false
	}
	if _, isConn := normalizeConnective(field); isConn {
		return false
	}
	_, ok = items[1].(string)
	return ok
}

func parseCondition(items []interface{}) (Condition, error) {
	field := items[0].(string)
	op := items[1].(string)
	lit, err := parseLiteral(items[2])
	if err != nil {
		return Condition{}, err
	}
	return Condition{Field: field, Operator: op, Literal: lit}, nil
}

func parseLiteral(v interface{}) (Literal, error) {
	switch x := v.(type) {
	case []interface{}:
		lit := Literal{IsList: true}
		for i, item := range x {
			s, err := scalarToken(item)
			if err != nil {
				return Literal{}, err
			}
			if (i == 0 && s == "(") || (i == len(x)-1 && s == ")") {
				continue
			}
			lit.Items = append(lit.Items, s)
		}
		return lit, nil
	default:
		s, err := scalarToken(v)
		if err != nil {
			return Literal{}, err
		}
		return Literal{Raw: s}, nil
	}
}

func scalarToken(v interface{}) (string, error) {
	switch x := v.(type) {
	case string:
		return x, nil
	case json.Number:
		return x.String(), nil
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64), nil
	case int:
		return strconv.Itoa(x), nil
	case bool:
		return strconv.FormatBool(x), nil
	case nil:
		return "null", nil
	default:
		return "", malformed("unsupported literal", fmt.Sprint(v))
	}
}
