package virtual

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/getmockd/mockforce/pkg/where"
)

// Descriptor is the parsed query shape handed over by the query parser:
//
//	{"sobject": "Contact", "fields": ["Id", "Account.Name"],
//	 "where": [["LastName", "=", "'Doe'"]], "limit": [10], "offset": [],
//	 "order_by": [[["LastName", "DESC"], ["FirstName"]]]}
type Descriptor struct {
	SObject        string          `json:"sobject"`
	Fields         []string        `json:"fields"`
	Where          where.Expr      `json:"where"`
	Limit          intList         `json:"limit"`
	Offset         intList         `json:"offset"`
	OrderBy        json.RawMessage `json:"order_by"`
	IncludeDeleted bool            `json:"include_deleted"`
}

// ParseDescriptor decodes a JSON descriptor into a Query.
func ParseDescriptor(data []byte) (Query, error) {
	var d Descriptor
	if err := json.Unmarshal(data, &d); err != nil {
		return Query{}, fmt.Errorf("decoding query descriptor: %w", err)
	}
	return d.Query()
}

// Query converts the descriptor into a Query.
func (d Descriptor) Query() (Query, error) {
	if strings.TrimSpace(d.SObject) == "" {
		return Query{}, &where.MalformedQueryError{Reason: "missing sobject"}
	}
	orderBy, err := parseOrderBy(d.OrderBy)
	if err != nil {
		return Query{}, err
	}
	return Query{
		SObject:        d.SObject,
		Fields:         d.Fields,
		Where:          d.Where,
		OrderBy:        orderBy,
		Limit:          d.Limit.first(),
		Offset:         d.Offset.first(),
		IncludeDeleted: d.IncludeDeleted,
	}, nil
}

// intList accepts 5, [], [5] or ["LIMIT", 5]; the last number wins.
type intList []int

func (l *intList) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var raw interface{}
	if err := dec.Decode(&raw); err != nil {
		return err
	}
	var items []interface{}
	switch x := raw.(type) {
	case nil:
		*l = nil
		return nil
	case []interface{}:
		items = x
	default:
		items = []interface{}{x}
	}
	var out intList
	for _, item := range items {
		n, ok := item.(json.Number)
		if !ok {
			continue
		}
		v, err := n.Int64()
		if err != nil {
			return &where.MalformedQueryError{Reason: "expected an integer", Token: n.String()}
		}
		out = append(out, int(v))
	}
	*l = out
	return nil
}

func (l intList) first() *int {
	if len(l) == 0 {
		return nil
	}
	v := l[len(l)-1]
	return &v
}

// parseOrderBy accepts the parser shape [[order, ...]] or a bare list of
// orders. Each order is a list of field names optionally followed by ASC or
// DESC and NULLS FIRST or NULLS LAST; a string order is split on spaces.
func parseOrderBy(raw json.RawMessage) ([]OrderKey, error) {
	if len(bytes.TrimSpace(raw)) == 0 {
		return nil, nil
	}
	var tree interface{}
	if err := json.Unmarshal(raw, &tree); err != nil {
		return nil, fmt.Errorf("decoding order_by: %w", err)
	}
	orders, ok := tree.([]interface{})
	if !ok || len(orders) == 0 {
		return nil, nil
	}
	if first, ok := orders[0].([]interface{}); ok && len(first) > 0 {
		if _, nested := first[0].([]interface{}); nested {
			orders = first
		}
	}

	var keys []OrderKey
	for _, order := range orders {
		tokens, err := orderTokens(order)
		if err != nil {
			return nil, err
		}
		parsed, err := parseOrder(tokens)
		if err != nil {
			return nil, err
		}
		keys = append(keys, parsed...)
	}
	return keys, nil
}

func orderTokens(order interface{}) ([]string, error) {
	switch x := order.(type) {
	case string:
		return strings.Fields(x), nil
	case []interface{}:
		tokens := make([]string, 0, len(x))
		for _, t := range x {
			s, ok := t.(string)
			if !ok {
				return nil, &where.MalformedQueryError{Reason: "order_by entries must be strings", Token: fmt.Sprint(t)}
			}
			tokens = append(tokens, strings.Fields(s)...)
		}
		return tokens, nil
	}
	return nil, &where.MalformedQueryError{Reason: "unexpected order_by entry", Token: fmt.Sprint(order)}
}

func parseOrder(tokens []string) ([]OrderKey, error) {
	var (
		fields []string
		desc   bool
		nulls  NullsOrder
	)
	for i := 0; i < len(tokens); i++ {
		switch strings.ToUpper(tokens[i]) {
		case "ASC":
			desc = false
		case "DESC":
			desc = true
		case "NULLS":
			if i+1 >= len(tokens) {
				return nil, &where.MalformedQueryError{Reason: "NULLS requires FIRST or LAST"}
			}
			i++
			switch strings.ToUpper(tokens[i]) {
			case "FIRST":
				nulls = NullsFirst
			case "LAST":
				nulls = NullsLast
			default:
				return nil, &where.MalformedQueryError{Reason: "NULLS requires FIRST or LAST", Token: tokens[i]}
			}
		default:
			fields = append(fields, strings.TrimSuffix(tokens[i], ","))
		}
	}
	if len(fields) == 0 {
		return nil, &where.MalformedQueryError{Reason: "order_by entry without a field"}
	}
	keys := make([]OrderKey, len(fields))
	for i, f := range fields {
		keys[i] = OrderKey{Field: f, Descending: desc, Nulls: nulls}
	}
	return keys, nil
}
