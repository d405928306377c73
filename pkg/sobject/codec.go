package sobject

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"

	"gopkg.in/yaml.v3"
)

// MarshalJSON encodes the record as a JSON object with fields in insertion
// order.
func (r *Record) MarshalJSON() ([]byte, error) {
	if r == nil {
		return []byte("null"), nil
	}
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, k := range r.keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(k)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		val, err := json.Marshal(r.values[k])
		if err != nil {
			return nil, fmt.Errorf("field %q: %w", k, err)
		}
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON decodes a JSON object, preserving the order of its keys.
func (r *Record) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if tok == nil {
		*r = Record{}
		return nil
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return fmt.Errorf("record must be a JSON object, got %v", tok)
	}
	rec, err := decodeObject(dec)
	if err != nil {
		return err
	}
	*r = *rec
	return nil
}

// MarshalJSON encodes the value as its natural JSON form.
func (v Value) MarshalJSON() ([]byte, error) {
	switch v.kind {
	case KindString:
		return json.Marshal(v.str)
	case KindNumber:
		return []byte(formatNumber(v.num)), nil
	case KindBool:
		return json.Marshal(v.b)
	case KindMap:
		return v.rec.MarshalJSON()
	case KindList:
		if v.list == nil {
			return []byte("[]"), nil
		}
		return json.Marshal(v.list)
	default:
		return []byte("null"), nil
	}
}

// UnmarshalJSON decodes any JSON value supported by the union.
func (v *Value) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	out, err := decodeValue(dec)
	if err != nil {
		return err
	}
	*v = out
	return nil
}

func decodeValue(dec *json.Decoder) (Value, error) {
	tok, err := dec.Token()
	if err != nil {
		return Null(), err
	}
	switch t := tok.(type) {
	case nil:
		return Null(), nil
	case string:
		return String(t), nil
	case bool:
		return Bool(t), nil
	case json.Number:
		return FromInterface(t)
	case json.Delim:
		switch t {
		case '{':
			rec, err := decodeObject(dec)
			if err != nil {
				return Null(), err
			}
			return Map(rec), nil
		case '[':
			return decodeList(dec)
		}
	}
	return Null(), fmt.Errorf("unexpected JSON token %v", tok)
}

// decodeObject reads the body of an object whose '{' was already consumed.
func decodeObject(dec *json.Decoder) (*Record, error) {
	rec := NewRecord()
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, err
		}
		key, ok := tok.(string)
		if !ok {
			return nil, fmt.Errorf("expected object key, got %v", tok)
		}
		val, err := decodeValue(dec)
		if err != nil {
			return nil, fmt.Errorf("field %q: %w", key, err)
		}
		rec.Set(key, val)
	}
	if _, err := dec.Token(); err != nil {
		return nil, err
	}
	return rec, nil
}

// decodeList reads the body of an array whose '[' was already consumed.
// Scalars are kept in their textual form.
func decodeList(dec *json.Decoder) (Value, error) {
	items := []string{}
	for dec.More() {
		item, err := decodeValue(dec)
		if err != nil {
			return Null(), err
		}
		if item.kind == KindMap || item.kind == KindList {
			return Null(), fmt.Errorf("list element %d: nested %s not supported", len(items), item.kind)
		}
		items = append(items, item.String())
	}
	if _, err := dec.Token(); err != nil {
		return Null(), err
	}
	return List(items...), nil
}

// DecodeRecords decodes a JSON array of objects, preserving field order.
func DecodeRecords(data []byte) ([]*Record, error) {
	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("records must be a JSON array: %w", err)
	}
	out := make([]*Record, 0, len(raw))
	for i, msg := range raw {
		rec := NewRecord()
		if err := rec.UnmarshalJSON(msg); err != nil {
			return nil, fmt.Errorf("record %d: %w", i, err)
		}
		out = append(out, rec)
	}
	return out, nil
}

// UnmarshalYAML decodes a YAML mapping, preserving the order of its keys.
func (r *Record) UnmarshalYAML(node *yaml.Node) error {
	rec, err := recordFromNode(node)
	if err != nil {
		return err
	}
	*r = *rec
	return nil
}

// UnmarshalYAML decodes any YAML node supported by the union.
func (v *Value) UnmarshalYAML(node *yaml.Node) error {
	out, err := valueFromNode(node)
	if err != nil {
		return err
	}
	*v = out
	return nil
}

func recordFromNode(node *yaml.Node) (*Record, error) {
	node = resolveNode(node)
	if node.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("line %d: record must be a mapping", node.Line)
	}
	rec := NewRecord()
	for i := 0; i+1 < len(node.Content); i += 2 {
		key := resolveNode(node.Content[i])
		if key.Kind != yaml.ScalarNode {
			return nil, fmt.Errorf("line %d: field name must be a scalar", key.Line)
		}
		val, err := valueFromNode(node.Content[i+1])
		if err != nil {
			return nil, fmt.Errorf("field %q: %w", key.Value, err)
		}
		rec.Set(key.Value, val)
	}
	return rec, nil
}

func valueFromNode(node *yaml.Node) (Value, error) {
	node = resolveNode(node)
	switch node.Kind {
	case yaml.MappingNode:
		rec, err := recordFromNode(node)
		if err != nil {
			return Null(), err
		}
		return Map(rec), nil
	case yaml.SequenceNode:
		items := make([]string, 0, len(node.Content))
		for _, child := range node.Content {
			child = resolveNode(child)
			if child.Kind != yaml.ScalarNode {
				return Null(), fmt.Errorf("line %d: list elements must be scalars", child.Line)
			}
			items = append(items, child.Value)
		}
		return List(items...), nil
	case yaml.ScalarNode:
		switch node.ShortTag() {
		case "!!null":
			return Null(), nil
		case "!!bool":
			var b bool
			if err := node.Decode(&b); err != nil {
				return Null(), err
			}
			return Bool(b), nil
		case "!!int", "!!float":
			n, err := strconv.ParseFloat(node.Value, 64)
			if err != nil {
				var f float64
				if derr := node.Decode(&f); derr != nil {
					return Null(), derr
				}
				n = f
			}
			return Number(n), nil
		default:
			return String(node.Value), nil
		}
	}
	return Null(), fmt.Errorf("line %d: unsupported YAML node", node.Line)
}

func resolveNode(node *yaml.Node) *yaml.Node {
	for node != nil {
		switch {
		case node.Kind == yaml.DocumentNode && len(node.Content) > 0:
			node = node.Content[0]
		case node.Kind == yaml.AliasNode && node.Alias != nil:
			node = node.Alias
		default:
			return node
		}
	}
	return &yaml.Node{}
}

// ErrNotRecordList is returned when a seed document entry is not a list of
// records.
var ErrNotRecordList = errors.New("expected a list of records")

// DecodeSeedYAML decodes a seed document: a mapping from type name to a list
// of records. Type and field order are preserved.
func DecodeSeedYAML(data []byte) ([]SeedSet, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, err
	}
	root := resolveNode(&doc)
	if root.Kind == 0 {
		return nil, nil
	}
	if root.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("line %d: seed document must map type names to records", root.Line)
	}

	var sets []SeedSet
	for i := 0; i+1 < len(root.Content); i += 2 {
		name := root.Content[i].Value
		list := resolveNode(root.Content[i+1])
		if list.Kind != yaml.SequenceNode {
			return nil, fmt.Errorf("%s (line %d): %w", name, list.Line, ErrNotRecordList)
		}
		set := SeedSet{SObject: name}
		for _, item := range list.Content {
			rec, err := recordFromNode(item)
			if err != nil {
				return nil, fmt.Errorf("%s: %w", name, err)
			}
			set.Records = append(set.Records, rec)
		}
		sets = append(sets, set)
	}
	return sets, nil
}

// SeedSet is a group of records destined for one type.
type SeedSet struct {
	SObject string
	Records []*Record
}
