package config

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

//go:embed schemas/config.schema.json
var configSchemaJSON string

//go:embed schemas/relations.schema.json
var relationsSchemaJSON string

// SchemaValidationError represents a single validation error.
type SchemaValidationError struct {
	Path    string // Document path, e.g. "log.level"
	Message string
}

func (e SchemaValidationError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("%s: %s", e.Path, e.Message)
	}
	return e.Message
}

// SchemaValidationResult contains all validation errors for a document.
type SchemaValidationResult struct {
	File   string
	Errors []SchemaValidationError
}

// IsValid returns true if there are no validation errors.
func (r *SchemaValidationResult) IsValid() bool {
	return len(r.Errors) == 0
}

// Error returns a combined error message.
func (r *SchemaValidationResult) Error() string {
	if r.IsValid() {
		return ""
	}
	msgs := make([]string, 0, len(r.Errors))
	for _, e := range r.Errors {
		msgs = append(msgs, e.Error())
	}
	prefix := "invalid document"
	if r.File != "" {
		prefix = "invalid " + r.File
	}
	return prefix + ":\n  " + strings.Join(msgs, "\n  ")
}

// AddError adds a validation error.
func (r *SchemaValidationResult) AddError(path, message string) {
	r.Errors = append(r.Errors, SchemaValidationError{Path: path, Message: message})
}

// schemaSet compiles an embedded schema on first use.
type schemaSet struct {
	name   string
	source string

	once   sync.Once
	schema *jsonschema.Schema
	err    error
}

var (
	configSchema    = &schemaSet{name: "config.schema.json", source: configSchemaJSON}
	relationsSchema = &schemaSet{name: "relations.schema.json", source: relationsSchemaJSON}
)

func (s *schemaSet) compiled() (*jsonschema.Schema, error) {
	s.once.Do(func() {
		compiler := jsonschema.NewCompiler()
		compiler.Draft = jsonschema.Draft2020
		if err := compiler.AddResource(s.name, strings.NewReader(s.source)); err != nil {
			s.err = fmt.Errorf("failed to add schema resource: %w", err)
			return
		}
		s.schema, s.err = compiler.Compile(s.name)
	})
	return s.schema, s.err
}

// validate checks a decoded document against the schema. The document is
// round-tripped through JSON so YAML scalars get JSON types.
func (s *schemaSet) validate(file string, doc interface{}) error {
	schema, err := s.compiled()
	if err != nil {
		return fmt.Errorf("compiling %s: %w", s.name, err)
	}

	raw, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("converting %s for validation: %w", file, err)
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var normalized interface{}
	if err := dec.Decode(&normalized); err != nil {
		return fmt.Errorf("converting %s for validation: %w", file, err)
	}

	if err := schema.Validate(normalized); err != nil {
		result := &SchemaValidationResult{File: file}
		if verr, ok := err.(*jsonschema.ValidationError); ok {
			collectSchemaErrors(verr, result)
		} else {
			result.AddError("", err.Error())
		}
		sort.SliceStable(result.Errors, func(i, j int) bool {
			return result.Errors[i].Path < result.Errors[j].Path
		})
		return result
	}
	return nil
}

// collectSchemaErrors flattens the leaf causes of a validation error.
func collectSchemaErrors(err *jsonschema.ValidationError, result *SchemaValidationResult) {
	if len(err.Causes) == 0 {
		result.AddError(pathFromPointer(err.InstanceLocation), err.Message)
		return
	}
	for _, cause := range err.Causes {
		collectSchemaErrors(cause, result)
	}
}

// pathFromPointer converts a JSON Pointer to dot notation.
func pathFromPointer(pointer string) string {
	if pointer == "" || pointer == "/" {
		return ""
	}
	pointer = strings.TrimPrefix(pointer, "/")
	return strings.ReplaceAll(pointer, "/", ".")
}
