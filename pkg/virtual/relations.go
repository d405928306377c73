package virtual

import (
	"log/slog"
	"strings"

	"github.com/getmockd/mockforce/pkg/logging"
	"github.com/getmockd/mockforce/pkg/sobject"
)

// Naming conventions for custom relationships and lookups.
const (
	customRelationshipSuffix = "__r"
	customFieldSuffix        = "__c"
	lookupSuffix             = "Id"
	attributesField          = "attributes"
)

// Reader is the read surface the resolver needs. *Store, *View and *Tx all
// satisfy it.
type Reader interface {
	Get(sobjectName, recordID string) (*sobject.Record, error)
	GetByExternalID(sobjectName, field, value string) (*sobject.Record, error)
	ResolveType(name string) (string, bool)
}

// RelationsMap maps a relationship alias to the literal type name it points
// at. It is consulted only when the naming convention does not resolve to a
// provisioned type.
type RelationsMap map[string]string

// Lookup returns the mapped type name for alias, matching exactly first and
// then case-insensitively.
func (m RelationsMap) Lookup(alias string) (string, bool) {
	if name, ok := m[alias]; ok {
		return name, true
	}
	for k, name := range m {
		if strings.EqualFold(k, alias) {
			return name, true
		}
	}
	return "", false
}

// relationTarget is where a relationship alias points.
type relationTarget struct {
	// sobject is the parent type to fetch from.
	sobject string
	// lookup is the base name of the foreign-key field on the child.
	lookup string
}

// foreignKeyField is the field name a resolved link is persisted under:
// custom lookups keep their __c name, standard lookups gain an Id suffix.
func (t relationTarget) foreignKeyField() string {
	if strings.HasSuffix(t.lookup, customFieldSuffix) {
		return t.lookup
	}
	return t.lookup + lookupSuffix
}

// Resolver maps relationship aliases to foreign keys without a schema.
type Resolver struct {
	relations RelationsMap
	log       *slog.Logger
}

// NewResolver creates a Resolver. relations may be nil.
func NewResolver(relations RelationsMap, logger *slog.Logger) *Resolver {
	if relations == nil {
		relations = RelationsMap{}
	}
	if logger == nil {
		logger = logging.Nop()
	}
	return &Resolver{relations: relations, log: logger}
}

// Relations returns the override map in use.
func (r *Resolver) Relations() RelationsMap {
	return r.relations
}

// resolve applies, in order: the custom naming convention (X__r -> X__c),
// the relations override, and the standard variant with the custom suffix
// stripped.
func (r *Resolver) resolve(rd Reader, alias string) relationTarget {
	candidate := alias
	if strings.HasSuffix(alias, customRelationshipSuffix) {
		candidate = strings.TrimSuffix(alias, customRelationshipSuffix) + customFieldSuffix
	}
	if name, ok := rd.ResolveType(candidate); ok {
		return relationTarget{sobject: name, lookup: candidate}
	}

	if mapped, ok := r.relations.Lookup(alias); ok {
		if name, ok := rd.ResolveType(mapped); ok {
			return relationTarget{sobject: name, lookup: candidate}
		}
		if std := standardName(mapped); std != mapped {
			if name, ok := rd.ResolveType(std); ok {
				return relationTarget{sobject: name, lookup: std}
			}
		}
	}

	if std := standardName(candidate); std != candidate {
		if name, ok := rd.ResolveType(std); ok {
			return relationTarget{sobject: name, lookup: std}
		}
	}
	return relationTarget{sobject: candidate, lookup: candidate}
}

func standardName(name string) string {
	return strings.TrimSuffix(name, customFieldSuffix)
}

// ResolveParentField projects parentField from the record that rec links
// to through alias. A missing link or parent yields ok == false.
func (r *Resolver) ResolveParentField(rd Reader, rec *sobject.Record, alias, parentField string) (sobject.Value, bool) {
	target := r.resolve(rd, alias)

	fk, ok := rec.Get(target.lookup)
	if !ok {
		fk, ok = rec.Get(target.lookup + lookupSuffix)
	}
	if !ok || fk.IsNull() {
		return sobject.Null(), false
	}

	parent, err := rd.Get(target.sobject, fk.String())
	if err != nil {
		r.log.Debug("parent record not found", "relationship", alias, "sobject", target.sobject, "id", fk.String())
		return sobject.Null(), false
	}
	return parent.Get(parentField)
}

// NormalizeIncomingRelations replaces every link-by-external-ID marker in
// payload, a field whose value is a one-entry mapping {extField: value},
// with the linked record's Id under the foreign-key field name. It returns
// a new record and leaves payload untouched.
func (r *Resolver) NormalizeIncomingRelations(rd Reader, payload *sobject.Record) (*sobject.Record, error) {
	out := sobject.NewRecord()
	var firstErr error
	payload.Range(func(alias string, v sobject.Value) bool {
		if alias == attributesField {
			return true
		}
		extField, extValue, isLink := linkMarker(v)
		if !isLink {
			out.Set(alias, v)
			return true
		}

		target := r.resolve(rd, alias)
		parent, err := rd.GetByExternalID(target.sobject, extField, extValue)
		if err != nil {
			firstErr = &LinkedRecordNotFoundError{
				Relationship: alias,
				SObject:      target.sobject,
				Field:        extField,
				Value:        extValue,
			}
			return false
		}
		out.Set(target.foreignKeyField(), sobject.String(parent.ID()))
		return true
	})
	if firstErr != nil {
		r.log.Debug("linked record not found", "error", firstErr)
		return nil, firstErr
	}
	return out, nil
}

// linkMarker recognises {extField: value}, ignoring an attributes entry.
func linkMarker(v sobject.Value) (string, string, bool) {
	nested, ok := v.Record()
	if !ok {
		return "", "", false
	}
	var (
		field string
		value sobject.Value
		n     int
	)
	nested.Range(func(k string, fv sobject.Value) bool {
		if k == attributesField {
			return true
		}
		field, value = k, fv
		n++
		return true
	})
	if n != 1 {
		return "", "", false
	}
	switch value.Kind() {
	case sobject.KindString, sobject.KindNumber, sobject.KindBool:
		return field, value.String(), true
	}
	return "", "", false
}
