package virtual

import (
	"sort"
	"strings"
	"time"

	"github.com/getmockd/mockforce/pkg/sobject"
	"github.com/getmockd/mockforce/pkg/where"
)

// NullsOrder controls where null values sort.
type NullsOrder uint8

// Null placement. The default puts nulls first when ascending and last when
// descending.
const (
	NullsDefault NullsOrder = iota
	NullsFirst
	NullsLast
)

// OrderKey is one ORDER BY key.
type OrderKey struct {
	Field      string
	Descending bool
	Nulls      NullsOrder
}

// Query is a structured query descriptor.
type Query struct {
	SObject string
	Fields  []string
	// Where is the filter; an empty clause keeps every record.
	Where   where.Expr
	OrderBy []OrderKey
	// Limit and Offset are nil when absent.
	Limit          *int
	Offset         *int
	IncludeDeleted bool
}

// Result is a query response.
type Result struct {
	TotalSize int               `json:"totalSize"`
	Done      bool              `json:"done"`
	Records   []*sobject.Record `json:"records"`
}

// Lister is the read surface needed to run a query.
type Lister interface {
	Reader
	List(sobjectName string, includeDeleted bool) []*sobject.Record
}

// QueryEvaluator runs the filter, sort, paginate and project pipeline.
type QueryEvaluator struct {
	resolver   *Resolver
	conditions *where.Evaluator
	observer   Observer
}

// NewQueryEvaluator creates a QueryEvaluator. A nil conditions evaluator
// uses the system clock for date tokens.
func NewQueryEvaluator(resolver *Resolver, conditions *where.Evaluator, observer Observer) *QueryEvaluator {
	if resolver == nil {
		resolver = NewResolver(nil, nil)
	}
	if conditions == nil {
		conditions = where.NewEvaluator()
	}
	if observer == nil {
		observer = NoopObserver{}
	}
	return &QueryEvaluator{resolver: resolver, conditions: conditions, observer: observer}
}

// Run evaluates q against rd.
func (qe *QueryEvaluator) Run(rd Lister, q Query) (*Result, error) {
	start := time.Now()
	result, err := qe.run(rd, q)
	if err != nil {
		qe.observer.OnError(q.SObject, "query", err)
		return nil, err
	}
	qe.observer.OnQuery(q.SObject, result.TotalSize, time.Since(start))
	return result, nil
}

func (qe *QueryEvaluator) run(rd Lister, q Query) (*Result, error) {
	name, ok := rd.ResolveType(q.SObject)
	if !ok {
		return nil, &NotFoundError{SObject: q.SObject}
	}
	if err := where.Validate(q.Where); err != nil {
		return nil, err
	}
	if q.Limit != nil && *q.Limit < 0 {
		return nil, &where.MalformedQueryError{Reason: "LIMIT must be non-negative"}
	}

	records := rd.List(name, q.IncludeDeleted)

	if len(q.Where) > 0 {
		kept := records[:0]
		for _, rec := range records {
			ok, err := qe.conditions.Match(rec, q.Where)
			if err != nil {
				return nil, err
			}
			if ok {
				kept = append(kept, rec)
			}
		}
		records = kept
	}

	if len(q.OrderBy) > 0 {
		qe.sortRecords(rd, records, q.OrderBy)
	}

	records = paginate(records, q.Offset, q.Limit)

	out := make([]*sobject.Record, len(records))
	for i, rec := range records {
		out[i] = qe.project(rd, rec, q.Fields)
	}
	return &Result{TotalSize: len(out), Done: true, Records: out}, nil
}

// valueOf reads a direct or dotted relationship field.
func (qe *QueryEvaluator) valueOf(rd Reader, rec *sobject.Record, field string) sobject.Value {
	if alias, parentField, ok := splitRelationshipField(field); ok {
		v, _ := qe.resolver.ResolveParentField(rd, rec, alias, parentField)
		return v
	}
	v, _ := rec.Get(field)
	return v
}

// sortRecords stable-sorts by each key in turn; ties keep insertion order.
func (qe *QueryEvaluator) sortRecords(rd Reader, records []*sobject.Record, keys []OrderKey) {
	values := make(map[*sobject.Record][]sobject.Value, len(records))
	for _, rec := range records {
		vs := make([]sobject.Value, len(keys))
		for i, k := range keys {
			vs[i] = qe.valueOf(rd, rec, k.Field)
		}
		values[rec] = vs
	}

	sort.SliceStable(records, func(i, j int) bool {
		vi, vj := values[records[i]], values[records[j]]
		for k, key := range keys {
			if c := compareForOrder(vi[k], vj[k], key); c != 0 {
				return c < 0
			}
		}
		return false
	})
}

// project copies the requested fields. Dotted fields from the same alias
// are gathered into one nested mapping; an alias with no resolvable parent
// projects as null.
func (qe *QueryEvaluator) project(rd Reader, rec *sobject.Record, fields []string) *sobject.Record {
	out := sobject.NewRecord()
	parents := make(map[string]*sobject.Record)
	for _, field := range fields {
		alias, parentField, ok := splitRelationshipField(field)
		if !ok {
			v, _ := rec.Get(field)
			out.Set(field, v)
			continue
		}

		sub, seen := parents[alias]
		if !seen {
			sub = sobject.NewRecord()
			parents[alias] = sub
			out.Set(alias, sobject.Null())
		}
		if v, found := qe.resolver.ResolveParentField(rd, rec, alias, parentField); found {
			sub.Set(parentField, v)
		}
	}
	for alias, sub := range parents {
		if sub.Len() > 0 {
			out.Set(alias, sobject.Map(sub))
		}
	}
	return out
}

func splitRelationshipField(field string) (string, string, bool) {
	alias, rest, ok := strings.Cut(field, ".")
	if !ok || alias == "" || rest == "" {
		return "", "", false
	}
	return alias, rest, true
}
