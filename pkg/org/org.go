// Package org bundles one virtual store with its relationship resolver,
// query evaluator and bulk coordinator.
//
// An Org is the value the request-interception layer owns and passes
// around. Tests usually create one per test with New, or share Default and
// call Reset between tests.
package org

import (
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/getmockd/mockforce/pkg/bulk"
	"github.com/getmockd/mockforce/pkg/config"
	"github.com/getmockd/mockforce/pkg/logging"
	"github.com/getmockd/mockforce/pkg/sobject"
	"github.com/getmockd/mockforce/pkg/virtual"
	"github.com/getmockd/mockforce/pkg/where"
)

// Org is an in-memory Salesforce org.
type Org struct {
	store    *virtual.Store
	resolver *virtual.Resolver
	query    *virtual.QueryEvaluator
	bulk     *bulk.Coordinator
	log      *slog.Logger
}

type options struct {
	relations virtual.RelationsMap
	clock     virtual.Clock
	today     func() time.Time
	logger    *slog.Logger
	observer  virtual.Observer
	newID     func() string
}

// Option configures an Org.
type Option func(*options)

// WithRelations sets the relationship alias overrides.
func WithRelations(m virtual.RelationsMap) Option {
	return func(o *options) { o.relations = m }
}

// WithClock sets the time source for system timestamps and bulk dates. It
// also drives date tokens unless WithToday is given.
func WithClock(c virtual.Clock) Option {
	return func(o *options) { o.clock = c }
}

// WithToday sets the current date source for TODAY, THIS_MONTH and the
// other date tokens.
func WithToday(fn func() time.Time) Option {
	return func(o *options) { o.today = fn }
}

// WithLogger sets the logger. Store activity is logged at debug level.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) { o.logger = l }
}

// WithObserver adds an observer for store activity.
func WithObserver(obs virtual.Observer) Option {
	return func(o *options) { o.observer = obs }
}

// WithIDGenerator replaces the record ID generator.
func WithIDGenerator(fn func() string) Option {
	return func(o *options) { o.newID = fn }
}

// New creates an empty Org.
func New(opts ...Option) *Org {
	o := options{clock: time.Now}
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		o.logger = logging.Nop()
	}
	if o.today == nil {
		o.today = o.clock
	}

	observers := virtual.MultiObserver{virtual.NewLogObserver(logging.Component(o.logger, "store"))}
	if o.observer != nil {
		observers = append(observers, o.observer)
	}

	store := virtual.NewStore(
		virtual.WithClock(o.clock),
		virtual.WithIDGenerator(o.newID),
		virtual.WithObserver(observers),
	)
	resolver := virtual.NewResolver(o.relations, logging.Component(o.logger, "relations"))
	conditions := where.NewEvaluator(where.WithToday(o.today))

	return &Org{
		store:    store,
		resolver: resolver,
		query:    virtual.NewQueryEvaluator(resolver, conditions, observers),
		bulk: bulk.NewCoordinator(store,
			bulk.WithResolver(resolver),
			bulk.WithClock(o.clock),
			bulk.WithLogger(logging.Component(o.logger, "bulk")),
		),
		log: o.logger,
	}
}

// FromConfig creates an Org with the relations file and seed data named by
// cfg. A nil cfg behaves like config.DefaultConfig.
func FromConfig(cfg *config.Config, opts ...Option) (*Org, error) {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	relations, err := cfg.LoadRelations()
	if err != nil {
		return nil, fmt.Errorf("loading relations: %w", err)
	}
	seeds, err := cfg.LoadSeeds()
	if err != nil {
		return nil, fmt.Errorf("loading seed data: %w", err)
	}

	o := New(append([]Option{WithRelations(relations)}, opts...)...)
	if err := o.Seed(seeds...); err != nil {
		return nil, err
	}
	return o, nil
}

var (
	defaultOnce sync.Once
	defaultOrg  *Org
)

// Default returns a process-wide Org, created on first use.
func Default() *Org {
	defaultOnce.Do(func() {
		defaultOrg = New()
	})
	return defaultOrg
}

// Store returns the underlying record store.
func (o *Org) Store() *virtual.Store { return o.store }

// Bulk returns the bulk job coordinator.
func (o *Org) Bulk() *bulk.Coordinator { return o.bulk }

// Resolver returns the relationship resolver.
func (o *Org) Resolver() *virtual.Resolver { return o.resolver }

// Create normalizes nested links in fields and creates a record, in one
// write transaction.
func (o *Org) Create(sobjectName string, fields *sobject.Record) (string, error) {
	var recordID string
	err := o.store.Write(func(tx *virtual.Tx) error {
		normalized, err := o.resolver.NormalizeIncomingRelations(tx, fields)
		if err != nil {
			return err
		}
		recordID, err = tx.Create(sobjectName, normalized)
		return err
	})
	return recordID, err
}

// Update normalizes nested links in fields and merges them into a record.
func (o *Org) Update(sobjectName, recordID string, fields *sobject.Record) error {
	return o.store.Write(func(tx *virtual.Tx) error {
		normalized, err := o.resolver.NormalizeIncomingRelations(tx, fields)
		if err != nil {
			return err
		}
		return tx.Update(sobjectName, recordID, normalized)
	})
}

// Upsert normalizes nested links in fields, then updates the record whose
// field matches value or creates one.
func (o *Org) Upsert(sobjectName, field, value string, fields *sobject.Record) (string, bool, error) {
	var (
		recordID string
		created  bool
	)
	err := o.store.Write(func(tx *virtual.Tx) error {
		normalized, err := o.resolver.NormalizeIncomingRelations(tx, fields)
		if err != nil {
			return err
		}
		recordID, created, err = tx.Upsert(sobjectName, field, value, normalized)
		return err
	})
	return recordID, created, err
}

// Get returns a live record.
func (o *Org) Get(sobjectName, recordID string) (*sobject.Record, error) {
	return o.store.Get(sobjectName, recordID)
}

// GetByExternalID returns the first live record whose field matches value.
func (o *Org) GetByExternalID(sobjectName, field, value string) (*sobject.Record, error) {
	return o.store.GetByExternalID(sobjectName, field, value)
}

// Delete soft-deletes a record.
func (o *Org) Delete(sobjectName, recordID string) error {
	return o.store.Delete(sobjectName, recordID)
}

// List returns the records of a type in insertion order.
func (o *Org) List(sobjectName string, includeDeleted bool) []*sobject.Record {
	return o.store.List(sobjectName, includeDeleted)
}

// Query runs q under one read transaction.
func (o *Org) Query(q virtual.Query) (*virtual.Result, error) {
	var result *virtual.Result
	err := o.store.View(func(v *virtual.View) error {
		var err error
		result, err = o.query.Run(v, q)
		return err
	})
	return result, err
}

// QueryDescriptor decodes a JSON query descriptor and runs it.
func (o *Org) QueryDescriptor(data []byte) (*virtual.Result, error) {
	q, err := virtual.ParseDescriptor(data)
	if err != nil {
		return nil, err
	}
	return o.Query(q)
}

// Seed inserts seed records in order. Nested links may point at records
// inserted earlier, including earlier in the same set.
func (o *Org) Seed(sets ...sobject.SeedSet) error {
	for _, set := range sets {
		for i, rec := range set.Records {
			if _, err := o.Create(set.SObject, rec); err != nil {
				return fmt.Errorf("seeding %s record %d: %w", set.SObject, i, err)
			}
		}
		o.log.Debug("seeded records", "sobject", set.SObject, "count", len(set.Records))
	}
	return nil
}

// Reset clears every record, job and batch.
func (o *Org) Reset() {
	o.store.Reset()
	o.bulk.Reset()
}
