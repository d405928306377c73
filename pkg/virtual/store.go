package virtual

import (
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/text/cases"

	"github.com/getmockd/mockforce/internal/id"
	"github.com/getmockd/mockforce/pkg/sobject"
)

// Clock returns the current time. It is swapped out in tests.
type Clock func() time.Time

// maxIDAttempts bounds regeneration when the ID generator collides.
const maxIDAttempts = 32

// Store owns one collection of records per sObject type. Mutations are
// serialized behind a single lock; reads may run concurrently with each
// other but never with a mutation.
type Store struct {
	mu          sync.RWMutex
	clock       Clock
	newID       func() string
	observer    Observer
	collections map[string]*collection
	order       []string
	ids         map[string]struct{}
}

// collection is the insertion-ordered record list of one type.
type collection struct {
	name    string
	records []*sobject.Record
	index   map[string]int
}

// Option configures a Store.
type Option func(*Store)

// WithClock replaces the time source used for system timestamps.
func WithClock(c Clock) Option {
	return func(s *Store) {
		if c != nil {
			s.clock = c
		}
	}
}

// WithIDGenerator replaces the record ID generator.
func WithIDGenerator(fn func() string) Option {
	return func(s *Store) {
		if fn != nil {
			s.newID = fn
		}
	}
}

// WithObserver installs an observer for store activity.
func WithObserver(o Observer) Option {
	return func(s *Store) {
		if o != nil {
			s.observer = o
		}
	}
}

// NewStore creates an empty Store.
func NewStore(opts ...Option) *Store {
	s := &Store{
		clock:       time.Now,
		newID:       id.Record,
		observer:    NoopObserver{},
		collections: make(map[string]*collection),
		ids:         make(map[string]struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// typeKey folds a type name for case-insensitive lookup.
func typeKey(name string) string {
	return cases.Fold().String(strings.TrimSpace(name))
}

// idKey normalizes a record ID for lookup.
func idKey(recordID string) string {
	return strings.ToLower(strings.TrimSpace(recordID))
}

// View is a read-only view of the store, valid only inside View or Write.
type View struct {
	s *Store
}

// Tx is a read-write view of the store, valid only inside Write. Events
// raised through one Tx share a transaction key.
type Tx struct {
	View
	txn string
}

// View runs fn under the read lock.
func (s *Store) View(fn func(v *View) error) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return fn(&View{s: s})
}

// Write runs fn under the write lock. Mutations already applied when fn
// returns an error are kept.
func (s *Store) Write(fn func(tx *Tx) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return fn(&Tx{View: View{s: s}, txn: uuid.NewString()})
}

// Observer returns the installed observer.
func (s *Store) Observer() Observer {
	return s.observer
}

// Reset clears every collection.
func (s *Store) Reset() {
	start := time.Now()
	s.mu.Lock()
	defer s.mu.Unlock()
	s.collections = make(map[string]*collection)
	s.order = nil
	s.ids = make(map[string]struct{})
	s.observer.OnReset(time.Since(start))
}

// Create, Get, GetByExternalID, Update, Upsert, Delete, List, ResolveType
// and Types on Store each run in their own transaction.

// Create adds a record and returns its new ID.
func (s *Store) Create(sobjectName string, fields *sobject.Record) (string, error) {
	var out string
	err := s.Write(func(tx *Tx) error {
		var err error
		out, err = tx.Create(sobjectName, fields)
		return err
	})
	return out, err
}

// Get returns a copy of a live record.
func (s *Store) Get(sobjectName, recordID string) (*sobject.Record, error) {
	var out *sobject.Record
	err := s.View(func(v *View) error {
		var err error
		out, err = v.Get(sobjectName, recordID)
		return err
	})
	return out, err
}

// GetByExternalID returns a copy of the first live record whose field
// matches value.
func (s *Store) GetByExternalID(sobjectName, field, value string) (*sobject.Record, error) {
	var out *sobject.Record
	err := s.View(func(v *View) error {
		var err error
		out, err = v.GetByExternalID(sobjectName, field, value)
		return err
	})
	return out, err
}

// Update shallow-merges fields into a live record.
func (s *Store) Update(sobjectName, recordID string, fields *sobject.Record) error {
	return s.Write(func(tx *Tx) error {
		return tx.Update(sobjectName, recordID, fields)
	})
}

// Upsert updates the record matching the external ID or creates one.
func (s *Store) Upsert(sobjectName, field, value string, fields *sobject.Record) (string, bool, error) {
	var (
		out     string
		created bool
	)
	err := s.Write(func(tx *Tx) error {
		var err error
		out, created, err = tx.Upsert(sobjectName, field, value, fields)
		return err
	})
	return out, created, err
}

// Delete soft-deletes a record.
func (s *Store) Delete(sobjectName, recordID string) error {
	return s.Write(func(tx *Tx) error {
		return tx.Delete(sobjectName, recordID)
	})
}

// List returns copies of the records of a type in insertion order.
func (s *Store) List(sobjectName string, includeDeleted bool) []*sobject.Record {
	var out []*sobject.Record
	_ = s.View(func(v *View) error {
		out = v.List(sobjectName, includeDeleted)
		return nil
	})
	return out
}

// ResolveType returns the provisioned spelling of a type name.
func (s *Store) ResolveType(name string) (string, bool) {
	var (
		out string
		ok  bool
	)
	_ = s.View(func(v *View) error {
		out, ok = v.ResolveType(name)
		return nil
	})
	return out, ok
}

// Types returns the provisioned type names in provisioning order.
func (s *Store) Types() []string {
	var out []string
	_ = s.View(func(v *View) error {
		out = v.Types()
		return nil
	})
	return out
}

// ResolveType returns the provisioned spelling of a type name, matched
// case-insensitively.
func (v *View) ResolveType(name string) (string, bool) {
	c, ok := v.s.collections[typeKey(name)]
	if !ok {
		return "", false
	}
	return c.name, true
}

// Types returns the provisioned type names in provisioning order.
func (v *View) Types() []string {
	out := make([]string, 0, len(v.s.order))
	for _, key := range v.s.order {
		out = append(out, v.s.collections[key].name)
	}
	return out
}

// Count returns the number of records of a type.
func (v *View) Count(sobjectName string, includeDeleted bool) int {
	c, ok := v.s.collections[typeKey(sobjectName)]
	if !ok {
		return 0
	}
	if includeDeleted {
		return len(c.records)
	}
	n := 0
	for _, rec := range c.records {
		if !rec.IsDeleted() {
			n++
		}
	}
	return n
}

// Get returns a copy of a live record. Unknown types, unknown IDs and
// deleted records are all NotFound.
func (v *View) Get(sobjectName, recordID string) (*sobject.Record, error) {
	rec, err := v.lookup(sobjectName, recordID)
	if err != nil {
		return nil, err
	}
	if rec.IsDeleted() {
		return nil, &NotFoundError{SObject: sobjectName, ID: recordID}
	}
	return rec.Clone(), nil
}

// GetByExternalID scans live records in insertion order and returns a copy
// of the first whose field renders as value.
func (v *View) GetByExternalID(sobjectName, field, value string) (*sobject.Record, error) {
	rec := v.findByExternalID(sobjectName, field, value)
	if rec == nil {
		return nil, &NotFoundError{SObject: sobjectName, Field: field, Value: value}
	}
	return rec.Clone(), nil
}

// List returns copies of the records of a type in insertion order. An
// unknown type yields an empty list.
func (v *View) List(sobjectName string, includeDeleted bool) []*sobject.Record {
	c, ok := v.s.collections[typeKey(sobjectName)]
	if !ok {
		return []*sobject.Record{}
	}
	out := make([]*sobject.Record, 0, len(c.records))
	for _, rec := range c.records {
		if rec.IsDeleted() && !includeDeleted {
			continue
		}
		out = append(out, rec.Clone())
	}
	return out
}

func (v *View) lookup(sobjectName, recordID string) (*sobject.Record, error) {
	c, ok := v.s.collections[typeKey(sobjectName)]
	if !ok {
		return nil, &NotFoundError{SObject: sobjectName}
	}
	i, ok := c.index[idKey(recordID)]
	if !ok {
		return nil, &NotFoundError{SObject: c.name, ID: recordID}
	}
	return c.records[i], nil
}

func (v *View) findByExternalID(sobjectName, field, value string) *sobject.Record {
	c, ok := v.s.collections[typeKey(sobjectName)]
	if !ok {
		return nil
	}
	for _, rec := range c.records {
		if rec.IsDeleted() {
			continue
		}
		fv, ok := rec.Get(field)
		if ok && !fv.IsNull() && fv.String() == value {
			return rec
		}
	}
	return nil
}

// Create provisions the type if needed, stamps system fields and appends
// the record. Caller-supplied system fields are ignored.
func (tx *Tx) Create(sobjectName string, fields *sobject.Record) (string, error) {
	start := time.Now()
	if strings.TrimSpace(sobjectName) == "" {
		err := &ValidationError{Message: "sObject type name cannot be empty"}
		tx.s.observer.OnError(sobjectName, "create", err)
		return "", err
	}

	c := tx.provision(sobjectName)
	recordID := tx.allocateID()
	stamp := sobject.String(sobject.FormatDateTime(tx.s.clock()))

	rec := sobject.NewRecord()
	rec.Set(sobject.FieldID, sobject.String(recordID))
	rec.Merge(fields.WithoutSystemFields())
	rec.Set(sobject.FieldIsDeleted, sobject.Bool(false))
	rec.Set(sobject.FieldCreatedDate, stamp)
	rec.Set(sobject.FieldLastModifiedDate, stamp)
	rec.Set(sobject.FieldSystemModstamp, stamp)

	c.index[idKey(recordID)] = len(c.records)
	c.records = append(c.records, rec)

	tx.s.observer.OnCreate(tx.event(c.name, recordID, start))
	return recordID, nil
}

// Update shallow-merges fields into a live record and refreshes
// LastModifiedDate and SystemModstamp.
func (tx *Tx) Update(sobjectName, recordID string, fields *sobject.Record) error {
	start := time.Now()
	rec, err := tx.lookup(sobjectName, recordID)
	if err == nil && rec.IsDeleted() {
		err = &NotFoundError{SObject: sobjectName, ID: recordID}
	}
	if err != nil {
		tx.s.observer.OnError(sobjectName, "update", err)
		return err
	}

	rec.Merge(fields.WithoutSystemFields())
	tx.touch(rec)

	tx.s.observer.OnUpdate(tx.event(sobjectName, rec.ID(), start))
	return nil
}

// Upsert updates the live record whose field matches value, keeping its
// Id, or creates a new record with field forced to value. created reports
// which path was taken.
func (tx *Tx) Upsert(sobjectName, field, value string, fields *sobject.Record) (string, bool, error) {
	if field == "" || sobject.IsSystemField(field) {
		err := &ValidationError{Field: field, Message: "external ID field must be a non-system field"}
		tx.s.observer.OnError(sobjectName, "upsert", err)
		return "", false, err
	}

	payload := fields.Clone()
	if payload == nil {
		payload = sobject.NewRecord()
	}
	payload.Set(field, sobject.String(value))

	if existing := tx.findByExternalID(sobjectName, field, value); existing != nil {
		recordID := existing.ID()
		if err := tx.Update(sobjectName, recordID, payload); err != nil {
			return "", false, err
		}
		return recordID, false, nil
	}

	recordID, err := tx.Create(sobjectName, payload)
	if err != nil {
		return "", false, err
	}
	return recordID, true, nil
}

// Delete marks a record deleted. Deleting an already-deleted record
// succeeds without changing it.
func (tx *Tx) Delete(sobjectName, recordID string) error {
	start := time.Now()
	rec, err := tx.lookup(sobjectName, recordID)
	if err != nil {
		tx.s.observer.OnError(sobjectName, "delete", err)
		return err
	}
	if rec.IsDeleted() {
		return nil
	}

	rec.Set(sobject.FieldIsDeleted, sobject.Bool(true))
	tx.touch(rec)

	tx.s.observer.OnDelete(tx.event(sobjectName, rec.ID(), start))
	return nil
}

// Transaction returns the key shared by this transaction's events.
func (tx *Tx) Transaction() string {
	return tx.txn
}

func (tx *Tx) provision(sobjectName string) *collection {
	key := typeKey(sobjectName)
	if c, ok := tx.s.collections[key]; ok {
		return c
	}
	c := &collection{
		name:  strings.TrimSpace(sobjectName),
		index: make(map[string]int),
	}
	tx.s.collections[key] = c
	tx.s.order = append(tx.s.order, key)
	return c
}

// allocateID returns an ID not yet used by any record in the store.
func (tx *Tx) allocateID() string {
	var candidate string
	for i := 0; i < maxIDAttempts; i++ {
		candidate = tx.s.newID()
		if _, taken := tx.s.ids[idKey(candidate)]; !taken {
			break
		}
		candidate = ""
	}
	if candidate == "" {
		// The generator keeps colliding; fall back to the default one.
		for {
			candidate = id.Record()
			if _, taken := tx.s.ids[idKey(candidate)]; !taken {
				break
			}
		}
	}
	tx.s.ids[idKey(candidate)] = struct{}{}
	return candidate
}

func (tx *Tx) touch(rec *sobject.Record) {
	stamp := sobject.String(sobject.FormatDateTime(tx.s.clock()))
	rec.Set(sobject.FieldLastModifiedDate, stamp)
	rec.Set(sobject.FieldSystemModstamp, stamp)
}

func (tx *Tx) event(sobjectName, recordID string, start time.Time) Event {
	return Event{
		Transaction: tx.txn,
		SObject:     sobjectName,
		RecordID:    recordID,
		Duration:    time.Since(start),
	}
}
