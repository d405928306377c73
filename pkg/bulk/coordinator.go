package bulk

import (
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/getmockd/mockforce/internal/id"
	"github.com/getmockd/mockforce/pkg/logging"
	"github.com/getmockd/mockforce/pkg/sobject"
	"github.com/getmockd/mockforce/pkg/virtual"
)

// Coordinator owns bulk jobs and batches and replays batches against a
// store when their result is requested.
type Coordinator struct {
	mu      sync.RWMutex
	jobs    map[string]*Job
	batches map[string]*Batch
	// batchOrder keeps each job's batch IDs in creation order.
	batchOrder map[string][]string

	store    *virtual.Store
	resolver *virtual.Resolver
	clock    virtual.Clock
	log      *slog.Logger

	newJobID   func() string
	newBatchID func() string
}

// Option configures a Coordinator.
type Option func(*Coordinator)

// WithResolver sets the resolver used to normalize nested links.
func WithResolver(r *virtual.Resolver) Option {
	return func(c *Coordinator) {
		if r != nil {
			c.resolver = r
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(c *Coordinator) {
		if l != nil {
			c.log = l
		}
	}
}

// WithClock replaces the time source for job and batch creation dates.
func WithClock(clock virtual.Clock) Option {
	return func(c *Coordinator) {
		if clock != nil {
			c.clock = clock
		}
	}
}

// WithIDGenerators replaces the job and batch ID generators.
func WithIDGenerators(job, batch func() string) Option {
	return func(c *Coordinator) {
		if job != nil {
			c.newJobID = job
		}
		if batch != nil {
			c.newBatchID = batch
		}
	}
}

// NewCoordinator creates a Coordinator writing to store.
func NewCoordinator(store *virtual.Store, opts ...Option) *Coordinator {
	c := &Coordinator{
		jobs:       make(map[string]*Job),
		batches:    make(map[string]*Batch),
		batchOrder: make(map[string][]string),
		store:      store,
		clock:      time.Now,
		log:        logging.Nop(),
		newJobID:   id.Job,
		newBatchID: id.Batch,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.resolver == nil {
		c.resolver = virtual.NewResolver(nil, c.log)
	}
	return c
}

// CreateJob registers a job. Upsert jobs must name an external ID field.
func (c *Coordinator) CreateJob(object string, op Operation, externalIDField string) (*Job, error) {
	return c.createJob(object, op, externalIDField, ContentTypeJSON)
}

func (c *Coordinator) createJob(object string, op Operation, externalIDField, contentType string) (*Job, error) {
	object = strings.TrimSpace(object)
	if object == "" {
		return nil, &InvalidJobError{Field: "object", Message: "target sObject type is required"}
	}
	op, err := ParseOperation(string(op))
	if err != nil {
		return nil, err
	}
	externalIDField = strings.TrimSpace(externalIDField)
	switch {
	case op == OpUpsert && externalIDField == "":
		return nil, &InvalidJobError{Field: "externalIdFieldName", Message: "upsert requires an external ID field"}
	case op == OpUpsert && sobject.IsSystemField(externalIDField):
		return nil, &InvalidJobError{Field: "externalIdFieldName", Message: externalIDField + " cannot be used as an external ID"}
	case op != OpUpsert:
		externalIDField = ""
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	job := &Job{
		ID:              c.newJobID(),
		Object:          object,
		Operation:       op,
		ExternalIDField: externalIDField,
		ContentType:     contentType,
		State:           JobStateOpen,
		CreatedDate:     sobject.FormatDateTime(c.clock()),
	}
	c.jobs[idKey(job.ID)] = job
	c.log.Debug("bulk job created", "job", job.ID, "object", object, "op", op)

	out := *job
	return &out, nil
}

// CreateBatch stores records unprocessed under a job.
func (c *Coordinator) CreateBatch(jobID string, records []*sobject.Record) (*Batch, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	job, ok := c.jobs[idKey(jobID)]
	if !ok {
		return nil, &NotFoundError{JobID: jobID}
	}

	batch := &Batch{
		ID:          c.newBatchID(),
		JobID:       job.ID,
		State:       BatchStateCompleted,
		CreatedDate: sobject.FormatDateTime(c.clock()),
		Records:     make([]*sobject.Record, len(records)),
	}
	for i, rec := range records {
		if rec == nil {
			rec = sobject.NewRecord()
		}
		batch.Records[i] = rec.Clone()
	}
	c.batches[idKey(batch.ID)] = batch
	c.batchOrder[idKey(job.ID)] = append(c.batchOrder[idKey(job.ID)], batch.ID)
	c.log.Debug("bulk batch created", "job", job.ID, "batch", batch.ID, "records", len(records))

	return batch.clone(), nil
}

// Job returns a copy of a job.
func (c *Coordinator) Job(jobID string) (*Job, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	job, ok := c.jobs[idKey(jobID)]
	if !ok {
		return nil, &NotFoundError{JobID: jobID}
	}
	out := *job
	return &out, nil
}

// Batch returns a copy of a batch of a job.
func (c *Coordinator) Batch(jobID, batchID string) (*Batch, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	_, batch, err := c.lookup(jobID, batchID)
	if err != nil {
		return nil, err
	}
	return batch.clone(), nil
}

// Batches returns copies of a job's batches in creation order.
func (c *Coordinator) Batches(jobID string) ([]*Batch, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if _, ok := c.jobs[idKey(jobID)]; !ok {
		return nil, &NotFoundError{JobID: jobID}
	}
	ids := c.batchOrder[idKey(jobID)]
	out := make([]*Batch, 0, len(ids))
	for _, batchID := range ids {
		out = append(out, c.batches[idKey(batchID)].clone())
	}
	return out, nil
}

// Reset drops every job and batch.
func (c *Coordinator) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.jobs = make(map[string]*Job)
	c.batches = make(map[string]*Batch)
	c.batchOrder = make(map[string][]string)
}

func (c *Coordinator) lookup(jobID, batchID string) (*Job, *Batch, error) {
	job, ok := c.jobs[idKey(jobID)]
	if !ok {
		return nil, nil, &NotFoundError{JobID: jobID}
	}
	batch, ok := c.batches[idKey(batchID)]
	if !ok || batch.JobID != job.ID {
		return nil, nil, &NotFoundError{JobID: jobID, BatchID: batchID}
	}
	return job, batch, nil
}

// ComputeBatchResult replays a batch against the store in input order and
// returns one entry per record. Every call replays the batch again.
//
// In an upsert batch, a record resolving to an Id already produced earlier
// in the same batch is reported as a duplicate and not persisted. Per-record
// failures never stop the rest of the batch.
func (c *Coordinator) ComputeBatchResult(jobID, batchID string) ([]ResultEntry, error) {
	c.mu.RLock()
	job, batch, err := c.lookup(jobID, batchID)
	if err == nil {
		jobCopy := *job
		job = &jobCopy
		batch = batch.clone()
	}
	c.mu.RUnlock()
	if err != nil {
		return nil, err
	}

	results := make([]ResultEntry, len(batch.Records))
	failures := 0
	err = c.store.Write(func(tx *virtual.Tx) error {
		seen := make(map[string]struct{})
		for i, payload := range batch.Records {
			results[i] = c.apply(tx, job, payload, seen)
			if !results[i].Success {
				failures++
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	c.log.Debug("bulk batch processed",
		"job", job.ID,
		"batch", batch.ID,
		"op", job.Operation,
		"records", len(results),
		"failures", failures,
	)
	return results, nil
}

func (c *Coordinator) apply(tx *virtual.Tx, job *Job, payload *sobject.Record, seen map[string]struct{}) ResultEntry {
	switch job.Operation {
	case OpInsert:
		fields, err := c.resolver.NormalizeIncomingRelations(tx, payload)
		if err != nil {
			return failedWith(err)
		}
		recordID, err := tx.Create(job.Object, fields)
		if err != nil {
			return failedWith(err)
		}
		return succeeded(recordID, true)

	case OpUpdate:
		recordID, ok := stringField(payload, sobject.FieldID)
		if !ok {
			return failed(CodeMissingArgument, "Id not specified in an update call", sobject.FieldID)
		}
		fields, err := c.resolver.NormalizeIncomingRelations(tx, payload)
		if err != nil {
			return failedWith(err)
		}
		if err := tx.Update(job.Object, recordID, fields); err != nil {
			return failedWith(err)
		}
		return succeeded(recordID, false)

	case OpUpsert:
		value, ok := stringField(payload, job.ExternalIDField)
		if !ok {
			return failed(CodeMissingArgument, job.ExternalIDField+" not specified", job.ExternalIDField)
		}
		if existing, err := tx.GetByExternalID(job.Object, job.ExternalIDField, value); err == nil {
			if _, dup := seen[idKey(existing.ID())]; dup {
				return failed(CodeDuplicateExternalID,
					"Duplicate external id specified: "+value, job.ExternalIDField)
			}
		}
		fields, err := c.resolver.NormalizeIncomingRelations(tx, payload)
		if err != nil {
			return failedWith(err)
		}
		recordID, created, err := tx.Upsert(job.Object, job.ExternalIDField, value, fields)
		if err != nil {
			return failedWith(err)
		}
		seen[idKey(recordID)] = struct{}{}
		return succeeded(recordID, created)
	}
	return failed(CodeInvalidField, "unsupported operation "+string(job.Operation))
}

// failedWith converts a store or resolver error into a result entry.
func failedWith(err error) ResultEntry {
	resp := virtual.ToErrorResponse(err)
	return failed(resp.ErrorCode, resp.Message, resp.Fields...)
}

// stringField returns a non-empty scalar field rendered as a string.
func stringField(rec *sobject.Record, name string) (string, bool) {
	v, ok := rec.Get(name)
	if !ok {
		return "", false
	}
	switch v.Kind() {
	case sobject.KindString, sobject.KindNumber, sobject.KindBool:
	default:
		return "", false
	}
	s := strings.TrimSpace(v.String())
	return s, s != ""
}

func idKey(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
