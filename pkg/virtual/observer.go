package virtual

import (
	"log/slog"
	"sync/atomic"
	"time"
)

// Event describes one completed store mutation. All mutations made inside
// the same Write call share a Transaction key.
type Event struct {
	Transaction string
	SObject     string
	RecordID    string
	Duration    time.Duration
}

// Observer defines hooks for observability and metrics collection.
// Hooks run while the store lock is held and must not call back into the
// store.
type Observer interface {
	// OnCreate is called after a record is created.
	OnCreate(ev Event)

	// OnUpdate is called after a record is updated.
	OnUpdate(ev Event)

	// OnDelete is called after a record is soft-deleted.
	OnDelete(ev Event)

	// OnQuery is called after a query completes.
	OnQuery(sobject string, count int, duration time.Duration)

	// OnError is called when an operation fails.
	OnError(sobject string, operation string, err error)

	// OnReset is called after the store is cleared.
	OnReset(duration time.Duration)
}

// NoopObserver is a no-op implementation of Observer.
type NoopObserver struct{}

func (NoopObserver) OnCreate(ev Event)                                         {}
func (NoopObserver) OnUpdate(ev Event)                                         {}
func (NoopObserver) OnDelete(ev Event)                                         {}
func (NoopObserver) OnQuery(sobject string, count int, duration time.Duration) {}
func (NoopObserver) OnError(sobject string, operation string, err error)       {}
func (NoopObserver) OnReset(duration time.Duration)                            {}

// MetricsObserver collects operation counters. All counters use atomic
// operations so a snapshot can be taken concurrently.
type MetricsObserver struct {
	createCount    atomic.Int64
	updateCount    atomic.Int64
	deleteCount    atomic.Int64
	queryCount     atomic.Int64
	errorCount     atomic.Int64
	resetCount     atomic.Int64
	totalLatencyNs atomic.Int64
}

// NewMetricsObserver creates a new metrics observer.
func NewMetricsObserver() *MetricsObserver {
	return &MetricsObserver{}
}

func (m *MetricsObserver) OnCreate(ev Event) {
	m.createCount.Add(1)
	m.totalLatencyNs.Add(int64(ev.Duration))
}

func (m *MetricsObserver) OnUpdate(ev Event) {
	m.updateCount.Add(1)
	m.totalLatencyNs.Add(int64(ev.Duration))
}

func (m *MetricsObserver) OnDelete(ev Event) {
	m.deleteCount.Add(1)
	m.totalLatencyNs.Add(int64(ev.Duration))
}

func (m *MetricsObserver) OnQuery(sobject string, count int, duration time.Duration) {
	m.queryCount.Add(1)
	m.totalLatencyNs.Add(int64(duration))
}

func (m *MetricsObserver) OnError(sobject string, operation string, err error) {
	m.errorCount.Add(1)
}

func (m *MetricsObserver) OnReset(duration time.Duration) {
	m.resetCount.Add(1)
	m.totalLatencyNs.Add(int64(duration))
}

// Snapshot returns a copy of the current counters.
func (m *MetricsObserver) Snapshot() MetricsSnapshot {
	return MetricsSnapshot{
		CreateCount:  m.createCount.Load(),
		UpdateCount:  m.updateCount.Load(),
		DeleteCount:  m.deleteCount.Load(),
		QueryCount:   m.queryCount.Load(),
		ErrorCount:   m.errorCount.Load(),
		ResetCount:   m.resetCount.Load(),
		TotalLatency: time.Duration(m.totalLatencyNs.Load()),
	}
}

// MetricsSnapshot is a point-in-time snapshot of metrics.
type MetricsSnapshot struct {
	CreateCount  int64         `json:"createCount"`
	UpdateCount  int64         `json:"updateCount"`
	DeleteCount  int64         `json:"deleteCount"`
	QueryCount   int64         `json:"queryCount"`
	ErrorCount   int64         `json:"errorCount"`
	ResetCount   int64         `json:"resetCount"`
	TotalLatency time.Duration `json:"totalLatencyNs"`
}

// TotalOperations returns the total number of successful operations.
func (s MetricsSnapshot) TotalOperations() int64 {
	return s.CreateCount + s.UpdateCount + s.DeleteCount + s.QueryCount
}

// LogObserver writes store activity to a structured logger.
type LogObserver struct {
	log *slog.Logger
}

// NewLogObserver creates an observer logging to logger.
func NewLogObserver(logger *slog.Logger) *LogObserver {
	return &LogObserver{log: logger}
}

func (o *LogObserver) OnCreate(ev Event) { o.event("record created", ev) }
func (o *LogObserver) OnUpdate(ev Event) { o.event("record updated", ev) }
func (o *LogObserver) OnDelete(ev Event) { o.event("record deleted", ev) }

func (o *LogObserver) OnQuery(sobject string, count int, duration time.Duration) {
	o.log.Debug("query evaluated", "sobject", sobject, "count", count, "duration", duration)
}

func (o *LogObserver) OnError(sobject string, operation string, err error) {
	o.log.Warn("operation failed", "sobject", sobject, "op", operation, "error", err)
}

func (o *LogObserver) OnReset(duration time.Duration) {
	o.log.Info("store reset", "duration", duration)
}

func (o *LogObserver) event(msg string, ev Event) {
	o.log.Debug(msg, "sobject", ev.SObject, "id", ev.RecordID, "txn", ev.Transaction, "duration", ev.Duration)
}

// MultiObserver fans out to several observers in order.
type MultiObserver []Observer

func (m MultiObserver) OnCreate(ev Event) {
	for _, o := range m {
		o.OnCreate(ev)
	}
}

func (m MultiObserver) OnUpdate(ev Event) {
	for _, o := range m {
		o.OnUpdate(ev)
	}
}

func (m MultiObserver) OnDelete(ev Event) {
	for _, o := range m {
		o.OnDelete(ev)
	}
}

func (m MultiObserver) OnQuery(sobject string, count int, duration time.Duration) {
	for _, o := range m {
		o.OnQuery(sobject, count, duration)
	}
}

func (m MultiObserver) OnError(sobject string, operation string, err error) {
	for _, o := range m {
		o.OnError(sobject, operation, err)
	}
}

func (m MultiObserver) OnReset(duration time.Duration) {
	for _, o := range m {
		o.OnReset(duration)
	}
}
