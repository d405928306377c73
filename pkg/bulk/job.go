package bulk

import (
	"strings"

	"github.com/getmockd/mockforce/pkg/sobject"
)

// Operation is the DML operation a job applies to each record.
type Operation string

// Supported operations.
const (
	OpInsert Operation = "insert"
	OpUpdate Operation = "update"
	OpUpsert Operation = "upsert"
)

// ParseOperation accepts an operation name in any case.
func ParseOperation(s string) (Operation, error) {
	switch op := Operation(strings.ToLower(strings.TrimSpace(s))); op {
	case OpInsert, OpUpdate, OpUpsert:
		return op, nil
	}
	return "", &InvalidJobError{Field: "operation", Message: "unsupported operation " + s}
}

// Content types a job may declare. Records are always handed over decoded,
// so the value is informational.
const (
	ContentTypeJSON = "JSON"
	ContentTypeXML  = "XML"
)

// Job and batch states reported to clients. Batches are processed when
// their result is requested, so they are Completed from the start.
const (
	JobStateOpen        = "Open"
	BatchStateCompleted = "Completed"
)

// Job groups batches that share a target type and operation. A Job never
// changes after creation.
type Job struct {
	ID              string    `json:"id"`
	Object          string    `json:"object"`
	Operation       Operation `json:"operation"`
	ExternalIDField string    `json:"externalIdFieldName,omitempty"`
	ContentType     string    `json:"contentType"`
	State           string    `json:"state"`
	CreatedDate     string    `json:"createdDate"`
}

// Batch is an unprocessed list of record payloads tied to a Job.
type Batch struct {
	ID          string            `json:"id"`
	JobID       string            `json:"jobId"`
	State       string            `json:"state"`
	CreatedDate string            `json:"createdDate"`
	Records     []*sobject.Record `json:"-"`
}

// NumberRecords returns the number of payloads in the batch.
func (b *Batch) NumberRecords() int {
	return len(b.Records)
}

func (b *Batch) clone() *Batch {
	out := *b
	out.Records = make([]*sobject.Record, len(b.Records))
	for i, rec := range b.Records {
		out.Records[i] = rec.Clone()
	}
	return &out
}

// Result error codes.
const (
	CodeDuplicateExternalID = "DUPLICATE_EXTERNAL_ID"
	CodeInvalidField        = "INVALID_FIELD"
	CodeNotFound            = "NOT_FOUND"
	CodeMissingArgument     = "MISSING_ARGUMENT"
)

// ResultError describes why one record of a batch failed.
type ResultError struct {
	StatusCode string   `json:"statusCode"`
	Message    string   `json:"message"`
	Fields     []string `json:"fields"`
}

// ResultEntry is the outcome for one record of a batch, in input order.
type ResultEntry struct {
	Success bool          `json:"success"`
	Created bool          `json:"created"`
	ID      string        `json:"id"`
	Errors  []ResultError `json:"errors"`
}

func succeeded(recordID string, created bool) ResultEntry {
	return ResultEntry{
		Success: true,
		Created: created,
		ID:      strings.ToLower(recordID),
		Errors:  []ResultError{},
	}
}

func failed(code, message string, fields ...string) ResultEntry {
	if fields == nil {
		fields = []string{}
	}
	return ResultEntry{
		Errors: []ResultError{{StatusCode: code, Message: message, Fields: fields}},
	}
}
