package bulk

import (
	"fmt"
	"net/http"
)

// NotFoundError is returned for an unknown job or batch.
type NotFoundError struct {
	JobID   string
	BatchID string
}

func (e *NotFoundError) Error() string {
	if e.BatchID != "" {
		return fmt.Sprintf("batch %q of job %q not found", e.BatchID, e.JobID)
	}
	return fmt.Sprintf("job %q not found", e.JobID)
}

// StatusCode returns the HTTP status code for this error.
func (e *NotFoundError) StatusCode() int {
	return http.StatusNotFound
}

// ErrorCode returns the Bulk API exception code for this error.
func (e *NotFoundError) ErrorCode() string {
	if e.BatchID != "" {
		return "InvalidBatch"
	}
	return "InvalidJob"
}

// Hint returns a user-friendly suggestion for resolving this error.
func (e *NotFoundError) Hint() string {
	if e.BatchID != "" {
		return "Create the batch under this job before requesting its result."
	}
	return "Create the job first; jobs live until the org is reset."
}

// InvalidJobError is returned when a job request is incomplete or
// inconsistent.
type InvalidJobError struct {
	Field   string
	Message string
}

func (e *InvalidJobError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("invalid job: %s: %s", e.Field, e.Message)
	}
	return "invalid job: " + e.Message
}

// StatusCode returns the HTTP status code for this error.
func (e *InvalidJobError) StatusCode() int {
	return http.StatusBadRequest
}

// ErrorCode returns the Bulk API exception code for this error.
func (e *InvalidJobError) ErrorCode() string {
	return "InvalidJob"
}
