package virtual

import (
	"errors"
	"fmt"
	"net/http"
)

// NotFoundError is returned for an unknown type, an unknown or deleted
// record ID, or an unmatched external ID lookup.
type NotFoundError struct {
	SObject string
	ID      string
	// Field and Value are set for external ID lookups.
	Field string
	Value string
}

func (e *NotFoundError) Error() string {
	switch {
	case e.Field != "":
		return fmt.Sprintf("%s with %s %q not found", e.SObject, e.Field, e.Value)
	case e.ID != "":
		return fmt.Sprintf("%s %q not found", e.SObject, e.ID)
	default:
		return fmt.Sprintf("sObject type %q not found", e.SObject)
	}
}

// StatusCode returns the HTTP status code for this error.
func (e *NotFoundError) StatusCode() int {
	return http.StatusNotFound
}

// ErrorCode returns the Salesforce error code for this error.
func (e *NotFoundError) ErrorCode() string {
	if e.ID == "" && e.Field == "" {
		return "INVALID_TYPE"
	}
	return "NOT_FOUND"
}

// Hint returns a user-friendly suggestion for resolving this error.
func (e *NotFoundError) Hint() string {
	if e.ID == "" && e.Field == "" {
		return fmt.Sprintf("Create a %s record first; types are provisioned on first write.", e.SObject)
	}
	return "Check that the record exists and has not been deleted."
}

// LinkedRecordNotFoundError is returned when a nested relation reference in
// a create or update payload does not match any record.
type LinkedRecordNotFoundError struct {
	Relationship string
	SObject      string
	Field        string
	Value        string
}

func (e *LinkedRecordNotFoundError) Error() string {
	return fmt.Sprintf("foreign key external ID: %s not found for field %s in entity %s", e.Value, e.Field, e.SObject)
}

// StatusCode returns the HTTP status code for this error.
func (e *LinkedRecordNotFoundError) StatusCode() int {
	return http.StatusBadRequest
}

// ErrorCode returns the Salesforce error code for this error.
func (e *LinkedRecordNotFoundError) ErrorCode() string {
	return "INVALID_FIELD"
}

// Hint returns a user-friendly suggestion for resolving this error.
func (e *LinkedRecordNotFoundError) Hint() string {
	return fmt.Sprintf("Create the %s record with %s = %q before linking to it through %s.", e.SObject, e.Field, e.Value, e.Relationship)
}

// ValidationError is returned when input validation fails.
type ValidationError struct {
	Message string
	Field   string
}

func (e *ValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("validation failed for field %q: %s", e.Field, e.Message)
	}
	return e.Message
}

// StatusCode returns the HTTP status code for this error.
func (e *ValidationError) StatusCode() int {
	return http.StatusBadRequest
}

// ErrorCode returns the Salesforce error code for this error.
func (e *ValidationError) ErrorCode() string {
	return "INVALID_FIELD"
}

// StatusCodeError is an interface for errors that have an HTTP status code.
type StatusCodeError interface {
	error
	StatusCode() int
}

// HintError is an interface for errors that provide resolution hints.
type HintError interface {
	error
	Hint() string
}

// CodedError is an interface for errors that carry a Salesforce error code.
type CodedError interface {
	error
	ErrorCode() string
}

// ErrorResponse is the REST error body entry returned to clients.
type ErrorResponse struct {
	Message    string   `json:"message"`
	ErrorCode  string   `json:"errorCode"`
	Fields     []string `json:"fields"`
	StatusCode int      `json:"-"`
	Hint       string   `json:"-"`
}

// ToErrorResponse converts an error to an ErrorResponse.
func ToErrorResponse(err error) *ErrorResponse {
	resp := &ErrorResponse{
		Message:    err.Error(),
		ErrorCode:  "UNKNOWN_EXCEPTION",
		Fields:     []string{},
		StatusCode: http.StatusInternalServerError,
	}

	var coded CodedError
	if errors.As(err, &coded) {
		resp.ErrorCode = coded.ErrorCode()
	}
	var withStatus StatusCodeError
	if errors.As(err, &withStatus) {
		resp.StatusCode = withStatus.StatusCode()
	}
	var withHint HintError
	if errors.As(err, &withHint) {
		resp.Hint = withHint.Hint()
	}

	var linked *LinkedRecordNotFoundError
	var invalid *ValidationError
	switch {
	case errors.As(err, &linked):
		resp.Fields = []string{linked.Relationship}
	case errors.As(err, &invalid) && invalid.Field != "":
		resp.Fields = []string{invalid.Field}
	}
	return resp
}
