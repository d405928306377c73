package where

import (
	"fmt"
	"net/http"
)

// MalformedQueryError is returned for an unsupported operator or a
// where-tree whose shape cannot be evaluated. It affects only the call that
// produced it.
type MalformedQueryError struct {
	Reason string
	Token  string
}

func (e *MalformedQueryError) Error() string {
	if e.Token != "" {
		return fmt.Sprintf("malformed query: %s: %q", e.Reason, e.Token)
	}
	return "malformed query: " + e.Reason
}

// StatusCode returns the HTTP status code for this error.
func (e *MalformedQueryError) StatusCode() int {
	return http.StatusBadRequest
}

// ErrorCode returns the Salesforce error code for this error.
func (e *MalformedQueryError) ErrorCode() string {
	return "MALFORMED_QUERY"
}

// Hint returns a user-friendly suggestion for resolving this error.
func (e *MalformedQueryError) Hint() string {
	return "Supported operators are =, !=, <, <=, >, >= and IN; conditions must be joined by AND or OR."
}

func malformed(reason, token string) error {
	return &MalformedQueryError{Reason: reason, Token: token}
}
