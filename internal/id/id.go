// Package id provides unique identifier generation utilities.
// This is the canonical source for ID generation across the codebase.
package id

import (
	"crypto/rand"
	"strings"
)

// Length is the length of every generated record, job and batch ID.
// It matches the 18-character form of Salesforce IDs.
const Length = 18

// Key prefixes used by the Bulk API for job and batch IDs.
const (
	JobPrefix   = "750"
	BatchPrefix = "751"
)

// lowerCharset is used for all generated IDs so that a lowercased ID is
// identical to the original.
const lowerCharset = "abcdefghijklmnopqrstuvwxyz0123456789"

// Record generates an opaque record ID of Length characters.
func Record() string {
	return Alphanumeric(Length)
}

// WithPrefix generates an ID of Length characters starting with prefix.
// A prefix longer than Length is truncated.
func WithPrefix(prefix string) string {
	if len(prefix) >= Length {
		return prefix[:Length]
	}
	return prefix + Alphanumeric(Length-len(prefix))
}

// Job generates a bulk job ID.
func Job() string {
	return WithPrefix(JobPrefix)
}

// Batch generates a bulk batch ID.
func Batch() string {
	return WithPrefix(BatchPrefix)
}

// Alphanumeric generates a random lowercase alphanumeric string of the specified length.
func Alphanumeric(length int) string {
	if length <= 0 {
		return ""
	}
	b := make([]byte, length)
	randBytes := make([]byte, length)
	_, _ = rand.Read(randBytes)
	for i := range b {
		b[i] = lowerCharset[int(randBytes[i])%len(lowerCharset)]
	}
	return string(b)
}

// IsValid reports whether s has the shape of a generated ID.
// Comparison is case-insensitive.
func IsValid(s string) bool {
	if len(s) != Length {
		return false
	}
	for _, c := range strings.ToLower(s) {
		if !strings.ContainsRune(lowerCharset, c) {
			return false
		}
	}
	return true
}
