// Package id provides unique identifier generation utilities.
//
// Every ID handed out by the virtual org is an 18-character lowercase
// alphanumeric token drawn from crypto/rand:
//
//   - Record: opaque record IDs
//   - Job / Batch: bulk IDs carrying the Bulk API key prefixes (750, 751)
//   - Alphanumeric: configurable-length random tokens
//
// IDs are lowercase so that the lowercased ID reported in bulk results is
// always usable as a lookup key.
package id
