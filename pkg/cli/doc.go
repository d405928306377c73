// Package cli provides the command-line interface for mockforce.
//
// Every command builds a fresh in-memory org from the config file and its
// seed data, runs, and exits:
//   - query: Run a query descriptor and print {totalSize, done, records}
//   - list: Print the records of one sObject type
//   - bulk: Run one bulk batch (insert, update or upsert) and print results
//   - validate: Check the config, relations and seed files
//   - version: Show mockforce version
//
// Usage:
//
//	mockforce query descriptor.json
//	mockforce list Account --json
//	mockforce bulk Contact upsert contacts.json --external-id Email__c
//	mockforce validate --config ./testdata/mockforce.yaml
package cli
