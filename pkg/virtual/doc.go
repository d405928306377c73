// Package virtual implements the in-memory record store of the virtual org
// and the query pipeline that runs against it.
//
// Core Types:
//
//   - Store: per-type, insertion-ordered collections with CRUD, upsert by
//     external ID, soft delete and system-field stamping
//   - View / Tx: read and read-write views held under the store lock
//   - Resolver: relationship alias resolution without a schema, for parent
//     field projection and link-by-external-ID payloads
//   - QueryEvaluator: filter, stable multi-key sort, offset/limit, project
//
// Thread Safety:
//
// Every mutation is serialized behind the store's sync.RWMutex. Reads share
// the read lock. Work that must be atomic across several calls runs inside
// Store.Write, which hands out a Tx.
//
// Usage:
//
//	store := virtual.NewStore()
//	id, _ := store.Create("Account", sobject.RecordOf("Name", "Acme"))
//	rec, err := store.Get("Account", id)
//	_, created, _ := store.Upsert("Contact", "Ext__c", "1", sobject.RecordOf("LastName", "Doe"))
//	_ = store.Delete("Account", id)
//	store.Reset()
package virtual
