// Package bulk implements the Bulk API job and batch lifecycle on top of a
// virtual store.
//
// A Job fixes the target sObject type and the operation (insert, update or
// upsert). Batches attach raw record payloads to a job and are not
// processed at submission time; ComputeBatchResult replays a batch inside a
// single store write and reports one ResultEntry per payload:
//
//	job, _ := coord.CreateJob("Contact", bulk.OpUpsert, "Ext__c")
//	batch, _ := coord.CreateBatch(job.ID, records)
//	results, _ := coord.ComputeBatchResult(job.ID, batch.ID)
//
// Per-record problems, including a repeated external ID within one upsert
// batch, are reported as failed entries and never stop the batch.
package bulk
