package bulk

import (
	"errors"
	"testing"

	"github.com/beevik/etree"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/getmockd/mockforce/pkg/sobject"
)

func parseXML(t *testing.T, data []byte) *etree.Element {
	t.Helper()
	doc := etree.NewDocument()
	require.NoError(t, doc.ReadFromBytes(data))
	root := doc.Root()
	require.NotNil(t, root)
	return root
}

func TestDecodeJobRequest(t *testing.T) {
	req, err := DecodeJobRequest([]byte(`<?xml version="1.0" encoding="UTF-8"?>
<jobInfo xmlns="http://www.force.com/2009/06/asyncapi/dataload">
  <operation>upsert</operation>
  <object>Contact</object>
  <externalIdFieldName> Ext__c </externalIdFieldName>
  <contentType>JSON</contentType>
</jobInfo>`))
	require.NoError(t, err)
	assert.Equal(t, JobRequest{
		Operation:       "upsert",
		Object:          "Contact",
		ExternalIDField: "Ext__c",
		ContentType:     "JSON",
	}, req)
}

func TestDecodeJobRequest_Prefixed(t *testing.T) {
	req, err := DecodeJobRequest([]byte(`<ns:jobInfo xmlns:ns="http://www.force.com/2009/06/asyncapi/dataload"><ns:operation>insert</ns:operation><ns:object>Account</ns:object></ns:jobInfo>`))
	require.NoError(t, err)
	assert.Equal(t, "insert", req.Operation)
	assert.Equal(t, "Account", req.Object)
}

func TestDecodeJobRequest_Errors(t *testing.T) {
	_, err := DecodeJobRequest([]byte(`<batchInfo/>`))
	var invalid *InvalidJobError
	assert.True(t, errors.As(err, &invalid))

	_, err = DecodeJobRequest([]byte(`<jobInfo operation=>`))
	assert.Error(t, err)
}

func TestSubmit(t *testing.T) {
	c, _ := newTestCoordinator()
	job, err := c.Submit(JobRequest{Operation: "Upsert", Object: "Contact", ExternalIDField: "Ext__c", ContentType: "xml"})
	require.NoError(t, err)
	assert.Equal(t, OpUpsert, job.Operation)
	assert.Equal(t, ContentTypeXML, job.ContentType)

	_, err = c.Submit(JobRequest{Operation: "hardDelete", Object: "Contact"})
	var invalid *InvalidJobError
	assert.True(t, errors.As(err, &invalid))
}

func TestEncodeJobInfo(t *testing.T) {
	c, _ := newTestCoordinator()
	job, err := c.CreateJob("Contact", OpUpsert, "Ext__c")
	require.NoError(t, err)

	data, err := EncodeJobInfo(job)
	require.NoError(t, err)

	root := parseXML(t, data)
	assert.Equal(t, "jobInfo", root.Tag)
	assert.Equal(t, Namespace, root.SelectAttrValue("xmlns", ""))
	assert.Equal(t, job.ID, childText(root, "id"))
	assert.Equal(t, "upsert", childText(root, "operation"))
	assert.Equal(t, "Contact", childText(root, "object"))
	assert.Equal(t, "Ext__c", childText(root, "externalIdFieldName"))
	assert.Equal(t, JobStateOpen, childText(root, "state"))
	assert.Equal(t, ContentTypeJSON, childText(root, "contentType"))

	req, err := DecodeJobRequest(data)
	require.NoError(t, err)
	assert.Equal(t, "Ext__c", req.ExternalIDField)
}

func TestEncodeBatchInfo(t *testing.T) {
	c, _ := newTestCoordinator()
	job, _ := c.CreateJob("Contact", OpInsert, "")
	batch, err := c.CreateBatch(job.ID, []*sobject.Record{
		sobject.RecordOf("LastName", "a"),
		sobject.RecordOf("LastName", "b"),
	})
	require.NoError(t, err)

	data, err := EncodeBatchInfo(batch)
	require.NoError(t, err)

	root := parseXML(t, data)
	assert.Equal(t, "batchInfo", root.Tag)
	assert.Equal(t, batch.ID, childText(root, "id"))
	assert.Equal(t, job.ID, childText(root, "jobId"))
	assert.Equal(t, BatchStateCompleted, childText(root, "state"))
	assert.Equal(t, "2", childText(root, "numberRecordsProcessed"))
}

func TestEncodeError(t *testing.T) {
	data, err := EncodeError(&NotFoundError{JobID: "750x"})
	require.NoError(t, err)

	root := parseXML(t, data)
	assert.Equal(t, "error", root.Tag)
	assert.Equal(t, "InvalidJob", childText(root, "exceptionCode"))
	assert.Contains(t, childText(root, "exceptionMessage"), "750x")
}
