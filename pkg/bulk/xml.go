package bulk

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/beevik/etree"

	"github.com/getmockd/mockforce/pkg/virtual"
)

// Namespace is the XML namespace of the Bulk API dataload documents.
const Namespace = "http://www.force.com/2009/06/asyncapi/dataload"

// JobRequest is the body of a create-job call.
type JobRequest struct {
	Operation       string `json:"operation"`
	Object          string `json:"object"`
	ExternalIDField string `json:"externalIdFieldName,omitempty"`
	ContentType     string `json:"contentType,omitempty"`
}

// Submit creates the job described by req.
func (c *Coordinator) Submit(req JobRequest) (*Job, error) {
	op, err := ParseOperation(req.Operation)
	if err != nil {
		return nil, err
	}
	contentType := strings.ToUpper(strings.TrimSpace(req.ContentType))
	if contentType == "" {
		contentType = ContentTypeJSON
	}
	return c.createJob(req.Object, op, req.ExternalIDField, contentType)
}

// DecodeJobRequest parses a <jobInfo> create-job document. Element names
// are matched without their namespace prefix.
func DecodeJobRequest(data []byte) (JobRequest, error) {
	doc := etree.NewDocument()
	if err := doc.ReadFromBytes(data); err != nil {
		return JobRequest{}, fmt.Errorf("parsing jobInfo: %w", err)
	}
	root := doc.Root()
	if root == nil || root.Tag != "jobInfo" {
		return JobRequest{}, &InvalidJobError{Message: "expected a jobInfo document"}
	}
	return JobRequest{
		Operation:       childText(root, "operation"),
		Object:          childText(root, "object"),
		ExternalIDField: childText(root, "externalIdFieldName"),
		ContentType:     childText(root, "contentType"),
	}, nil
}

// EncodeJobInfo renders a job as a <jobInfo> document.
func EncodeJobInfo(job *Job) ([]byte, error) {
	doc, root := newDocument("jobInfo")
	addChild(root, "id", job.ID)
	addChild(root, "operation", string(job.Operation))
	addChild(root, "object", job.Object)
	if job.ExternalIDField != "" {
		addChild(root, "externalIdFieldName", job.ExternalIDField)
	}
	addChild(root, "createdDate", job.CreatedDate)
	addChild(root, "state", job.State)
	addChild(root, "concurrencyMode", "Parallel")
	addChild(root, "contentType", job.ContentType)
	return render(doc)
}

// EncodeBatchInfo renders a batch as a <batchInfo> document.
func EncodeBatchInfo(batch *Batch) ([]byte, error) {
	doc, root := newDocument("batchInfo")
	addChild(root, "id", batch.ID)
	addChild(root, "jobId", batch.JobID)
	addChild(root, "state", batch.State)
	addChild(root, "createdDate", batch.CreatedDate)
	addChild(root, "numberRecordsProcessed", strconv.Itoa(batch.NumberRecords()))
	addChild(root, "numberRecordsFailed", "0")
	return render(doc)
}

// EncodeError renders err as a Bulk API <error> document.
func EncodeError(err error) ([]byte, error) {
	resp := virtual.ToErrorResponse(err)
	doc, root := newDocument("error")
	addChild(root, "exceptionCode", resp.ErrorCode)
	addChild(root, "exceptionMessage", resp.Message)
	return render(doc)
}

func newDocument(rootTag string) (*etree.Document, *etree.Element) {
	doc := etree.NewDocument()
	doc.CreateProcInst("xml", `version="1.0" encoding="UTF-8"`)
	root := doc.CreateElement(rootTag)
	root.CreateAttr("xmlns", Namespace)
	return doc, root
}

func render(doc *etree.Document) ([]byte, error) {
	doc.Indent(2)
	return doc.WriteToBytes()
}

func addChild(parent *etree.Element, tag, text string) {
	parent.CreateElement(tag).SetText(text)
}

// childText returns the trimmed text of the first child with the given
// local name.
func childText(parent *etree.Element, localName string) string {
	for _, child := range parent.ChildElements() {
		if child.Tag == localName {
			return strings.TrimSpace(child.Text())
		}
	}
	return ""
}
