package virtual

import (
	"bytes"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/getmockd/mockforce/pkg/logging"
	"github.com/getmockd/mockforce/pkg/where"
)

func TestToErrorResponse(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantCode   string
		wantStatus int
		wantFields []string
		wantHint   bool
	}{
		{
			name:       "unknown type",
			err:        &NotFoundError{SObject: "Foo"},
			wantCode:   "INVALID_TYPE",
			wantStatus: http.StatusNotFound,
			wantFields: []string{},
			wantHint:   true,
		},
		{
			name:       "wrapped record not found",
			err:        fmt.Errorf("loading: %w", &NotFoundError{SObject: "Account", ID: "x"}),
			wantCode:   "NOT_FOUND",
			wantStatus: http.StatusNotFound,
			wantFields: []string{},
			wantHint:   true,
		},
		{
			name:       "linked record",
			err:        &LinkedRecordNotFoundError{Relationship: "Account", SObject: "Account", Field: "Ext__c", Value: "1"},
			wantCode:   "INVALID_FIELD",
			wantStatus: http.StatusBadRequest,
			wantFields: []string{"Account"},
			wantHint:   true,
		},
		{
			name:       "validation with field",
			err:        &ValidationError{Field: "Id", Message: "bad"},
			wantCode:   "INVALID_FIELD",
			wantStatus: http.StatusBadRequest,
			wantFields: []string{"Id"},
		},
		{
			name:       "malformed query",
			err:        &where.MalformedQueryError{Reason: "unsupported operator", Token: "LIKE"},
			wantCode:   "MALFORMED_QUERY",
			wantStatus: http.StatusBadRequest,
			wantFields: []string{},
			wantHint:   true,
		},
		{
			name:       "plain error",
			err:        errors.New("boom"),
			wantCode:   "UNKNOWN_EXCEPTION",
			wantStatus: http.StatusInternalServerError,
			wantFields: []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := ToErrorResponse(tt.err)
			assert.Equal(t, tt.err.Error(), resp.Message)
			assert.Equal(t, tt.wantCode, resp.ErrorCode)
			assert.Equal(t, tt.wantStatus, resp.StatusCode)
			assert.Equal(t, tt.wantFields, resp.Fields)
			assert.Equal(t, tt.wantHint, resp.Hint != "")
		})
	}
}

func TestNotFoundError_Messages(t *testing.T) {
	assert.Equal(t, `sObject type "Foo" not found`, (&NotFoundError{SObject: "Foo"}).Error())
	assert.Equal(t, `Account "x" not found`, (&NotFoundError{SObject: "Account", ID: "x"}).Error())
	assert.Equal(t, `Contact with Ext__c "1" not found`, (&NotFoundError{SObject: "Contact", Field: "Ext__c", Value: "1"}).Error())
}

func TestLogObserver(t *testing.T) {
	var buf bytes.Buffer
	logger := logging.New(logging.Config{Level: logging.LevelDebug, Format: logging.FormatText, Output: &buf})

	store := NewStore(WithObserver(MultiObserver{NewLogObserver(logger), NoopObserver{}}))
	recordID, _ := store.Create("Account", nil)
	_ = store.Delete("Account", "missing")
	store.Reset()

	out := buf.String()
	assert.Contains(t, out, "record created")
	assert.Contains(t, out, recordID)
	assert.Contains(t, out, "operation failed")
	assert.Contains(t, out, "store reset")
	assert.Contains(t, out, slog.LevelWarn.String())
}
