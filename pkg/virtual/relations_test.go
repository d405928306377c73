package virtual

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/getmockd/mockforce/pkg/sobject"
)

func TestRelationsMap_Lookup(t *testing.T) {
	m := RelationsMap{"Owner": "User"}

	name, ok := m.Lookup("Owner")
	require.True(t, ok)
	assert.Equal(t, "User", name)

	name, ok = m.Lookup("owner")
	require.True(t, ok)
	assert.Equal(t, "User", name)

	_, ok = m.Lookup("Manager")
	assert.False(t, ok)
}

func TestResolver_ResolveParentField(t *testing.T) {
	store := NewStore()
	accountID, _ := store.Create("Account", sobject.RecordOf("Name", "Acme"))
	parentID, _ := store.Create("Parent__c", sobject.RecordOf("Name", "Custom Parent"))
	userID, _ := store.Create("User", sobject.RecordOf("Name", "Jane"))

	resolver := NewResolver(RelationsMap{"Owner": "User"}, nil)

	tests := []struct {
		name   string
		child  *sobject.Record
		alias  string
		want   string
		wantOK bool
	}{
		{
			name:   "standard lookup with Id suffix",
			child:  sobject.RecordOf("AccountId", accountID),
			alias:  "Account",
			want:   "Acme",
			wantOK: true,
		},
		{
			name:   "custom relationship maps __r to __c",
			child:  sobject.RecordOf("Parent__c", parentID),
			alias:  "Parent__r",
			want:   "Custom Parent",
			wantOK: true,
		},
		{
			name:   "relations override names the parent type",
			child:  sobject.RecordOf("OwnerId", userID),
			alias:  "Owner",
			want:   "Jane",
			wantOK: true,
		},
		{
			name:   "custom alias falls back to standard type",
			child:  sobject.RecordOf("AccountId", accountID),
			alias:  "Account__r",
			want:   "Acme",
			wantOK: true,
		},
		{
			name:  "missing foreign key",
			child: sobject.RecordOf("Name", "orphan"),
			alias: "Account",
		},
		{
			name:  "null foreign key",
			child: sobject.RecordOf("AccountId", nil),
			alias: "Account",
		},
		{
			name:  "dangling foreign key",
			child: sobject.RecordOf("AccountId", "doesnotexist"),
			alias: "Account",
		},
		{
			name:  "unknown parent type",
			child: sobject.RecordOf("MissingId", "x"),
			alias: "Missing",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v, ok := resolver.ResolveParentField(store, tt.child, tt.alias, "Name")
			assert.Equal(t, tt.wantOK, ok)
			if tt.wantOK {
				assert.Equal(t, tt.want, v.String())
			} else {
				assert.True(t, v.IsNull())
			}
		})
	}
}

func TestResolver_ResolveParentFieldDeletedParent(t *testing.T) {
	store := NewStore()
	accountID, _ := store.Create("Account", sobject.RecordOf("Name", "Acme"))
	require.NoError(t, store.Delete("Account", accountID))

	_, ok := NewResolver(nil, nil).ResolveParentField(store, sobject.RecordOf("AccountId", accountID), "Account", "Name")
	assert.False(t, ok)
}

func TestResolver_NormalizeIncomingRelations(t *testing.T) {
	store := NewStore()
	accountID, _ := store.Create("Account", sobject.RecordOf("Name", "Acme", "Ext__c", "A1"))
	parentID, _ := store.Create("Parent__c", sobject.RecordOf("Code", 7))
	userID, _ := store.Create("User", sobject.RecordOf("Email", "jane@example.com"))

	resolver := NewResolver(RelationsMap{"Owner": "User"}, nil)

	payload := sobject.RecordOf(
		"LastName", "Doe",
		"Account", sobject.RecordOf("Ext__c", "A1"),
		"Parent__r", sobject.RecordOf("Code", 7),
		"Owner", sobject.RecordOf("attributes", sobject.RecordOf("type", "User"), "Email", "jane@example.com"),
		"Address", sobject.RecordOf("City", "Paris", "Zip", "75001"),
		"attributes", sobject.RecordOf("type", "Contact"),
	)

	out, err := resolver.NormalizeIncomingRelations(store, payload)
	require.NoError(t, err)

	assert.Equal(t, []string{"LastName", "AccountId", "Parent__c", "OwnerId", "Address"}, out.Keys())
	assert.Equal(t, accountID, fieldString(t, out, "AccountId"))
	assert.Equal(t, parentID, fieldString(t, out, "Parent__c"))
	assert.Equal(t, userID, fieldString(t, out, "OwnerId"))

	addr, ok := out.Get("Address")
	require.True(t, ok)
	assert.Equal(t, sobject.KindMap, addr.Kind(), "multi-field mappings are not link markers")

	assert.True(t, payload.Has("Account"), "payload is left untouched")
}

func TestResolver_NormalizeIncomingRelationsMissingParent(t *testing.T) {
	store := NewStore()
	_, _ = store.Create("Account", sobject.RecordOf("Ext__c", "A1"))

	_, err := NewResolver(nil, nil).NormalizeIncomingRelations(store, sobject.RecordOf(
		"Account", sobject.RecordOf("Ext__c", "nope"),
	))

	var linked *LinkedRecordNotFoundError
	require.True(t, errors.As(err, &linked))
	assert.Equal(t, "Account", linked.Relationship)
	assert.Equal(t, "Account", linked.SObject)
	assert.Equal(t, "Ext__c", linked.Field)
	assert.Equal(t, "nope", linked.Value)
	assert.Equal(t, "INVALID_FIELD", linked.ErrorCode())
}

func TestResolver_NormalizeIncomingRelationsUnknownType(t *testing.T) {
	_, err := NewResolver(nil, nil).NormalizeIncomingRelations(NewStore(), sobject.RecordOf(
		"Account", sobject.RecordOf("Ext__c", "A1"),
	))
	var linked *LinkedRecordNotFoundError
	assert.True(t, errors.As(err, &linked))
}
