// Package sobject defines the schema-free record model of the virtual org.
//
// A Record is an insertion-ordered mapping from field name to Value, where
// Value is a tagged union of string, number, boolean, null, nested Record
// and list of strings. Records round-trip through JSON and YAML without
// losing field order.
//
// The store-owned system fields (Id, IsDeleted, CreatedDate,
// LastModifiedDate, SystemModstamp) are named here so every package agrees
// on them.
package sobject
