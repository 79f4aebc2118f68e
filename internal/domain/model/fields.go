package model

// Wire (JSON) names of the Credential fields.
const (
	FieldID          = "id"
	FieldName        = "name"
	FieldSecretValue = "key"
	FieldBaseURL     = "baseUrl"
	FieldModel       = "model"
	FieldDescription = "description"
	FieldCategory    = "category"
	FieldIsActive    = "isActive"
	FieldOwnerID     = "ownerId"
	FieldCreatedAt   = "createdAt"
	FieldUpdatedAt   = "updatedAt"
)

// FieldMapping pairs a wire field name with its storage column.
type FieldMapping struct {
	Field  string
	Column string
}

// FieldMappings is the complete wire <-> storage naming table for Credential.
// The order is the canonical column order used by the SQL adapter.
var FieldMappings = []FieldMapping{
	{Field: FieldID, Column: "id"},
	{Field: FieldName, Column: "name"},
	{Field: FieldSecretValue, Column: "secret_value"},
	{Field: FieldBaseURL, Column: "base_url"},
	{Field: FieldModel, Column: "model"},
	{Field: FieldDescription, Column: "description"},
	{Field: FieldCategory, Column: "category"},
	{Field: FieldIsActive, Column: "is_active"},
	{Field: FieldOwnerID, Column: "owner_id"},
	{Field: FieldCreatedAt, Column: "created_at"},
	{Field: FieldUpdatedAt, Column: "updated_at"},
}

var (
	columnByField = make(map[string]string, len(FieldMappings))
	fieldByColumn = make(map[string]string, len(FieldMappings))
)

func init() {
	for _, m := range FieldMappings {
		columnByField[m.Field] = m.Column
		fieldByColumn[m.Column] = m.Field
	}
}

// ColumnForField returns the storage column for a wire field name.
func ColumnForField(field string) (string, bool) {
	col, ok := columnByField[field]
	return col, ok
}

// FieldForColumn returns the wire field name for a storage column.
func FieldForColumn(column string) (string, bool) {
	field, ok := fieldByColumn[column]
	return field, ok
}

// Columns returns every storage column in canonical order.
func Columns() []string {
	cols := make([]string, len(FieldMappings))
	for i, m := range FieldMappings {
		cols[i] = m.Column
	}
	return cols
}
