package types

// FieldType represents the value type of a schema field
type FieldType string

const (
	FieldTypeText    FieldType = "text"
	FieldTypeInteger FieldType = "integer"
	FieldTypeTime    FieldType = "time"
	FieldTypeObject  FieldType = "object"
)

// AllFieldTypes returns all valid field types
func AllFieldTypes() []FieldType {
	return []FieldType{
		FieldTypeText,
		FieldTypeInteger,
		FieldTypeTime,
		FieldTypeObject,
	}
}

// IsValid checks if the field type is valid
func (t FieldType) IsValid() bool {
	switch t {
	case FieldTypeText,
		FieldTypeInteger,
		FieldTypeTime,
		FieldTypeObject:
		return true
	default:
		return false
	}
}

// String returns the string representation of the field type
func (t FieldType) String() string {
	return string(t)
}
