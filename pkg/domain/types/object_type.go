package types

import "fmt"

// ObjectType identifies the kind of a case object. It scopes default custom attributes,
// comment parents and per-case object state counters.
type ObjectType string

const (
	ObjectIOC     ObjectType = "ioc"
	ObjectAlert   ObjectType = "alert"
	ObjectComment ObjectType = "comment"
)

// AllObjectTypes returns all valid object types
func AllObjectTypes() []ObjectType {
	return []ObjectType{
		ObjectIOC,
		ObjectAlert,
		ObjectComment,
	}
}

// IsValid checks if the object type is valid
func (o ObjectType) IsValid() bool {
	switch o {
	case ObjectIOC, ObjectAlert, ObjectComment:
		return true
	default:
		return false
	}
}

func (o ObjectType) String() string {
	return string(o)
}

// ParseObjectType parses a string into an ObjectType
func ParseObjectType(s string) (ObjectType, error) {
	o := ObjectType(s)
	if !o.IsValid() {
		return "", fmt.Errorf("invalid object type: %s", s)
	}
	return o, nil
}
