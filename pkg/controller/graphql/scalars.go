package graphql

import (
	"strconv"
	"time"
)

// serializeScalar converts a resolved value into the JSON form of the named scalar
func serializeScalar(name string, v any) any {
	switch x := v.(type) {
	case *string:
		return *x
	case *int64:
		return serializeScalar(name, *x)
	case *int:
		return serializeScalar(name, int64(*x))
	case *bool:
		return *x
	}

	switch name {
	case "ID":
		switch x := v.(type) {
		case int64:
			return strconv.FormatInt(x, 10)
		case int:
			return strconv.Itoa(x)
		}
		return v

	case "Time":
		if t, ok := v.(time.Time); ok {
			return t.UTC().Format(time.RFC3339Nano)
		}
		return v

	case "Int":
		if i, ok := v.(int); ok {
			return int64(i)
		}
		return v

	default:
		return v
	}
}
