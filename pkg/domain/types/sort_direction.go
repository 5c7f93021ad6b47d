package types

import "fmt"

// SortDirection is the ordering applied to a listed collection
type SortDirection string

const (
	SortAsc  SortDirection = "asc"
	SortDesc SortDirection = "desc"
)

// IsValid checks if the sort direction is valid
func (d SortDirection) IsValid() bool {
	switch d {
	case SortAsc, SortDesc:
		return true
	default:
		return false
	}
}

func (d SortDirection) String() string {
	return string(d)
}

// ParseSortDirection parses a sort direction. An empty string means ascending.
func ParseSortDirection(s string) (SortDirection, error) {
	if s == "" {
		return SortAsc, nil
	}
	d := SortDirection(s)
	if !d.IsValid() {
		return "", fmt.Errorf("invalid sort direction: %s", s)
	}
	return d, nil
}
