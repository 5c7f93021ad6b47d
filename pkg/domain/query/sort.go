package query

import (
	"cmp"
	"slices"
	"strings"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/caseflow/pkg/domain/types"
)

// ErrFiltering is returned when a listing request can not be turned into a query
var ErrFiltering = goerr.New("Filtering error")

// Sort orders a result set by a single field
type Sort struct {
	Field     string
	Direction types.SortDirection
}

// NewSort resolves a requested sort key against the sortable fields of a collection. fields maps
// accepted request names to record field names. An empty key falls back to defaultField.
func NewSort(key, dir string, fields map[string]string, defaultField string) (Sort, error) {
	direction, err := types.ParseSortDirection(dir)
	if err != nil {
		return Sort{}, goerr.Wrap(ErrFiltering, "invalid sort direction", goerr.V("sort_dir", dir))
	}

	if key == "" {
		return Sort{Field: defaultField, Direction: direction}, nil
	}

	field, ok := fields[key]
	if !ok {
		return Sort{}, goerr.Wrap(ErrFiltering, "invalid sort field", goerr.V("order_by", key))
	}

	return Sort{Field: field, Direction: direction}, nil
}

// SortRecords sorts items in place. Records lacking the field are ordered first.
func SortRecords[T Record](items []T, s Sort) {
	if s.Field == "" {
		return
	}
	slices.SortStableFunc(items, func(a, b T) int {
		av, aok := a.FieldValue(s.Field)
		bv, bok := b.FieldValue(s.Field)

		var c int
		switch {
		case !aok && !bok:
			c = 0
		case !aok:
			c = -1
		case !bok:
			c = 1
		default:
			c = compareValues(av, bv)
		}

		if s.Direction == types.SortDesc {
			return -c
		}
		return c
	})
}

func compareValues(a, b any) int {
	a, b = normalize(a), normalize(b)
	switch x := a.(type) {
	case int64:
		if y, ok := b.(int64); ok {
			return cmp.Compare(x, y)
		}
	case string:
		if y, ok := b.(string); ok {
			return strings.Compare(strings.ToLower(x), strings.ToLower(y))
		}
	case time.Time:
		if y, ok := b.(time.Time); ok {
			return x.Compare(y)
		}
	case nil:
		if b == nil {
			return 0
		}
		return -1
	}
	if b == nil {
		return 1
	}
	return 0
}
