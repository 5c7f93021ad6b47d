package query

// Query bundles the filter, order and page of a listing request
type Query struct {
	Where      Predicate
	Sort       Sort
	Pagination Pagination
}

// Apply evaluates q against an in-memory collection
func Apply[T Record](items []T, q Query) *Page[T] {
	matched := make([]T, 0, len(items))
	for _, item := range items {
		if q.Where.Match(item) {
			matched = append(matched, item)
		}
	}

	SortRecords(matched, q.Sort)
	return Slice(matched, q.Pagination.OrDefault())
}
