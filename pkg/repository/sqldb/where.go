package sqldb

import (
	"strings"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/caseflow/pkg/domain/query"
	"github.com/secmon-lab/caseflow/pkg/domain/types"
)

// column describes how a record field is stored. Text columns sort case-insensitively and
// nullable columns put NULL before values in ascending order, matching query.SortRecords.
type column struct {
	name     string
	isTime   bool
	isText   bool
	nullable bool
}

type columnMap map[string]column

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// where translates a predicate into a SQL boolean expression with ? placeholders
func where(p query.Predicate, cols columnMap) (string, []any, error) {
	switch p.Kind {
	case query.KindAll, "":
		return "1=1", nil, nil
	case query.KindNothing:
		return "1=0", nil, nil
	case query.KindAnd:
		parts := make([]string, 0, len(p.Terms))
		var args []any
		for _, term := range p.Terms {
			expr, termArgs, err := where(term, cols)
			if err != nil {
				return "", nil, err
			}
			parts = append(parts, "("+expr+")")
			args = append(args, termArgs...)
		}
		return strings.Join(parts, " AND "), args, nil
	}

	col, ok := cols[p.Field]
	if !ok {
		return "", nil, goerr.Wrap(query.ErrFiltering, "field can not be filtered", goerr.V("field", p.Field))
	}

	switch p.Kind {
	case query.KindEq:
		return col.name + " = ?", []any{p.Value}, nil
	case query.KindContains:
		s, _ := p.Value.(string)
		return "LOWER(" + col.name + `) LIKE ? ESCAPE '\'`, []any{"%" + likeEscaper.Replace(strings.ToLower(s)) + "%"}, nil
	case query.KindBetween:
		if !col.isTime {
			return "", nil, goerr.Wrap(ErrUnsupportedTerm, "range on non time field", goerr.V("field", p.Field))
		}
		return col.name + " BETWEEN ? AND ?", []any{toMicro(p.From), toMicro(p.To)}, nil
	default:
		return "", nil, goerr.Wrap(ErrUnsupportedTerm, "unknown predicate kind", goerr.V("kind", p.Kind))
	}
}

// orderBy renders an ORDER BY clause. The id column breaks ties so pages are stable.
func orderBy(s query.Sort, cols columnMap, idColumn string) (string, error) {
	if s.Field == "" {
		return " ORDER BY " + idColumn + " ASC", nil
	}

	col, ok := cols[s.Field]
	if !ok {
		return "", goerr.Wrap(query.ErrFiltering, "field can not be sorted", goerr.V("field", s.Field))
	}

	dir, nulls := "ASC", " NULLS FIRST"
	if s.Direction == types.SortDesc {
		dir, nulls = "DESC", " NULLS LAST"
	}
	key := col.name
	if col.isText {
		key = "LOWER(" + col.name + ")"
	}
	clause := " ORDER BY " + key + " " + dir
	if col.nullable {
		clause += nulls
	}
	if col.name != idColumn {
		clause += ", " + idColumn + " ASC"
	}
	return clause, nil
}
