package datatable

import (
	"strings"

	"github.com/uptrace/bun"
)

// Columns whitelists the table columns reachable from client supplied state,
// mapping the public column name onto the SQL column.
type Columns map[string]string

// ApplySelect applies a table State to a bun query: multi-select filters,
// free-text search over searchColumns, ordering, and pagination. Unknown sort
// or filter columns are dropped rather than erroring, the whitelist is the
// contract.
func ApplySelect(q *bun.SelectQuery, state State, cols Columns, searchColumns []string) *bun.SelectQuery {
	state = state.Normalize()

	for column, selected := range state.Filters {
		sqlColumn, ok := cols[column]
		if !ok || len(selected) == 0 {
			continue
		}
		q = q.Where("? IN (?)", bun.Ident(sqlColumn), bun.In(selected))
	}

	if state.Query != "" {
		var searchable []string
		for _, column := range searchColumns {
			if sqlColumn, ok := cols[column]; ok {
				searchable = append(searchable, sqlColumn)
			}
		}

		if len(searchable) > 0 {
			pattern := "%" + escapeLike(state.Query) + "%"
			q = q.WhereGroup(" AND ", func(q *bun.SelectQuery) *bun.SelectQuery {
				for i, sqlColumn := range searchable {
					if i == 0 {
						q = q.Where(`LOWER(?) LIKE LOWER(?) ESCAPE '\'`, bun.Ident(sqlColumn), pattern)
					} else {
						q = q.WhereOr(`LOWER(?) LIKE LOWER(?) ESCAPE '\'`, bun.Ident(sqlColumn), pattern)
					}
				}
				return q
			})
		}
	}

	if sqlColumn, ok := cols[state.Sort.By]; ok {
		dir := "ASC"
		if state.Sort.Order == SortDesc {
			dir = "DESC"
		}
		q = q.OrderExpr("? ?", bun.Ident(sqlColumn), bun.Safe(dir))
	}

	return q.Limit(state.Limit).Offset(state.Offset())
}

func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}
