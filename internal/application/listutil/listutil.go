package listutil

import (
	"net/url"
	"strings"
)

// SortParams carries sorting parameters parsed from a request.
type SortParams struct {
	Column string // whitelisted column name, "" for the store default
	Desc   bool
}

// ParseSortParams extracts order and dir from URL query values.
// "order" may carry a leading "-" as shorthand for dir=desc.
// PRE: allowedColumns lists the columns the store can order by
// POST: Column is empty or one of allowedColumns
func ParseSortParams(q url.Values, allowedColumns []string) SortParams {
	col := strings.TrimSpace(q.Get("order"))
	desc := strings.EqualFold(q.Get("dir"), "desc")
	if strings.HasPrefix(col, "-") {
		col = col[1:]
		desc = true
	}
	if !IsAllowedColumn(col, allowedColumns) {
		return SortParams{}
	}
	return SortParams{Column: col, Desc: desc}
}

// IsAllowedColumn reports whether col appears in allowed.
func IsAllowedColumn(col string, allowed []string) bool {
	for _, c := range allowed {
		if c == col {
			return true
		}
	}
	return false
}

// OrderClause renders an ORDER BY clause. Columns outside allowed fall back to def.
// PRE: def is a trusted column name
// POST: returned clause only ever names def or a member of allowed
func OrderClause(s SortParams, allowed []string, def string) string {
	col := def
	if IsAllowedColumn(s.Column, allowed) {
		col = s.Column
	}
	dir := "ASC"
	if s.Desc {
		dir = "DESC"
	}
	clause := " ORDER BY " + col + " " + dir
	if col != def {
		clause += ", " + def + " ASC"
	}
	return clause
}
