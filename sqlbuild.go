package main

import (
	"fmt"
	"strings"
)

type SortEntry struct {
	Column int
	Desc   bool
}

type FilterOp int

const (
	FilterEq FilterOp = iota
	FilterNe
	FilterLt
	FilterLe
	FilterGt
	FilterGe
	FilterLike
	FilterNotLike
	FilterIsNull
	FilterNotNull
)

func (op FilterOp) String() string {
	switch op {
	case FilterEq:
		return "="
	case FilterNe:
		return "!="
	case FilterLt:
		return "<"
	case FilterLe:
		return "<="
	case FilterGt:
		return ">"
	case FilterGe:
		return ">="
	case FilterLike:
		return "LIKE"
	case FilterNotLike:
		return "NOT LIKE"
	case FilterIsNull:
		return "IS NULL"
	case FilterNotNull:
		return "IS NOT NULL"
	default:
		return "="
	}
}

// ParseFilterOp maps the operator spellings accepted at the filter prompt.
func ParseFilterOp(s string) (FilterOp, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "=", "==", "eq":
		return FilterEq, true
	case "!=", "<>", "ne":
		return FilterNe, true
	case "<", "lt":
		return FilterLt, true
	case "<=", "le":
		return FilterLe, true
	case ">", "gt":
		return FilterGt, true
	case ">=", "ge":
		return FilterGe, true
	case "like", "~":
		return FilterLike, true
	case "not like", "!~":
		return FilterNotLike, true
	case "null", "is null":
		return FilterIsNull, true
	case "not null", "is not null":
		return FilterNotNull, true
	default:
		return FilterEq, false
	}
}

type FilterEntry struct {
	Column int
	Op     FilterOp
	Value  string
}

// BuildOrderBy renders the sort spec against the current schema. Entries whose
// column index no longer exists are skipped: the schema may have drifted under
// us (a column dropped externally) and a partial ORDER BY beats failing the
// whole page load.
func BuildOrderBy(entries []SortEntry, schema *TableSchema, quote func(string) string) string {
	if schema == nil || len(entries) == 0 {
		return ""
	}
	parts := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.Column < 0 || e.Column >= len(schema.Columns) {
			continue
		}
		dir := "ASC"
		if e.Desc {
			dir = "DESC"
		}
		parts = append(parts, fmt.Sprintf("%s %s", quote(schema.Columns[e.Column].Name), dir))
	}
	return strings.Join(parts, ", ")
}

// BuildWhere renders the filter spec, predicates ANDed together. Unlike sort,
// a filter referencing a missing column is an error: the caller drops the
// filters instead of silently running a clause that matches the wrong rows.
func BuildWhere(filters []FilterEntry, schema *TableSchema, quote func(string) string) (string, error) {
	if len(filters) == 0 {
		return "", nil
	}
	if schema == nil {
		return "", fmt.Errorf("no schema to resolve filter columns")
	}
	parts := make([]string, 0, len(filters))
	for _, f := range filters {
		if f.Column < 0 || f.Column >= len(schema.Columns) {
			return "", fmt.Errorf("filter column index %d out of range", f.Column)
		}
		ident := quote(schema.Columns[f.Column].Name)
		switch f.Op {
		case FilterIsNull, FilterNotNull:
			parts = append(parts, fmt.Sprintf("%s %s", ident, f.Op))
		default:
			parts = append(parts, fmt.Sprintf("%s %s %s", ident, f.Op, escapeLiteral(f.Value)))
		}
	}
	return strings.Join(parts, " AND "), nil
}

func escapeLiteral(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}
