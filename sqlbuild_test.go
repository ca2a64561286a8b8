package main

import (
	"strings"
	"testing"
)

func buildSchema(names ...string) *TableSchema {
	s := &TableSchema{Table: "t"}
	for _, n := range names {
		s.Columns = append(s.Columns, ColumnDef{Name: n, ValueType: TypeText})
	}
	return s
}

func doubleQuote(ident string) string {
	return `"` + strings.ReplaceAll(ident, `"`, `""`) + `"`
}

func TestBuildOrderBy(t *testing.T) {
	schema := buildSchema("id", "name", "age")

	cases := []struct {
		name    string
		entries []SortEntry
		want    string
	}{
		{"empty", nil, ""},
		{"single asc", []SortEntry{{Column: 1}}, `"name" ASC`},
		{"single desc", []SortEntry{{Column: 0, Desc: true}}, `"id" DESC`},
		{"multi preserves order", []SortEntry{{Column: 2, Desc: true}, {Column: 1}}, `"age" DESC, "name" ASC`},
		{"out of range skipped", []SortEntry{{Column: 9}, {Column: 0}}, `"id" ASC`},
	}
	for _, tc := range cases {
		if got := BuildOrderBy(tc.entries, schema, doubleQuote); got != tc.want {
			t.Errorf("%s: got %q, want %q", tc.name, got, tc.want)
		}
	}

	if got := BuildOrderBy([]SortEntry{{Column: 0}}, nil, doubleQuote); got != "" {
		t.Errorf("nil schema should produce an empty clause, got %q", got)
	}
}

func TestBuildWhere(t *testing.T) {
	schema := buildSchema("id", "name")

	cases := []struct {
		name    string
		filters []FilterEntry
		want    string
	}{
		{"eq", []FilterEntry{{Column: 1, Op: FilterEq, Value: "alice"}}, `"name" = 'alice'`},
		{"ne", []FilterEntry{{Column: 0, Op: FilterNe, Value: "3"}}, `"id" != '3'`},
		{"like", []FilterEntry{{Column: 1, Op: FilterLike, Value: "%a%"}}, `"name" LIKE '%a%'`},
		{"not like", []FilterEntry{{Column: 1, Op: FilterNotLike, Value: "x"}}, `"name" NOT LIKE 'x'`},
		{"is null has no literal", []FilterEntry{{Column: 1, Op: FilterIsNull}}, `"name" IS NULL`},
		{"not null has no literal", []FilterEntry{{Column: 1, Op: FilterNotNull, Value: "ignored"}}, `"name" IS NOT NULL`},
		{"anded", []FilterEntry{
			{Column: 0, Op: FilterGt, Value: "5"},
			{Column: 1, Op: FilterLe, Value: "m"},
		}, `"id" > '5' AND "name" <= 'm'`},
		{"quote doubling", []FilterEntry{{Column: 1, Op: FilterEq, Value: "o'brien"}}, `"name" = 'o''brien'`},
	}
	for _, tc := range cases {
		got, err := BuildWhere(tc.filters, schema, doubleQuote)
		if err != nil {
			t.Errorf("%s: unexpected error: %v", tc.name, err)
			continue
		}
		if got != tc.want {
			t.Errorf("%s: got %q, want %q", tc.name, got, tc.want)
		}
	}

	if got, err := BuildWhere(nil, nil, doubleQuote); err != nil || got != "" {
		t.Errorf("empty filters: got %q, %v", got, err)
	}
	if _, err := BuildWhere([]FilterEntry{{Column: 9, Op: FilterEq}}, schema, doubleQuote); err == nil {
		t.Errorf("out-of-range filter column must be an error")
	}
	if _, err := BuildWhere([]FilterEntry{{Column: 0, Op: FilterEq}}, nil, doubleQuote); err == nil {
		t.Errorf("nil schema with filters must be an error")
	}
}

func TestParseFilterOp(t *testing.T) {
	cases := map[string]FilterOp{
		"=":           FilterEq,
		"==":          FilterEq,
		"eq":          FilterEq,
		"!=":          FilterNe,
		"<>":          FilterNe,
		"<":           FilterLt,
		"<=":          FilterLe,
		">":           FilterGt,
		">=":          FilterGe,
		"LIKE":        FilterLike,
		"~":           FilterLike,
		"not like":    FilterNotLike,
		"!~":          FilterNotLike,
		"null":        FilterIsNull,
		"IS NULL":     FilterIsNull,
		"not null":    FilterNotNull,
		"is not null": FilterNotNull,
	}
	for spelling, want := range cases {
		got, ok := ParseFilterOp(spelling)
		if !ok || got != want {
			t.Errorf("ParseFilterOp(%q) = %v, %v; want %v", spelling, got, ok, want)
		}
	}
	if _, ok := ParseFilterOp("between"); ok {
		t.Errorf("unknown operator should not parse")
	}
}

func TestParseFilterInput(t *testing.T) {
	schema := buildSchema("id", "name")

	cases := []struct {
		input string
		want  FilterEntry
	}{
		{"name = alice", FilterEntry{Column: 1, Op: FilterEq, Value: "alice"}},
		{"id > 100", FilterEntry{Column: 0, Op: FilterGt, Value: "100"}},
		{"name like %a%", FilterEntry{Column: 1, Op: FilterLike, Value: "%a%"}},
		{"name not like x", FilterEntry{Column: 1, Op: FilterNotLike, Value: "x"}},
		{"name is null", FilterEntry{Column: 1, Op: FilterIsNull}},
		{"name is not null", FilterEntry{Column: 1, Op: FilterNotNull}},
		{"name = hello world", FilterEntry{Column: 1, Op: FilterEq, Value: "hello world"}},
	}
	for _, tc := range cases {
		got, ok := ParseFilterInput(tc.input, schema)
		if !ok {
			t.Errorf("ParseFilterInput(%q) failed", tc.input)
			continue
		}
		if got != tc.want {
			t.Errorf("ParseFilterInput(%q) = %+v, want %+v", tc.input, got, tc.want)
		}
	}

	bad := []string{"", "name", "nosuch = x", "name = ", "name is null extra"}
	for _, input := range bad {
		if _, ok := ParseFilterInput(input, schema); ok {
			t.Errorf("ParseFilterInput(%q) should fail", input)
		}
	}
}
