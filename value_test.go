package main

import (
	"reflect"
	"strings"
	"testing"
	"time"
)

func TestScanDbValue(t *testing.T) {
	cases := []struct {
		name    string
		raw     interface{}
		colType DbValueType
		want    DbValue
	}{
		{"nil keeps column type", nil, TypeInt, NullValue(TypeInt)},
		{"int64", int64(42), TypeInt, IntValue(42)},
		{"int64 into bool column", int64(1), TypeBool, BoolValue(true)},
		{"zero into bool column", int64(0), TypeBool, BoolValue(false)},
		{"float64", 3.5, TypeFloat, FloatValue(3.5)},
		{"bool", true, TypeBool, BoolValue(true)},
		{"string", "hi", TypeText, TextValue("hi")},
		{"bytes as text", []byte("hi"), TypeText, TextValue("hi")},
		{"timestamp column keeps kind", "2024-01-01", TypeTimestamp, TimestampValue("2024-01-01")},
	}
	for _, tc := range cases {
		got := ScanDbValue(tc.raw, tc.colType, 0)
		if !reflect.DeepEqual(got, tc.want) {
			t.Errorf("%s: got %+v, want %+v", tc.name, got, tc.want)
		}
	}

	ts := time.Date(2024, 3, 1, 10, 30, 0, 0, time.UTC)
	got := ScanDbValue(ts, TypeTimestamp, 0)
	if got.Type() != TypeTimestamp || got.Text() != "2024-03-01 10:30:00" {
		t.Errorf("time.Time: got %q (%v)", got.Text(), got.Type())
	}

	blob := ScanDbValue([]byte{1, 2, 3}, TypeBlob, 0)
	if blob.Type() != TypeBlob || len(blob.Blob()) != 3 {
		t.Errorf("blob scan: got %+v", blob)
	}
}

func TestScanDbValueOversizePlaceholders(t *testing.T) {
	big := make([]byte, 2<<20)

	v := ScanDbValue(big, TypeBlob, 1<<20)
	if !strings.HasPrefix(v.Text(), "[BLOB ") {
		t.Fatalf("oversize blob should become a placeholder, got %q", v.Text())
	}
	if v.Type() != TypeText {
		t.Fatalf("placeholder should be text, got %v", v.Type())
	}

	v = ScanDbValue(string(big), TypeText, 1<<20)
	if !strings.HasPrefix(v.Text(), "[TEXT ") {
		t.Fatalf("oversize text should become a placeholder, got %q", v.Text())
	}

	// Exactly at the limit passes through.
	exact := strings.Repeat("x", 1<<20)
	v = ScanDbValue(exact, TypeText, 1<<20)
	if v.Text() != exact {
		t.Fatalf("value at the limit must not be replaced")
	}
}

func TestDbValueText(t *testing.T) {
	cases := []struct {
		v    DbValue
		want string
	}{
		{NullValue(TypeText), "NULL"},
		{NullValue(TypeInt), "NULL"},
		{IntValue(-7), "-7"},
		{FloatValue(2.5), "2.5"},
		{BoolValue(true), "true"},
		{BoolValue(false), "false"},
		{TextValue("abc"), "abc"},
		{BlobValue(make([]byte, 2048)), "[BLOB 2.0 KiB]"},
		{TimestampValue("2024-01-01 00:00:00"), "2024-01-01 00:00:00"},
	}
	for _, tc := range cases {
		if got := tc.v.Text(); got != tc.want {
			t.Errorf("Text() = %q, want %q", got, tc.want)
		}
	}
}

func TestFormatByteSize(t *testing.T) {
	cases := []struct {
		n    int64
		want string
	}{
		{512, "512 B"},
		{2048, "2.0 KiB"},
		{3 << 20, "3.0 MiB"},
		{2 << 30, "2.0 GiB"},
	}
	for _, tc := range cases {
		if got := formatByteSize(tc.n); got != tc.want {
			t.Errorf("formatByteSize(%d) = %q, want %q", tc.n, got, tc.want)
		}
	}
}

func TestMapDeclaredType(t *testing.T) {
	cases := map[string]DbValueType{
		"INTEGER":                  TypeInt,
		"bigint":                   TypeInt,
		"serial":                   TypeInt,
		"BOOLEAN":                  TypeBool,
		"REAL":                     TypeFloat,
		"double precision":         TypeFloat,
		"NUMERIC(10,2)":            TypeFloat,
		"VARCHAR(255)":             TypeText,
		"text":                     TypeText,
		"json":                     TypeText,
		"uuid":                     TypeText,
		"TIMESTAMP WITH TIME ZONE": TypeTimestamp,
		"datetime":                 TypeTimestamp,
		"BLOB":                     TypeBlob,
		"bytea":                    TypeBlob,
		"varbinary(16)":            TypeBlob,
		"geometry":                 TypeUnknown,
	}
	for declared, want := range cases {
		if got := MapDeclaredType(declared); got != want {
			t.Errorf("MapDeclaredType(%q) = %v, want %v", declared, got, want)
		}
	}
}

func TestParseCellInput(t *testing.T) {
	cases := []struct {
		text string
		typ  DbValueType
		want DbValue
	}{
		{"", TypeText, NullValue(TypeText)},
		{"null", TypeInt, NullValue(TypeInt)},
		{"NULL", TypeText, NullValue(TypeText)},
		{"42", TypeInt, IntValue(42)},
		{" 42 ", TypeInt, IntValue(42)},
		{"2.5", TypeFloat, FloatValue(2.5)},
		{"true", TypeBool, BoolValue(true)},
		{"0", TypeBool, BoolValue(false)},
		{"abc", TypeText, TextValue("abc")},
		{"2024-01-01", TypeTimestamp, TimestampValue("2024-01-01")},
		// Unparseable input degrades to text; the database gets the last word.
		{"abc", TypeInt, TextValue("abc")},
		{"x", TypeFloat, TextValue("x")},
	}
	for _, tc := range cases {
		if got := ParseCellInput(tc.text, tc.typ); !reflect.DeepEqual(got, tc.want) {
			t.Errorf("ParseCellInput(%q, %v) = %+v, want %+v", tc.text, tc.typ, got, tc.want)
		}
	}
}

func TestResultSetInvariants(t *testing.T) {
	rs := NewResultSet([]ColumnDef{{Name: "a"}, {Name: "b"}})

	if err := rs.AppendRow([]DbValue{IntValue(1), TextValue("x")}); err != nil {
		t.Fatalf("AppendRow failed: %v", err)
	}
	if err := rs.AppendRow([]DbValue{IntValue(1)}); err == nil {
		t.Fatalf("short row must be rejected")
	}
	if rs.NumRows() != 1 || rs.NumColumns() != 2 {
		t.Fatalf("unexpected dimensions: %d x %d", rs.NumRows(), rs.NumColumns())
	}

	if _, ok := rs.Cell(0, 2); ok {
		t.Fatalf("out-of-range cell must report false")
	}
	if _, ok := rs.Cell(1, 0); ok {
		t.Fatalf("out-of-range row must report false")
	}
	if v, ok := rs.Cell(0, 1); !ok || v.Text() != "x" {
		t.Fatalf("cell lookup: %+v %v", v, ok)
	}

	if !rs.SetCell(0, 1, TextValue("y")) {
		t.Fatalf("SetCell in range failed")
	}
	if v, _ := rs.Cell(0, 1); v.Text() != "y" {
		t.Fatalf("SetCell did not stick")
	}
	if rs.SetCell(5, 0, TextValue("z")) {
		t.Fatalf("SetCell out of range must fail")
	}

	// Nil receivers are inert.
	var nilRS *ResultSet
	if nilRS.NumRows() != 0 || nilRS.NumColumns() != 0 {
		t.Fatalf("nil result set should report zero dimensions")
	}
	if _, ok := nilRS.Cell(0, 0); ok {
		t.Fatalf("nil result set cell lookup must fail")
	}
}

func TestTableSchemaLookups(t *testing.T) {
	schema := &TableSchema{
		Table: "users",
		Columns: []ColumnDef{
			{Name: "id", PrimaryKey: true},
			{Name: "tenant", PrimaryKey: true},
			{Name: "name"},
		},
	}
	if got := schema.ColumnIndex("tenant"); got != 1 {
		t.Fatalf("ColumnIndex = %d, want 1", got)
	}
	if got := schema.ColumnIndex("missing"); got != -1 {
		t.Fatalf("missing column should be -1, got %d", got)
	}
	pks := schema.PrimaryKeyColumns()
	if len(pks) != 2 || pks[0].Name != "id" || pks[1].Name != "tenant" {
		t.Fatalf("PrimaryKeyColumns = %+v", pks)
	}
}
