package main

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

type DbValueType int

const (
	TypeUnknown DbValueType = iota
	TypeInt
	TypeFloat
	TypeBool
	TypeText
	TypeBlob
	TypeTimestamp
)

func (t DbValueType) String() string {
	switch t {
	case TypeInt:
		return "int"
	case TypeFloat:
		return "float"
	case TypeBool:
		return "bool"
	case TypeText:
		return "text"
	case TypeBlob:
		return "blob"
	case TypeTimestamp:
		return "timestamp"
	default:
		return "unknown"
	}
}

// DbValue is a typed cell value. The null flag is orthogonal to the type tag:
// a null value still carries its column's nominal type for rendering.
type DbValue struct {
	typ  DbValueType
	null bool
	i    int64
	f    float64
	b    bool
	s    string
	blob []byte
}

func NullValue(typ DbValueType) DbValue {
	return DbValue{typ: typ, null: true}
}

func IntValue(v int64) DbValue {
	return DbValue{typ: TypeInt, i: v}
}

func FloatValue(v float64) DbValue {
	return DbValue{typ: TypeFloat, f: v}
}

func BoolValue(v bool) DbValue {
	return DbValue{typ: TypeBool, b: v}
}

func TextValue(v string) DbValue {
	return DbValue{typ: TypeText, s: v}
}

func BlobValue(v []byte) DbValue {
	return DbValue{typ: TypeBlob, blob: v}
}

// TimestampValue keeps the driver-native text form rather than re-encoding.
func TimestampValue(v string) DbValue {
	return DbValue{typ: TypeTimestamp, s: v}
}

func (v DbValue) Type() DbValueType { return v.typ }
func (v DbValue) IsNull() bool      { return v.null }

func (v DbValue) Int() int64     { return v.i }
func (v DbValue) Float() float64 { return v.f }
func (v DbValue) Bool() bool     { return v.b }
func (v DbValue) Blob() []byte   { return v.blob }

// Text renders the value for display and editing.
func (v DbValue) Text() string {
	if v.null {
		return "NULL"
	}
	switch v.typ {
	case TypeInt:
		return fmt.Sprintf("%d", v.i)
	case TypeFloat:
		return fmt.Sprintf("%g", v.f)
	case TypeBool:
		if v.b {
			return "true"
		}
		return "false"
	case TypeBlob:
		return fmt.Sprintf("[BLOB %s]", formatByteSize(int64(len(v.blob))))
	default:
		return v.s
	}
}

const DefaultMaxFieldSize = 1 << 20 // 1 MiB

// ScanDbValue converts a database/sql scan target into a DbValue. Text and
// blob payloads larger than maxField are replaced by a placeholder naming the
// true size, never truncated silently.
func ScanDbValue(raw interface{}, colType DbValueType, maxField int) DbValue {
	if maxField <= 0 {
		maxField = DefaultMaxFieldSize
	}
	switch val := raw.(type) {
	case nil:
		return NullValue(colType)
	case int64:
		if colType == TypeBool {
			return BoolValue(val != 0)
		}
		return IntValue(val)
	case float64:
		return FloatValue(val)
	case bool:
		return BoolValue(val)
	case time.Time:
		return TimestampValue(val.Format("2006-01-02 15:04:05.999999"))
	case []byte:
		if len(val) > maxField {
			return TextValue(fmt.Sprintf("[%s %s]", colType.placeholderLabel(), formatByteSize(int64(len(val)))))
		}
		if colType == TypeBlob {
			buf := make([]byte, len(val))
			copy(buf, val)
			return BlobValue(buf)
		}
		return DbValue{typ: colType.textKind(), s: string(val)}
	case string:
		if len(val) > maxField {
			return TextValue(fmt.Sprintf("[TEXT %s]", formatByteSize(int64(len(val)))))
		}
		return DbValue{typ: colType.textKind(), s: val}
	default:
		return TextValue(fmt.Sprintf("%v", val))
	}
}

func (t DbValueType) placeholderLabel() string {
	if t == TypeBlob {
		return "BLOB"
	}
	return "TEXT"
}

func (t DbValueType) textKind() DbValueType {
	if t == TypeTimestamp {
		return TypeTimestamp
	}
	return TypeText
}

func formatByteSize(n int64) string {
	switch {
	case n >= 1<<30:
		return fmt.Sprintf("%.1f GiB", float64(n)/(1<<30))
	case n >= 1<<20:
		return fmt.Sprintf("%.1f MiB", float64(n)/(1<<20))
	case n >= 1<<10:
		return fmt.Sprintf("%.1f KiB", float64(n)/(1<<10))
	default:
		return fmt.Sprintf("%d B", n)
	}
}

// MapDeclaredType maps a dialect's declared column type to the nominal value type.
func MapDeclaredType(declared string) DbValueType {
	lower := strings.ToLower(declared)
	switch {
	case containsAny(lower, "bool"):
		return TypeBool
	case containsAny(lower, "int", "serial"):
		return TypeInt
	case containsAny(lower, "real", "float", "double", "numeric", "decimal"):
		return TypeFloat
	case containsAny(lower, "timestamp", "datetime", "date", "time"):
		return TypeTimestamp
	case containsAny(lower, "blob", "bytea", "binary"):
		return TypeBlob
	case containsAny(lower, "char", "text", "clob", "json", "uuid", "enum"):
		return TypeText
	default:
		return TypeUnknown
	}
}

// ParseCellInput converts edited text back into a DbValue of the column's
// nominal type. Unparseable input falls back to text and lets the database
// reject it, mirroring what a literal in a raw statement would do.
func ParseCellInput(text string, typ DbValueType) DbValue {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" || strings.EqualFold(trimmed, "null") {
		return NullValue(typ)
	}
	switch typ {
	case TypeInt:
		if v, err := strconv.ParseInt(trimmed, 10, 64); err == nil {
			return IntValue(v)
		}
	case TypeFloat:
		if v, err := strconv.ParseFloat(trimmed, 64); err == nil {
			return FloatValue(v)
		}
	case TypeBool:
		if v, err := strconv.ParseBool(strings.ToLower(trimmed)); err == nil {
			return BoolValue(v)
		}
	case TypeTimestamp:
		return TimestampValue(text)
	}
	return TextValue(text)
}

func containsAny(s string, subs ...string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}

type ColumnDef struct {
	Name          string
	DeclaredType  string
	ValueType     DbValueType
	Nullable      bool
	PrimaryKey    bool
	DefaultValue  string
	HasDefault    bool
	AutoIncrement bool
	ForeignKeyRef string
}

type IndexDef struct {
	Name    string
	Unique  bool
	Columns []string
}

type ForeignKeyDef struct {
	ReferencedTable   string
	LocalColumns      []string
	ReferencedColumns []string
	OnUpdate          string
	OnDelete          string
}

// TableSchema is an immutable snapshot; reloads replace it wholesale.
type TableSchema struct {
	Table       string
	Columns     []ColumnDef
	Indexes     []IndexDef
	ForeignKeys []ForeignKeyDef
}

func (s *TableSchema) ColumnIndex(name string) int {
	for i, col := range s.Columns {
		if col.Name == name {
			return i
		}
	}
	return -1
}

func (s *TableSchema) PrimaryKeyColumns() []ColumnDef {
	var pks []ColumnDef
	for _, col := range s.Columns {
		if col.PrimaryKey {
			pks = append(pks, col)
		}
	}
	return pks
}

type Row struct {
	Cells []DbValue
}

type ResultSet struct {
	Columns []ColumnDef
	Rows    []Row
}

func NewResultSet(columns []ColumnDef) *ResultSet {
	return &ResultSet{Columns: columns}
}

// AppendRow enforces the cell-count invariant at construction time.
func (rs *ResultSet) AppendRow(cells []DbValue) error {
	if len(cells) != len(rs.Columns) {
		return fmt.Errorf("row has %d cells, result set has %d columns", len(cells), len(rs.Columns))
	}
	rs.Rows = append(rs.Rows, Row{Cells: cells})
	return nil
}

func (rs *ResultSet) NumRows() int {
	if rs == nil {
		return 0
	}
	return len(rs.Rows)
}

func (rs *ResultSet) NumColumns() int {
	if rs == nil {
		return 0
	}
	return len(rs.Columns)
}

func (rs *ResultSet) Cell(row, col int) (DbValue, bool) {
	if rs == nil || row < 0 || row >= len(rs.Rows) || col < 0 || col >= len(rs.Columns) {
		return DbValue{}, false
	}
	return rs.Rows[row].Cells[col], true
}

func (rs *ResultSet) SetCell(row, col int, v DbValue) bool {
	if rs == nil || row < 0 || row >= len(rs.Rows) || col < 0 || col >= len(rs.Columns) {
		return false
	}
	rs.Rows[row].Cells[col] = v
	return true
}
