package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"
)

type ConnectionType string

const (
	ConnectionSQLite   ConnectionType = "sqlite"
	ConnectionPostgres ConnectionType = "postgres"
	ConnectionMySQL    ConnectionType = "mysql"
)

type ConnectionInfo struct {
	Name     string         `json:"name"`
	Type     ConnectionType `json:"type"`
	Host     string         `json:"host,omitempty"`
	Port     int            `json:"port,omitempty"`
	User     string         `json:"user,omitempty"`
	Password string         `json:"password,omitempty"`
	Database string         `json:"database"`
	SSLMode  string         `json:"sslmode,omitempty"`
	Path     string         `json:"path,omitempty"`
	Options  string         `json:"options,omitempty"`
}

// Driver is the per-dialect capability consumed by Conn. The generic paged
// query, count, update and delete paths live on Conn; a Driver contributes
// identifier quoting, placeholder syntax, DSN construction and catalog access.
type Driver interface {
	Name() string
	Quote(ident string) string
	Placeholder(n int) string
	DSN(info *ConnectionInfo) (driverName, dsn string, err error)
	ListTables(ctx context.Context, db *sql.DB) ([]string, error)
	TableSchema(ctx context.Context, db *sql.DB, table string) (*TableSchema, error)
}

// RowCountEstimator is implemented by dialects with a fast-path estimate for
// large tables (Postgres reltuples, MySQL TABLE_ROWS).
type RowCountEstimator interface {
	EstimateRowCount(ctx context.Context, db *sql.DB, table string) (int64, error)
}

// drivers is built once before first lookup; registration order is explicit
// rather than init-dependent.
var drivers = builtinDrivers()

func builtinDrivers() map[string]Driver {
	reg := make(map[string]Driver)
	for _, d := range []Driver{
		&sqliteDriver{},
		&postgresDriver{},
		&mysqlDriver{},
	} {
		reg[d.Name()] = d
	}
	return reg
}

// RegisterDriver replaces any existing driver with the same name.
func RegisterDriver(d Driver) {
	drivers[d.Name()] = d
}

func LookupDriver(name string) (Driver, bool) {
	d, ok := drivers[name]
	return d, ok
}

var errNoEstimator = errors.New("driver has no row count estimator")

// Conn is a live database connection paired with its dialect driver.
type Conn struct {
	db       *sql.DB
	drv      Driver
	maxField int
}

func OpenConnection(ctx context.Context, info *ConnectionInfo, maxField int) (*Conn, error) {
	if info == nil {
		return nil, fmt.Errorf("connection info is required")
	}
	name := string(info.Type)
	if name == "" {
		name = string(ConnectionPostgres)
	}
	drv, ok := LookupDriver(name)
	if !ok {
		return nil, fmt.Errorf("unknown driver %q", name)
	}
	driverName, dsn, err := drv.DSN(info)
	if err != nil {
		return nil, err
	}
	db, err := sql.Open(driverName, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open connection: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	return &Conn{db: db, drv: drv, maxField: maxField}, nil
}

func (c *Conn) Close() error {
	if c == nil || c.db == nil {
		return nil
	}
	return c.db.Close()
}

func (c *Conn) Driver() Driver { return c.drv }

func (c *Conn) ListTables(ctx context.Context) ([]string, error) {
	return c.drv.ListTables(ctx, c.db)
}

func (c *Conn) TableSchema(ctx context.Context, table string) (*TableSchema, error) {
	return c.drv.TableSchema(ctx, c.db, table)
}

func (c *Conn) Query(ctx context.Context, sqlText string) (*ResultSet, error) {
	rows, err := c.db.QueryContext(ctx, sqlText)
	if err != nil {
		return nil, fmt.Errorf("query failed: %w", err)
	}
	defer rows.Close()
	return scanResultSet(rows, c.maxField)
}

func (c *Conn) Exec(ctx context.Context, sqlText string) (int64, error) {
	res, err := c.db.ExecContext(ctx, sqlText)
	if err != nil {
		return 0, fmt.Errorf("exec failed: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return 0, nil
	}
	return affected, nil
}

func (c *Conn) QueryPage(ctx context.Context, table string, offset, limit int, orderBy string) (*ResultSet, error) {
	return c.QueryPageWhere(ctx, table, offset, limit, "", orderBy)
}

func (c *Conn) QueryPageWhere(ctx context.Context, table string, offset, limit int, where, orderBy string) (*ResultSet, error) {
	var sb strings.Builder
	fmt.Fprintf(&sb, "SELECT * FROM %s", c.drv.Quote(table))
	if where != "" {
		fmt.Fprintf(&sb, " WHERE %s", where)
	}
	if orderBy != "" {
		fmt.Fprintf(&sb, " ORDER BY %s", orderBy)
	}
	fmt.Fprintf(&sb, " LIMIT %d OFFSET %d", limit, offset)

	rows, err := c.db.QueryContext(ctx, sb.String())
	if err != nil {
		return nil, fmt.Errorf("page query failed: %w", err)
	}
	defer rows.Close()
	return scanResultSet(rows, c.maxField)
}

func (c *Conn) CountRows(ctx context.Context, table string) (int64, error) {
	return c.CountRowsWhere(ctx, table, "")
}

func (c *Conn) CountRowsWhere(ctx context.Context, table, where string) (int64, error) {
	query := fmt.Sprintf("SELECT COUNT(*) FROM %s", c.drv.Quote(table))
	if where != "" {
		query += " WHERE " + where
	}
	var count int64
	if err := c.db.QueryRowContext(ctx, query).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count rows: %w", err)
	}
	return count, nil
}

func (c *Conn) EstimateRowCount(ctx context.Context, table string) (int64, error) {
	est, ok := c.drv.(RowCountEstimator)
	if !ok {
		return 0, errNoEstimator
	}
	return est.EstimateRowCount(ctx, c.db, table)
}

// UpdateCell writes one cell addressed by primary key. Returns whether a row
// was actually updated.
func (c *Conn) UpdateCell(ctx context.Context, table string, pkCols []string, pkVals []DbValue, column string, newValue interface{}) (bool, error) {
	if len(pkCols) == 0 || len(pkCols) != len(pkVals) {
		return false, fmt.Errorf("primary key columns and values mismatch")
	}
	where, args := c.pkPredicate(pkCols, pkVals, 2)
	query := fmt.Sprintf("UPDATE %s SET %s = %s WHERE %s",
		c.drv.Quote(table), c.drv.Quote(column), c.drv.Placeholder(1), where)
	allArgs := append([]interface{}{newValue}, args...)
	res, err := c.db.ExecContext(ctx, query, allArgs...)
	if err != nil {
		return false, fmt.Errorf("failed to update %s: %w", table, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return true, nil
	}
	return affected > 0, nil
}

func (c *Conn) DeleteRow(ctx context.Context, table string, pkCols []string, pkVals []DbValue) (bool, error) {
	if len(pkCols) == 0 || len(pkCols) != len(pkVals) {
		return false, fmt.Errorf("primary key columns and values mismatch")
	}
	where, args := c.pkPredicate(pkCols, pkVals, 1)
	query := fmt.Sprintf("DELETE FROM %s WHERE %s", c.drv.Quote(table), where)
	res, err := c.db.ExecContext(ctx, query, args...)
	if err != nil {
		return false, fmt.Errorf("failed to delete row: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return true, nil
	}
	return affected > 0, nil
}

func (c *Conn) pkPredicate(pkCols []string, pkVals []DbValue, firstPlaceholder int) (string, []interface{}) {
	parts := make([]string, 0, len(pkCols))
	args := make([]interface{}, 0, len(pkVals))
	for i, col := range pkCols {
		parts = append(parts, fmt.Sprintf("%s = %s", c.drv.Quote(col), c.drv.Placeholder(firstPlaceholder+i)))
		args = append(args, valueArg(pkVals[i]))
	}
	return strings.Join(parts, " AND "), args
}

// Plain-statement transaction fallback; dialects without an explicit
// transaction API all accept these.
func (c *Conn) Begin(ctx context.Context) error {
	_, err := c.Exec(ctx, "BEGIN")
	return err
}

func (c *Conn) Commit(ctx context.Context) error {
	_, err := c.Exec(ctx, "COMMIT")
	return err
}

func (c *Conn) Rollback(ctx context.Context) error {
	_, err := c.Exec(ctx, "ROLLBACK")
	return err
}

func valueArg(v DbValue) interface{} {
	if v.IsNull() {
		return nil
	}
	switch v.Type() {
	case TypeInt:
		return v.Int()
	case TypeFloat:
		return v.Float()
	case TypeBool:
		return v.Bool()
	case TypeBlob:
		return v.Blob()
	default:
		return v.Text()
	}
}

func scanResultSet(rows *sql.Rows, maxField int) (*ResultSet, error) {
	colTypes, err := rows.ColumnTypes()
	if err != nil {
		return nil, fmt.Errorf("failed to get columns: %w", err)
	}

	columns := make([]ColumnDef, len(colTypes))
	for i, ct := range colTypes {
		declared := ct.DatabaseTypeName()
		nullable, hasNullable := ct.Nullable()
		columns[i] = ColumnDef{
			Name:         ct.Name(),
			DeclaredType: declared,
			ValueType:    MapDeclaredType(declared),
			Nullable:     nullable || !hasNullable,
		}
	}

	rs := NewResultSet(columns)
	for rows.Next() {
		values := make([]interface{}, len(columns))
		ptrs := make([]interface{}, len(columns))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, fmt.Errorf("scan failed: %w", err)
		}
		cells := make([]DbValue, len(columns))
		for i, raw := range values {
			cells[i] = ScanDbValue(raw, columns[i].ValueType, maxField)
		}
		if err := rs.AppendRow(cells); err != nil {
			return nil, err
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration failed: %w", err)
	}
	return rs, nil
}

// ParseConnString parses driver://[user[:password]@]host[:port]/database[?options].
// sqlite:// treats everything after the scheme as a file path.
func ParseConnString(raw string) (*ConnectionInfo, error) {
	raw = strings.TrimSpace(raw)
	idx := strings.Index(raw, "://")
	if idx < 0 {
		return nil, fmt.Errorf("connection string missing scheme: %q", raw)
	}
	scheme := strings.ToLower(raw[:idx])

	switch scheme {
	case "sqlite", "sqlite3":
		path := raw[idx+3:]
		if path == "" {
			return nil, fmt.Errorf("sqlite connection requires a file path")
		}
		return &ConnectionInfo{
			Name:     path,
			Type:     ConnectionSQLite,
			Path:     path,
			Database: path,
		}, nil
	case "postgres", "postgresql", "mysql", "mariadb":
	default:
		return nil, fmt.Errorf("unknown driver scheme %q", scheme)
	}

	u, err := url.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("invalid connection string: %w", err)
	}

	connType := ConnectionPostgres
	if scheme == "mysql" || scheme == "mariadb" {
		connType = ConnectionMySQL
	}

	info := &ConnectionInfo{
		Type:     connType,
		Host:     u.Hostname(),
		Database: strings.TrimPrefix(u.Path, "/"),
		Options:  u.RawQuery,
	}
	if info.Host == "" {
		info.Host = "localhost"
	}
	if u.User != nil {
		info.User = u.User.Username()
		info.Password, _ = u.User.Password()
	}
	if port := u.Port(); port != "" {
		p, err := strconv.Atoi(port)
		if err != nil {
			return nil, fmt.Errorf("invalid port %q", port)
		}
		info.Port = p
	} else if connType == ConnectionPostgres {
		info.Port = 5432
	} else {
		info.Port = 3306
	}
	if mode := u.Query().Get("sslmode"); mode != "" {
		info.SSLMode = mode
	}
	info.Name = fmt.Sprintf("%s/%s", info.Host, info.Database)
	return info, nil
}

func FormatConnString(info *ConnectionInfo) string {
	if info == nil {
		return ""
	}
	if info.Type == ConnectionSQLite {
		return "sqlite://" + info.Path
	}
	u := url.URL{
		Scheme: string(info.Type),
		Host:   fmt.Sprintf("%s:%d", info.Host, info.Port),
		Path:   "/" + info.Database,
	}
	if info.User != "" {
		if info.Password != "" {
			u.User = url.UserPassword(info.User, info.Password)
		} else {
			u.User = url.User(info.User)
		}
	}
	q := url.Values{}
	if info.SSLMode != "" {
		q.Set("sslmode", info.SSLMode)
	}
	u.RawQuery = q.Encode()
	return u.String()
}
