package main

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	_ "github.com/go-sql-driver/mysql"
)

type mysqlDriver struct{}

func (d *mysqlDriver) Name() string { return "mysql" }

func (d *mysqlDriver) Quote(ident string) string {
	return "`" + strings.ReplaceAll(ident, "`", "``") + "`"
}

func (d *mysqlDriver) Placeholder(n int) string { return "?" }

func (d *mysqlDriver) DSN(info *ConnectionInfo) (string, string, error) {
	if info.Database == "" {
		return "", "", fmt.Errorf("mysql connection requires a database name")
	}
	port := info.Port
	if port == 0 {
		port = 3306
	}
	dsn := fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?parseTime=true",
		info.User, info.Password, info.Host, port, info.Database)
	return "mysql", dsn, nil
}

func (d *mysqlDriver) ListTables(ctx context.Context, db *sql.DB) ([]string, error) {
	const query = `
		SELECT table_name
		FROM information_schema.tables
		WHERE table_schema = DATABASE()
			AND table_type = 'BASE TABLE'
		ORDER BY table_name
	`

	rows, err := db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list tables: %w", err)
	}
	defer rows.Close()

	var tables []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("failed to scan table: %w", err)
		}
		tables = append(tables, name)
	}
	return tables, rows.Err()
}

func (d *mysqlDriver) TableSchema(ctx context.Context, db *sql.DB, table string) (*TableSchema, error) {
	schema := &TableSchema{Table: table}

	const colQuery = `
		SELECT
			column_name,
			column_type,
			is_nullable = 'YES',
			COALESCE(column_default, ''),
			column_default IS NOT NULL,
			column_key = 'PRI',
			extra LIKE '%auto_increment%'
		FROM information_schema.columns
		WHERE table_schema = DATABASE() AND table_name = ?
		ORDER BY ordinal_position
	`

	rows, err := db.QueryContext(ctx, colQuery, table)
	if err != nil {
		return nil, fmt.Errorf("failed to list columns: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			name       string
			dataType   string
			nullable   bool
			defaultVal string
			hasDefault bool
			primaryKey bool
			autoInc    bool
		)
		if err := rows.Scan(&name, &dataType, &nullable, &defaultVal, &hasDefault, &primaryKey, &autoInc); err != nil {
			return nil, fmt.Errorf("failed to scan column: %w", err)
		}
		schema.Columns = append(schema.Columns, ColumnDef{
			Name:          name,
			DeclaredType:  dataType,
			ValueType:     MapDeclaredType(dataType),
			Nullable:      nullable,
			PrimaryKey:    primaryKey,
			DefaultValue:  defaultVal,
			HasDefault:    hasDefault,
			AutoIncrement: autoInc,
		})
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	if err := d.loadIndexes(ctx, db, schema); err != nil {
		return nil, err
	}
	if err := d.loadForeignKeys(ctx, db, schema); err != nil {
		return nil, err
	}
	return schema, nil
}

func (d *mysqlDriver) loadIndexes(ctx context.Context, db *sql.DB, schema *TableSchema) error {
	const query = `
		SELECT index_name, non_unique = 0, column_name
		FROM information_schema.statistics
		WHERE table_schema = DATABASE() AND table_name = ?
		ORDER BY index_name, seq_in_index
	`

	rows, err := db.QueryContext(ctx, query, schema.Table)
	if err != nil {
		return fmt.Errorf("failed to list indexes: %w", err)
	}
	defer rows.Close()

	byName := make(map[string]*IndexDef)
	var order []string
	for rows.Next() {
		var (
			name   string
			unique bool
			column string
		)
		if err := rows.Scan(&name, &unique, &column); err != nil {
			return fmt.Errorf("failed to scan index: %w", err)
		}
		idx, ok := byName[name]
		if !ok {
			idx = &IndexDef{Name: name, Unique: unique}
			byName[name] = idx
			order = append(order, name)
		}
		idx.Columns = append(idx.Columns, column)
	}
	if err := rows.Err(); err != nil {
		return err
	}

	for _, name := range order {
		schema.Indexes = append(schema.Indexes, *byName[name])
	}
	return nil
}

func (d *mysqlDriver) loadForeignKeys(ctx context.Context, db *sql.DB, schema *TableSchema) error {
	const query = `
		SELECT
			kcu.constraint_name,
			kcu.referenced_table_name,
			kcu.column_name,
			kcu.referenced_column_name,
			rc.update_rule,
			rc.delete_rule
		FROM information_schema.key_column_usage kcu
		JOIN information_schema.referential_constraints rc
			ON rc.constraint_name = kcu.constraint_name
			AND rc.constraint_schema = kcu.table_schema
		WHERE kcu.table_schema = DATABASE()
			AND kcu.table_name = ?
			AND kcu.referenced_table_name IS NOT NULL
		ORDER BY kcu.constraint_name, kcu.ordinal_position
	`

	rows, err := db.QueryContext(ctx, query, schema.Table)
	if err != nil {
		return fmt.Errorf("failed to list foreign keys: %w", err)
	}
	defer rows.Close()

	byName := make(map[string]*ForeignKeyDef)
	var order []string
	for rows.Next() {
		var (
			constraint string
			refTable   string
			localCol   string
			refCol     string
			onUpdate   string
			onDelete   string
		)
		if err := rows.Scan(&constraint, &refTable, &localCol, &refCol, &onUpdate, &onDelete); err != nil {
			return fmt.Errorf("failed to scan foreign key: %w", err)
		}
		fk, ok := byName[constraint]
		if !ok {
			fk = &ForeignKeyDef{ReferencedTable: refTable, OnUpdate: onUpdate, OnDelete: onDelete}
			byName[constraint] = fk
			order = append(order, constraint)
		}
		fk.LocalColumns = append(fk.LocalColumns, localCol)
		fk.ReferencedColumns = append(fk.ReferencedColumns, refCol)
	}
	if err := rows.Err(); err != nil {
		return err
	}

	for _, name := range order {
		fk := byName[name]
		schema.ForeignKeys = append(schema.ForeignKeys, *fk)
		for _, local := range fk.LocalColumns {
			if idx := schema.ColumnIndex(local); idx >= 0 {
				schema.Columns[idx].ForeignKeyRef = fk.ReferencedTable
			}
		}
	}
	return nil
}

func (d *mysqlDriver) EstimateRowCount(ctx context.Context, db *sql.DB, table string) (int64, error) {
	const query = `
		SELECT table_rows
		FROM information_schema.tables
		WHERE table_schema = DATABASE() AND table_name = ?
	`
	var estimate sql.NullInt64
	if err := db.QueryRowContext(ctx, query, table).Scan(&estimate); err != nil {
		return 0, fmt.Errorf("failed to estimate row count: %w", err)
	}
	if !estimate.Valid {
		return 0, fmt.Errorf("table %s has no row estimate", table)
	}
	return estimate.Int64, nil
}
