package main

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	_ "github.com/lib/pq"
)

type postgresDriver struct{}

func (d *postgresDriver) Name() string { return "postgres" }

func (d *postgresDriver) Quote(ident string) string {
	return `"` + strings.ReplaceAll(ident, `"`, `""`) + `"`
}

func (d *postgresDriver) Placeholder(n int) string { return fmt.Sprintf("$%d", n) }

func (d *postgresDriver) DSN(info *ConnectionInfo) (string, string, error) {
	if info.Database == "" {
		return "", "", fmt.Errorf("postgres connection requires a database name")
	}
	sslMode := info.SSLMode
	if sslMode == "" {
		sslMode = "disable"
	}
	port := info.Port
	if port == 0 {
		port = 5432
	}
	dsn := fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		info.Host, port, info.User, info.Password, info.Database, sslMode,
	)
	return "postgres", dsn, nil
}

func (d *postgresDriver) ListTables(ctx context.Context, db *sql.DB) ([]string, error) {
	const query = `
		SELECT table_name
		FROM information_schema.tables
		WHERE table_schema = 'public'
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

func (d *postgresDriver) TableSchema(ctx context.Context, db *sql.DB, table string) (*TableSchema, error) {
	schema := &TableSchema{Table: table}

	const colQuery = `
		SELECT
			c.column_name,
			c.data_type,
			c.is_nullable = 'YES',
			COALESCE(c.column_default, ''),
			c.column_default IS NOT NULL,
			c.column_default LIKE 'nextval(%' OR c.is_identity = 'YES',
			EXISTS (
				SELECT 1
				FROM information_schema.key_column_usage kcu
				JOIN information_schema.table_constraints tc
					ON tc.constraint_name = kcu.constraint_name
					AND tc.table_schema = kcu.table_schema
				WHERE kcu.table_schema = 'public'
					AND kcu.table_name = c.table_name
					AND kcu.column_name = c.column_name
					AND tc.constraint_type = 'PRIMARY KEY'
			)
		FROM information_schema.columns c
		WHERE c.table_schema = 'public' AND c.table_name = $1
		ORDER BY c.ordinal_position
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
			autoInc    bool
			primaryKey bool
		)
		if err := rows.Scan(&name, &dataType, &nullable, &defaultVal, &hasDefault, &autoInc, &primaryKey); err != nil {
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

func (d *postgresDriver) loadIndexes(ctx context.Context, db *sql.DB, schema *TableSchema) error {
	const query = `
		SELECT
			i.relname,
			ix.indisunique,
			a.attname
		FROM pg_class t
		JOIN pg_index ix ON ix.indrelid = t.oid
		JOIN pg_class i ON i.oid = ix.indexrelid
		JOIN pg_attribute a ON a.attrelid = t.oid AND a.attnum = ANY(ix.indkey)
		WHERE t.relname = $1 AND t.relkind = 'r'
		ORDER BY i.relname, array_position(ix.indkey, a.attnum)
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

func (d *postgresDriver) loadForeignKeys(ctx context.Context, db *sql.DB, schema *TableSchema) error {
	const query = `
		SELECT
			tc.constraint_name,
			ccu.table_name,
			kcu.column_name,
			ccu.column_name,
			rc.update_rule,
			rc.delete_rule
		FROM information_schema.table_constraints tc
		JOIN information_schema.key_column_usage kcu
			ON kcu.constraint_name = tc.constraint_name AND kcu.table_schema = tc.table_schema
		JOIN information_schema.constraint_column_usage ccu
			ON ccu.constraint_name = tc.constraint_name AND ccu.table_schema = tc.table_schema
		JOIN information_schema.referential_constraints rc
			ON rc.constraint_name = tc.constraint_name AND rc.constraint_schema = tc.table_schema
		WHERE tc.table_schema = 'public'
			AND tc.table_name = $1
			AND tc.constraint_type = 'FOREIGN KEY'
		ORDER BY tc.constraint_name, kcu.ordinal_position
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

// EstimateRowCount reads the planner's row estimate. Cheap even on huge
// tables, but only as fresh as the last ANALYZE.
func (d *postgresDriver) EstimateRowCount(ctx context.Context, db *sql.DB, table string) (int64, error) {
	const query = `
		SELECT reltuples::bigint
		FROM pg_class
		WHERE relname = $1 AND relkind = 'r'
	`
	var estimate int64
	if err := db.QueryRowContext(ctx, query, table).Scan(&estimate); err != nil {
		return 0, fmt.Errorf("failed to estimate row count: %w", err)
	}
	if estimate < 0 {
		return 0, fmt.Errorf("table %s has no row estimate", table)
	}
	return estimate, nil
}
