package main

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	_ "github.com/mattn/go-sqlite3"
)

type sqliteDriver struct{}

func (d *sqliteDriver) Name() string { return "sqlite" }

func (d *sqliteDriver) Quote(ident string) string {
	return `"` + strings.ReplaceAll(ident, `"`, `""`) + `"`
}

func (d *sqliteDriver) Placeholder(n int) string { return "?" }

func (d *sqliteDriver) DSN(info *ConnectionInfo) (string, string, error) {
	path := info.Path
	if path == "" {
		path = info.Database
	}
	if strings.TrimSpace(path) == "" {
		return "", "", fmt.Errorf("sqlite connection requires a file path")
	}
	return "sqlite3", path, nil
}

func (d *sqliteDriver) ListTables(ctx context.Context, db *sql.DB) ([]string, error) {
	const query = `
		SELECT name
		FROM sqlite_master
		WHERE type = 'table'
			AND name NOT LIKE 'sqlite_%'
		ORDER BY name;
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

func (d *sqliteDriver) TableSchema(ctx context.Context, db *sql.DB, table string) (*TableSchema, error) {
	schema := &TableSchema{Table: table}

	rows, err := db.QueryContext(ctx, fmt.Sprintf("PRAGMA table_info(%s);", d.Quote(table)))
	if err != nil {
		return nil, fmt.Errorf("failed to list columns: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			cid        int
			name       string
			dataType   string
			notNull    int
			defaultVal sql.NullString
			pk         int
		)
		if err := rows.Scan(&cid, &name, &dataType, &notNull, &defaultVal, &pk); err != nil {
			return nil, fmt.Errorf("failed to scan column: %w", err)
		}
		schema.Columns = append(schema.Columns, ColumnDef{
			Name:         name,
			DeclaredType: dataType,
			ValueType:    MapDeclaredType(dataType),
			Nullable:     notNull == 0,
			PrimaryKey:   pk > 0,
			DefaultValue: defaultVal.String,
			HasDefault:   defaultVal.Valid,
		})
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	// A single INTEGER PRIMARY KEY is the rowid alias and auto-increments.
	if pks := schema.PrimaryKeyColumns(); len(pks) == 1 && strings.EqualFold(pks[0].DeclaredType, "integer") {
		idx := schema.ColumnIndex(pks[0].Name)
		schema.Columns[idx].AutoIncrement = true
	}

	if err := d.loadIndexes(ctx, db, schema); err != nil {
		return nil, err
	}
	if err := d.loadForeignKeys(ctx, db, schema); err != nil {
		return nil, err
	}
	return schema, nil
}

func (d *sqliteDriver) loadIndexes(ctx context.Context, db *sql.DB, schema *TableSchema) error {
	rows, err := db.QueryContext(ctx, fmt.Sprintf("PRAGMA index_list(%s);", d.Quote(schema.Table)))
	if err != nil {
		return fmt.Errorf("failed to list indexes: %w", err)
	}
	defer rows.Close()

	type idxEntry struct {
		name   string
		unique bool
	}
	var entries []idxEntry
	for rows.Next() {
		var (
			seq     int
			name    string
			unique  int
			origin  string
			partial int
		)
		if err := rows.Scan(&seq, &name, &unique, &origin, &partial); err != nil {
			return fmt.Errorf("failed to scan index: %w", err)
		}
		entries = append(entries, idxEntry{name: name, unique: unique != 0})
	}
	if err := rows.Err(); err != nil {
		return err
	}

	for _, e := range entries {
		cols, err := d.indexColumns(ctx, db, e.name)
		if err != nil {
			return err
		}
		schema.Indexes = append(schema.Indexes, IndexDef{Name: e.name, Unique: e.unique, Columns: cols})
	}
	return nil
}

func (d *sqliteDriver) indexColumns(ctx context.Context, db *sql.DB, index string) ([]string, error) {
	rows, err := db.QueryContext(ctx, fmt.Sprintf("PRAGMA index_info(%s);", d.Quote(index)))
	if err != nil {
		return nil, fmt.Errorf("failed to read index %s: %w", index, err)
	}
	defer rows.Close()

	var cols []string
	for rows.Next() {
		var (
			seqno int
			cid   int
			name  sql.NullString
		)
		if err := rows.Scan(&seqno, &cid, &name); err != nil {
			return nil, fmt.Errorf("failed to scan index column: %w", err)
		}
		if name.Valid {
			cols = append(cols, name.String)
		}
	}
	return cols, rows.Err()
}

func (d *sqliteDriver) loadForeignKeys(ctx context.Context, db *sql.DB, schema *TableSchema) error {
	rows, err := db.QueryContext(ctx, fmt.Sprintf("PRAGMA foreign_key_list(%s);", d.Quote(schema.Table)))
	if err != nil {
		return fmt.Errorf("failed to list foreign keys: %w", err)
	}
	defer rows.Close()

	fks := make(map[int]*ForeignKeyDef)
	var order []int
	for rows.Next() {
		var (
			id       int
			seq      int
			refTable string
			from     string
			to       sql.NullString
			onUpdate string
			onDelete string
			match    string
		)
		if err := rows.Scan(&id, &seq, &refTable, &from, &to, &onUpdate, &onDelete, &match); err != nil {
			return fmt.Errorf("failed to scan foreign key: %w", err)
		}
		fk, ok := fks[id]
		if !ok {
			fk = &ForeignKeyDef{ReferencedTable: refTable, OnUpdate: onUpdate, OnDelete: onDelete}
			fks[id] = fk
			order = append(order, id)
		}
		fk.LocalColumns = append(fk.LocalColumns, from)
		if to.Valid {
			fk.ReferencedColumns = append(fk.ReferencedColumns, to.String)
		}
	}
	if err := rows.Err(); err != nil {
		return err
	}

	for _, id := range order {
		fk := fks[id]
		schema.ForeignKeys = append(schema.ForeignKeys, *fk)
		for _, local := range fk.LocalColumns {
			if idx := schema.ColumnIndex(local); idx >= 0 {
				schema.Columns[idx].ForeignKeyRef = fk.ReferencedTable
			}
		}
	}
	return nil
}
