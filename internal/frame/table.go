// Package frame is the working-table handle used by the feature pipeline.
//
// A Table names one materialized table inside the embedded DuckDB engine and
// caches its schema. Transformations never modify a table in place: Replace
// materializes a new generation from a SELECT over the current one and drops
// the old generation once the new one exists.
package frame

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
)

// Well-known claim columns.
const (
	PatientColumn   = "patient_id"
	DateColumn      = "claim_statement_from_date"
	DiagnosisColumn = "claim_all_diagnosis_codes"

	// SeqColumn is the stable row identifier assigned at load time. It breaks
	// ties between claims of the same patient on the same date.
	SeqColumn = "claim_seq"
)

// Conn is the subset of *sql.Conn used by Table. All generations of a table
// must share one connection so that session settings and registered
// functions stay visible.
type Conn interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
	Raw(f func(driverConn any) error) error
}

// Column describes one column of a Table as reported by the engine.
type Column struct {
	Name string
	Type string // engine type name, e.g. VARCHAR, DATE, STRUCT(...)[]
}

// Nested reports whether the column holds a LIST, STRUCT or MAP value.
func (c Column) Nested() bool {
	t := strings.ToUpper(c.Type)
	return strings.HasSuffix(t, "[]") || strings.HasPrefix(t, "STRUCT") ||
		strings.HasPrefix(t, "MAP") || strings.HasPrefix(t, "UNION")
}

// Shape is the row and column count of a table.
type Shape struct {
	Rows    int64
	Columns int
}

// Table is a handle on one generation of the working table.
type Table struct {
	conn    Conn
	base    string
	gen     int
	columns []Column
}

// Open returns a handle on an existing engine table. The schema is read once
// and cached on the handle.
func Open(ctx context.Context, conn Conn, name string) (*Table, error) {
	base, gen := splitGeneration(name)
	t := &Table{conn: conn, base: base, gen: gen}
	cols, err := describe(ctx, conn, t.Name())
	if err != nil {
		return nil, err
	}
	if len(cols) == 0 {
		return nil, fmt.Errorf("frame: table %q not found", t.Name())
	}
	t.columns = cols
	return t, nil
}

// Create materializes query as table name and returns a handle on it.
func Create(ctx context.Context, conn Conn, name, query string, args ...any) (*Table, error) {
	stmt := "CREATE OR REPLACE TABLE " + Ident(name) + " AS " + query
	if _, err := conn.ExecContext(ctx, stmt, args...); err != nil {
		return nil, fmt.Errorf("frame: create %s: %w", name, err)
	}
	return Open(ctx, conn, name)
}

// Name returns the engine table name of this generation.
func (t *Table) Name() string {
	if t.gen == 0 {
		return t.base
	}
	return fmt.Sprintf("%s__%d", t.base, t.gen)
}

// Ref returns the quoted table name for use in SQL text.
func (t *Table) Ref() string { return Ident(t.Name()) }

// Conn returns the connection the table lives on.
func (t *Table) Conn() Conn { return t.conn }

// Columns returns a copy of the cached schema.
func (t *Table) Columns() []Column {
	out := make([]Column, len(t.columns))
	copy(out, t.columns)
	return out
}

// ColumnNames returns the column names in table order.
func (t *Table) ColumnNames() []string {
	out := make([]string, len(t.columns))
	for i, c := range t.columns {
		out[i] = c.Name
	}
	return out
}

// Column looks up a column by name.
func (t *Table) Column(name string) (Column, bool) {
	for _, c := range t.columns {
		if c.Name == name {
			return c, true
		}
	}
	return Column{}, false
}

// Has reports whether the table has a column called name.
func (t *Table) Has(name string) bool {
	_, ok := t.Column(name)
	return ok
}

// Require returns a *MissingColumnError for the first name that is not a
// column of the table.
func (t *Table) Require(names ...string) error {
	for _, n := range names {
		if !t.Has(n) {
			return &MissingColumnError{Table: t.Name(), Column: n}
		}
	}
	return nil
}

// Count returns the number of rows.
func (t *Table) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := t.conn.QueryRowContext(ctx, "SELECT count(*) FROM "+t.Ref()).Scan(&n); err != nil {
		return 0, fmt.Errorf("frame: count %s: %w", t.Name(), err)
	}
	return n, nil
}

// Shape returns the row and column counts.
func (t *Table) Shape(ctx context.Context) (Shape, error) {
	n, err := t.Count(ctx)
	if err != nil {
		return Shape{}, err
	}
	return Shape{Rows: n, Columns: len(t.columns)}, nil
}

// Replace materializes query as the next generation of the table and drops
// the current generation. query may reference the current generation through
// t.Ref(). On error the current generation is left untouched.
func (t *Table) Replace(ctx context.Context, query string, args ...any) (*Table, error) {
	next := &Table{conn: t.conn, base: t.base, gen: t.gen + 1}
	created, err := Create(ctx, t.conn, next.Name(), query, args...)
	if err != nil {
		return nil, err
	}
	// Best effort; a leftover generation only costs memory until Close.
	_ = t.Drop(ctx)
	return created, nil
}

// Drop removes this generation from the engine.
func (t *Table) Drop(ctx context.Context) error {
	if _, err := t.conn.ExecContext(ctx, "DROP TABLE IF EXISTS "+t.Ref()); err != nil {
		return fmt.Errorf("frame: drop %s: %w", t.Name(), err)
	}
	return nil
}

// OrderBy returns the ORDER BY list of the ordering invariant, limited to the
// columns the table actually has.
func (t *Table) OrderBy() []string {
	var out []string
	for _, c := range []string{PatientColumn, DateColumn, SeqColumn} {
		if t.Has(c) {
			out = append(out, Ident(c))
		}
	}
	return out
}

func describe(ctx context.Context, conn Conn, name string) ([]Column, error) {
	rows, err := conn.QueryContext(ctx, `
		SELECT column_name, data_type
		FROM information_schema.columns
		WHERE table_name = ?
		ORDER BY ordinal_position`, name)
	if err != nil {
		return nil, fmt.Errorf("frame: describe %s: %w", name, err)
	}
	defer rows.Close()

	var cols []Column
	for rows.Next() {
		var c Column
		if err := rows.Scan(&c.Name, &c.Type); err != nil {
			return nil, fmt.Errorf("frame: describe %s: %w", name, err)
		}
		cols = append(cols, c)
	}
	return cols, rows.Err()
}

// splitGeneration parses "claims__3" into ("claims", 3).
func splitGeneration(name string) (string, int) {
	i := strings.LastIndex(name, "__")
	if i <= 0 {
		return name, 0
	}
	var gen int
	if _, err := fmt.Sscanf(name[i+2:], "%d", &gen); err != nil || gen <= 0 {
		return name, 0
	}
	if fmt.Sprintf("%d", gen) != name[i+2:] {
		return name, 0
	}
	return name[:i], gen
}
