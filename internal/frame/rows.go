package frame

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
)

// Rows is a fully materialized, local copy of part of a table.
type Rows struct {
	Columns []string
	Values  [][]any
}

// Len returns the number of rows.
func (r Rows) Len() int { return len(r.Values) }

// Row returns row i keyed by column name.
func (r Rows) Row(i int) map[string]any {
	m := make(map[string]any, len(r.Columns))
	for j, c := range r.Columns {
		m[c] = r.Values[i][j]
	}
	return m
}

// Column returns all values of the named column, or false when absent.
func (r Rows) Column(name string) ([]any, bool) {
	idx := -1
	for j, c := range r.Columns {
		if c == name {
			idx = j
			break
		}
	}
	if idx < 0 {
		return nil, false
	}
	out := make([]any, len(r.Values))
	for i, row := range r.Values {
		out[i] = row[idx]
	}
	return out, true
}

// Bounds is the global minimum and maximum of a column.
type Bounds struct {
	Min any
	Max any
}

// Head materializes the first n rows in the table's natural order.
func (t *Table) Head(ctx context.Context, n int) (Rows, error) {
	if n < 0 {
		n = 0
	}
	q := "SELECT * FROM " + t.Ref() + t.orderClause() + fmt.Sprintf(" LIMIT %d", n)
	return collect(ctx, t.conn, q)
}

// Where materializes every row whose column equals value. The value is cast
// to the column's type, so "42" matches an INTEGER column.
func (t *Table) Where(ctx context.Context, column string, value any) (Rows, error) {
	c, ok := t.Column(column)
	if !ok {
		return Rows{}, &MissingColumnError{Table: t.Name(), Column: column}
	}
	q := fmt.Sprintf("SELECT * FROM %s WHERE %s = CAST(? AS %s)%s",
		t.Ref(), Ident(c.Name), c.Type, t.orderClause())
	return collect(ctx, t.conn, q, value)
}

// MinMax returns the global minimum and maximum of column.
func (t *Table) MinMax(ctx context.Context, column string) (Bounds, error) {
	if err := t.Require(column); err != nil {
		return Bounds{}, err
	}
	var b Bounds
	q := fmt.Sprintf("SELECT min(%[1]s), max(%[1]s) FROM %[2]s", Ident(column), t.Ref())
	if err := t.conn.QueryRowContext(ctx, q).Scan(&b.Min, &b.Max); err != nil {
		return Bounds{}, fmt.Errorf("frame: min/max %s: %w", column, err)
	}
	return b, nil
}

// Stream calls fn for every row in natural order. The values slice is
// reused between calls; fn must copy it to retain it.
func (t *Table) Stream(ctx context.Context, fn func(values []any) error) error {
	rows, err := t.conn.QueryContext(ctx, "SELECT * FROM "+t.Ref()+t.orderClause())
	if err != nil {
		return fmt.Errorf("frame: stream %s: %w", t.Name(), err)
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return err
	}
	vals := make([]any, len(cols))
	ptrs := make([]any, len(cols))
	for i := range vals {
		ptrs[i] = &vals[i]
	}
	for rows.Next() {
		if err := rows.Scan(ptrs...); err != nil {
			return fmt.Errorf("frame: stream %s: %w", t.Name(), err)
		}
		if err := fn(vals); err != nil {
			return err
		}
	}
	return rows.Err()
}

func (t *Table) orderClause() string {
	order := t.OrderBy()
	if len(order) == 0 {
		return ""
	}
	return " ORDER BY " + strings.Join(order, ", ")
}

func collect(ctx context.Context, conn Conn, query string, args ...any) (Rows, error) {
	rows, err := conn.QueryContext(ctx, query, args...)
	if err != nil {
		return Rows{}, fmt.Errorf("frame: query: %w", err)
	}
	defer rows.Close()
	return scanAll(rows)
}

func scanAll(rows *sql.Rows) (Rows, error) {
	cols, err := rows.Columns()
	if err != nil {
		return Rows{}, err
	}
	out := Rows{Columns: cols}
	for rows.Next() {
		vals := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range vals {
			ptrs[i] = &vals[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return Rows{}, fmt.Errorf("frame: scan: %w", err)
		}
		out.Values = append(out.Values, vals)
	}
	return out, rows.Err()
}
