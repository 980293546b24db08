// Package ddl is a small, dialect-neutral model of CREATE TABLE plus the
// rendering shared by the storage backends. Backends supply their own
// identifier quoting and type mapping.
package ddl

import (
	"fmt"
	"strings"

	"claimsfe/internal/frame"
)

// Quoter quotes one identifier segment.
type Quoter func(id string) string

// QuoteDouble is ANSI double-quote quoting, used by Postgres and SQLite.
func QuoteDouble(id string) string { return `"` + strings.ReplaceAll(id, `"`, `""`) + `"` }

// QuoteFQN quotes each dotted segment of fqn with q. Empty segments are
// dropped.
func QuoteFQN(fqn string, q Quoter) string {
	parts := strings.Split(fqn, ".")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		out = append(out, q(p))
	}
	return strings.Join(out, ".")
}

// FromColumns builds a TableDef for fqn from engine columns, mapping each
// engine type with mapType.
func FromColumns(fqn string, columns []frame.Column, mapType func(frame.Column) string) TableDef {
	def := TableDef{FQN: fqn, Columns: make([]ColumnDef, 0, len(columns))}
	for _, c := range columns {
		def.Columns = append(def.Columns, ColumnDef{Name: c.Name, SQLType: mapType(c)})
	}
	return def
}

// ColumnClauses validates t and renders one "<name> <type>" clause per
// column.
func ColumnClauses(t TableDef, q Quoter) ([]string, error) {
	fqn := strings.TrimSpace(t.FQN)
	if fqn == "" {
		return nil, fmt.Errorf("ddl: table FQN must not be empty")
	}
	if len(t.Columns) == 0 {
		return nil, fmt.Errorf("ddl: at least one column is required")
	}

	seen := make(map[string]struct{}, len(t.Columns))
	cols := make([]string, 0, len(t.Columns))
	for _, c := range t.Columns {
		name := strings.TrimSpace(c.Name)
		if name == "" {
			return nil, fmt.Errorf("ddl: column with empty name in table %s", fqn)
		}
		if _, dup := seen[name]; dup {
			return nil, fmt.Errorf("ddl: duplicate column %s in table %s", name, fqn)
		}
		seen[name] = struct{}{}
		typ := strings.TrimSpace(c.SQLType)
		if typ == "" {
			return nil, fmt.Errorf("ddl: column %s missing SQLType", name)
		}
		cols = append(cols, q(name)+" "+typ)
	}
	return cols, nil
}

// BuildCreateTableSQL renders
//
//	CREATE TABLE IF NOT EXISTS <fqn> (
//	  <col> <type>,
//	  ...
//	);
//
// which both Postgres and SQLite accept.
func BuildCreateTableSQL(t TableDef, q Quoter) (string, error) {
	cols, err := ColumnClauses(t, q)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf(
		"CREATE TABLE IF NOT EXISTS %s (\n  %s\n);",
		QuoteFQN(t.FQN, q),
		strings.Join(cols, ",\n  "),
	), nil
}
