package ddl

import (
	gddl "claimsfe/internal/ddl"
	"claimsfe/internal/frame"
)

// FromColumns builds the Postgres table definition for table.
func FromColumns(table string, columns []frame.Column) gddl.TableDef {
	return gddl.FromColumns(table, columns, MapType)
}

// BuildCreateTableSQL returns a CREATE TABLE IF NOT EXISTS statement with
// double-quoted identifiers.
func BuildCreateTableSQL(t gddl.TableDef) (string, error) {
	return gddl.BuildCreateTableSQL(t, gddl.QuoteDouble)
}
