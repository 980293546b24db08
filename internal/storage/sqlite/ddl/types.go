// Package ddl contains SQLite-specific helpers for generating DDL.
package ddl

import (
	"strings"

	"claimsfe/internal/frame"
)

// MapType maps an engine column type to a SQLite type affinity:
//   - integers and booleans -> INTEGER
//   - FLOAT, DOUBLE         -> REAL
//   - DECIMAL, HUGEINT      -> NUMERIC
//   - BLOB                  -> BLOB
//   - dates, nested values and everything else -> TEXT (ISO-8601, JSON)
func MapType(c frame.Column) string {
	if c.Nested() {
		return "TEXT"
	}
	t := strings.ToUpper(strings.TrimSpace(c.Type))
	if strings.HasPrefix(t, "DECIMAL") {
		return "NUMERIC"
	}
	switch t {
	case "TINYINT", "SMALLINT", "INTEGER", "BIGINT", "UTINYINT", "USMALLINT", "UINTEGER", "UBIGINT", "BOOLEAN":
		return "INTEGER"
	case "HUGEINT", "UHUGEINT":
		return "NUMERIC"
	case "FLOAT", "DOUBLE":
		return "REAL"
	case "BLOB":
		return "BLOB"
	default:
		return "TEXT"
	}
}
