// Package ddl contains MySQL-specific helpers for generating DDL.
package ddl

import (
	"strings"

	"claimsfe/internal/frame"
)

// MapType maps an engine column type to a MySQL column type. Lists,
// structs and maps are stored as JSON.
func MapType(c frame.Column) string {
	if c.Nested() {
		return "JSON"
	}
	t := strings.ToUpper(strings.TrimSpace(c.Type))
	if strings.HasPrefix(t, "DECIMAL") {
		return t
	}
	switch t {
	case "TINYINT", "SMALLINT", "INTEGER", "BIGINT", "UTINYINT", "USMALLINT", "UINTEGER":
		return "BIGINT"
	case "UBIGINT":
		return "BIGINT UNSIGNED"
	case "HUGEINT", "UHUGEINT":
		return "DECIMAL(38, 0)"
	case "FLOAT":
		return "FLOAT"
	case "DOUBLE":
		return "DOUBLE"
	case "BOOLEAN":
		return "BOOLEAN"
	case "DATE":
		return "DATE"
	case "TIMESTAMP", "TIMESTAMP WITH TIME ZONE", "TIMESTAMPTZ", "TIMESTAMP_MS", "TIMESTAMP_NS", "TIMESTAMP_S":
		return "DATETIME(6)"
	case "BLOB":
		return "LONGBLOB"
	default:
		return "LONGTEXT"
	}
}
