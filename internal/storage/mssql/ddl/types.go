// Package ddl contains MSSQL-specific helpers for generating DDL.
//
// Engine types map onto conservative SQL Server types. Nested values are
// stored as JSON text in NVARCHAR(MAX).
package ddl

import (
	"strings"

	"claimsfe/internal/frame"
)

// MapType maps an engine column type to a SQL Server column type. Unknown
// types fall back to NVARCHAR(MAX).
func MapType(c frame.Column) string {
	if c.Nested() {
		return "NVARCHAR(MAX)"
	}
	t := strings.ToUpper(strings.TrimSpace(c.Type))
	switch {
	case strings.HasPrefix(t, "DECIMAL"):
		return "DECIMAL(38, 10)"
	case t == "TIMESTAMP WITH TIME ZONE", t == "TIMESTAMPTZ":
		return "DATETIMEOFFSET"
	case strings.HasPrefix(t, "TIMESTAMP"):
		return "DATETIME2"
	}
	switch t {
	case "TINYINT", "SMALLINT", "INTEGER", "BIGINT", "UTINYINT", "USMALLINT", "UINTEGER":
		return "BIGINT"
	case "HUGEINT", "UBIGINT":
		return "DECIMAL(38, 0)"
	case "FLOAT", "DOUBLE":
		return "FLOAT"
	case "BOOLEAN":
		return "BIT"
	case "DATE":
		return "DATE"
	case "UUID":
		return "UNIQUEIDENTIFIER"
	case "BLOB":
		return "VARBINARY(MAX)"
	default:
		return "NVARCHAR(MAX)"
	}
}
