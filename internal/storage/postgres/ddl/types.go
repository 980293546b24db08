// Package ddl contains Postgres-specific helpers for generating DDL.
package ddl

import (
	"strings"

	"claimsfe/internal/frame"
)

// MapType maps an engine column type to a Postgres type.
//
//	LIST/STRUCT/MAP          -> JSONB
//	TINYINT..BIGINT          -> BIGINT
//	HUGEINT/UBIGINT          -> NUMERIC
//	FLOAT/DOUBLE             -> DOUBLE PRECISION
//	DECIMAL(p,s)             -> NUMERIC(p,s)
//	BOOLEAN                  -> BOOLEAN
//	DATE                     -> DATE
//	TIMESTAMP                -> TIMESTAMP
//	TIMESTAMP WITH TIME ZONE -> TIMESTAMPTZ
//	everything else          -> TEXT
func MapType(c frame.Column) string {
	if c.Nested() {
		return "JSONB"
	}
	t := strings.ToUpper(strings.TrimSpace(c.Type))
	switch {
	case strings.HasPrefix(t, "DECIMAL"):
		return "NUMERIC" + strings.TrimPrefix(t, "DECIMAL")
	case t == "TIMESTAMP WITH TIME ZONE", t == "TIMESTAMPTZ":
		return "TIMESTAMPTZ"
	case strings.HasPrefix(t, "TIMESTAMP"):
		return "TIMESTAMP"
	}
	switch t {
	case "TINYINT", "SMALLINT", "INTEGER", "BIGINT", "UTINYINT", "USMALLINT", "UINTEGER":
		return "BIGINT"
	case "HUGEINT", "UBIGINT", "UHUGEINT":
		return "NUMERIC"
	case "FLOAT", "DOUBLE":
		return "DOUBLE PRECISION"
	case "BOOLEAN":
		return "BOOLEAN"
	case "DATE":
		return "DATE"
	case "BLOB":
		return "BYTEA"
	default:
		return "TEXT"
	}
}
