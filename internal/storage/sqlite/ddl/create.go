package ddl

import (
	"context"

	gddl "claimsfe/internal/ddl"
	"claimsfe/internal/frame"
	"claimsfe/internal/storage"
)

// BuildCreateTableSQL returns a CREATE TABLE IF NOT EXISTS statement for
// table with double-quoted identifiers.
func BuildCreateTableSQL(table string, columns []frame.Column) (string, error) {
	return gddl.BuildCreateTableSQL(gddl.FromColumns(table, columns, MapType), gddl.QuoteDouble)
}

// EnsureTable creates table if it does not exist. It satisfies
// storage.DDLBootstrapper.
func EnsureTable(ctx context.Context, repo storage.Repository, table string, columns []frame.Column) error {
	sql, err := BuildCreateTableSQL(table, columns)
	if err != nil {
		return err
	}
	return repo.Exec(ctx, sql)
}
