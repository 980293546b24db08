package ddl

import (
	"context"
	"strings"

	gddl "claimsfe/internal/ddl"
	"claimsfe/internal/frame"
	"claimsfe/internal/storage"
)

// quoteIdent quotes an identifier with backticks.
func quoteIdent(s string) string {
	return "`" + strings.ReplaceAll(s, "`", "``") + "`"
}

// BuildCreateTableSQL returns a CREATE TABLE IF NOT EXISTS statement for
// table with backtick-quoted identifiers.
func BuildCreateTableSQL(table string, columns []frame.Column) (string, error) {
	return gddl.BuildCreateTableSQL(gddl.FromColumns(table, columns, MapType), quoteIdent)
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
