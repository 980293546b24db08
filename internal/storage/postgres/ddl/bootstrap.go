package ddl

import (
	"context"

	"claimsfe/internal/frame"
	"claimsfe/internal/storage"
)

// EnsureTable creates table if it does not exist. It satisfies
// storage.DDLBootstrapper.
func EnsureTable(ctx context.Context, repo storage.Repository, table string, columns []frame.Column) error {
	sql, err := BuildCreateTableSQL(FromColumns(table, columns))
	if err != nil {
		return err
	}
	return repo.Exec(ctx, sql)
}
