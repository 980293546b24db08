package storage

import (
	"context"
	"fmt"
	"sync"

	"claimsfe/internal/frame"
)

// DDLBootstrapper creates table in the backend's dialect from the engine
// schema of the feature table, mapping each engine type to a column type.
// It must be a no-op when the table already exists.
type DDLBootstrapper func(ctx context.Context, repo Repository, table string, columns []frame.Column) error

var (
	ddlMu  sync.RWMutex
	ddlFns = map[string]DDLBootstrapper{}
)

// RegisterDDL registers (or replaces) the bootstrapper for kind. Backends
// call it from init next to Register.
func RegisterDDL(kind string, fn DDLBootstrapper) {
	ddlMu.Lock()
	defer ddlMu.Unlock()
	ddlFns[kind] = fn
}

// EnsureTable creates table through the bootstrapper registered for kind.
func EnsureTable(ctx context.Context, kind string, repo Repository, table string, columns []frame.Column) error {
	ddlMu.RLock()
	fn, ok := ddlFns[kind]
	ddlMu.RUnlock()
	if !ok {
		return fmt.Errorf("no DDL bootstrapper registered for storage.kind=%q", kind)
	}
	if len(columns) == 0 {
		return fmt.Errorf("storage: ensure table %s: no columns", table)
	}
	if err := fn(ctx, repo, table, columns); err != nil {
		return fmt.Errorf("storage: ensure table %s: %w", table, err)
	}
	return nil
}

// SelectColumns returns the columns of t named in names, in the order of
// names. An empty names selects every column.
func SelectColumns(t *frame.Table, names []string) ([]frame.Column, error) {
	if len(names) == 0 {
		return t.Columns(), nil
	}
	out := make([]frame.Column, 0, len(names))
	for _, n := range names {
		c, ok := t.Column(n)
		if !ok {
			return nil, &frame.MissingColumnError{Table: t.Name(), Column: n}
		}
		out = append(out, c)
	}
	return out, nil
}
