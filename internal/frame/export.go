package frame

import (
	"context"
	"database/sql/driver"
	"fmt"
	"strings"

	"github.com/duckdb/duckdb-go/v2"
)

// Format is a file format supported by Export.
type Format string

const (
	FormatParquet Format = "parquet"
	FormatCSV     Format = "csv"
	FormatJSON    Format = "json"
)

// ParseFormat maps a config string to a Format. Empty means parquet.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "parquet":
		return FormatParquet, nil
	case "csv":
		return FormatCSV, nil
	case "json", "ndjson", "jsonl":
		return FormatJSON, nil
	}
	return "", fmt.Errorf("frame: unknown format %q", s)
}

// Export writes the table to path using the engine's COPY statement.
func (t *Table) Export(ctx context.Context, path string, format Format) error {
	var opts string
	switch format {
	case FormatParquet, "":
		opts = "FORMAT parquet, COMPRESSION zstd"
	case FormatCSV:
		opts = "FORMAT csv, HEADER true"
	case FormatJSON:
		opts = "FORMAT json"
	default:
		return fmt.Errorf("frame: unknown format %q", format)
	}
	q := fmt.Sprintf("COPY (SELECT * FROM %s%s) TO %s (%s)", t.Ref(), t.orderClause(), Literal(path), opts)
	if _, err := t.conn.ExecContext(ctx, q); err != nil {
		return fmt.Errorf("frame: export %s: %w", path, err)
	}
	return nil
}

// CreateKeyTable creates a one-column VARCHAR table holding keys, loaded
// through the engine's appender rather than one INSERT per key.
func CreateKeyTable(ctx context.Context, conn Conn, name, column string, keys []string) (*Table, error) {
	ddl := fmt.Sprintf("CREATE OR REPLACE TABLE %s (%s VARCHAR)", Ident(name), Ident(column))
	if _, err := conn.ExecContext(ctx, ddl); err != nil {
		return nil, fmt.Errorf("frame: create %s: %w", name, err)
	}

	err := conn.Raw(func(dc any) error {
		c, ok := dc.(driver.Conn)
		if !ok {
			return fmt.Errorf("frame: unexpected driver connection %T", dc)
		}
		a, err := duckdb.NewAppenderFromConn(c, "", name)
		if err != nil {
			return err
		}
		for _, k := range keys {
			if err := a.AppendRow(k); err != nil {
				_ = a.Close()
				return err
			}
		}
		return a.Close()
	})
	if err != nil {
		return nil, fmt.Errorf("frame: append %s: %w", name, err)
	}
	return Open(ctx, conn, name)
}
