package session

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"claimsfe/internal/frame"
)

// SourceTable is the engine name of the initial working table.
const SourceTable = "claims"

// Load reads the file at path into the initial working table. The format
// follows the extension: .json, .ndjson and .jsonl are read as newline
// delimited JSON, everything else as parquet. A directory loads every
// parquet file directly inside it.
func (s *Session) Load(ctx context.Context, path string) (*frame.Table, error) {
	return s.LoadFormat(ctx, path, formatFromPath(path))
}

// LoadFormat is Load with an explicit format.
//
// Each row gets a claim_seq column holding its position in the source. No
// other validation is done here; missing feature columns surface later,
// inside the pipeline operation that needs them.
func (s *Session) LoadFormat(ctx context.Context, path string, format frame.Format) (*frame.Table, error) {
	src, err := sourceExpr(path, format)
	if err != nil {
		return nil, err
	}
	t, err := frame.Create(ctx, s.conn, SourceTable, src)
	if err != nil {
		return nil, fmt.Errorf("session: load %s: %w", path, err)
	}
	return t, nil
}

func sourceExpr(path string, format frame.Format) (string, error) {
	fi, err := os.Stat(path)
	if err != nil {
		return "", fmt.Errorf("%w: %s: %v", ErrSourceNotFound, path, err)
	}

	seq := frame.Ident(frame.SeqColumn)
	if fi.IsDir() {
		// file_row_number restarts in every file, so number rows across the
		// whole directory in file name order.
		return fmt.Sprintf(
			"SELECT * EXCLUDE (filename, file_row_number), "+
				"CAST(row_number() OVER (ORDER BY filename, file_row_number) - 1 AS BIGINT) AS %s "+
				"FROM read_parquet(%s, filename = true, file_row_number = true)",
			seq, frame.Literal(filepath.Join(path, "*.parquet"))), nil
	}
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("%w: %s: %v", ErrSourceNotFound, path, err)
	}
	adviseSequential(f)
	_ = f.Close()

	switch format {
	case frame.FormatParquet, "":
		return fmt.Sprintf(
			"SELECT * EXCLUDE (file_row_number), file_row_number AS %s FROM read_parquet(%s, file_row_number = true)",
			seq, frame.Literal(path)), nil
	case frame.FormatJSON:
		return fmt.Sprintf(
			"SELECT *, CAST(row_number() OVER () - 1 AS BIGINT) AS %s FROM read_json_auto(%s, format = 'newline_delimited')",
			seq, frame.Literal(path)), nil
	}
	return "", fmt.Errorf("session: unsupported source format %q", format)
}

func formatFromPath(path string) frame.Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json", ".ndjson", ".jsonl":
		return frame.FormatJSON
	}
	return frame.FormatParquet
}
