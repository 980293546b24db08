package sqlite

// Config holds SQLite repository configuration derived from storage.Config.
type Config struct {
	// DSN is a SQLite connection string or file path, e.g.
	// "file:features.db?_pragma=journal_mode(WAL)" or "features.db".
	DSN string

	// Table is the target table. "main.features" style names are accepted;
	// each segment is quoted.
	Table string

	// Columns is the ordered default column list for CopyFrom.
	Columns []string
}
