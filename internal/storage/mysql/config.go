package mysql

// Config holds MySQL repository configuration derived from storage.Config.
type Config struct {
	// DSN uses the go-sql-driver format, e.g.
	// "user:pass@tcp(localhost:3306)/claims". parseTime is forced on.
	DSN string

	// Table is the target table, optionally "schema.table".
	Table string

	// Columns is the ordered default column list for CopyFrom.
	Columns []string
}
