package ddl

// ColumnDef is one column of a table definition. Name is unquoted; quoting
// happens at render time.
type ColumnDef struct {
	Name    string
	SQLType string // target type, e.g. TEXT, BIGINT, JSONB
}

// TableDef holds a possibly schema-qualified table name in dotted form
// ("schema.table") and its ordered columns.
type TableDef struct {
	FQN     string
	Columns []ColumnDef
}
