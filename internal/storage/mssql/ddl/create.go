// Package ddl builds SQL Server CREATE TABLE scripts.
//
// T-SQL has no CREATE TABLE IF NOT EXISTS, so the statement is wrapped in an
// IF OBJECT_ID(...) IS NULL guard. Identifiers use bracket quoting.
package ddl

import (
	"fmt"
	"strings"

	gddl "claimsfe/internal/ddl"
	"claimsfe/internal/frame"
)

// FromColumns builds the SQL Server table definition for table.
func FromColumns(table string, columns []frame.Column) gddl.TableDef {
	return gddl.FromColumns(table, columns, MapType)
}

// BuildCreateTableSQL returns
//
//	IF OBJECT_ID(N'[schema].[table]', N'U') IS NULL
//	BEGIN
//	  CREATE TABLE [schema].[table] (
//	    [col1] TYPE,
//	    [col2] TYPE
//	  );
//	END;
func BuildCreateTableSQL(t gddl.TableDef) (string, error) {
	cols, err := gddl.ColumnClauses(t, quoteIdent)
	if err != nil {
		return "", fmt.Errorf("mssql %w", err)
	}
	fqn := gddl.QuoteFQN(t.FQN, quoteIdent)
	return fmt.Sprintf(
		"IF OBJECT_ID(N'%s', N'U') IS NULL\nBEGIN\n  CREATE TABLE %s (\n    %s\n  );\nEND;",
		strings.ReplaceAll(fqn, "'", "''"),
		fqn,
		strings.Join(cols, ",\n    "),
	), nil
}

// quoteIdent quotes a single identifier segment for SQL Server using
// bracket syntax, escaping any closing brackets.
//
//	name      -> [name]
//	weird]id  -> [weird]]id]
func quoteIdent(id string) string {
	return "[" + strings.ReplaceAll(id, "]", "]]") + "]"
}
