// Package all registers every built-in storage backend. Import it for side
// effects:
//
//	import _ "claimsfe/internal/storage/all"
//
// after which storage.New accepts the kinds "postgres", "mssql", "mysql"
// and "sqlite".
package all

import (
	_ "claimsfe/internal/storage/mssql"
	_ "claimsfe/internal/storage/mysql"
	_ "claimsfe/internal/storage/postgres"
	_ "claimsfe/internal/storage/sqlite"
)
