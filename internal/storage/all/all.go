// Package all links every output sink into the binary.
package all

import (
	_ "falcon/internal/storage/csvfile"
	_ "falcon/internal/storage/mssql"
	_ "falcon/internal/storage/mysql"
	_ "falcon/internal/storage/postgres"
	_ "falcon/internal/storage/sqlite"
)
