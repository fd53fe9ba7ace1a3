// Package all registers every compiled-in source backend.
package all

import (
	_ "salesmart/internal/source/mssql"
	_ "salesmart/internal/source/sqlite"
)
