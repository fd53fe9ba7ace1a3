// Package all registers every compiled-in destination backend.
package all

import (
	_ "salesmart/internal/storage/postgres"
	_ "salesmart/internal/storage/sqlite"
)
