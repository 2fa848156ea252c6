package catalog

import (
	"fmt"
	"os"
)

// Driver identifies a concrete catalog storage implementation.
type Driver string

const (
	DriverMemory   Driver = "memory"   // in-memory only (tests / ephemeral)
	DriverSQLite   Driver = "sqlite"   // embedded sqlite file
	DriverPostgres Driver = "postgres" // PostgreSQL server
)

// OpenStore selects a backend using environment variables.
// Defaults to sqlite when unset.
//
//	APOGEECORE_CATALOG_DRIVER: memory|sqlite|postgres (default sqlite)
//	APOGEECORE_SQLITE_PATH: path to sqlite file (default ./apogeecore.db)
//	APOGEECORE_POSTGRES_DSN: postgres DSN when driver=postgres
func OpenStore() (Store, error) {
	driver := os.Getenv("APOGEECORE_CATALOG_DRIVER")
	if driver == "" {
		driver = string(DriverSQLite)
	}
	switch Driver(driver) {
	case DriverMemory:
		return NewMemory(), nil
	case DriverSQLite:
		return NewSQLiteStore(os.Getenv("APOGEECORE_SQLITE_PATH"))
	case DriverPostgres:
		return NewPostgresStore(os.Getenv("APOGEECORE_POSTGRES_DSN"))
	default:
		return nil, fmt.Errorf("unknown catalog driver %s", driver)
	}
}
