package database

import (
	"fmt"
	"strings"
)

// Driver names a SQL dialect.
type Driver string

const (
	DriverPostgres Driver = "postgres"
	DriverSQLite   Driver = "sqlite"
)

// ParseDriver maps a STORE_BACKEND value to a SQL driver.
func ParseDriver(backend string) (Driver, error) {
	switch strings.ToLower(strings.TrimSpace(backend)) {
	case "", "sqlite", "sqlite3", "local":
		return DriverSQLite, nil
	case "postgres", "postgresql", "pg":
		return DriverPostgres, nil
	default:
		return "", fmt.Errorf("%q is not a SQL backend", backend)
	}
}

// DetectDriver guesses the dialect from a connection string. Without a URL
// the inbox runs on a local SQLite file.
func DetectDriver(url string) Driver {
	if url == "" {
		return DriverSQLite
	}
	scheme, _, found := strings.Cut(url, "://")
	if found {
		if d, err := ParseDriver(scheme); err == nil {
			return d
		}
	}
	if strings.HasPrefix(url, "file:") {
		return DriverSQLite
	}
	for _, ext := range []string{".db", ".sqlite", ".sqlite3"} {
		if strings.HasSuffix(url, ext) {
			return DriverSQLite
		}
	}
	return DriverPostgres
}
