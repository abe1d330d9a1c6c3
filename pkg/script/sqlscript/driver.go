package sqlscript

import (
	"fmt"
	"sort"

	_ "github.com/jackc/pgx/v5/stdlib" // postgres driver
	_ "github.com/marcboeker/go-duckdb" // duckdb driver
	_ "modernc.org/sqlite"              // sqlite driver
)

// DefaultDriver is used when no driver is configured.
const DefaultDriver = "sqlite"

type driverInfo struct {
	name        string
	sqlDriver   string
	defaultDSN  string
	requiresDSN bool
	singleConn  bool
	// dialect is the goose dialect used for migrations. Empty means
	// migrations are not supported.
	dialect string
}

var drivers = map[string]driverInfo{
	"sqlite": {
		name:       "sqlite",
		sqlDriver:  "sqlite",
		defaultDSN: ":memory:",
		singleConn: true,
		dialect:    "sqlite",
	},
	"duckdb": {
		name:       "duckdb",
		sqlDriver:  "duckdb",
		singleConn: true,
	},
	"postgres": {
		name:        "postgres",
		sqlDriver:   "pgx",
		requiresDSN: true,
		dialect:     "postgres",
	},
}

func lookupDriver(name string) (driverInfo, error) {
	if name == "" {
		name = DefaultDriver
	}
	if name == "pgx" {
		name = "postgres"
	}
	d, ok := drivers[name]
	if !ok {
		return driverInfo{}, fmt.Errorf("unknown database driver %q (available: %v)", name, Drivers())
	}
	return d, nil
}

// Drivers returns the supported driver names (sorted).
func Drivers() []string {
	names := make([]string, 0, len(drivers))
	for name := range drivers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
