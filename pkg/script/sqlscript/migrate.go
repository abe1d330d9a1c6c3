package sqlscript

import (
	"context"
	"database/sql"
	"fmt"
	"sync"

	"github.com/pressly/goose/v3"
)

// gooseMu guards goose's package-level dialect and filesystem settings.
var gooseMu sync.Mutex

// Migrate applies the pending goose SQL migrations found in dir.
func Migrate(ctx context.Context, db *sql.DB, driver, dir string) error {
	drv, err := lookupDriver(driver)
	if err != nil {
		return err
	}
	if drv.dialect == "" {
		return fmt.Errorf("migrations are not supported for driver %q", drv.name)
	}

	gooseMu.Lock()
	defer gooseMu.Unlock()

	goose.SetBaseFS(nil)
	goose.SetLogger(goose.NopLogger())

	if err := goose.SetDialect(drv.dialect); err != nil {
		return fmt.Errorf("failed to set dialect: %w", err)
	}

	if err := goose.UpContext(ctx, db, dir); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}
	return nil
}

// MigrationVersion returns the current migration version of db.
func MigrationVersion(ctx context.Context, db *sql.DB, driver string) (int64, error) {
	drv, err := lookupDriver(driver)
	if err != nil {
		return 0, err
	}
	if drv.dialect == "" {
		return 0, fmt.Errorf("migrations are not supported for driver %q", drv.name)
	}

	gooseMu.Lock()
	defer gooseMu.Unlock()

	if err := goose.SetDialect(drv.dialect); err != nil {
		return 0, fmt.Errorf("failed to set dialect: %w", err)
	}
	return goose.GetDBVersionContext(ctx, db)
}
