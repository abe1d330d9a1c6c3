package sqlscript

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/leapstack-labs/pickaxe/pkg/script"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeMigration(t *testing.T, dir, name, body string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(body), 0o600))
}

func TestOpen_AppliesMigrations(t *testing.T) {
	dir := t.TempDir()
	writeMigration(t, dir, "00001_people.sql", `-- +goose Up
CREATE TABLE people (id INTEGER PRIMARY KEY, name TEXT NOT NULL);

-- +goose Down
DROP TABLE people;
`)
	writeMigration(t, dir, "00002_seed.sql", `-- +goose Up
INSERT INTO people (id, name) VALUES (1, 'Ann'), (22, 'Bob');

-- +goose Down
DELETE FROM people;
`)

	ctx := context.Background()
	c, err := Open(ctx, script.Options{Driver: "sqlite", Migrations: dir})
	require.NoError(t, err)
	defer func() { _ = c.Close() }()

	version, err := MigrationVersion(ctx, c.db, "sqlite")
	require.NoError(t, err)
	assert.Equal(t, int64(2), version)

	res := c.Compile(ctx, "SELECT name FROM people ORDER BY id")
	require.True(t, res.OK(), "errors: %v", res.Errors)
	tables, err := run(t, ctx, res.Program)
	require.NoError(t, err)
	require.Len(t, tables, 1)
	assert.Equal(t, [][]any{{"Ann"}, {"Bob"}}, tables[0].Rows)
}

func TestOpen_MigrationError(t *testing.T) {
	dir := t.TempDir()
	writeMigration(t, dir, "00001_broken.sql", `-- +goose Up
CREATE TABLE;
`)

	_, err := Open(context.Background(), script.Options{Driver: "sqlite", Migrations: dir})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to run migrations")
}

func TestMigrate_UnsupportedDriver(t *testing.T) {
	err := Migrate(context.Background(), nil, "duckdb", t.TempDir())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not supported")
}
