// Package sqlscript runs pickaxe statements as SQL against a database/sql
// connection.
//
// Compiling a statement prepares it on the database, so the engine reports
// syntax and binding errors before anything runs. Running a prepared query
// produces one result table when it returns columns.
package sqlscript

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"strings"

	"github.com/leapstack-labs/pickaxe/pkg/script"
)

// Name is the registered language name.
const Name = "sql"

func init() {
	script.Register(Name, func(opts script.Options) (script.Compiler, error) {
		return Open(context.Background(), opts)
	})
}

// Compiler prepares statements on a database connection.
type Compiler struct {
	db     *sql.DB
	logger *slog.Logger
	owned  bool
}

// Open connects to the database selected by opts.Driver and opts.DSN.
func Open(ctx context.Context, opts script.Options) (*Compiler, error) {
	opts = opts.Normalize()

	drv, err := lookupDriver(opts.Driver)
	if err != nil {
		return nil, err
	}

	dsn := opts.DSN
	if dsn == "" {
		if drv.defaultDSN == "" && drv.requiresDSN {
			return nil, fmt.Errorf("driver %q requires a dsn (set database.dsn or --dsn)", drv.name)
		}
		dsn = drv.defaultDSN
	}

	opts.Logger.Debug("opening database", slog.String("driver", drv.name), slog.String("sql_driver", drv.sqlDriver))

	db, err := sql.Open(drv.sqlDriver, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s connection: %w", drv.name, err)
	}

	if drv.singleConn {
		// In-process engines keep their state per connection.
		db.SetMaxOpenConns(1)
	}

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping %s: %w", drv.name, err)
	}

	if opts.Migrations != "" {
		if err := Migrate(ctx, db, drv.name, opts.Migrations); err != nil {
			_ = db.Close()
			return nil, err
		}
		opts.Logger.Debug("migrations applied", slog.String("dir", opts.Migrations))
	}

	return &Compiler{db: db, logger: opts.Logger, owned: true}, nil
}

// NewWithDB creates a compiler over an existing connection. Close does not
// close db.
func NewWithDB(db *sql.DB, logger *slog.Logger) *Compiler {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Compiler{db: db, logger: logger}
}

// Compile prepares source on the database.
func (c *Compiler) Compile(ctx context.Context, source string) script.CompileResult {
	query := strings.TrimSpace(source)
	if query == "" {
		return script.Failed("empty statement")
	}

	stmt, err := c.db.PrepareContext(ctx, query)
	if err != nil {
		return script.Failed(err.Error())
	}
	return script.Compiled(&Program{stmt: stmt, query: query, logger: c.logger})
}

// Close closes the connection if the compiler opened it.
func (c *Compiler) Close() error {
	if !c.owned || c.db == nil {
		return nil
	}
	return c.db.Close()
}

// Program is a prepared statement. It can be run once.
type Program struct {
	stmt   *sql.Stmt
	query  string
	logger *slog.Logger
}

// Run executes the statement and emits its rows, if it returns any columns.
func (p *Program) Run(ctx context.Context, emit func(*script.Table) error) error {
	defer func() { _ = p.stmt.Close() }()

	rows, err := p.stmt.QueryContext(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = rows.Close() }()

	cols, err := rows.Columns()
	if err != nil {
		return err
	}

	table := script.NewTable(cols...)
	for rows.Next() {
		values := make([]any, len(cols))
		valuePtrs := make([]any, len(cols))
		for i := range values {
			valuePtrs[i] = &values[i]
		}

		if err := rows.Scan(valuePtrs...); err != nil {
			return err
		}

		for i, val := range values {
			// Convert []byte to string for readability
			if b, ok := val.([]byte); ok {
				values[i] = string(b)
			}
		}
		table.Append(values...)
	}

	if err := rows.Err(); err != nil {
		return err
	}

	if len(cols) == 0 {
		p.logger.Debug("statement returned no columns", slog.String("query", p.query))
		return nil
	}
	return emit(table)
}
