// Package awk runs pickaxe statements as AWK programs using goawk.
//
// A program's output is read back as a table: OFS is set to a tab, the first
// output line is the header and each further line is a row. Programs read no
// input, so they normally do their work in a BEGIN block:
//
//	BEGIN { print "id", "name"; print 1, "Ann" }
package awk

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"strings"

	"github.com/benhoyt/goawk/interp"
	"github.com/benhoyt/goawk/parser"
	"github.com/leapstack-labs/pickaxe/pkg/script"
)

// Name is the registered language name.
const Name = "awk"

// fieldSeparator separates output fields of a result line.
const fieldSeparator = "\t"

func init() {
	script.Register(Name, func(opts script.Options) (script.Compiler, error) {
		return New(opts), nil
	})
}

// Compiler parses AWK programs.
type Compiler struct {
	logger *slog.Logger
	stderr io.Writer
	vars   []string
}

// New creates an AWK compiler. Vars are assigned as with awk -v.
func New(opts script.Options) *Compiler {
	opts = opts.Normalize()

	names := make([]string, 0, len(opts.Vars))
	for name := range opts.Vars {
		names = append(names, name)
	}
	sort.Strings(names)

	vars := []string{"OFS", fieldSeparator}
	for _, name := range names {
		vars = append(vars, name, script.Stringify(opts.Vars[name]))
	}

	return &Compiler{logger: opts.Logger, stderr: opts.Stdout, vars: vars}
}

// Compile parses source into a resolved AWK program.
func (c *Compiler) Compile(_ context.Context, source string) script.CompileResult {
	prog, err := parser.ParseProgram([]byte(source), nil)
	if err != nil {
		return script.Failed(err.Error())
	}

	it, err := interp.New(prog)
	if err != nil {
		return script.Failed(err.Error())
	}
	return script.Compiled(&Program{compiler: c, interp: it})
}

// Close is a no-op.
func (c *Compiler) Close() error {
	return nil
}

// Program is a parsed AWK program.
type Program struct {
	compiler *Compiler
	interp   *interp.Interpreter
}

// Run executes the program and emits its output as a table.
func (p *Program) Run(ctx context.Context, emit func(*script.Table) error) error {
	var out bytes.Buffer
	status, err := p.interp.ExecuteContext(ctx, &interp.Config{
		Stdin:        strings.NewReader(""),
		Output:       &out,
		Error:        p.compiler.stderr,
		Vars:         p.compiler.vars,
		NoExec:       true,
		NoFileWrites: true,
	})
	if err != nil {
		return err
	}
	if status != 0 {
		return fmt.Errorf("awk program exited with status %d", status)
	}

	table := ParseTable(out.String())
	if table == nil {
		p.compiler.logger.Debug("awk program produced no output")
		return nil
	}
	return emit(table)
}

// ParseTable turns tab-separated output into a table. It returns nil for
// empty output. Rows are not validated here.
func ParseTable(output string) *script.Table {
	output = strings.TrimSuffix(output, "\n")
	if output == "" {
		return nil
	}

	lines := strings.Split(output, "\n")
	table := script.NewTable(strings.Split(lines[0], fieldSeparator)...)
	for _, line := range lines[1:] {
		fields := strings.Split(line, fieldSeparator)
		row := make([]any, len(fields))
		for i, f := range fields {
			row[i] = f
		}
		table.Append(row...)
	}
	return table
}
