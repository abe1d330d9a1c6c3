package commands

import (
	"github.com/leapstack-labs/pickaxe/internal/cli/config"
	"github.com/leapstack-labs/pickaxe/internal/render"
	"github.com/leapstack-labs/pickaxe/pkg/script"
	"github.com/leapstack-labs/pickaxe/pkg/script/sqlscript"
	"github.com/spf13/cobra"
)

// NewLanguagesCommand creates the languages command.
func NewLanguagesCommand() *cobra.Command {
	return &cobra.Command{
		Use:     "languages",
		Aliases: []string{"langs"},
		Short:   "List languages, output formats and database drivers",
		Long: `List the registered statement languages, the available output formats
and the database drivers usable with the sql language. Entries selected by the
current configuration are marked.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg := config.FromContext(cmd.Context())

			renderer, err := render.Lookup(cfg.Format)
			if err != nil {
				return err
			}
			return renderer.Render(cmd.OutOrStdout(), Inventory(cfg))
		},
	}
}

// Inventory lists what this build supports as a result table.
func Inventory(cfg *config.Config) *script.Table {
	t := script.NewTable("kind", "name", "selected")

	mark := func(selected bool) string {
		if selected {
			return "*"
		}
		return ""
	}

	for _, name := range script.Languages() {
		t.Append("language", name, mark(name == cfg.Language))
	}
	for _, name := range render.Formats() {
		t.Append("format", name, mark(name == cfg.Format))
	}
	driver := cfg.Database.Driver
	if driver == "" {
		driver = sqlscript.DefaultDriver
	}
	for _, name := range sqlscript.Drivers() {
		t.Append("driver", name, mark(name == driver))
	}
	return t
}
