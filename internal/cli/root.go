// Package cli provides the command-line interface for pickaxe.
package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/leapstack-labs/pickaxe/internal/cli/commands"
	"github.com/leapstack-labs/pickaxe/internal/cli/config"
	"github.com/leapstack-labs/pickaxe/internal/render"
	"github.com/leapstack-labs/pickaxe/pkg/script"
	"github.com/leapstack-labs/pickaxe/pkg/script/sqlscript"
	"github.com/spf13/cobra"

	// Register statement languages via init()
	_ "github.com/leapstack-labs/pickaxe/pkg/script/awk"
	_ "github.com/leapstack-labs/pickaxe/pkg/script/starlark"
)

// Version information (set at build time).
var (
	Version   = "0.1.0"
	BuildDate = "unknown"
	GitCommit = "unknown"
)

// NewRootCmd creates and returns the root command. The returned closer
// releases the log file opened while the command runs.
func NewRootCmd() (*cobra.Command, io.Closer) {
	var cfgFile string
	logs := &logCloser{}

	rootCmd := &cobra.Command{
		Use:   "pickaxe [file]",
		Short: "pickaxe - run scripts and statements, print their results as tables",
		Long: `pickaxe reads statements, compiles them with the selected language and
prints every result table the program produces.

Without arguments pickaxe starts an interactive session: a statement ends at
the terminator (";" by default) and runs when its line is complete. With a
file argument the whole file is run as a single statement.`,
		Example: `  # Interactive Starlark session
  pickaxe

  # Interactive SQL against an in-memory SQLite database
  pickaxe -l sql

  # Run a file and print the results as JSON
  pickaxe -f json report.star`,
		Version: Version,
		Args:    cobra.MaximumNArgs(1),
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			// Skip config loading for help and completion commands
			if cmd.Name() == "help" || cmd.Name() == "completion" || cmd.Name() == "__complete" {
				return nil
			}

			cfg, err := config.LoadConfig(cfgFile, cmd.Root().PersistentFlags())
			if err != nil {
				return err
			}

			logger, closer, err := NewLogger(cfg, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			logs.closer = closer

			ctx := config.WithConfig(cmd.Context(), cfg)
			ctx = config.WithLogger(ctx, logger)
			cmd.SetContext(ctx)

			if configFile := config.GetConfigFileUsed(); configFile != "" {
				logger.Debug("using config file", "path", configFile)
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 1 {
				return commands.RunBatch(cmd, args[0])
			}
			return commands.RunInteractive(cmd)
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.SetVersionTemplate(fmt.Sprintf(`{{.Name}} {{.Version}}
commit %s, built %s
`, GitCommit, BuildDate))

	// Global persistent flags
	flags := rootCmd.PersistentFlags()
	flags.StringVar(&cfgFile, "config", "", "config file (default: ./pickaxe.yaml)")
	flags.StringP("language", "l", "", "Statement language (default: starlark)")
	flags.StringP("format", "f", "", "Output format for result tables (default: box)")
	flags.String("terminator", "", `Statement terminator in interactive mode (default: ";")`)
	flags.Duration("timeout", 0, "Abort statements running longer than this (0 = no limit)")
	flags.String("driver", "", "Database driver for the sql language (default: sqlite)")
	flags.String("dsn", "", "Database connection string for the sql language")
	flags.String("migrations", "", "Directory of SQL migrations applied when the sql language connects")
	flags.String("log-level", "", "Log level (debug|info|warn|error)")
	flags.String("log-format", "", "Log format (text|json)")
	flags.String("log-file", "", "Write logs to a rotated file instead of stderr")
	flags.BoolP("verbose", "v", false, "Verbose output (debug logging)")

	_ = rootCmd.RegisterFlagCompletionFunc("language", func(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
		return script.Languages(), cobra.ShellCompDirectiveNoFileComp
	})
	_ = rootCmd.RegisterFlagCompletionFunc("format", func(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
		return render.Formats(), cobra.ShellCompDirectiveNoFileComp
	})
	_ = rootCmd.RegisterFlagCompletionFunc("driver", func(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
		return sqlscript.Drivers(), cobra.ShellCompDirectiveNoFileComp
	})
	_ = rootCmd.RegisterFlagCompletionFunc("log-level", func(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
		return []string{"debug", "info", "warn", "error"}, cobra.ShellCompDirectiveNoFileComp
	})
	_ = rootCmd.RegisterFlagCompletionFunc("log-format", func(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
		return []string{"text", "json"}, cobra.ShellCompDirectiveNoFileComp
	})

	// Add subcommands
	rootCmd.AddCommand(commands.NewVersionCommand(Version))
	rootCmd.AddCommand(commands.NewRunCommand())
	rootCmd.AddCommand(commands.NewLanguagesCommand())
	rootCmd.AddCommand(NewCompletionCommand())

	return rootCmd, logs
}

// Execute runs the root command.
func Execute() error {
	rootCmd, logs := NewRootCmd()
	defer func() { _ = logs.Close() }()

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return err
	}
	return nil
}

// logCloser closes the log file opened by PersistentPreRunE, if any.
type logCloser struct {
	closer io.Closer
}

func (l *logCloser) Close() error {
	if l.closer == nil {
		return nil
	}
	return l.closer.Close()
}

// NewCompletionCommand creates the completion command.
func NewCompletionCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "completion [bash|zsh|fish|powershell]",
		Short: "Generate shell completion scripts",
		Long: `Generate shell completion scripts for pickaxe.

To load completions:

Bash:
  $ source <(pickaxe completion bash)

Zsh:
  $ pickaxe completion zsh > "${fpath[1]}/_pickaxe"

Fish:
  $ pickaxe completion fish | source

PowerShell:
  PS> pickaxe completion powershell | Out-String | Invoke-Expression
`,
		DisableFlagsInUseLine: true,
		ValidArgs:             []string{"bash", "zsh", "fish", "powershell"},
		Args:                  cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			switch args[0] {
			case "bash":
				return cmd.Root().GenBashCompletion(out)
			case "zsh":
				return cmd.Root().GenZshCompletion(out)
			case "fish":
				return cmd.Root().GenFishCompletion(out, true)
			case "powershell":
				return cmd.Root().GenPowerShellCompletionWithDesc(out)
			}
			return nil
		},
	}
	return cmd
}
