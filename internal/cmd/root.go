package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/harrison/pagecat/internal/config"
	"github.com/harrison/pagecat/internal/history"
	"github.com/harrison/pagecat/internal/locator"
	"github.com/harrison/pagecat/internal/logger"
	"github.com/harrison/pagecat/internal/report"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"
)

// Version is injected at build time via -ldflags
var Version = "dev"

// NewRootCommand creates and returns the root cobra command for pagecat
func NewRootCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "pagecat",
		Short: "Locate and print app-router orders page files",
		Long: `Pagecat locates the "orders" detail page of an app-router web project
by expanding a fixed set of glob patterns against the current directory,
then prints each matched file's path and full contents to stdout.

Run it without arguments inside a project checkout to print matches.
Subcommands list matched paths only, show the built-in patterns, or
browse recorded find history.`,
		Version: Version,
		// Silence usage on errors to avoid duplicate help text
		SilenceUsage: true,
		Args:         cobra.NoArgs,
		RunE:         runRoot,
	}

	cmd.PersistentFlags().String("config", "", "Path to config file (default: .pagecat/config.yaml)")
	cmd.PersistentFlags().String("log-level", "", "Log level (trace|debug|info|warn|error)")

	// Add subcommands
	cmd.AddCommand(NewListCommand())
	cmd.AddCommand(NewPatternsCommand())
	cmd.AddCommand(NewHistoryCommand())

	return cmd
}

// runRoot implements the default invocation: locate page files, print each
// one's path and contents, and record the run when history is enabled.
func runRoot(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	log := logger.NewConsoleLogger(cmd.ErrOrStderr(), cfg.LogLevel)

	start := time.Now()
	matches, err := locator.New(locator.NewGlobber(), log).Locate(locator.Options{})
	if err != nil {
		return err
	}

	paths := make([]string, len(matches))
	for i, m := range matches {
		paths[i] = m.Path
	}

	out := cmd.OutOrStdout()
	results := report.NewReporter(out, ".", colorEnabled(out)).Report(paths)

	recordHistory(cfg, log, matches, results, time.Since(start))
	return nil
}

// loadConfig resolves the effective configuration for a command invocation:
// the explicit --config path when given, else .pagecat/config.yaml under the
// working directory, with flag values overriding file values.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	configPath, _ := cmd.Flags().GetString("config")

	var cfg *config.Config
	var err error
	if configPath != "" {
		cfg, err = config.LoadConfig(configPath)
		if err != nil {
			return nil, fmt.Errorf("failed to load config from %s: %w", configPath, err)
		}
	} else {
		cfg, err = config.LoadConfigFromDir(".")
		if err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
	}

	var logLevel *string
	if cmd.Flags().Changed("log-level") {
		v, _ := cmd.Flags().GetString("log-level")
		logLevel = &v
	}
	cfg.MergeWithFlags(logLevel, nil)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// colorEnabled reports whether w is a terminal that should receive colored
// report lines. Buffer-backed writers (tests, pipes) stay plain.
func colorEnabled(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && isatty.IsTerminal(f.Fd())
}

// recordHistory persists one run row plus one find row per match when
// history recording is enabled. Recording failures are logged at warn and
// never fail the run.
func recordHistory(cfg *config.Config, log *logger.ConsoleLogger, matches []locator.Match, results []report.Result, elapsed time.Duration) {
	if !cfg.History.Enabled {
		return
	}

	finds := make([]history.Find, len(matches))
	for i, m := range matches {
		finds[i] = history.Find{Pattern: m.Pattern, Path: m.Path}
		if i < len(results) {
			finds[i].ReadError = results[i].ReadErr
		}
	}

	if err := saveRun(cfg, finds, elapsed); err != nil {
		log.LogWarn(fmt.Sprintf("failed to record find history: %v", err))
	}
}

func saveRun(cfg *config.Config, finds []history.Find, elapsed time.Duration) error {
	dbPath := cfg.History.DBPath
	if dbPath == "" {
		var err error
		dbPath, err = config.GetHistoryDBPath()
		if err != nil {
			return err
		}
	}

	store, err := history.NewStore(dbPath)
	if err != nil {
		return err
	}
	defer store.Close()

	cwd, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("get working directory: %w", err)
	}

	_, err = store.RecordRun(context.Background(), cwd, elapsed.Milliseconds(), finds, cfg.History.MaxRuns)
	return err
}
