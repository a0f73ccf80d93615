package cmd

import (
	"fmt"
	"time"

	"github.com/harrison/pagecat/internal/locator"
	"github.com/harrison/pagecat/internal/logger"
	"github.com/spf13/cobra"
)

// NewListCommand creates the 'pagecat list' command
func NewListCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "Print matched page file paths without contents",
		Long: `Print the paths the default invocation would report, one per line,
without reading any file.

The same patterns and filter apply, so a path reachable through more
than one pattern appears more than once, exactly as in the default run.`,
		Args: cobra.NoArgs,
		RunE: runList,
	}

	return cmd
}

// runList implements the list command logic
func runList(cmd *cobra.Command, args []string) error {
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

	out := cmd.OutOrStdout()
	for _, m := range matches {
		fmt.Fprintln(out, m.Path)
	}

	recordHistory(cfg, log, matches, nil, time.Since(start))
	return nil
}
