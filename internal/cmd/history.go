package cmd

import (
	"github.com/harrison/pagecat/internal/config"
	"github.com/spf13/cobra"
)

// NewHistoryCommand creates the 'pagecat history' parent command
func NewHistoryCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Find history commands",
		Long: `Commands for viewing and managing recorded find history.

Recording is disabled by default; enable it with "history.enabled: true"
in .pagecat/config.yaml. Each recorded run keeps the working directory,
the run duration, and one row per reported match.`,
	}

	// Add subcommands
	cmd.AddCommand(NewShowCommand())
	cmd.AddCommand(NewStatsCommand())
	cmd.AddCommand(newClearCommand())
	cmd.AddCommand(newExportCommand())

	return cmd
}

// resolveHistoryDBPath picks the history database location: the --db-path
// override when given, then the configured history.db_path, then the default
// under the pagecat home directory.
func resolveHistoryDBPath(cmd *cobra.Command, override string) (string, error) {
	if override != "" {
		return override, nil
	}

	cfg, err := loadConfig(cmd)
	if err != nil {
		return "", err
	}
	if cfg.History.DBPath != "" {
		return cfg.History.DBPath, nil
	}

	return config.GetHistoryDBPath()
}
