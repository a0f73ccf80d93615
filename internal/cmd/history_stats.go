package cmd

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"
	"github.com/harrison/pagecat/internal/history"
	"github.com/spf13/cobra"
)

// NewStatsCommand creates the 'pagecat history stats' command
func NewStatsCommand() *cobra.Command {
	var dbPath string

	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show find history statistics",
		Long: `Display aggregate statistics for recorded find history including:
  - Total recorded runs and finds
  - Distinct matched paths
  - Average run duration
  - Time of the most recent run`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runHistoryStats(cmd, dbPath)
		},
	}

	cmd.Flags().StringVar(&dbPath, "db-path", "", "Path to history database (default: <pagecat home>/history.db)")

	return cmd
}

// runHistoryStats executes the stats command
func runHistoryStats(cmd *cobra.Command, dbPathOverride string) error {
	output := cmd.OutOrStdout()

	dbPath, err := resolveHistoryDBPath(cmd, dbPathOverride)
	if err != nil {
		return err
	}

	// Check if database exists
	if _, err := os.Stat(dbPath); os.IsNotExist(err) {
		fmt.Fprintf(output, "No find history recorded yet.\n")
		return nil
	}

	store, err := history.NewStore(dbPath)
	if err != nil {
		return fmt.Errorf("open history store: %w", err)
	}
	defer store.Close()

	stats, err := store.GetStats(context.Background())
	if err != nil {
		return fmt.Errorf("get statistics: %w", err)
	}

	if stats.TotalRuns == 0 {
		fmt.Fprintf(output, "No find history recorded yet.\n")
		return nil
	}

	printStats(output, stats)

	return nil
}

// printStats formats and prints history statistics
func printStats(w io.Writer, stats *history.Stats) {
	cyan := color.New(color.FgCyan, color.Bold)

	cyan.Fprintf(w, "\n=== Find History Statistics ===\n\n")
	fmt.Fprintf(w, "Total runs: %d\n", stats.TotalRuns)
	fmt.Fprintf(w, "Total finds: %d\n", stats.TotalFinds)
	fmt.Fprintf(w, "Distinct paths: %d\n", stats.DistinctPaths)
	fmt.Fprintf(w, "Average run duration: %s\n", formatDurationMs(stats.AvgDurationMs))
	fmt.Fprintf(w, "Last run: %s\n", formatTimestamp(stats.LastRunAt))
	fmt.Fprintln(w)
}

// formatDurationMs formats a millisecond duration for display
func formatDurationMs(ms float64) string {
	if ms < 1000 {
		return fmt.Sprintf("%.0fms", ms)
	}
	return fmt.Sprintf("%.1fs", ms/1000)
}
