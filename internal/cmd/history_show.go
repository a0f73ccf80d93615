package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/fatih/color"
	"github.com/harrison/pagecat/internal/history"
	"github.com/spf13/cobra"
)

// NewShowCommand creates the 'pagecat history show' command
func NewShowCommand() *cobra.Command {
	var limit int
	var dbPath string

	cmd := &cobra.Command{
		Use:   "show",
		Short: "Show recently recorded finds",
		Long: `Display recently recorded finds, most recent first, including:
  - When each find was recorded
  - The matched path
  - The pattern that produced the match
  - Read errors, when content could not be printed`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runHistoryShow(cmd, limit, dbPath)
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 20, "Maximum number of finds to show (0 = no limit)")
	cmd.Flags().StringVar(&dbPath, "db-path", "", "Path to history database (default: <pagecat home>/history.db)")

	return cmd
}

// runHistoryShow executes the show command
func runHistoryShow(cmd *cobra.Command, limit int, dbPathOverride string) error {
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

	ctx := context.Background()
	finds, err := store.RecentFinds(ctx, limit)
	if err != nil {
		return fmt.Errorf("get recent finds: %w", err)
	}

	if len(finds) == 0 {
		fmt.Fprintf(output, "No find history recorded yet.\n")
		return nil
	}

	printFindHistory(output, finds)

	return nil
}

// printFindHistory formats and prints recorded finds
func printFindHistory(w io.Writer, finds []*history.Find) {
	// Colors
	cyan := color.New(color.FgCyan, color.Bold)
	red := color.New(color.FgRed)
	gray := color.New(color.FgHiBlack)

	// Header
	cyan.Fprintf(w, "\n=== Find History ===\n\n")
	fmt.Fprintf(w, "Showing %d find(s), most recent first\n\n", len(finds))

	for _, f := range finds {
		fmt.Fprintf(w, "%s  %s\n", formatTimestamp(f.CreatedAt), f.Path)
		gray.Fprintf(w, "  run %s, pattern %s\n", f.RunID, f.Pattern)
		if f.ReadError != "" {
			fmt.Fprintf(w, "  read error: ")
			red.Fprintf(w, "%s\n", f.ReadError)
		}
	}

	fmt.Fprintln(w)
}

// formatTimestamp formats a timestamp for display
func formatTimestamp(t time.Time) string {
	return t.Format("2006-01-02 15:04:05")
}
