package cmd

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/harrison/pagecat/internal/history"
	"github.com/spf13/cobra"
)

// newClearCommand creates the 'pagecat history clear' command
func newClearCommand() *cobra.Command {
	var clearAll bool
	var dbPath string

	cmd := &cobra.Command{
		Use:   "clear [path]",
		Short: "Clear recorded find history",
		Long: `Clear recorded finds for a specific path or the entire database.

Examples:
  # Clear finds recorded for one path (requires confirmation)
  pagecat history clear src/app/en/account/orders/42/page.tsx

  # Clear all recorded history (requires confirmation)
  pagecat history clear --all`,
		Args: func(cmd *cobra.Command, args []string) error {
			clearAll, _ := cmd.Flags().GetBool("all")
			if clearAll && len(args) > 0 {
				return fmt.Errorf("cannot specify a path when using --all flag")
			}
			if !clearAll && len(args) != 1 {
				return fmt.Errorf("requires a path argument or --all flag")
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runHistoryClear(cmd, args, clearAll, dbPath)
		},
	}

	cmd.Flags().BoolVar(&clearAll, "all", false, "Clear the entire history database")
	cmd.Flags().StringVar(&dbPath, "db-path", "", "Path to history database (default: <pagecat home>/history.db)")

	return cmd
}

// runHistoryClear executes the clear command
func runHistoryClear(cmd *cobra.Command, args []string, clearAll bool, dbPathOverride string) error {
	output := cmd.OutOrStdout()

	if clearAll {
		fmt.Fprintf(output, "WARNING: This will delete ALL recorded find history.\n")
	} else {
		fmt.Fprintf(output, "This will delete recorded finds for path: %s\n", args[0])
	}
	if !confirmAction(cmd.InOrStdin(), output) {
		fmt.Fprintf(output, "Operation cancelled.\n")
		return nil
	}

	dbPath, err := resolveHistoryDBPath(cmd, dbPathOverride)
	if err != nil {
		return err
	}

	// Check if database exists
	if _, err := os.Stat(dbPath); os.IsNotExist(err) {
		fmt.Fprintf(output, "No history database found at: %s\n", dbPath)
		return nil
	}

	store, err := history.NewStore(dbPath)
	if err != nil {
		return fmt.Errorf("open history store: %w", err)
	}
	defer store.Close()

	ctx := context.Background()
	var deletedCount int64
	if clearAll {
		deletedCount, err = store.ClearAll(ctx)
	} else {
		deletedCount, err = store.DeleteFindsForPath(ctx, args[0])
	}
	if err != nil {
		return fmt.Errorf("delete records: %w", err)
	}

	// Report results
	recordText := "record"
	if deletedCount != 1 {
		recordText = "records"
	}
	fmt.Fprintf(output, "Deleted %d %s.\n", deletedCount, recordText)

	return nil
}

// confirmAction prompts for a y/N confirmation
func confirmAction(in io.Reader, out io.Writer) bool {
	fmt.Fprintf(out, "Continue? [y/N]: ")

	scanner := bufio.NewScanner(in)
	if !scanner.Scan() {
		return false
	}

	response := strings.TrimSpace(strings.ToLower(scanner.Text()))
	return response == "y" || response == "yes"
}
