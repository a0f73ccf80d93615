package cmd

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strconv"

	"github.com/harrison/pagecat/internal/filelock"
	"github.com/harrison/pagecat/internal/history"
	"github.com/spf13/cobra"
)

// newExportCommand creates the 'pagecat history export' command
func newExportCommand() *cobra.Command {
	var format string
	var output string
	var dbPath string

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export find history to JSON or CSV format",
		Long: `Export recorded finds to JSON or CSV format for external analysis
or backup.

If no output file is specified, data is written to stdout. With --output
the file is written atomically under a file lock, so concurrent exports
to the same path cannot interleave.

Examples:
  # Export to a JSON file
  pagecat history export --format json --output finds.json

  # Export to CSV on stdout
  pagecat history export --format csv

Supported formats:
  - json: JSON array of find records
  - csv: CSV with headers`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runHistoryExport(cmd, format, output, dbPath)
		},
	}

	cmd.Flags().StringVar(&format, "format", "json", "Export format (json|csv)")
	cmd.Flags().StringVar(&output, "output", "", "Output file path (stdout if not specified)")
	cmd.Flags().StringVar(&dbPath, "db-path", "", "Path to history database (default: <pagecat home>/history.db)")

	return cmd
}

// runHistoryExport executes the export command
func runHistoryExport(cmd *cobra.Command, format, outputPath, dbPathOverride string) error {
	// Validate format
	if format != "json" && format != "csv" {
		return fmt.Errorf("invalid format '%s': format must be 'json' or 'csv'", format)
	}

	dbPath, err := resolveHistoryDBPath(cmd, dbPathOverride)
	if err != nil {
		return err
	}

	store, err := history.NewStore(dbPath)
	if err != nil {
		return fmt.Errorf("open history store: %w", err)
	}
	defer store.Close()

	finds, err := store.RecentFinds(context.Background(), 0)
	if err != nil {
		return fmt.Errorf("retrieve finds: %w", err)
	}

	// Initialize empty slice if nil to ensure JSON output is [] not null
	if finds == nil {
		finds = make([]*history.Find, 0)
	}

	// Render to a buffer when writing a file so the result lands on disk in
	// one locked atomic write
	var buf bytes.Buffer
	var writer io.Writer = cmd.OutOrStdout()
	if outputPath != "" {
		writer = &buf
	}

	switch format {
	case "json":
		err = exportJSON(writer, finds)
	case "csv":
		err = exportCSV(writer, finds)
	}
	if err != nil {
		return err
	}

	if outputPath != "" {
		if err := filelock.LockAndWrite(outputPath, buf.Bytes()); err != nil {
			return fmt.Errorf("write output file: %w", err)
		}
	}

	return nil
}

func exportJSON(writer io.Writer, finds []*history.Find) error {
	encoder := json.NewEncoder(writer)
	encoder.SetIndent("", "  ")

	if err := encoder.Encode(finds); err != nil {
		return fmt.Errorf("failed to encode JSON: %w", err)
	}

	return nil
}

func exportCSV(writer io.Writer, finds []*history.Find) error {
	csvWriter := csv.NewWriter(writer)
	defer csvWriter.Flush()

	// Write header
	header := []string{"id", "run_id", "pattern", "path", "read_error", "created_at"}
	if err := csvWriter.Write(header); err != nil {
		return fmt.Errorf("failed to write CSV header: %w", err)
	}

	// Write data rows
	for _, f := range finds {
		row := []string{
			strconv.FormatInt(f.ID, 10),
			f.RunID,
			f.Pattern,
			f.Path,
			f.ReadError,
			f.CreatedAt.Format("2006-01-02 15:04:05"),
		}
		if err := csvWriter.Write(row); err != nil {
			return fmt.Errorf("failed to write CSV row: %w", err)
		}
	}

	return nil
}
