package cmd

import (
	"fmt"

	"github.com/harrison/pagecat/internal/locator"
	"github.com/spf13/cobra"
)

// NewPatternsCommand creates the 'pagecat patterns' command
func NewPatternsCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "patterns",
		Short: "Print the built-in glob patterns",
		Long: `Print the glob patterns pagecat expands, one per line, in the order
they are tried. The patterns are fixed and not configurable.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			for _, p := range locator.DefaultPatterns() {
				fmt.Fprintln(out, p)
			}
			return nil
		},
	}

	return cmd
}
