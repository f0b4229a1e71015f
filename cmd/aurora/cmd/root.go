// Package cmd provides the CLI commands for the aurora service.
package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/aurorahq/aurora/pkg/version"
)

var (
	configDir string
	debugMode bool
)

// NewRootCmd creates the root command for the aurora CLI.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "aurora",
		Short: "Question answering over member messages",
		Long: `Aurora answers natural-language questions over a corpus of member
messages. It builds dual indexes (dense semantic vectors + BM25 keyword
index), fuses both ranked lists per query, and synthesizes an answer
from the top fused contexts.

Run 'aurora serve' to start the HTTP API, or 'aurora ask' for a
one-shot question from the terminal.`,
		Version:       version.Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.SetVersionTemplate("aurora version {{.Version}}\n")

	cmd.PersistentFlags().StringVar(&configDir, "config", "",
		"Directory containing aurora.yaml (default: current directory)")
	cmd.PersistentFlags().BoolVar(&debugMode, "debug", false,
		"Enable debug logging")

	cmd.AddCommand(
		newServeCmd(),
		newIndexCmd(),
		newAskCmd(),
		newVersionCmd(),
	)

	return cmd
}

// Execute runs the root command.
func Execute() error {
	root := NewRootCmd()
	if err := root.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return err
	}
	return nil
}
