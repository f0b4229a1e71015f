package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

// newIndexCmd creates the index command.
func newIndexCmd() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "index",
		Short: "Fetch the corpus and build both indexes",
		Long: `Fetch the corpus and build both indexes without starting the server.
A dense index that already covers the corpus is left untouched unless
--force is given.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := newApp(false)
			if err != nil {
				return err
			}
			defer a.Close()

			if err := a.builder.Build(cmd.Context(), force); err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(),
				"Indexed %d messages (lexical: %d)\n",
				a.dense.Count(), a.lex.Count())
			return nil
		},
	}

	cmd.Flags().BoolVar(&force, "force", false,
		"Rebuild the dense index even if it already covers the corpus")

	return cmd
}
