package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

// newAskCmd creates the ask command.
func newAskCmd() *cobra.Command {
	var retrievalOnly bool

	cmd := &cobra.Command{
		Use:   "ask <question>",
		Short: "Ask a one-shot question from the terminal",
		Long: `Ask a one-shot question without starting the server. The corpus is
fetched (or restored from backup), indexes are built if missing, and
the answer is printed with its confidence and sources.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			question := strings.Join(args, " ")

			a, err := newApp(false)
			if err != nil {
				return err
			}
			defer a.Close()

			if err := a.builder.Build(cmd.Context(), false); err != nil {
				return err
			}

			result, err := a.engine.Search(cmd.Context(), question)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if retrievalOnly {
				fmt.Fprintf(out, "Confidence: %s\n\n", result.Confidence)
				for i, r := range result.Results {
					fmt.Fprintf(out, "%2d. [%.3f] %s: %s\n",
						i+1, r.FusedScore, r.UserName, r.OriginalMessage)
				}
				return nil
			}

			answer, err := a.synthesizer.Synthesize(cmd.Context(), question, result)
			if err != nil {
				return err
			}

			fmt.Fprintln(out, answer.Text)
			fmt.Fprintf(out, "\nConfidence: %s\n", answer.Confidence)
			if len(answer.Sources) > 0 {
				fmt.Fprintf(out, "Sources: %s\n", strings.Join(answer.Sources, ", "))
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&retrievalOnly, "retrieval-only", false,
		"Print the fused retrieval results instead of synthesizing an answer")

	return cmd
}
