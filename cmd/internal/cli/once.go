package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"reply-bot/cmd/internal/app"
	"reply-bot/models"
)

func NewOnceCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "once [phrase...]",
		Short: "Run the pipeline once for the given or configured phrases",
		Long: `Run one pass of the reply pipeline for each phrase and print the run summaries.

Without arguments the configured query phrases are used. Replies are really
posted; the dedup store and logs are updated exactly as in the daemon.`,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := rootOpts.Config()
			if err != nil {
				return err
			}
			if len(args) > 0 {
				cfg.Pipeline.QueryPhrases = args
			}
			if err := cfg.Validate(); err != nil {
				return err
			}

			a, err := app.New(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer a.Close()

			summaries := make([]*models.RunSummary, 0, len(cfg.Pipeline.QueryPhrases))
			for _, phrase := range cfg.Pipeline.QueryPhrases {
				if cmd.Context().Err() != nil {
					break
				}
				summaries = append(summaries, a.Pipeline.Run(cmd.Context(), phrase))
			}

			if rootOpts.Format == "json" {
				return writeJSON(cmd.OutOrStdout(), summaries)
			}
			for _, s := range summaries {
				printSummary(cmd.OutOrStdout(), s, rootOpts.Verbose)
			}
			return nil
		},
	}
	return cmd
}

func printSummary(w io.Writer, s *models.RunSummary, verbose bool) {
	c := s.Counters
	fmt.Fprintf(w, "[%s] run %s\n", s.Phrase, s.RunID)
	fmt.Fprintf(w, "  found=%d floor=%d selected_by_ai=%d after_dedup=%d quota=%d sent=%d failed=%d\n",
		c.Found, c.AfterFloor, c.AISelected, c.AfterDedup, c.Selected, c.Sent, c.Failed)
	for _, o := range s.Outcomes {
		if o.Status == models.OutcomeSuccess {
			fmt.Fprintf(w, "  ok    %s @%s -> %s\n", o.PostID, o.AuthorHandle, o.PostedID)
		} else {
			fmt.Fprintf(w, "  fail  %s @%s: %s\n", o.PostID, o.AuthorHandle, o.Error)
		}
	}
	if s.Failed() {
		fmt.Fprintf(w, "  failed at %s\n", s.FailedAt)
	}
	for _, e := range s.Errors {
		fmt.Fprintf(w, "  error: %s\n", e)
	}
	if verbose {
		for _, l := range s.Logs {
			fmt.Fprintf(w, "  | %s\n", l)
		}
	}
}
