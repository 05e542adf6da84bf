package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"reply-bot/dto"
	"reply-bot/replyscore"
)

func NewScoreCommand(rootOpts *RootOptions) *cobra.Command {
	var minScore int

	cmd := &cobra.Command{
		Use:          "score <reply text>",
		Short:        "Score a reply with the quality gate",
		Args:         cobra.MinimumNArgs(1),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			gate := replyscore.Gate{MinScore: minScore}
			reply, score, ok := gate.Accept(strings.Join(args, " "))
			out := dto.ScoreReplyResponseDTO{Reply: reply, Score: score, MinScore: minScore, Accepted: ok}

			if rootOpts.Format == "json" {
				return writeJSON(cmd.OutOrStdout(), out)
			}
			verdict := "rejected"
			if ok {
				verdict = "accepted"
			}
			fmt.Fprintf(cmd.OutOrStdout(), "score=%d min=%d %s\n%s\n", score, minScore, verdict, reply)
			return nil
		},
	}
	cmd.Flags().IntVar(&minScore, "min", replyscore.DefaultMinScore, "minimum accepted score")
	return cmd
}
