package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"reply-bot/twitterapi"
)

func NewSessionCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "session",
		Short: "Manage the platform login session",
	}
	cmd.AddCommand(&cobra.Command{
		Use:          "set <login-cookies>",
		Short:        "Store a login session in the configured session file",
		Args:         cobra.ExactArgs(1),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := rootOpts.Config()
			if err != nil {
				return err
			}
			if err := twitterapi.SaveSession(cfg.Platform.SessionFile, args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "session saved to %s\n", cfg.Platform.SessionFile)
			return nil
		},
	})
	return cmd
}
