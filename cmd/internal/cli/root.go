// Package cli implements replyctl, the operator command line for the bot.
package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"slices"

	"github.com/spf13/cobra"

	"reply-bot/config"
	"reply-bot/logger"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	ConfigPath string
	Format     string // "json" | "text"
	Verbose    bool

	cfg *config.AppConfig
}

var ValidFormats = []string{"text", "json"}

// Config returns the loaded configuration.
func (o *RootOptions) Config() (config.AppConfig, error) {
	if o.cfg != nil {
		return *o.cfg, nil
	}
	var cfg config.AppConfig
	if o.ConfigPath == "" {
		cfg = config.GetConfig()
	} else {
		loaded, err := config.Load(o.ConfigPath)
		if err != nil {
			return config.AppConfig{}, err
		}
		cfg = loaded
	}
	o.cfg = &cfg
	return cfg, nil
}

// NewRootCommand creates the replyctl root command.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:           "replyctl",
		Short:         "Operate the reply bot",
		Long:          "Run single pipeline passes, inspect dedup state and score replies.",
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !slices.Contains(ValidFormats, opts.Format) {
				return fmt.Errorf("invalid format %q: must be one of %v", opts.Format, ValidFormats)
			}
			if opts.Verbose {
				logger.Init("debug")
			} else {
				logger.Init("warn")
			}
			return nil
		},
	}

	cmd.PersistentFlags().StringVarP(&opts.ConfigPath, "config", "c", "", "path to config.yaml (default: search upwards from cwd)")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (json|text)")
	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose logging")

	cmd.AddCommand(NewOnceCommand(opts))
	cmd.AddCommand(NewScoreCommand(opts))
	cmd.AddCommand(NewStoreCommand(opts))
	cmd.AddCommand(NewSessionCommand(opts))
	cmd.AddCommand(NewEventsCommand(opts))

	return cmd
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
