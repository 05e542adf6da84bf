package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"reply-bot/eventbus"
	"reply-bot/events"
)

func NewEventsCommand(rootOpts *RootOptions) *cobra.Command {
	var groupID string

	cmd := &cobra.Command{
		Use:   "events",
		Short: "Follow reply and run events published to Kafka",
	}
	tail := &cobra.Command{
		Use:          "tail",
		Short:        "Print events as they arrive until interrupted",
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := rootOpts.Config()
			if err != nil {
				return err
			}
			bus, err := eventbus.NewKafkaEventBus(cfg.Kafka.Brokers)
			if err != nil {
				return err
			}
			defer bus.Close()

			w := cmd.OutOrStdout()
			err = bus.Subscribe(cmd.Context(), groupID, eventbus.NewTopic(cfg.Kafka.Topic), func(ctx context.Context, evt eventbus.Event) error {
				decoded, err := events.DeserializeEvent(events.EventType(evt.Type), evt.Payload)
				if err != nil {
					return err
				}
				if rootOpts.Format == "json" {
					return writeJSON(w, decoded)
				}
				switch e := decoded.(type) {
				case *events.ReplySentEvent:
					fmt.Fprintf(w, "%s reply.sent    [%s] %s @%s -> %s\n",
						e.Timestamp.Format("2006-01-02T15:04:05"), e.Phrase, e.PostID, e.AuthorHandle, e.PostedID)
				case *events.RunCompletedEvent:
					m := e.Metrics
					fmt.Fprintf(w, "%s run.completed [%s] sent=%d failed=%d errors=%d\n",
						e.Timestamp.Format("2006-01-02T15:04:05"), m.Phrase, m.Counters.Sent, m.Counters.Failed, m.ErrorCount)
				}
				return nil
			})
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		},
	}
	tail.Flags().StringVar(&groupID, "group", "replyctl-tail", "kafka consumer group id")
	cmd.AddCommand(tail)
	return cmd
}
