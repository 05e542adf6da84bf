package cli

import (
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/spf13/cobra"

	"reply-bot/cmd/internal/app"
	"reply-bot/dedup"
	"reply-bot/dto"
)

func NewStoreCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "store",
		Short: "Inspect the dedup store",
	}
	cmd.AddCommand(newStoreShowCommand(rootOpts))
	return cmd
}

type authorEntry struct {
	AuthorID      string    `json:"author_id"`
	LastContactAt time.Time `json:"last_contact_at"`
	InCooldown    bool      `json:"in_cooldown"`
}

type storeShowOutput struct {
	dto.DedupStatsDTO
	RecentAuthors []authorEntry `json:"recent_authors"`
}

func newStoreShowCommand(rootOpts *RootOptions) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:          "show",
		Short:        "Show contacted posts and authors",
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := rootOpts.Config()
			if err != nil {
				return err
			}
			store, closeStore, err := app.OpenStore(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer closeStore()

			out := storeShowOutput{}
			out.CooldownDays = cfg.Pipeline.CooldownDays

			res, err := store.Load(cmd.Context())
			switch {
			case errors.Is(err, dedup.ErrCorruptState):
				out.Warning = err.Error()
			case err != nil:
				return err
			default:
				out.Found = res.Found
				out.Authors = len(res.Snapshot.AuthorLastContact)
				out.ContactedPosts = len(res.Snapshot.ContactedPostIDs)
				cooldown := dedup.CooldownFromDays(cfg.Pipeline.CooldownDays)
				now := time.Now()
				for _, at := range res.Snapshot.AuthorLastContact {
					if now.Sub(at) < cooldown {
						out.AuthorsInCooldown++
					}
				}
				out.RecentAuthors = recentAuthors(res.Snapshot, cooldown, now, limit)
			}

			if rootOpts.Format == "json" {
				return writeJSON(cmd.OutOrStdout(), out)
			}
			w := cmd.OutOrStdout()
			if out.Warning != "" {
				fmt.Fprintf(w, "warning: %s\n", out.Warning)
			}
			if !out.Found {
				fmt.Fprintln(w, "no dedup state yet")
			}
			fmt.Fprintf(w, "contacted posts: %d\nauthors: %d (%d in %d-day cooldown)\n",
				out.ContactedPosts, out.Authors, out.AuthorsInCooldown, out.CooldownDays)
			for _, a := range out.RecentAuthors {
				fmt.Fprintf(w, "  %-24s %s\n", a.AuthorID, a.LastContactAt.Format(time.RFC3339))
			}
			return nil
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 0, "list at most this many authors, newest first (0 lists all)")
	return cmd
}

// recentAuthors lists authors newest first, truncated to limit when positive.
func recentAuthors(snap dedup.Snapshot, cooldown time.Duration, now time.Time, limit int) []authorEntry {
	out := make([]authorEntry, 0, len(snap.AuthorLastContact))
	for id, at := range snap.AuthorLastContact {
		out = append(out, authorEntry{AuthorID: id, LastContactAt: at, InCooldown: now.Sub(at) < cooldown})
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].LastContactAt.Equal(out[j].LastContactAt) {
			return out[i].LastContactAt.After(out[j].LastContactAt)
		}
		return out[i].AuthorID < out[j].AuthorID
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}
