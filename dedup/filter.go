package dedup

import (
	"time"

	"reply-bot/models"
)

// Filter drops posts that were already replied to and posts whose author was
// contacted less than cooldown ago. Order is preserved.
func Filter(posts []models.DraftedPost, snap Snapshot, cooldown time.Duration, now time.Time) []models.DraftedPost {
	kept := make([]models.DraftedPost, 0, len(posts))
	for _, p := range posts {
		if Rejected(p.Post, snap, cooldown, now) {
			continue
		}
		kept = append(kept, p)
	}
	return kept
}

// Rejected reports whether p must not be contacted given snap.
func Rejected(p models.Post, snap Snapshot, cooldown time.Duration, now time.Time) bool {
	if snap.Contacted(p.ID) {
		return true
	}
	if last, ok := snap.AuthorLastContact[p.AuthorID]; ok && now.Sub(last) < cooldown {
		return true
	}
	return false
}

// UniquePosts drops repeated post ids, keeping the first occurrence.
func UniquePosts(posts []models.Post) []models.Post {
	seen := make(map[string]struct{}, len(posts))
	out := make([]models.Post, 0, len(posts))
	for _, p := range posts {
		if _, ok := seen[p.ID]; ok {
			continue
		}
		seen[p.ID] = struct{}{}
		out = append(out, p)
	}
	return out
}

// CooldownFromDays converts a day count into a duration.
func CooldownFromDays(days int) time.Duration {
	return time.Duration(days) * 24 * time.Hour
}
