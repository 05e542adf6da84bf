// Package engagement annotates candidate posts with interaction metrics and
// drops the ones that are not worth a reply.
package engagement

import "reply-bot/models"

// Score annotates each post with its engagement sum and rate.
// The result has the same length and order as posts.
func Score(posts []models.Post) []models.ScoredPost {
	scored := make([]models.ScoredPost, 0, len(posts))
	for _, p := range posts {
		sum := p.Likes + p.Retweets + p.Replies + p.Quotes
		scored = append(scored, models.ScoredPost{
			Post:           p,
			EngagementSum:  sum,
			EngagementRate: float64(sum) / float64(p.Views+1),
		})
	}
	return scored
}

// FilterByFloor keeps posts with at least floor interactions that accept replies.
func FilterByFloor(posts []models.ScoredPost, floor int) []models.ScoredPost {
	kept := make([]models.ScoredPost, 0, len(posts))
	for _, p := range posts {
		if p.ReplyRestricted || p.EngagementSum < floor {
			continue
		}
		kept = append(kept, p)
	}
	return kept
}
