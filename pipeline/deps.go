// Package pipeline runs the reply decision pipeline for one query phrase and
// repeats it for every configured phrase on a jittered interval.
package pipeline

import (
	"context"

	"reply-bot/models"
)

// Fetcher searches the platform for candidate posts.
type Fetcher interface {
	Fetch(ctx context.Context, query, queryType string, maxCount int) ([]models.Post, error)
}

// Drafter selects posts worth replying to and drafts a reply for each.
// The result maps post id to reply text and may be empty.
type Drafter interface {
	SelectAndDraft(ctx context.Context, batch []models.ScoredPost, phrase string) (map[string]string, error)
}

// Poster publishes a reply and returns the id of the created post.
type Poster interface {
	PostReply(ctx context.Context, postID, text string) (string, error)
}
