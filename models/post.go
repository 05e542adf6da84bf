package models

import "time"

// Post is a candidate post returned by the platform search.
// It is never mutated after the fetch.
type Post struct {
	ID               string    `json:"id"`
	AuthorID         string    `json:"author_id"`
	AuthorHandle     string    `json:"author_handle"`
	IsPrimarySegment bool      `json:"is_primary_segment"`
	Text             string    `json:"text"`
	Likes            int       `json:"likes"`
	Retweets         int       `json:"retweets"`
	Replies          int       `json:"replies"`
	Quotes           int       `json:"quotes"`
	Views            int       `json:"views"`
	CreatedAt        time.Time `json:"created_at"`
	// ReplyRestricted is set when the source reports that the author limits who can reply.
	ReplyRestricted bool `json:"reply_restricted,omitempty"`
}

// ScoredPost is a Post annotated with its engagement metrics.
type ScoredPost struct {
	Post
	EngagementSum  int     `json:"engagement_sum"`
	EngagementRate float64 `json:"engagement_rate"`
}

// DraftedPost is a ScoredPost carrying a reply that passed the quality gate.
type DraftedPost struct {
	ScoredPost
	ReplyText  string `json:"reply_text"`
	ReplyScore int    `json:"reply_score"`
}
