package models

import "time"

// ActivityRecord is appended once per confirmed reply.
type ActivityRecord struct {
	RunID        string    `json:"run_id" bson:"run_id"`
	Phrase       string    `json:"phrase" bson:"phrase"`
	PostID       string    `json:"post_id" bson:"post_id"`
	AuthorID     string    `json:"author_id" bson:"author_id"`
	AuthorHandle string    `json:"author_handle" bson:"author_handle"`
	Text         string    `json:"text" bson:"text"`
	Reply        string    `json:"reply" bson:"reply"`
	PostedID     string    `json:"posted_id" bson:"posted_id"`
	RepliedAt    time.Time `json:"replied_at" bson:"replied_at"`
}

// RunMetrics is appended once per pipeline run.
type RunMetrics struct {
	RunID      string      `json:"run_id" bson:"run_id"`
	Phrase     string      `json:"phrase" bson:"phrase"`
	RunAt      time.Time   `json:"run_at" bson:"run_at"`
	DurationMs int64       `json:"duration_ms" bson:"duration_ms"`
	FailedAt   string      `json:"failed_at,omitempty" bson:"failed_at,omitempty"`
	ErrorCount int         `json:"error_count" bson:"error_count"`
	Counters   RunCounters `json:"counters" bson:"counters"`
}
