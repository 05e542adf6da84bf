package dto

import (
	"time"

	"reply-bot/models"
)

// RunDTO is the list view of a run summary, without logs and outcomes.
type RunDTO struct {
	RunID      string             `json:"run_id"`
	Phrase     string             `json:"phrase"`
	StartedAt  time.Time          `json:"started_at"`
	FinishedAt time.Time          `json:"finished_at"`
	FailedAt   string             `json:"failed_at,omitempty"`
	ErrorCount int                `json:"error_count"`
	Counters   models.RunCounters `json:"counters"`
}

func NewRunDTO(s models.RunSummary) RunDTO {
	return RunDTO{
		RunID:      s.RunID,
		Phrase:     s.Phrase,
		StartedAt:  s.StartedAt,
		FinishedAt: s.FinishedAt,
		FailedAt:   string(s.FailedAt),
		ErrorCount: len(s.Errors),
		Counters:   s.Counters,
	}
}

// DedupStatsDTO summarizes the persisted dedup state.
type DedupStatsDTO struct {
	Found             bool   `json:"found"`
	Authors           int    `json:"authors"`
	AuthorsInCooldown int    `json:"authors_in_cooldown"`
	ContactedPosts    int    `json:"contacted_posts"`
	CooldownDays      int    `json:"cooldown_days"`
	Warning           string `json:"warning,omitempty"`
}

// ScoreReplyRequestDTO asks the quality gate to judge a reply.
type ScoreReplyRequestDTO struct {
	Text string `json:"text" binding:"required"`
}

type ScoreReplyResponseDTO struct {
	Reply    string `json:"reply"`
	Score    int    `json:"score"`
	MinScore int    `json:"min_score"`
	Accepted bool   `json:"accepted"`
}
