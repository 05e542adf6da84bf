package models

import (
	"fmt"
	"time"
)

// Stage is a state of the pipeline controller. Stages only move forward.
type Stage string

const (
	StageFetch          Stage = "fetch"
	StageScore          Stage = "score"
	StageFloorFilter    Stage = "floor_filter"
	StageSelectAndDraft Stage = "select_and_draft"
	StageQualityGate    Stage = "quality_gate"
	StageDedup          Stage = "dedup"
	StageAllocate       Stage = "allocate"
	StageSend           Stage = "send"
	StagePersistDedup   Stage = "persist_dedup"
	StageLogMetrics     Stage = "log_metrics"
	StageDone           Stage = "done"
	StageError          Stage = "error"
)

type OutcomeStatus string

const (
	OutcomeSuccess OutcomeStatus = "success"
	OutcomeFailed  OutcomeStatus = "failed"
)

// Outcome is the result of one send attempt.
type Outcome struct {
	PostID       string        `json:"post_id" bson:"post_id"`
	Status       OutcomeStatus `json:"status" bson:"status"`
	ReplyText    string        `json:"reply" bson:"reply"`
	AuthorHandle string        `json:"author" bson:"author"`
	PostedID     string        `json:"posted_id,omitempty" bson:"posted_id,omitempty"`
	Error        string        `json:"error,omitempty" bson:"error,omitempty"`
}

// RunCounters are the per-stage counts of a single run.
type RunCounters struct {
	Found       int `json:"found" bson:"found"`
	AfterFloor  int `json:"after_floor" bson:"after_floor"`
	AISelected  int `json:"ai_selected" bson:"ai_selected"`
	AfterDedup  int `json:"after_dedup" bson:"after_dedup"`
	Selected    int `json:"selected" bson:"selected"`
	Sent        int `json:"sent" bson:"sent"`
	Failed      int `json:"failed" bson:"failed"`
	FetchCalls  int `json:"fetch_calls" bson:"fetch_calls"`
	DraftCalls  int `json:"draft_calls" bson:"draft_calls"`
	PostCalls   int `json:"post_calls" bson:"post_calls"`
	QualityDrop int `json:"quality_rejected" bson:"quality_rejected"`
}

// RunSummary is built incrementally by one pipeline run.
type RunSummary struct {
	RunID      string      `json:"run_id"`
	Phrase     string      `json:"phrase"`
	StartedAt  time.Time   `json:"started_at"`
	FinishedAt time.Time   `json:"finished_at"`
	Stage      Stage       `json:"stage"`
	FailedAt   Stage       `json:"failed_at,omitempty"`
	Logs       []string    `json:"logs"`
	Outcomes   []Outcome   `json:"outcomes"`
	Errors     []string    `json:"errors"`
	Counters   RunCounters `json:"counters"`
}

func NewRunSummary(runID, phrase string, now time.Time) *RunSummary {
	return &RunSummary{
		RunID:     runID,
		Phrase:    phrase,
		StartedAt: now,
		Stage:     StageFetch,
		Logs:      []string{},
		Outcomes:  []Outcome{},
		Errors:    []string{},
	}
}

func (s *RunSummary) Logf(format string, args ...any) {
	s.Logs = append(s.Logs, fmt.Sprintf(format, args...))
}

func (s *RunSummary) AddError(err error) {
	s.Errors = append(s.Errors, err.Error())
}

// Outcome returns the recorded outcome for postID.
func (s *RunSummary) Outcome(postID string) (Outcome, bool) {
	for _, o := range s.Outcomes {
		if o.PostID == postID {
			return o, true
		}
	}
	return Outcome{}, false
}

// Failed reports whether the run stopped on an unhandled error.
func (s *RunSummary) Failed() bool {
	return s.FailedAt != ""
}

// Metrics flattens the summary into the record appended to the metrics log.
func (s *RunSummary) Metrics() RunMetrics {
	return RunMetrics{
		RunID:      s.RunID,
		Phrase:     s.Phrase,
		RunAt:      s.StartedAt,
		DurationMs: s.FinishedAt.Sub(s.StartedAt).Milliseconds(),
		FailedAt:   string(s.FailedAt),
		ErrorCount: len(s.Errors),
		Counters:   s.Counters,
	}
}
