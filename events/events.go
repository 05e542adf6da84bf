package events

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"reply-bot/models"
)

type EventType string

const (
	ReplySent    EventType = "reply.sent"
	RunCompleted EventType = "run.completed"
)

const source = "reply-bot"

// BaseEvent is embedded in every event.
type BaseEvent struct {
	ID        string    `json:"id"`
	Type      EventType `json:"type"`
	Timestamp time.Time `json:"timestamp"`
	Source    string    `json:"source"`
	Version   string    `json:"version"`
}

func newBase(t EventType, now time.Time) BaseEvent {
	return BaseEvent{
		ID:        uuid.NewString(),
		Type:      t,
		Timestamp: now,
		Source:    source,
		Version:   "1.0",
	}
}

// ReplySentEvent is emitted for every confirmed reply.
type ReplySentEvent struct {
	BaseEvent
	RunID        string    `json:"run_id"`
	Phrase       string    `json:"phrase"`
	PostID       string    `json:"post_id"`
	AuthorID     string    `json:"author_id"`
	AuthorHandle string    `json:"author_handle"`
	Reply        string    `json:"reply"`
	PostedID     string    `json:"posted_id"`
	RepliedAt    time.Time `json:"replied_at"`
}

func NewReplySentEvent(rec models.ActivityRecord) ReplySentEvent {
	return ReplySentEvent{
		BaseEvent:    newBase(ReplySent, rec.RepliedAt),
		RunID:        rec.RunID,
		Phrase:       rec.Phrase,
		PostID:       rec.PostID,
		AuthorID:     rec.AuthorID,
		AuthorHandle: rec.AuthorHandle,
		Reply:        rec.Reply,
		PostedID:     rec.PostedID,
		RepliedAt:    rec.RepliedAt,
	}
}

// RunCompletedEvent is emitted once per pipeline run.
type RunCompletedEvent struct {
	BaseEvent
	Metrics models.RunMetrics `json:"metrics"`
}

func NewRunCompletedEvent(m models.RunMetrics, now time.Time) RunCompletedEvent {
	return RunCompletedEvent{BaseEvent: newBase(RunCompleted, now), Metrics: m}
}

// DeserializeEvent decodes data into the struct registered for eventType.
func DeserializeEvent(eventType EventType, data []byte) (any, error) {
	var event any

	switch eventType {
	case ReplySent:
		event = &ReplySentEvent{}
	case RunCompleted:
		event = &RunCompletedEvent{}
	default:
		return nil, fmt.Errorf("unknown event type: %s", eventType)
	}

	if err := json.Unmarshal(data, event); err != nil {
		return nil, fmt.Errorf("failed to unmarshal event: %w", err)
	}
	return event, nil
}
