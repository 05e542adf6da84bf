package eventbus

import (
	"context"
	"encoding/json"
)

// Topic names a Kafka topic the bot publishes to.
type Topic struct {
	base string
}

func NewTopic(base string) Topic {
	return Topic{base: base}
}

func (t Topic) Base() string {
	return t.base
}

// Event is the envelope written as the Kafka message value.
type Event struct {
	ID      string          `json:"id"`
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// EventHandler processes one consumed event.
type EventHandler func(ctx context.Context, event Event) error

// EventBus publishes and consumes events.
type EventBus interface {
	Publish(ctx context.Context, topic string, event Event) error
	Subscribe(ctx context.Context, groupID string, topic Topic, handler EventHandler) error
	Close()
}
