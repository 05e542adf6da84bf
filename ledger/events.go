package ledger

import (
	"context"
	"time"

	"reply-bot/eventbus"
	"reply-bot/events"
	"reply-bot/models"
)

// EventPublisher announces confirmed replies and finished runs on the event bus.
type EventPublisher struct {
	bus   eventbus.EventBus
	topic eventbus.Topic
	now   func() time.Time
}

func NewEventPublisher(bus eventbus.EventBus, topic eventbus.Topic) *EventPublisher {
	return &EventPublisher{bus: bus, topic: topic, now: time.Now}
}

func (p *EventPublisher) AppendActivity(ctx context.Context, rec models.ActivityRecord) error {
	ev := events.NewReplySentEvent(rec)
	return p.publish(ctx, ev.ID, ev.Type, ev)
}

func (p *EventPublisher) AppendMetrics(ctx context.Context, m models.RunMetrics) error {
	ev := events.NewRunCompletedEvent(m, p.now().UTC())
	return p.publish(ctx, ev.ID, ev.Type, ev)
}

func (p *EventPublisher) publish(ctx context.Context, id string, t events.EventType, payload any) error {
	evt, err := eventbus.NewJSONEvent(id, string(t), payload)
	if err != nil {
		return err
	}
	return p.bus.Publish(ctx, p.topic.Base(), evt)
}
