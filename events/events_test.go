package events_test

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"reply-bot/events"
	"reply-bot/models"
)

func TestReplySentEvent_RoundTripThroughDeserialize(t *testing.T) {
	at := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	evt := events.NewReplySentEvent(models.ActivityRecord{
		RunID:        "run-1",
		Phrase:       "ai agents",
		PostID:       "p1",
		AuthorID:     "a1",
		AuthorHandle: "alice",
		Reply:        "nice thread",
		PostedID:     "r1",
		RepliedAt:    at,
	})
	assert.Equal(t, events.ReplySent, evt.Type)
	assert.Equal(t, "reply-bot", evt.Source)
	assert.NotEmpty(t, evt.ID)
	assert.True(t, evt.Timestamp.Equal(at))

	data, err := json.Marshal(evt)
	require.NoError(t, err)

	got, err := events.DeserializeEvent(events.ReplySent, data)
	require.NoError(t, err)
	sent, ok := got.(*events.ReplySentEvent)
	require.True(t, ok)
	assert.Equal(t, "p1", sent.PostID)
	assert.Equal(t, "r1", sent.PostedID)
	assert.Equal(t, evt.ID, sent.ID)
}

func TestRunCompletedEvent_CarriesMetrics(t *testing.T) {
	now := time.Date(2025, 3, 1, 13, 0, 0, 0, time.UTC)
	m := models.RunMetrics{RunID: "run-2", Phrase: "bots", Counters: models.RunCounters{Found: 40, Sent: 3}}
	data, err := json.Marshal(events.NewRunCompletedEvent(m, now))
	require.NoError(t, err)

	got, err := events.DeserializeEvent(events.RunCompleted, data)
	require.NoError(t, err)
	done := got.(*events.RunCompletedEvent)
	assert.Equal(t, events.RunCompleted, done.Type)
	assert.Equal(t, 40, done.Metrics.Counters.Found)
	assert.Equal(t, 3, done.Metrics.Counters.Sent)
}

func TestDeserializeEvent_Errors(t *testing.T) {
	_, err := events.DeserializeEvent("unknown.type", []byte(`{}`))
	assert.Error(t, err)

	_, err = events.DeserializeEvent(events.ReplySent, []byte(`{broken`))
	assert.Error(t, err)
}
