package ledger_test

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"reply-bot/eventbus"
	"reply-bot/events"
	"reply-bot/ledger"
	"reply-bot/models"
)

func readLines(t *testing.T, path string) []string {
	t.Helper()
	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	var lines []string
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		lines = append(lines, sc.Text())
	}
	require.NoError(t, sc.Err())
	return lines
}

func TestFileActivitySink_AppendsLines(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "logs")
	sink := ledger.NewFileActivitySink(dir)
	ctx := context.Background()

	at := time.Date(2025, 3, 4, 10, 0, 0, 0, time.UTC)
	require.NoError(t, sink.AppendActivity(ctx, models.ActivityRecord{PostID: "1", AuthorHandle: "alice", Reply: "hi", RepliedAt: at}))
	require.NoError(t, sink.AppendActivity(ctx, models.ActivityRecord{PostID: "2", AuthorHandle: "bob", Reply: "yo", RepliedAt: at}))

	lines := readLines(t, filepath.Join(dir, ledger.ActivityFile))
	require.Len(t, lines, 2)

	var rec models.ActivityRecord
	require.NoError(t, json.Unmarshal([]byte(lines[1]), &rec))
	assert.Equal(t, "2", rec.PostID)
	assert.Equal(t, "bob", rec.AuthorHandle)
	assert.True(t, at.Equal(rec.RepliedAt))
}

func TestFileMetricsSink_Recent(t *testing.T) {
	dir := t.TempDir()
	sink := ledger.NewFileMetricsSink(dir)
	ctx := context.Background()

	empty, err := sink.Recent(ctx, 5)
	require.NoError(t, err)
	assert.Empty(t, empty)

	for i := 0; i < 4; i++ {
		require.NoError(t, sink.AppendMetrics(ctx, models.RunMetrics{RunID: fmt.Sprintf("r%d", i)}))
	}

	recent, err := sink.Recent(ctx, 2)
	require.NoError(t, err)
	require.Len(t, recent, 2)
	assert.Equal(t, "r3", recent[0].RunID)
	assert.Equal(t, "r2", recent[1].RunID)

	all, err := sink.Recent(ctx, 0)
	require.NoError(t, err)
	assert.Len(t, all, 4)
}

func TestDumpRaw(t *testing.T) {
	dir := t.TempDir()
	posts := []models.Post{{ID: "1", Text: "a"}, {ID: "2", Text: "b"}}

	require.NoError(t, ledger.DumpRaw(dir, "ai agents/whatsapp", posts))

	path := ledger.RawDumpPath(dir, "ai agents/whatsapp")
	assert.Equal(t, "raw_fetched_ai_agents_whatsapp.json", filepath.Base(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	var got []models.Post
	require.NoError(t, json.Unmarshal(data, &got))
	assert.Equal(t, posts, got)

	require.NoError(t, ledger.DumpRaw(dir, "ai agents/whatsapp", nil))
	data, err = os.ReadFile(path)
	require.NoError(t, err)
	assert.JSONEq(t, "[]", string(data))
}

type failingSink struct{}

func (failingSink) AppendActivity(context.Context, models.ActivityRecord) error {
	return errors.New("disk full")
}

func (failingSink) AppendMetrics(context.Context, models.RunMetrics) error {
	return errors.New("disk full")
}

func TestMulti_WritesEverySinkAndJoinsErrors(t *testing.T) {
	dir := t.TempDir()
	file := ledger.NewFileActivitySink(dir)
	multi := ledger.MultiActivity{failingSink{}, file}

	err := multi.AppendActivity(context.Background(), models.ActivityRecord{PostID: "1"})
	assert.ErrorContains(t, err, "disk full")
	assert.Len(t, readLines(t, filepath.Join(dir, ledger.ActivityFile)), 1)

	metrics := ledger.MultiMetrics{ledger.NewFileMetricsSink(dir)}
	assert.NoError(t, metrics.AppendMetrics(context.Background(), models.RunMetrics{RunID: "r"}))
}

func TestPromRecorder(t *testing.T) {
	r := ledger.NewPromRecorder()
	ctx := context.Background()

	require.NoError(t, r.AppendMetrics(ctx, models.RunMetrics{
		Phrase:     "bots",
		DurationMs: 1500,
		Counters:   models.RunCounters{Found: 10, AfterFloor: 6, Sent: 3, Failed: 1, FetchCalls: 2, PostCalls: 4},
	}))
	require.NoError(t, r.AppendMetrics(ctx, models.RunMetrics{
		Phrase:   "bots",
		FailedAt: "fetch",
	}))

	assert.Equal(t, 1.0, testutil.ToFloat64(r.RunsTotal().WithLabelValues("bots", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.RunsTotal().WithLabelValues("bots", "error")))
	assert.Equal(t, 10.0, testutil.ToFloat64(r.PostsTotal().WithLabelValues("found")))
	assert.Equal(t, 3.0, testutil.ToFloat64(r.PostsTotal().WithLabelValues("sent")))

	families, err := r.Registry().Gather()
	require.NoError(t, err)
	assert.NotEmpty(t, families)
}

type recordingBus struct {
	topics []string
	events []eventbus.Event
}

func (b *recordingBus) Publish(_ context.Context, topic string, e eventbus.Event) error {
	b.topics = append(b.topics, topic)
	b.events = append(b.events, e)
	return nil
}

func (b *recordingBus) Subscribe(context.Context, string, eventbus.Topic, eventbus.EventHandler) error {
	return nil
}

func (b *recordingBus) Close() {}

func TestEventPublisher(t *testing.T) {
	bus := &recordingBus{}
	pub := ledger.NewEventPublisher(bus, eventbus.NewTopic("reply-bot.reply.events"))
	ctx := context.Background()

	require.NoError(t, pub.AppendActivity(ctx, models.ActivityRecord{RunID: "r1", PostID: "42", PostedID: "99"}))
	require.NoError(t, pub.AppendMetrics(ctx, models.RunMetrics{RunID: "r1", Counters: models.RunCounters{Sent: 1}}))

	require.Len(t, bus.events, 2)
	assert.Equal(t, []string{"reply-bot.reply.events", "reply-bot.reply.events"}, bus.topics)
	assert.Equal(t, string(events.ReplySent), bus.events[0].Type)
	assert.Equal(t, string(events.RunCompleted), bus.events[1].Type)

	sent, err := eventbus.DecodeJSON[events.ReplySentEvent](bus.events[0])
	require.NoError(t, err)
	assert.Equal(t, "42", sent.PostID)
	assert.Equal(t, bus.events[0].ID, sent.ID)

	decoded, err := events.DeserializeEvent(events.RunCompleted, bus.events[1].Payload)
	require.NoError(t, err)
	done, ok := decoded.(*events.RunCompletedEvent)
	require.True(t, ok)
	assert.Equal(t, 1, done.Metrics.Counters.Sent)
}

func TestHistory(t *testing.T) {
	h := ledger.NewHistory(2)
	for i := 0; i < 3; i++ {
		s := models.NewRunSummary(fmt.Sprintf("r%d", i), "p", time.Now())
		h.Record(s)
	}

	list := h.List(0)
	require.Len(t, list, 2)
	assert.Equal(t, "r2", list[0].RunID)
	assert.Equal(t, "r1", list[1].RunID)

	_, ok := h.Get("r0")
	assert.False(t, ok)
	got, ok := h.Get("r1")
	require.True(t, ok)
	assert.Equal(t, "r1", got.RunID)

	s := models.NewRunSummary("r3", "p", time.Now())
	h.Record(s)
	s.Logf("mutated after record")
	got, _ = h.Get("r3")
	assert.Empty(t, got.Logs)
}
