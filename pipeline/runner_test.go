package pipeline_test

import (
	"context"
	"math/rand/v2"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"reply-bot/models"
	"reply-bot/pipeline"
)

func TestNextWait_Bounds(t *testing.T) {
	rnd := rand.New(rand.NewPCG(7, 7))
	base := 360 * time.Minute
	for i := 0; i < 1000; i++ {
		w := pipeline.NextWait(base, rnd)
		assert.GreaterOrEqual(t, w, 252*time.Minute)
		assert.LessOrEqual(t, w, 468*time.Minute)
	}
}

func TestNextWait_FloorOfOneMinute(t *testing.T) {
	rnd := rand.New(rand.NewPCG(1, 1))
	for i := 0; i < 100; i++ {
		assert.GreaterOrEqual(t, pipeline.NextWait(30*time.Second, rnd), time.Minute)
		assert.Equal(t, time.Minute, pipeline.NextWait(0, rnd))
	}
}

func TestRandomDelay(t *testing.T) {
	rnd := rand.New(rand.NewPCG(3, 4))
	seen := map[time.Duration]bool{}
	for i := 0; i < 500; i++ {
		d := pipeline.RandomDelay(2, 4, rnd)
		assert.Contains(t, []time.Duration{2 * time.Second, 3 * time.Second, 4 * time.Second}, d)
		seen[d] = true
	}
	assert.Len(t, seen, 3)
	assert.Equal(t, 5*time.Second, pipeline.RandomDelay(5, 5, rnd))
	assert.Zero(t, pipeline.RandomDelay(0, 0, rnd))
}

func TestSleep(t *testing.T) {
	assert.NoError(t, pipeline.Sleep(context.Background(), time.Millisecond))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	start := time.Now()
	assert.ErrorIs(t, pipeline.Sleep(ctx, time.Hour), context.Canceled)
	assert.Less(t, time.Since(start), time.Second)
}

type countingRunner struct {
	phrases []string
	cancel  context.CancelFunc
	after   int
}

func (r *countingRunner) Run(_ context.Context, phrase string) *models.RunSummary {
	r.phrases = append(r.phrases, phrase)
	if r.cancel != nil && len(r.phrases) == r.after {
		r.cancel()
	}
	return models.NewRunSummary("id", phrase, time.Now())
}

func TestNewRunner_RequiresPhrases(t *testing.T) {
	_, err := pipeline.NewRunner(&countingRunner{}, nil, time.Hour, nil)
	assert.ErrorIs(t, err, pipeline.ErrNoPhrases)
}

func TestRunner_RunCycleVisitsEveryPhrase(t *testing.T) {
	pr := &countingRunner{}
	r, err := pipeline.NewRunner(pr, []string{"a", "b", "c"}, time.Hour, nil)
	require.NoError(t, err)

	summaries := r.RunCycle(context.Background())
	assert.Len(t, summaries, 3)
	assert.Equal(t, []string{"a", "b", "c"}, pr.phrases)
}

func TestRunner_StopsBetweenPhrasesOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	pr := &countingRunner{cancel: cancel, after: 2}
	r, err := pipeline.NewRunner(pr, []string{"a", "b", "c"}, time.Hour, nil)
	require.NoError(t, err)

	done := make(chan error, 1)
	go func() { done <- r.Run(ctx) }()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("runner did not stop")
	}
	assert.Equal(t, []string{"a", "b"}, pr.phrases)
}
