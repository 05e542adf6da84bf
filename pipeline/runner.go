package pipeline

import (
	"context"
	"errors"
	"math/rand/v2"
	"time"

	"reply-bot/logger"
	"reply-bot/models"
)

// PhraseRunner runs the pipeline for one phrase.
type PhraseRunner interface {
	Run(ctx context.Context, phrase string) *models.RunSummary
}

var ErrNoPhrases = errors.New("no query phrases configured")

// Runner runs every phrase in order, then sleeps a jittered interval.
type Runner struct {
	pipeline PhraseRunner
	phrases  []string
	interval time.Duration
	rnd      *rand.Rand
}

func NewRunner(p PhraseRunner, phrases []string, interval time.Duration, rnd *rand.Rand) (*Runner, error) {
	if len(phrases) == 0 {
		return nil, ErrNoPhrases
	}
	if rnd == nil {
		rnd = rand.New(rand.NewPCG(uint64(time.Now().UnixNano()), 0))
	}
	return &Runner{pipeline: p, phrases: phrases, interval: interval, rnd: rnd}, nil
}

// RunCycle runs each phrase once. Cancellation is checked between phrases.
func (r *Runner) RunCycle(ctx context.Context) []*models.RunSummary {
	summaries := make([]*models.RunSummary, 0, len(r.phrases))
	for _, phrase := range r.phrases {
		if ctx.Err() != nil {
			break
		}
		summaries = append(summaries, r.pipeline.Run(ctx, phrase))
	}
	return summaries
}

// Run repeats RunCycle until ctx is done.
func (r *Runner) Run(ctx context.Context) error {
	logger.Log.Infof("runner started for %d phrases, every ~%s", len(r.phrases), r.interval)
	for {
		r.RunCycle(ctx)
		if ctx.Err() != nil {
			break
		}

		wait := NextWait(r.interval, r.rnd)
		logger.Log.Infof("next cycle in %s", wait.Round(time.Second))
		if err := Sleep(ctx, wait); err != nil {
			break
		}
	}
	logger.Log.Info("runner stopped")
	return nil
}
