package drafter

import (
	"context"
	"errors"
	"sync"
	"time"

	"reply-bot/config"
)

var ErrDailyQuotaExhausted = errors.New("daily draft quota exhausted")

// Limiter enforces per-minute and per-day limits on drafting calls.
// Counters live in memory and reset when the process restarts.
type Limiter struct {
	mu sync.Mutex

	dailyLimit int
	usedToday  int
	dayKey     string

	interval time.Duration
	lastCall time.Time
}

// NewLimiter builds a limiter from the llm config. Values of 0 or less disable that limit.
func NewLimiter(cfg config.LLMConfig) *Limiter {
	perDay := max(cfg.RequestsPerDay, 0)
	perMinute := max(cfg.RequestsPerMinute, 0)

	var interval time.Duration
	if perMinute > 0 {
		interval = time.Minute / time.Duration(perMinute)
	}

	return &Limiter{
		dailyLimit: perDay,
		interval:   interval,
	}
}

// Wait blocks until a call is allowed and reserves it.
// It returns ErrDailyQuotaExhausted when today's budget is spent and
// ctx.Err() when the context ends while waiting.
func (l *Limiter) Wait(ctx context.Context) error {
	if l == nil {
		return nil
	}
	for {
		l.mu.Lock()

		now := time.Now().UTC()
		today := now.Format("2006-01-02")
		if l.dayKey != today {
			l.dayKey = today
			l.usedToday = 0
		}

		if l.dailyLimit > 0 && l.usedToday >= l.dailyLimit {
			l.mu.Unlock()
			return ErrDailyQuotaExhausted
		}

		var delay time.Duration
		if l.interval > 0 && !l.lastCall.IsZero() {
			delay = time.Until(l.lastCall.Add(l.interval))
		}

		if delay <= 0 {
			l.usedToday++
			l.lastCall = now
			l.mu.Unlock()
			return nil
		}

		l.mu.Unlock()
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}
