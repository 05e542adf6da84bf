// Package ledger records what the bot did: one activity record per confirmed
// reply and one metrics record per run, fanned out to every configured sink.
package ledger

import (
	"context"
	"errors"
	"fmt"

	"reply-bot/models"
)

type ActivitySink interface {
	AppendActivity(ctx context.Context, rec models.ActivityRecord) error
}

type MetricsSink interface {
	AppendMetrics(ctx context.Context, m models.RunMetrics) error
}

// MetricsReader returns the latest metrics records, newest first.
type MetricsReader interface {
	Recent(ctx context.Context, limit int) ([]models.RunMetrics, error)
}

// MultiActivity writes to every sink and joins their errors.
type MultiActivity []ActivitySink

func (m MultiActivity) AppendActivity(ctx context.Context, rec models.ActivityRecord) error {
	var errs []error
	for _, s := range m {
		if err := s.AppendActivity(ctx, rec); err != nil {
			errs = append(errs, fmt.Errorf("%T: %w", s, err))
		}
	}
	return errors.Join(errs...)
}

// MultiMetrics writes to every sink and joins their errors.
type MultiMetrics []MetricsSink

func (m MultiMetrics) AppendMetrics(ctx context.Context, rec models.RunMetrics) error {
	var errs []error
	for _, s := range m {
		if err := s.AppendMetrics(ctx, rec); err != nil {
			errs = append(errs, fmt.Errorf("%T: %w", s, err))
		}
	}
	return errors.Join(errs...)
}
