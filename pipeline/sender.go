package pipeline

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"time"

	"reply-bot/ledger"
	"reply-bot/logger"
	"reply-bot/models"
)

// SendResult is what one pass of the send orchestrator produced.
type SendResult struct {
	Outcomes  []models.Outcome
	Confirmed []models.DraftedPost
	Errors    []error
	Attempts  int
	// Skipped counts items never attempted because ctx ended.
	Skipped int
}

// Sender posts approved replies one at a time, isolating per item failures.
type Sender struct {
	Poster   Poster
	Activity ledger.ActivitySink

	DelayMinSeconds int
	DelayMaxSeconds int

	RunID  string
	Phrase string

	Rand *rand.Rand
	Now  func() time.Time
}

// SendAll attempts every item in order and waits a random delay between items.
// A done ctx stops further attempts; outcomes already recorded are kept.
func (s *Sender) SendAll(ctx context.Context, items []models.DraftedPost) SendResult {
	res := SendResult{
		Outcomes:  make([]models.Outcome, 0, len(items)),
		Confirmed: make([]models.DraftedPost, 0, len(items)),
	}
	rnd := s.Rand
	if rnd == nil {
		rnd = rand.New(rand.NewPCG(uint64(time.Now().UnixNano()), 0))
	}
	now := s.Now
	if now == nil {
		now = time.Now
	}

	for i, item := range items {
		if i > 0 {
			if err := Sleep(ctx, RandomDelay(s.DelayMinSeconds, s.DelayMaxSeconds, rnd)); err != nil {
				res.Skipped = len(items) - i
				break
			}
		} else if ctx.Err() != nil {
			res.Skipped = len(items)
			break
		}

		res.Attempts++
		postedID, err := s.post(ctx, item)
		if err == nil && postedID == "" {
			err = &models.PostError{PostID: item.ID, Message: "empty confirmation id"}
		}
		if err != nil {
			logger.WarnWithFields("reply failed", logger.RunFields(s.RunID, s.Phrase).
				WithPost(item.ID, item.AuthorHandle).
				WithError(err))
			res.Outcomes = append(res.Outcomes, models.Outcome{
				PostID:       item.ID,
				Status:       models.OutcomeFailed,
				ReplyText:    item.ReplyText,
				AuthorHandle: item.AuthorHandle,
				Error:        err.Error(),
			})
			res.Errors = append(res.Errors, fmt.Errorf("failed reply to %s: %w", item.ID, err))
			continue
		}

		repliedAt := now().UTC()
		res.Confirmed = append(res.Confirmed, item)
		res.Outcomes = append(res.Outcomes, models.Outcome{
			PostID:       item.ID,
			Status:       models.OutcomeSuccess,
			ReplyText:    item.ReplyText,
			AuthorHandle: item.AuthorHandle,
			PostedID:     postedID,
		})
		logger.InfoWithFields("reply sent", logger.RunFields(s.RunID, s.Phrase).
			WithPost(item.ID, item.AuthorHandle).
			With(logger.Fields{"posted_id": postedID}))

		if s.Activity == nil {
			continue
		}
		rec := models.ActivityRecord{
			RunID:        s.RunID,
			Phrase:       s.Phrase,
			PostID:       item.ID,
			AuthorID:     item.AuthorID,
			AuthorHandle: item.AuthorHandle,
			Text:         item.Text,
			Reply:        item.ReplyText,
			PostedID:     postedID,
			RepliedAt:    repliedAt,
		}
		if err := s.Activity.AppendActivity(context.WithoutCancel(ctx), rec); err != nil {
			res.Errors = append(res.Errors, fmt.Errorf("activity log for %s: %w", item.ID, err))
		}
	}
	return res
}

func (s *Sender) post(ctx context.Context, item models.DraftedPost) (id string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = &models.PostError{PostID: item.ID, Err: fmt.Errorf("panic: %v", r)}
		}
	}()
	if s.Poster == nil {
		return "", errors.New("no poster configured")
	}
	return s.Poster.PostReply(ctx, item.ID, item.ReplyText)
}
