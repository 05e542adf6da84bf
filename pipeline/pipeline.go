package pipeline

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/google/uuid"

	"reply-bot/config"
	"reply-bot/dedup"
	"reply-bot/engagement"
	"reply-bot/ledger"
	"reply-bot/logger"
	"reply-bot/models"
	"reply-bot/quota"
	"reply-bot/replyscore"
)

// Config is the per-run tuning of the pipeline.
type Config struct {
	QueryType       string
	MaxFetch        int
	TotalReplies    int
	PrimaryRatio    float64
	EngagementFloor int
	MinReplyScore   int
	BatchSize       int
	Cooldown        time.Duration

	SendDelayMinSeconds int
	SendDelayMaxSeconds int

	// LogDir receives the raw fetch dump. Empty disables it.
	LogDir string
}

func ConfigFrom(c config.PipelineConfig, logDir string) Config {
	return Config{
		QueryType:           c.QueryType,
		MaxFetch:            c.MaxFetch,
		TotalReplies:        c.TotalReplies,
		PrimaryRatio:        c.PrimaryRatio,
		EngagementFloor:     c.EngagementFloor,
		MinReplyScore:       c.MinReplyScore,
		BatchSize:           c.ReplyBatchSize,
		Cooldown:            dedup.CooldownFromDays(c.CooldownDays),
		SendDelayMinSeconds: c.SendDelayMinSeconds,
		SendDelayMaxSeconds: c.SendDelayMaxSeconds,
		LogDir:              logDir,
	}
}

// Deps are the collaborators of a pipeline. Activity and Metrics may be nil.
type Deps struct {
	Fetcher  Fetcher
	Drafter  Drafter
	Poster   Poster
	Store    dedup.Store
	Activity ledger.ActivitySink
	Metrics  ledger.MetricsSink
	History  *ledger.History
}

type Option func(*Pipeline)

func WithClock(now func() time.Time) Option {
	return func(p *Pipeline) { p.now = now }
}

func WithRand(rnd *rand.Rand) Option {
	return func(p *Pipeline) { p.rnd = rnd }
}

func WithIDGenerator(newID func() string) Option {
	return func(p *Pipeline) { p.newID = newID }
}

type Pipeline struct {
	cfg  Config
	deps Deps
	gate replyscore.Gate

	now   func() time.Time
	rnd   *rand.Rand
	newID func() string
}

func New(cfg Config, deps Deps, opts ...Option) *Pipeline {
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 10
	}
	p := &Pipeline{
		cfg:   cfg,
		deps:  deps,
		gate:  replyscore.Gate{MinScore: cfg.MinReplyScore},
		now:   time.Now,
		newID: uuid.NewString,
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.rnd == nil {
		p.rnd = rand.New(rand.NewPCG(uint64(p.now().UnixNano()), 0))
	}
	return p
}

// Run executes one pass for phrase. It never returns an error: failures end
// up in the summary's error list and FailedAt stage. A metrics record is
// written for every run.
func (p *Pipeline) Run(ctx context.Context, phrase string) *models.RunSummary {
	s := models.NewRunSummary(p.newID(), phrase, p.now().UTC())
	fields := logger.RunFields(s.RunID, phrase)
	logger.InfoWithFields("run started", fields)

	if err := p.execute(ctx, s); err != nil {
		s.FailedAt = s.Stage
		s.AddError(err)
		s.Stage = models.StageError
		s.Logf("run failed at %s: %v", s.FailedAt, err)
		logger.ErrorWithFields("run failed", fields.
			With(logger.Fields{"stage": string(s.FailedAt)}).
			WithError(err))
	}

	s.FinishedAt = p.now().UTC()
	p.logMetrics(ctx, s)
	s.Stage = models.StageDone

	if p.deps.History != nil {
		p.deps.History.Record(s)
	}
	c := s.Counters
	logger.InfoWithFields("run finished", fields.With(logger.Fields{
		"found":       c.Found,
		"after_floor": c.AfterFloor,
		"ai_selected": c.AISelected,
		"after_dedup": c.AfterDedup,
		"selected":    c.Selected,
		"sent":        c.Sent,
		"failed":      c.Failed,
		"errors":      len(s.Errors),
	}))
	return s
}

func (p *Pipeline) execute(ctx context.Context, s *models.RunSummary) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()

	s.Stage = models.StageFetch
	s.Counters.FetchCalls++
	posts, err := p.deps.Fetcher.Fetch(ctx, s.Phrase, p.cfg.QueryType, p.cfg.MaxFetch)
	if err != nil {
		return err
	}
	s.Counters.Found = len(posts)
	s.Logf("fetched %d posts", len(posts))
	if p.cfg.LogDir != "" {
		if err := ledger.DumpRaw(p.cfg.LogDir, s.Phrase, posts); err != nil {
			s.AddError(fmt.Errorf("raw dump: %w", err))
		}
	}
	if unique := dedup.UniquePosts(posts); len(unique) < len(posts) {
		s.Logf("dropped %d repeated post ids", len(posts)-len(unique))
		posts = unique
	}

	s.Stage = models.StageScore
	scored := engagement.Score(posts)
	s.Logf("scored %d posts", len(scored))

	s.Stage = models.StageFloorFilter
	eligible := engagement.FilterByFloor(scored, p.cfg.EngagementFloor)
	s.Counters.AfterFloor = len(eligible)
	s.Logf("%d posts at or above engagement floor %d", len(eligible), p.cfg.EngagementFloor)
	if len(eligible) == 0 {
		return nil
	}

	s.Stage = models.StageSelectAndDraft
	candidates, err := p.selectAndDraft(ctx, s, eligible)
	if err != nil {
		return err
	}
	s.Logf("model drafted %d replies", len(candidates))

	s.Stage = models.StageQualityGate
	drafted := p.qualityGate(s, candidates)
	s.Counters.AISelected = len(drafted)
	s.Logf("%d replies passed the quality gate", len(drafted))
	if len(drafted) == 0 {
		return nil
	}

	s.Stage = models.StageDedup
	snap, err := p.loadSnapshot(ctx, s)
	if err != nil {
		return err
	}
	now := p.now().UTC()
	fresh := dedup.Filter(drafted, snap, p.cfg.Cooldown, now)
	s.Counters.AfterDedup = len(fresh)
	s.Logf("%d posts left after dedup (%d already contacted or cooling down)", len(fresh), len(drafted)-len(fresh))

	s.Stage = models.StageAllocate
	selected, split := quota.AllocateWithSplit(fresh, p.cfg.TotalReplies, p.cfg.PrimaryRatio)
	s.Counters.Selected = len(selected)
	s.Logf("selected %d posts (primary %d/%d, secondary %d/%d)",
		len(selected), split.Primary, split.PrimaryQuota, split.Secondary, split.SecondaryQuota)
	if len(selected) == 0 {
		return nil
	}

	s.Stage = models.StageSend
	sender := &Sender{
		Poster:          p.deps.Poster,
		Activity:        p.deps.Activity,
		DelayMinSeconds: p.cfg.SendDelayMinSeconds,
		DelayMaxSeconds: p.cfg.SendDelayMaxSeconds,
		RunID:           s.RunID,
		Phrase:          s.Phrase,
		Rand:            p.rnd,
		Now:             p.now,
	}
	res := sender.SendAll(ctx, selected)
	s.Outcomes = res.Outcomes
	s.Counters.PostCalls = res.Attempts
	s.Counters.Sent = len(res.Confirmed)
	s.Counters.Failed = res.Attempts - len(res.Confirmed)
	for _, e := range res.Errors {
		s.AddError(e)
	}
	s.Logf("sent %d replies, %d failed", s.Counters.Sent, s.Counters.Failed)
	if res.Skipped > 0 {
		s.Logf("send interrupted, %d posts not attempted", res.Skipped)
	}

	if len(res.Confirmed) == 0 {
		s.Logf("no confirmed replies, dedup state unchanged")
		return nil
	}

	s.Stage = models.StagePersistDedup
	next := snap.Mark(res.Confirmed, p.now().UTC())
	if err := p.deps.Store.Save(context.WithoutCancel(ctx), next); err != nil {
		return fmt.Errorf("save dedup state: %w", err)
	}
	s.Logf("dedup state updated with %d posts", len(res.Confirmed))
	return nil
}

// selectAndDraft asks the drafter batch by batch. A malformed response drops
// only its batch; any other error aborts the run.
func (p *Pipeline) selectAndDraft(ctx context.Context, s *models.RunSummary, eligible []models.ScoredPost) ([]draftCandidate, error) {
	var out []draftCandidate
	for start := 0; start < len(eligible); start += p.cfg.BatchSize {
		batch := eligible[start:min(start+p.cfg.BatchSize, len(eligible))]

		s.Counters.DraftCalls++
		drafts, err := p.deps.Drafter.SelectAndDraft(ctx, batch, s.Phrase)
		var parseErr *models.DraftParseError
		if errors.As(err, &parseErr) {
			s.AddError(err)
			s.Logf("dropped batch of %d posts: %v", len(batch), err)
			continue
		}
		if err != nil {
			return nil, err
		}

		for _, post := range batch {
			if text, ok := drafts[post.ID]; ok {
				out = append(out, draftCandidate{post: post, text: text})
			}
		}
	}
	return out, nil
}

type draftCandidate struct {
	post models.ScoredPost
	text string
}

func (p *Pipeline) qualityGate(s *models.RunSummary, candidates []draftCandidate) []models.DraftedPost {
	drafted := make([]models.DraftedPost, 0, len(candidates))
	for _, c := range candidates {
		reply, score, ok := p.gate.Accept(c.text)
		if !ok {
			s.Counters.QualityDrop++
			s.Logf("skipped low-score reply (score=%d) for %s: %s", score, c.post.ID, reply)
			continue
		}
		drafted = append(drafted, models.DraftedPost{ScoredPost: c.post, ReplyText: reply, ReplyScore: score})
	}
	return drafted
}

func (p *Pipeline) loadSnapshot(ctx context.Context, s *models.RunSummary) (dedup.Snapshot, error) {
	res, err := p.deps.Store.Load(ctx)
	switch {
	case errors.Is(err, dedup.ErrCorruptState):
		s.Logf("dedup state is corrupt, starting from empty state: %v", err)
		logger.WarnWithFields("dedup state corrupt, using empty state",
			logger.RunFields(s.RunID, s.Phrase).WithError(err))
		return dedup.NewSnapshot(), nil
	case err != nil:
		return dedup.Snapshot{}, fmt.Errorf("load dedup state: %w", err)
	case !res.Found:
		s.Logf("no dedup state yet, cold start")
		return dedup.NewSnapshot(), nil
	}
	return res.Snapshot, nil
}

func (p *Pipeline) logMetrics(ctx context.Context, s *models.RunSummary) {
	s.Stage = models.StageLogMetrics
	if p.deps.Metrics == nil {
		return
	}
	if err := p.deps.Metrics.AppendMetrics(context.WithoutCancel(ctx), s.Metrics()); err != nil {
		s.AddError(fmt.Errorf("metrics log: %w", err))
		logger.Log.Errorf("failed to write run metrics for %s: %v", s.RunID, err)
	}
}
