package ledger

import (
	"context"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"reply-bot/models"
)

// PromRecorder turns run metrics into Prometheus series on its own registry.
type PromRecorder struct {
	registry *prometheus.Registry

	runsTotal       *prometheus.CounterVec
	postsTotal      *prometheus.CounterVec
	callsTotal      *prometheus.CounterVec
	runDuration     prometheus.Histogram
	lastRunSent     *prometheus.GaugeVec
	httpRequests    *prometheus.CounterVec
	httpReqDuration *prometheus.HistogramVec
}

func NewPromRecorder() *PromRecorder {
	r := &PromRecorder{registry: prometheus.NewRegistry()}

	r.runsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "reply_bot_runs_total",
			Help: "Pipeline runs by result",
		},
		[]string{"phrase", "result"},
	)
	r.postsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "reply_bot_posts_total",
			Help: "Posts counted at each pipeline stage",
		},
		[]string{"stage"},
	)
	r.callsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "reply_bot_external_calls_total",
			Help: "Calls made to external collaborators",
		},
		[]string{"collaborator"},
	)
	r.runDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "reply_bot_run_duration_seconds",
			Help:    "Wall time of a pipeline run",
			Buckets: []float64{1, 5, 30, 60, 300, 900, 1800, 3600},
		},
	)
	r.lastRunSent = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "reply_bot_last_run_sent",
			Help: "Replies sent by the latest run of a phrase",
		},
		[]string{"phrase"},
	)
	r.httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "reply_bot_http_requests_total",
			Help: "Status API requests",
		},
		[]string{"method", "endpoint", "status"},
	)
	r.httpReqDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "reply_bot_http_request_duration_seconds",
			Help:    "Status API request duration",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "endpoint"},
	)

	r.registry.MustRegister(
		r.runsTotal,
		r.postsTotal,
		r.callsTotal,
		r.runDuration,
		r.lastRunSent,
		r.httpRequests,
		r.httpReqDuration,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return r
}

func (r *PromRecorder) Registry() *prometheus.Registry { return r.registry }

func (r *PromRecorder) RunsTotal() *prometheus.CounterVec  { return r.runsTotal }
func (r *PromRecorder) PostsTotal() *prometheus.CounterVec { return r.postsTotal }

func (r *PromRecorder) AppendMetrics(_ context.Context, m models.RunMetrics) error {
	result := "ok"
	if m.FailedAt != "" {
		result = "error"
	}
	r.runsTotal.WithLabelValues(m.Phrase, result).Inc()

	c := m.Counters
	r.postsTotal.WithLabelValues("found").Add(float64(c.Found))
	r.postsTotal.WithLabelValues("after_floor").Add(float64(c.AfterFloor))
	r.postsTotal.WithLabelValues("ai_selected").Add(float64(c.AISelected))
	r.postsTotal.WithLabelValues("quality_rejected").Add(float64(c.QualityDrop))
	r.postsTotal.WithLabelValues("after_dedup").Add(float64(c.AfterDedup))
	r.postsTotal.WithLabelValues("selected").Add(float64(c.Selected))
	r.postsTotal.WithLabelValues("sent").Add(float64(c.Sent))
	r.postsTotal.WithLabelValues("failed").Add(float64(c.Failed))

	r.callsTotal.WithLabelValues("search").Add(float64(c.FetchCalls))
	r.callsTotal.WithLabelValues("draft").Add(float64(c.DraftCalls))
	r.callsTotal.WithLabelValues("post").Add(float64(c.PostCalls))

	r.runDuration.Observe(float64(m.DurationMs) / 1000)
	r.lastRunSent.WithLabelValues(m.Phrase).Set(float64(c.Sent))
	return nil
}

// ObserveHTTP records one status API request.
func (r *PromRecorder) ObserveHTTP(method, endpoint, status string, seconds float64) {
	r.httpRequests.WithLabelValues(method, endpoint, status).Inc()
	r.httpReqDuration.WithLabelValues(method, endpoint).Observe(seconds)
}
