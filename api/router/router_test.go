package router_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"reply-bot/api/router"
	"reply-bot/dedup"
	"reply-bot/dto"
	"reply-bot/ledger"
	"reply-bot/models"
	"reply-bot/replyscore"
)

var now = time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC)

func setup(t *testing.T) (http.Handler, *ledger.History) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	dir := t.TempDir()
	store := dedup.NewFileStore(dir)
	snap := dedup.NewSnapshot()
	snap.AuthorLastContact["recent"] = now.Add(-24 * time.Hour)
	snap.AuthorLastContact["old"] = now.Add(-30 * 24 * time.Hour)
	snap.ContactedPostIDs["p1"] = struct{}{}
	snap.ContactedPostIDs["p2"] = struct{}{}
	require.NoError(t, store.Save(t.Context(), snap))

	history := ledger.NewHistory(10)
	s := models.NewRunSummary("run-1", "bots", now)
	s.Counters.Sent = 2
	s.Logf("fetched 5 posts")
	history.Record(s)

	h := router.New(router.Deps{
		History:      history,
		Metrics:      ledger.NewFileMetricsSink(dir),
		Store:        store,
		Recorder:     ledger.NewPromRecorder(),
		Gate:         replyscore.Gate{MinScore: 2},
		CooldownDays: 7,
		Now:          func() time.Time { return now },
	})
	return router.WithCORS(h, []string{"https://dash.example.com"}), history
}

func do(h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func TestHealth(t *testing.T) {
	h, _ := setup(t)
	w := do(h, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.NotEmpty(t, w.Header().Get("X-Request-Id"))
}

func TestRuns(t *testing.T) {
	h, _ := setup(t)

	w := do(h, http.MethodGet, "/api/v1/runs", "")
	require.Equal(t, http.StatusOK, w.Code)
	var list dto.List[dto.RunDTO]
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &list))
	require.Equal(t, 1, list.Count)
	assert.Equal(t, "run-1", list.Data[0].RunID)
	assert.Equal(t, 2, list.Data[0].Counters.Sent)

	w = do(h, http.MethodGet, "/api/v1/runs/run-1", "")
	require.Equal(t, http.StatusOK, w.Code)
	var run models.RunSummary
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &run))
	assert.Equal(t, []string{"fetched 5 posts"}, run.Logs)

	w = do(h, http.MethodGet, "/api/v1/runs/missing", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestDedupStats(t *testing.T) {
	h, _ := setup(t)
	w := do(h, http.MethodGet, "/api/v1/dedup", "")
	require.Equal(t, http.StatusOK, w.Code)

	var stats dto.DedupStatsDTO
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &stats))
	assert.True(t, stats.Found)
	assert.Equal(t, 2, stats.Authors)
	assert.Equal(t, 1, stats.AuthorsInCooldown)
	assert.Equal(t, 2, stats.ContactedPosts)
}

func TestScoreReply(t *testing.T) {
	h, _ := setup(t)

	w := do(h, http.MethodPost, "/api/v1/replies/score", `{"text": "  Webhook retries at that volume?  "}`)
	require.Equal(t, http.StatusOK, w.Code)
	var out dto.ScoreReplyResponseDTO
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	assert.Equal(t, "Webhook retries at that volume?", out.Reply)
	assert.Equal(t, 5, out.Score)
	assert.True(t, out.Accepted)

	w = do(h, http.MethodPost, "/api/v1/replies/score", `{}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestRecentMetricsAndPrometheus(t *testing.T) {
	h, _ := setup(t)

	w := do(h, http.MethodGet, "/api/v1/metrics/recent", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"data": [], "count": 0}`, w.Body.String())

	w = do(h, http.MethodGet, "/metrics", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "reply_bot_http_requests_total")
}

func TestCORSPreflight(t *testing.T) {
	h, _ := setup(t)
	req := httptest.NewRequest(http.MethodOptions, "/api/v1/runs", nil)
	req.Header.Set("Origin", "https://dash.example.com")
	req.Header.Set("Access-Control-Request-Method", http.MethodGet)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)

	assert.Equal(t, "https://dash.example.com", w.Header().Get("Access-Control-Allow-Origin"))
}
