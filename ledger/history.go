package ledger

import (
	"sync"

	"reply-bot/models"
)

// History keeps the most recent run summaries in memory for the status API.
type History struct {
	mu   sync.RWMutex
	size int
	runs []models.RunSummary
}

func NewHistory(size int) *History {
	if size <= 0 {
		size = 50
	}
	return &History{size: size}
}

// Record stores a copy of s, evicting the oldest entry when full.
func (h *History) Record(s *models.RunSummary) {
	if s == nil {
		return
	}
	cp := *s
	cp.Logs = append([]string(nil), s.Logs...)
	cp.Outcomes = append([]models.Outcome(nil), s.Outcomes...)
	cp.Errors = append([]string(nil), s.Errors...)

	h.mu.Lock()
	defer h.mu.Unlock()
	h.runs = append(h.runs, cp)
	if len(h.runs) > h.size {
		h.runs = h.runs[len(h.runs)-h.size:]
	}
}

// List returns up to limit summaries, newest first. limit <= 0 means all.
func (h *History) List(limit int) []models.RunSummary {
	h.mu.RLock()
	defer h.mu.RUnlock()

	if limit <= 0 || limit > len(h.runs) {
		limit = len(h.runs)
	}
	out := make([]models.RunSummary, 0, limit)
	for i := len(h.runs) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, h.runs[i])
	}
	return out
}

func (h *History) Get(runID string) (models.RunSummary, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for i := len(h.runs) - 1; i >= 0; i-- {
		if h.runs[i].RunID == runID {
			return h.runs[i], true
		}
	}
	return models.RunSummary{}, false
}
