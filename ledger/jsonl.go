package ledger

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sync"

	"reply-bot/models"
)

const (
	ActivityFile = "replied_posts.jsonl"
	MetricsFile  = "run_metrics.jsonl"
)

// JSONLWriter appends one JSON document per line to a file.
type JSONLWriter struct {
	mu   sync.Mutex
	path string
}

func NewJSONLWriter(path string) *JSONLWriter {
	return &JSONLWriter{path: path}
}

func (w *JSONLWriter) Path() string { return w.path }

func (w *JSONLWriter) Append(v any) error {
	line, err := json.Marshal(v)
	if err != nil {
		return err
	}
	line = append(line, '\n')

	w.mu.Lock()
	defer w.mu.Unlock()

	if err := os.MkdirAll(filepath.Dir(w.path), 0755); err != nil {
		return err
	}
	f, err := os.OpenFile(w.path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return err
	}
	if _, err := f.Write(line); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

type FileActivitySink struct{ w *JSONLWriter }

func NewFileActivitySink(logDir string) *FileActivitySink {
	return &FileActivitySink{w: NewJSONLWriter(filepath.Join(logDir, ActivityFile))}
}

func (s *FileActivitySink) AppendActivity(_ context.Context, rec models.ActivityRecord) error {
	if err := s.w.Append(rec); err != nil {
		return fmt.Errorf("failed to append activity: %w", err)
	}
	return nil
}

type FileMetricsSink struct{ w *JSONLWriter }

func NewFileMetricsSink(logDir string) *FileMetricsSink {
	return &FileMetricsSink{w: NewJSONLWriter(filepath.Join(logDir, MetricsFile))}
}

func (s *FileMetricsSink) AppendMetrics(_ context.Context, m models.RunMetrics) error {
	if err := s.w.Append(m); err != nil {
		return fmt.Errorf("failed to append run metrics: %w", err)
	}
	return nil
}

// Recent reads the metrics log and returns up to limit records, newest first.
// Lines that do not decode are skipped.
func (s *FileMetricsSink) Recent(_ context.Context, limit int) ([]models.RunMetrics, error) {
	s.w.mu.Lock()
	defer s.w.mu.Unlock()

	f, err := os.Open(s.w.path)
	if errors.Is(err, os.ErrNotExist) {
		return []models.RunMetrics{}, nil
	}
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var all []models.RunMetrics
	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for sc.Scan() {
		var m models.RunMetrics
		if err := json.Unmarshal(sc.Bytes(), &m); err != nil {
			continue
		}
		all = append(all, m)
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}

	if limit <= 0 || limit > len(all) {
		limit = len(all)
	}
	out := make([]models.RunMetrics, 0, limit)
	for i := len(all) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, all[i])
	}
	return out, nil
}

var unsafeChars = regexp.MustCompile(`[^A-Za-z0-9_-]+`)

// RawDumpPath is where DumpRaw writes the fetched posts of phrase.
func RawDumpPath(logDir, phrase string) string {
	return filepath.Join(logDir, "raw_fetched_"+unsafeChars.ReplaceAllString(phrase, "_")+".json")
}

// DumpRaw overwrites the raw dump of the latest fetch for phrase.
func DumpRaw(logDir, phrase string, posts []models.Post) error {
	if err := os.MkdirAll(logDir, 0755); err != nil {
		return err
	}
	if posts == nil {
		posts = []models.Post{}
	}
	data, err := json.MarshalIndent(posts, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(RawDumpPath(logDir, phrase), data, 0644)
}
