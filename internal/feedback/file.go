package feedback

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/ppiankov/factsift/internal/logging"
	"github.com/ppiankov/factsift/internal/model"
)

// FileStore keeps the feedback log as one JSON array on disk. Position in the
// array is the record identity; later entries are more recent. Writers in
// other processes are serialized with an advisory lock on a sibling
// ".lock" file where the platform supports flock.
type FileStore struct {
	path   string
	mu     sync.Mutex
	logger *zap.Logger
	now    func() time.Time
}

// fileRecord is the on-disk shape. The rating is kept raw because older logs
// hold whatever the client sent: numbers, numeric strings or free text.
type fileRecord struct {
	Query     string          `json:"query"`
	Rating    json.RawMessage `json:"rating"`
	Comment   string          `json:"comment"`
	Timestamp string          `json:"timestamp"`
}

// logEntry is one array element. Entries that do not decode are kept
// verbatim so a rewrite never drops them.
type logEntry struct {
	raw json.RawMessage
	rec fileRecord
	ok  bool
}

// FlexRating decodes a rating sent as a JSON number or a numeric string
type FlexRating int

func (r *FlexRating) UnmarshalJSON(data []byte) error {
	s := strings.Trim(string(data), `"`)
	if s == "" || s == "null" {
		*r = 0
		return nil
	}
	n, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return fmt.Errorf("rating %s: %w", data, err)
	}
	*r = FlexRating(n)
	return nil
}

// logRating reads a stored rating, reporting false when it is not numeric
func logRating(raw json.RawMessage) (int, bool) {
	if len(raw) == 0 {
		return 0, true
	}
	var r FlexRating
	if err := r.UnmarshalJSON(raw); err != nil {
		return 0, false
	}
	return int(r), true
}

var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05",
}

func parseTimestamp(s string) time.Time {
	for _, layout := range timestampLayouts {
		if t, err := time.ParseInLocation(layout, s, time.Local); err == nil {
			return t
		}
	}
	return time.Time{}
}

// NewFileStore opens (or lazily creates) the JSON log at path
func NewFileStore(path string, logger *zap.Logger) (*FileStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, &StoreError{Op: "open", Err: err}
	}
	return &FileStore{
		path:   path,
		logger: logging.OrNop(logger).Named("feedback.file"),
		now:    time.Now,
	}, nil
}

// Record appends rec. The whole log is rewritten through a temp file and
// renamed into place so readers never observe a partial write.
func (s *FileStore) Record(ctx context.Context, rec model.FeedbackRecord) (model.FeedbackRecord, error) {
	if err := Validate(rec); err != nil {
		return model.FeedbackRecord{}, err
	}
	if err := ctx.Err(); err != nil {
		return model.FeedbackRecord{}, &StoreError{Op: "record", Err: err}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	unlock, err := lockFile(s.path + ".lock")
	if err != nil {
		return model.FeedbackRecord{}, &StoreError{Op: "record", Err: err}
	}
	defer unlock()

	entries, err := s.load()
	if err != nil {
		return model.FeedbackRecord{}, &StoreError{Op: "record", Err: err}
	}

	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = s.now()
	}
	raw, err := json.Marshal(fileRecord{
		Query:     rec.Query,
		Rating:    json.RawMessage(strconv.Itoa(rec.Rating)),
		Comment:   rec.Comment,
		Timestamp: rec.CreatedAt.Format(time.RFC3339Nano),
	})
	if err != nil {
		return model.FeedbackRecord{}, &StoreError{Op: "record", Err: err}
	}
	entries = append(entries, logEntry{raw: raw})
	rec.ID = int64(len(entries))

	if err := s.save(entries); err != nil {
		return model.FeedbackRecord{}, &StoreError{Op: "record", Err: err}
	}

	s.logger.Debug("feedback recorded", zap.Int64("id", rec.ID), zap.Int("rating", rec.Rating))
	return rec, nil
}

// FeedbackFor returns exact-query matches, most recent first
func (s *FileStore) FeedbackFor(ctx context.Context, query string, limit int) ([]model.FeedbackRecord, error) {
	return s.scan(ctx, clampLimit(limit), func(r fileRecord) bool { return r.Query == query })
}

// Recent returns the latest records
func (s *FileStore) Recent(ctx context.Context, limit int) ([]model.FeedbackRecord, error) {
	if limit <= 0 {
		limit = MaxRelated
	}
	return s.scan(ctx, limit, func(fileRecord) bool { return true })
}

// Close is a no-op; the file is not held open between calls
func (s *FileStore) Close() error {
	return nil
}

func (s *FileStore) scan(ctx context.Context, limit int, match func(fileRecord) bool) ([]model.FeedbackRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, &StoreError{Op: "read", Err: err}
	}

	s.mu.Lock()
	entries, err := s.load()
	s.mu.Unlock()
	if err != nil {
		return nil, &StoreError{Op: "read", Err: err}
	}

	out := make([]model.FeedbackRecord, 0, limit)
	for i := len(entries) - 1; i >= 0 && len(out) < limit; i-- {
		e := entries[i]
		if !e.ok || !match(e.rec) {
			continue
		}
		rating, _ := logRating(e.rec.Rating)
		out = append(out, model.FeedbackRecord{
			ID:        int64(i + 1),
			Query:     e.rec.Query,
			Rating:    rating,
			Comment:   e.rec.Comment,
			CreatedAt: parseTimestamp(e.rec.Timestamp),
		})
	}
	return out, nil
}

// load decodes the log entry by entry. Only a file that is not a JSON array
// is an error; unreadable entries and non-numeric ratings are logged.
func (s *FileStore) load() ([]logEntry, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", s.path, err)
	}
	if len(strings.TrimSpace(string(data))) == 0 {
		return nil, nil
	}

	var raws []json.RawMessage
	if err := json.Unmarshal(data, &raws); err != nil {
		return nil, fmt.Errorf("decode %s: %w", s.path, err)
	}

	entries := make([]logEntry, len(raws))
	var skipped, unrated int
	for i, raw := range raws {
		entries[i].raw = raw
		if err := json.Unmarshal(raw, &entries[i].rec); err != nil {
			skipped++
			continue
		}
		entries[i].ok = true
		if _, ok := logRating(entries[i].rec.Rating); !ok {
			unrated++
		}
	}
	if skipped > 0 || unrated > 0 {
		s.logger.Warn("feedback log has legacy entries",
			zap.String("path", s.path),
			zap.Int("skipped", skipped),
			zap.Int("non_numeric_rating", unrated),
		)
	}
	return entries, nil
}

func (s *FileStore) save(entries []logEntry) error {
	raws := make([]json.RawMessage, len(entries))
	for i, e := range entries {
		raws[i] = e.raw
	}
	data, err := json.MarshalIndent(raws, "", "    ")
	if err != nil {
		return fmt.Errorf("encode: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(s.path), ".feedback-*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer func() { _ = os.Remove(tmpName) }()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("sync temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		return fmt.Errorf("rename: %w", err)
	}
	return nil
}
