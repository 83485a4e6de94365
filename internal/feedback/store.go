// Package feedback persists user ratings of check results and serves them
// back, most recent first, for exact-query lookups.
package feedback

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/ppiankov/factsift/internal/model"
)

const (
	// MaxRelated bounds every query-keyed read
	MaxRelated = 10

	// MaxCommentRunes bounds the stored comment
	MaxCommentRunes = 2000

	MinRating = 1
	MaxRating = 5
)

// Store is the durable feedback log. Implementations must make each Record
// atomic: a record is either fully visible to readers or not at all.
type Store interface {
	// Record validates and appends rec, stamping ID and CreatedAt
	Record(ctx context.Context, rec model.FeedbackRecord) (model.FeedbackRecord, error)

	// FeedbackFor returns records whose query equals query exactly, most
	// recent first, at most min(limit, MaxRelated) of them
	FeedbackFor(ctx context.Context, query string, limit int) ([]model.FeedbackRecord, error)

	// Recent returns the latest records regardless of query
	Recent(ctx context.Context, limit int) ([]model.FeedbackRecord, error)

	Close() error
}

// StoreError wraps a failed read or write of the underlying storage
type StoreError struct {
	Op  string
	Err error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("feedback store %s: %v", e.Op, e.Err)
}

func (e *StoreError) Unwrap() error {
	return e.Err
}

// ValidationError rejects a malformed record before it reaches storage
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return e.Field + ": " + e.Reason
}

// Validate checks rec against the record invariants
func Validate(rec model.FeedbackRecord) error {
	if strings.TrimSpace(rec.Query) == "" {
		return &ValidationError{Field: "query", Reason: "must not be empty"}
	}
	if rec.Rating < MinRating || rec.Rating > MaxRating {
		return &ValidationError{Field: "rating", Reason: fmt.Sprintf("must be between %d and %d", MinRating, MaxRating)}
	}
	if utf8.RuneCountInString(rec.Comment) > MaxCommentRunes {
		return &ValidationError{Field: "comment", Reason: fmt.Sprintf("must be at most %d characters", MaxCommentRunes)}
	}
	return nil
}

// Open builds the store selected by cfg.Backend
func Open(ctx context.Context, cfg model.FeedbackConfig, logger *zap.Logger) (Store, error) {
	switch strings.ToLower(cfg.Backend) {
	case "file", "":
		path := cfg.Path
		if path == "" {
			path = "logs/feedback_log.json"
		}
		return NewFileStore(path, logger)
	case "sqlite", "sqlite3":
		path := cfg.Path
		if path == "" || strings.HasSuffix(path, ".json") {
			path = "logs/feedback.db"
		}
		return OpenSQLite(ctx, path, logger)
	case "postgres", "postgresql":
		return OpenPostgres(ctx, cfg, logger)
	default:
		return nil, fmt.Errorf("unknown feedback backend: %s (supported: file, sqlite, postgres)", cfg.Backend)
	}
}

func clampLimit(limit int) int {
	if limit <= 0 || limit > MaxRelated {
		return MaxRelated
	}
	return limit
}
