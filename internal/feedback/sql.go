package feedback

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	sq "github.com/Masterminds/squirrel"
	_ "github.com/lib/pq"
	"go.uber.org/zap"
	_ "modernc.org/sqlite"

	"github.com/ppiankov/factsift/internal/logging"
	"github.com/ppiankov/factsift/internal/model"
)

// Dialect names a supported SQL backend
type Dialect string

const (
	DialectSQLite   Dialect = "sqlite"
	DialectPostgres Dialect = "postgres"
)

var schema = map[Dialect][]string{
	DialectSQLite: {
		`CREATE TABLE IF NOT EXISTS feedback (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			query TEXT NOT NULL,
			rating INTEGER NOT NULL,
			comment TEXT NOT NULL DEFAULT '',
			created_at BIGINT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_feedback_query ON feedback(query, id)`,
		`CREATE TABLE IF NOT EXISTS reference_facts (
			query TEXT PRIMARY KEY,
			fact TEXT NOT NULL,
			updated_at BIGINT NOT NULL
		)`,
	},
	DialectPostgres: {
		`CREATE TABLE IF NOT EXISTS feedback (
			id BIGSERIAL PRIMARY KEY,
			query TEXT NOT NULL,
			rating INTEGER NOT NULL,
			comment TEXT NOT NULL DEFAULT '',
			created_at BIGINT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_feedback_query ON feedback(query, id)`,
		`CREATE TABLE IF NOT EXISTS reference_facts (
			query TEXT PRIMARY KEY,
			fact TEXT NOT NULL,
			updated_at BIGINT NOT NULL
		)`,
	},
}

// SQLStore keeps feedback and reference facts in a relational database.
// The auto-increment id is the recency order.
type SQLStore struct {
	db      *sql.DB
	dialect Dialect
	builder sq.StatementBuilderType
	logger  *zap.Logger
	now     func() time.Time
}

// OpenSQLite opens (creating if needed) a SQLite database at path
func OpenSQLite(ctx context.Context, path string, logger *zap.Logger) (*SQLStore, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, &StoreError{Op: "open", Err: err}
		}
	}

	db, err := sql.Open("sqlite", path+"?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)")
	if err != nil {
		return nil, &StoreError{Op: "open", Err: err}
	}
	// A single connection serializes writers and keeps :memory: databases alive
	db.SetMaxOpenConns(1)

	return NewSQLStore(ctx, db, DialectSQLite, logger)
}

// OpenPostgres connects to the database described by cfg
func OpenPostgres(ctx context.Context, cfg model.FeedbackConfig, logger *zap.Logger) (*SQLStore, error) {
	db, err := sql.Open("postgres", PostgresDSN(cfg))
	if err != nil {
		return nil, &StoreError{Op: "open", Err: err}
	}
	db.SetMaxOpenConns(10)
	db.SetConnMaxIdleTime(5 * time.Minute)

	return NewSQLStore(ctx, db, DialectPostgres, logger)
}

// PostgresDSN renders a lib/pq key=value connection string
func PostgresDSN(cfg model.FeedbackConfig) string {
	parts := []string{}
	add := func(k, v string) {
		if v != "" {
			parts = append(parts, k+"="+quoteDSN(v))
		}
	}
	add("host", cfg.Host)
	if cfg.Port > 0 {
		add("port", fmt.Sprint(cfg.Port))
	}
	add("user", cfg.User)
	add("password", cfg.Password)
	add("dbname", cfg.Name)
	add("sslmode", cfg.SSLMode)
	return strings.Join(parts, " ")
}

func quoteDSN(v string) string {
	if v != "" && !strings.ContainsAny(v, ` '\`) {
		return v
	}
	v = strings.ReplaceAll(v, `\`, `\\`)
	v = strings.ReplaceAll(v, `'`, `\'`)
	return "'" + v + "'"
}

// NewSQLStore wraps an open database, pinging it and applying the schema
func NewSQLStore(ctx context.Context, db *sql.DB, dialect Dialect, logger *zap.Logger) (*SQLStore, error) {
	stmts, ok := schema[dialect]
	if !ok {
		return nil, fmt.Errorf("unsupported dialect: %s", dialect)
	}

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, &StoreError{Op: "connect", Err: err}
	}
	for _, stmt := range stmts {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			_ = db.Close()
			return nil, &StoreError{Op: "migrate", Err: err}
		}
	}

	return &SQLStore{
		db:      db,
		dialect: dialect,
		builder: statementBuilder(dialect),
		logger:  logging.OrNop(logger).Named("feedback.sql"),
		now:     time.Now,
	}, nil
}

// statementBuilder binds the placeholder style of dialect
func statementBuilder(dialect Dialect) sq.StatementBuilderType {
	var placeholder sq.PlaceholderFormat = sq.Question
	if dialect == DialectPostgres {
		placeholder = sq.Dollar
	}
	return sq.StatementBuilder.PlaceholderFormat(placeholder)
}

// Record inserts rec in a single statement
func (s *SQLStore) Record(ctx context.Context, rec model.FeedbackRecord) (model.FeedbackRecord, error) {
	if err := Validate(rec); err != nil {
		return model.FeedbackRecord{}, err
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = s.now()
	}

	query, args, err := s.builder.
		Insert("feedback").
		Columns("query", "rating", "comment", "created_at").
		Values(rec.Query, rec.Rating, rec.Comment, rec.CreatedAt.UnixMicro()).
		Suffix("RETURNING id").
		ToSql()
	if err != nil {
		return model.FeedbackRecord{}, &StoreError{Op: "record", Err: err}
	}

	if err := s.db.QueryRowContext(ctx, query, args...).Scan(&rec.ID); err != nil {
		return model.FeedbackRecord{}, &StoreError{Op: "record", Err: err}
	}

	s.logger.Debug("feedback recorded", zap.Int64("id", rec.ID), zap.Int("rating", rec.Rating))
	return rec, nil
}

// FeedbackFor returns exact-query matches, most recent first
func (s *SQLStore) FeedbackFor(ctx context.Context, query string, limit int) ([]model.FeedbackRecord, error) {
	return s.list(ctx, sq.Eq{"query": query}, clampLimit(limit))
}

// Recent returns the latest records
func (s *SQLStore) Recent(ctx context.Context, limit int) ([]model.FeedbackRecord, error) {
	if limit <= 0 {
		limit = MaxRelated
	}
	return s.list(ctx, nil, limit)
}

func (s *SQLStore) list(ctx context.Context, where sq.Sqlizer, limit int) ([]model.FeedbackRecord, error) {
	builder := s.builder.
		Select("id", "query", "rating", "comment", "created_at").
		From("feedback").
		OrderBy("id DESC").
		Limit(uint64(limit))
	if where != nil {
		builder = builder.Where(where)
	}

	query, args, err := builder.ToSql()
	if err != nil {
		return nil, &StoreError{Op: "read", Err: err}
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, &StoreError{Op: "read", Err: err}
	}
	defer func() { _ = rows.Close() }()

	var out []model.FeedbackRecord
	for rows.Next() {
		var (
			rec     model.FeedbackRecord
			created int64
		)
		if err := rows.Scan(&rec.ID, &rec.Query, &rec.Rating, &rec.Comment, &created); err != nil {
			return nil, &StoreError{Op: "read", Err: err}
		}
		rec.CreatedAt = time.UnixMicro(created)
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, &StoreError{Op: "read", Err: err}
	}
	return out, nil
}

// FactFor returns the stored reference fact for query, if any
func (s *SQLStore) FactFor(ctx context.Context, query string) (string, bool, error) {
	stmt, args, err := s.builder.
		Select("fact").
		From("reference_facts").
		Where(sq.Eq{"query": query}).
		ToSql()
	if err != nil {
		return "", false, err
	}

	var fact string
	err = s.db.QueryRowContext(ctx, stmt, args...).Scan(&fact)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, &StoreError{Op: "read fact", Err: err}
	}
	return fact, strings.TrimSpace(fact) != "", nil
}

// PutFact stores or replaces the reference fact for query
func (s *SQLStore) PutFact(ctx context.Context, query, fact string) error {
	if strings.TrimSpace(query) == "" {
		return &ValidationError{Field: "query", Reason: "must not be empty"}
	}

	stmt, args, err := s.builder.
		Insert("reference_facts").
		Columns("query", "fact", "updated_at").
		Values(query, fact, s.now().UnixMicro()).
		Suffix("ON CONFLICT (query) DO UPDATE SET fact = excluded.fact, updated_at = excluded.updated_at").
		ToSql()
	if err != nil {
		return &StoreError{Op: "write fact", Err: err}
	}

	if _, err := s.db.ExecContext(ctx, stmt, args...); err != nil {
		return &StoreError{Op: "write fact", Err: err}
	}
	return nil
}

// Dialect returns the backend dialect
func (s *SQLStore) Dialect() Dialect {
	return s.dialect
}

// Close releases the connection pool
func (s *SQLStore) Close() error {
	return s.db.Close()
}
