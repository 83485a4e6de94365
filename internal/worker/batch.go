package worker

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/ppiankov/factsift/internal/model"
)

// Checker runs one check. *pipeline.Pipeline satisfies it.
type Checker interface {
	CheckQuery(ctx context.Context, query string) (*model.CheckResponse, error)
}

// CheckJob represents one query check
type CheckJob struct {
	Index   int
	Query   string
	Checker Checker
}

// Execute executes the check job
func (j *CheckJob) Execute(ctx context.Context) Result {
	resp, err := j.Checker.CheckQuery(ctx, j.Query)
	return &CheckResult{
		Index:    j.Index,
		Query:    j.Query,
		Response: resp,
		Error:    err,
	}
}

// CheckResult represents the result of a check job
type CheckResult struct {
	Index    int
	Query    string
	Response *model.CheckResponse
	Error    error
}

// GetError returns the error from the check result
func (r *CheckResult) GetError() error {
	return r.Error
}

// BatchProcessor checks many queries concurrently
type BatchProcessor struct {
	checker     Checker
	concurrency int
}

// NewBatchProcessor creates a new batch processor
func NewBatchProcessor(checker Checker, concurrency int) *BatchProcessor {
	return &BatchProcessor{
		checker:     checker,
		concurrency: concurrency,
	}
}

// ProcessQueries checks all queries and returns results in input order
func (b *BatchProcessor) ProcessQueries(ctx context.Context, queries []string) []*CheckResult {
	if len(queries) == 0 {
		return []*CheckResult{}
	}

	pool := NewPool(ctx, b.concurrency)
	pool.Start()

	// Submit from a goroutine so a small result buffer cannot deadlock
	go func() {
		for i, q := range queries {
			pool.Submit(&CheckJob{Index: i, Query: q, Checker: b.checker})
		}
		pool.Close()
	}()

	ordered := make([]*CheckResult, len(queries))
	for _, result := range pool.Results() {
		r := result.(*CheckResult)
		ordered[r.Index] = r
	}

	// Jobs dropped by cancellation never produced a result
	for i, r := range ordered {
		if r == nil {
			ordered[i] = &CheckResult{Index: i, Query: queries[i], Error: ctx.Err()}
		}
	}

	return ordered
}

// ProcessFile reads queries from a file and checks them concurrently
func (b *BatchProcessor) ProcessFile(ctx context.Context, filePath string) ([]*CheckResult, error) {
	queries, err := ReadQueriesFromFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("read queries: %w", err)
	}

	return b.ProcessQueries(ctx, queries), nil
}

// ReadQueriesFromFile reads queries from a file (one per line). Blank lines
// and lines starting with # are skipped; exact duplicates are dropped.
func ReadQueriesFromFile(filePath string) ([]string, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("open file: %w", err)
	}
	defer func() { _ = file.Close() }()

	var queries []string
	seen := make(map[string]bool)

	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())

		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		if !seen[line] {
			seen[line] = true
			queries = append(queries, line)
		}
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan file: %w", err)
	}

	return queries, nil
}
