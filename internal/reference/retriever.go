// Package reference looks up optional supplementary context for a query:
// crawled page text and stored knowledge-base facts. Every lookup is best
// effort; failures are logged and reported as absent.
package reference

import (
	"context"
)

// Retriever returns supplementary text for a raw query, or ok=false
type Retriever interface {
	FetchReference(ctx context.Context, query string) (text string, ok bool)
}

// Nop is the retriever used when a source is disabled
type Nop struct{}

// FetchReference always reports absent
func (Nop) FetchReference(context.Context, string) (string, bool) {
	return "", false
}
