package reference

import (
	"context"
	"time"

	"github.com/ppiankov/factsift/internal/cache"
)

// CachedRetriever memoizes positive lookups. Absent results are not cached
// so a transient failure does not hide a later success.
type CachedRetriever struct {
	next      Retriever
	cache     cache.Cache
	namespace string
	ttl       time.Duration
}

// NewCachedRetriever wraps next, keying entries under namespace
func NewCachedRetriever(next Retriever, c cache.Cache, namespace string, ttl time.Duration) *CachedRetriever {
	return &CachedRetriever{next: next, cache: c, namespace: namespace, ttl: ttl}
}

// FetchReference returns a cached text or delegates to the wrapped retriever
func (r *CachedRetriever) FetchReference(ctx context.Context, query string) (string, bool) {
	key := cache.Key(r.namespace, query)
	if data, ok := r.cache.Get(key); ok {
		return string(data), true
	}

	text, ok := r.next.FetchReference(ctx, query)
	if ok {
		_ = r.cache.Set(key, []byte(text), r.ttl)
	}
	return text, ok
}
