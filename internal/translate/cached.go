package translate

import (
	"context"
	"time"

	"github.com/ppiankov/factsift/internal/cache"
)

// CachedTranslator memoizes successful translations. Failures are never cached.
type CachedTranslator struct {
	next  Translator
	cache cache.Cache
	ttl   time.Duration
}

// NewCachedTranslator wraps next with c. A zero ttl uses the cache default.
func NewCachedTranslator(next Translator, c cache.Cache, ttl time.Duration) *CachedTranslator {
	return &CachedTranslator{next: next, cache: c, ttl: ttl}
}

// Name returns the wrapped backend name
func (t *CachedTranslator) Name() string {
	return t.next.Name()
}

// Translate returns a cached translation or delegates to the wrapped backend
func (t *CachedTranslator) Translate(ctx context.Context, text, target string) (string, error) {
	key := cache.Key(cache.NamespaceTranslation, t.next.Name(), target, text)
	if data, ok := t.cache.Get(key); ok {
		return string(data), nil
	}

	out, err := t.next.Translate(ctx, text, target)
	if err != nil {
		return "", err
	}
	_ = t.cache.Set(key, []byte(out), t.ttl)
	return out, nil
}
