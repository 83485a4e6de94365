package app

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ppiankov/factsift/internal/cache"
	"github.com/ppiankov/factsift/internal/feedback"
	"github.com/ppiankov/factsift/internal/i18n"
	"github.com/ppiankov/factsift/internal/model"
	"github.com/ppiankov/factsift/internal/pipeline"
)

func offlineConfig(t *testing.T) *model.Config {
	t.Helper()
	cfg := model.DefaultConfig()
	cfg.Translate.Backend = "identity"
	cfg.LLM.Provider = ""
	cfg.Cache.Enabled = false
	cfg.Feedback.Backend = "sqlite"
	cfg.Feedback.Path = filepath.Join(t.TempDir(), "feedback.db")
	cfg.Server.StaticDir = ""
	return cfg
}

func TestNewOffline(t *testing.T) {
	cfg := offlineConfig(t)

	a, err := New(context.Background(), cfg, nil, "test")
	require.NoError(t, err)
	defer a.Close()

	resp, err := a.Pipeline.Check(context.Background(), pipeline.CheckRequest{Query: "the moon is made of cheese"})
	require.NoError(t, err)

	ko := i18n.For("ko")
	assert.Equal(t, model.StatusSuccess, resp.Status)
	assert.Equal(t, ko.ModelDisabled, resp.VerdictText)
	assert.False(t, resp.FactCheck.Found)
	assert.NotEmpty(t, resp.FactCheck.ClaimText)
	assert.Len(t, resp.ExternalSearchLinks, 2)
}

func TestNewRejectsBadConfig(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*model.Config)
		want   string
	}{
		{"pivot language", func(c *model.Config) { c.Pipeline.PivotLanguage = "!!" }, "pivot_language"},
		{"default mode", func(c *model.Config) { c.Pipeline.DefaultMode = "astrology" }, "default_mode"},
		{"source priority", func(c *model.Config) { c.Pipeline.SourcePriority = "loudest" }, "source_priority"},
		{"llm provider", func(c *model.Config) { c.LLM.Provider = "eliza" }, "llm provider"},
		{"translator", func(c *model.Config) {
			c.Translate.Backend = "google"
			c.Translate.APIKey = ""
		}, "translator"},
		{"knowledge source", func(c *model.Config) { c.Knowledge.Source = "oracle" }, "knowledge source"},
		{"store knowledge on file", func(c *model.Config) {
			c.Feedback.Backend = "file"
			c.Feedback.Path = filepath.Join(filepath.Dir(c.Feedback.Path), "feedback_log.json")
			c.Knowledge.Source = "store"
		}, "knowledge.source=store"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := offlineConfig(t)
			tt.mutate(cfg)

			_, err := New(context.Background(), cfg, nil, "test")
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestNewWithYAMLKnowledge(t *testing.T) {
	path := filepath.Join(t.TempDir(), "facts.yaml")
	require.NoError(t, os.WriteFile(path, []byte("facts:\n  - query: claim\n    fact: Verified statement.\n"), 0o644))

	cfg := offlineConfig(t)
	cfg.Knowledge.Source = "yaml"
	cfg.Knowledge.Path = path
	cfg.Pipeline.SourcePriority = "database"

	a, err := New(context.Background(), cfg, nil, "test")
	require.NoError(t, err)
	defer a.Close()

	_, err = a.Pipeline.CheckQuery(context.Background(), "claim")
	require.NoError(t, err)
}

func TestStoreKnowledgeCacheTTL(t *testing.T) {
	tests := []struct {
		name string
		ttl  time.Duration
		want string
	}{
		{"uncached sees new facts", 0, "second"},
		{"cached keeps the first read", time.Minute, "first"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			store, err := feedback.OpenSQLite(ctx, filepath.Join(t.TempDir(), "kb.db"), nil)
			require.NoError(t, err)
			defer store.Close()

			cfg := offlineConfig(t)
			cfg.Knowledge.Source = "store"
			cfg.Knowledge.CacheTTL = tt.ttl

			k, err := newKnowledge(cfg, store, cache.NewMemoryCache(time.Hour, time.Hour), nil)
			require.NoError(t, err)

			require.NoError(t, store.PutFact(ctx, "q", "first"))
			got, ok := k.FetchReference(ctx, "q")
			require.True(t, ok)
			assert.Equal(t, "first", got)

			require.NoError(t, store.PutFact(ctx, "q", "second"))
			got, ok = k.FetchReference(ctx, "q")
			require.True(t, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestServerEndToEnd(t *testing.T) {
	cfg := offlineConfig(t)
	cfg.RateLimiting.RequestsPerSecond = 0

	a, err := New(context.Background(), cfg, nil, "test")
	require.NoError(t, err)
	defer a.Close()

	h := a.Server().Handler()

	for i := 0; i < 2; i++ {
		req := httptest.NewRequest(http.MethodPost, "/feedback", strings.NewReader(`{"query":"X","rating":3,"comment":"ok"}`))
		req.Header.Set("Content-Type", "application/json")
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		require.Equal(t, http.StatusOK, rec.Code)
	}

	form := url.Values{"query": {"X"}}
	req := httptest.NewRequest(http.MethodPost, "/check", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"relatedFeedback":[{"query":"X","rating":3,"comment":"ok"},{"query":"X","rating":3,"comment":"ok"}]`)

	req = httptest.NewRequest(http.MethodPost, "/check", strings.NewReader(""))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), `"status":"error"`)
}
