// Package translate wraps the text-translation capability used to normalize
// inbound queries to the pivot language and to localize outbound text.
package translate

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/ppiankov/factsift/internal/cache"
	"github.com/ppiankov/factsift/internal/llm"
	"github.com/ppiankov/factsift/internal/model"
)

// Translator translates text into a target language
type Translator interface {
	Name() string
	Translate(ctx context.Context, text, target string) (string, error)
}

// TranslationError reports a failed normalization to the pivot language.
// It is fatal to a check request.
type TranslationError struct {
	Backend string
	Target  string
	Err     error
}

func (e *TranslationError) Error() string {
	return fmt.Sprintf("translate to %s via %s: %v", e.Target, e.Backend, e.Err)
}

func (e *TranslationError) Unwrap() error {
	return e.Err
}

// New builds the translator selected by cfg.Backend. The llm backend needs
// a configured provider.
func New(cfg model.TranslateConfig, httpClient *http.Client, provider llm.Provider, c cache.Cache) (Translator, error) {
	var t Translator
	switch strings.ToLower(cfg.Backend) {
	case "google", "":
		if cfg.APIKey == "" {
			return nil, fmt.Errorf("google translation requires an API key")
		}
		t = NewGoogleTranslator(cfg.APIKey, cfg.BaseURL, httpClient)
	case "llm":
		if provider == nil {
			return nil, fmt.Errorf("llm translation requires an LLM provider")
		}
		t = NewLLMTranslator(provider)
	case "identity", "none":
		return Identity{}, nil
	default:
		return nil, fmt.Errorf("unknown translation backend: %s (supported: google, llm, identity)", cfg.Backend)
	}

	if cfg.Cache && c != nil {
		t = NewCachedTranslator(t, c, 0)
	}
	return t, nil
}

// Identity returns its input unchanged
type Identity struct{}

func (Identity) Name() string { return "identity" }

func (Identity) Translate(_ context.Context, text, _ string) (string, error) {
	return text, nil
}
