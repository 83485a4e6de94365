package translate

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/ppiankov/factsift/internal/logging"
)

var errEmptyTranslation = errors.New("empty translation")

// Adapter applies the two translation policies: normalization is fatal on
// failure, localization falls back to the original text.
type Adapter struct {
	translator Translator
	pivot      string
	timeout    time.Duration
	logger     *zap.Logger
}

// NewAdapter creates an adapter normalizing queries into pivot. A zero
// timeout leaves calls bounded only by the caller's context.
func NewAdapter(t Translator, pivot string, timeout time.Duration, logger *zap.Logger) *Adapter {
	return &Adapter{
		translator: t,
		pivot:      pivot,
		timeout:    timeout,
		logger:     logging.OrNop(logger).Named("translate"),
	}
}

// Pivot returns the pivot language code
func (a *Adapter) Pivot() string {
	return a.pivot
}

// Normalize translates query into the pivot language. Any failure, including
// a timeout, is returned as *TranslationError.
func (a *Adapter) Normalize(ctx context.Context, query string) (string, error) {
	if strings.TrimSpace(query) == "" {
		return query, nil
	}

	ctx, cancel := a.withTimeout(ctx)
	defer cancel()

	out, err := a.translator.Translate(ctx, query, a.pivot)
	if err == nil && strings.TrimSpace(out) == "" {
		err = errEmptyTranslation
	}
	if err != nil {
		a.logger.Warn("query normalization failed",
			zap.String("backend", a.translator.Name()),
			zap.String("target", a.pivot),
			zap.Error(err),
		)
		return "", &TranslationError{Backend: a.translator.Name(), Target: a.pivot, Err: err}
	}
	return out, nil
}

// Localize translates text into lang, returning text unchanged on failure
func (a *Adapter) Localize(ctx context.Context, text, lang string) string {
	if strings.TrimSpace(text) == "" || lang == "" {
		return text
	}

	ctx, cancel := a.withTimeout(ctx)
	defer cancel()

	out, err := a.translator.Translate(ctx, text, lang)
	if err != nil || strings.TrimSpace(out) == "" {
		a.logger.Warn("localization failed, keeping original text",
			zap.String("backend", a.translator.Name()),
			zap.String("target", lang),
			zap.Error(err),
		)
		return text
	}
	return out
}

func (a *Adapter) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if a.timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, a.timeout)
}
