package llm

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/ppiankov/factsift/internal/i18n"
	"github.com/ppiankov/factsift/internal/logging"
)

// ErrNoProvider is reported in a Verdict when no model provider is configured
var ErrNoProvider = errors.New("no LLM provider configured")

// Verdict is the outcome of one model call. Text is always set: on failure it
// holds a localized placeholder and Err carries the cause.
type Verdict struct {
	Text  string
	Model string
	Err   error
}

// Failed reports whether Text is a placeholder rather than model output
func (v Verdict) Failed() bool {
	return v.Err != nil
}

// VerdictGenerator asks the configured model for an analysis of a claim
type VerdictGenerator struct {
	provider Provider
	logger   *zap.Logger
}

// NewVerdictGenerator creates a generator. A nil provider yields a generator
// that always returns the "model not configured" placeholder.
func NewVerdictGenerator(provider Provider, logger *zap.Logger) *VerdictGenerator {
	return &VerdictGenerator{
		provider: provider,
		logger:   logging.OrNop(logger).Named("verdict"),
	}
}

// IsEnabled reports whether a provider is configured
func (g *VerdictGenerator) IsEnabled() bool {
	return g.provider != nil
}

// ProviderName returns the configured provider name, or "" when disabled
func (g *VerdictGenerator) ProviderName() string {
	if g.provider == nil {
		return ""
	}
	return g.provider.Name()
}

// IsAvailable probes the provider
func (g *VerdictGenerator) IsAvailable(ctx context.Context) bool {
	return g.provider != nil && g.provider.IsAvailable(ctx)
}

// Generate runs a single model call with the composed prompt as system
// context and the pivot-language query as user content.
func (g *VerdictGenerator) Generate(ctx context.Context, prompt, query string, msgs i18n.Catalog) Verdict {
	if g.provider == nil {
		return Verdict{Text: msgs.ModelDisabled, Err: ErrNoProvider}
	}

	resp, err := g.provider.Complete(ctx, UserPrompt(prompt, query))
	if err == nil && resp.Text == "" {
		err = errors.New("empty model response")
	}
	if err != nil {
		g.logger.Warn("model call failed",
			zap.String("provider", g.provider.Name()),
			zap.Error(err),
		)
		return Verdict{Text: msgs.ModelError(err), Err: err}
	}

	g.logger.Debug("model call completed",
		zap.String("provider", g.provider.Name()),
		zap.String("model", resp.Model),
		zap.Int("tokens", resp.TokensUsed),
	)
	return Verdict{Text: resp.Text, Model: resp.Model}
}
