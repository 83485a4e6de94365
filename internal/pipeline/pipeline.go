// Package pipeline orchestrates one fact-check request: query normalization,
// context retrieval, prompt composition, the model verdict and the final
// response merge.
package pipeline

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/ppiankov/factsift/internal/i18n"
	"github.com/ppiankov/factsift/internal/llm"
	"github.com/ppiankov/factsift/internal/logging"
	"github.com/ppiankov/factsift/internal/model"
	"github.com/ppiankov/factsift/internal/prompt"
	"github.com/ppiankov/factsift/internal/reference"
)

// Translator normalizes queries into the pivot language and localizes
// outbound text. Normalize failures are fatal to the request.
type Translator interface {
	Localizer
	Normalize(ctx context.Context, query string) (string, error)
	Pivot() string
}

// FactChecker searches published claim reviews
type FactChecker interface {
	Search(ctx context.Context, query string, msgs i18n.Catalog) model.FactCheckResult
}

// FeedbackReader reads prior feedback for an exact query, most recent first
type FeedbackReader interface {
	FeedbackFor(ctx context.Context, query string, limit int) ([]model.FeedbackRecord, error)
}

// VerdictGenerator produces the model analysis
type VerdictGenerator interface {
	Generate(ctx context.Context, prompt, query string, msgs i18n.Catalog) llm.Verdict
}

// PolicyResolver maps a request mode to a prompt policy
type PolicyResolver interface {
	Lookup(mode string) (prompt.Policy, error)
}

// Deps are the collaborators of a pipeline. Reference and Knowledge may be
// nil; Translator, FactCheck, Feedback, Verdict and Policies are required.
type Deps struct {
	Translator Translator
	FactCheck  FactChecker
	Feedback   FeedbackReader
	Reference  reference.Retriever
	Knowledge  reference.Retriever
	Verdict    VerdictGenerator
	Policies   PolicyResolver
}

// Options tune a pipeline
type Options struct {
	// DisplayLanguage is used when a request does not name one
	DisplayLanguage string
	FeedbackLimit   int
	SearchLinks     map[string]string
	Timeouts        model.StepTimeouts
}

// OptionsFromConfig builds options from the pipeline section of the config
func OptionsFromConfig(cfg model.PipelineConfig) Options {
	return Options{
		DisplayLanguage: cfg.DisplayLanguage,
		FeedbackLimit:   cfg.FeedbackLimit,
		SearchLinks:     cfg.SearchLinks,
		Timeouts:        cfg.Timeouts,
	}
}

// CheckRequest is one inbound check
type CheckRequest struct {
	Query string

	// Mode selects the prompt policy; "" uses the default
	Mode string

	// Language overrides the display language
	Language string
}

// Pipeline orchestrates the complete check process
type Pipeline struct {
	deps       Deps
	opts       Options
	aggregator *Aggregator
	logger     *zap.Logger
}

// New creates a pipeline
func New(deps Deps, opts Options, logger *zap.Logger) *Pipeline {
	if deps.Reference == nil {
		deps.Reference = reference.Nop{}
	}
	if deps.Knowledge == nil {
		deps.Knowledge = reference.Nop{}
	}
	if opts.DisplayLanguage == "" {
		opts.DisplayLanguage = "ko"
	}

	return &Pipeline{
		deps:       deps,
		opts:       opts,
		aggregator: NewAggregator(deps.Translator, deps.Translator.Pivot(), opts.FeedbackLimit, opts.SearchLinks),
		logger:     logging.OrNop(logger).Named("pipeline"),
	}
}

// checkContext is the retrieved context for one prompt
type checkContext struct {
	feedback  []model.FeedbackRecord
	reference string
	fact      string
}

// Check runs the full pipeline. It returns *InputError for a rejected
// request and *translate.TranslationError when normalization fails; every
// other provider failure degrades into the response.
func (p *Pipeline) Check(ctx context.Context, req CheckRequest) (*model.CheckResponse, error) {
	start := time.Now()

	// 1. Validate input before any external call
	query := strings.TrimSpace(req.Query)
	if query == "" {
		return nil, &InputError{Kind: EmptyQuery}
	}

	lang := p.opts.DisplayLanguage
	if req.Language != "" {
		canonical, err := i18n.Canonical(req.Language)
		if err != nil {
			return nil, &InputError{Kind: InvalidLanguage, Detail: req.Language}
		}
		lang = canonical
	}
	msgs := i18n.For(lang)

	policy, err := p.deps.Policies.Lookup(req.Mode)
	if err != nil {
		return nil, &InputError{Kind: InvalidMode, Detail: req.Mode}
	}

	// 2. Normalize to the pivot language (fatal)
	pivotQuery, err := p.deps.Translator.Normalize(ctx, query)
	if err != nil {
		return nil, err
	}

	// 3. Fact-check runs alongside context retrieval and the verdict
	var (
		fact    model.FactCheckResult
		cc      checkContext
		verdict llm.Verdict
	)

	var g errgroup.Group
	g.Go(func() error {
		fctx, cancel := withTimeout(ctx, p.opts.Timeouts.FactCheck)
		defer cancel()
		fact = p.deps.FactCheck.Search(fctx, pivotQuery, msgs)
		return nil
	})
	g.Go(func() error {
		cc = p.retrieveContext(ctx, query)

		system := prompt.Compose(prompt.Input{
			Policy:        policy,
			Language:      lang,
			Feedback:      cc.feedback,
			ReferenceText: cc.reference,
			DatabaseFact:  cc.fact,
		})

		vctx, cancel := withTimeout(ctx, p.opts.Timeouts.Model)
		defer cancel()
		verdict = p.deps.Verdict.Generate(vctx, system, pivotQuery, msgs)
		return nil
	})
	_ = g.Wait()

	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("check abandoned: %w", err)
	}

	// 4. Aggregate
	resp := p.aggregator.Aggregate(ctx, AggregateInput{
		Query:     query,
		Language:  lang,
		Messages:  msgs,
		Verdict:   verdict,
		FactCheck: fact,
		Feedback:  cc.feedback,
	})

	p.logger.Info("check completed",
		zap.String("mode", policy.Name),
		zap.String("lang", lang),
		zap.Bool("fact_found", fact.Found),
		zap.Bool("verdict_failed", verdict.Failed()),
		zap.Int("feedback", len(cc.feedback)),
		zap.Bool("reference", cc.reference != ""),
		zap.Bool("database_fact", cc.fact != ""),
		zap.Duration("duration", time.Since(start)),
	)

	return resp, nil
}

// CheckQuery runs a check with the default mode and display language
func (p *Pipeline) CheckQuery(ctx context.Context, query string) (*model.CheckResponse, error) {
	return p.Check(ctx, CheckRequest{Query: query})
}

// retrieveContext runs the three context lookups concurrently. Each one
// degrades to absent context on failure.
func (p *Pipeline) retrieveContext(ctx context.Context, query string) checkContext {
	var cc checkContext
	var g errgroup.Group

	g.Go(func() error {
		sctx, cancel := withTimeout(ctx, p.opts.Timeouts.Store)
		defer cancel()
		records, err := p.deps.Feedback.FeedbackFor(sctx, query, p.opts.FeedbackLimit)
		if err != nil {
			p.logger.Warn("feedback read failed, continuing without feedback", zap.Error(err))
			return nil
		}
		cc.feedback = records
		return nil
	})
	g.Go(func() error {
		rctx, cancel := withTimeout(ctx, p.opts.Timeouts.Reference)
		defer cancel()
		if text, ok := p.deps.Reference.FetchReference(rctx, query); ok {
			cc.reference = text
		}
		return nil
	})
	g.Go(func() error {
		kctx, cancel := withTimeout(ctx, p.opts.Timeouts.Store)
		defer cancel()
		if text, ok := p.deps.Knowledge.FetchReference(kctx, query); ok {
			cc.fact = text
		}
		return nil
	})

	_ = g.Wait()
	return cc
}

func withTimeout(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, d)
}
