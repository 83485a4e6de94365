// Package app wires the configured adapters into a pipeline and server.
package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/ppiankov/factsift/internal/cache"
	"github.com/ppiankov/factsift/internal/factcheck"
	"github.com/ppiankov/factsift/internal/feedback"
	"github.com/ppiankov/factsift/internal/i18n"
	"github.com/ppiankov/factsift/internal/llm"
	"github.com/ppiankov/factsift/internal/logging"
	"github.com/ppiankov/factsift/internal/model"
	"github.com/ppiankov/factsift/internal/pipeline"
	"github.com/ppiankov/factsift/internal/prompt"
	"github.com/ppiankov/factsift/internal/reference"
	"github.com/ppiankov/factsift/internal/server"
	"github.com/ppiankov/factsift/internal/translate"
	"github.com/ppiankov/factsift/internal/util"
	"github.com/ppiankov/factsift/internal/worker"
)

// App holds the process-wide collaborators built once at startup
type App struct {
	Config   *model.Config
	Pipeline *pipeline.Pipeline
	Store    feedback.Store
	Verdict  *llm.VerdictGenerator
	Logger   *zap.Logger
	Version  string
}

// New validates cfg and builds every adapter. The caller owns Close.
func New(ctx context.Context, cfg *model.Config, logger *zap.Logger, version string) (*App, error) {
	logger = logging.OrNop(logger)

	if err := normalizeLanguages(cfg); err != nil {
		return nil, err
	}

	httpClient := util.NewHTTPClient(cfg.HTTP)
	c := cache.New(cfg.Cache)

	provider, err := llm.NewProvider(llm.ConfigFromModel(cfg.LLM, cfg.HTTP))
	if err != nil {
		return nil, fmt.Errorf("llm provider: %w", err)
	}
	if provider == nil {
		logger.Warn("no LLM provider configured, verdicts will be placeholders")
	}

	translator, err := translate.New(cfg.Translate, httpClient, provider, c)
	if err != nil {
		return nil, fmt.Errorf("translator: %w", err)
	}
	adapter := translate.NewAdapter(translator, cfg.Pipeline.PivotLanguage, cfg.Pipeline.Timeouts.Translate, logger)

	limiter := worker.NewLimiter(cfg.FactCheck.RequestsPerS, cfg.FactCheck.Burst)
	factChecker := factcheck.NewClient(cfg.FactCheck, httpClient, limiter, logger)
	if cfg.FactCheck.APIKey == "" {
		logger.Warn("no fact-check API key configured, searches will report an error")
	}

	store, err := feedback.Open(ctx, cfg.Feedback, logger)
	if err != nil {
		return nil, fmt.Errorf("feedback store: %w", err)
	}

	knowledge, err := newKnowledge(cfg, store, c, logger)
	if err != nil {
		_ = store.Close()
		return nil, err
	}

	policies, err := newPolicies(cfg.Pipeline)
	if err != nil {
		_ = store.Close()
		return nil, err
	}

	verdict := llm.NewVerdictGenerator(provider, logger)

	p := pipeline.New(pipeline.Deps{
		Translator: adapter,
		FactCheck:  factChecker,
		Feedback:   store,
		Reference:  newReference(cfg, httpClient, c, logger),
		Knowledge:  knowledge,
		Verdict:    verdict,
		Policies:   policies,
	}, pipeline.OptionsFromConfig(cfg.Pipeline), logger)

	logger.Info("factsift initialized",
		zap.String("llm", verdict.ProviderName()),
		zap.String("translate", translator.Name()),
		zap.String("feedback", cfg.Feedback.Backend),
		zap.Bool("reference", cfg.Reference.Enabled),
		zap.String("knowledge", cfg.Knowledge.Source),
	)

	return &App{
		Config:   cfg,
		Pipeline: p,
		Store:    store,
		Verdict:  verdict,
		Logger:   logger,
		Version:  version,
	}, nil
}

// Server builds the HTTP server for the app
func (a *App) Server() *server.Server {
	var limiter *worker.Limiter
	if a.Config.RateLimiting.RequestsPerSecond > 0 {
		limiter = worker.NewLimiter(a.Config.RateLimiting.RequestsPerSecond, a.Config.RateLimiting.BurstSize)
	}

	return server.New(a.Config.Server, server.Deps{
		Checker:         a.Pipeline,
		Feedback:        a.Store,
		Health:          a.Verdict,
		Limiter:         limiter,
		DisplayLanguage: a.Config.Pipeline.DisplayLanguage,
		StoreTimeout:    a.Config.Pipeline.Timeouts.Store,
		Version:         a.Version,
	}, a.Logger)
}

// Close releases the feedback store
func (a *App) Close() error {
	return a.Store.Close()
}

func normalizeLanguages(cfg *model.Config) error {
	pivot, err := i18n.Canonical(cfg.Pipeline.PivotLanguage)
	if err != nil {
		return fmt.Errorf("pipeline.pivot_language: %w", err)
	}
	display, err := i18n.Canonical(cfg.Pipeline.DisplayLanguage)
	if err != nil {
		return fmt.Errorf("pipeline.display_language: %w", err)
	}
	cfg.Pipeline.PivotLanguage = pivot
	cfg.Pipeline.DisplayLanguage = display
	return nil
}

func newPolicies(cfg model.PipelineConfig) (*prompt.Registry, error) {
	registry := prompt.DefaultRegistry(cfg.DefaultMode)
	if _, err := registry.Lookup(""); err != nil {
		return nil, fmt.Errorf("pipeline.default_mode: %w", err)
	}
	if cfg.SourcePriority == "" {
		return registry, nil
	}
	priority, err := prompt.ParsePriority(cfg.SourcePriority)
	if err != nil {
		return nil, fmt.Errorf("pipeline.source_priority: %w", err)
	}
	return registry.WithPriority(priority), nil
}

func newReference(cfg *model.Config, httpClient *http.Client, c cache.Cache, logger *zap.Logger) reference.Retriever {
	if !cfg.Reference.Enabled {
		return reference.Nop{}
	}

	var robots *util.RobotsChecker
	if cfg.Reference.RespectRobots {
		robots = util.NewRobotsChecker(httpClient, cfg.HTTP.UserAgent)
	}
	fetcher := reference.NewFetcher(httpClient, cfg.HTTP.UserAgent, cfg.HTTP.MaxBodyBytes)
	web := reference.NewWebRetriever(cfg.Reference, fetcher, robots, logger)
	return reference.NewCachedRetriever(web, c, cache.NamespaceReference, 0)
}

func newKnowledge(cfg *model.Config, store feedback.Store, c cache.Cache, logger *zap.Logger) (reference.Retriever, error) {
	switch strings.ToLower(cfg.Knowledge.Source) {
	case "", "none":
		return reference.Nop{}, nil
	case "yaml":
		kb, err := reference.LoadYAMLKnowledgeBase(cfg.Knowledge.Path)
		if err != nil {
			return nil, fmt.Errorf("knowledge base: %w", err)
		}
		logger.Info("knowledge base loaded", zap.Int("facts", kb.Len()))
		return reference.NewKnowledgeRetriever(kb, logger), nil
	case "store":
		source, ok := store.(reference.FactSource)
		if !ok {
			return nil, errors.New("knowledge.source=store requires a sqlite or postgres feedback backend")
		}
		retriever := reference.NewKnowledgeRetriever(source, logger)
		if cfg.Knowledge.CacheTTL <= 0 {
			return retriever, nil
		}
		// Facts written by other processes show up once the entry expires
		return reference.NewCachedRetriever(retriever, c, cache.NamespaceKnowledge, cfg.Knowledge.CacheTTL), nil
	default:
		return nil, fmt.Errorf("unknown knowledge source: %s (supported: yaml, store)", cfg.Knowledge.Source)
	}
}
