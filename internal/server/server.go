// Package server exposes the check pipeline and the feedback store over HTTP.
package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/ppiankov/factsift/internal/logging"
	"github.com/ppiankov/factsift/internal/model"
	"github.com/ppiankov/factsift/internal/pipeline"
	"github.com/ppiankov/factsift/internal/worker"
)

// Checker runs one fact-check request
type Checker interface {
	Check(ctx context.Context, req pipeline.CheckRequest) (*model.CheckResponse, error)
}

// FeedbackRecorder persists user feedback
type FeedbackRecorder interface {
	Record(ctx context.Context, rec model.FeedbackRecord) (model.FeedbackRecord, error)
}

// HealthProber reports on the model provider for deep health checks
type HealthProber interface {
	ProviderName() string
	IsAvailable(ctx context.Context) bool
}

// Deps are the collaborators served over HTTP
type Deps struct {
	Checker  Checker
	Feedback FeedbackRecorder
	Health   HealthProber

	// Limiter throttles requests per client address; nil disables limiting
	Limiter *worker.Limiter

	// DisplayLanguage selects the message catalog when a request names none
	DisplayLanguage string

	// StoreTimeout bounds one feedback write
	StoreTimeout time.Duration

	Version string
}

// Server is the HTTP front of the service
type Server struct {
	cfg    model.ServerConfig
	deps   Deps
	router *mux.Router
	logger *zap.Logger
}

// New creates a server and registers its routes
func New(cfg model.ServerConfig, deps Deps, logger *zap.Logger) *Server {
	if deps.DisplayLanguage == "" {
		deps.DisplayLanguage = "ko"
	}
	s := &Server{
		cfg:    cfg,
		deps:   deps,
		router: mux.NewRouter(),
		logger: logging.OrNop(logger).Named("server"),
	}
	s.routes()
	return s
}

func (s *Server) routes() {
	s.router.Use(s.recoverer, s.requestID, s.accessLog)

	s.router.Handle("/check", s.rateLimit(http.HandlerFunc(s.handleCheck))).Methods(http.MethodPost)
	s.router.Handle("/feedback", s.rateLimit(http.HandlerFunc(s.handleFeedback))).Methods(http.MethodPost)

	s.router.HandleFunc("/healthz", s.handleHealth).Methods(http.MethodGet)

	if s.cfg.StaticDir != "" {
		s.router.PathPrefix("/static/").Handler(
			http.StripPrefix("/static/", http.FileServer(http.Dir(s.cfg.StaticDir))))
		s.router.HandleFunc("/", s.handleIndex).Methods(http.MethodGet)
	}
}

// Handler returns the root handler, used directly by tests
func (s *Server) Handler() http.Handler {
	return s.router
}

// Run listens on the configured address until ctx is cancelled, then shuts
// down gracefully within the configured timeout.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.cfg.Addr,
		Handler:           s.router,
		ReadTimeout:       s.cfg.ReadTimeout,
		ReadHeaderTimeout: s.cfg.ReadTimeout,
		WriteTimeout:      s.cfg.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("listening", zap.String("addr", s.cfg.Addr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	timeout := s.cfg.ShutdownTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	s.logger.Info("shutting down")
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
