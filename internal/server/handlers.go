package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/ppiankov/factsift/internal/feedback"
	"github.com/ppiankov/factsift/internal/i18n"
	"github.com/ppiankov/factsift/internal/model"
	"github.com/ppiankov/factsift/internal/pipeline"
	"github.com/ppiankov/factsift/internal/translate"
)

// feedbackRequest is the body of POST /feedback
type feedbackRequest struct {
	Query   string              `json:"query"`
	Rating  feedback.FlexRating `json:"rating"`
	Comment string              `json:"comment"`
	Lang    string              `json:"lang,omitempty"`
}

// HealthResponse is the body of GET /healthz
type HealthResponse struct {
	Status   string `json:"status"`
	Version  string `json:"version,omitempty"`
	Provider string `json:"provider,omitempty"`
	Model    *bool  `json:"modelAvailable,omitempty"`
}

func (s *Server) handleCheck(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.maxBody())
	if err := r.ParseForm(); err != nil {
		writeJSON(w, http.StatusBadRequest, model.ErrorResponse(s.catalog(r).BadRequest))
		return
	}

	req := pipeline.CheckRequest{
		Query:    r.PostFormValue("query"),
		Mode:     r.PostFormValue("mode"),
		Language: r.PostFormValue("lang"),
	}
	msgs := s.catalogFor(req.Language)

	resp, err := s.deps.Checker.Check(r.Context(), req)
	if err != nil {
		status := checkStatus(err)
		if status == http.StatusInternalServerError {
			s.logger.Error("check failed",
				zap.String("request_id", RequestID(r.Context())),
				zap.Error(err),
			)
		}
		writeJSON(w, status, model.ErrorResponse(pipeline.UserMessage(err, msgs)))
		return
	}

	writeJSON(w, http.StatusOK, resp)
}

// checkStatus maps a pipeline error to an HTTP status
func checkStatus(err error) int {
	var inputErr *pipeline.InputError
	var translationErr *translate.TranslationError
	switch {
	case errors.As(err, &inputErr):
		return http.StatusBadRequest
	case errors.As(err, &translationErr):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) handleFeedback(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.maxBody())

	var body feedbackRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeJSON(w, http.StatusBadRequest, model.ErrorResponse(s.catalog(r).BadRequest))
		return
	}
	msgs := s.catalogFor(body.Lang)

	ctx := r.Context()
	if s.deps.StoreTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.deps.StoreTimeout)
		defer cancel()
	}

	_, err := s.deps.Feedback.Record(ctx, model.FeedbackRecord{
		Query:   strings.TrimSpace(body.Query),
		Rating:  int(body.Rating),
		Comment: body.Comment,
	})

	var validationErr *feedback.ValidationError
	switch {
	case err == nil:
		writeJSON(w, http.StatusOK, model.SuccessResponse(msgs.FeedbackSaved))
	case errors.As(err, &validationErr):
		writeJSON(w, http.StatusBadRequest, model.ErrorResponse(msgs.InvalidFeedback(validationErr.Error())))
	default:
		s.logger.Error("feedback save failed",
			zap.String("request_id", RequestID(r.Context())),
			zap.Error(err),
		)
		writeJSON(w, http.StatusInternalServerError, model.ErrorResponse(msgs.FeedbackFailed))
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	resp := HealthResponse{Status: "ok", Version: s.deps.Version}
	status := http.StatusOK

	if s.deps.Health != nil {
		resp.Provider = s.deps.Health.ProviderName()
		if r.URL.Query().Get("deep") == "1" && resp.Provider != "" {
			available := s.deps.Health.IsAvailable(r.Context())
			resp.Model = &available
			if !available {
				resp.Status = "degraded"
				status = http.StatusServiceUnavailable
			}
		}
	}

	writeJSON(w, status, resp)
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	http.ServeFile(w, r, filepath.Join(s.cfg.StaticDir, "index.html"))
}

func (s *Server) maxBody() int64 {
	if s.cfg.MaxBodyBytes > 0 {
		return s.cfg.MaxBodyBytes
	}
	return 64 << 10
}

// catalog picks messages from the lang query parameter, if any
func (s *Server) catalog(r *http.Request) i18n.Catalog {
	return s.catalogFor(r.URL.Query().Get("lang"))
}

func (s *Server) catalogFor(lang string) i18n.Catalog {
	if lang == "" {
		lang = s.deps.DisplayLanguage
	}
	return i18n.For(lang)
}

func writeJSON(w http.ResponseWriter, code int, payload any) {
	body, err := json.Marshal(payload)
	if err != nil {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"status":"error","message":"failed to encode response"}`))
		return
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(code)
	_, _ = w.Write(body)
}
