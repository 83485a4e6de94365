package reference

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"go.uber.org/zap"

	"github.com/ppiankov/factsift/internal/logging"
	"github.com/ppiankov/factsift/internal/model"
	"github.com/ppiankov/factsift/internal/util"
)

// ErrDisallowed is reported when robots.txt forbids the reference page
var ErrDisallowed = errors.New("disallowed by robots.txt")

// WebRetriever crawls one reference page per query and extracts its text
type WebRetriever struct {
	fetcher  *Fetcher
	robots   *util.RobotsChecker
	template string
	selector string
	maxChars int
	logger   *zap.Logger
}

// NewWebRetriever creates a crawler for the URL template in cfg. A nil
// robots checker skips robots.txt checks.
func NewWebRetriever(cfg model.ReferenceConfig, fetcher *Fetcher, robots *util.RobotsChecker, logger *zap.Logger) *WebRetriever {
	return &WebRetriever{
		fetcher:  fetcher,
		robots:   robots,
		template: cfg.URLTemplate,
		selector: cfg.Selector,
		maxChars: cfg.MaxChars,
		logger:   logging.OrNop(logger).Named("reference.web"),
	}
}

// ExpandTemplate substitutes the percent-encoded query for {query}
func ExpandTemplate(template, query string) string {
	return strings.ReplaceAll(template, "{query}", url.QueryEscape(query))
}

// FetchReference fetches and extracts the reference page for query
func (w *WebRetriever) FetchReference(ctx context.Context, query string) (string, bool) {
	text, err := w.fetch(ctx, query)
	if err != nil {
		w.logger.Warn("reference lookup failed", zap.Error(err))
		return "", false
	}
	if text == "" {
		return "", false
	}
	return text, true
}

func (w *WebRetriever) fetch(ctx context.Context, query string) (string, error) {
	if w.template == "" {
		return "", fmt.Errorf("no reference URL template configured")
	}
	target := ExpandTemplate(w.template, query)

	if w.robots != nil {
		allowed, err := w.robots.IsAllowed(ctx, target)
		if err != nil {
			return "", err
		}
		if !allowed {
			return "", fmt.Errorf("%s: %w", target, ErrDisallowed)
		}
	}

	result, err := w.fetcher.Fetch(ctx, target)
	if err != nil {
		return "", err
	}

	text, err := ExtractText(result.HTML, w.selector, w.maxChars)
	if err != nil {
		return "", fmt.Errorf("parse %s: %w", result.FinalURL, err)
	}
	return text, nil
}
