// Package factcheck searches published fact-check reviews for a claim.
package factcheck

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/ppiankov/factsift/internal/i18n"
	"github.com/ppiankov/factsift/internal/logging"
	"github.com/ppiankov/factsift/internal/model"
	"github.com/ppiankov/factsift/internal/worker"
)

const (
	defaultBaseURL  = "https://factchecktools.googleapis.com"
	searchPath      = "/v1alpha1/claims:search"
	limiterKey      = "factcheck"
	maxResponseSize = 2 << 20
)

// ErrNoAPIKey is reported when no fact-check credential is configured
var ErrNoAPIKey = errors.New("fact-check API key not configured")

// Client calls the Google Fact Check Tools claim search
type Client struct {
	apiKey       string
	baseURL      string
	languageCode string
	pageSize     int
	httpClient   *http.Client
	limiter      *worker.Limiter
	logger       *zap.Logger
}

type searchResponse struct {
	Claims []claim `json:"claims"`
}

type claim struct {
	Text        string        `json:"text"`
	Claimant    string        `json:"claimant"`
	ClaimReview []claimReview `json:"claimReview"`
}

type claimReview struct {
	URL           string `json:"url"`
	Title         string `json:"title"`
	TextualRating string `json:"textualRating"`
	LanguageCode  string `json:"languageCode"`
	Publisher     struct {
		Name     string `json:"name"`
		Site     string `json:"site"`
		ImageURL string `json:"imageUrl"`
	} `json:"publisher"`
}

type apiError struct {
	Error struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// NewClient creates a claim-search client. Outbound calls share the given
// limiter; a nil limiter disables throttling.
func NewClient(cfg model.FactCheckConfig, httpClient *http.Client, limiter *worker.Limiter, logger *zap.Logger) *Client {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	languageCode := cfg.LanguageCode
	if languageCode == "" {
		languageCode = "en"
	}
	return &Client{
		apiKey:       cfg.APIKey,
		baseURL:      strings.TrimSuffix(baseURL, "/"),
		languageCode: languageCode,
		pageSize:     cfg.PageSize,
		httpClient:   httpClient,
		limiter:      limiter,
		logger:       logging.OrNop(logger).Named("factcheck"),
	}
}

// Search returns the first provider-ranked claim review for the pivot-language
// query. No match and call failures both yield a "no result" variant whose
// text explains why; Search never fails the request.
func (c *Client) Search(ctx context.Context, query string, msgs i18n.Catalog) model.FactCheckResult {
	claims, err := c.search(ctx, query)
	if err != nil {
		c.logger.Warn("fact-check search failed", zap.Error(err))
		return model.NoFactCheckResult(msgs.FactCheckError(err))
	}
	if len(claims) == 0 {
		c.logger.Debug("fact-check search returned no claims")
		return model.NoFactCheckResult(msgs.FactCheckNoMatch)
	}

	first := claims[0]
	result := model.FactCheckResult{
		Found:     true,
		ClaimText: first.Text,
		Rating:    msgs.FactCheckNoRating,
		SourceURL: msgs.FactCheckNoURL,
	}
	if result.ClaimText == "" {
		result.ClaimText = msgs.FactCheckNoContent
	}
	if len(first.ClaimReview) > 0 {
		review := first.ClaimReview[0]
		if review.TextualRating != "" {
			result.Rating = review.TextualRating
		}
		if review.URL != "" {
			result.SourceURL = review.URL
		}
		result.ImageURL = review.Publisher.ImageURL
	}
	return result
}

func (c *Client) search(ctx context.Context, query string) ([]claim, error) {
	if c.apiKey == "" {
		return nil, ErrNoAPIKey
	}
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx, limiterKey); err != nil {
			return nil, fmt.Errorf("rate limit wait: %w", err)
		}
	}

	params := url.Values{}
	params.Set("query", query)
	params.Set("languageCode", c.languageCode)
	params.Set("key", c.apiKey)
	if c.pageSize > 0 {
		params.Set("pageSize", strconv.Itoa(c.pageSize))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+searchPath+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, redactKey(err, c.apiKey)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		var apiErr apiError
		if err := json.Unmarshal(body, &apiErr); err == nil && apiErr.Error.Message != "" {
			return nil, fmt.Errorf("API error (%d): %s", resp.StatusCode, apiErr.Error.Message)
		}
		return nil, fmt.Errorf("API error (%d)", resp.StatusCode)
	}

	var parsed searchResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("unmarshal response: %w", err)
	}
	return parsed.Claims, nil
}

// redactKey keeps the API key out of transport errors, which embed the URL
func redactKey(err error, key string) error {
	msg := err.Error()
	if key != "" {
		msg = strings.ReplaceAll(msg, key, "REDACTED")
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("execute request: %s: %w", msg, context.DeadlineExceeded)
	}
	if errors.Is(err, context.Canceled) {
		return fmt.Errorf("execute request: %s: %w", msg, context.Canceled)
	}
	return fmt.Errorf("execute request: %s", msg)
}
