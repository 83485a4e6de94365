package pipeline

import (
	"context"
	"net/url"
	"strings"

	"github.com/ppiankov/factsift/internal/i18n"
	"github.com/ppiankov/factsift/internal/llm"
	"github.com/ppiankov/factsift/internal/model"
)

// Localizer translates outbound text, returning it unchanged on failure
type Localizer interface {
	Localize(ctx context.Context, text, lang string) string
}

// Aggregator merges the per-step results into the client response
type Aggregator struct {
	localizer     Localizer
	pivot         string
	feedbackLimit int
	searchLinks   map[string]string
}

// AggregateInput is the collected output of one pipeline run
type AggregateInput struct {
	Query     string
	Language  string
	Messages  i18n.Catalog
	Verdict   llm.Verdict
	FactCheck model.FactCheckResult
	Feedback  []model.FeedbackRecord
}

// NewAggregator creates an aggregator. searchLinks maps provider names to
// URL templates containing a {query} placeholder.
func NewAggregator(localizer Localizer, pivot string, feedbackLimit int, searchLinks map[string]string) *Aggregator {
	return &Aggregator{
		localizer:     localizer,
		pivot:         pivot,
		feedbackLimit: feedbackLimit,
		searchLinks:   searchLinks,
	}
}

// Aggregate builds the success response
func (a *Aggregator) Aggregate(ctx context.Context, in AggregateInput) *model.CheckResponse {
	fact := in.FactCheck
	// Placeholder texts are already in the display language
	if fact.Found && in.Language != a.pivot {
		fact.ClaimText = a.localizer.Localize(ctx, fact.ClaimText, in.Language)
		if fact.Rating != "" {
			fact.Rating = a.localizer.Localize(ctx, fact.Rating, in.Language)
		}
	}

	related := in.Feedback
	if a.feedbackLimit > 0 && len(related) > a.feedbackLimit {
		related = related[:a.feedbackLimit]
	}
	views := make([]model.FeedbackView, len(related))
	for i, r := range related {
		views[i] = r.View()
	}

	return &model.CheckResponse{
		Status:              model.StatusSuccess,
		Query:               in.Query,
		VerificationMessage: in.Messages.Verification,
		VerdictText:         in.Verdict.Text,
		FactCheck:           fact,
		RelatedFeedback:     views,
		ExternalSearchLinks: SearchLinks(a.searchLinks, in.Query),
	}
}

// SearchLinks expands every template with the percent-encoded raw query
func SearchLinks(templates map[string]string, query string) map[string]string {
	links := make(map[string]string, len(templates))
	escaped := url.PathEscape(query)
	for name, tpl := range templates {
		links[name] = strings.ReplaceAll(tpl, "{query}", escaped)
	}
	return links
}
