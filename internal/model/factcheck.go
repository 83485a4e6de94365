package model

// FactCheckResult is the best-matching published claim review for a query,
// or an explicit "no result" variant. It is recomputed per request and never
// persisted.
type FactCheckResult struct {
	Found     bool   `json:"-"`
	ClaimText string `json:"text"`
	Rating    string `json:"rating"`
	SourceURL string `json:"url"`
	ImageURL  string `json:"image_url"`

	// Reason explains a "no result" variant (no match or provider failure)
	Reason string `json:"-"`
}

// NoFactCheckResult builds the "no result" variant. The reason doubles as the
// displayed text so clients always receive a non-empty explanation.
func NoFactCheckResult(reason string) FactCheckResult {
	return FactCheckResult{
		Found:     false,
		ClaimText: reason,
		Reason:    reason,
	}
}
