package model

import "time"

// FeedbackRecord is one user rating of a check result. Records are immutable
// once stored and are never deleted.
type FeedbackRecord struct {
	ID        int64     `json:"id,omitempty"`
	Query     string    `json:"query"`
	Rating    int       `json:"rating"`
	Comment   string    `json:"comment"`
	CreatedAt time.Time `json:"timestamp"`
}

// FeedbackView is the client-facing projection of a FeedbackRecord
type FeedbackView struct {
	Query   string `json:"query"`
	Rating  int    `json:"rating"`
	Comment string `json:"comment"`
}

// View projects the record for API responses
func (r FeedbackRecord) View() FeedbackView {
	return FeedbackView{
		Query:   r.Query,
		Rating:  r.Rating,
		Comment: r.Comment,
	}
}
