package model

// Response status values
const (
	StatusSuccess = "success"
	StatusError   = "error"
)

// CheckResponse is the sole externally observable artifact of one pipeline run
type CheckResponse struct {
	Status              string            `json:"status"`
	Query               string            `json:"query"`
	VerificationMessage string            `json:"verificationMessage,omitempty"`
	VerdictText         string            `json:"verdictText"`
	FactCheck           FactCheckResult   `json:"factCheckResponse"`
	RelatedFeedback     []FeedbackView    `json:"relatedFeedback"`
	ExternalSearchLinks map[string]string `json:"externalSearchLinks"`
}

// StatusResponse is the envelope for errors and for write endpoints
type StatusResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

// ErrorResponse builds a failure envelope
func ErrorResponse(message string) StatusResponse {
	return StatusResponse{Status: StatusError, Message: message}
}

// SuccessResponse builds a success envelope
func SuccessResponse(message string) StatusResponse {
	return StatusResponse{Status: StatusSuccess, Message: message}
}
