package translate

import (
	"context"
	"encoding/json"
	"fmt"
	"html"
	"io"
	"net/http"
	"net/url"
	"strings"
)

const defaultGoogleBaseURL = "https://translation.googleapis.com"

// GoogleTranslator calls the Cloud Translation v2 REST API
type GoogleTranslator struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
}

type googleResponse struct {
	Data struct {
		Translations []struct {
			TranslatedText         string `json:"translatedText"`
			DetectedSourceLanguage string `json:"detectedSourceLanguage"`
		} `json:"translations"`
	} `json:"data"`
	Error *struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// NewGoogleTranslator creates a translator for the given API key
func NewGoogleTranslator(apiKey, baseURL string, httpClient *http.Client) *GoogleTranslator {
	if baseURL == "" {
		baseURL = defaultGoogleBaseURL
	}
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &GoogleTranslator{
		apiKey:     apiKey,
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		httpClient: httpClient,
	}
}

// Name returns the backend name
func (g *GoogleTranslator) Name() string {
	return "google"
}

// Translate translates text into target, letting the service detect the source
func (g *GoogleTranslator) Translate(ctx context.Context, text, target string) (string, error) {
	form := url.Values{}
	form.Set("q", text)
	form.Set("target", target)
	form.Set("format", "text")
	form.Set("key", g.apiKey)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		g.baseURL+"/language/translate/v2", strings.NewReader(form.Encode()))
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("execute request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", fmt.Errorf("read response: %w", err)
	}

	var parsed googleResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		if resp.StatusCode != http.StatusOK {
			return "", fmt.Errorf("API error (%d): %s", resp.StatusCode, strings.TrimSpace(string(body)))
		}
		return "", fmt.Errorf("unmarshal response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		if parsed.Error != nil {
			return "", fmt.Errorf("API error (%d): %s", resp.StatusCode, parsed.Error.Message)
		}
		return "", fmt.Errorf("API error (%d)", resp.StatusCode)
	}
	if len(parsed.Data.Translations) == 0 {
		return "", fmt.Errorf("no translations in response")
	}

	// format=text should return plain text, but entities still appear for some inputs
	return html.UnescapeString(parsed.Data.Translations[0].TranslatedText), nil
}
