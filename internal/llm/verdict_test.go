package llm

import (
	"context"
	"errors"
	"strings"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/ppiankov/factsift/internal/i18n"
)

// MockProvider implements the Provider interface for testing
type MockProvider struct {
	name      string
	available bool
	response  *CompletionResponse
	err       error
	lastReq   CompletionRequest
}

func (m *MockProvider) Name() string {
	return m.name
}

func (m *MockProvider) Complete(ctx context.Context, req CompletionRequest) (*CompletionResponse, error) {
	m.lastReq = req
	if m.err != nil {
		return nil, m.err
	}
	return m.response, nil
}

func (m *MockProvider) IsAvailable(ctx context.Context) bool {
	return m.available
}

func TestNewProvider_Disabled(t *testing.T) {
	provider, err := NewProvider(Config{Provider: ""})
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if provider != nil {
		t.Error("Expected nil provider when disabled")
	}
}

func TestNewProvider_Unknown(t *testing.T) {
	if _, err := NewProvider(Config{Provider: "watson"}); err == nil {
		t.Error("Expected error for unknown provider")
	}
}

func TestNewProvider_Known(t *testing.T) {
	tests := []struct {
		name   string
		config Config
		want   string
	}{
		{"openai", Config{Provider: "openai", APIKey: "k"}, "openai"},
		{"claude alias", Config{Provider: "claude", APIKey: "k"}, "anthropic"},
		{"ollama", Config{Provider: "Ollama", Model: "llama3.1"}, "ollama"},
		{"gemini", Config{Provider: "gemini", APIKey: "k"}, "gemini"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			provider, err := NewProvider(tt.config)
			if err != nil {
				t.Fatalf("NewProvider failed: %v", err)
			}
			if provider.Name() != tt.want {
				t.Errorf("Expected %s, got %s", tt.want, provider.Name())
			}
		})
	}
}

func TestVerdictGenerator_Disabled(t *testing.T) {
	gen := NewVerdictGenerator(nil, nil)
	msgs := i18n.For("ko")

	if gen.IsEnabled() || gen.ProviderName() != "" {
		t.Error("Expected disabled generator")
	}

	v := gen.Generate(context.Background(), "policy", "query", msgs)
	if v.Text != msgs.ModelDisabled {
		t.Errorf("Expected disabled placeholder, got %q", v.Text)
	}
	if !errors.Is(v.Err, ErrNoProvider) {
		t.Errorf("Expected ErrNoProvider, got %v", v.Err)
	}
}

func TestVerdictGenerator_Success(t *testing.T) {
	mock := &MockProvider{
		name:     "mock",
		response: &CompletionResponse{Text: "Fake", Model: "m1"},
	}
	gen := NewVerdictGenerator(mock, nil)

	v := gen.Generate(context.Background(), "policy", "pivot query", i18n.For("en"))
	if v.Failed() || v.Text != "Fake" || v.Model != "m1" {
		t.Errorf("Unexpected verdict: %+v", v)
	}

	if mock.lastReq.System != "policy" {
		t.Errorf("Expected prompt as system context, got %q", mock.lastReq.System)
	}
	if len(mock.lastReq.Messages) != 1 || mock.lastReq.Messages[0].Role != RoleUser || mock.lastReq.Messages[0].Content != "pivot query" {
		t.Errorf("Expected query as single user message, got %+v", mock.lastReq.Messages)
	}
}

func TestVerdictGenerator_ProviderError(t *testing.T) {
	core, logs := observer.New(zap.WarnLevel)
	mock := &MockProvider{name: "mock", err: errors.New("connection refused")}
	gen := NewVerdictGenerator(mock, zap.New(core))
	msgs := i18n.For("en")

	v := gen.Generate(context.Background(), "policy", "query", msgs)

	if !v.Failed() {
		t.Fatal("Expected failed verdict")
	}
	if !strings.Contains(v.Text, "connection refused") || !strings.HasPrefix(v.Text, "Language model call failed") {
		t.Errorf("Expected placeholder with cause, got %q", v.Text)
	}
	if logs.FilterMessage("model call failed").Len() != 1 {
		t.Error("Expected the failure to be logged")
	}
}

func TestVerdictGenerator_EmptyResponse(t *testing.T) {
	mock := &MockProvider{name: "mock", response: &CompletionResponse{}}
	gen := NewVerdictGenerator(mock, nil)

	v := gen.Generate(context.Background(), "policy", "query", i18n.For("en"))
	if !v.Failed() || v.Text == "" {
		t.Errorf("Expected placeholder for empty response, got %+v", v)
	}
}
