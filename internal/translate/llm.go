package translate

import (
	"context"
	"fmt"
	"strings"

	"github.com/ppiankov/factsift/internal/i18n"
	"github.com/ppiankov/factsift/internal/llm"
)

const llmTranslatePrompt = `You are a translation engine. Translate the user's text into %s.
Reply with the translation only. Do not add quotes, notes, or explanations.
If the text is already in %s, reply with it unchanged.`

// LLMTranslator translates by asking the configured model
type LLMTranslator struct {
	provider llm.Provider
}

// NewLLMTranslator creates a model-backed translator
func NewLLMTranslator(provider llm.Provider) *LLMTranslator {
	return &LLMTranslator{provider: provider}
}

// Name returns the backend name
func (t *LLMTranslator) Name() string {
	return "llm:" + t.provider.Name()
}

// Translate translates text into target
func (t *LLMTranslator) Translate(ctx context.Context, text, target string) (string, error) {
	language := i18n.EnglishName(target)
	req := llm.UserPrompt(fmt.Sprintf(llmTranslatePrompt, language, language), text)
	req.Temperature = 0.01

	resp, err := t.provider.Complete(ctx, req)
	if err != nil {
		return "", err
	}
	out := strings.TrimSpace(resp.Text)
	if out == "" {
		return "", fmt.Errorf("empty translation")
	}
	return out, nil
}
