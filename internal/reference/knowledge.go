package reference

import (
	"context"
	"fmt"
	"os"
	"strings"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/ppiankov/factsift/internal/logging"
)

// FactSource looks up a stored fact by exact query
type FactSource interface {
	FactFor(ctx context.Context, query string) (string, bool, error)
}

// KnowledgeRetriever adapts a FactSource to the Retriever contract
type KnowledgeRetriever struct {
	source FactSource
	logger *zap.Logger
}

// NewKnowledgeRetriever wraps source
func NewKnowledgeRetriever(source FactSource, logger *zap.Logger) *KnowledgeRetriever {
	return &KnowledgeRetriever{
		source: source,
		logger: logging.OrNop(logger).Named("reference.knowledge"),
	}
}

// FetchReference returns the stored fact for query
func (k *KnowledgeRetriever) FetchReference(ctx context.Context, query string) (string, bool) {
	fact, ok, err := k.source.FactFor(ctx, query)
	if err != nil {
		k.logger.Warn("knowledge lookup failed", zap.Error(err))
		return "", false
	}
	return fact, ok
}

// YAMLKnowledgeBase is a read-only fact table loaded from a YAML file:
//
//	facts:
//	  - query: "..."
//	    fact: "..."
type YAMLKnowledgeBase struct {
	facts map[string]string
}

type knowledgeFile struct {
	Facts []struct {
		Query string `yaml:"query"`
		Fact  string `yaml:"fact"`
	} `yaml:"facts"`
}

// LoadYAMLKnowledgeBase reads the fact table at path
func LoadYAMLKnowledgeBase(path string) (*YAMLKnowledgeBase, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read knowledge base: %w", err)
	}
	return ParseYAMLKnowledgeBase(data)
}

// ParseYAMLKnowledgeBase parses a fact table. Later entries for the same
// query replace earlier ones.
func ParseYAMLKnowledgeBase(data []byte) (*YAMLKnowledgeBase, error) {
	var file knowledgeFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parse knowledge base: %w", err)
	}

	kb := &YAMLKnowledgeBase{facts: make(map[string]string, len(file.Facts))}
	for i, f := range file.Facts {
		if f.Query == "" {
			return nil, fmt.Errorf("parse knowledge base: entry %d has no query", i)
		}
		kb.facts[f.Query] = strings.TrimSpace(f.Fact)
	}
	return kb, nil
}

// FactFor returns the fact for query
func (kb *YAMLKnowledgeBase) FactFor(_ context.Context, query string) (string, bool, error) {
	fact, ok := kb.facts[query]
	return fact, ok && fact != "", nil
}

// Len returns the number of facts
func (kb *YAMLKnowledgeBase) Len() int {
	return len(kb.facts)
}
