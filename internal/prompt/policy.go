// Package prompt builds the system prompt sent to the verdict model from a
// policy and the per-request context.
package prompt

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// SourcePriority decides how a stored knowledge-base fact is framed
type SourcePriority string

const (
	// PriorityDatabase puts the stored fact first and makes it authoritative
	PriorityDatabase SourcePriority = "database"

	// PriorityBalanced treats the stored fact as supporting context placed
	// after user feedback
	PriorityBalanced SourcePriority = "balanced"
)

// Section is one optional block of context appended after the instructions
type Section string

const (
	SectionDatabaseFact Section = "database_fact"
	SectionFeedback     Section = "feedback"
	SectionReference    Section = "reference"
)

// Policy is a named instruction set with its context ordering
type Policy struct {
	Name         string
	Instructions string
	Priority     SourcePriority

	// Order lists context sections in output order. Empty means the order
	// implied by Priority.
	Order []Section
}

// Sections returns the effective section order
func (p Policy) Sections() []Section {
	if len(p.Order) > 0 {
		return p.Order
	}
	if p.Priority == PriorityBalanced {
		return []Section{SectionFeedback, SectionDatabaseFact, SectionReference}
	}
	return []Section{SectionDatabaseFact, SectionFeedback, SectionReference}
}

// WithPriority returns a copy of p using priority and its default order
func (p Policy) WithPriority(priority SourcePriority) Policy {
	p.Priority = priority
	p.Order = nil
	return p
}

// ParsePriority validates a priority name
func ParsePriority(s string) (SourcePriority, error) {
	switch SourcePriority(strings.ToLower(strings.TrimSpace(s))) {
	case PriorityDatabase:
		return PriorityDatabase, nil
	case PriorityBalanced:
		return PriorityBalanced, nil
	default:
		return "", fmt.Errorf("unknown source priority %q (supported: database, balanced)", s)
	}
}

// ErrUnknownMode is returned by Lookup for an unregistered mode
var ErrUnknownMode = errors.New("unknown verification mode")

// Registry resolves per-request modes to policies
type Registry struct {
	policies map[string]Policy
	fallback string
}

// NewRegistry creates a registry whose empty mode resolves to fallback
func NewRegistry(fallback string, policies ...Policy) *Registry {
	r := &Registry{policies: make(map[string]Policy, len(policies)), fallback: fallback}
	for _, p := range policies {
		r.policies[p.Name] = p
	}
	return r
}

// DefaultRegistry holds the built-in news and general policies
func DefaultRegistry(fallback string) *Registry {
	if fallback == "" {
		fallback = NewsPolicy.Name
	}
	return NewRegistry(fallback, NewsPolicy, GeneralPolicy)
}

// Lookup returns the policy for mode; "" selects the default mode
func (r *Registry) Lookup(mode string) (Policy, error) {
	name := strings.ToLower(strings.TrimSpace(mode))
	if name == "" {
		name = r.fallback
	}
	p, ok := r.policies[name]
	if !ok {
		return Policy{}, fmt.Errorf("%w: %q", ErrUnknownMode, mode)
	}
	return p, nil
}

// WithPriority returns a registry whose policies all use priority
func (r *Registry) WithPriority(priority SourcePriority) *Registry {
	out := &Registry{policies: make(map[string]Policy, len(r.policies)), fallback: r.fallback}
	for name, p := range r.policies {
		out.policies[name] = p.WithPriority(priority)
	}
	return out
}

// Modes lists the registered mode names, sorted
func (r *Registry) Modes() []string {
	names := make([]string, 0, len(r.policies))
	for name := range r.policies {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// NewsPolicy classifies a news snippet as Real, Fake or Uncertain
var NewsPolicy = Policy{
	Name:     "news",
	Priority: PriorityDatabase,
	Instructions: `You are an expert in detecting fake news, disinformation, and manipulated content. Analyze the following news article and determine whether it is 'Real', 'Fake', or 'Uncertain'. In making your determination, follow these steps:

1. **Factual Accuracy**: Verify whether the claims made in the article are consistent with verifiable, factual information. Cross-check the details with trusted, established sources. If the article makes claims that contradict well-established facts, mark it as 'Fake'.

2. **Credibility of Sources**: Assess whether the article's claims are supported by reliable and verifiable sources. If the sources are unverified, questionable, or lacking citations, consider marking the article as 'Fake'.

3. **Conflicting or Inconsistent Information**: Check whether the article contains any contradictions or discrepancies with widely accepted knowledge, including the findings of reputable fact-checking organizations. If conflicting facts are found, classify the article as 'Fake'.

4. **Ambiguity or Vague Language**: Evaluate whether the article uses vague, unclear, or imprecise language that can lead to misinterpretation. Articles that fail to explain key points should be flagged as 'Fake' if they are not backed by clear evidence.

5. **Supporting Evidence**: Does the article provide adequate evidence to support its claims? If it presents significant claims without proper data, studies, or expert opinions, it may be marked as 'Fake'.

6. **Manipulated or Misleading Visuals**: If the article describes images, videos, or graphics, consider whether they may have been altered or artificially generated.

7. **Context Omission or Misrepresentation**: Check whether the article omits essential context or presents facts in a misleading way. If context is manipulated, classify the article as 'Fake'.

**Failsafe**: If the article cannot be definitively classified as 'Real' or 'Fake' based on the above criteria, respond with 'Uncertain' and give the specific reasons for the uncertainty (e.g., lack of reliable sources, possible manipulated visuals).`,
}

// GeneralPolicy answers a general factual question
var GeneralPolicy = Policy{
	Name:     "general",
	Priority: PriorityBalanced,
	Instructions: `You are a careful research assistant. Answer the user's question accurately and concisely.

1. Base your answer on well-established, verifiable knowledge.
2. Distinguish clearly between established facts, expert consensus, and open questions.
3. If the question rests on a false premise, say so and explain why.
4. If you are not confident in an answer, say that you are uncertain rather than guessing.`,
}
