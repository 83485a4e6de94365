package prompt

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ppiankov/factsift/internal/model"
)

var sampleFeedback = []model.FeedbackRecord{
	{Query: "X", Rating: 4, Comment: "newest"},
	{Query: "X", Rating: 1, Comment: "oldest"},
}

func index(t *testing.T, s, sub string) int {
	t.Helper()
	i := strings.Index(s, sub)
	require.GreaterOrEqual(t, i, 0, "missing %q", sub)
	return i
}

func TestCompose_PolicyOnly(t *testing.T) {
	out := Compose(Input{Policy: NewsPolicy})
	assert.Equal(t, strings.TrimSpace(NewsPolicy.Instructions), out)
}

func TestCompose_InstructionsAlwaysFirst(t *testing.T) {
	for _, p := range []Policy{NewsPolicy, GeneralPolicy} {
		out := Compose(Input{
			Policy:        p,
			Language:      "ko",
			Feedback:      sampleFeedback,
			ReferenceText: "ref",
			DatabaseFact:  "fact",
		})
		assert.True(t, strings.HasPrefix(out, strings.TrimSpace(p.Instructions)), p.Name)
	}
}

func TestCompose_DatabasePriorityOrder(t *testing.T) {
	out := Compose(Input{
		Policy:        NewsPolicy,
		Feedback:      sampleFeedback,
		ReferenceText: "crawled excerpt",
		DatabaseFact:  "stored fact",
	})

	fact := index(t, out, "stored fact")
	feedback := index(t, out, "Past User Feedback:")
	ref := index(t, out, "crawled excerpt")
	assert.Less(t, fact, feedback)
	assert.Less(t, feedback, ref)

	assert.Contains(t, out, "authoritative")
	assert.NotContains(t, strings.ToLower(out), "database")
}

func TestCompose_BalancedOrder(t *testing.T) {
	out := Compose(Input{
		Policy:        NewsPolicy.WithPriority(PriorityBalanced),
		Feedback:      sampleFeedback,
		ReferenceText: "crawled excerpt",
		DatabaseFact:  "stored fact",
	})

	feedback := index(t, out, "Past User Feedback:")
	fact := index(t, out, "stored fact")
	ref := index(t, out, "crawled excerpt")
	assert.Less(t, feedback, fact)
	assert.Less(t, fact, ref)
	assert.NotContains(t, out, "authoritative")
}

func TestCompose_FeedbackLines(t *testing.T) {
	out := Compose(Input{Policy: NewsPolicy, Feedback: sampleFeedback})

	assert.Contains(t, out, "Past User Feedback:\nQuery: X, Rating: 4, Comment: newest\nQuery: X, Rating: 1, Comment: oldest")
}

func TestCompose_OmitsEmptySections(t *testing.T) {
	out := Compose(Input{Policy: NewsPolicy, ReferenceText: "   ", DatabaseFact: ""})

	assert.NotContains(t, out, "Past User Feedback")
	assert.NotContains(t, out, "Supplementary Source")
	assert.NotContains(t, out, "Verified Reference Information")
}

func TestCompose_LanguageDirective(t *testing.T) {
	assert.Contains(t, Compose(Input{Policy: NewsPolicy, Language: "ko"}), "in Korean")
	assert.Contains(t, Compose(Input{Policy: NewsPolicy, Language: "ja"}), "in Japanese")
}

func TestCompose_Deterministic(t *testing.T) {
	in := Input{Policy: GeneralPolicy, Language: "en", Feedback: sampleFeedback, ReferenceText: "r", DatabaseFact: "f"}
	assert.Equal(t, Compose(in), Compose(in))
}

func TestCompose_CustomOrder(t *testing.T) {
	p := NewsPolicy
	p.Order = []Section{SectionReference, SectionFeedback}

	out := Compose(Input{Policy: p, Feedback: sampleFeedback, ReferenceText: "crawled", DatabaseFact: "dropped"})

	assert.Less(t, index(t, out, "crawled"), index(t, out, "Past User Feedback:"))
	assert.NotContains(t, out, "dropped")
}

func TestRegistry_Lookup(t *testing.T) {
	r := DefaultRegistry("news")

	p, err := r.Lookup("")
	require.NoError(t, err)
	assert.Equal(t, "news", p.Name)

	p, err = r.Lookup(" General ")
	require.NoError(t, err)
	assert.Equal(t, "general", p.Name)

	_, err = r.Lookup("satire")
	assert.True(t, errors.Is(err, ErrUnknownMode))

	assert.Equal(t, []string{"general", "news"}, r.Modes())
}

func TestParsePriority(t *testing.T) {
	p, err := ParsePriority("Balanced")
	require.NoError(t, err)
	assert.Equal(t, PriorityBalanced, p)

	_, err = ParsePriority("random")
	assert.Error(t, err)
}

func TestRegistry_WithPriority(t *testing.T) {
	r := DefaultRegistry("news").WithPriority(PriorityBalanced)

	p, err := r.Lookup("news")
	require.NoError(t, err)
	assert.Equal(t, PriorityBalanced, p.Priority)
	assert.Equal(t, PriorityDatabase, NewsPolicy.Priority, "built-in policy must not change")
}
