package pipeline

import (
	"context"
	"errors"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/ppiankov/factsift/internal/i18n"
	"github.com/ppiankov/factsift/internal/llm"
	"github.com/ppiankov/factsift/internal/model"
	"github.com/ppiankov/factsift/internal/prompt"
	"github.com/ppiankov/factsift/internal/translate"
)

func TestMain(m *testing.M) {
	// go.opencensus.io, pulled in by the Gemini client, starts a stats worker in init
	goleak.VerifyTestMain(m, goleak.IgnoreTopFunction("go.opencensus.io/stats/view.(*worker).start"))
}

// fakeTranslator prefixes the target language. It blocks until the context
// ends when block is set.
type fakeTranslator struct {
	normalizeErr error
	localizeErr  error
	block        bool
	calls        atomic.Int32
}

func (f *fakeTranslator) Name() string { return "fake" }

func (f *fakeTranslator) Translate(ctx context.Context, text, target string) (string, error) {
	f.calls.Add(1)
	if f.block {
		<-ctx.Done()
		return "", ctx.Err()
	}
	if target == "en" {
		if f.normalizeErr != nil {
			return "", f.normalizeErr
		}
		return "EN:" + text, nil
	}
	if f.localizeErr != nil {
		return "", f.localizeErr
	}
	return strings.ToUpper(target) + ":" + text, nil
}

type fakeFactChecker struct {
	result model.FactCheckResult
	fail   error
	query  string
	calls  atomic.Int32
}

func (f *fakeFactChecker) Search(_ context.Context, query string, msgs i18n.Catalog) model.FactCheckResult {
	f.calls.Add(1)
	f.query = query
	if f.fail != nil {
		return model.NoFactCheckResult(msgs.FactCheckError(f.fail))
	}
	if !f.result.Found {
		return model.NoFactCheckResult(msgs.FactCheckNoMatch)
	}
	return f.result
}

type fakeFeedback struct {
	records []model.FeedbackRecord
	err     error
	query   string
	calls   atomic.Int32
}

func (f *fakeFeedback) FeedbackFor(_ context.Context, query string, limit int) ([]model.FeedbackRecord, error) {
	f.calls.Add(1)
	f.query = query
	if f.err != nil {
		return nil, f.err
	}
	if limit > 0 && len(f.records) > limit {
		return f.records[:limit], nil
	}
	return f.records, nil
}

type fakeRetriever struct {
	text string
}

func (f fakeRetriever) FetchReference(context.Context, string) (string, bool) {
	return f.text, f.text != ""
}

type fakeVerdict struct {
	mu     sync.Mutex
	prompt string
	query  string
	text   string
	calls  atomic.Int32
}

func (f *fakeVerdict) Generate(_ context.Context, system, query string, _ i18n.Catalog) llm.Verdict {
	f.calls.Add(1)
	f.mu.Lock()
	defer f.mu.Unlock()
	f.prompt = system
	f.query = query
	text := f.text
	if text == "" {
		text = "Uncertain: not enough evidence."
	}
	return llm.Verdict{Text: text, Model: "fake-model"}
}

type fixture struct {
	translator *fakeTranslator
	factcheck  *fakeFactChecker
	feedback   *fakeFeedback
	verdict    *fakeVerdict
	reference  fakeRetriever
	knowledge  fakeRetriever
	timeout    time.Duration
}

func newFixture() *fixture {
	return &fixture{
		translator: &fakeTranslator{},
		factcheck:  &fakeFactChecker{},
		feedback:   &fakeFeedback{},
		verdict:    &fakeVerdict{},
	}
}

func (f *fixture) pipeline(logger *zap.Logger) *Pipeline {
	adapter := translate.NewAdapter(f.translator, "en", f.timeout, logger)
	return New(Deps{
		Translator: adapter,
		FactCheck:  f.factcheck,
		Feedback:   f.feedback,
		Reference:  f.reference,
		Knowledge:  f.knowledge,
		Verdict:    f.verdict,
		Policies:   prompt.DefaultRegistry("news"),
	}, Options{
		DisplayLanguage: "ko",
		FeedbackLimit:   10,
		SearchLinks: map[string]string{
			"naver":  "https://search.naver.com/search.naver?query={query}&where=news",
			"google": "https://www.google.com/search?q={query}&tbm=nws",
		},
	}, logger)
}

func TestCheckEmptyQueryMakesNoCalls(t *testing.T) {
	for _, query := range []string{"", "   ", "\n\t"} {
		f := newFixture()
		resp, err := f.pipeline(nil).CheckQuery(context.Background(), query)

		require.Error(t, err)
		assert.Nil(t, resp)

		var inputErr *InputError
		require.True(t, errors.As(err, &inputErr))
		assert.Equal(t, EmptyQuery, inputErr.Kind)

		assert.Zero(t, f.translator.calls.Load())
		assert.Zero(t, f.factcheck.calls.Load())
		assert.Zero(t, f.feedback.calls.Load())
		assert.Zero(t, f.verdict.calls.Load())
	}
}

func TestCheckInvalidModeAndLanguage(t *testing.T) {
	f := newFixture()
	p := f.pipeline(nil)

	_, err := p.Check(context.Background(), CheckRequest{Query: "claim", Mode: "astrology"})
	var inputErr *InputError
	require.True(t, errors.As(err, &inputErr))
	assert.Equal(t, InvalidMode, inputErr.Kind)

	_, err = p.Check(context.Background(), CheckRequest{Query: "claim", Language: "!!"})
	require.True(t, errors.As(err, &inputErr))
	assert.Equal(t, InvalidLanguage, inputErr.Kind)

	assert.Zero(t, f.translator.calls.Load())
}

func TestCheckNormalizationTimeout(t *testing.T) {
	f := newFixture()
	f.translator.block = true
	f.timeout = 20 * time.Millisecond

	resp, err := f.pipeline(nil).CheckQuery(context.Background(), "백신이 부작용을 일으킨다")
	require.Error(t, err)
	assert.Nil(t, resp)

	var translationErr *translate.TranslationError
	require.True(t, errors.As(err, &translationErr))
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	assert.Zero(t, f.feedback.calls.Load())
	assert.Zero(t, f.verdict.calls.Load())
	assert.Zero(t, f.factcheck.calls.Load())

	assert.Equal(t, "번역 중 오류가 발생했습니다.", UserMessage(err, i18n.For("ko")))
}

func TestCheckNoClaims(t *testing.T) {
	f := newFixture()

	resp, err := f.pipeline(nil).CheckQuery(context.Background(), "백신이 부작용을 일으킨다")
	require.NoError(t, err)

	assert.Equal(t, model.StatusSuccess, resp.Status)
	assert.Equal(t, "백신이 부작용을 일으킨다", resp.Query)
	assert.NotEmpty(t, resp.VerdictText)
	assert.Equal(t, "검증 결과는 아래와 같습니다.", resp.VerificationMessage)

	want := model.NoFactCheckResult(i18n.For("ko").FactCheckNoMatch)
	if diff := cmp.Diff(want, resp.FactCheck); diff != "" {
		t.Errorf("fact check mismatch (-want +got):\n%s", diff)
	}
	assert.Empty(t, resp.FactCheck.Rating)
	assert.Empty(t, resp.FactCheck.SourceURL)
	assert.Empty(t, resp.FactCheck.ImageURL)

	// Search and model use the pivot query; feedback uses the raw query
	assert.Equal(t, "EN:백신이 부작용을 일으킨다", f.factcheck.query)
	assert.Equal(t, "EN:백신이 부작용을 일으킨다", f.verdict.query)
	assert.Equal(t, "백신이 부작용을 일으킨다", f.feedback.query)
}

func TestCheckFactCheckFailure(t *testing.T) {
	f := newFixture()
	f.factcheck.fail = errors.New("503 Service Unavailable")

	resp, err := f.pipeline(nil).CheckQuery(context.Background(), "claim")
	require.NoError(t, err)

	assert.False(t, resp.FactCheck.Found)
	assert.Contains(t, resp.FactCheck.ClaimText, "503 Service Unavailable")
	assert.NotEmpty(t, resp.VerdictText)
}

func TestCheckLocalizesFoundResult(t *testing.T) {
	f := newFixture()
	f.factcheck.result = model.FactCheckResult{
		Found:     true,
		ClaimText: "Vaccines cause autism",
		Rating:    "False",
		SourceURL: "https://example.org/review",
		ImageURL:  "https://example.org/logo.png",
	}

	resp, err := f.pipeline(nil).CheckQuery(context.Background(), "claim")
	require.NoError(t, err)

	want := model.FactCheckResult{
		Found:     true,
		ClaimText: "KO:Vaccines cause autism",
		Rating:    "KO:False",
		SourceURL: "https://example.org/review",
		ImageURL:  "https://example.org/logo.png",
	}
	if diff := cmp.Diff(want, resp.FactCheck); diff != "" {
		t.Errorf("fact check mismatch (-want +got):\n%s", diff)
	}
}

func TestCheckLocalizationFailureKeepsOriginal(t *testing.T) {
	core, logs := observer.New(zap.WarnLevel)

	f := newFixture()
	f.translator.localizeErr = errors.New("quota exceeded")
	f.factcheck.result = model.FactCheckResult{
		Found:     true,
		ClaimText: "Vaccines cause autism",
		Rating:    "False",
	}

	resp, err := f.pipeline(zap.New(core)).CheckQuery(context.Background(), "claim")
	require.NoError(t, err)

	assert.Equal(t, "Vaccines cause autism", resp.FactCheck.ClaimText)
	assert.Equal(t, "False", resp.FactCheck.Rating)
	assert.NotZero(t, logs.FilterMessage("localization failed, keeping original text").Len())
}

func TestCheckSkipsLocalizationForPivotLanguage(t *testing.T) {
	f := newFixture()
	f.factcheck.result = model.FactCheckResult{Found: true, ClaimText: "Claim", Rating: "False"}

	resp, err := f.pipeline(nil).Check(context.Background(), CheckRequest{Query: "claim", Language: "en"})
	require.NoError(t, err)

	assert.Equal(t, "Claim", resp.FactCheck.ClaimText)
	assert.Equal(t, "The verification results are shown below.", resp.VerificationMessage)
	// Only the normalization call
	assert.Equal(t, int32(1), f.translator.calls.Load())
}

func TestCheckFeedbackInPromptAndResponse(t *testing.T) {
	f := newFixture()
	now := time.Now()
	f.feedback.records = []model.FeedbackRecord{
		{ID: 3, Query: "claim", Rating: 2, Comment: "C", CreatedAt: now},
		{ID: 2, Query: "claim", Rating: 4, Comment: "B", CreatedAt: now},
		{ID: 1, Query: "claim", Rating: 5, Comment: "A", CreatedAt: now},
	}
	f.reference = fakeRetriever{text: "Encyclopedia text."}
	f.knowledge = fakeRetriever{text: "Curated fact."}

	resp, err := f.pipeline(nil).CheckQuery(context.Background(), "claim")
	require.NoError(t, err)

	want := []model.FeedbackView{
		{Query: "claim", Rating: 2, Comment: "C"},
		{Query: "claim", Rating: 4, Comment: "B"},
		{Query: "claim", Rating: 5, Comment: "A"},
	}
	if diff := cmp.Diff(want, resp.RelatedFeedback); diff != "" {
		t.Errorf("feedback mismatch (-want +got):\n%s", diff)
	}

	assert.Contains(t, f.verdict.prompt, "Past User Feedback:")
	assert.Contains(t, f.verdict.prompt, "Query: claim, Rating: 2, Comment: C")
	assert.Contains(t, f.verdict.prompt, "Encyclopedia text.")
	assert.Contains(t, f.verdict.prompt, "Curated fact.")
	assert.Contains(t, f.verdict.prompt, "Korean")
}

func TestCheckFeedbackReadFailureDegrades(t *testing.T) {
	core, logs := observer.New(zap.WarnLevel)

	f := newFixture()
	f.feedback.err = errors.New("disk full")

	resp, err := f.pipeline(zap.New(core)).CheckQuery(context.Background(), "claim")
	require.NoError(t, err)

	assert.Empty(t, resp.RelatedFeedback)
	assert.NotNil(t, resp.RelatedFeedback)
	assert.NotContains(t, f.verdict.prompt, "Past User Feedback:")
	assert.Equal(t, 1, logs.FilterMessage("feedback read failed, continuing without feedback").Len())
}

func TestCheckSearchLinks(t *testing.T) {
	f := newFixture()

	resp, err := f.pipeline(nil).CheckQuery(context.Background(), "백신 부작용")
	require.NoError(t, err)

	want := map[string]string{
		"naver":  "https://search.naver.com/search.naver?query=%EB%B0%B1%EC%8B%A0%20%EB%B6%80%EC%9E%91%EC%9A%A9&where=news",
		"google": "https://www.google.com/search?q=%EB%B0%B1%EC%8B%A0%20%EB%B6%80%EC%9E%91%EC%9A%A9&tbm=nws",
	}
	if diff := cmp.Diff(want, resp.ExternalSearchLinks); diff != "" {
		t.Errorf("links mismatch (-want +got):\n%s", diff)
	}
}

func TestCheckCancelledContext(t *testing.T) {
	f := newFixture()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := f.pipeline(nil).CheckQuery(ctx, "claim")
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestUserMessage(t *testing.T) {
	en := i18n.For("en")

	assert.Equal(t, en.EmptyQuery, UserMessage(&InputError{Kind: EmptyQuery}, en))
	assert.Equal(t, en.InvalidMode, UserMessage(&InputError{Kind: InvalidMode}, en))
	assert.Equal(t, en.InvalidLanguage, UserMessage(&InputError{Kind: InvalidLanguage}, en))
	assert.Equal(t, en.TranslationFailed, UserMessage(&translate.TranslationError{Err: errors.New("x")}, en))
	assert.Equal(t, en.InternalError, UserMessage(errors.New("boom"), en))
}
