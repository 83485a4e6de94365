// Package i18n holds the user-facing messages returned by the API, keyed by
// display language.
package i18n

import (
	"fmt"

	"golang.org/x/text/language"
)

// Catalog is the set of user-facing messages for one display language
type Catalog struct {
	Tag language.Tag

	EmptyQuery        string
	InvalidMode       string
	InvalidLanguage   string
	TranslationFailed string
	Verification      string

	FactCheckNoMatch   string
	FactCheckFailed    string // format: error text
	FactCheckNoContent string
	FactCheckNoRating  string
	FactCheckNoURL     string

	ModelFailed   string // format: error text
	ModelDisabled string

	FeedbackSaved   string
	FeedbackFailed  string
	FeedbackInvalid string // format: validation detail
	BadRequest      string
	RateLimited     string
	InternalError   string
}

var korean = Catalog{
	Tag:                language.Korean,
	EmptyQuery:         "검색어가 입력되지 않았습니다.",
	InvalidMode:        "지원하지 않는 검증 모드입니다.",
	InvalidLanguage:    "지원하지 않는 언어 코드입니다.",
	TranslationFailed:  "번역 중 오류가 발생했습니다.",
	Verification:       "검증 결과는 아래와 같습니다.",
	FactCheckNoMatch:   "FactCheck API에서 관련된 검증 결과를 찾을 수 없습니다.",
	FactCheckFailed:    "FactCheck API 호출 에러: %s",
	FactCheckNoContent: "내용 없음",
	FactCheckNoRating:  "평가 없음",
	FactCheckNoURL:     "URL 없음",
	ModelFailed:        "언어 모델 호출 에러: %s",
	ModelDisabled:      "언어 모델이 설정되지 않아 분석 결과를 제공할 수 없습니다.",
	FeedbackSaved:      "피드백이 저장되었습니다.",
	FeedbackFailed:     "피드백 저장 중 오류가 발생했습니다.",
	FeedbackInvalid:    "피드백 형식이 올바르지 않습니다: %s",
	BadRequest:         "요청 형식이 올바르지 않습니다.",
	RateLimited:        "요청이 너무 많습니다. 잠시 후 다시 시도해 주세요.",
	InternalError:      "서버 내부 오류가 발생했습니다.",
}

var english = Catalog{
	Tag:                language.English,
	EmptyQuery:         "No query was provided.",
	InvalidMode:        "Unsupported verification mode.",
	InvalidLanguage:    "Unsupported language code.",
	TranslationFailed:  "An error occurred during translation.",
	Verification:       "The verification results are shown below.",
	FactCheckNoMatch:   "No related fact-check result was found.",
	FactCheckFailed:    "Fact-check call failed: %s",
	FactCheckNoContent: "No content",
	FactCheckNoRating:  "No rating",
	FactCheckNoURL:     "No URL",
	ModelFailed:        "Language model call failed: %s",
	ModelDisabled:      "No language model is configured, so no analysis is available.",
	FeedbackSaved:      "Your feedback has been saved.",
	FeedbackFailed:     "An error occurred while saving feedback.",
	FeedbackInvalid:    "Invalid feedback: %s",
	BadRequest:         "Malformed request.",
	RateLimited:        "Too many requests. Please try again shortly.",
	InternalError:      "Internal server error.",
}

var (
	catalogs = []Catalog{korean, english}
	matcher  = language.NewMatcher([]language.Tag{language.Korean, language.English})
)

// For returns the catalog best matching the given language code. Unknown or
// malformed codes fall back to Korean, the service's primary audience.
func For(code string) Catalog {
	tag, err := language.Parse(code)
	if err != nil {
		return korean
	}
	_, idx, conf := matcher.Match(tag)
	if conf == language.No {
		return korean
	}
	return catalogs[idx]
}

// FactCheckError formats the fact-check failure text
func (c Catalog) FactCheckError(err error) string {
	return fmt.Sprintf(c.FactCheckFailed, err)
}

// ModelError formats the model failure placeholder
func (c Catalog) ModelError(err error) string {
	return fmt.Sprintf(c.ModelFailed, err)
}

// InvalidFeedback formats the feedback validation message
func (c Catalog) InvalidFeedback(detail string) string {
	return fmt.Sprintf(c.FeedbackInvalid, detail)
}
