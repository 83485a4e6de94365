package pipeline

import (
	"errors"
	"fmt"

	"github.com/ppiankov/factsift/internal/i18n"
	"github.com/ppiankov/factsift/internal/translate"
)

// InputKind classifies a rejected request
type InputKind int

const (
	EmptyQuery InputKind = iota
	InvalidMode
	InvalidLanguage
)

// InputError rejects a request before any external call is made
type InputError struct {
	Kind   InputKind
	Detail string
}

func (e *InputError) Error() string {
	switch e.Kind {
	case EmptyQuery:
		return "empty query"
	case InvalidMode:
		return fmt.Sprintf("invalid mode: %s", e.Detail)
	case InvalidLanguage:
		return fmt.Sprintf("invalid language: %s", e.Detail)
	}
	return "invalid input"
}

// UserMessage maps a Check error to the localized message shown to clients
func UserMessage(err error, msgs i18n.Catalog) string {
	var inputErr *InputError
	if errors.As(err, &inputErr) {
		switch inputErr.Kind {
		case EmptyQuery:
			return msgs.EmptyQuery
		case InvalidMode:
			return msgs.InvalidMode
		case InvalidLanguage:
			return msgs.InvalidLanguage
		}
		return msgs.BadRequest
	}

	var translationErr *translate.TranslationError
	if errors.As(err, &translationErr) {
		return msgs.TranslationFailed
	}
	return msgs.InternalError
}
