package i18n

import (
	"fmt"

	"golang.org/x/text/language"
	"golang.org/x/text/language/display"
)

// Canonical validates a language code and returns its canonical BCP 47 form
// ("EN" -> "en", "zh_TW" -> "zh-TW").
func Canonical(code string) (string, error) {
	if code == "" {
		return "", fmt.Errorf("empty language code")
	}
	tag, err := language.Parse(code)
	if err != nil {
		return "", fmt.Errorf("parse language %q: %w", code, err)
	}
	return tag.String(), nil
}

// EnglishName returns the English name of a language code, e.g. "Korean".
// The code itself is returned when it cannot be named.
func EnglishName(code string) string {
	tag, err := language.Parse(code)
	if err != nil {
		return code
	}
	name := display.English.Languages().Name(tag)
	if name == "" {
		return code
	}
	return name
}
