package domain

import (
	"strings"
	"unicode/utf8"

	dErrors "charitydrive/pkg/domain-errors"
)

// MaxItemNameLength bounds catalog and registry keys.
const MaxItemNameLength = 128

// ParseItemName validates an item name taken from external input.
// Names are case-sensitive keys; surrounding whitespace is trimmed.
//
// Errors: CodeInvalidInput when the name is empty, too long or not UTF-8.
func ParseItemName(s string) (string, error) {
	name := strings.TrimSpace(s)
	if name == "" {
		return "", dErrors.New(dErrors.CodeInvalidInput, "item name is required")
	}
	if !utf8.ValidString(name) {
		return "", dErrors.New(dErrors.CodeInvalidInput, "item name must be valid UTF-8")
	}
	if utf8.RuneCountInString(name) > MaxItemNameLength {
		return "", dErrors.New(dErrors.CodeInvalidInput, "item name is too long")
	}
	return name, nil
}
