package sanitizer

import (
	"strings"
	"unicode"
)

// CollapseSpace trims s and folds every whitespace run into one space.
func CollapseSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func NormalizeName(name string) string {
	return CollapseSpace(name)
}

// NormalizePurpose also drops control characters, which some clients send
// when pasting from documents.
func NormalizePurpose(purpose string) string {
	cleaned := strings.Map(func(r rune) rune {
		if unicode.IsControl(r) && !unicode.IsSpace(r) {
			return -1
		}
		return r
	}, purpose)
	return CollapseSpace(cleaned)
}
