package sanitizer

import (
	"strings"
	"unicode"
)

// Key turns "Lab Equipment / Optics" into "lab_equipment_optics": letters
// and digits are lowercased and kept, anything else becomes a single
// separator, never leading or trailing.
func Key(input string) string {
	var b strings.Builder
	pending := false
	for _, r := range strings.ToLower(input) {
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) {
			pending = b.Len() > 0
			continue
		}
		if pending {
			b.WriteByte('_')
			pending = false
		}
		b.WriteRune(r)
	}
	return b.String()
}

func NormalizeCategory(category string) string {
	return Key(category)
}

// Unique maps values through normalize, dropping empty results and
// duplicates while keeping first-seen order. The result is never nil.
func Unique(values []string, normalize func(string) string) []string {
	out := make([]string, 0, len(values))
	seen := make(map[string]struct{}, len(values))
	for _, v := range values {
		n := normalize(v)
		if n == "" {
			continue
		}
		if _, dup := seen[n]; dup {
			continue
		}
		seen[n] = struct{}{}
		out = append(out, n)
	}
	return out
}

func NormalizeFacilities(facilities []string) []string {
	return Unique(facilities, Key)
}
