// Package accesscode derives and normalizes the short codes viewers type in to
// reach a group's notice feed.
package accesscode

import (
	"strings"
	"unicode"
)

const (
	MinLength = 2
	MaxLength = 32

	// minLabelChars is how many letters or digits a label needs before a
	// suggestion is worth making.
	minLabelChars = 3
	orgPartLength = 3
	maxGroupPart  = 8
)

// Normalize trims surrounding whitespace and upper-cases the code.
func Normalize(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// Valid reports whether an already normalized code is well formed.
func Valid(code string) bool {
	if len(code) < MinLength || len(code) > MaxLength {
		return false
	}
	for _, r := range code {
		switch {
		case r >= 'A' && r <= 'Z':
		case r >= '0' && r <= '9':
		case r == '-' || r == '_':
		default:
			return false
		}
	}
	return true
}

// Generate suggests a code such as "DAT-C10" for org "Dateup" and group
// "Class 10". It returns "" when either label is too thin to derive from, in
// which case the code has to be typed in by hand. The result is only a
// suggestion; uniqueness is decided when the group is inserted.
func Generate(orgLabel, groupLabel string) string {
	orgChars := alnum(orgLabel)
	groupChars := alnum(groupLabel)
	if len(orgChars) < minLabelChars || len(groupChars) < minLabelChars {
		return ""
	}

	orgPart := string(orgChars[:orgPartLength])

	groupPart := initials(groupLabel)
	if len(groupPart) < 2 {
		groupPart = string(groupChars[:minLabelChars])
	}
	if len(groupPart) > maxGroupPart {
		groupPart = groupPart[:maxGroupPart]
	}

	return orgPart + "-" + groupPart
}

// alnum returns the upper-cased ASCII letters and digits of s.
func alnum(s string) []rune {
	out := make([]rune, 0, len(s))
	for _, r := range s {
		if r > unicode.MaxASCII {
			continue
		}
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			out = append(out, unicode.ToUpper(r))
		}
	}
	return out
}

// initials keeps the first letter of every word and the leading digits of
// words that start with a digit, so "Class 10th" becomes "C10".
func initials(label string) string {
	var b strings.Builder
	for _, word := range strings.FieldsFunc(label, func(r rune) bool {
		return !(r <= unicode.MaxASCII && (unicode.IsLetter(r) || unicode.IsDigit(r)))
	}) {
		first := rune(word[0])
		if unicode.IsDigit(first) {
			for _, r := range word {
				if !unicode.IsDigit(r) {
					break
				}
				b.WriteRune(r)
			}
			continue
		}
		b.WriteRune(unicode.ToUpper(first))
	}
	return b.String()
}
