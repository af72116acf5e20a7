package security

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/microcosm-cc/bluemonday"
)

const maxInputLength = 1000

var (
	htmlPolicy    = bluemonday.StrictPolicy()
	usernameRegex = regexp.MustCompile(`^[\p{L}\p{N}_.-]+$`)
)

// SanitizeString trims input, drops null bytes and caps it at
// maxInputLength characters
func SanitizeString(input string) string {
	input = strings.TrimSpace(input)
	input = strings.ReplaceAll(input, "\x00", "")

	if utf8.RuneCountInString(input) > maxInputLength {
		input = string([]rune(input)[:maxInputLength])
	}

	return input
}

// SanitizeHTML removes all HTML tags
func SanitizeHTML(input string) string {
	return htmlPolicy.Sanitize(input)
}

// SanitizeUsername cleans a username and reports whether it survived
// unchanged. Markup, whitespace and punctuation outside "_.-" are rejected.
func SanitizeUsername(input string) (string, bool) {
	cleaned := SanitizeString(input)
	if SanitizeHTML(cleaned) != cleaned {
		return cleaned, false
	}
	return cleaned, usernameRegex.MatchString(cleaned)
}

// NormalizeEmail lowercases and trims an email address
func NormalizeEmail(email string) string {
	return strings.ToLower(SanitizeString(email))
}
