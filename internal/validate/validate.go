// Package validate holds the input checks applied to customer-supplied
// checkout fields. Every predicate is total: it never panics and never
// returns an error.
package validate

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

// MaxInputLength bounds sanitized free text.
const MaxInputLength = 1000

const maxEmailLength = 254

var (
	emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
	phonePattern = regexp.MustCompile(`^\+?[\d\s\-()]{10,20}$`)
	unitPattern  = regexp.MustCompile(`^[A-Za-z0-9\-\s]{1,20}$`)
	namePattern  = regexp.MustCompile(`^[A-Za-z\s\-.]{1,100}$`)

	angleBrackets = regexp.MustCompile(`[<>]`)
	scriptScheme  = regexp.MustCompile(`(?i)javascript:`)
	eventHandler  = regexp.MustCompile(`(?i)on\w+=`)
)

// IsValidEmail accepts the empty string since email is optional.
func IsValidEmail(email string) bool {
	if email == "" {
		return true
	}
	return len(email) <= maxEmailLength && emailPattern.MatchString(email)
}

// IsValidPhone accepts the empty string since phone is optional.
func IsValidPhone(phone string) bool {
	if phone == "" {
		return true
	}
	return phonePattern.MatchString(phone)
}

func IsValidUnitNumber(unit string) bool {
	return unit != "" && unitPattern.MatchString(unit)
}

func IsValidName(name string) bool {
	return name != "" && namePattern.MatchString(name)
}

// SanitizeInput strips markup-like characters, script scheme prefixes and
// inline handler patterns, then truncates to MaxInputLength runes. It is a
// heuristic, not an HTML sanitizer.
func SanitizeInput(input string) string {
	if input == "" {
		return ""
	}
	out := strings.TrimSpace(input)
	out = angleBrackets.ReplaceAllString(out, "")
	out = scriptScheme.ReplaceAllString(out, "")
	out = eventHandler.ReplaceAllString(out, "")
	if utf8.RuneCountInString(out) > MaxInputLength {
		out = string([]rune(out)[:MaxInputLength])
	}
	return out
}
