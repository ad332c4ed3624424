package auth

import (
	"regexp"
	"strings"
	"unicode"
)

var emailPattern = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)

// Validator checks request input against the institutional email policy.
type Validator struct {
	// Domain is the exact registered domain, e.g. "keio.jp". No subdomain
	// or suffix matching is performed against it.
	Domain string
}

// ValidEmail reports whether s is a well-formed email address whose domain
// segment equals the institutional domain. Comparison is case-insensitive:
// the input is trimmed and lower-cased before matching.
func (v Validator) ValidEmail(s string) bool {
	email := strings.ToLower(strings.TrimSpace(s))
	if email == "" {
		return false
	}
	if !emailPattern.MatchString(email) {
		return false
	}
	at := strings.LastIndex(email, "@")
	return email[at+1:] == strings.ToLower(v.Domain)
}

// NormalizeEmail is the canonical form stored and compared everywhere.
func NormalizeEmail(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// HasControlCharacter reports whether any rune in s has Unicode general
// category Cc. Every free-text request field must be rejected when true.
func HasControlCharacter(s string) bool {
	for _, r := range s {
		if unicode.Is(unicode.Cc, r) {
			return true
		}
	}
	return false
}
