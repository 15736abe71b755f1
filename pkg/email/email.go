package email

import (
	"regexp"
	"strings"
	"unicode"

	dErrors "bullishbrief/pkg/domain-errors"
)

// pattern is deliberately lenient: local@domain.tld with non-empty parts and
// no whitespace. Deliverability is the mailing-list provider's problem.
var pattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// Validate checks an address for submission. The messages are part of the
// public API contract and surfaced verbatim to the end user.
func Validate(address string) error {
	if address == "" {
		return dErrors.New(dErrors.CodeValidation, "Email is required")
	}
	if !pattern.MatchString(address) {
		return dErrors.New(dErrors.CodeValidation, "Invalid email format")
	}
	return nil
}

// DeriveNameFromEmail guesses a first and last name from the local part of an
// address, for providers whose signup forms want FNAME/LNAME fields.
func DeriveNameFromEmail(address string) (string, string) {
	localPart := address
	if at := strings.IndexByte(address, '@'); at > 0 {
		localPart = address[:at]
	}

	parts := strings.FieldsFunc(localPart, func(r rune) bool {
		return r == '.' || r == '_' || r == '-' || r == '+'
	})

	if len(parts) == 0 {
		return "User", "User"
	}

	first := capitalize(parts[0])
	last := "User"
	if len(parts) > 1 {
		last = capitalize(parts[len(parts)-1])
	}

	return first, last
}

func capitalize(s string) string {
	if s == "" {
		return s
	}

	runes := []rune(s)
	runes[0] = unicode.ToUpper(runes[0])
	return string(runes)
}
