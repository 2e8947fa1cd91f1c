package signup

import (
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"
)

// PasswordPolicy is the strength predicate applied before any remote call.
type PasswordPolicy struct {
	MinLength     int
	RequireUpper  bool
	RequireLower  bool
	RequireDigit  bool
	RequireSymbol bool
}

// DefaultPasswordPolicy requires 8 characters mixing upper, lower, digit and symbol.
func DefaultPasswordPolicy() PasswordPolicy {
	return PasswordPolicy{
		MinLength:     8,
		RequireUpper:  true,
		RequireLower:  true,
		RequireDigit:  true,
		RequireSymbol: true,
	}
}

// Check returns ErrWeakPassword naming the unmet rules, or nil.
func (p PasswordPolicy) Check(password string) error {
	var hasLower, hasUpper, hasDigit, hasSymbol bool
	for _, c := range password {
		switch {
		case unicode.IsLower(c):
			hasLower = true
		case unicode.IsUpper(c):
			hasUpper = true
		case unicode.IsDigit(c):
			hasDigit = true
		case unicode.IsSpace(c):
		default:
			hasSymbol = true
		}
	}

	var missing []string
	if utf8.RuneCountInString(password) < p.MinLength {
		missing = append(missing, fmt.Sprintf("at least %d characters", p.MinLength))
	}
	if p.RequireUpper && !hasUpper {
		missing = append(missing, "an upper-case letter")
	}
	if p.RequireLower && !hasLower {
		missing = append(missing, "a lower-case letter")
	}
	if p.RequireDigit && !hasDigit {
		missing = append(missing, "a digit")
	}
	if p.RequireSymbol && !hasSymbol {
		missing = append(missing, "a symbol")
	}
	if len(missing) == 0 {
		return nil
	}
	return fmt.Errorf("%w: needs %s", ErrWeakPassword, strings.Join(missing, ", "))
}

// IsStrong reports whether password satisfies the policy.
func (p PasswordPolicy) IsStrong(password string) bool {
	return p.Check(password) == nil
}
