package password

import (
	"errors"
	"strings"
)

// MinLength is the minimum accepted password length in bytes.
const MinLength = 8

// SpecialChars is the fixed set of characters that satisfy the special
// character rule.
const SpecialChars = `!@#$%^&*()_+-=[]{};':"\|,.<>/?`

// Rule names a single policy requirement.
type Rule string

const (
	RuleLength    Rule = "min_length"
	RuleUppercase Rule = "uppercase"
	RuleDigit     Rule = "digit"
	RuleSpecial   Rule = "special"
)

// ErrPolicy is matched by every *PolicyError.
var ErrPolicy = errors.New("password policy violation")

// PolicyError reports the first rule a password failed. It never carries the
// password itself.
type PolicyError struct {
	Rule Rule
}

func (e *PolicyError) Error() string {
	return "password policy violation: " + string(e.Rule)
}

func (e *PolicyError) Is(target error) bool {
	return target == ErrPolicy
}

// ValidatePolicy reports whether password satisfies every policy rule.
func ValidatePolicy(password string) bool {
	return CheckPolicy(password) == nil
}

// CheckPolicy returns a *PolicyError naming the first unmet rule, or nil.
// Rules are checked in order: length, uppercase, digit, special.
func CheckPolicy(password string) error {
	if len(password) < MinLength {
		return &PolicyError{Rule: RuleLength}
	}

	var upper, digit, special bool
	for i := 0; i < len(password); i++ {
		c := password[i]
		switch {
		case c >= 'A' && c <= 'Z':
			upper = true
		case c >= '0' && c <= '9':
			digit = true
		case strings.IndexByte(SpecialChars, c) >= 0:
			special = true
		}
	}

	switch {
	case !upper:
		return &PolicyError{Rule: RuleUppercase}
	case !digit:
		return &PolicyError{Rule: RuleDigit}
	case !special:
		return &PolicyError{Rule: RuleSpecial}
	}
	return nil
}
