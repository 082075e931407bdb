package wallet

import (
	"regexp"
	"strings"

	"sentinel/pkg/errors"
)

// addressPattern matches 0x followed by 40 hex characters, case-insensitive
var addressPattern = regexp.MustCompile(`^0x[0-9a-fA-F]{40}$`)

// Address is a normalized (lowercased) chain address.
// Wallets are keyed case-insensitively.
type Address string

// ParseAddress validates and normalizes a chain address
func ParseAddress(raw string) (Address, error) {
	trimmed := strings.TrimSpace(raw)
	if !addressPattern.MatchString(trimmed) {
		return "", errors.NewValidationError("wallet", "must be 0x followed by 40 hex characters", raw)
	}
	return Address(strings.ToLower(trimmed)), nil
}

// String returns the normalized address string
func (a Address) String() string {
	return string(a)
}

// IsZero reports whether the address is unset
func (a Address) IsZero() bool {
	return a == ""
}
