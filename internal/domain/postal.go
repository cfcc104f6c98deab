package domain

import (
	"context"
	"fmt"
	"strings"
)

// PostalCodeLength is the number of digits in a complete postal code.
const PostalCodeLength = 8

// NormalizePostalCode strips every non-digit character and keeps at most
// PostalCodeLength digits: "20000-000" → "20000000".
func NormalizePostalCode(s string) string {
	var b strings.Builder
	b.Grow(PostalCodeLength)
	for _, r := range s {
		if r < '0' || r > '9' {
			continue
		}
		b.WriteRune(r)
		if b.Len() == PostalCodeLength {
			break
		}
	}
	return b.String()
}

// IsCompletePostalCode reports whether s is exactly PostalCodeLength digits.
func IsCompletePostalCode(s string) bool {
	return len(s) == PostalCodeLength && NormalizePostalCode(s) == s
}

// Address is the structured result of a postal code lookup.
type Address struct {
	Street       string `json:"street"`
	Neighborhood string `json:"neighborhood"`
	Municipality string `json:"municipality"`
	Region       string `json:"region"`
}

// Format renders the address the way it replaces a draft's free-text
// address: "<street>, <neighborhood> - <municipality>, <region>".
func (a Address) Format() string {
	return fmt.Sprintf("%s, %s - %s, %s", a.Street, a.Neighborhood, a.Municipality, a.Region)
}

// AddressResolver looks up postal codes.
type AddressResolver interface {
	// Resolve returns the address for a complete postal code, ErrLookupNotFound
	// when the code is unknown, or a *TransportError when the lookup service
	// could not be reached.
	Resolve(ctx context.Context, postalCode string) (Address, error)
}
