package domain

import "strings"

// DefaultCountryCode is the dialing code assumed for domestic numbers.
const DefaultCountryCode = "44"

// NormalizePhone canonicalizes a phone number into the +<cc><digits> form
// used as the join key between kiosk input and stored identity. It is pure
// and idempotent: normalizing an already-normalized number is a no-op.
//
//	"07123 456789"   -> "+447123456789"
//	"447123456789"   -> "+447123456789"
//	"+447123456789"  -> "+447123456789"
//	"7123456789"     -> "+447123456789"
func NormalizePhone(raw string) string {
	var digits strings.Builder
	for _, r := range raw {
		if r >= '0' && r <= '9' {
			digits.WriteRune(r)
		}
	}
	cleaned := digits.String()
	if cleaned == "" {
		return ""
	}

	// A leading + marks the number as already international, whatever its
	// length. Every output below starts with +, so this branch is what
	// makes normalization a fixed point on its own results.
	if strings.HasPrefix(strings.TrimSpace(raw), "+") {
		return "+" + cleaned
	}

	cc := DefaultCountryCode

	// 11-digit local form with the national trunk prefix: 07123456789.
	if len(cleaned) == 11 && strings.HasPrefix(cleaned, "0") {
		return "+" + cc + cleaned[1:]
	}

	// Already carries the country code: 447123456789. Accepting anything at
	// or beyond the expected length keeps normalization idempotent for
	// numbers that were already international.
	if strings.HasPrefix(cleaned, cc) && len(cleaned) >= len(cc)+10 {
		return "+" + cleaned
	}

	// Assume domestic without the trunk digit.
	return "+" + cc + cleaned
}
