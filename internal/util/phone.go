package util

import (
	"fmt"
	"strings"

	"github.com/ttacon/libphonenumber"
)

const phoneRegion = "KR"

// NormalizePhoneNumber canonicalizes a patient phone number to the bare
// national digit string (e.g. "010-1111-0001" -> "01011110001"). Inputs the
// phone library cannot parse fall back to plain digit stripping so that
// lookups remain possible for legacy records.
func NormalizePhoneNumber(input string) (string, error) {
	digits := stripNonDigits(input)
	if len(digits) < 10 {
		return "", fmt.Errorf("phone number %q is too short", input)
	}

	parsed, err := libphonenumber.Parse(input, phoneRegion)
	if err != nil {
		return digits, nil
	}
	national := libphonenumber.Format(parsed, libphonenumber.NATIONAL)
	return stripNonDigits(national), nil
}

// MaskPhoneNumber hides the middle digits for display in audit summaries.
func MaskPhoneNumber(phone string) string {
	if len(phone) < 4 {
		return "****"
	}
	return phone[:3] + "****" + phone[len(phone)-4:]
}

func stripNonDigits(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}
