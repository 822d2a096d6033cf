package utils

import (
	"strings"
	"unicode"
)

const (
	minLocalDigits = 6
	maxLocalDigits = 12
	maxE164Digits  = 15
)

// NormalizePhone joins a country calling code ("+34", "34", "0034") and a
// local number into E.164. ok is false when either part is unusable.
func NormalizePhone(countryCode, local string) (string, bool) {
	cc := digitsOnly(countryCode)
	cc = strings.TrimPrefix(cc, "00")
	if len(cc) == 0 || len(cc) > 3 || cc[0] == '0' {
		return "", false
	}

	num := strings.TrimLeft(digitsOnly(local), "0")
	if strings.HasPrefix(strings.TrimSpace(local), "+") {
		// already international: drop a repeated country code
		num = strings.TrimPrefix(num, cc)
	}
	if len(num) < minLocalDigits || len(num) > maxLocalDigits {
		return "", false
	}
	if len(cc)+len(num) > maxE164Digits {
		return "", false
	}
	return "+" + cc + num, true
}

func digitsOnly(s string) string {
	var b strings.Builder
	for _, r := range s {
		if unicode.IsDigit(r) && r < unicode.MaxASCII {
			b.WriteRune(r)
		}
	}
	return b.String()
}
