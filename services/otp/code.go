package otp

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"strconv"
)

const (
	CodeLength = 6

	codeMin  = 100000
	codeSpan = 900000
)

// GenerateCode returns a uniformly distributed code in [100000, 999999].
// The lower bound keeps every code at exactly six digits without padding.
func GenerateCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(codeSpan))
	if err != nil {
		return "", fmt.Errorf("failed to generate verification code: %w", err)
	}
	return strconv.FormatInt(n.Int64()+codeMin, 10), nil
}

// IsCodeShape reports whether s is exactly six ASCII digits.
func IsCodeShape(s string) bool {
	if len(s) != CodeLength {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}
