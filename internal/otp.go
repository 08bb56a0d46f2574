package internal

import (
	"crypto/rand"
	"crypto/subtle"
	"math/big"
	"strconv"
	"strings"
)

const (
	otpMin = 100000
	otpMax = 999999
)

var otpSpan = big.NewInt(otpMax - otpMin + 1)

// NewOTP returns a six digit code drawn uniformly from [100000, 999999].
func NewOTP() (string, error) {
	n, err := rand.Int(rand.Reader, otpSpan)
	if err != nil {
		return "", err
	}
	return strconv.FormatInt(n.Int64()+otpMin, 10), nil
}

// MatchOTP reports whether provided equals expected once both are trimmed.
// The comparison runs in constant time for equal-length inputs; codes are
// single-use and verify failures are throttled, so length is not secret.
func MatchOTP(provided, expected string) bool {
	p := strings.TrimSpace(provided)
	e := strings.TrimSpace(expected)
	if e == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(p), []byte(e)) == 1
}
