package otp

import (
	"crypto/rand"
	"fmt"
	"math/big"
)

// Digits is the fixed width of generated verification codes.
const Digits = 6

var codeSpace = big.NewInt(1_000_000)

// NewCode returns a uniformly random six-digit numeric code, zero-padded.
func NewCode() (string, error) {
	n, err := rand.Int(rand.Reader, codeSpace)
	if err != nil {
		return "", fmt.Errorf("generate verification code: %w", err)
	}
	return fmt.Sprintf("%0*d", Digits, n.Int64()), nil
}
