package userdesk

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"math/big"
)

const (
	// SessionTokenBytes is the entropy of a session identifier: 256 bits,
	// encoded to 43 url-safe characters.
	SessionTokenBytes = 32

	// VerificationCodeLength is the number of digits in an emailed
	// registration code.
	VerificationCodeLength = 8
)

// NewSessionID generates an opaque session identifier. The value is used
// verbatim as the cookie value, it is never hashed or signed.
func NewSessionID() (string, error) {
	buf := make([]byte, SessionTokenBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to generate session token: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}

// NewVerificationCode generates a short numeric code suitable for typing off
// an email, e.g. "42424242".
func NewVerificationCode() (string, error) {
	digits := make([]byte, VerificationCodeLength)
	max := big.NewInt(10)
	for i := range digits {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", fmt.Errorf("failed to generate verification code: %w", err)
		}
		digits[i] = byte('0' + n.Int64())
	}
	return string(digits), nil
}
