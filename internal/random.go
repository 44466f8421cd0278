package internal

import (
	"crypto/rand"
	"encoding/base64"
	"errors"
)

// CSRFTokenSize is the number of random bytes in a CSRF token.
const CSRFTokenSize = 32

// ErrShortRead is returned when the system randomness source returns fewer
// bytes than requested.
var ErrShortRead = errors.New("short read from random source")

// RandomBytes returns n bytes from crypto/rand.
func RandomBytes(n int) ([]byte, error) {
	buf := make([]byte, n)
	read, err := rand.Read(buf)
	if err != nil {
		return nil, err
	}
	if read != n {
		return nil, ErrShortRead
	}
	return buf, nil
}

// NewCSRFToken returns CSRFTokenSize random bytes, base64url without padding.
func NewCSRFToken() (string, error) {
	raw, err := RandomBytes(CSRFTokenSize)
	if err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(raw), nil
}
