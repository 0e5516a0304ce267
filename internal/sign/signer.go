// Package sign computes venue request signatures. Signing is a pure
// function of the canonical payload string and the secret; the payload
// ordering is venue-specific and supplied by the adapter, never assumed
// here.
package sign

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"time"
)

// Algorithm selects the signature encoding. All supported venues use
// HMAC-SHA256 and differ only in how the digest is serialized.
type Algorithm string

const (
	HMACSHA256Hex    Algorithm = "HMAC-SHA256-HEX"
	HMACSHA256Base64 Algorithm = "HMAC-SHA256-BASE64"
)

// ErrEmptySecret marks a signing attempt without a secret key. The
// gateway surfaces it as an AUTH failure.
var ErrEmptySecret = errors.New("sign: empty secret key")

// Signer holds one secret for the duration of a call sequence.
// The key lives as []byte so Wipe can zero it.
type Signer struct {
	secret []byte
}

// New creates a signer. It fails fast on an empty secret so the error
// surfaces before any network work.
func New(secret string) (*Signer, error) {
	if secret == "" {
		return nil, ErrEmptySecret
	}
	return &Signer{secret: []byte(secret)}, nil
}

// Sign computes the signature of payload under the algorithm.
// Deterministic: equal (payload, secret, algorithm) inputs always yield
// the same signature.
func (s *Signer) Sign(payload string, algo Algorithm) (string, error) {
	if s == nil || len(s.secret) == 0 {
		return "", ErrEmptySecret
	}
	mac := hmac.New(sha256.New, s.secret)
	mac.Write([]byte(payload))
	sum := mac.Sum(nil)

	switch algo {
	case HMACSHA256Base64:
		return base64.StdEncoding.EncodeToString(sum), nil
	case HMACSHA256Hex, "":
		return hex.EncodeToString(sum), nil
	default:
		return "", errors.New("sign: unsupported algorithm " + string(algo))
	}
}

// Wipe zeroes the secret key material.
func (s *Signer) Wipe() {
	if s == nil {
		return
	}
	for i := range s.secret {
		s.secret[i] = 0
	}
}

// NowMillis returns the current epoch milliseconds. Called fresh for
// every request; a cached timestamp would fall outside the venue replay
// window.
func NowMillis() int64 {
	return time.Now().UnixMilli()
}
