// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

// Package csrf issues and verifies signed, timed form tokens.
//
// The raw token lives server-side in the session; the form carries
// base64url(raw) "." unix-seconds "." base64url(HMAC-SHA256(secret, raw "|" ts)).
package csrf

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"
)

// FieldName is the form field carrying the signed token.
const FieldName = "csrf_token"

// RawSize is the length of a freshly generated raw token.
const RawSize = 20

var (
	// ErrMissingToken is returned when no token was submitted or no raw token exists.
	ErrMissingToken = errors.New("csrf: token missing")
	// ErrInvalidToken is returned for malformed tokens and bad signatures.
	ErrInvalidToken = errors.New("csrf: token invalid")
	// ErrExpiredToken is returned when the token is older than the time limit.
	ErrExpiredToken = errors.New("csrf: token expired")
)

var b64 = base64.RawURLEncoding

// Protector signs and validates tokens with a shared secret.
type Protector struct {
	secret    []byte
	timeLimit time.Duration
	now       func() time.Time
}

// New creates a Protector. A zero timeLimit disables expiry.
func New(secret string, timeLimit time.Duration) *Protector {
	return &Protector{
		secret:    []byte(secret),
		timeLimit: timeLimit,
		now:       time.Now,
	}
}

// NewRaw returns a fresh random raw token.
func NewRaw() ([]byte, error) {
	raw := make([]byte, RawSize)
	if _, err := io.ReadFull(rand.Reader, raw); err != nil {
		return nil, fmt.Errorf("csrf: generate token: %w", err)
	}
	return raw, nil
}

// Generate signs raw with the current time.
func (p *Protector) Generate(raw []byte) string {
	ts := strconv.FormatInt(p.now().Unix(), 10)
	return b64.EncodeToString(raw) + "." + ts + "." + b64.EncodeToString(p.sign(raw, ts))
}

// Validate checks that token was issued for raw, is correctly signed and has not expired.
func (p *Protector) Validate(raw []byte, token string) error {
	if len(raw) == 0 || strings.TrimSpace(token) == "" {
		return ErrMissingToken
	}

	parts := strings.Split(token, ".")
	if len(parts) != 3 {
		return ErrInvalidToken
	}

	gotRaw, err := b64.DecodeString(parts[0])
	if err != nil {
		return ErrInvalidToken
	}
	issued, err := strconv.ParseInt(parts[1], 10, 64)
	if err != nil {
		return ErrInvalidToken
	}
	sig, err := b64.DecodeString(parts[2])
	if err != nil {
		return ErrInvalidToken
	}

	if !hmac.Equal(sig, p.sign(gotRaw, parts[1])) {
		return ErrInvalidToken
	}
	if !hmac.Equal(gotRaw, raw) {
		return ErrInvalidToken
	}

	if p.timeLimit > 0 {
		age := p.now().Sub(time.Unix(issued, 0))
		if age > p.timeLimit {
			return ErrExpiredToken
		}
	}
	return nil
}

func (p *Protector) sign(raw []byte, ts string) []byte {
	mac := hmac.New(sha256.New, p.secret)
	mac.Write(raw)
	mac.Write([]byte("|"))
	mac.Write([]byte(ts))
	return mac.Sum(nil)
}
