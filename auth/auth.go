// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package auth

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
)

var (
	ErrInvalidReviewerKey = errors.New("invalid reviewer key")
	ErrInvalidToken       = errors.New("invalid token format")
)

// GenerateID creates a random hex ID of the specified byte length
func GenerateID(byteLen int) (string, error) {
	b := make([]byte, byteLen)
	_, err := rand.Read(b)
	if err != nil {
		return "", eris.Wrap(err, "failed to generate random ID")
	}
	return hex.EncodeToString(b), nil
}

// GenerateSecret creates a random 32-byte secret suitable for
// ADMIN_KEY_SALT or SESSION_SECRET.
func GenerateSecret() (string, error) {
	b := make([]byte, 32)
	_, err := rand.Read(b)
	if err != nil {
		return "", eris.Wrap(err, "failed to generate secret")
	}
	// URL-safe base64 without padding
	return strings.TrimRight(base64.URLEncoding.EncodeToString(b), "="), nil
}

func sign(msg, secret string) string {
	h := hmac.New(sha256.New, []byte(secret))
	h.Write([]byte(msg))
	return strings.TrimRight(base64.URLEncoding.EncodeToString(h.Sum(nil)), "=")
}

// NormalizeReviewer lowercases and trims a reviewer name so keys do not
// depend on how the name was typed.
func NormalizeReviewer(reviewer string) string {
	return strings.ToLower(strings.TrimSpace(reviewer))
}

// GenerateReviewerKey creates an HMAC-based key for a reviewer.
// This is deterministic and verifiable, so keys are never stored.
func GenerateReviewerKey(reviewer, salt string) string {
	return sign("reviewer:"+NormalizeReviewer(reviewer), salt)
}

// ValidateReviewerKey checks if the provided key is valid for the reviewer
func ValidateReviewerKey(reviewer, key, salt string) error {
	if NormalizeReviewer(reviewer) == "" {
		return ErrInvalidReviewerKey
	}
	expected := GenerateReviewerKey(reviewer, salt)
	if !hmac.Equal([]byte(key), []byte(expected)) {
		return ErrInvalidReviewerKey
	}
	return nil
}

// NewSessionID returns a random session identifier.
func NewSessionID() string {
	return uuid.NewString()
}

// SignSessionID returns the cookie value for a session: "<id>.<mac>".
func SignSessionID(id, secret string) string {
	return id + "." + sign("session:"+id, secret)
}

// VerifySessionID checks a cookie value produced by SignSessionID and
// returns the session ID.
func VerifySessionID(value, secret string) (string, error) {
	id, mac, ok := strings.Cut(value, ".")
	if !ok {
		return "", ErrInvalidToken
	}
	if _, err := uuid.Parse(id); err != nil {
		return "", ErrInvalidToken
	}
	if !hmac.Equal([]byte(mac), []byte(sign("session:"+id, secret))) {
		return "", ErrInvalidToken
	}
	return id, nil
}

// GenerateReference creates a short, deterministic reference for a
// submission, e.g. "FR-3kTMd9xQ1ab". Researchers quote it when contacting
// the review team.
func GenerateReference(submissionID, salt string) string {
	h := hmac.New(sha256.New, []byte(salt))
	h.Write([]byte("reference:" + submissionID))
	sum := h.Sum(nil)

	// Take first 8 bytes for a shorter reference
	return "FR-" + base62Encode(sum[:8])
}

// base62Encode converts bytes to base62 (0-9, a-z, A-Z)
func base62Encode(data []byte) string {
	const base62Chars = "0123456789abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ"

	var num uint64
	for i := 0; i < len(data) && i < 8; i++ {
		num = num<<8 | uint64(data[i])
	}

	if num == 0 {
		return "0"
	}

	result := make([]byte, 0, 11) // max length for uint64
	for num > 0 {
		result = append(result, base62Chars[num%62])
		num /= 62
	}

	for i, j := 0, len(result)-1; i < j; i, j = i+1, j-1 {
		result[i], result[j] = result[j], result[i]
	}

	return string(result)
}

// HashIP creates a one-way hash of an IP address for privacy
// Includes salt to prevent rainbow table attacks
func HashIP(ip, salt string) string {
	h := hmac.New(sha256.New, []byte(salt))
	h.Write([]byte(ip))
	sum := h.Sum(nil)
	// Return first 16 hex chars (64 bits) - enough for deduplication
	return hex.EncodeToString(sum[:8])
}
