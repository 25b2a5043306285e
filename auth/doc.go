// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package auth provides key, token and identifier generation.

# Reviewer Keys

Reviewer keys use HMAC-SHA256 to create deterministic, verifiable keys:

	key := auth.GenerateReviewerKey("alice", salt)
	err := auth.ValidateReviewerKey("alice", key, salt)

Names are normalized (trimmed, lowercased) first. Since keys are
deterministic, validation needs no database lookup. Rotating
ADMIN_KEY_SALT revokes every key at once.

# Session Cookies

Session IDs are random UUIDs. The cookie carries the ID and its MAC:

	value := auth.SignSessionID(auth.NewSessionID(), secret)
	id, err := auth.VerifySessionID(value, secret)

A tampered or malformed cookie returns ErrInvalidToken; the caller starts
a fresh session.

# Submission References

	ref := auth.GenerateReference(submissionID, salt) // "FR-3kTMd9xQ1ab"

References are base62 encoded (alphanumeric only) so they are easy to
read out over the phone.

# ID Generation

Random hex IDs for database records:

	id, err := auth.GenerateID(16)  // 32 hex characters

GenerateSecret returns a random value for ADMIN_KEY_SALT or
SESSION_SECRET.

# IP Hashing

Submissions store a salted hash of the client IP, never the address:

	hash := auth.HashIP(ipAddress, salt)

Returns first 8 bytes (16 hex chars) of HMAC-SHA256.
*/
package auth
