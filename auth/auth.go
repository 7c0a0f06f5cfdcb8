// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package auth

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"strings"

	"github.com/google/uuid"
)

var (
	ErrInvalidAdminKey = errors.New("invalid admin key")
	ErrInvalidToken    = errors.New("invalid voter token")
)

// NewID returns a random record ID, prefixed when prefix is non-empty.
func NewID(prefix string) string {
	id := uuid.NewString()
	if prefix == "" {
		return id
	}
	return prefix + "_" + id
}

func sign(subject, salt string) string {
	h := hmac.New(sha256.New, []byte(salt))
	h.Write([]byte(subject))
	sum := h.Sum(nil)
	// Use URL-safe base64 and trim padding for cleaner keys
	return strings.TrimRight(base64.URLEncoding.EncodeToString(sum), "=")
}

// GenerateAdminKey derives the admin key for an administrator email.
// This is deterministic and verifiable
func GenerateAdminKey(email, salt string) string {
	return sign("admin:"+strings.ToLower(strings.TrimSpace(email)), salt)
}

// ValidateAdminKey checks if the provided admin key is valid for the email
func ValidateAdminKey(email, adminKey, salt string) error {
	if email == "" || adminKey == "" {
		return ErrInvalidAdminKey
	}
	expected := GenerateAdminKey(email, salt)
	if !hmac.Equal([]byte(adminKey), []byte(expected)) {
		return ErrInvalidAdminKey
	}
	return nil
}

// GenerateVoterToken derives the token the identity provider hands to a
// verified voter. The voter ID is the stable external identifier.
func GenerateVoterToken(voterID, salt string) string {
	return sign("voter:"+voterID, salt)
}

// ValidateVoterToken checks a token presented with a ballot.
func ValidateVoterToken(voterID, token, salt string) error {
	if voterID == "" || token == "" {
		return ErrInvalidToken
	}
	expected := GenerateVoterToken(voterID, salt)
	if !hmac.Equal([]byte(token), []byte(expected)) {
		return ErrInvalidToken
	}
	return nil
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
