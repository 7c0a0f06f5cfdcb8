// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package auth provides ID generation and the HMAC checks used at the HTTP edge.

# Admin Keys

Admin keys use HMAC-SHA256 over the administrator's email:

	adminKey := auth.GenerateAdminKey(email, salt)
	err := auth.ValidateAdminKey(email, adminKey, salt)

The key is URL-safe base64 encoded without padding. Since it's deterministic,
the same email and salt always produce the same key, so nothing is stored.

# Voter Tokens

Voter identity is established by an external identity check. That check hands
the voter a token derived from their stable voter ID:

	token := auth.GenerateVoterToken(voterID, salt)
	err := auth.ValidateVoterToken(voterID, token, salt)

# ID Generation

Record IDs are prefixed random UUIDs:

	id := auth.NewID("vote") // vote_3f1c...

# IP Hashing

For privacy-preserving fraud detection:

	hash := auth.HashIP(ipAddress, salt)

Returns first 8 bytes (16 hex chars) of HMAC-SHA256.
*/
package auth
