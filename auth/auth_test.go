// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package auth

import (
	"strings"
	"testing"

	"github.com/google/uuid"
)

func TestNewID(t *testing.T) {
	tests := []struct {
		name   string
		prefix string
	}{
		{"no prefix", ""},
		{"vote prefix", "vote"},
		{"election prefix", "election"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			id := NewID(tt.prefix)
			raw := id
			if tt.prefix != "" {
				if !strings.HasPrefix(id, tt.prefix+"_") {
					t.Fatalf("NewID() = %q, want prefix %q", id, tt.prefix+"_")
				}
				raw = strings.TrimPrefix(id, tt.prefix+"_")
			}
			if _, err := uuid.Parse(raw); err != nil {
				t.Errorf("NewID() suffix %q is not a UUID: %v", raw, err)
			}
		})
	}

	// Test randomness - two IDs should be different
	if NewID("vote") == NewID("vote") {
		t.Error("NewID() produced duplicate IDs (extremely unlikely)")
	}
}

func TestGenerateAdminKey(t *testing.T) {
	tests := []struct {
		name  string
		email string
		salt  string
	}{
		{"standard", "admin@example.com", "secret-salt"},
		{"empty salt", "admin@example.com", ""},
		{"other admin", "root@example.com", "secret-salt"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			key := GenerateAdminKey(tt.email, tt.salt)

			if key == "" {
				t.Error("GenerateAdminKey() returned empty string")
			}

			// Should be deterministic
			if key != GenerateAdminKey(tt.email, tt.salt) {
				t.Error("GenerateAdminKey() is not deterministic")
			}

			if key == GenerateAdminKey("x"+tt.email, tt.salt) {
				t.Error("GenerateAdminKey() produced same key for different emails")
			}

			// Should be URL-safe (no padding)
			if strings.Contains(key, "=") {
				t.Error("GenerateAdminKey() contains padding characters")
			}
		})
	}

	// Email matching is case-insensitive
	if GenerateAdminKey("Admin@Example.com ", "s") != GenerateAdminKey("admin@example.com", "s") {
		t.Error("GenerateAdminKey() should normalize email case and spaces")
	}
}

func TestValidateAdminKey(t *testing.T) {
	email := "admin@example.com"
	salt := "test-salt"
	validKey := GenerateAdminKey(email, salt)

	tests := []struct {
		name     string
		email    string
		adminKey string
		salt     string
		wantErr  bool
	}{
		{"valid key", email, validKey, salt, false},
		{"wrong key", email, "wrong-key", salt, true},
		{"wrong email", "other@example.com", validKey, salt, true},
		{"wrong salt", email, validKey, "different-salt", true},
		{"empty key", email, "", salt, true},
		{"empty email", "", validKey, salt, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateAdminKey(tt.email, tt.adminKey, tt.salt)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateAdminKey() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr && err != ErrInvalidAdminKey {
				t.Errorf("ValidateAdminKey() error = %v, want %v", err, ErrInvalidAdminKey)
			}
		})
	}
}

func TestVoterToken(t *testing.T) {
	salt := "voter-salt"
	token := GenerateVoterToken("a@x.com", salt)

	if token == GenerateAdminKey("a@x.com", salt) {
		t.Error("voter token must differ from admin key for the same subject")
	}

	tests := []struct {
		name    string
		voterID string
		token   string
		wantErr bool
	}{
		{"valid", "a@x.com", token, false},
		{"other voter", "b@x.com", token, true},
		{"garbage", "a@x.com", "not-a-token", true},
		{"empty token", "a@x.com", "", true},
		{"empty voter", "", token, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateVoterToken(tt.voterID, tt.token, salt)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateVoterToken() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr && err != ErrInvalidToken {
				t.Errorf("ValidateVoterToken() error = %v, want %v", err, ErrInvalidToken)
			}
		})
	}
}

func TestHashIP(t *testing.T) {
	tests := []struct {
		name string
		ip   string
		salt string
	}{
		{"IPv4", "192.168.1.1", "ip-salt"},
		{"IPv6", "2001:0db8:85a3::8a2e:0370:7334", "ip-salt"},
		{"localhost", "127.0.0.1", "ip-salt"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			hash := HashIP(tt.ip, tt.salt)

			// Should be 16 hex characters (8 bytes * 2)
			if len(hash) != 16 {
				t.Errorf("HashIP() length = %d, want 16", len(hash))
			}

			for _, c := range hash {
				if !((c >= '0' && c <= '9') || (c >= 'a' && c <= 'f')) {
					t.Errorf("HashIP() contains invalid hex char: %c", c)
				}
			}

			if hash != HashIP(tt.ip, tt.salt) {
				t.Error("HashIP() is not deterministic")
			}
		})
	}

	if HashIP("192.168.1.1", "salt") == HashIP("192.168.1.2", "salt") {
		t.Error("HashIP() produced same hash for different IPs")
	}
	if HashIP("192.168.1.1", "salt1") == HashIP("192.168.1.1", "salt2") {
		t.Error("HashIP() produced same hash for different salts")
	}
}

// Benchmark tests
func BenchmarkGenerateAdminKey(b *testing.B) {
	for i := 0; i < b.N; i++ {
		GenerateAdminKey("admin@example.com", "test-salt")
	}
}

func BenchmarkValidateVoterToken(b *testing.B) {
	token := GenerateVoterToken("a@x.com", "salt")
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		ValidateVoterToken("a@x.com", token, "salt")
	}
}
