// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package middleware

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/danielhkuo/verivote/apperr"
	"github.com/danielhkuo/verivote/auth"
	"github.com/danielhkuo/verivote/models"
)

func TestWithLogging_PreservesResponse(t *testing.T) {
	testCases := []struct {
		name       string
		statusCode int
		body       string
	}{
		{"OK", http.StatusOK, "ok"},
		{"Created", http.StatusCreated, `{"vote_id":"123"}`},
		{"Conflict", http.StatusConflict, `{"kind":"already_voted"}`},
		{"Unavailable", http.StatusServiceUnavailable, "store down"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			handler := WithLogging(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tc.statusCode)
				w.Write([]byte(tc.body))
			})

			req := httptest.NewRequest("POST", "/ballots", nil)
			w := httptest.NewRecorder()

			handler(w, req)

			if w.Code != tc.statusCode {
				t.Errorf("Expected status %d, got %d", tc.statusCode, w.Code)
			}
			if w.Body.String() != tc.body {
				t.Errorf("Expected body '%s', got '%s'", tc.body, w.Body.String())
			}
		})
	}
}

func TestJSONResponse(t *testing.T) {
	w := httptest.NewRecorder()
	JSONResponse(w, http.StatusCreated, models.SubmitBallotResponse{VoteID: "vote_1", Message: "ok"})

	if w.Code != http.StatusCreated {
		t.Errorf("Expected status 201, got %d", w.Code)
	}
	if w.Header().Get("Content-Type") != "application/json" {
		t.Errorf("Expected JSON content type, got '%s'", w.Header().Get("Content-Type"))
	}
	if !strings.Contains(w.Body.String(), `"vote_id":"vote_1"`) {
		t.Errorf("Unexpected body %s", w.Body.String())
	}
}

func TestWriteError(t *testing.T) {
	testCases := []struct {
		name       string
		err        error
		statusCode int
		kind       string
		message    string
	}{
		{"election closed", apperr.New(apperr.KindElectionClosed, "no election is currently active"), http.StatusConflict, "election_closed", "no election is currently active"},
		{"invalid ballot", apperr.New(apperr.KindInvalidBallot, "missing selection for mayor"), http.StatusBadRequest, "invalid_ballot", "missing selection for mayor"},
		{"not eligible", apperr.New(apperr.KindVoterNotEligible, "voter a is blocked"), http.StatusForbidden, "voter_not_eligible", "voter a is blocked"},
		{"already voted", apperr.New(apperr.KindAlreadyVoted, "voter a has already voted"), http.StatusConflict, "already_voted", "voter a has already voted"},
		{"storage", apperr.Wrap(apperr.KindStorage, errors.New("timeout"), "record vote"), http.StatusServiceUnavailable, "storage_error", "record vote"},
		{"confirmation", apperr.New(apperr.KindConfirmationRequired, "send RESET"), http.StatusPreconditionFailed, "confirmation_required", "send RESET"},
		{"not found", apperr.New(apperr.KindNotFound, "candidate x not found"), http.StatusNotFound, "not_found", "candidate x not found"},
		{"unclassified", errors.New("boom"), http.StatusInternalServerError, "", "Internal server error"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			WriteError(w, tc.err)

			if w.Code != tc.statusCode {
				t.Errorf("Expected status %d, got %d", tc.statusCode, w.Code)
			}

			var resp models.ErrorResponse
			if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
				t.Fatalf("Failed to decode error response: %v", err)
			}
			if resp.Error != http.StatusText(tc.statusCode) {
				t.Errorf("Expected error '%s', got '%s'", http.StatusText(tc.statusCode), resp.Error)
			}
			if resp.Kind != tc.kind {
				t.Errorf("Expected kind '%s', got '%s'", tc.kind, resp.Kind)
			}
			if resp.Message != tc.message {
				t.Errorf("Expected message '%s', got '%s'", tc.message, resp.Message)
			}
		})
	}
}

func TestErrorResponse(t *testing.T) {
	w := httptest.NewRecorder()
	ErrorResponse(w, http.StatusUnauthorized, "invalid voter token")

	var resp models.ErrorResponse
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatal(err)
	}
	if w.Code != http.StatusUnauthorized || resp.Error != "Unauthorized" || resp.Message != "invalid voter token" {
		t.Errorf("Unexpected response %d %+v", w.Code, resp)
	}
}

func TestParseJSONBody(t *testing.T) {
	t.Run("valid JSON", func(t *testing.T) {
		req := httptest.NewRequest("POST", "/", strings.NewReader(`{"selections":{"president":"p1"}}`))

		var parsed models.SubmitBallotRequest
		if err := ParseJSONBody(req, &parsed); err != nil {
			t.Fatalf("Expected no error, got: %v", err)
		}
		if parsed.Selections["president"] != "p1" {
			t.Errorf("Expected president selection p1, got %v", parsed.Selections)
		}
	})

	t.Run("invalid JSON", func(t *testing.T) {
		req := httptest.NewRequest("POST", "/", strings.NewReader(`{invalid json}`))

		var parsed models.SubmitBallotRequest
		if err := ParseJSONBody(req, &parsed); err == nil {
			t.Error("Expected error for invalid JSON")
		}
	})

	t.Run("empty body", func(t *testing.T) {
		req := httptest.NewRequest("POST", "/", strings.NewReader(""))

		var parsed models.ResetRequest
		if err := ParseJSONBody(req, &parsed); err == nil {
			t.Error("Expected error for empty body")
		}
	})
}

func TestCORS(t *testing.T) {
	nextHandler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("handled"))
	})
	corsHandler := CORS(nextHandler)

	t.Run("preflight", func(t *testing.T) {
		req := httptest.NewRequest("OPTIONS", "/ballots", nil)
		req.Header.Set("Origin", "http://localhost:5173")
		w := httptest.NewRecorder()

		corsHandler.ServeHTTP(w, req)

		if w.Code != http.StatusOK || w.Body.String() != "" {
			t.Errorf("Expected empty 200 preflight, got %d '%s'", w.Code, w.Body.String())
		}
		if w.Header().Get("Access-Control-Allow-Origin") != "http://localhost:5173" {
			t.Error("Expected Access-Control-Allow-Origin to match request origin")
		}

		allowed := w.Header().Get("Access-Control-Allow-Headers")
		for _, h := range []string{"X-Admin-Email", "X-Admin-Key", "X-Voter-ID", "X-Voter-Token", "Idempotency-Key"} {
			if !strings.Contains(allowed, h) {
				t.Errorf("Expected %s in allowed headers", h)
			}
		}
		if !strings.Contains(w.Header().Get("Access-Control-Allow-Methods"), "PATCH") {
			t.Error("Expected PATCH in allowed methods")
		}
	})

	t.Run("no origin defaults to wildcard", func(t *testing.T) {
		req := httptest.NewRequest("GET", "/results", nil)
		w := httptest.NewRecorder()

		corsHandler.ServeHTTP(w, req)

		if w.Header().Get("Access-Control-Allow-Origin") != "*" {
			t.Error("Expected Access-Control-Allow-Origin to default to '*'")
		}
		if w.Body.String() != "handled" {
			t.Error("Expected next handler to be called")
		}
	})
}

func TestRequireAdmin(t *testing.T) {
	const salt = "admin-salt"
	var seen string
	handler := RequireAdmin(salt, func(w http.ResponseWriter, r *http.Request) {
		seen = Actor(r.Context())
		w.WriteHeader(http.StatusNoContent)
	})

	testCases := []struct {
		name       string
		email      string
		key        string
		statusCode int
	}{
		{"valid", "admin@x.com", auth.GenerateAdminKey("admin@x.com", salt), http.StatusNoContent},
		{"missing headers", "", "", http.StatusUnauthorized},
		{"wrong key", "admin@x.com", "nope", http.StatusForbidden},
		{"key for other admin", "eve@x.com", auth.GenerateAdminKey("admin@x.com", salt), http.StatusForbidden},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			seen = ""
			req := httptest.NewRequest("POST", "/admin/election/end", nil)
			if tc.email != "" {
				req.Header.Set("X-Admin-Email", tc.email)
			}
			if tc.key != "" {
				req.Header.Set("X-Admin-Key", tc.key)
			}
			w := httptest.NewRecorder()

			handler(w, req)

			if w.Code != tc.statusCode {
				t.Errorf("Expected status %d, got %d", tc.statusCode, w.Code)
			}
			if tc.statusCode == http.StatusNoContent && seen != tc.email {
				t.Errorf("Expected actor %s, got %s", tc.email, seen)
			}
		})
	}

	if Actor(httptest.NewRequest("GET", "/", nil).Context()) != "system" {
		t.Error("Expected system actor without admin context")
	}
}

func TestGetClientIP(t *testing.T) {
	testCases := []struct {
		name       string
		headers    map[string]string
		remoteAddr string
		expectedIP string
	}{
		{"X-Forwarded-For chain", map[string]string{"X-Forwarded-For": "203.0.113.195, 70.41.3.18"}, "127.0.0.1:12345", "203.0.113.195"},
		{"X-Real-IP", map[string]string{"X-Real-IP": "203.0.113.50"}, "10.0.0.1:12345", "203.0.113.50"},
		{"RemoteAddr with port", map[string]string{}, "192.168.1.50:54321", "192.168.1.50"},
		{"RemoteAddr without port", map[string]string{}, "192.168.1.50", "192.168.1.50"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", "/", nil)
			req.RemoteAddr = tc.remoteAddr
			for k, v := range tc.headers {
				req.Header.Set(k, v)
			}

			if result := GetClientIP(req); result != tc.expectedIP {
				t.Errorf("Expected IP '%s', got '%s'", tc.expectedIP, result)
			}
		})
	}
}
