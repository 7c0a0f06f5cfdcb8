// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package testutil

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/danielhkuo/verivote/auth"
	"github.com/danielhkuo/verivote/cliparse"
	"github.com/danielhkuo/verivote/db"
	"github.com/danielhkuo/verivote/docstore"
	"github.com/danielhkuo/verivote/models"
)

// TestPositions are the contested positions used across tests
var TestPositions = []string{"president", "mayor"}

// GetTestConfig returns a standard test configuration backed by memory
func GetTestConfig() cliparse.Config {
	return cliparse.Config{
		Port:                 3318,
		StoreType:            cliparse.StoreMemory,
		AdminKeySalt:         "test-admin-salt",
		VoterSalt:            "test-voter-salt",
		Positions:            append([]string(nil), TestPositions...),
		AuditCapacity:        100,
		RetryMaxAttempts:     3,
		RetryInitialInterval: time.Millisecond,
		StoreTimeout:         time.Second,
	}
}

// SetupTestSQLite opens a fresh SQLite-backed document store in a temp dir
func SetupTestSQLite(t *testing.T) docstore.Store {
	t.Helper()

	conn, err := db.Open(db.DialectSQLite, filepath.Join(t.TempDir(), "verivote.db"))
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}
	if err := db.CreateSchema(conn); err != nil {
		t.Fatalf("Failed to create schema: %v", err)
	}

	s := docstore.NewSQL(conn, db.DialectSQLite)
	t.Cleanup(func() { s.Close() })
	return s
}

// CreateTestElection writes an election with the given state whose window
// contains now
func CreateTestElection(t *testing.T, s docstore.Store, state string) models.Election {
	t.Helper()

	now := time.Now().UTC()
	e := models.Election{
		ID:                       auth.NewID("election"),
		Title:                    "Test Election",
		State:                    state,
		StartTime:                now.Add(-time.Hour),
		EndTime:                  now.Add(24 * time.Hour),
		MaxSelectionsPerPosition: 1,
		CreatedBy:                "admin@test.com",
	}
	if state == models.StateActive {
		e.StartedAt = &e.StartTime
		e.StartedBy = "admin@test.com"
	}

	appendRecord(t, s, docstore.Elections, e)
	return e
}

// AddTestCandidate adds an active candidate
func AddTestCandidate(t *testing.T, s docstore.Store, id, position, name string) models.Candidate {
	t.Helper()

	c := models.Candidate{
		ID:        id,
		Position:  position,
		Name:      name,
		Status:    models.StatusActive,
		CreatedAt: time.Now().UTC(),
	}
	appendRecord(t, s, docstore.Candidates, c)
	return c
}

// CreateTestVoter registers a voter and returns their voter token
func CreateTestVoter(t *testing.T, s docstore.Store, cfg cliparse.Config, voterID string) string {
	t.Helper()

	appendRecord(t, s, docstore.Voters, models.Voter{
		ID:           voterID,
		Status:       models.StatusActive,
		RegisteredAt: time.Now().UTC(),
	})
	return auth.GenerateVoterToken(voterID, cfg.VoterSalt)
}

// SubmitTestVote writes a vote and sets the voter's marker directly
func SubmitTestVote(t *testing.T, s docstore.Store, electionID, voterID string, selections map[string]string) models.Vote {
	t.Helper()

	v := models.Vote{
		ID:         auth.NewID("vote"),
		Key:        models.VoteKey(electionID, voterID),
		ElectionID: electionID,
		VoterID:    voterID,
		Selections: selections,
		Timestamp:  time.Now().UTC(),
	}
	appendRecord(t, s, docstore.Votes, v)

	ctx := context.Background()
	voters, err := docstore.ReadList[models.Voter](ctx, s, docstore.Voters)
	if err != nil {
		t.Fatalf("Failed to read voters: %v", err)
	}
	for i := range voters {
		if voters[i].ID == voterID {
			voters[i].HasVoted = true
			voters[i].VotedAt = &v.Timestamp
		}
	}
	if err := docstore.WriteList(ctx, s, docstore.Voters, voters); err != nil {
		t.Fatalf("Failed to write voters: %v", err)
	}
	return v
}

// ReadVotes returns the stored vote log
func ReadVotes(t *testing.T, s docstore.Store) []models.Vote {
	t.Helper()
	votes, err := docstore.ReadList[models.Vote](context.Background(), s, docstore.Votes)
	if err != nil {
		t.Fatalf("Failed to read votes: %v", err)
	}
	return votes
}

// ReadVoter returns one stored voter record
func ReadVoter(t *testing.T, s docstore.Store, voterID string) models.Voter {
	t.Helper()
	voters, err := docstore.ReadList[models.Voter](context.Background(), s, docstore.Voters)
	if err != nil {
		t.Fatalf("Failed to read voters: %v", err)
	}
	for _, v := range voters {
		if v.ID == voterID {
			return v
		}
	}
	t.Fatalf("Voter %s not found", voterID)
	return models.Voter{}
}

func appendRecord[T any](t *testing.T, s docstore.Store, collection string, record T) {
	t.Helper()
	ctx := context.Background()
	items, err := docstore.ReadList[T](ctx, s, collection)
	if err != nil {
		t.Fatalf("Failed to read %s: %v", collection, err)
	}
	if err := docstore.WriteList(ctx, s, collection, append(items, record)); err != nil {
		t.Fatalf("Failed to write %s: %v", collection, err)
	}
}

// MakeRequest creates an HTTP test request
func MakeRequest(method, path string, body interface{}, headers map[string]string) *http.Request {
	var req *http.Request
	if body != nil {
		jsonBody, _ := json.Marshal(body)
		req = httptest.NewRequest(method, path, bytes.NewReader(jsonBody))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}

	for k, v := range headers {
		req.Header.Set(k, v)
	}

	return req
}

// VoterHeaders returns the headers that authenticate a ballot submission
func VoterHeaders(cfg cliparse.Config, voterID string) map[string]string {
	return map[string]string{
		"X-Voter-ID":    voterID,
		"X-Voter-Token": auth.GenerateVoterToken(voterID, cfg.VoterSalt),
	}
}

// AdminHeaders returns the headers that authenticate an admin request
func AdminHeaders(cfg cliparse.Config, email string) map[string]string {
	return map[string]string{
		"X-Admin-Email": email,
		"X-Admin-Key":   auth.GenerateAdminKey(email, cfg.AdminKeySalt),
	}
}

// AssertStatus checks that the response has the expected status code
func AssertStatus(t *testing.T, w *httptest.ResponseRecorder, expected int) {
	t.Helper()
	if w.Code != expected {
		t.Errorf("Expected status %d, got %d. Body: %s", expected, w.Code, w.Body.String())
	}
}

// AssertJSON decodes the response body into the provided struct
func AssertJSON(t *testing.T, w *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	if err := json.NewDecoder(w.Body).Decode(v); err != nil {
		t.Fatalf("Failed to decode JSON response: %v", err)
	}
}
