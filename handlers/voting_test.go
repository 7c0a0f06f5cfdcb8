package handlers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/danielhkuo/verivote/docstore"
	"github.com/danielhkuo/verivote/models"
	"github.com/danielhkuo/verivote/testutil"
)

var fullBallot = models.SubmitBallotRequest{
	Selections: map[string]string{"president": "p1", "mayor": "m1"},
}

func TestSubmitBallot(t *testing.T) {
	env := setupEnv(t)
	e := seedElection(t, env)
	handler := NewVotingHandler(env.app, env.cfg)

	testutil.CreateTestVoter(t, env.store, env.cfg, "alice@example.com")
	testutil.CreateTestVoter(t, env.store, env.cfg, "bob@example.com")

	tests := []struct {
		name           string
		voterID        string
		headers        map[string]string
		body           interface{}
		expectedStatus int
		expectedKind   string
	}{
		{
			name:           "valid ballot",
			voterID:        "alice@example.com",
			body:           fullBallot,
			expectedStatus: http.StatusCreated,
		},
		{
			name:           "second ballot rejected",
			voterID:        "alice@example.com",
			body:           fullBallot,
			expectedStatus: http.StatusConflict,
			expectedKind:   "already_voted",
		},
		{
			name:           "missing credentials",
			headers:        map[string]string{},
			body:           fullBallot,
			expectedStatus: http.StatusUnauthorized,
		},
		{
			name:           "wrong token",
			headers:        map[string]string{"X-Voter-ID": "bob@example.com", "X-Voter-Token": "forged"},
			body:           fullBallot,
			expectedStatus: http.StatusUnauthorized,
		},
		{
			name:           "missing selection",
			voterID:        "bob@example.com",
			body:           models.SubmitBallotRequest{Selections: map[string]string{"president": "p1"}},
			expectedStatus: http.StatusBadRequest,
			expectedKind:   "invalid_ballot",
		},
		{
			name:           "candidate from other position",
			voterID:        "bob@example.com",
			body:           models.SubmitBallotRequest{Selections: map[string]string{"president": "m1", "mayor": "m1"}},
			expectedStatus: http.StatusBadRequest,
			expectedKind:   "invalid_ballot",
		},
		{
			name:           "unregistered voter",
			voterID:        "mallory@example.com",
			body:           fullBallot,
			expectedStatus: http.StatusForbidden,
			expectedKind:   "voter_not_eligible",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			headers := tt.headers
			if headers == nil {
				headers = testutil.VoterHeaders(env.cfg, tt.voterID)
			}
			req := testutil.MakeRequest("POST", "/ballots", tt.body, headers)
			w := httptest.NewRecorder()

			handler.SubmitBallot(w, req)

			testutil.AssertStatus(t, w, tt.expectedStatus)
			if tt.expectedKind != "" {
				if resp := decodeError(t, w); resp.Kind != tt.expectedKind {
					t.Errorf("Expected kind %s, got %s (%s)", tt.expectedKind, resp.Kind, resp.Message)
				}
			}
		})
	}

	votes := testutil.ReadVotes(t, env.store)
	if len(votes) != 1 {
		t.Fatalf("Expected exactly 1 stored vote, got %d", len(votes))
	}
	if votes[0].Key != models.VoteKey(e.ID, "alice@example.com") {
		t.Errorf("Unexpected vote key %s", votes[0].Key)
	}
	if votes[0].IPHash == "" {
		t.Error("Expected IP hash on stored vote")
	}
	if !testutil.ReadVoter(t, env.store, "alice@example.com").HasVoted {
		t.Error("Expected hasVoted marker to be set")
	}
}

func TestSubmitBallot_NoActiveElection(t *testing.T) {
	env := setupEnv(t)
	handler := NewVotingHandler(env.app, env.cfg)
	testutil.CreateTestElection(t, env.store, models.StateEnded)
	testutil.CreateTestVoter(t, env.store, env.cfg, "alice@example.com")

	req := testutil.MakeRequest("POST", "/ballots", fullBallot, testutil.VoterHeaders(env.cfg, "alice@example.com"))
	w := httptest.NewRecorder()
	handler.SubmitBallot(w, req)

	testutil.AssertStatus(t, w, http.StatusConflict)
	if resp := decodeError(t, w); resp.Kind != "election_closed" {
		t.Errorf("Expected election_closed, got %s", resp.Kind)
	}
}

func TestSubmitBallot_IdempotencyKeyReplays(t *testing.T) {
	env := setupEnv(t)
	seedElection(t, env)
	handler := NewVotingHandler(env.app, env.cfg)
	testutil.CreateTestVoter(t, env.store, env.cfg, "alice@example.com")

	headers := testutil.VoterHeaders(env.cfg, "alice@example.com")
	headers["Idempotency-Key"] = "submit-1"

	var first models.SubmitBallotResponse
	w := httptest.NewRecorder()
	handler.SubmitBallot(w, testutil.MakeRequest("POST", "/ballots", fullBallot, headers))
	testutil.AssertStatus(t, w, http.StatusCreated)
	testutil.AssertJSON(t, w, &first)

	var second models.SubmitBallotResponse
	w = httptest.NewRecorder()
	handler.SubmitBallot(w, testutil.MakeRequest("POST", "/ballots", fullBallot, headers))
	testutil.AssertStatus(t, w, http.StatusOK)
	testutil.AssertJSON(t, w, &second)

	if !second.Replayed || second.VoteID != first.VoteID {
		t.Errorf("Expected replay of %s, got %+v", first.VoteID, second)
	}

	headers["Idempotency-Key"] = "submit-2"
	w = httptest.NewRecorder()
	handler.SubmitBallot(w, testutil.MakeRequest("POST", "/ballots", fullBallot, headers))
	testutil.AssertStatus(t, w, http.StatusConflict)

	if n := len(testutil.ReadVotes(t, env.store)); n != 1 {
		t.Errorf("Expected 1 vote, got %d", n)
	}
}

func TestSubmitBallot_InvalidJSON(t *testing.T) {
	env := setupEnv(t)
	handler := NewVotingHandler(env.app, env.cfg)

	req := testutil.MakeRequest("POST", "/ballots", nil, testutil.VoterHeaders(env.cfg, "alice@example.com"))
	w := httptest.NewRecorder()
	handler.SubmitBallot(w, req)

	testutil.AssertStatus(t, w, http.StatusBadRequest)
}

func TestGetMyBallot(t *testing.T) {
	env := setupEnv(t)
	e := seedElection(t, env)
	handler := NewVotingHandler(env.app, env.cfg)
	testutil.CreateTestVoter(t, env.store, env.cfg, "alice@example.com")

	get := func(voterID string) (*httptest.ResponseRecorder, models.VoterStatusResponse) {
		w := httptest.NewRecorder()
		handler.GetMyBallot(w, testutil.MakeRequest("GET", "/ballots/me", nil, testutil.VoterHeaders(env.cfg, voterID)))
		var resp models.VoterStatusResponse
		if w.Code == http.StatusOK {
			testutil.AssertJSON(t, w, &resp)
		}
		return w, resp
	}

	w, resp := get("alice@example.com")
	testutil.AssertStatus(t, w, http.StatusOK)
	if resp.HasVoted {
		t.Error("Expected has_voted false before voting")
	}

	testutil.SubmitTestVote(t, env.store, e.ID, "alice@example.com", fullBallot.Selections)

	w, resp = get("alice@example.com")
	testutil.AssertStatus(t, w, http.StatusOK)
	if !resp.HasVoted || resp.VotedAt == nil {
		t.Errorf("Expected has_voted with timestamp, got %+v", resp)
	}

	w, _ = get("nobody@example.com")
	testutil.AssertStatus(t, w, http.StatusNotFound)
}

func TestGetMyBallot_VoteWithoutMarker(t *testing.T) {
	env := setupEnv(t)
	e := seedElection(t, env)
	handler := NewVotingHandler(env.app, env.cfg)
	testutil.CreateTestVoter(t, env.store, env.cfg, "alice@example.com")

	// Vote durable, marker never written
	vote := models.Vote{
		ID:         "vote_1",
		Key:        models.VoteKey(e.ID, "alice@example.com"),
		ElectionID: e.ID,
		VoterID:    "alice@example.com",
		Selections: fullBallot.Selections,
		Timestamp:  time.Now().UTC(),
	}
	if err := docstore.WriteList(context.Background(), env.store, docstore.Votes, []models.Vote{vote}); err != nil {
		t.Fatal(err)
	}

	w := httptest.NewRecorder()
	handler.GetMyBallot(w, testutil.MakeRequest("GET", "/ballots/me", nil, testutil.VoterHeaders(env.cfg, "alice@example.com")))
	testutil.AssertStatus(t, w, http.StatusOK)

	var resp models.VoterStatusResponse
	testutil.AssertJSON(t, w, &resp)
	if !resp.HasVoted {
		t.Error("Expected has_voted from the vote log")
	}
}

func TestListCandidates(t *testing.T) {
	env := setupEnv(t)
	seedElection(t, env)
	handler := NewVotingHandler(env.app, env.cfg)

	w := httptest.NewRecorder()
	handler.ListCandidates(w, httptest.NewRequest("GET", "/candidates", nil))
	testutil.AssertStatus(t, w, http.StatusOK)

	var resp struct {
		Positions  []string           `json:"positions"`
		Candidates []models.Candidate `json:"candidates"`
	}
	testutil.AssertJSON(t, w, &resp)
	if len(resp.Candidates) != 3 {
		t.Errorf("Expected 3 candidates, got %d", len(resp.Candidates))
	}
	if len(resp.Positions) != len(testutil.TestPositions) {
		t.Errorf("Expected positions %v, got %v", testutil.TestPositions, resp.Positions)
	}
}
