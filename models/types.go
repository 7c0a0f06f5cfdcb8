// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package models

import (
	"strings"
	"time"
)

// Election state constants
const (
	StateDraft  = "draft"
	StateActive = "active"
	StateEnded  = "ended"
)

// Voter and candidate status constants
const (
	StatusActive    = "active"
	StatusBlocked   = "blocked"
	StatusWithdrawn = "withdrawn"
)

// Default contested positions
var DefaultPositions = []string{"president", "senators", "mayor"}

// Domain types

type Voter struct {
	ID           string     `json:"id"`
	HasVoted     bool       `json:"hasVoted"`
	VotedAt      *time.Time `json:"votedAt,omitempty"`
	Status       string     `json:"status"`
	RegisteredAt time.Time  `json:"registeredAt"`
	UpdatedAt    *time.Time `json:"updatedAt,omitempty"`
}

// Blocked treats an empty status as active, matching records written by
// external registration before statuses existed.
func (v Voter) Blocked() bool {
	return v.Status == StatusBlocked
}

// NormalizeVoterID trims and lower-cases an email-style identifier.
func NormalizeVoterID(id string) string {
	return strings.ToLower(strings.TrimSpace(id))
}

type Election struct {
	ID                       string     `json:"id"`
	Title                    string     `json:"title"`
	State                    string     `json:"state"`
	StartTime                time.Time  `json:"startTime"`
	EndTime                  time.Time  `json:"endTime"`
	MaxSelectionsPerPosition int        `json:"maxSelectionsPerPosition"`
	CreatedBy                string     `json:"createdBy,omitempty"`
	StartedBy                string     `json:"startedBy,omitempty"`
	StartedAt                *time.Time `json:"startedAt,omitempty"`
	EndedBy                  string     `json:"endedBy,omitempty"`
	EndedAt                  *time.Time `json:"endedAt,omitempty"`
}

// WindowOpen reports whether now falls inside [StartTime, EndTime].
func (e Election) WindowOpen(now time.Time) bool {
	return !now.Before(e.StartTime) && !now.After(e.EndTime)
}

type Candidate struct {
	ID        string     `json:"id"`
	Position  string     `json:"position"`
	Name      string     `json:"name"`
	Bio       string     `json:"bio,omitempty"`
	Photo     string     `json:"photo,omitempty"`
	Status    string     `json:"status"`
	CreatedAt time.Time  `json:"createdAt"`
	CreatedBy string     `json:"createdBy,omitempty"`
	UpdatedAt *time.Time `json:"updatedAt,omitempty"`
	UpdatedBy string     `json:"updatedBy,omitempty"`
}

func (c Candidate) Active() bool {
	return c.Status == "" || c.Status == StatusActive
}

// Vote is append-only. Key is the idempotency key electionId:voterId.
type Vote struct {
	ID           string            `json:"id"`
	Key          string            `json:"key"`
	ElectionID   string            `json:"electionId"`
	VoterID      string            `json:"voterId"`
	Selections   map[string]string `json:"selections"`
	SubmissionID string            `json:"submissionId,omitempty"`
	IPHash       string            `json:"ipHash,omitempty"`
	Timestamp    time.Time         `json:"timestamp"`
}

// VoteKey derives the idempotency key for a voter's ballot in an election.
func VoteKey(electionID, voterID string) string {
	return electionID + ":" + voterID
}

type ActivityEntry struct {
	Actor     string    `json:"actor"`
	Action    string    `json:"action"`
	Details   string    `json:"details"`
	Timestamp time.Time `json:"timestamp"`
}

// Tally types

type CandidateCount struct {
	CandidateID string `json:"candidate_id"`
	Name        string `json:"name"`
	Votes       int    `json:"votes"`
}

type PositionResult struct {
	Position       string           `json:"position"`
	Counts         []CandidateCount `json:"counts"`
	Winner         *CandidateCount  `json:"winner,omitempty"`
	Tie            bool             `json:"tie"`
	TiedCandidates []string         `json:"tied_candidates,omitempty"`
}

type Tally struct {
	ElectionID     string           `json:"election_id,omitempty"`
	Positions      []PositionResult `json:"positions"`
	TotalVotes     int              `json:"total_votes"`
	EligibleVoters int              `json:"eligible_voters"`
	TurnoutPercent int              `json:"turnout_percent"`
	ComputedAt     time.Time        `json:"computed_at"`
}

// Counts flattens the tally into position -> candidate -> votes.
func (t Tally) Counts() map[string]map[string]int {
	out := make(map[string]map[string]int, len(t.Positions))
	for _, p := range t.Positions {
		m := make(map[string]int, len(p.Counts))
		for _, c := range p.Counts {
			m[c.CandidateID] = c.Votes
		}
		out[p.Position] = m
	}
	return out
}

// Position returns the result for a single position.
func (t Tally) Position(name string) (PositionResult, bool) {
	for _, p := range t.Positions {
		if p.Position == name {
			return p, true
		}
	}
	return PositionResult{}, false
}

// Request types

type SubmitBallotRequest struct {
	Selections map[string]string `json:"selections"`
}

type StartElectionRequest struct {
	Title         string     `json:"title"`
	StartTime     *time.Time `json:"startTime,omitempty"`
	EndTime       *time.Time `json:"endTime,omitempty"`
	MaxSelections int        `json:"maxSelections,omitempty"`
	DraftID       string     `json:"draftId,omitempty"`
}

type RegisterVoterRequest struct {
	ID string `json:"id"`
}

type CandidateRequest struct {
	ID       string `json:"id"`
	Position string `json:"position"`
	Name     string `json:"name"`
	Bio      string `json:"bio,omitempty"`
	Photo    string `json:"photo,omitempty"`
	Status   string `json:"status,omitempty"`
}

type ResetRequest struct {
	Confirm     string `json:"confirm"`
	AllowActive bool   `json:"allowActive"`
}

// Response types

type SubmitBallotResponse struct {
	VoteID        string    `json:"vote_id"`
	Message       string    `json:"message"`
	Replayed      bool      `json:"replayed,omitempty"`
	MarkerPending bool      `json:"marker_pending,omitempty"`
	Timestamp     time.Time `json:"timestamp"`
}

type ElectionStatusResponse struct {
	Election   *Election `json:"election"`
	HasActive  bool      `json:"hasActive"`
	WindowOpen bool      `json:"windowOpen"`
}

type EndElectionResponse struct {
	Message  string    `json:"message"`
	Election *Election `json:"election"`
}

type VoterStatusResponse struct {
	VoterID  string     `json:"voter_id"`
	HasVoted bool       `json:"has_voted"`
	VotedAt  *time.Time `json:"voted_at,omitempty"`
	Status   string     `json:"status"`
}

type ReconcileResponse struct {
	Checked        int `json:"checked"`
	MarkersSet     int `json:"markers_set"`
	MarkersCleared int `json:"markers_cleared"`
}

type StatsResponse struct {
	TotalVoters       int             `json:"totalVoters"`
	TotalVotes        int             `json:"totalVotes"`
	Turnout           int             `json:"turnout"`
	VotersPending     int             `json:"votersPending"`
	HasActiveElection bool            `json:"hasActiveElection"`
	Results           Tally           `json:"results"`
	RecentActivity    []ActivityEntry `json:"recentActivity"`
}

// Error response

type ErrorResponse struct {
	Error   string `json:"error"`
	Kind    string `json:"kind,omitempty"`
	Message string `json:"message,omitempty"`
}
