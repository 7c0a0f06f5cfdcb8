// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"net/http"

	"github.com/danielhkuo/verivote/app"
	"github.com/danielhkuo/verivote/apperr"
	"github.com/danielhkuo/verivote/auth"
	"github.com/danielhkuo/verivote/ballot"
	"github.com/danielhkuo/verivote/cliparse"
	"github.com/danielhkuo/verivote/docstore"
	"github.com/danielhkuo/verivote/middleware"
	"github.com/danielhkuo/verivote/models"
)

type VotingHandler struct {
	app *app.App
	cfg cliparse.Config
}

func NewVotingHandler(a *app.App, cfg cliparse.Config) *VotingHandler {
	return &VotingHandler{app: a, cfg: cfg}
}

// authenticateVoter checks X-Voter-ID and X-Voter-Token and returns the
// normalized voter ID. It writes the error response itself.
func (h *VotingHandler) authenticateVoter(w http.ResponseWriter, r *http.Request) (string, bool) {
	voterID := models.NormalizeVoterID(r.Header.Get("X-Voter-ID"))
	token := r.Header.Get("X-Voter-Token")
	if voterID == "" || token == "" {
		middleware.ErrorResponse(w, http.StatusUnauthorized, "X-Voter-ID and X-Voter-Token headers required")
		return "", false
	}
	if err := auth.ValidateVoterToken(voterID, token, h.cfg.VoterSalt); err != nil {
		middleware.ErrorResponse(w, http.StatusUnauthorized, "Invalid voter token")
		return "", false
	}
	return voterID, true
}

// SubmitBallot handles POST /ballots
func (h *VotingHandler) SubmitBallot(w http.ResponseWriter, r *http.Request) {
	voterID, ok := h.authenticateVoter(w, r)
	if !ok {
		return
	}

	var req models.SubmitBallotRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	receipt, err := h.app.Ballots.SubmitBallot(r.Context(), ballot.Submission{
		VoterID:      voterID,
		Selections:   req.Selections,
		SubmissionID: r.Header.Get("Idempotency-Key"),
		IPHash:       auth.HashIP(middleware.GetClientIP(r), h.cfg.VoterSalt),
	})
	if err != nil {
		middleware.WriteError(w, err)
		return
	}

	status := http.StatusCreated
	message := "Vote submitted successfully"
	if receipt.Replayed {
		status = http.StatusOK
		message = "Vote already recorded"
	}
	middleware.JSONResponse(w, status, models.SubmitBallotResponse{
		VoteID:        receipt.Vote.ID,
		Message:       message,
		Replayed:      receipt.Replayed,
		MarkerPending: receipt.MarkerPending,
		Timestamp:     receipt.Vote.Timestamp,
	})
}

// GetMyBallot handles GET /ballots/me
// Reports whether the authenticated voter has voted, never the selections.
func (h *VotingHandler) GetMyBallot(w http.ResponseWriter, r *http.Request) {
	voterID, ok := h.authenticateVoter(w, r)
	if !ok {
		return
	}

	voter, err := h.app.Voters.Get(r.Context(), voterID)
	if err != nil {
		middleware.WriteError(w, err)
		return
	}

	// The vote log is authoritative when the marker is still pending.
	votes, err := docstore.ReadList[models.Vote](r.Context(), h.app.Store, docstore.Votes)
	if err != nil {
		middleware.WriteError(w, apperr.Storage(err, "read votes"))
		return
	}
	resp := models.VoterStatusResponse{
		VoterID:  voter.ID,
		HasVoted: voter.HasVoted,
		VotedAt:  voter.VotedAt,
		Status:   voter.Status,
	}
	for _, v := range votes {
		if v.VoterID == voter.ID {
			ts := v.Timestamp
			resp.HasVoted = true
			resp.VotedAt = &ts
			break
		}
	}
	if resp.Status == "" {
		resp.Status = models.StatusActive
	}

	middleware.JSONResponse(w, http.StatusOK, resp)
}

// ListCandidates handles GET /candidates
// Returns active candidates only.
func (h *VotingHandler) ListCandidates(w http.ResponseWriter, r *http.Request) {
	candidates, err := h.app.Candidates.List(r.Context())
	if err != nil {
		middleware.WriteError(w, err)
		return
	}

	active := make([]models.Candidate, 0, len(candidates))
	for _, c := range candidates {
		if c.Active() {
			active = append(active, c)
		}
	}

	middleware.JSONResponse(w, http.StatusOK, map[string]interface{}{
		"positions":  h.app.Candidates.Positions(),
		"candidates": active,
	})
}
