// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"net/http"
	"strconv"

	"golang.org/x/sync/errgroup"

	"github.com/danielhkuo/verivote/app"
	"github.com/danielhkuo/verivote/apperr"
	"github.com/danielhkuo/verivote/cliparse"
	"github.com/danielhkuo/verivote/middleware"
	"github.com/danielhkuo/verivote/models"
	"github.com/danielhkuo/verivote/tally"
)

// AdminHandler serves the voter roster, candidate and maintenance routes.
// Every route is wrapped in middleware.RequireAdmin by the router.
type AdminHandler struct {
	app *app.App
	cfg cliparse.Config
}

func NewAdminHandler(a *app.App, cfg cliparse.Config) *AdminHandler {
	return &AdminHandler{app: a, cfg: cfg}
}

// ListVoters handles GET /admin/voters
func (h *AdminHandler) ListVoters(w http.ResponseWriter, r *http.Request) {
	voters, err := h.app.Voters.List(r.Context())
	if err != nil {
		middleware.WriteError(w, err)
		return
	}
	if voters == nil {
		voters = []models.Voter{}
	}
	middleware.JSONResponse(w, http.StatusOK, voters)
}

// RegisterVoter handles POST /admin/voters
func (h *AdminHandler) RegisterVoter(w http.ResponseWriter, r *http.Request) {
	var req models.RegisterVoterRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	v, err := h.app.Voters.Register(r.Context(), middleware.Actor(r.Context()), req.ID)
	if err != nil {
		middleware.WriteError(w, err)
		return
	}
	middleware.JSONResponse(w, http.StatusCreated, v)
}

// SetVoterStatus handles PATCH /admin/voters/{id}/{action}
// action is block or unblock.
func (h *AdminHandler) SetVoterStatus(w http.ResponseWriter, r *http.Request) {
	var blocked bool
	switch r.PathValue("action") {
	case "block":
		blocked = true
	case "unblock":
	default:
		middleware.ErrorResponse(w, http.StatusBadRequest, "action must be block or unblock")
		return
	}

	v, err := h.app.Voters.SetStatus(r.Context(), middleware.Actor(r.Context()), r.PathValue("id"), blocked)
	if err != nil {
		middleware.WriteError(w, err)
		return
	}
	middleware.JSONResponse(w, http.StatusOK, v)
}

// ListCandidates handles GET /admin/candidates
// Unlike the public route, withdrawn candidates are included.
func (h *AdminHandler) ListCandidates(w http.ResponseWriter, r *http.Request) {
	candidates, err := h.app.Candidates.List(r.Context())
	if err != nil {
		middleware.WriteError(w, err)
		return
	}
	if candidates == nil {
		candidates = []models.Candidate{}
	}
	middleware.JSONResponse(w, http.StatusOK, candidates)
}

// GetCandidate handles GET /admin/candidates/{id}
func (h *AdminHandler) GetCandidate(w http.ResponseWriter, r *http.Request) {
	c, err := h.app.Candidates.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		middleware.WriteError(w, err)
		return
	}
	middleware.JSONResponse(w, http.StatusOK, c)
}

// AddCandidate handles POST /admin/candidates
func (h *AdminHandler) AddCandidate(w http.ResponseWriter, r *http.Request) {
	var req models.CandidateRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	c, err := h.app.Candidates.Add(r.Context(), middleware.Actor(r.Context()), req)
	if err != nil {
		middleware.WriteError(w, err)
		return
	}
	middleware.JSONResponse(w, http.StatusCreated, c)
}

// UpdateCandidate handles PUT /admin/candidates/{id}
func (h *AdminHandler) UpdateCandidate(w http.ResponseWriter, r *http.Request) {
	var req models.CandidateRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	c, err := h.app.Candidates.Update(r.Context(), middleware.Actor(r.Context()), r.PathValue("id"), req)
	if err != nil {
		middleware.WriteError(w, err)
		return
	}
	middleware.JSONResponse(w, http.StatusOK, c)
}

// RemoveCandidate handles DELETE /admin/candidates/{id}
func (h *AdminHandler) RemoveCandidate(w http.ResponseWriter, r *http.Request) {
	if err := h.app.Candidates.Remove(r.Context(), middleware.Actor(r.Context()), r.PathValue("id")); err != nil {
		middleware.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Logs handles GET /admin/logs?limit=
func (h *AdminHandler) Logs(w http.ResponseWriter, r *http.Request) {
	limit := 50
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			middleware.ErrorResponse(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = n
	}

	entries, err := h.app.Audit.Recent(r.Context(), limit)
	if err != nil {
		middleware.WriteError(w, apperr.Storage(err, "read activity log"))
		return
	}
	if entries == nil {
		entries = []models.ActivityEntry{}
	}
	middleware.JSONResponse(w, http.StatusOK, entries)
}

// Reset handles POST /admin/reset
// Body: {"confirm": "RESET", "allowActive": false}
func (h *AdminHandler) Reset(w http.ResponseWriter, r *http.Request) {
	var req models.ResetRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	report, err := h.app.Ballots.Reset(r.Context(), middleware.Actor(r.Context()), req)
	if err != nil {
		middleware.WriteError(w, err)
		return
	}
	middleware.JSONResponse(w, http.StatusOK, report)
}

// Reconcile handles POST /admin/reconcile
func (h *AdminHandler) Reconcile(w http.ResponseWriter, r *http.Request) {
	report, err := h.app.Reconciler().ReconcileAll(r.Context())
	if err != nil {
		middleware.WriteError(w, err)
		return
	}
	middleware.JSONResponse(w, http.StatusOK, models.ReconcileResponse{
		Checked:        report.Checked,
		MarkersSet:     report.MarkersSet,
		MarkersCleared: report.MarkersCleared,
	})
}

// Stats handles GET /admin/stats
func (h *AdminHandler) Stats(w http.ResponseWriter, r *http.Request) {
	var (
		voters   []models.Voter
		activity []models.ActivityEntry
		active   *models.Election
	)

	g, ctx := errgroup.WithContext(r.Context())
	g.Go(func() error {
		var err error
		voters, err = h.app.Voters.List(ctx)
		return err
	})
	g.Go(func() error {
		var err error
		activity, err = h.app.Audit.Recent(ctx, 10)
		return apperr.Storage(err, "read activity log")
	})
	g.Go(func() error {
		var err error
		active, err = h.app.Elections.CurrentActive(ctx)
		return apperr.Storage(err, "load active election")
	})
	if err := g.Wait(); err != nil {
		middleware.WriteError(w, err)
		return
	}

	// Counts follow the running election; with none, the whole log
	q := tally.Query{}
	if active != nil {
		q.ElectionID = active.ID
	}
	results, err := h.app.Tally.Results(r.Context(), q)
	if err != nil {
		middleware.WriteError(w, err)
		return
	}

	pending := results.EligibleVoters - results.TotalVotes
	if pending < 0 {
		pending = 0
	}
	if activity == nil {
		activity = []models.ActivityEntry{}
	}
	middleware.JSONResponse(w, http.StatusOK, models.StatsResponse{
		TotalVoters:       len(voters),
		TotalVotes:        results.TotalVotes,
		Turnout:           results.TurnoutPercent,
		VotersPending:     pending,
		HasActiveElection: active != nil,
		Results:           results,
		RecentActivity:    activity,
	})
}
