// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"net/http"

	"github.com/danielhkuo/verivote/app"
	"github.com/danielhkuo/verivote/cliparse"
	"github.com/danielhkuo/verivote/middleware"
	"github.com/danielhkuo/verivote/models"
)

type ElectionHandler struct {
	app *app.App
	cfg cliparse.Config
}

func NewElectionHandler(a *app.App, cfg cliparse.Config) *ElectionHandler {
	return &ElectionHandler{app: a, cfg: cfg}
}

// Status handles GET /election/status
func (h *ElectionHandler) Status(w http.ResponseWriter, r *http.Request) {
	status, err := h.app.Elections.Status(r.Context())
	if err != nil {
		middleware.WriteError(w, err)
		return
	}
	middleware.JSONResponse(w, http.StatusOK, status)
}

// Start handles POST /admin/election/start
// An empty body starts a default election.
func (h *ElectionHandler) Start(w http.ResponseWriter, r *http.Request) {
	req, ok := parseOptionalStart(w, r)
	if !ok {
		return
	}

	e, err := h.app.Elections.Start(r.Context(), middleware.Actor(r.Context()), req)
	if err != nil {
		middleware.WriteError(w, err)
		return
	}
	middleware.JSONResponse(w, http.StatusCreated, e)
}

// CreateDraft handles POST /admin/election/draft
func (h *ElectionHandler) CreateDraft(w http.ResponseWriter, r *http.Request) {
	req, ok := parseOptionalStart(w, r)
	if !ok {
		return
	}

	e, err := h.app.Elections.CreateDraft(r.Context(), middleware.Actor(r.Context()), req)
	if err != nil {
		middleware.WriteError(w, err)
		return
	}
	middleware.JSONResponse(w, http.StatusCreated, e)
}

// End handles POST /admin/election/end
func (h *ElectionHandler) End(w http.ResponseWriter, r *http.Request) {
	e, ended, err := h.app.Elections.End(r.Context(), middleware.Actor(r.Context()))
	if err != nil {
		middleware.WriteError(w, err)
		return
	}
	if !ended {
		middleware.JSONResponse(w, http.StatusOK, models.EndElectionResponse{
			Message: "No active election",
		})
		return
	}
	middleware.JSONResponse(w, http.StatusOK, models.EndElectionResponse{
		Message:  "Election ended",
		Election: &e,
	})
}

// List handles GET /admin/elections
func (h *ElectionHandler) List(w http.ResponseWriter, r *http.Request) {
	elections, err := h.app.Elections.List(r.Context())
	if err != nil {
		middleware.WriteError(w, err)
		return
	}
	if elections == nil {
		elections = []models.Election{}
	}
	middleware.JSONResponse(w, http.StatusOK, elections)
}

func parseOptionalStart(w http.ResponseWriter, r *http.Request) (models.StartElectionRequest, bool) {
	var req models.StartElectionRequest
	if r.ContentLength == 0 {
		return req, true
	}
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return req, false
	}
	return req, true
}
