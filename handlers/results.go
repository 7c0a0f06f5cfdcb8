// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/danielhkuo/verivote/app"
	"github.com/danielhkuo/verivote/cliparse"
	"github.com/danielhkuo/verivote/middleware"
	"github.com/danielhkuo/verivote/tally"
)

type ResultsHandler struct {
	app *app.App
	cfg cliparse.Config
}

func NewResultsHandler(a *app.App, cfg cliparse.Config) *ResultsHandler {
	return &ResultsHandler{app: a, cfg: cfg}
}

// query reads ?election_id= and ?positions=a,b
func query(r *http.Request) tally.Query {
	q := tally.Query{ElectionID: r.URL.Query().Get("election_id")}
	for _, p := range strings.Split(r.URL.Query().Get("positions"), ",") {
		if p = strings.TrimSpace(p); p != "" {
			q.Positions = append(q.Positions, p)
		}
	}
	return q
}

// GetResults handles GET /results
func (h *ResultsHandler) GetResults(w http.ResponseWriter, r *http.Request) {
	t, err := h.app.Tally.Results(r.Context(), query(r))
	if err != nil {
		middleware.WriteError(w, err)
		return
	}
	middleware.JSONResponse(w, http.StatusOK, t)
}

// Export handles GET /admin/results/export?format=csv|json
func (h *ResultsHandler) Export(w http.ResponseWriter, r *http.Request) {
	format := r.URL.Query().Get("format")
	if format == "" {
		format = "csv"
	}
	if format != "csv" && format != "json" {
		middleware.ErrorResponse(w, http.StatusBadRequest, "format must be csv or json")
		return
	}

	t, err := h.app.Tally.Results(r.Context(), query(r))
	if err != nil {
		middleware.WriteError(w, err)
		return
	}

	if format == "json" {
		w.Header().Set("Content-Disposition", `attachment; filename="election_results.json"`)
		middleware.JSONResponse(w, http.StatusOK, t)
		return
	}

	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", `attachment; filename="election_results.csv"`)
	w.WriteHeader(http.StatusOK)
	if err := tally.WriteCSV(w, t); err != nil {
		slog.Error("failed to write csv export", "error", err)
	}
}
