// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package router

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/danielhkuo/verivote/app"
	"github.com/danielhkuo/verivote/cliparse"
	"github.com/danielhkuo/verivote/handlers"
	"github.com/danielhkuo/verivote/middleware"
)

func NewRouter(a *app.App, cfg cliparse.Config) *http.ServeMux {
	mux := http.NewServeMux()

	// Initialize handlers
	votingHandler := handlers.NewVotingHandler(a, cfg)
	electionHandler := handlers.NewElectionHandler(a, cfg)
	resultsHandler := handlers.NewResultsHandler(a, cfg)
	adminHandler := handlers.NewAdminHandler(a, cfg)

	admin := func(h http.HandlerFunc) http.HandlerFunc {
		return middleware.WithLogging(middleware.RequireAdmin(cfg.AdminKeySalt, h))
	}

	// Health check
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})
	mux.Handle("GET /metrics", promhttp.HandlerFor(a.Registry, promhttp.HandlerOpts{}))

	// Public election data
	mux.HandleFunc("GET /election/status", middleware.WithLogging(electionHandler.Status))
	mux.HandleFunc("GET /results", middleware.WithLogging(resultsHandler.GetResults))
	mux.HandleFunc("GET /candidates", middleware.WithLogging(votingHandler.ListCandidates))

	// Voting (requires X-Voter-ID and X-Voter-Token)
	mux.HandleFunc("POST /ballots", middleware.WithLogging(votingHandler.SubmitBallot))
	mux.HandleFunc("GET /ballots/me", middleware.WithLogging(votingHandler.GetMyBallot))

	// Election lifecycle (admin)
	mux.HandleFunc("POST /admin/election/start", admin(electionHandler.Start))
	mux.HandleFunc("POST /admin/election/draft", admin(electionHandler.CreateDraft))
	mux.HandleFunc("POST /admin/election/end", admin(electionHandler.End))
	mux.HandleFunc("GET /admin/elections", admin(electionHandler.List))

	// Voter roster and candidates (admin)
	mux.HandleFunc("GET /admin/voters", admin(adminHandler.ListVoters))
	mux.HandleFunc("POST /admin/voters", admin(adminHandler.RegisterVoter))
	mux.HandleFunc("PATCH /admin/voters/{id}/{action}", admin(adminHandler.SetVoterStatus))
	mux.HandleFunc("GET /admin/candidates", admin(adminHandler.ListCandidates))
	mux.HandleFunc("POST /admin/candidates", admin(adminHandler.AddCandidate))
	mux.HandleFunc("GET /admin/candidates/{id}", admin(adminHandler.GetCandidate))
	mux.HandleFunc("PUT /admin/candidates/{id}", admin(adminHandler.UpdateCandidate))
	mux.HandleFunc("DELETE /admin/candidates/{id}", admin(adminHandler.RemoveCandidate))

	// Maintenance (admin)
	mux.HandleFunc("GET /admin/logs", admin(adminHandler.Logs))
	mux.HandleFunc("GET /admin/results/export", admin(resultsHandler.Export))
	mux.HandleFunc("POST /admin/reset", admin(adminHandler.Reset))
	mux.HandleFunc("POST /admin/reconcile", admin(adminHandler.Reconcile))
	mux.HandleFunc("GET /admin/stats", admin(adminHandler.Stats))

	// Root endpoint
	mux.HandleFunc("GET /{$}", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("verivote API v1"))
	})

	return mux
}
