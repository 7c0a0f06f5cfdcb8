// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package handlers contains the HTTP request handlers for the VeriVote API.

# Handler Types

Each handler is a struct holding the wired *app.App and the config:

  - VotingHandler: ballot submission, the voter's own status, candidate list
  - ElectionHandler: election status and admin lifecycle
  - ResultsHandler: tallies and admin export
  - AdminHandler: voter roster, candidates, logs, reset, reconciliation, stats

	votingHandler := handlers.NewVotingHandler(a, cfg)

# Voting Flow

	POST /ballots     → SubmitBallot
	GET  /ballots/me  → GetMyBallot
	GET  /candidates  → ListCandidates

Voters authenticate with X-Voter-ID and X-Voter-Token. An optional
Idempotency-Key header makes a retried submission return the original
receipt instead of already_voted.

# Errors

Handlers pass service errors to middleware.WriteError, which maps the apperr
kind to a status code. Handler-level validation (missing headers, bad JSON)
uses middleware.ErrorResponse directly.
*/
package handlers
