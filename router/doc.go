// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package router defines HTTP routes for the VeriVote API.

# Route Registration

NewRouter creates a configured http.ServeMux over a wired app:

	mux := router.NewRouter(a, cfg)

# Endpoints

Health and metrics:

	GET /health
	GET /metrics

Public:

	GET  /election/status - Active election and window
	GET  /results         - Tally (?election_id=, ?positions=)
	GET  /candidates      - Active candidates
	POST /ballots         - Submit ballot (X-Voter-ID, X-Voter-Token)
	GET  /ballots/me      - Has the caller voted

Admin (X-Admin-Email and X-Admin-Key):

	POST   /admin/election/start
	POST   /admin/election/draft
	POST   /admin/election/end
	GET    /admin/elections
	GET    /admin/voters
	POST   /admin/voters
	PATCH  /admin/voters/{id}/{block|unblock}
	GET    /admin/candidates
	POST   /admin/candidates
	GET    /admin/candidates/{id}
	PUT    /admin/candidates/{id}
	DELETE /admin/candidates/{id}
	GET    /admin/logs?limit=
	GET    /admin/results/export?format=csv|json
	POST   /admin/reset
	POST   /admin/reconcile
	GET    /admin/stats
*/
package router
