// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package main provides the entry point for the VeriVote API server.

VeriVote admits, commits and tallies ballots for a single active election
over a document store that has no transactions. Each voter's ballot is
committed at most once; a background reconciler keeps the voters' hasVoted
markers in step with the vote log.

# Starting the Server

	ADMIN_KEY_SALT=... VOTER_TOKEN_SALT=... DATABASE_URL=verivote.db go run .

Or with flags:

	go run . -p 3318 -t bbolt -d data/verivote.bolt

# Configuration

Required settings:

  - ADMIN_KEY_SALT (--admin-salt): Secret for admin key HMAC
  - VOTER_TOKEN_SALT (--voter-salt): Secret for voter token HMAC
  - DATABASE_URL (-d): DSN or file path for sqlite, postgres and bbolt

Optional settings:

  - PORT (-p): Server port (default: 3318)
  - STORE_TYPE (-t): memory, sqlite, postgres, bbolt, badger or jsonbin
  - POSITIONS: Comma-separated contested positions
  - RECONCILE_INTERVAL: Full reconciliation pass interval (0 disables)

A .env file is loaded first when present.

# Architecture

  - docstore: Whole-document store backends and the retry decorator
  - election: Election state machine
  - registry: Voter roster and candidates
  - ballot: Admission, atomic commit, reconciliation, reset
  - tally: Results and export
  - audit: Bounded activity log
  - app: Wiring
  - handlers, router, middleware: HTTP surface
  - cliparse: Configuration parsing
*/
package main
