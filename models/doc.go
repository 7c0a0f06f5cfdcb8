// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package models defines domain, request, and response types.

# Domain Types

Records persisted as JSON arrays in the document store:

  - Voter: stable external id, hasVoted marker, status (active/blocked)
  - Election: lifecycle state and admission window
  - Candidate: position, name, status (active/withdrawn)
  - Vote: append-only ballot with one selection per contested position
  - ActivityEntry: audit log record

# Derived Types

Computed fresh on every query, never persisted:

  - Tally: per-position counts, winners, ties, turnout
  - PositionResult, CandidateCount

# Constants

Election states:

	StateDraft  = "draft"
	StateActive = "active"
	StateEnded  = "ended"

Voter and candidate status:

	StatusActive    = "active"
	StatusBlocked   = "blocked"
	StatusWithdrawn = "withdrawn"

# Idempotency Key

Every Vote carries VoteKey(electionID, voterID) so duplicate commit attempts
collapse onto the same record.
*/
package models
