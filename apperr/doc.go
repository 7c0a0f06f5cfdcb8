// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package apperr defines the error taxonomy shared by every VeriVote component.

# Kinds

Each error carries a stable, machine-readable Kind plus a human-readable message:

	election_closed       no active election, or outside the voting window
	invalid_ballot        missing, extra, or unknown selections
	voter_not_eligible    unknown or blocked voter
	already_voted         terminal; never retried
	storage_error         the document store failed after all retries
	conflict              a state transition collided with current state
	not_found             a named record does not exist
	invalid_input         malformed request parameters
	confirmation_required destructive action without explicit confirmation

# Matching

Sentinels match any error of the same kind:

	if errors.Is(err, apperr.ErrAlreadyVoted) {
		// ...
	}

KindOf extracts the kind from any wrapped error chain:

	kind := apperr.KindOf(err) // "" when err is not an *apperr.Error
*/
package apperr
