// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package ballot admits and commits ballots against a document store that has
no compare-and-swap and no multi-document transactions.

# Admission

SubmitBallot runs four checks in order, each with its own error kind:

 1. an election is active and its window is open (election_closed)
 2. the selections name exactly one active candidate for every contested
    position and nothing else (invalid_ballot)
 3. the voter is registered and not blocked (voter_not_eligible)
 4. the voter's marker is not set (already_voted)

Check 4 reads data that may be stale. The authoritative check happens during
commit.

# Commit

Commits for one voter run one at a time behind a per-voter lock. Inside the
lock the voter record and the votes collection are re-read, the vote is
appended and written, and only after that write is acknowledged is the
voter's hasVoted marker set. A vote that is already present for the voter is
never duplicated; its marker is repaired instead.

If the marker write fails the ballot still counts: the receipt reports
MarkerPending and the voter is queued for the Reconciler, which makes
hasVoted equal to "a vote exists" for every voter.

# Resubmission

A client may send a submission ID (the HTTP Idempotency-Key header). Sending
the same ID again after the vote was recorded returns the original receipt
with Replayed set. Any other resubmission fails with already_voted.

Cross-process safety rests on the idempotency key and reconciliation only;
the locks here are in-process.
*/
package ballot
