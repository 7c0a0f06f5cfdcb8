// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

// Package tally computes results from the vote log. Nothing is cached;
// every call recounts from the votes, candidates and voters collections.
//
// Ties are never resolved silently: PositionResult.Tie is set and every tied
// candidate is listed. The reported winner of a tie is the lexically lowest
// candidate ID.
package tally
