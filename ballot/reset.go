// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package ballot

import (
	"context"
	"fmt"

	"github.com/danielhkuo/verivote/apperr"
	"github.com/danielhkuo/verivote/audit"
	"github.com/danielhkuo/verivote/docstore"
	"github.com/danielhkuo/verivote/models"
)

// ResetConfirmation must be sent verbatim to clear the vote log.
const ResetConfirmation = "RESET"

type ResetReport struct {
	VotesCleared   int `json:"votes_cleared"`
	MarkersCleared int `json:"markers_cleared"`
}

// Reset clears every vote and then every hasVoted marker. Votes go first so
// an interruption leaves markers without votes, which reconciliation clears.
func (s *Service) Reset(ctx context.Context, actor string, req models.ResetRequest) (ResetReport, error) {
	if req.Confirm != ResetConfirmation {
		return ResetReport{}, apperr.New(apperr.KindConfirmationRequired, "reset requires confirm=%q", ResetConfirmation)
	}

	active, err := s.elections.CurrentActive(ctx)
	if err != nil {
		return ResetReport{}, apperr.Storage(err, "load active election")
	}
	if active != nil && !req.AllowActive {
		return ResetReport{}, apperr.New(apperr.KindConflict, "election %q is active; end it first or set allowActive", active.Title)
	}

	var report ResetReport
	err = docstore.UpdateList(ctx, s.updater, docstore.Votes, func(votes []models.Vote) ([]models.Vote, error) {
		report.VotesCleared = len(votes)
		if len(votes) == 0 {
			return nil, docstore.ErrNoChange
		}
		return []models.Vote{}, nil
	})
	if err != nil {
		return ResetReport{}, apperr.Storage(err, "clear votes")
	}

	err = docstore.UpdateList(ctx, s.updater, docstore.Voters, func(voters []models.Voter) ([]models.Voter, error) {
		report.MarkersCleared = 0
		for i := range voters {
			if voters[i].HasVoted || voters[i].VotedAt != nil {
				voters[i].HasVoted = false
				voters[i].VotedAt = nil
				report.MarkersCleared++
			}
		}
		if report.MarkersCleared == 0 {
			return nil, docstore.ErrNoChange
		}
		return voters, nil
	})
	if err != nil {
		// Votes are gone; the reconciler will clear what is left
		s.logger.Warn("reset cleared votes but not markers", "error", err)
		return report, apperr.Storage(err, "clear voter markers")
	}

	s.audit.Record(ctx, actor, audit.ActionElectionReset,
		fmt.Sprintf("Cleared %d votes and %d voter markers", report.VotesCleared, report.MarkersCleared))
	s.logger.Info("votes reset",
		"actor", actor,
		"votes_cleared", report.VotesCleared,
		"markers_cleared", report.MarkersCleared,
	)
	return report, nil
}
