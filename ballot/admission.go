// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package ballot

import (
	"context"
	"slices"
	"sort"
	"strings"

	"github.com/danielhkuo/verivote/apperr"
	"github.com/danielhkuo/verivote/docstore"
	"github.com/danielhkuo/verivote/models"
)

// admission is a submission that passed every check.
type admission struct {
	election   models.Election
	voter      models.Voter
	selections map[string]string
}

func (s *Service) admit(ctx context.Context, voterID string, selections map[string]string) (admission, error) {
	// 1. Election open
	active, err := s.elections.CurrentActive(ctx)
	if err != nil {
		return admission{}, apperr.Storage(err, "load active election")
	}
	if active == nil {
		return admission{}, apperr.New(apperr.KindElectionClosed, "no election is currently active")
	}
	now := s.now()
	if !active.WindowOpen(now) {
		if now.Before(active.StartTime) {
			return admission{}, apperr.New(apperr.KindElectionClosed, "voting for %q has not started yet", active.Title)
		}
		return admission{}, apperr.New(apperr.KindElectionClosed, "voting for %q has closed", active.Title)
	}

	// 2. Ballot complete
	candidates, err := docstore.ReadList[models.Candidate](ctx, s.updater.Store(), docstore.Candidates)
	if err != nil {
		return admission{}, apperr.Storage(err, "read candidates")
	}
	clean, err := validateSelections(s.positions, candidates, selections)
	if err != nil {
		return admission{}, err
	}

	// 3. Voter eligible
	voters, err := docstore.ReadList[models.Voter](ctx, s.updater.Store(), docstore.Voters)
	if err != nil {
		return admission{}, apperr.Storage(err, "read voters")
	}
	voter, err := eligibleVoter(voters, voterID)
	if err != nil {
		return admission{}, err
	}

	// 4. Best-effort marker pre-check; commit re-checks under the voter lock
	if voter.HasVoted {
		return admission{}, alreadyVoted(voterID)
	}

	return admission{election: *active, voter: voter, selections: clean}, nil
}

// ContestedPositions returns the configured positions that have at least one
// active candidate, in configured order.
func ContestedPositions(positions []string, candidates []models.Candidate) []string {
	var contested []string
	for _, p := range positions {
		for _, c := range candidates {
			if c.Position == p && c.Active() {
				contested = append(contested, p)
				break
			}
		}
	}
	return contested
}

func validateSelections(positions []string, candidates []models.Candidate, selections map[string]string) (map[string]string, error) {
	contested := ContestedPositions(positions, candidates)
	if len(contested) == 0 {
		return nil, apperr.New(apperr.KindInvalidBallot, "no positions are being contested")
	}

	clean := make(map[string]string, len(contested))
	for _, position := range contested {
		id := strings.TrimSpace(selections[position])
		if id == "" {
			return nil, apperr.New(apperr.KindInvalidBallot, "missing selection for %s", position)
		}
		if !validCandidate(candidates, position, id) {
			return nil, apperr.New(apperr.KindInvalidBallot, "invalid candidate %q for %s", id, position)
		}
		clean[position] = id
	}

	var extra []string
	for position := range selections {
		if !slices.Contains(contested, position) {
			extra = append(extra, position)
		}
	}
	if len(extra) > 0 {
		sort.Strings(extra)
		return nil, apperr.New(apperr.KindInvalidBallot, "%s is not a contested position", extra[0])
	}

	return clean, nil
}

func validCandidate(candidates []models.Candidate, position, id string) bool {
	for _, c := range candidates {
		if c.ID == id && c.Position == position {
			return c.Active()
		}
	}
	return false
}

func eligibleVoter(voters []models.Voter, voterID string) (models.Voter, error) {
	for _, v := range voters {
		if v.ID != voterID {
			continue
		}
		if v.Blocked() {
			return models.Voter{}, apperr.New(apperr.KindVoterNotEligible, "voter %s is blocked", voterID)
		}
		return v, nil
	}
	return models.Voter{}, apperr.New(apperr.KindVoterNotEligible, "voter %s is not registered", voterID)
}

func alreadyVoted(voterID string) error {
	return apperr.New(apperr.KindAlreadyVoted, "voter %s has already voted", voterID)
}
