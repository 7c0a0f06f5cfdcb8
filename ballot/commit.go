// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package ballot

import (
	"context"
	"fmt"
	"time"

	"github.com/danielhkuo/verivote/apperr"
	"github.com/danielhkuo/verivote/auth"
	"github.com/danielhkuo/verivote/docstore"
	"github.com/danielhkuo/verivote/models"
)

func (s *Service) commit(ctx context.Context, adm admission, sub Submission) (Receipt, error) {
	voterID := adm.voter.ID

	release, err := s.voterLocks.Acquire(ctx, voterID)
	if err != nil {
		return Receipt{}, apperr.Storage(err, "wait for voter %s", voterID)
	}
	defer release()

	began := time.Now()
	defer func() { s.metrics.ObserveCommit(time.Since(began)) }()

	// Fresh read: another process may have committed since admission
	voters, err := docstore.ReadList[models.Voter](ctx, s.updater.Store(), docstore.Voters)
	if err != nil {
		return Receipt{}, apperr.Storage(err, "read voters")
	}
	voter, err := eligibleVoter(voters, voterID)
	if err != nil {
		return Receipt{}, err
	}
	if voter.HasVoted {
		return s.resolveExisting(ctx, voterID, sub.SubmissionID)
	}

	vote := models.Vote{
		ID:           auth.NewID("vote"),
		Key:          models.VoteKey(adm.election.ID, voterID),
		ElectionID:   adm.election.ID,
		VoterID:      voterID,
		Selections:   adm.selections,
		SubmissionID: sub.SubmissionID,
		IPHash:       sub.IPHash,
		Timestamp:    s.now().UTC(),
	}

	var existing *models.Vote
	err = docstore.UpdateList(ctx, s.updater, docstore.Votes, func(votes []models.Vote) ([]models.Vote, error) {
		existing = nil
		for i := range votes {
			if votes[i].VoterID == voterID || votes[i].Key == vote.Key {
				existing = &votes[i]
				return nil, docstore.ErrNoChange
			}
		}
		return append(votes, vote), nil
	})
	if err != nil {
		// The write may have landed with its acknowledgment lost
		s.reconciler.Enqueue(voterID)
		return Receipt{}, apperr.Storage(err, "record vote")
	}

	if existing != nil {
		// Vote without marker: repair, never duplicate
		if _, err := s.setMarker(ctx, voterID, existing.Timestamp); err != nil {
			s.reconciler.Enqueue(voterID)
			s.logger.Warn("marker repair failed", "voter_id", voterID, "error", err)
		}
		return s.matchExisting(*existing, sub.SubmissionID)
	}

	receipt := Receipt{Vote: vote}
	if _, err := s.setMarker(ctx, voterID, vote.Timestamp); err != nil {
		receipt.MarkerPending = true
		s.reconciler.Enqueue(voterID)
		s.logger.Warn("vote recorded but marker write failed",
			"voter_id", voterID,
			"vote_id", vote.ID,
			"error", err,
		)
	}

	s.metrics.BallotCommitted()
	s.logger.Info("ballot committed",
		"voter_id", voterID,
		"vote_id", vote.ID,
		"election_id", vote.ElectionID,
		"marker_pending", receipt.MarkerPending,
	)
	return receipt, nil
}

// resolveExisting handles a voter whose marker is already set.
func (s *Service) resolveExisting(ctx context.Context, voterID, submissionID string) (Receipt, error) {
	votes, err := docstore.ReadList[models.Vote](ctx, s.updater.Store(), docstore.Votes)
	if err != nil {
		return Receipt{}, apperr.Storage(err, "read votes")
	}
	v, ok := findVote(votes, voterID)
	if !ok {
		// Marker without vote; the reconciler decides which side is right
		s.reconciler.Enqueue(voterID)
		return Receipt{}, alreadyVoted(voterID)
	}
	return s.matchExisting(v, submissionID)
}

func (s *Service) matchExisting(v models.Vote, submissionID string) (Receipt, error) {
	if submissionID != "" && v.SubmissionID == submissionID {
		return Receipt{Vote: v, Replayed: true}, nil
	}
	return Receipt{}, alreadyVoted(v.VoterID)
}

// setMarker sets hasVoted for the voter. It runs detached from the caller so
// an aborted request cannot strand a durable vote without its marker.
func (s *Service) setMarker(ctx context.Context, voterID string, votedAt time.Time) (bool, error) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.markerTTL)
	defer cancel()

	changed := false
	err := docstore.UpdateList(ctx, s.updater, docstore.Voters, func(voters []models.Voter) ([]models.Voter, error) {
		changed = false
		for i := range voters {
			if voters[i].ID != voterID {
				continue
			}
			if voters[i].HasVoted {
				return nil, docstore.ErrNoChange
			}
			at := votedAt
			voters[i].HasVoted = true
			voters[i].VotedAt = &at
			changed = true
			return voters, nil
		}
		return nil, fmt.Errorf("voter %s missing from roster", voterID)
	})
	if err != nil {
		return false, err
	}
	return changed, nil
}
