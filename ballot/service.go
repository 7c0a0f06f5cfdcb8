// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package ballot

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/danielhkuo/verivote/apperr"
	"github.com/danielhkuo/verivote/audit"
	"github.com/danielhkuo/verivote/docstore"
	"github.com/danielhkuo/verivote/metrics"
	"github.com/danielhkuo/verivote/models"
	"github.com/danielhkuo/verivote/sequencer"
)

// ElectionSource reports the active election.
type ElectionSource interface {
	CurrentActive(ctx context.Context) (*models.Election, error)
}

type Options struct {
	Positions []string
	// MarkerTimeout bounds the marker write once the vote is durable. It runs
	// detached from the caller's context.
	MarkerTimeout time.Duration
	Metrics       *metrics.Metrics
	Logger        *slog.Logger
}

// Submission is one ballot as received from the edge.
type Submission struct {
	VoterID      string
	Selections   map[string]string
	SubmissionID string
	IPHash       string
}

type Receipt struct {
	Vote          models.Vote
	Replayed      bool
	MarkerPending bool
}

type Service struct {
	updater    *docstore.Updater
	elections  ElectionSource
	audit      *audit.Log
	positions  []string
	voterLocks *sequencer.Sequencer
	reconciler *Reconciler
	markerTTL  time.Duration
	metrics    *metrics.Metrics
	logger     *slog.Logger
	now        func() time.Time
}

func NewService(u *docstore.Updater, elections ElectionSource, log *audit.Log, opts Options) *Service {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.MarkerTimeout <= 0 {
		opts.MarkerTimeout = 10 * time.Second
	}
	if len(opts.Positions) == 0 {
		opts.Positions = models.DefaultPositions
	}

	locks := sequencer.New()
	s := &Service{
		updater:    u,
		elections:  elections,
		audit:      log,
		positions:  opts.Positions,
		voterLocks: locks,
		markerTTL:  opts.MarkerTimeout,
		metrics:    opts.Metrics,
		logger:     opts.Logger,
		now:        time.Now,
	}
	s.reconciler = newReconciler(u, locks, log, opts.Metrics, opts.Logger)
	return s
}

// SetClock replaces the time source.
func (s *Service) SetClock(now func() time.Time) {
	s.now = now
}

// Reconciler repairs voter markers. It shares this service's voter locks.
func (s *Service) Reconciler() *Reconciler {
	return s.reconciler
}

// SubmitBallot admits and commits one ballot.
func (s *Service) SubmitBallot(ctx context.Context, sub Submission) (Receipt, error) {
	voterID := models.NormalizeVoterID(sub.VoterID)
	receipt, err := s.submit(ctx, voterID, sub)
	if err != nil {
		s.metrics.BallotRejected(string(apperr.KindOf(err)))
		s.logger.Info("ballot rejected",
			"voter_id", voterID,
			"kind", apperr.KindOf(err),
			"error", err,
		)
		return Receipt{}, err
	}
	return receipt, nil
}

func (s *Service) submit(ctx context.Context, voterID string, sub Submission) (Receipt, error) {
	if voterID == "" {
		return Receipt{}, apperr.New(apperr.KindVoterNotEligible, "voter id is required")
	}

	adm, err := s.admit(ctx, voterID, sub.Selections)
	if errors.Is(err, apperr.ErrAlreadyVoted) {
		return s.replay(ctx, voterID, sub.SubmissionID, err)
	}
	if err != nil {
		return Receipt{}, err
	}

	return s.commit(ctx, adm, sub)
}

// replay returns the stored vote when the submission ID matches it, and
// rejected otherwise. A marker with no vote behind it queues the voter for
// the Reconciler.
func (s *Service) replay(ctx context.Context, voterID, submissionID string, rejected error) (Receipt, error) {
	votes, err := docstore.ReadList[models.Vote](ctx, s.updater.Store(), docstore.Votes)
	if err != nil {
		s.reconciler.Enqueue(voterID)
		if submissionID != "" {
			return Receipt{}, apperr.Storage(err, "read votes")
		}
		return Receipt{}, rejected
	}
	v, ok := findVote(votes, voterID)
	if !ok {
		s.reconciler.Enqueue(voterID)
		return Receipt{}, rejected
	}
	if submissionID != "" && v.SubmissionID == submissionID {
		s.logger.Info("ballot replayed", "voter_id", voterID, "vote_id", v.ID)
		return Receipt{Vote: v, Replayed: true}, nil
	}
	return Receipt{}, rejected
}

func findVote(votes []models.Vote, voterID string) (models.Vote, bool) {
	for _, v := range votes {
		if v.VoterID == voterID {
			return v, true
		}
	}
	return models.Vote{}, false
}
