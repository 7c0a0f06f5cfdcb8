// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package audit

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/danielhkuo/verivote/docstore"
	"github.com/danielhkuo/verivote/models"
)

const DefaultCapacity = 100

// Action names
const (
	ActionElectionStarted   = "election_started"
	ActionElectionDrafted   = "election_drafted"
	ActionElectionEnded     = "election_ended"
	ActionVoterRegistered   = "voter_registered"
	ActionVoterBlocked      = "voter_blocked"
	ActionVoterUnblocked    = "voter_unblocked"
	ActionCandidateAdded    = "candidate_added"
	ActionCandidateUpdated  = "candidate_updated"
	ActionCandidateRemoved  = "candidate_removed"
	ActionElectionReset     = "election_reset"
	ActionMarkersReconciled = "markers_reconciled"
)

type Log struct {
	updater  *docstore.Updater
	capacity int
	logger   *slog.Logger
	now      func() time.Time
}

func New(u *docstore.Updater, capacity int, logger *slog.Logger) *Log {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Log{updater: u, capacity: capacity, logger: logger, now: time.Now}
}

// SetClock replaces the time source.
func (l *Log) SetClock(now func() time.Time) {
	l.now = now
}

// Append adds one entry, dropping the oldest entries beyond capacity.
func (l *Log) Append(ctx context.Context, actor, action, details string) error {
	entry := models.ActivityEntry{
		Actor:     actor,
		Action:    action,
		Details:   details,
		Timestamp: l.now().UTC(),
	}
	err := docstore.UpdateList(ctx, l.updater, docstore.Activities, func(entries []models.ActivityEntry) ([]models.ActivityEntry, error) {
		entries = append(entries, entry)
		if over := len(entries) - l.capacity; over > 0 {
			entries = entries[over:]
		}
		return entries, nil
	})
	if err != nil {
		return fmt.Errorf("append activity %s: %w", action, err)
	}
	return nil
}

// Record appends an entry for a transition that already completed. A failure
// is logged, not returned.
func (l *Log) Record(ctx context.Context, actor, action, details string) {
	if err := l.Append(ctx, actor, action, details); err != nil {
		l.logger.Warn("activity log append failed",
			"actor", actor,
			"action", action,
			"error", err,
		)
	}
}

// Recent returns up to limit entries, newest first.
func (l *Log) Recent(ctx context.Context, limit int) ([]models.ActivityEntry, error) {
	entries, err := docstore.ReadList[models.ActivityEntry](ctx, l.updater.Store(), docstore.Activities)
	if err != nil {
		return nil, fmt.Errorf("read activities: %w", err)
	}

	// Stable so entries with equal timestamps keep newest-appended first
	reversed := make([]models.ActivityEntry, len(entries))
	for i, e := range entries {
		reversed[len(entries)-1-i] = e
	}
	sort.SliceStable(reversed, func(i, j int) bool {
		return reversed[i].Timestamp.After(reversed[j].Timestamp)
	})

	if limit > 0 && len(reversed) > limit {
		reversed = reversed[:limit]
	}
	return reversed, nil
}
