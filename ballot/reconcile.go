// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package ballot

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/danielhkuo/verivote/apperr"
	"github.com/danielhkuo/verivote/audit"
	"github.com/danielhkuo/verivote/docstore"
	"github.com/danielhkuo/verivote/metrics"
	"github.com/danielhkuo/verivote/models"
	"github.com/danielhkuo/verivote/sequencer"
)

// Report counts what a reconciliation pass looked at and changed.
type Report struct {
	Checked        int
	MarkersSet     int
	MarkersCleared int
}

func (r Report) Repairs() int {
	return r.MarkersSet + r.MarkersCleared
}

func (r *Report) add(o Report) {
	r.Checked += o.Checked
	r.MarkersSet += o.MarkersSet
	r.MarkersCleared += o.MarkersCleared
}

// Reconciler makes every voter's hasVoted marker agree with the vote log.
type Reconciler struct {
	updater *docstore.Updater
	locks   *sequencer.Sequencer
	audit   *audit.Log
	metrics *metrics.Metrics
	logger  *slog.Logger

	mu      sync.Mutex
	pending map[string]struct{}
	wake    chan struct{}
}

func newReconciler(u *docstore.Updater, locks *sequencer.Sequencer, log *audit.Log, m *metrics.Metrics, logger *slog.Logger) *Reconciler {
	return &Reconciler{
		updater: u,
		locks:   locks,
		audit:   log,
		metrics: m,
		logger:  logger,
		pending: make(map[string]struct{}),
		wake:    make(chan struct{}, 1),
	}
}

// Enqueue schedules a voter for reconciliation by Run.
func (r *Reconciler) Enqueue(voterID string) {
	r.requeue(voterID)
	select {
	case r.wake <- struct{}{}:
	default:
	}
}

func (r *Reconciler) requeue(voterID string) {
	r.mu.Lock()
	r.pending[voterID] = struct{}{}
	r.mu.Unlock()
}

// Pending lists queued voters in sorted order.
func (r *Reconciler) Pending() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, 0, len(r.pending))
	for id := range r.pending {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

// ReconcileVoter repairs one voter's marker under that voter's commit lock.
func (r *Reconciler) ReconcileVoter(ctx context.Context, voterID string) (Report, error) {
	voterID = models.NormalizeVoterID(voterID)
	release, err := r.locks.Acquire(ctx, voterID)
	if err != nil {
		return Report{}, err
	}
	defer release()

	return r.reconcile(ctx, func(id string) bool { return id == voterID })
}

// ReconcileAll repairs every voter. Pending voters are covered by the pass and
// dropped from the queue.
func (r *Reconciler) ReconcileAll(ctx context.Context) (Report, error) {
	r.mu.Lock()
	queued := r.pending
	r.pending = make(map[string]struct{})
	r.mu.Unlock()

	report, err := r.reconcile(ctx, func(string) bool { return true })
	if err != nil {
		for id := range queued {
			r.requeue(id)
		}
		return Report{}, err
	}

	if report.Repairs() > 0 {
		r.audit.Record(ctx, "system", audit.ActionMarkersReconciled,
			fmt.Sprintf("Set %d and cleared %d voter markers", report.MarkersSet, report.MarkersCleared))
	}
	return report, nil
}

// reconcile reads the vote log inside the voters update so a marker written by
// a concurrent commit is never judged against an older vote log.
func (r *Reconciler) reconcile(ctx context.Context, match func(string) bool) (Report, error) {
	var report Report
	err := docstore.UpdateList(ctx, r.updater, docstore.Voters, func(voters []models.Voter) ([]models.Voter, error) {
		report = Report{}

		votes, err := docstore.ReadList[models.Vote](ctx, r.updater.Store(), docstore.Votes)
		if err != nil {
			return nil, err
		}
		votedAt := make(map[string]time.Time, len(votes))
		for _, v := range votes {
			if at, ok := votedAt[v.VoterID]; !ok || v.Timestamp.Before(at) {
				votedAt[v.VoterID] = v.Timestamp
			}
		}

		for i := range voters {
			if !match(voters[i].ID) {
				continue
			}
			report.Checked++
			at, hasVote := votedAt[voters[i].ID]
			switch {
			case hasVote && !voters[i].HasVoted:
				voters[i].HasVoted = true
				voters[i].VotedAt = &at
				report.MarkersSet++
			case !hasVote && voters[i].HasVoted:
				voters[i].HasVoted = false
				voters[i].VotedAt = nil
				report.MarkersCleared++
			}
		}

		if report.Repairs() == 0 {
			return nil, docstore.ErrNoChange
		}
		return voters, nil
	})
	if err != nil {
		return Report{}, apperr.Storage(err, "reconcile voter markers")
	}

	for i := 0; i < report.MarkersSet; i++ {
		r.metrics.ReconcileRepair(metrics.RepairMarkerSet)
	}
	for i := 0; i < report.MarkersCleared; i++ {
		r.metrics.ReconcileRepair(metrics.RepairMarkerCleared)
	}
	if report.Repairs() > 0 {
		r.logger.Info("voter markers reconciled",
			"checked", report.Checked,
			"markers_set", report.MarkersSet,
			"markers_cleared", report.MarkersCleared,
		)
	}
	return report, nil
}

// Run drains queued voters as they arrive and makes a full pass every
// interval. A zero interval disables the full pass. Run returns when ctx ends.
func (r *Reconciler) Run(ctx context.Context, interval time.Duration) {
	var tick <-chan time.Time
	if interval > 0 {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		tick = ticker.C
	}

	for {
		select {
		case <-ctx.Done():
			return
		case <-r.wake:
			r.drain(ctx)
		case <-tick:
			if _, err := r.ReconcileAll(ctx); err != nil && ctx.Err() == nil {
				r.logger.Warn("reconciliation pass failed", "error", err)
			}
		}
	}
}

func (r *Reconciler) drain(ctx context.Context) Report {
	var total Report
	for _, id := range r.takePending() {
		report, err := r.ReconcileVoter(ctx, id)
		if err != nil {
			// Retried on the next wake or full pass
			r.requeue(id)
			if ctx.Err() == nil {
				r.logger.Warn("voter reconciliation failed", "voter_id", id, "error", err)
			}
			continue
		}
		total.add(report)
	}
	return total
}

func (r *Reconciler) takePending() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, 0, len(r.pending))
	for id := range r.pending {
		out = append(out, id)
	}
	r.pending = make(map[string]struct{})
	sort.Strings(out)
	return out
}
