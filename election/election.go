// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package election

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/danielhkuo/verivote/apperr"
	"github.com/danielhkuo/verivote/audit"
	"github.com/danielhkuo/verivote/auth"
	"github.com/danielhkuo/verivote/docstore"
	"github.com/danielhkuo/verivote/models"
)

const (
	DefaultTitle    = "General Election"
	DefaultDuration = 7 * 24 * time.Hour
)

type Machine struct {
	updater       *docstore.Updater
	audit         *audit.Log
	replaceActive bool
	logger        *slog.Logger
	now           func() time.Time
}

func New(u *docstore.Updater, log *audit.Log, replaceActive bool, logger *slog.Logger) *Machine {
	if logger == nil {
		logger = slog.Default()
	}
	return &Machine{
		updater:       u,
		audit:         log,
		replaceActive: replaceActive,
		logger:        logger,
		now:           time.Now,
	}
}

// SetClock replaces the time source.
func (m *Machine) SetClock(now func() time.Time) {
	m.now = now
}

// window resolves the request's times against the defaults.
func (m *Machine) window(req models.StartElectionRequest, now time.Time) (time.Time, time.Time, int, error) {
	start := now
	if req.StartTime != nil {
		start = req.StartTime.UTC()
	}
	end := start.Add(DefaultDuration)
	if req.EndTime != nil {
		end = req.EndTime.UTC()
	}
	if !end.After(start) {
		return time.Time{}, time.Time{}, 0, apperr.New(apperr.KindInvalidInput, "end time must be after start time")
	}

	maxSel := req.MaxSelections
	if maxSel == 0 {
		maxSel = 1
	}
	if maxSel < 0 {
		return time.Time{}, time.Time{}, 0, apperr.New(apperr.KindInvalidInput, "maxSelections must be positive")
	}
	return start, end, maxSel, nil
}

// Start activates a new election, or promotes the draft named by req.DraftID.
func (m *Machine) Start(ctx context.Context, actor string, req models.StartElectionRequest) (models.Election, error) {
	now := m.now().UTC()
	start, end, maxSel, err := m.window(req, now)
	if err != nil {
		return models.Election{}, err
	}

	var started models.Election
	var replaced []models.Election

	err = docstore.UpdateList(ctx, m.updater, docstore.Elections, func(elections []models.Election) ([]models.Election, error) {
		replaced = replaced[:0]
		if !m.replaceActive {
			for _, e := range elections {
				if e.State == models.StateActive {
					return nil, apperr.New(apperr.KindConflict, "election %q is already active; end it first", e.Title)
				}
			}
		}

		for i := range elections {
			if elections[i].State != models.StateActive {
				continue
			}
			endedAt := now
			elections[i].State = models.StateEnded
			elections[i].EndedAt = &endedAt
			elections[i].EndedBy = actor
			replaced = append(replaced, elections[i])
		}

		if req.DraftID != "" {
			idx := -1
			for i := range elections {
				if elections[i].ID == req.DraftID {
					idx = i
					break
				}
			}
			if idx < 0 {
				return nil, apperr.New(apperr.KindNotFound, "election %s not found", req.DraftID)
			}
			draft := &elections[idx]
			if draft.State != models.StateDraft {
				return nil, apperr.New(apperr.KindConflict, "election %s is %s, only drafts can be started", draft.ID, draft.State)
			}
			if title := strings.TrimSpace(req.Title); title != "" {
				draft.Title = title
			}
			if req.StartTime != nil || draft.StartTime.IsZero() {
				draft.StartTime = start
			}
			if req.EndTime != nil || draft.EndTime.IsZero() {
				draft.EndTime = end
			}
			if !draft.EndTime.After(draft.StartTime) {
				return nil, apperr.New(apperr.KindInvalidInput, "end time must be after start time")
			}
			if req.MaxSelections != 0 || draft.MaxSelectionsPerPosition == 0 {
				draft.MaxSelectionsPerPosition = maxSel
			}
			startedAt := now
			draft.State = models.StateActive
			draft.StartedBy = actor
			draft.StartedAt = &startedAt
			started = *draft
			return elections, nil
		}

		title := strings.TrimSpace(req.Title)
		if title == "" {
			title = DefaultTitle
		}
		startedAt := now
		started = models.Election{
			ID:                       auth.NewID("election"),
			Title:                    title,
			State:                    models.StateActive,
			StartTime:                start,
			EndTime:                  end,
			MaxSelectionsPerPosition: maxSel,
			CreatedBy:                actor,
			StartedBy:                actor,
			StartedAt:                &startedAt,
		}
		return append(elections, started), nil
	})
	if err != nil {
		return models.Election{}, apperr.Storage(err, "start election")
	}

	for _, e := range replaced {
		m.audit.Record(ctx, actor, audit.ActionElectionEnded, fmt.Sprintf("Ended %q (replaced by %q)", e.Title, started.Title))
	}
	m.audit.Record(ctx, actor, audit.ActionElectionStarted, fmt.Sprintf("Started %q (%s to %s)",
		started.Title, started.StartTime.Format(time.RFC3339), started.EndTime.Format(time.RFC3339)))

	m.logger.Info("election started",
		"election_id", started.ID,
		"title", started.Title,
		"replaced", len(replaced),
		"actor", actor,
	)
	return started, nil
}

// CreateDraft records an election that is not yet open for voting.
func (m *Machine) CreateDraft(ctx context.Context, actor string, req models.StartElectionRequest) (models.Election, error) {
	now := m.now().UTC()
	start, end, maxSel, err := m.window(req, now)
	if err != nil {
		return models.Election{}, err
	}

	title := strings.TrimSpace(req.Title)
	if title == "" {
		title = DefaultTitle
	}
	draft := models.Election{
		ID:                       auth.NewID("election"),
		Title:                    title,
		State:                    models.StateDraft,
		StartTime:                start,
		EndTime:                  end,
		MaxSelectionsPerPosition: maxSel,
		CreatedBy:                actor,
	}

	err = docstore.UpdateList(ctx, m.updater, docstore.Elections, func(elections []models.Election) ([]models.Election, error) {
		return append(elections, draft), nil
	})
	if err != nil {
		return models.Election{}, apperr.Storage(err, "create draft election")
	}

	m.audit.Record(ctx, actor, audit.ActionElectionDrafted, fmt.Sprintf("Drafted %q", draft.Title))
	return draft, nil
}

// End closes the active election. ended is false when nothing was active.
func (m *Machine) End(ctx context.Context, actor string) (models.Election, bool, error) {
	now := m.now().UTC()
	var closed models.Election
	found := false

	err := docstore.UpdateList(ctx, m.updater, docstore.Elections, func(elections []models.Election) ([]models.Election, error) {
		found = false
		for i := range elections {
			if elections[i].State != models.StateActive {
				continue
			}
			endedAt := now
			elections[i].State = models.StateEnded
			elections[i].EndedAt = &endedAt
			elections[i].EndedBy = actor
			closed = elections[i]
			found = true
		}
		if !found {
			return nil, docstore.ErrNoChange
		}
		return elections, nil
	})
	if err != nil {
		return models.Election{}, false, apperr.Storage(err, "end election")
	}
	if !found {
		return models.Election{}, false, nil
	}

	m.audit.Record(ctx, actor, audit.ActionElectionEnded, fmt.Sprintf("Ended %q", closed.Title))
	m.logger.Info("election ended", "election_id", closed.ID, "actor", actor)
	return closed, true, nil
}

// CurrentActive returns the active election, or nil.
func (m *Machine) CurrentActive(ctx context.Context) (*models.Election, error) {
	elections, err := m.List(ctx)
	if err != nil {
		return nil, err
	}
	return pickActive(elections, m.logger), nil
}

func (m *Machine) Status(ctx context.Context) (models.ElectionStatusResponse, error) {
	active, err := m.CurrentActive(ctx)
	if err != nil {
		return models.ElectionStatusResponse{}, err
	}
	if active == nil {
		return models.ElectionStatusResponse{}, nil
	}
	return models.ElectionStatusResponse{
		Election:   active,
		HasActive:  true,
		WindowOpen: active.WindowOpen(m.now()),
	}, nil
}

func (m *Machine) List(ctx context.Context) ([]models.Election, error) {
	elections, err := docstore.ReadList[models.Election](ctx, m.updater.Store(), docstore.Elections)
	if err != nil {
		return nil, apperr.Storage(err, "read elections")
	}
	return elections, nil
}

// pickActive returns the active election. Writers in other processes can leave
// more than one; the most recently started wins.
func pickActive(elections []models.Election, logger *slog.Logger) *models.Election {
	var active *models.Election
	n := 0
	for i := range elections {
		e := elections[i]
		if e.State != models.StateActive {
			continue
		}
		n++
		if active == nil || startedAt(e).After(startedAt(*active)) {
			active = &e
		}
	}
	if n > 1 {
		logger.Warn("multiple active elections found", "count", n, "using", active.ID)
	}
	return active
}

func startedAt(e models.Election) time.Time {
	if e.StartedAt != nil {
		return *e.StartedAt
	}
	return e.StartTime
}
