// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package registry

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/danielhkuo/verivote/apperr"
	"github.com/danielhkuo/verivote/audit"
	"github.com/danielhkuo/verivote/auth"
	"github.com/danielhkuo/verivote/docstore"
	"github.com/danielhkuo/verivote/models"
)

// ActiveChecker reports the active election, if any.
type ActiveChecker interface {
	CurrentActive(ctx context.Context) (*models.Election, error)
}

type Candidates struct {
	updater   *docstore.Updater
	audit     *audit.Log
	elections ActiveChecker
	positions []string
	now       func() time.Time
}

func NewCandidates(u *docstore.Updater, log *audit.Log, elections ActiveChecker, positions []string) *Candidates {
	return &Candidates{
		updater:   u,
		audit:     log,
		elections: elections,
		positions: positions,
		now:       time.Now,
	}
}

func (c *Candidates) Positions() []string {
	return slices.Clone(c.positions)
}

func (c *Candidates) List(ctx context.Context) ([]models.Candidate, error) {
	candidates, err := docstore.ReadList[models.Candidate](ctx, c.updater.Store(), docstore.Candidates)
	if err != nil {
		return nil, apperr.Storage(err, "read candidates")
	}
	return candidates, nil
}

func (c *Candidates) Get(ctx context.Context, id string) (models.Candidate, error) {
	candidates, err := c.List(ctx)
	if err != nil {
		return models.Candidate{}, err
	}
	for _, cand := range candidates {
		if cand.ID == id {
			return cand, nil
		}
	}
	return models.Candidate{}, apperr.New(apperr.KindNotFound, "candidate %s not found", id)
}

func (c *Candidates) Add(ctx context.Context, actor string, req models.CandidateRequest) (models.Candidate, error) {
	if err := c.validate(req); err != nil {
		return models.Candidate{}, err
	}
	if err := c.ensureEditable(ctx); err != nil {
		return models.Candidate{}, err
	}

	cand := models.Candidate{
		ID:        strings.TrimSpace(req.ID),
		Position:  req.Position,
		Name:      strings.TrimSpace(req.Name),
		Bio:       req.Bio,
		Photo:     req.Photo,
		Status:    req.Status,
		CreatedAt: c.now().UTC(),
		CreatedBy: actor,
	}
	if cand.ID == "" {
		cand.ID = auth.NewID("candidate")
	}
	if cand.Status == "" {
		cand.Status = models.StatusActive
	}

	err := docstore.UpdateList(ctx, c.updater, docstore.Candidates, func(candidates []models.Candidate) ([]models.Candidate, error) {
		for _, existing := range candidates {
			if existing.ID == cand.ID {
				return nil, apperr.New(apperr.KindConflict, "candidate %s already exists", cand.ID)
			}
		}
		return append(candidates, cand), nil
	})
	if err != nil {
		return models.Candidate{}, apperr.Storage(err, "add candidate")
	}

	c.audit.Record(ctx, actor, audit.ActionCandidateAdded, fmt.Sprintf("Added %s for %s", cand.Name, cand.Position))
	return cand, nil
}

// Update replaces the editable fields of a candidate. The ID never changes.
func (c *Candidates) Update(ctx context.Context, actor, id string, req models.CandidateRequest) (models.Candidate, error) {
	if err := c.validate(req); err != nil {
		return models.Candidate{}, err
	}
	if err := c.ensureEditable(ctx); err != nil {
		return models.Candidate{}, err
	}

	var updated models.Candidate
	err := docstore.UpdateList(ctx, c.updater, docstore.Candidates, func(candidates []models.Candidate) ([]models.Candidate, error) {
		for i := range candidates {
			if candidates[i].ID != id {
				continue
			}
			now := c.now().UTC()
			candidates[i].Position = req.Position
			candidates[i].Name = strings.TrimSpace(req.Name)
			candidates[i].Bio = req.Bio
			candidates[i].Photo = req.Photo
			if req.Status != "" {
				candidates[i].Status = req.Status
			}
			candidates[i].UpdatedAt = &now
			candidates[i].UpdatedBy = actor
			updated = candidates[i]
			return candidates, nil
		}
		return nil, apperr.New(apperr.KindNotFound, "candidate %s not found", id)
	})
	if err != nil {
		return models.Candidate{}, apperr.Storage(err, "update candidate")
	}

	c.audit.Record(ctx, actor, audit.ActionCandidateUpdated, fmt.Sprintf("Updated %s", updated.Name))
	return updated, nil
}

func (c *Candidates) Remove(ctx context.Context, actor, id string) error {
	if err := c.ensureEditable(ctx); err != nil {
		return err
	}

	var removed models.Candidate
	err := docstore.UpdateList(ctx, c.updater, docstore.Candidates, func(candidates []models.Candidate) ([]models.Candidate, error) {
		for i := range candidates {
			if candidates[i].ID == id {
				removed = candidates[i]
				return slices.Delete(candidates, i, i+1), nil
			}
		}
		return nil, apperr.New(apperr.KindNotFound, "candidate %s not found", id)
	})
	if err != nil {
		return apperr.Storage(err, "remove candidate")
	}

	c.audit.Record(ctx, actor, audit.ActionCandidateRemoved, fmt.Sprintf("Removed %s", removed.Name))
	return nil
}

func (c *Candidates) validate(req models.CandidateRequest) error {
	if strings.TrimSpace(req.Name) == "" {
		return apperr.New(apperr.KindInvalidInput, "candidate name is required")
	}
	if !slices.Contains(c.positions, req.Position) {
		return apperr.New(apperr.KindInvalidInput, "unknown position %q", req.Position)
	}
	switch req.Status {
	case "", models.StatusActive, models.StatusWithdrawn:
	default:
		return apperr.New(apperr.KindInvalidInput, "invalid candidate status %q", req.Status)
	}
	return nil
}

func (c *Candidates) ensureEditable(ctx context.Context) error {
	active, err := c.elections.CurrentActive(ctx)
	if err != nil {
		return err
	}
	if active != nil {
		return apperr.New(apperr.KindConflict, "candidates cannot change while %q is active", active.Title)
	}
	return nil
}
