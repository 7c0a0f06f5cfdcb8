// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package registry

import (
	"context"
	"time"

	"github.com/danielhkuo/verivote/apperr"
	"github.com/danielhkuo/verivote/audit"
	"github.com/danielhkuo/verivote/docstore"
	"github.com/danielhkuo/verivote/models"
)

type Voters struct {
	updater *docstore.Updater
	audit   *audit.Log
	now     func() time.Time
}

func NewVoters(u *docstore.Updater, log *audit.Log) *Voters {
	return &Voters{updater: u, audit: log, now: time.Now}
}

// Register adds a voter who passed the external identity check.
func (v *Voters) Register(ctx context.Context, actor, voterID string) (models.Voter, error) {
	id := models.NormalizeVoterID(voterID)
	if id == "" {
		return models.Voter{}, apperr.New(apperr.KindInvalidInput, "voter id is required")
	}

	voter := models.Voter{
		ID:           id,
		Status:       models.StatusActive,
		RegisteredAt: v.now().UTC(),
	}
	err := docstore.UpdateList(ctx, v.updater, docstore.Voters, func(voters []models.Voter) ([]models.Voter, error) {
		for _, existing := range voters {
			if existing.ID == id {
				return nil, apperr.New(apperr.KindConflict, "voter %s is already registered", id)
			}
		}
		return append(voters, voter), nil
	})
	if err != nil {
		return models.Voter{}, apperr.Storage(err, "register voter")
	}

	v.audit.Record(ctx, actor, audit.ActionVoterRegistered, "Registered "+id)
	return voter, nil
}

func (v *Voters) List(ctx context.Context) ([]models.Voter, error) {
	voters, err := docstore.ReadList[models.Voter](ctx, v.updater.Store(), docstore.Voters)
	if err != nil {
		return nil, apperr.Storage(err, "read voters")
	}
	return voters, nil
}

func (v *Voters) Get(ctx context.Context, voterID string) (models.Voter, error) {
	voters, err := v.List(ctx)
	if err != nil {
		return models.Voter{}, err
	}
	id := models.NormalizeVoterID(voterID)
	for _, voter := range voters {
		if voter.ID == id {
			return voter, nil
		}
	}
	return models.Voter{}, apperr.New(apperr.KindNotFound, "voter %s not found", id)
}

// SetStatus blocks or unblocks a voter.
func (v *Voters) SetStatus(ctx context.Context, actor, voterID string, blocked bool) (models.Voter, error) {
	id := models.NormalizeVoterID(voterID)
	status := models.StatusActive
	action := audit.ActionVoterUnblocked
	if blocked {
		status = models.StatusBlocked
		action = audit.ActionVoterBlocked
	}

	var updated models.Voter
	err := docstore.UpdateList(ctx, v.updater, docstore.Voters, func(voters []models.Voter) ([]models.Voter, error) {
		for i := range voters {
			if voters[i].ID != id {
				continue
			}
			now := v.now().UTC()
			voters[i].Status = status
			voters[i].UpdatedAt = &now
			updated = voters[i]
			return voters, nil
		}
		return nil, apperr.New(apperr.KindNotFound, "voter %s not found", id)
	})
	if err != nil {
		return models.Voter{}, apperr.Storage(err, "update voter %s", id)
	}

	v.audit.Record(ctx, actor, action, id)
	return updated, nil
}
