// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package tally

import (
	"context"
	"slices"
	"sort"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/danielhkuo/verivote/apperr"
	"github.com/danielhkuo/verivote/docstore"
	"github.com/danielhkuo/verivote/models"
)

// Query selects what to count. Empty Positions means all configured
// positions; empty ElectionID counts every vote in the log.
type Query struct {
	ElectionID string
	Positions  []string
}

type Engine struct {
	store     docstore.Store
	positions []string
	now       func() time.Time
}

func New(s docstore.Store, positions []string) *Engine {
	return &Engine{store: s, positions: positions, now: time.Now}
}

func (e *Engine) Results(ctx context.Context, q Query) (models.Tally, error) {
	positions := q.Positions
	if len(positions) == 0 {
		positions = e.positions
	}
	for _, p := range positions {
		if !slices.Contains(e.positions, p) {
			return models.Tally{}, apperr.New(apperr.KindInvalidInput, "unknown position %q", p)
		}
	}

	var (
		votes      []models.Vote
		candidates []models.Candidate
		voters     []models.Voter
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		votes, err = docstore.ReadList[models.Vote](gctx, e.store, docstore.Votes)
		return err
	})
	g.Go(func() error {
		var err error
		candidates, err = docstore.ReadList[models.Candidate](gctx, e.store, docstore.Candidates)
		return err
	})
	g.Go(func() error {
		var err error
		voters, err = docstore.ReadList[models.Voter](gctx, e.store, docstore.Voters)
		return err
	})
	if err := g.Wait(); err != nil {
		return models.Tally{}, apperr.Storage(err, "load tally inputs")
	}

	if q.ElectionID != "" {
		votes = slices.DeleteFunc(votes, func(v models.Vote) bool {
			return v.ElectionID != q.ElectionID
		})
	}

	t := Compute(positions, candidates, votes, voters)
	t.ElectionID = q.ElectionID
	t.ComputedAt = e.now().UTC()
	return t, nil
}

// Compute is the pure tally over already loaded collections.
func Compute(positions []string, candidates []models.Candidate, votes []models.Vote, voters []models.Voter) models.Tally {
	t := models.Tally{
		Positions:  make([]models.PositionResult, 0, len(positions)),
		TotalVotes: len(votes),
	}
	for _, p := range positions {
		t.Positions = append(t.Positions, countPosition(p, candidates, votes))
	}
	t.EligibleVoters = eligible(voters)
	t.TurnoutPercent = Turnout(t.TotalVotes, t.EligibleVoters)
	return t
}

func countPosition(position string, candidates []models.Candidate, votes []models.Vote) models.PositionResult {
	counts := make(map[string]int)
	names := make(map[string]string)
	for _, c := range candidates {
		if c.Position != position {
			continue
		}
		// Registered candidates are listed even with zero votes
		if _, ok := counts[c.ID]; !ok {
			counts[c.ID] = 0
		}
		names[c.ID] = c.Name
	}
	for _, v := range votes {
		if id, ok := v.Selections[position]; ok && id != "" {
			counts[id]++
		}
	}

	result := models.PositionResult{
		Position: position,
		Counts:   make([]models.CandidateCount, 0, len(counts)),
	}
	for id, n := range counts {
		name := names[id]
		if name == "" {
			name = id
		}
		result.Counts = append(result.Counts, models.CandidateCount{CandidateID: id, Name: name, Votes: n})
	}
	sort.Slice(result.Counts, func(i, j int) bool {
		a, b := result.Counts[i], result.Counts[j]
		if a.Votes != b.Votes {
			return a.Votes > b.Votes
		}
		return a.CandidateID < b.CandidateID
	})

	if len(result.Counts) == 0 || result.Counts[0].Votes == 0 {
		return result
	}

	top := result.Counts[0]
	result.Winner = &top
	for _, c := range result.Counts {
		if c.Votes == top.Votes {
			result.TiedCandidates = append(result.TiedCandidates, c.CandidateID)
		}
	}
	if len(result.TiedCandidates) > 1 {
		result.Tie = true
	} else {
		result.TiedCandidates = nil
	}
	return result
}

// eligible counts voters who are not blocked, plus blocked voters whose vote
// was already cast.
func eligible(voters []models.Voter) int {
	n := 0
	for _, v := range voters {
		if !v.Blocked() || v.HasVoted {
			n++
		}
	}
	return n
}

// Turnout is votes/eligible as a percentage, rounded half up.
func Turnout(votes, eligible int) int {
	if eligible <= 0 {
		return 0
	}
	return (votes*200 + eligible) / (eligible * 2)
}
