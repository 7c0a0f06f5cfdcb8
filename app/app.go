// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package app

import (
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/danielhkuo/verivote/audit"
	"github.com/danielhkuo/verivote/ballot"
	"github.com/danielhkuo/verivote/cliparse"
	"github.com/danielhkuo/verivote/docstore"
	"github.com/danielhkuo/verivote/election"
	"github.com/danielhkuo/verivote/metrics"
	"github.com/danielhkuo/verivote/registry"
	"github.com/danielhkuo/verivote/tally"
)

// App holds every component built over one document store.
type App struct {
	Config     cliparse.Config
	Store      docstore.Store
	Registry   *prometheus.Registry
	Metrics    *metrics.Metrics
	Audit      *audit.Log
	Elections  *election.Machine
	Voters     *registry.Voters
	Candidates *registry.Candidates
	Ballots    *ballot.Service
	Tally      *tally.Engine
}

// Open opens the configured backend and wires the components over it.
func Open(cfg cliparse.Config, logger *slog.Logger) (*App, error) {
	store, err := docstore.Open(cfg, logger)
	if err != nil {
		return nil, err
	}
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	return New(cfg, store, reg, logger), nil
}

// New wires the components over an already opened store. The store is
// wrapped with the configured retry policy.
func New(cfg cliparse.Config, store docstore.Store, reg *prometheus.Registry, logger *slog.Logger) *App {
	if logger == nil {
		logger = slog.Default()
	}
	if reg == nil {
		reg = prometheus.NewRegistry()
	}
	m := metrics.New(reg)

	policy := docstore.DefaultRetryPolicy()
	if cfg.RetryMaxAttempts > 0 {
		policy.MaxAttempts = cfg.RetryMaxAttempts
	}
	if cfg.RetryInitialInterval > 0 {
		policy.InitialInterval = cfg.RetryInitialInterval
	}
	if cfg.StoreTimeout > 0 {
		policy.AttemptTimeout = cfg.StoreTimeout
	}
	retrying := docstore.WithRetry(store, policy,
		docstore.WithLogger(logger),
		docstore.OnRetry(m.StoreRetry),
	)

	u := docstore.NewUpdater(retrying)
	log := audit.New(u, cfg.AuditCapacity, logger)
	elections := election.New(u, log, cfg.ReplaceActiveElection, logger)

	return &App{
		Config:     cfg,
		Store:      retrying,
		Registry:   reg,
		Metrics:    m,
		Audit:      log,
		Elections:  elections,
		Voters:     registry.NewVoters(u, log),
		Candidates: registry.NewCandidates(u, log, elections, cfg.Positions),
		Ballots: ballot.NewService(u, elections, log, ballot.Options{
			Positions:     cfg.Positions,
			MarkerTimeout: markerTimeout(policy),
			Metrics:       m,
			Logger:        logger,
		}),
		Tally: tally.New(retrying, cfg.Positions),
	}
}

// markerTimeout covers the marker's read and write, each with the full retry
// budget, so a timed-out attempt is retried rather than ending the write.
func markerTimeout(policy docstore.RetryPolicy) time.Duration {
	return 2 * policy.Budget()
}

// Reconciler is the background marker repair loop for the ballot service.
func (a *App) Reconciler() *ballot.Reconciler {
	return a.Ballots.Reconciler()
}

func (a *App) Close() error {
	return a.Store.Close()
}
