// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

// Package metrics holds the Prometheus collectors for ballot commits, store
// retries and reconciliation repairs. A nil *Metrics is valid and records
// nothing.
package metrics
