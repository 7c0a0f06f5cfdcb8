// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

// Package app wires the document store, audit log, election machine,
// registries, ballot service and tally engine into one value shared by the
// HTTP layer and the background reconciler.
package app
