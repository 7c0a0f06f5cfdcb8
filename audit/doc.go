// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

// Package audit is the bounded activity log. Entries are appended to the
// activities collection and the oldest are dropped once capacity is reached.
package audit
