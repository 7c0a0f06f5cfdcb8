// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

// Package registry manages the voter roster and the candidate list.
//
// Voters arrive from the external identity check through Register and are
// never deleted; admins may only block or unblock them. Candidates may be
// edited freely until an election starts and are frozen while one is active.
package registry
