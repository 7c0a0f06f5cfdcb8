// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package election is the election state machine.

Elections move Draft -> Active -> Ended and never return to Active. At most
one election is Active at a time; Start reads the whole elections collection,
resolves any Active record according to the configured policy and writes the
collection back in one write.

	m := election.New(updater, auditLog, false, logger)
	e, err := m.Start(ctx, "admin@x.com", models.StartElectionRequest{Title: "Spring"})
	_, ended, err := m.End(ctx, "admin@x.com")

With replaceActive=false a second Start fails with a conflict error. With
replaceActive=true the previous Active election is ended in the same write.
*/
package election
