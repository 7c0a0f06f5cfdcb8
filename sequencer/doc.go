// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package sequencer provides a keyed, context-aware mutex.

Acquire blocks until the caller holds the lock for key, or ctx ends:

	release, err := seq.Acquire(ctx, voterID)
	if err != nil {
		return err // ctx canceled while waiting; nothing is held
	}
	defer release()

Release is idempotent. Lock slots are reference counted and removed once no
caller holds or waits on them, so the map does not grow with the number of
distinct keys ever seen.
*/
package sequencer
