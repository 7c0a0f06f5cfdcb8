// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package sequencer

import (
	"context"
	"sync"
)

type slot struct {
	ch   chan struct{}
	refs int
}

// Sequencer serializes callers that share a key.
type Sequencer struct {
	mu    sync.Mutex
	slots map[string]*slot
}

func New() *Sequencer {
	return &Sequencer{slots: make(map[string]*slot)}
}

// Acquire waits for exclusive ownership of key. The returned release func must
// be called exactly once on every exit path; extra calls are ignored.
func (s *Sequencer) Acquire(ctx context.Context, key string) (func(), error) {
	s.mu.Lock()
	sl, ok := s.slots[key]
	if !ok {
		sl = &slot{ch: make(chan struct{}, 1)}
		s.slots[key] = sl
	}
	sl.refs++
	s.mu.Unlock()

	select {
	case sl.ch <- struct{}{}:
	case <-ctx.Done():
		s.drop(key, sl)
		return nil, ctx.Err()
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			<-sl.ch
			s.drop(key, sl)
		})
	}, nil
}

// Len reports how many keys currently have holders or waiters.
func (s *Sequencer) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.slots)
}

func (s *Sequencer) drop(key string, sl *slot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sl.refs--
	if sl.refs == 0 {
		delete(s.slots, key)
	}
}
