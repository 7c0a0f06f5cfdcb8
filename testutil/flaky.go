// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package testutil

import (
	"context"
	"errors"
	"sync"

	"github.com/danielhkuo/verivote/docstore"
)

// ErrInjected is returned by FlakyStore for scripted failures
var ErrInjected = errors.New("injected store failure")

// FlakyStore wraps a store and fails scripted writes. A lost-ack failure
// performs the write and then reports an error, like a timed-out response
// whose request still landed.
type FlakyStore struct {
	docstore.Store

	mu      sync.Mutex
	fail    map[string]int
	lostAck map[string]int
	writes  map[string]int
	onWrite func(collection string)
}

func NewFlakyStore(inner docstore.Store) *FlakyStore {
	return &FlakyStore{
		Store:   inner,
		fail:    make(map[string]int),
		lostAck: make(map[string]int),
		writes:  make(map[string]int),
	}
}

// FailWrites makes the next n writes to collection fail without writing
func (f *FlakyStore) FailWrites(collection string, n int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.fail[collection] = n
}

// LoseAcks makes the next n writes to collection land but report failure
func (f *FlakyStore) LoseAcks(collection string, n int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lostAck[collection] = n
}

// OnWrite registers a hook run before every write
func (f *FlakyStore) OnWrite(fn func(collection string)) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.onWrite = fn
}

// Writes reports how many writes reached collection, including failed ones
func (f *FlakyStore) Writes(collection string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.writes[collection]
}

func (f *FlakyStore) Write(ctx context.Context, collection string, doc []byte) error {
	f.mu.Lock()
	f.writes[collection]++
	hook := f.onWrite
	fail := f.fail[collection] > 0
	if fail {
		f.fail[collection]--
	}
	lost := !fail && f.lostAck[collection] > 0
	if lost {
		f.lostAck[collection]--
	}
	f.mu.Unlock()

	if hook != nil {
		hook(collection)
	}
	if fail {
		return ErrInjected
	}
	if err := f.Store.Write(ctx, collection, doc); err != nil {
		return err
	}
	if lost {
		return ErrInjected
	}
	return nil
}
