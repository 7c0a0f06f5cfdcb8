// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package docstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/danielhkuo/verivote/sequencer"
)

// Collection names
const (
	Voters     = "voters"
	Votes      = "votes"
	Elections  = "elections"
	Candidates = "candidates"
	Activities = "activities"
)

// Collections lists every collection the engine uses.
var Collections = []string{Voters, Votes, Elections, Candidates, Activities}

var ErrNotFound = errors.New("document not found")

// Store is a whole-document, last-writer-wins store. It offers no
// compare-and-swap and no transaction spanning collections.
type Store interface {
	// Read returns the current document, or ErrNotFound if it was never written.
	Read(ctx context.Context, collection string) ([]byte, error)
	// Write replaces the document.
	Write(ctx context.Context, collection string, doc []byte) error
	Close() error
}

// ReadList decodes a collection stored as a JSON array. A missing or empty
// document reads as an empty list.
func ReadList[T any](ctx context.Context, s Store, collection string) ([]T, error) {
	raw, err := s.Read(ctx, collection)
	if errors.Is(err, ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return decodeList[T](collection, raw)
}

// WriteList encodes items as a JSON array and replaces the collection.
func WriteList[T any](ctx context.Context, s Store, collection string, items []T) error {
	if items == nil {
		items = []T{}
	}
	raw, err := json.Marshal(items)
	if err != nil {
		return fmt.Errorf("encode %s: %w", collection, err)
	}
	return s.Write(ctx, collection, raw)
}

func decodeList[T any](collection string, raw []byte) ([]T, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return nil, nil
	}
	var items []T
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, fmt.Errorf("decode %s: %w", collection, err)
	}
	return items, nil
}

// Updater serializes read-modify-write cycles on a collection within this
// process. Each cycle re-reads the document immediately before writing it.
// Writers in other processes are not excluded.
type Updater struct {
	store Store
	locks *sequencer.Sequencer
}

func NewUpdater(s Store) *Updater {
	return &Updater{store: s, locks: sequencer.New()}
}

func (u *Updater) Store() Store {
	return u.store
}

// ErrNoChange may be returned by an update func to skip the write.
var ErrNoChange = errors.New("no change")

// UpdateList applies fn to a fresh copy of the collection and writes the
// result. If fn returns ErrNoChange nothing is written and UpdateList returns
// nil; any other error aborts the update and is returned as is.
func UpdateList[T any](ctx context.Context, u *Updater, collection string, fn func([]T) ([]T, error)) error {
	release, err := u.locks.Acquire(ctx, collection)
	if err != nil {
		return err
	}
	defer release()

	items, err := ReadList[T](ctx, u.store, collection)
	if err != nil {
		return err
	}
	next, err := fn(items)
	if errors.Is(err, ErrNoChange) {
		return nil
	}
	if err != nil {
		return err
	}
	return WriteList(ctx, u.store, collection, next)
}
