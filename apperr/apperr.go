// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package apperr

import (
	"errors"
	"fmt"
)

// Kind is the stable, machine-readable class of an error.
type Kind string

const (
	KindElectionClosed       Kind = "election_closed"
	KindInvalidBallot        Kind = "invalid_ballot"
	KindVoterNotEligible     Kind = "voter_not_eligible"
	KindAlreadyVoted         Kind = "already_voted"
	KindStorage              Kind = "storage_error"
	KindConflict             Kind = "conflict"
	KindNotFound             Kind = "not_found"
	KindInvalidInput         Kind = "invalid_input"
	KindConfirmationRequired Kind = "confirmation_required"
)

// Sentinels for errors.Is. They carry no message, so they match every error of
// their kind.
var (
	ErrElectionClosed       = &Error{Kind: KindElectionClosed}
	ErrInvalidBallot        = &Error{Kind: KindInvalidBallot}
	ErrVoterNotEligible     = &Error{Kind: KindVoterNotEligible}
	ErrAlreadyVoted         = &Error{Kind: KindAlreadyVoted}
	ErrStorage              = &Error{Kind: KindStorage}
	ErrConflict             = &Error{Kind: KindConflict}
	ErrNotFound             = &Error{Kind: KindNotFound}
	ErrInvalidInput         = &Error{Kind: KindInvalidInput}
	ErrConfirmationRequired = &Error{Kind: KindConfirmationRequired}
)

type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	msg := e.Message
	if msg == "" {
		msg = string(e.Kind)
	}
	if e.Err != nil {
		return msg + ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is reports whether target is a sentinel of the same kind.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Message == "" && t.Err == nil && t.Kind == e.Kind
}

// New builds an error of the given kind with a formatted message.
func New(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// Wrap attaches a kind and message to an underlying cause.
func Wrap(kind Kind, err error, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...), Err: err}
}

// KindOf returns the kind of the first *Error in err's chain, or "".
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}

// MessageOf returns the human-readable message of the first *Error in err's
// chain, falling back to err.Error().
func MessageOf(err error) string {
	var e *Error
	if errors.As(err, &e) && e.Message != "" {
		return e.Message
	}
	if err == nil {
		return ""
	}
	return err.Error()
}

// Storage classifies a store failure. Errors that already carry a kind keep
// it and only gain context.
func Storage(err error, format string, args ...any) error {
	if err == nil {
		return nil
	}
	msg := fmt.Sprintf(format, args...)
	if KindOf(err) != "" {
		return fmt.Errorf("%s: %w", msg, err)
	}
	return Wrap(KindStorage, err, "%s", msg)
}
