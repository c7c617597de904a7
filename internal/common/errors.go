// Package common defines the error taxonomy and shared constants used across
// ologd components. Callers should use errors.Is to match error kinds.
package common

import (
	"errors"
	"fmt"
)

// Kind classifies a failure the way the transport layer needs to report it.
type Kind string

const (
	KindBadRequest   Kind = "bad_request"
	KindNotFound     Kind = "not_found"
	KindForbidden    Kind = "forbidden"
	KindStoreFailure Kind = "store_failure"
)

// Kind sentinels for errors.Is matching, e.g.:
//
//	if errors.Is(err, common.ErrNotFound) { ... }
var (
	ErrBadRequest   = errors.New("bad request")
	ErrNotFound     = errors.New("not found")
	ErrForbidden    = errors.New("forbidden")
	ErrStoreFailure = errors.New("store failure")
)

// Error is the single structured failure crossing layer boundaries:
// a kind plus a human-readable message, optionally wrapping a cause.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is reports whether target is the sentinel of this error's kind, so
// errors.Is(err, common.ErrForbidden) works through any wrapping.
func (e *Error) Is(target error) bool {
	switch target {
	case ErrBadRequest:
		return e.Kind == KindBadRequest
	case ErrNotFound:
		return e.Kind == KindNotFound
	case ErrForbidden:
		return e.Kind == KindForbidden
	case ErrStoreFailure:
		return e.Kind == KindStoreFailure
	}
	return false
}

// BadRequestf builds a validation failure.
func BadRequestf(format string, args ...any) *Error {
	return &Error{Kind: KindBadRequest, Message: fmt.Sprintf(format, args...)}
}

// NotFoundf builds a missing-target failure.
func NotFoundf(format string, args ...any) *Error {
	return &Error{Kind: KindNotFound, Message: fmt.Sprintf(format, args...)}
}

// Forbiddenf builds an ownership failure.
func Forbiddenf(format string, args ...any) *Error {
	return &Error{Kind: KindForbidden, Message: fmt.Sprintf(format, args...)}
}

// StoreFailure wraps an underlying persistence error, keeping the payload
// unchanged but reclassifying it.
func StoreFailure(msg string, err error) *Error {
	return &Error{Kind: KindStoreFailure, Message: msg, Err: err}
}

// KindOf extracts the kind of err, or KindStoreFailure for unclassified
// errors bubbling up from below.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindStoreFailure
}
