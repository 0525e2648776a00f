// Package blobstore defines the name-addressed text object store the diary
// persists into, plus the backends shipped with it.
//
// The contract mirrors a remote drive folder: objects are listed by query,
// created once, read in full and overwritten in full. There is no partial
// update and no version check, so read-modify-write callers can lose updates
// when two writers race.
package blobstore

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// Object identifies a stored object.
type Object struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Parent string `json:"parent"`
}

// Query filters List results. Empty fields do not constrain the result.
// Parent always scopes the listing; "" is the root container.
type Query struct {
	Parent   string
	Name     string // exact match
	Prefix   string
	Contains string
}

// Matches reports whether an object name satisfies the name filters of q.
func (q Query) Matches(name string) bool {
	if q.Name != "" && name != q.Name {
		return false
	}
	if q.Prefix != "" && !strings.HasPrefix(name, q.Prefix) {
		return false
	}
	if q.Contains != "" && !strings.Contains(name, q.Contains) {
		return false
	}
	return true
}

// String renders the query as a stable cache key fragment.
func (q Query) String() string {
	return fmt.Sprintf("parent=%q name=%q prefix=%q contains=%q", q.Parent, q.Name, q.Prefix, q.Contains)
}

// Store is the remote text store contract.
type Store interface {
	// List returns the objects under q.Parent whose names match q, sorted by name.
	List(ctx context.Context, q Query) ([]Object, error)

	// Create stores a new object and returns its id.
	Create(ctx context.Context, name, parent string, data []byte) (string, error)

	// ReadFull returns the complete body of the object.
	ReadFull(ctx context.Context, id string) ([]byte, error)

	// UpdateFull replaces the complete body of the object.
	UpdateFull(ctx context.Context, id string, data []byte) error
}

// Kind classifies store failures.
type Kind string

const (
	KindUnavailable Kind = "unavailable"
	KindNotFound    Kind = "not_found"
	KindExists      Kind = "exists"
)

var (
	// ErrNotFound matches errors for ids that do not exist.
	ErrNotFound = errors.New("blobstore: object not found")

	// ErrExists matches errors from Create when the name is already taken in the parent.
	ErrExists = errors.New("blobstore: object already exists")
)

// Error is the error type returned by every backend.
type Error struct {
	Kind Kind
	Op   string
	Name string
	Err  error
}

// Error implements the error interface.
func (e *Error) Error() string {
	msg := "blobstore: " + e.Op
	if e.Name != "" {
		msg += " " + e.Name
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	} else {
		msg += ": " + string(e.Kind)
	}
	return msg
}

// Unwrap returns the underlying backend error.
func (e *Error) Unwrap() error {
	return e.Err
}

// Is lets errors.Is match the package sentinels by kind.
func (e *Error) Is(target error) bool {
	switch target {
	case ErrNotFound:
		return e.Kind == KindNotFound
	case ErrExists:
		return e.Kind == KindExists
	}
	return false
}

// Unavailable wraps a transport or I/O failure.
func Unavailable(op, name string, err error) *Error {
	return &Error{Kind: KindUnavailable, Op: op, Name: name, Err: err}
}

// NotFound reports a missing object.
func NotFound(op, id string) *Error {
	return &Error{Kind: KindNotFound, Op: op, Name: id}
}

// Exists reports a name collision on Create.
func Exists(op, name string) *Error {
	return &Error{Kind: KindExists, Op: op, Name: name}
}

// IsUnavailable checks if err is a store availability failure.
func IsUnavailable(err error) bool {
	var storeErr *Error
	if errors.As(err, &storeErr) {
		return storeErr.Kind == KindUnavailable
	}
	return false
}
