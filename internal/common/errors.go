// Package common defines shared constants and sentinel errors used across
// the storage, identity and service layers of progresskeeper. Callers should
// use errors.Is to match these values.
package common

import "errors"

var (
	// Repository-level errors.
	ErrorNotFound = errors.New("not found")

	// ErrRemote wraps any failure reported by the remote metadata table
	// (network, permission, constraint).
	ErrRemote = errors.New("remote error")

	// Identity errors.
	ErrUnauthenticated = errors.New("user not authenticated")

	// Device storage errors.
	ErrStorageUnavailable = errors.New("storage unavailable")
)
