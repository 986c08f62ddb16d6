package domain

import "errors"

var (
	// Common domain errors
	ErrNotFound           = errors.New("entity not found")
	ErrInvalidArgument    = errors.New("invalid argument")
	ErrInvalidExecContext = errors.New("invalid executor context")

	// ErrStoreUnavailable marks key-value store I/O failures. It is never returned for a
	// missing or expired record.
	ErrStoreUnavailable = errors.New("prompt store unavailable")

	ErrUpstream        = errors.New("assistant api request failed")
	ErrUnknownCallback = errors.New("unknown callback data")
	ErrNotGroupChat    = errors.New("bot only works in group chats")
)
