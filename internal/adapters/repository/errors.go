package repository

import "errors"

// Sentinel kinds for event store errors.
var (
	ErrUnknownDriver = errors.New("unknown event store driver")
	ErrCorrupt       = errors.New("event store is corrupt")
	ErrNoPath        = errors.New("event store path is empty")
)
