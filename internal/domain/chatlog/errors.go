package chatlog

import "errors"

// Sentinel kinds for chat log errors.
var (
	ErrRead    = errors.New("chat export unreadable")
	ErrPattern = errors.New("invalid line pattern")
)
