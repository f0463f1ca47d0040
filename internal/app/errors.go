package service

import "errors"

// Sentinel kinds for service errors.
var (
	ErrNotStarted     = errors.New("service not started")
	ErrEmptyUpload    = errors.New("upload is empty")
	ErrReadUpload     = errors.New("upload could not be read")
	ErrPersist        = errors.New("events could not be saved")
	ErrLedgerDisabled = errors.New("drinks ledger is not configured")
)
