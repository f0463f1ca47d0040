package ledger

import "errors"

// Sentinel kinds for ledger errors.
var (
	ErrNoPath        = errors.New("ledger path is empty")
	ErrInvalidName   = errors.New("ledger name is empty")
	ErrInvalidDrinks = errors.New("invalid drinks amount")
	ErrCorrupt       = errors.New("ledger workbook is unreadable")
)
