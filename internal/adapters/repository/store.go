// Package repository persists the accumulated calendar events.
package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/okian/waffles/internal/domain/model"
)

// Supported drivers.
const (
	DriverJSON   = "json"
	DriverSQLite = "sqlite"
	DriverMemory = "memory"
)

// Store provides read/write access to the event set.
type Store interface {
	// Load returns every stored event in insertion order.
	// A store that does not exist yet yields an empty slice and no error.
	Load(ctx context.Context) ([]model.Event, error)

	// Save replaces the stored set with events. Callers only ever append,
	// so implementations may treat it as an upsert of the full set.
	Save(ctx context.Context, events []model.Event) error

	// Close releases underlying resources.
	Close() error
}

// Open builds the store selected by driver.
func Open(ctx context.Context, driver, path string, opts ...Option) (Store, error) {
	switch strings.ToLower(strings.TrimSpace(driver)) {
	case DriverJSON, "":
		return NewJSONStore(path, opts...)
	case DriverSQLite:
		return NewSQLiteStore(ctx, path, opts...)
	case DriverMemory:
		return NewMemoryStore(), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownDriver, driver)
	}
}
