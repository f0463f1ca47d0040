// Package config defines service configuration structures and loading hooks.
//
// Conventions:
// - Keys are flat so every field maps onto a single WAFFLE_ env var.
// - New() builds a Config with defaults; Load layers files and env on top.
// - Errors returned to callers wrap ErrLoadConfig or ErrInvalidConfig.
package config

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/okian/waffles/internal/domain/chatlog"
	"github.com/okian/waffles/internal/domain/model"
	"github.com/okian/waffles/internal/domain/weekly"
)

// PersonConfig describes one tracked participant.
type PersonConfig struct {
	Name   string `koanf:"name"`
	Color  string `koanf:"color"`
	Avatar string `koanf:"avatar"`
}

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// LogFormat selects the log handler: text or json.
	LogFormat string `koanf:"log_format"`

	// LogFile, when set, also writes logs to a rotating file.
	LogFile string `koanf:"log_file"`

	// Addr configures the HTTP listen address, e.g. ":8080".
	Addr string `koanf:"addr"`

	// StartDate is the first tracked day, YYYY-MM-DD.
	StartDate string `koanf:"start_date"`

	// Keyword selects check-in messages; matching is case-insensitive.
	Keyword string `koanf:"keyword"`

	// ReferenceWeekday is the expected check-in day.
	ReferenceWeekday string `koanf:"reference_weekday"`

	// LinePattern overrides the chat line pattern. It must capture
	// (timestamp, author, message) or (timestamp, message). Empty uses the
	// built-in WhatsApp pattern.
	LinePattern string `koanf:"line_pattern"`

	// DefaultColor is used for authors without a registered color.
	DefaultColor string `koanf:"default_color"`

	// MaxUploadBytes caps the size of an uploaded chat export.
	MaxUploadBytes int64 `koanf:"max_upload_bytes"`

	// EventStoreDriver selects the event persistence: json, sqlite or memory.
	EventStoreDriver string `koanf:"event_store_driver"`

	// EventStorePath is the events file or database location.
	EventStorePath string `koanf:"event_store_path"`

	// EventStoreCompact writes the JSON event file without indentation.
	EventStoreCompact bool `koanf:"event_store_compact"`

	// LedgerPath is the drinks ledger workbook; empty disables the ledger.
	LedgerPath string `koanf:"ledger_path"`

	// LedgerSheet is the worksheet inside the ledger workbook.
	LedgerSheet string `koanf:"ledger_sheet"`

	// Persons maps person identifiers to display attributes.
	Persons map[string]PersonConfig `koanf:"persons"`
}

// New creates a Config with defaults.
func New() *Config {
	return &Config{
		LogLevel:         "info",
		LogFormat:        "text",
		Addr:             ":9080",
		StartDate:        "2025-06-11",
		Keyword:          "Video note",
		ReferenceWeekday: "wednesday",
		DefaultColor:     "gray",
		MaxUploadBytes:   32 << 20,
		EventStoreDriver: "json",
		EventStorePath:   "data/events.json",
		LedgerPath:       "data/drinks.xlsx",
		LedgerSheet:      "drinks",
		Persons:          map[string]PersonConfig{},
	}
}

// Validate checks field values and reports the first problem found.
func (c *Config) Validate() error {
	if c.Addr == "" {
		return fmt.Errorf("%w: addr must not be empty", ErrInvalidConfig)
	}
	if _, err := c.Start(); err != nil {
		return err
	}
	if _, err := c.Weekday(); err != nil {
		return err
	}
	if _, err := c.Pattern(); err != nil {
		return err
	}
	switch strings.ToLower(c.LogFormat) {
	case "text", "json":
	default:
		return fmt.Errorf("%w: log_format must be text or json, got %q", ErrInvalidConfig, c.LogFormat)
	}
	if c.MaxUploadBytes <= 0 {
		return fmt.Errorf("%w: max_upload_bytes must be positive", ErrInvalidConfig)
	}
	switch strings.ToLower(c.EventStoreDriver) {
	case "memory":
	case "json", "sqlite":
		if c.EventStorePath == "" {
			return fmt.Errorf("%w: event_store_path must not be empty for driver %q", ErrInvalidConfig, c.EventStoreDriver)
		}
	default:
		return fmt.Errorf("%w: unknown event_store_driver %q", ErrInvalidConfig, c.EventStoreDriver)
	}
	for id := range c.Persons {
		if strings.TrimSpace(id) == "" {
			return fmt.Errorf("%w: person id must not be empty", ErrInvalidConfig)
		}
	}
	return nil
}

// Start returns the parsed start date at UTC midnight.
func (c *Config) Start() (time.Time, error) {
	t, err := time.ParseInLocation(model.DayLayout, strings.TrimSpace(c.StartDate), time.UTC)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: start_date %q: %v", ErrInvalidConfig, c.StartDate, err)
	}
	return t, nil
}

// Weekday returns the parsed reference weekday.
func (c *Config) Weekday() (time.Weekday, error) {
	w, ok := weekly.ParseWeekday(c.ReferenceWeekday)
	if !ok {
		return time.Sunday, fmt.Errorf("%w: reference_weekday %q", ErrInvalidConfig, c.ReferenceWeekday)
	}
	return w, nil
}

// Pattern compiles LinePattern, falling back to chatlog.DefaultPattern.
func (c *Config) Pattern() (*regexp.Regexp, error) {
	expr := c.LinePattern
	if strings.TrimSpace(expr) == "" {
		expr = chatlog.DefaultPattern
	}
	re, err := chatlog.CompilePattern(expr)
	if err != nil {
		return nil, fmt.Errorf("%w: line_pattern: %v", ErrInvalidConfig, err)
	}
	return re, nil
}

// Registry converts the configured persons into the domain registry. A
// missing display name falls back to the identifier.
func (c *Config) Registry() model.Registry {
	reg := make(model.Registry, len(c.Persons))
	for id, p := range c.Persons {
		name := p.Name
		if name == "" {
			name = id
		}
		reg[id] = model.Person{ID: id, Name: name, Color: p.Color, Avatar: p.Avatar}
	}
	return reg
}
