// Package chatgen generates synthetic chat exports, uploads them to a running
// tracker and checks the ranking it reports against one computed locally.
package chatgen

import (
	"errors"
	"time"

	"github.com/okian/waffles/internal/domain/types"
)

// Defaults used by the CLI.
const (
	DefaultBaseURL = "http://localhost:9080"
	DefaultKeyword = "Video note"
	DefaultWeeks   = 8
	DefaultUploads = 1
	DefaultWorkers = 4
	DefaultTimeout = 30 * time.Second
)

// DefaultPersons is the roster used when none is given.
var DefaultPersons = []string{"Alice", "Bob", "Carol", "Dave"}

// Errors returned by the generator and runner.
var (
	ErrNoPersons   = errors.New("no persons to generate")
	ErrNoWeeks     = errors.New("weeks must be positive")
	ErrUnhealthy   = errors.New("service is not healthy")
	ErrUpload      = errors.New("upload failed")
	ErrMismatch    = errors.New("ranking does not match the generated export")
	ErrBadResponse = errors.New("unexpected response")
)

// Config holds configuration for a generator run.
type Config struct {
	BaseURL    string        // Base URL of the tracker
	Persons    []string      // Authors to generate
	Start      time.Time     // First reference weekday
	Weekday    time.Weekday  // Reference weekday
	Weeks      int           // Number of weeks to generate
	Keyword    string        // Check-in keyword
	Seed       uint64        // Random seed; the same seed yields the same export
	Uploads    int           // Times the export is uploaded
	Workers    int           // Concurrent uploaders
	Timeout    time.Duration // HTTP request timeout
	OutputFile string        // Where to write the export, empty to skip
	Strict     bool          // Fail on ranking mismatches instead of warning
	Verbose    bool          // Log every generated check-in
}

// Checkin is one planned check-in of the generated export.
type Checkin struct {
	Person string
	At     time.Time
	Kind   string
}

// Export is a generated chat export and what it is expected to contain.
type Export struct {
	Text     string
	Lines    int
	Checkins []Checkin
}

// Stats holds run statistics.
type Stats struct {
	Lines      int
	Checkins   int
	Uploads    int
	Failed     int
	Accepted   int
	Duplicates int
	Mismatches int
	Ranking    []types.Standing
	StartTime  time.Time
	EndTime    time.Time
	Duration   time.Duration
}
