package chatgen

import (
	"fmt"
	"os"

	"github.com/okian/waffles/pkg/logger"
)

// SetupLogging configures the logger to write to the console and, when
// logFile is set, to a rotated file as well.
func SetupLogging(logFile string, verbose bool) error {
	opts := []logger.Option{logger.WithWriter(os.Stdout)}
	if logFile != "" {
		opts = append(opts, logger.WithFile(logger.FileConfig{Path: logFile}))
	}
	if err := logger.Init(opts...); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	if verbose {
		return logger.SetLevelString("debug")
	}
	return nil
}

// ShowHelp prints usage information for the chat generator.
func ShowHelp() {
	_, _ = os.Stdout.WriteString(`Waffles Chat Generator
======================

Generates a synthetic chat export, uploads it to a running tracker and checks
the ranking it reports against one computed from the same export.

Usage:
  go run ./cmd/chatgen [options]

Options:
  -url string
        Base URL of the tracker (default "http://localhost:9080")
  -persons string
        Comma separated authors (default "Alice,Bob,Carol,Dave")
  -start string
        First reference day, YYYY-MM-DD (default "2025-06-11")
  -weekday string
        Reference weekday (default "wednesday")
  -weeks int
        Weeks to generate (default 8)
  -keyword string
        Check-in keyword (default "Video note")
  -seed uint
        Random seed (default: current time)
  -uploads int
        Times to upload the export; repeats must be reported as duplicates (default 1)
  -workers int
        Concurrent uploaders (default 4)
  -timeout duration
        HTTP request timeout (default 30s)
  -output string
        Also write the export to this file
  -log string
        Also log to this file
  -strict
        Exit non-zero when the ranking does not match
  -verbose
        Log every generated check-in
  -help
        Show this help message

Examples:
  # Generate eight weeks and verify
  go run ./cmd/chatgen

  # Reproducible export uploaded three times in parallel
  go run ./cmd/chatgen -seed 42 -uploads 3 -output chat.txt -strict
`)
}
