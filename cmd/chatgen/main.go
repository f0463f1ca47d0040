package main

import (
	"context"
	"flag"
	"os"
	"strings"
	"time"

	"github.com/okian/waffles/internal/chatgen"
	"github.com/okian/waffles/internal/domain/weekly"
)

const defaultRunTimeout = 5 * time.Minute

func main() {
	var (
		baseURL    = flag.String("url", chatgen.DefaultBaseURL, "Base URL of the tracker")
		persons    = flag.String("persons", strings.Join(chatgen.DefaultPersons, ","), "Comma separated authors")
		startDate  = flag.String("start", "2025-06-11", "First reference day (YYYY-MM-DD)")
		weekday    = flag.String("weekday", "wednesday", "Reference weekday")
		weeks      = flag.Int("weeks", chatgen.DefaultWeeks, "Weeks to generate")
		keyword    = flag.String("keyword", chatgen.DefaultKeyword, "Check-in keyword")
		seed       = flag.Uint64("seed", uint64(time.Now().UnixNano()), "Random seed")
		uploads    = flag.Int("uploads", chatgen.DefaultUploads, "Times to upload the export")
		workers    = flag.Int("workers", chatgen.DefaultWorkers, "Concurrent uploaders")
		timeout    = flag.Duration("timeout", chatgen.DefaultTimeout, "HTTP request timeout")
		outputFile = flag.String("output", "", "Also write the export to this file")
		logFile    = flag.String("log", "", "Also log to this file")
		strict     = flag.Bool("strict", false, "Fail when the ranking does not match")
		verbose    = flag.Bool("verbose", false, "Log every generated check-in")
		help       = flag.Bool("help", false, "Show help")
	)
	flag.Parse()

	if *help {
		chatgen.ShowHelp()
		return
	}

	if err := chatgen.SetupLogging(*logFile, *verbose); err != nil {
		os.Stderr.WriteString("Failed to setup logging: " + err.Error() + "\n")
		os.Exit(1)
	}

	start, err := time.Parse(time.DateOnly, *startDate)
	if err != nil {
		os.Stderr.WriteString("Invalid -start: " + err.Error() + "\n")
		os.Exit(2)
	}
	wd, ok := weekly.ParseWeekday(*weekday)
	if !ok {
		os.Stderr.WriteString("Invalid -weekday: " + *weekday + "\n")
		os.Exit(2)
	}

	ctx, cancel := context.WithTimeout(context.Background(), defaultRunTimeout)
	defer cancel()

	cfg := &chatgen.Config{
		BaseURL:    strings.TrimRight(*baseURL, "/"),
		Persons:    splitPersons(*persons),
		Start:      start,
		Weekday:    wd,
		Weeks:      *weeks,
		Keyword:    *keyword,
		Seed:       *seed,
		Uploads:    *uploads,
		Workers:    *workers,
		Timeout:    *timeout,
		OutputFile: *outputFile,
		Strict:     *strict,
		Verbose:    *verbose,
	}

	if _, err := chatgen.Run(ctx, cfg); err != nil {
		os.Stderr.WriteString("Run failed: " + err.Error() + "\n")
		cancel()
		os.Exit(1)
	}
}

func splitPersons(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
