package chatgen

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/okian/waffles/pkg/logger"
)

// File permission constants.
const (
	directoryPermission = 0o750
	filePermission      = 0o600
)

// Run generates an export, uploads it and verifies the reported ranking.
func Run(ctx context.Context, cfg *Config) (*Stats, error) {
	stats := &Stats{StartTime: time.Now()}
	if cfg.Uploads <= 0 {
		cfg.Uploads = DefaultUploads
	}
	if cfg.Workers <= 0 {
		cfg.Workers = DefaultWorkers
	}

	logger.Get().Info(ctx, "starting chat generator",
		logger.String("baseURL", cfg.BaseURL),
		logger.Any("persons", cfg.Persons),
		logger.Int("weeks", cfg.Weeks),
		logger.String("start", cfg.Start.Format(time.DateOnly)),
		logger.Int64("seed", int64(cfg.Seed)),
		logger.Int("uploads", cfg.Uploads),
		logger.Int("workers", cfg.Workers))

	client := NewClient(cfg.BaseURL, cfg.Timeout)
	if err := client.Health(ctx); err != nil {
		return stats, fmt.Errorf("service health check failed: %w", err)
	}

	export, err := Generate(ctx, cfg)
	if err != nil {
		return stats, fmt.Errorf("generation failed: %w", err)
	}
	stats.Lines = export.Lines
	stats.Checkins = len(export.Checkins)

	if cfg.OutputFile != "" {
		if err := saveExport(cfg.OutputFile, export); err != nil {
			logger.Get().Warn(ctx, "failed to save export", logger.Error(err))
		} else {
			logger.Get().Info(ctx, "export saved", logger.String("file", cfg.OutputFile))
		}
	}

	uploadAll(ctx, cfg, client, export, stats)
	if stats.Failed == stats.Uploads {
		return stats, fmt.Errorf("%w: all %d uploads failed", ErrUpload, stats.Uploads)
	}

	summary, err := client.Summary(ctx)
	if err != nil {
		return stats, fmt.Errorf("summary retrieval failed: %w", err)
	}
	if err := verifyResults(ctx, cfg, export, summary, stats); err != nil {
		return stats, err
	}

	stats.EndTime = time.Now()
	stats.Duration = stats.EndTime.Sub(stats.StartTime)
	displayFinalStats(ctx, stats)
	return stats, nil
}

// saveExport writes the generated export so it can be uploaded by hand.
func saveExport(path string, export Export) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, directoryPermission); err != nil {
			return fmt.Errorf("create directory: %w", err)
		}
	}
	if err := os.WriteFile(path, []byte(export.Text), filePermission); err != nil {
		return fmt.Errorf("write export: %w", err)
	}
	return nil
}

// displayFinalStats logs the run statistics and the reported ranking.
func displayFinalStats(ctx context.Context, stats *Stats) {
	logger.Get().Info(ctx, "final statistics",
		logger.Int("lines", stats.Lines),
		logger.Int("checkins", stats.Checkins),
		logger.Int("uploads", stats.Uploads),
		logger.Int("failed", stats.Failed),
		logger.Int("accepted", stats.Accepted),
		logger.Int("duplicates", stats.Duplicates),
		logger.Int("mismatches", stats.Mismatches),
		logger.Duration("duration", stats.Duration))
	for _, s := range stats.Ranking {
		logger.Get().Info(ctx, "standing",
			logger.Int("rank", s.Rank),
			logger.String("person", s.Person),
			logger.Int("on_time", s.OnTime),
			logger.Int("late", s.Late),
			logger.Int("missed", s.Missed),
			logger.Int("penalty", s.Penalty))
	}
}
