package chatgen

import (
	"context"
	"fmt"
	"strings"

	"github.com/okian/waffles/internal/domain/calendar"
	"github.com/okian/waffles/internal/domain/chatlog"
	"github.com/okian/waffles/internal/domain/model"
	"github.com/okian/waffles/internal/domain/scoring"
	"github.com/okian/waffles/internal/domain/weekly"
)

// Expected runs the export through the same pipeline the tracker uses and
// returns the ranked totals for referenceWeeks expected check-ins.
func Expected(ctx context.Context, cfg *Config, export Export, referenceWeeks int) ([]model.PersonTotals, error) {
	parsed, err := chatlog.NewParser().Parse(ctx, strings.NewReader(export.Text))
	if err != nil {
		return nil, fmt.Errorf("parse generated export: %w", err)
	}
	keyword := cfg.Keyword
	if keyword == "" {
		keyword = DefaultKeyword
	}
	start := alignTo(cfg.Start, cfg.Weekday)
	kept, _ := chatlog.Filter(parsed.Records, keyword, &start)

	events := calendar.NewMapper(nil).ToEvents(kept)
	merged := calendar.Merge(ctx, nil, events)
	buckets := weekly.New(weekly.WithWeekday(cfg.Weekday)).Aggregate(merged.Events)
	scorer := scoring.NewScorer(scoring.WithReferenceWeeks(referenceWeeks))
	return scorer.Totals(buckets), nil
}
