package chatgen

import (
	"context"
	"fmt"

	"github.com/okian/waffles/internal/domain/model"
	"github.com/okian/waffles/internal/domain/types"
	"github.com/okian/waffles/pkg/logger"
)

// Mismatch describes one person whose reported totals differ from the
// locally computed ones.
type Mismatch struct {
	Person   string
	Field    string
	Expected int
	Got      int
}

func (m Mismatch) String() string {
	return fmt.Sprintf("%s %s: expected %d, got %d", m.Person, m.Field, m.Expected, m.Got)
}

// Compare checks every expected total against the reported ranking. Persons
// the tracker reports but the export never mentions are ignored, since a
// server may hold data from earlier uploads.
func Compare(expected []model.PersonTotals, ranking []types.Standing) []Mismatch {
	byPerson := make(map[string]types.Standing, len(ranking))
	for _, s := range ranking {
		byPerson[s.Person] = s
	}

	var out []Mismatch
	for _, e := range expected {
		got, ok := byPerson[e.Person]
		if !ok {
			out = append(out, Mismatch{Person: e.Person, Field: "present", Expected: 1, Got: 0})
			continue
		}
		check := func(field string, want, have int) {
			if want != have {
				out = append(out, Mismatch{Person: e.Person, Field: field, Expected: want, Got: have})
			}
		}
		check("on_time", e.OnTime, got.OnTime)
		check("late", e.Late, got.Late)
		check("missed", e.Missed, got.Missed)
		check("double", e.Double, got.Double)
		check("penalty", e.Penalty, got.Penalty)
	}
	return out
}

// verifyResults compares the tracker's summary with the local pipeline.
func verifyResults(ctx context.Context, cfg *Config, export Export, summary types.Summary, stats *Stats) error {
	expected, err := Expected(ctx, cfg, export, summary.ReferenceWeeks)
	if err != nil {
		return err
	}
	mismatches := Compare(expected, summary.Ranking)
	stats.Mismatches = len(mismatches)
	stats.Ranking = summary.Ranking

	for _, m := range mismatches {
		logger.Get().Warn(ctx, "ranking mismatch", logger.String("detail", m.String()))
	}
	if len(mismatches) > 0 && cfg.Strict {
		return fmt.Errorf("%w: %d differences", ErrMismatch, len(mismatches))
	}
	if len(mismatches) == 0 {
		logger.Get().Info(ctx, "ranking verified", logger.Int("persons", len(expected)))
	}
	return nil
}
