// Package scoring turns weekly buckets into per-person totals, the ranking
// and the drinks-owed report.
package scoring

import (
	"sort"

	"github.com/okian/waffles/internal/domain/model"
)

// Option applies a configuration option to the Scorer.
type Option func(*Scorer)

// WithReferenceWeeks sets the number of expected check-ins per person.
func WithReferenceWeeks(n int) Option {
	return func(s *Scorer) {
		if n >= 0 {
			s.referenceWeeks = n
		}
	}
}

// WithRoster lists persons that get a totals row even without any event.
func WithRoster(ids []string) Option {
	return func(s *Scorer) {
		s.roster = append([]string(nil), ids...)
	}
}

// Scorer derives totals from buckets for a fixed reference cadence.
type Scorer struct {
	referenceWeeks int
	roster         []string
}

// NewScorer creates a scorer with configuration options.
func NewScorer(opts ...Option) *Scorer {
	s := &Scorer{}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ReferenceWeeks returns the configured cadence.
func (s *Scorer) ReferenceWeeks() int { return s.referenceWeeks }

// Totals sums buckets per person and returns them in ranking order.
// Missed is not clamped: a negative value means the events span more weeks
// than the reference cadence and is reported through PersonTotals.Anomaly.
func (s *Scorer) Totals(buckets []model.WeeklyBucket) []model.PersonTotals {
	byPerson := make(map[string]*model.PersonTotals, len(s.roster))
	get := func(id string) *model.PersonTotals {
		t, ok := byPerson[id]
		if !ok {
			t = &model.PersonTotals{Person: id}
			byPerson[id] = t
		}
		return t
	}
	for _, id := range s.roster {
		get(id)
	}
	for _, b := range buckets {
		t := get(b.Person)
		t.OnTime += b.OnTime()
		t.Late += b.Late()
		t.Double += b.Double()
	}

	out := make([]model.PersonTotals, 0, len(byPerson))
	for _, t := range byPerson {
		t.Missed = s.referenceWeeks - (t.OnTime + t.Late)
		t.Penalty = t.Late + t.Missed + t.Double
		out = append(out, *t)
	}
	Rank(out)
	return out
}

// Rank orders totals by most on-time first, ties broken by identifier.
func Rank(totals []model.PersonTotals) {
	sort.Slice(totals, func(i, j int) bool {
		if totals[i].OnTime != totals[j].OnTime {
			return totals[i].OnTime > totals[j].OnTime
		}
		return totals[i].Person < totals[j].Person
	})
}

// Owed computes reference weeks - on time - drinks done per person, keeping
// only positive balances, largest first.
func (s *Scorer) Owed(totals []model.PersonTotals, ledger model.DrinksLedger) []model.OwedEntry {
	out := make([]model.OwedEntry, 0, len(totals))
	for _, t := range totals {
		done := ledger[t.Person]
		owed := s.referenceWeeks - t.OnTime - done
		if owed <= 0 {
			continue
		}
		out = append(out, model.OwedEntry{Person: t.Person, DrinksDone: done, Owed: owed})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Owed != out[j].Owed {
			return out[i].Owed > out[j].Owed
		}
		return out[i].Person < out[j].Person
	})
	return out
}
