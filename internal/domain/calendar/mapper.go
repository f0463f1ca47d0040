// Package calendar promotes check-in records to calendar events and merges
// them into the accumulated event set.
package calendar

import (
	"context"
	"time"

	"github.com/okian/waffles/internal/domain/dedupe"
	"github.com/okian/waffles/internal/domain/model"
)

// DefaultColor is used for authors missing from the registry.
const DefaultColor = "gray"

// Event duration and the fallback offset used when the duration would cross midnight.
const (
	eventLength     = time.Minute
	midnightBackoff = 2 * time.Minute
)

// Option applies a configuration option to the Mapper.
type Option func(*Mapper)

// WithDefaultColor overrides the color for unknown authors.
func WithDefaultColor(color string) Option {
	return func(m *Mapper) {
		if color != "" {
			m.defaultColor = color
		}
	}
}

// Mapper converts records to events using the person registry for colors.
type Mapper struct {
	persons      model.Registry
	defaultColor string
}

// NewMapper creates a mapper over a read-only registry.
func NewMapper(persons model.Registry, opts ...Option) *Mapper {
	m := &Mapper{
		persons:      persons,
		defaultColor: DefaultColor,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// EndFor returns start+1m, or start-2m when one more minute would land on the next day.
func EndFor(start time.Time) time.Time {
	end := start.Add(eventLength)
	if !sameDay(start, end) {
		return start.Add(-midnightBackoff)
	}
	return end
}

func sameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}

// Color returns the registered color of person, or the mapper's default.
func (m *Mapper) Color(person string) string {
	if p, ok := m.persons.Lookup(person); ok && p.Color != "" {
		return p.Color
	}
	return m.defaultColor
}

// ToEvent maps one record. Records without an author are not events.
func (m *Mapper) ToEvent(r model.Record) (model.Event, bool) {
	if r.Author == nil {
		return model.Event{}, false
	}
	return model.Event{
		Title: *r.Author,
		Start: r.Timestamp,
		End:   EndFor(r.Timestamp),
		Color: m.Color(*r.Author),
	}, true
}

// ToEvents maps records in order, dropping author-less ones.
func (m *Mapper) ToEvents(records []model.Record) []model.Event {
	out := make([]model.Event, 0, len(records))
	for _, r := range records {
		if e, ok := m.ToEvent(r); ok {
			out = append(out, e)
		}
	}
	return out
}

// MergeResult describes the outcome of a merge.
type MergeResult struct {
	Events     []model.Event // existing events followed by the accepted ones
	Accepted   int
	Duplicates int
}

// Merge appends incoming events whose (person, day) is not yet present.
// Existing events are never removed or changed; within incoming the first
// event of a (person, day) wins.
func Merge(ctx context.Context, existing, incoming []model.Event) MergeResult {
	keys := make([]string, 0, len(existing))
	for _, e := range existing {
		keys = append(keys, dedupe.DayKey(e.Title, e.Start))
	}
	seen := dedupe.NewInMemoryDeduper(
		dedupe.WithCapacity(len(existing)+len(incoming)),
		dedupe.WithSeed(keys...),
	)

	res := MergeResult{Events: make([]model.Event, len(existing), len(existing)+len(incoming))}
	copy(res.Events, existing)
	for _, e := range incoming {
		if seen.SeenAndRecord(ctx, dedupe.DayKey(e.Title, e.Start)) {
			res.Duplicates++
			continue
		}
		res.Events = append(res.Events, e)
		res.Accepted++
	}
	return res
}
