// Package weekly groups events into ISO weeks per person and computes the
// expected check-in cadence.
package weekly

import (
	"sort"
	"strings"
	"time"

	"github.com/okian/waffles/internal/domain/model"
)

const day = 24 * time.Hour

// Option applies a configuration option to the Aggregator.
type Option func(*Aggregator)

// WithWeekday sets the reference weekday.
func WithWeekday(w time.Weekday) Option {
	return func(a *Aggregator) {
		if w >= time.Sunday && w <= time.Saturday {
			a.weekday = w
		}
	}
}

// Aggregator builds weekly buckets relative to a reference weekday.
type Aggregator struct {
	weekday time.Weekday
}

// New creates an aggregator; the reference weekday defaults to Wednesday.
func New(opts ...Option) *Aggregator {
	a := &Aggregator{weekday: time.Wednesday}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Weekday returns the reference weekday.
func (a *Aggregator) Weekday() time.Weekday { return a.weekday }

type bucketKey struct {
	year, week int
	person     string
}

// Aggregate counts events per (ISO year, ISO week, person), ordered by week then person.
func (a *Aggregator) Aggregate(events []model.Event) []model.WeeklyBucket {
	idx := make(map[bucketKey]*model.WeeklyBucket)
	for _, e := range events {
		y, w := e.Start.ISOWeek()
		k := bucketKey{year: y, week: w, person: e.Title}
		b, ok := idx[k]
		if !ok {
			b = &model.WeeklyBucket{Year: y, Week: w, Person: e.Title}
			idx[k] = b
		}
		if e.Start.Weekday() == a.weekday {
			b.WednesdayCount++
		} else {
			b.OffDayCount++
		}
	}

	out := make([]model.WeeklyBucket, 0, len(idx))
	for _, b := range idx {
		out = append(out, *b)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Year != out[j].Year {
			return out[i].Year < out[j].Year
		}
		if out[i].Week != out[j].Week {
			return out[i].Week < out[j].Week
		}
		return out[i].Person < out[j].Person
	})
	return out
}

// CountWeekday returns how many times weekday occurs in [start, end], both
// taken as calendar days.
func CountWeekday(start, end time.Time, weekday time.Weekday) int {
	start, end = truncateDay(start), truncateDay(end)
	if start.After(end) {
		return 0
	}
	first := start.AddDate(0, 0, (int(weekday)-int(start.Weekday())+7)%7)
	if first.After(end) {
		return 0
	}
	return 1 + int(end.Sub(first)/day)/7
}

// CountSince counts weekday occurrences from start up to and including today.
func CountSince(start time.Time, weekday time.Weekday, now func() time.Time) int {
	if now == nil {
		now = time.Now
	}
	t := now()
	today := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, start.Location())
	return CountWeekday(start, today, weekday)
}

// truncateDay drops the clock and pins the day to UTC so that day
// arithmetic is never shifted by DST.
func truncateDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// ParseWeekday accepts full or three-letter English weekday names.
func ParseWeekday(s string) (time.Weekday, bool) {
	s = strings.ToLower(strings.TrimSpace(s))
	for w := time.Sunday; w <= time.Saturday; w++ {
		name := strings.ToLower(w.String())
		if s == name || (len(s) == 3 && strings.HasPrefix(name, s)) {
			return w, true
		}
	}
	return time.Sunday, false
}
