// Package model contains domain models passed between layers.
package model

import (
	"encoding/json"
	"fmt"
	"sort"
	"time"
)

// TimeLayout is the wire format of event instants: ISO-8601 local time without offset.
const TimeLayout = "2006-01-02T15:04:05"

// DayLayout formats the calendar day part of an instant.
const DayLayout = "2006-01-02"

// Record is one parsed chat line.
type Record struct {
	Timestamp time.Time // minute precision, wall clock without zone
	Author    *string   // nil for system messages
	Message   string
}

// AuthorName returns the author or "" for system messages.
func (r Record) AuthorName() string {
	if r.Author == nil {
		return ""
	}
	return *r.Author
}

// Event is a qualifying message promoted to a calendar entry.
// Fields mirror the calendar widget's event object.
type Event struct {
	Title string    // person identifier
	Start time.Time // record timestamp
	End   time.Time // start + 1m, kept inside the start's day
	Color string    // display color
}

// Day returns the calendar day of the event start (YYYY-MM-DD).
func (e Event) Day() string {
	return e.Start.Format(DayLayout)
}

type eventJSON struct {
	Title string `json:"title"`
	Start string `json:"start"`
	End   string `json:"end"`
	Color string `json:"color"`
}

// MarshalJSON encodes instants as local ISO-8601 without offset.
func (e Event) MarshalJSON() ([]byte, error) {
	return json.Marshal(eventJSON{
		Title: e.Title,
		Start: e.Start.Format(TimeLayout),
		End:   e.End.Format(TimeLayout),
		Color: e.Color,
	})
}

// UnmarshalJSON decodes the calendar event shape.
func (e *Event) UnmarshalJSON(b []byte) error {
	var raw eventJSON
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	start, err := time.ParseInLocation(TimeLayout, raw.Start, time.UTC)
	if err != nil {
		return fmt.Errorf("event start: %w", err)
	}
	end, err := time.ParseInLocation(TimeLayout, raw.End, time.UTC)
	if err != nil {
		return fmt.Errorf("event end: %w", err)
	}
	*e = Event{Title: raw.Title, Start: start, End: end, Color: raw.Color}
	return nil
}

// Person is a tracked participant, loaded from configuration.
type Person struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Color  string `json:"color"`
	Avatar string `json:"avatar"`
}

// Registry is a read-only lookup of persons by identifier.
type Registry map[string]Person

// Lookup returns the person registered under id.
func (r Registry) Lookup(id string) (Person, bool) {
	p, ok := r[id]
	return p, ok
}

// IDs returns the registered identifiers in alphabetical order.
func (r Registry) IDs() []string {
	ids := make([]string, 0, len(r))
	for id := range r {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// WeeklyBucket counts one person's events within one ISO week.
type WeeklyBucket struct {
	Year           int    // ISO year
	Week           int    // ISO week number
	Person         string // person identifier
	WednesdayCount int    // events on the reference weekday
	OffDayCount    int    // events on any other weekday
}

// Late is 1 when the week has off-day events but none on the reference weekday.
func (b WeeklyBucket) Late() int {
	if b.WednesdayCount == 0 && b.OffDayCount > 0 {
		return 1
	}
	return 0
}

// Double counts reference-weekday events beyond the first.
func (b WeeklyBucket) Double() int {
	if b.WednesdayCount > 1 {
		return b.WednesdayCount - 1
	}
	return 0
}

// OnTime is 1 when at least one event fell on the reference weekday.
func (b WeeklyBucket) OnTime() int {
	return b.WednesdayCount - b.Double()
}

// PersonTotals sums a person's buckets over the tracked range.
type PersonTotals struct {
	Person  string
	OnTime  int
	Late    int
	Missed  int // reference weeks - (on time + late); negative signals inconsistent data
	Double  int
	Penalty int // late + missed + double
}

// Anomaly reports a negative missed count.
func (t PersonTotals) Anomaly() bool {
	return t.Missed < 0
}

// OwedEntry is one row of the drinks-owed report.
type OwedEntry struct {
	Person     string
	DrinksDone int
	Owed       int
}

// DrinksLedger maps a person to the drinks already consumed.
type DrinksLedger map[string]int
