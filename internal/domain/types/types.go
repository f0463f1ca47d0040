// Package types contains response shapes shared by the service and the HTTP API.
package types

import "github.com/okian/waffles/internal/domain/model"

// ImportResult summarizes one processed upload.
type ImportResult struct {
	ImportID   string `json:"import_id"`
	Lines      int    `json:"lines"`
	Records    int    `json:"records"`
	Matched    bool   `json:"matched"`
	Kept       int    `json:"kept"`
	Accepted   int    `json:"accepted"`
	Duplicates int    `json:"duplicates"`
	Total      int    `json:"total"`
}

// Week is one row of the weekly table.
type Week struct {
	Year           int    `json:"year"`
	Week           int    `json:"week"`
	Person         string `json:"person"`
	WednesdayCount int    `json:"wednesday_count"`
	OffDayCount    int    `json:"off_day_count"`
	OnTime         int    `json:"on_time"`
	Late           int    `json:"late"`
	Double         int    `json:"double"`
}

// NewWeek flattens a bucket with its derived counts.
func NewWeek(b model.WeeklyBucket) Week {
	return Week{
		Year:           b.Year,
		Week:           b.Week,
		Person:         b.Person,
		WednesdayCount: b.WednesdayCount,
		OffDayCount:    b.OffDayCount,
		OnTime:         b.OnTime(),
		Late:           b.Late(),
		Double:         b.Double(),
	}
}

// Standing is a ranked person with display attributes.
type Standing struct {
	Rank    int    `json:"rank"`
	Person  string `json:"person"`
	Name    string `json:"name"`
	Color   string `json:"color"`
	Avatar  string `json:"avatar,omitempty"`
	OnTime  int    `json:"on_time"`
	Late    int    `json:"late"`
	Missed  int    `json:"missed"`
	Double  int    `json:"double"`
	Penalty int    `json:"penalty"`
	Delta   int    `json:"delta"` // on time minus reference weeks
	Anomaly bool   `json:"anomaly,omitempty"`
}

// Owed is one row of the drinks-owed report.
type Owed struct {
	Person     string `json:"person"`
	Name       string `json:"name"`
	DrinksDone int    `json:"drinks_done"`
	Owed       int    `json:"owed"`
}

// LedgerEntry is one row of the drinks ledger.
type LedgerEntry struct {
	Person     string `json:"person"`
	DrinksDone int    `json:"drinks_done"`
}

// DrinksRequest is the body of a ledger edit.
type DrinksRequest struct {
	Name   string `json:"name"`
	Drinks int    `json:"drinks"`
}

// Summary is the recomputed view handed to the dashboard.
type Summary struct {
	ReferenceWeeks int        `json:"reference_weeks"`
	StartDate      string     `json:"start_date"`
	Weekday        string     `json:"weekday"`
	Events         int        `json:"events"`
	Ranking        []Standing `json:"ranking"`
	Owed           []Owed     `json:"owed"`
}
