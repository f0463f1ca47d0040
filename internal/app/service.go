// Package service holds the tracker session: the accumulated calendar, the
// drinks ledger and every view recomputed from them. It implements the
// dependencies required by the HTTP API.
package service

import (
	"context"
	"fmt"
	"io"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/okian/waffles/internal/adapters/repository"
	"github.com/okian/waffles/internal/domain/calendar"
	"github.com/okian/waffles/internal/domain/chatlog"
	"github.com/okian/waffles/internal/domain/model"
	"github.com/okian/waffles/internal/domain/scoring"
	"github.com/okian/waffles/internal/domain/types"
	"github.com/okian/waffles/internal/domain/weekly"
	"github.com/okian/waffles/pkg/logger"
	"github.com/okian/waffles/pkg/metrics"
)

// Ledger is the drinks ledger collaborator.
type Ledger interface {
	Read(ctx context.Context) (model.DrinksLedger, error)
	AddDrinks(ctx context.Context, name string, n int) (int, error)
}

// Service implements the API dependencies for the tracker.
type Service struct {
	mu sync.RWMutex

	// Collaborators
	store  repository.Store
	ledger Ledger
	parser *chatlog.Parser

	// Configuration
	persons      model.Registry
	keyword      string
	start        time.Time
	weekday      time.Weekday
	defaultColor string
	now          func() time.Time
	newID        func() string

	// State
	started bool
	events  []model.Event
	drinks  model.DrinksLedger // keyed by person id
	imports int

	logger logger.Logger
}

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithStore sets the event store. Defaults to an in-memory store.
func WithStore(store repository.Store) Option {
	return func(s *Service) {
		if store != nil {
			s.store = store
		}
	}
}

// WithLedger sets the drinks ledger. Without one the ledger is empty and read-only.
func WithLedger(l Ledger) Option {
	return func(s *Service) {
		s.ledger = l
	}
}

// WithParser replaces the default chat parser.
func WithParser(p *chatlog.Parser) Option {
	return func(s *Service) {
		if p != nil {
			s.parser = p
		}
	}
}

// WithPersons sets the person registry.
func WithPersons(persons model.Registry) Option {
	return func(s *Service) {
		if persons != nil {
			s.persons = persons
		}
	}
}

// WithKeyword sets the check-in keyword.
func WithKeyword(keyword string) Option {
	return func(s *Service) {
		s.keyword = keyword
	}
}

// WithStartDate sets the first tracked day.
func WithStartDate(t time.Time) Option {
	return func(s *Service) {
		if !t.IsZero() {
			y, m, d := t.Date()
			s.start = time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
		}
	}
}

// WithWeekday sets the reference weekday.
func WithWeekday(w time.Weekday) Option {
	return func(s *Service) {
		s.weekday = w
	}
}

// WithDefaultColor sets the color for authors without a registered one.
func WithDefaultColor(color string) Option {
	return func(s *Service) {
		if color != "" {
			s.defaultColor = color
		}
	}
}

// WithClock sets the source of "today" for the reference week count.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// WithIDGenerator replaces the import id generator.
func WithIDGenerator(fn func() string) Option {
	return func(s *Service) {
		if fn != nil {
			s.newID = fn
		}
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// New constructs a new Service with default configuration.
func New(opts ...Option) *Service {
	s := &Service{
		store:        repository.NewMemoryStore(),
		parser:       chatlog.NewParser(),
		persons:      model.Registry{},
		keyword:      "Video note",
		start:        time.Date(2025, 6, 11, 0, 0, 0, 0, time.UTC),
		weekday:      time.Wednesday,
		defaultColor: calendar.DefaultColor,
		now:          time.Now,
		newID:        uuid.NewString,
		events:       []model.Event{},
		drinks:       model.DrinksLedger{},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start loads the stored events and the drinks ledger. Unreadable sources
// are logged and replaced by empty state so the tracker still comes up.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}
	if s.logger == nil {
		s.logger = logger.Get()
	}

	s.logger.Info(ctx, "starting tracker service...")

	events, err := s.store.Load(ctx)
	if err != nil {
		metrics.RecordStoreError("load")
		s.logger.Warn(ctx, "event store unreadable, starting with an empty calendar", logger.Error(err))
		events = []model.Event{}
	}
	s.events = events

	s.drinks = s.readLedger(ctx)
	s.started = true

	metrics.UpdateEventsStored(len(s.events))
	s.logger.Info(ctx, "tracker service started",
		logger.Int("events", len(s.events)),
		logger.Int("persons", len(s.persons)),
		logger.Int("ledger_rows", len(s.drinks)),
		logger.String("start_date", s.start.Format(model.DayLayout)),
		logger.String("weekday", s.weekday.String()),
	)
	return nil
}

// Stop releases the event store.
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return
	}
	s.logger.Info(context.Background(), "stopping tracker service...")
	if err := s.store.Close(); err != nil {
		s.logger.Warn(context.Background(), "closing event store", logger.Error(err))
	}
	s.started = false
	s.logger.Info(context.Background(), "tracker service stopped")
}

// readLedger returns the ledger keyed by person id, or an empty one when
// the ledger is missing or unreadable.
func (s *Service) readLedger(ctx context.Context) model.DrinksLedger {
	out := model.DrinksLedger{}
	if s.ledger == nil {
		return out
	}
	raw, err := s.ledger.Read(ctx)
	if err != nil {
		metrics.RecordLedgerError("read")
		s.logger.Warn(ctx, "drinks ledger unreadable, assuming no drinks done", logger.Error(err))
		return out
	}
	for name, n := range raw {
		out[s.resolvePerson(name)] += n
	}
	return out
}

// resolvePerson maps a ledger name to a person id: exact id, then
// case-insensitive id or display name. Unknown names are kept as written.
func (s *Service) resolvePerson(name string) string {
	name = strings.TrimSpace(name)
	if _, ok := s.persons[name]; ok {
		return name
	}
	for _, id := range s.persons.IDs() {
		p := s.persons[id]
		if strings.EqualFold(id, name) || strings.EqualFold(p.Name, name) {
			return id
		}
	}
	return name
}

// Process runs an uploaded chat export through the pipeline and merges the
// resulting events into the calendar. Nothing is changed when saving fails.
func (s *Service) Process(ctx context.Context, r io.Reader) (types.ImportResult, error) {
	if !s.isStarted() {
		return types.ImportResult{}, ErrNotStarted
	}

	parsed, err := s.parser.Parse(ctx, r)
	if err != nil {
		metrics.RecordUpload("error")
		return types.ImportResult{}, fmt.Errorf("%w: %w", ErrReadUpload, err)
	}
	if parsed.Lines == 0 {
		metrics.RecordUpload("empty")
		return types.ImportResult{}, ErrEmptyUpload
	}
	metrics.RecordLines(len(parsed.Records), parsed.Skipped)

	since := s.start
	kept, matched := chatlog.Filter(parsed.Records, s.keyword, &since)
	if !matched {
		metrics.RecordKeywordFallback()
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	incoming := s.mapper().ToEvents(kept)
	merged := calendar.Merge(ctx, s.events, incoming)
	if merged.Accepted > 0 {
		if err := s.store.Save(ctx, merged.Events); err != nil {
			metrics.RecordStoreError("save")
			metrics.RecordUpload("error")
			s.logger.Error(ctx, "saving events failed", logger.Error(err))
			return types.ImportResult{}, fmt.Errorf("%w: %w", ErrPersist, err)
		}
		s.events = merged.Events
	}
	s.imports++

	res := types.ImportResult{
		ImportID:   s.newID(),
		Lines:      parsed.Lines,
		Records:    len(parsed.Records),
		Matched:    matched,
		Kept:       len(kept),
		Accepted:   merged.Accepted,
		Duplicates: merged.Duplicates,
		Total:      len(s.events),
	}

	metrics.RecordUpload("ok")
	metrics.RecordMerge(merged.Accepted, merged.Duplicates)
	metrics.UpdateEventsStored(len(s.events))
	s.logger.Info(ctx, "chat export processed",
		logger.String("import_id", res.ImportID),
		logger.Int("lines", res.Lines),
		logger.Int("records", res.Records),
		logger.Bool("keyword_matched", matched),
		logger.Int("accepted", res.Accepted),
		logger.Int("duplicates", res.Duplicates),
	)
	return res, nil
}

func (s *Service) isStarted() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.started
}

func (s *Service) mapper() *calendar.Mapper {
	return calendar.NewMapper(s.persons, calendar.WithDefaultColor(s.defaultColor))
}

// view is one recomputation of everything derived from the calendar.
type view struct {
	referenceWeeks int
	buckets        []model.WeeklyBucket
	totals         []model.PersonTotals
	owed           []model.OwedEntry
}

// compute must be called with s.mu held.
func (s *Service) compute() view {
	began := time.Now()
	ref := weekly.CountSince(s.start, s.weekday, s.now)
	buckets := weekly.New(weekly.WithWeekday(s.weekday)).Aggregate(s.events)
	scorer := scoring.NewScorer(
		scoring.WithReferenceWeeks(ref),
		scoring.WithRoster(s.persons.IDs()),
	)
	totals := scorer.Totals(buckets)
	v := view{
		referenceWeeks: ref,
		buckets:        buckets,
		totals:         totals,
		owed:           scorer.Owed(totals, s.drinks),
	}

	anomalies := 0
	for _, t := range totals {
		if t.Anomaly() {
			anomalies++
		}
	}
	metrics.RecordRecomputeLatency(float64(time.Since(began).Microseconds()) / 1000)
	metrics.UpdateReferenceWeeks(ref)
	metrics.UpdatePersonsTracked(len(totals))
	metrics.UpdateScoreAnomalies(anomalies)
	return v
}

// Events returns the calendar events in insertion order.
func (s *Service) Events(_ context.Context) []model.Event {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]model.Event{}, s.events...)
}

// Weeks returns the weekly table.
func (s *Service) Weeks(_ context.Context) []types.Week {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v := s.compute()
	out := make([]types.Week, len(v.buckets))
	for i, b := range v.buckets {
		out[i] = types.NewWeek(b)
	}
	return out
}

// Ranking returns persons ordered by on-time check-ins.
func (s *Service) Ranking(_ context.Context) []types.Standing {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.standings(s.compute())
}

func (s *Service) standings(v view) []types.Standing {
	m := s.mapper()
	out := make([]types.Standing, len(v.totals))
	for i, t := range v.totals {
		name, avatar := t.Person, ""
		if p, ok := s.persons.Lookup(t.Person); ok {
			name, avatar = p.Name, p.Avatar
		}
		out[i] = types.Standing{
			Rank:    i + 1,
			Person:  t.Person,
			Name:    name,
			Color:   m.Color(t.Person),
			Avatar:  avatar,
			OnTime:  t.OnTime,
			Late:    t.Late,
			Missed:  t.Missed,
			Double:  t.Double,
			Penalty: t.Penalty,
			Delta:   t.OnTime - v.referenceWeeks,
			Anomaly: t.Anomaly(),
		}
	}
	return out
}

// Owed returns the drinks-owed report, largest debt first.
func (s *Service) Owed(_ context.Context) []types.Owed {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.owedRows(s.compute())
}

func (s *Service) owedRows(v view) []types.Owed {
	out := make([]types.Owed, len(v.owed))
	for i, o := range v.owed {
		name := o.Person
		if p, ok := s.persons.Lookup(o.Person); ok {
			name = p.Name
		}
		out[i] = types.Owed{Person: o.Person, Name: name, DrinksDone: o.DrinksDone, Owed: o.Owed}
	}
	return out
}

// Summary returns the dashboard view in one recomputation.
func (s *Service) Summary(_ context.Context) types.Summary {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v := s.compute()
	return types.Summary{
		ReferenceWeeks: v.referenceWeeks,
		StartDate:      s.start.Format(model.DayLayout),
		Weekday:        s.weekday.String(),
		Events:         len(s.events),
		Ranking:        s.standings(v),
		Owed:           s.owedRows(v),
	}
}

// Ledger returns drinks done per person, sorted by person.
func (s *Service) Ledger(_ context.Context) []types.LedgerEntry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]types.LedgerEntry, 0, len(s.drinks))
	for person, n := range s.drinks {
		out = append(out, types.LedgerEntry{Person: person, DrinksDone: n})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Person < out[j].Person })
	return out
}

// AddDrinks records drinks for a person in the ledger and reloads it.
func (s *Service) AddDrinks(ctx context.Context, name string, n int) (types.LedgerEntry, error) {
	if !s.isStarted() {
		return types.LedgerEntry{}, ErrNotStarted
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.ledger == nil {
		return types.LedgerEntry{}, ErrLedgerDisabled
	}
	person := s.resolvePerson(name)
	written := person
	if p, ok := s.persons.Lookup(person); ok {
		written = p.Name
	}
	if _, err := s.ledger.AddDrinks(ctx, written, n); err != nil {
		metrics.RecordLedgerError("write")
		return types.LedgerEntry{}, err
	}
	metrics.RecordDrinks(n)

	s.drinks = s.readLedger(ctx)
	entry := types.LedgerEntry{Person: person, DrinksDone: s.drinks[person]}
	s.logger.Info(ctx, "drinks recorded",
		logger.String("person", person),
		logger.Int("drinks", n),
		logger.Int("total", entry.DrinksDone),
	)
	return entry, nil
}

// Persons returns the registry sorted by id.
func (s *Service) Persons(_ context.Context) []model.Person {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]model.Person, 0, len(s.persons))
	for _, id := range s.persons.IDs() {
		out = append(out, s.persons[id])
	}
	return out
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() map[string]any {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := map[string]any{
		"started":   s.started,
		"events":    len(s.events),
		"persons":   len(s.persons),
		"imports":   s.imports,
		"ledger":    s.ledger != nil,
		"startDate": s.start.Format(model.DayLayout),
		"weekday":   s.weekday.String(),
		"keyword":   s.keyword,
	}
	if s.started {
		stats["referenceWeeks"] = weekly.CountSince(s.start, s.weekday, s.now)
	}
	return stats
}
