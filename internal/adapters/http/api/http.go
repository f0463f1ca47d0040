// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"io"
	"net/http"

	"github.com/okian/waffles/internal/domain/model"
	"github.com/okian/waffles/internal/domain/types"
)

// DefaultMaxUploadBytes caps chat export uploads when no limit is configured.
const DefaultMaxUploadBytes int64 = 32 << 20

// Dependencies required by HTTP handlers. Using an interface bundle keeps
// the handler layer loosely coupled to the tracker service.
type Dependencies interface {
	// Process ingests one chat export and merges its check-ins.
	Process(ctx context.Context, r io.Reader) (types.ImportResult, error)

	// Read operations expose the recomputed view.
	Events(ctx context.Context) []model.Event
	Weeks(ctx context.Context) []types.Week
	Ranking(ctx context.Context) []types.Standing
	Owed(ctx context.Context) []types.Owed
	Summary(ctx context.Context) types.Summary
	Persons(ctx context.Context) []model.Person

	// Ledger operations.
	Ledger(ctx context.Context) []types.LedgerEntry
	AddDrinks(ctx context.Context, name string, n int) (types.LedgerEntry, error)
}

// Server wires HTTP routes for the business API.
type Server struct {
	maxUploadBytes int64

	healthHandler   *HealthHandler
	statsHandler    *StatsHandler
	uploadHandler   *UploadHandler
	calendarHandler *CalendarHandler
	rankingHandler  *RankingHandler
	ledgerHandler   *LedgerHandler
	personsHandler  *PersonsHandler
}

// ServerOption configures a Server.
type ServerOption func(*Server)

// WithMaxUploadBytes limits the size of an uploaded chat export.
func WithMaxUploadBytes(n int64) ServerOption {
	return func(s *Server) {
		if n > 0 {
			s.maxUploadBytes = n
		}
	}
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies, statsProvider StatsProvider, opts ...ServerOption) *Server {
	s := &Server{maxUploadBytes: DefaultMaxUploadBytes}
	for _, opt := range opts {
		opt(s)
	}
	s.healthHandler = NewHealthHandler()
	s.statsHandler = NewStatsHandler(statsProvider)
	s.uploadHandler = NewUploadHandler(deps, s.maxUploadBytes)
	s.calendarHandler = NewCalendarHandler(deps)
	s.rankingHandler = NewRankingHandler(deps)
	s.ledgerHandler = NewLedgerHandler(deps)
	s.personsHandler = NewPersonsHandler(deps)
	return s
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(_ context.Context, mux *http.ServeMux) {
	mux.HandleFunc("/healthz", MetricsMiddleware(s.healthHandler.HandleHealth, "healthz"))
	mux.HandleFunc("/metrics", s.healthHandler.HandleMetrics)
	mux.HandleFunc("/stats", MetricsMiddleware(s.statsHandler.HandleStats, "stats"))
	mux.HandleFunc("/upload", MetricsMiddleware(s.uploadHandler.HandleUpload, "upload"))
	mux.HandleFunc("/events", MetricsMiddleware(s.calendarHandler.HandleEvents, "events"))
	mux.HandleFunc("/weeks", MetricsMiddleware(s.calendarHandler.HandleWeeks, "weeks"))
	mux.HandleFunc("/ranking", MetricsMiddleware(s.rankingHandler.HandleRanking, "ranking"))
	mux.HandleFunc("/owed", MetricsMiddleware(s.rankingHandler.HandleOwed, "owed"))
	mux.HandleFunc("/summary", MetricsMiddleware(s.rankingHandler.HandleSummary, "summary"))
	mux.HandleFunc("/ledger", MetricsMiddleware(s.ledgerHandler.HandleLedger, "ledger"))
	mux.HandleFunc("/ledger/drinks", MetricsMiddleware(s.ledgerHandler.HandleAddDrinks, "ledger_drinks"))
	mux.HandleFunc("/persons", MetricsMiddleware(s.personsHandler.HandlePersons, "persons"))
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}

// allowMethod writes a 405 and returns false unless r uses one of methods.
func allowMethod(w http.ResponseWriter, r *http.Request, methods ...string) bool {
	for _, m := range methods {
		if r.Method == m {
			return true
		}
	}
	for _, m := range methods {
		w.Header().Add("Allow", m)
	}
	writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", NewKind(r.URL.Path, ErrMethodNotAllow))
	return false
}
