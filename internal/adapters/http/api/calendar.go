package api

import (
	"context"
	"net/http"

	"github.com/okian/waffles/internal/domain/model"
	"github.com/okian/waffles/internal/domain/types"
)

type calendarDeps interface {
	Events(ctx context.Context) []model.Event
	Weeks(ctx context.Context) []types.Week
}

// CalendarHandler serves the stored calendar and its weekly buckets.
type CalendarHandler struct {
	deps calendarDeps
}

// NewCalendarHandler creates a new calendar handler.
func NewCalendarHandler(deps calendarDeps) *CalendarHandler {
	return &CalendarHandler{deps: deps}
}

// HandleEvents handles GET /events.
func (h *CalendarHandler) HandleEvents(w http.ResponseWriter, r *http.Request) {
	if !allowMethod(w, r, http.MethodGet) {
		return
	}
	events := h.deps.Events(r.Context())
	if events == nil {
		events = []model.Event{}
	}
	writeJSON(w, http.StatusOK, events)
}

// HandleWeeks handles GET /weeks.
func (h *CalendarHandler) HandleWeeks(w http.ResponseWriter, r *http.Request) {
	if !allowMethod(w, r, http.MethodGet) {
		return
	}
	weeks := h.deps.Weeks(r.Context())
	if weeks == nil {
		weeks = []types.Week{}
	}
	writeJSON(w, http.StatusOK, weeks)
}
