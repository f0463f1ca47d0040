package api

import (
	"context"
	"net/http"

	"github.com/okian/waffles/internal/domain/model"
)

type personsDeps interface {
	Persons(ctx context.Context) []model.Person
}

// PersonsHandler serves the configured registry.
type PersonsHandler struct {
	deps personsDeps
}

// NewPersonsHandler creates a new persons handler.
func NewPersonsHandler(deps personsDeps) *PersonsHandler {
	return &PersonsHandler{deps: deps}
}

// HandlePersons handles GET /persons.
func (h *PersonsHandler) HandlePersons(w http.ResponseWriter, r *http.Request) {
	if !allowMethod(w, r, http.MethodGet) {
		return
	}
	persons := h.deps.Persons(r.Context())
	if persons == nil {
		persons = []model.Person{}
	}
	writeJSON(w, http.StatusOK, persons)
}
