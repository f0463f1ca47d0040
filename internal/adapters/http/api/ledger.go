package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/okian/waffles/internal/adapters/ledger"
	service "github.com/okian/waffles/internal/app"
	"github.com/okian/waffles/internal/domain/types"
	"github.com/okian/waffles/pkg/logger"
)

// maxDrinksBodyBytes caps the JSON body of a drinks update.
const maxDrinksBodyBytes = 4 << 10

type ledgerDeps interface {
	Ledger(ctx context.Context) []types.LedgerEntry
	AddDrinks(ctx context.Context, name string, n int) (types.LedgerEntry, error)
}

// LedgerHandler serves and edits the drinks ledger.
type LedgerHandler struct {
	deps ledgerDeps
}

// NewLedgerHandler creates a new ledger handler.
func NewLedgerHandler(deps ledgerDeps) *LedgerHandler {
	return &LedgerHandler{deps: deps}
}

// HandleLedger handles GET /ledger.
func (h *LedgerHandler) HandleLedger(w http.ResponseWriter, r *http.Request) {
	if !allowMethod(w, r, http.MethodGet) {
		return
	}
	rows := h.deps.Ledger(r.Context())
	if rows == nil {
		rows = []types.LedgerEntry{}
	}
	writeJSON(w, http.StatusOK, rows)
}

// HandleAddDrinks handles POST /ledger/drinks.
func (h *LedgerHandler) HandleAddDrinks(w http.ResponseWriter, r *http.Request) {
	const op = "api.ledger.add"
	if !allowMethod(w, r, http.MethodPost) {
		return
	}

	var req types.DrinksRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxDrinksBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, "too_large", WrapKind(op, ErrTooLarge, err))
			return
		}
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" || req.Drinks == 0 {
		writeError(w, http.StatusBadRequest, "bad_request", NewKind(op, ErrBadRequest))
		return
	}

	entry, err := h.deps.AddDrinks(r.Context(), req.Name, req.Drinks)
	switch {
	case err == nil:
		writeJSON(w, http.StatusOK, entry)
	case errors.Is(err, ledger.ErrInvalidName), errors.Is(err, ledger.ErrInvalidDrinks):
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
	case errors.Is(err, service.ErrLedgerDisabled), errors.Is(err, service.ErrNotStarted):
		writeError(w, http.StatusServiceUnavailable, "unavailable", WrapKind(op, ErrUnavailable, err))
	default:
		logger.Get().Error(r.Context(), "ledger update failed", logger.Error(err))
		writeError(w, http.StatusInternalServerError, "internal", Wrap(op, err))
	}
}
