package api

import (
	"context"
	"net/http"

	"github.com/okian/waffles/internal/domain/types"
)

type rankingDeps interface {
	Ranking(ctx context.Context) []types.Standing
	Owed(ctx context.Context) []types.Owed
	Summary(ctx context.Context) types.Summary
}

// RankingHandler serves the ranking, the owed report and the full summary.
type RankingHandler struct {
	deps rankingDeps
}

// NewRankingHandler creates a new ranking handler.
func NewRankingHandler(deps rankingDeps) *RankingHandler {
	return &RankingHandler{deps: deps}
}

// HandleRanking handles GET /ranking.
func (h *RankingHandler) HandleRanking(w http.ResponseWriter, r *http.Request) {
	if !allowMethod(w, r, http.MethodGet) {
		return
	}
	rows := h.deps.Ranking(r.Context())
	if rows == nil {
		rows = []types.Standing{}
	}
	writeJSON(w, http.StatusOK, rows)
}

// HandleOwed handles GET /owed.
func (h *RankingHandler) HandleOwed(w http.ResponseWriter, r *http.Request) {
	if !allowMethod(w, r, http.MethodGet) {
		return
	}
	rows := h.deps.Owed(r.Context())
	if rows == nil {
		rows = []types.Owed{}
	}
	writeJSON(w, http.StatusOK, rows)
}

// HandleSummary handles GET /summary.
func (h *RankingHandler) HandleSummary(w http.ResponseWriter, r *http.Request) {
	if !allowMethod(w, r, http.MethodGet) {
		return
	}
	writeJSON(w, http.StatusOK, h.deps.Summary(r.Context()))
}
