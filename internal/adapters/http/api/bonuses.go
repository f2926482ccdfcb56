// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"net/http"

	"github.com/cuscogo/huntd/internal/domain/model"
)

// BonusDependencies defines the interface for ledger queries.
type BonusDependencies interface {
	AllBonuses(ctx context.Context) ([]model.BonusEvent, error)
}

// BonusesHandler handles bonus ledger requests.
type BonusesHandler struct {
	deps BonusDependencies
}

// NewBonusesHandler creates a new bonuses handler.
func NewBonusesHandler(deps BonusDependencies) *BonusesHandler {
	return &BonusesHandler{deps: deps}
}

// HandleGetBonuses handles GET /bonuses requests.
func (h *BonusesHandler) HandleGetBonuses(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_bonuses"
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	events, err := h.deps.AllBonuses(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal_error", Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, events)
}
