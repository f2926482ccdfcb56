// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/cuscogo/huntd/internal/adapters/repository"
	"github.com/cuscogo/huntd/internal/app"
	"github.com/cuscogo/huntd/internal/domain/catalog"
	"github.com/cuscogo/huntd/internal/domain/model"
)

// CatalogDependencies defines the interface for catalog queries.
type CatalogDependencies interface {
	CircleBiomes() []catalog.Biome
	Items() []catalog.Item
	LatestCaptureForItem(ctx context.Context, itemID string) (model.Capture, error)
}

// BiomesHandler serves the static catalogs for map overlays and clients.
type BiomesHandler struct {
	deps CatalogDependencies
}

// NewBiomesHandler creates a new biomes handler.
func NewBiomesHandler(deps CatalogDependencies) *BiomesHandler {
	return &BiomesHandler{deps: deps}
}

// HandleGetBiomes handles GET /biomes requests. Only circle biomes are
// returned; they are the only kind the matcher considers.
func (h *BiomesHandler) HandleGetBiomes(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	writeJSON(w, http.StatusOK, h.deps.CircleBiomes())
}

// HandleGetItems handles GET /items requests.
func (h *BiomesHandler) HandleGetItems(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	writeJSON(w, http.StatusOK, h.deps.Items())
}

// HandleItemByID handles GET /items/{id}/capture requests, returning the
// newest capture of that item for gallery tiles.
func (h *BiomesHandler) HandleItemByID(w http.ResponseWriter, r *http.Request) {
	const op = "api.item_by_id"
	path := strings.TrimPrefix(r.URL.Path, "/items/")
	itemID, rest, _ := strings.Cut(path, "/")
	if itemID == "" || rest != "capture" || r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}

	c, err := h.deps.LatestCaptureForItem(r.Context(), itemID)
	if err != nil {
		switch {
		case errors.Is(err, app.ErrUnknownItem):
			writeError(w, http.StatusBadRequest, "unknown_item", err)
		case errors.Is(err, repository.ErrNotFound):
			writeError(w, http.StatusNotFound, "not_found", NewKind(op, ErrNotFound))
		default:
			writeError(w, http.StatusInternalServerError, "internal_error", Wrap(op, err))
		}
		return
	}
	writeJSON(w, http.StatusOK, c)
}
