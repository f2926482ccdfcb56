// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/cuscogo/huntd/internal/adapters/repository"
	"github.com/cuscogo/huntd/internal/app"
	"github.com/cuscogo/huntd/internal/domain/model"
)

// CaptureDependencies defines the interface for capture operations.
type CaptureDependencies interface {
	RecordCapture(ctx context.Context, in app.CaptureInput) (model.Capture, model.BonusAward, error)
	DeleteCapture(ctx context.Context, id int64) error
	Captures(ctx context.Context, f repository.CaptureFilter) ([]model.Capture, error)
	BonusesForCapture(ctx context.Context, captureID int64) ([]model.BonusEvent, error)
}

// CapturesHandler handles capture requests.
type CapturesHandler struct {
	deps CaptureDependencies
}

// NewCapturesHandler creates a new captures handler.
func NewCapturesHandler(deps CaptureDependencies) *CapturesHandler {
	return &CapturesHandler{deps: deps}
}

// HandleCaptures handles POST /captures and GET /captures requests.
func (h *CapturesHandler) HandleCaptures(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		h.handlePost(w, r)
	case http.MethodGet:
		h.handleList(w, r)
	default:
		http.NotFound(w, r)
	}
}

func (h *CapturesHandler) handlePost(w http.ResponseWriter, r *http.Request) {
	const op = "api.post_capture"
	var req captureRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}
	if err := req.validate(); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}

	capture, award, err := h.deps.RecordCapture(r.Context(), app.CaptureInput{
		ItemID:       req.ItemID,
		OriginalURI:  req.OriginalURI,
		ThumbnailURI: req.ThumbnailURI,
		Latitude:     req.Latitude,
		Longitude:    req.Longitude,
		CreatedAt:    req.CreatedAt,
	})
	if err != nil {
		if errors.Is(err, app.ErrUnknownItem) {
			writeError(w, http.StatusBadRequest, "unknown_item", err)
			return
		}
		writeError(w, http.StatusInternalServerError, "internal_error", Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusCreated, captureResponse{Capture: capture, Bonus: award})
}

func (h *CapturesHandler) handleList(w http.ResponseWriter, r *http.Request) {
	const op = "api.list_captures"
	var f repository.CaptureFilter
	q := r.URL.Query()
	f.ItemID = q.Get("item_id")
	for param, dst := range map[string]*int64{"since": &f.StartMillis, "until": &f.EndMillis} {
		if raw := q.Get(param); raw != "" {
			v, err := strconv.ParseInt(raw, 10, 64)
			if err != nil {
				writeError(w, http.StatusBadRequest, "bad_request", NewKind(op, ErrBadRequest))
				return
			}
			*dst = v
		}
	}

	captures, err := h.deps.Captures(r.Context(), f)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal_error", Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, captures)
}

// HandleCaptureByID handles DELETE /captures/{id} and
// GET /captures/{id}/bonuses requests.
func (h *CapturesHandler) HandleCaptureByID(w http.ResponseWriter, r *http.Request) {
	const op = "api.capture_by_id"
	path := strings.TrimPrefix(r.URL.Path, "/captures/")
	idPart, rest, _ := strings.Cut(path, "/")
	id, err := strconv.ParseInt(idPart, 10, 64)
	if err != nil || id < 1 {
		writeError(w, http.StatusBadRequest, "bad_request", NewKind(op, ErrBadRequest))
		return
	}

	switch {
	case rest == "" && r.Method == http.MethodDelete:
		if err := h.deps.DeleteCapture(r.Context(), id); err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				writeError(w, http.StatusNotFound, "not_found", NewKind(op, ErrNotFound))
				return
			}
			writeError(w, http.StatusInternalServerError, "internal_error", Wrap(op, err))
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
	case rest == "bonuses" && r.Method == http.MethodGet:
		events, err := h.deps.BonusesForCapture(r.Context(), id)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal_error", Wrap(op, err))
			return
		}
		writeJSON(w, http.StatusOK, events)
	default:
		http.NotFound(w, r)
	}
}
