// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/cuscogo/huntd/internal/adapters/repository"
	"github.com/cuscogo/huntd/internal/app"
	"github.com/cuscogo/huntd/internal/domain/catalog"
	"github.com/cuscogo/huntd/internal/domain/model"
)

// Dependencies required by HTTP handlers. Using an interface bundle keeps
// the handler layer loosely coupled to implementations in other packages.
type Dependencies interface {
	RecordCapture(ctx context.Context, in app.CaptureInput) (model.Capture, model.BonusAward, error)
	DeleteCapture(ctx context.Context, id int64) error
	Captures(ctx context.Context, f repository.CaptureFilter) ([]model.Capture, error)
	BonusesForCapture(ctx context.Context, captureID int64) ([]model.BonusEvent, error)
	AllBonuses(ctx context.Context) ([]model.BonusEvent, error)
	CircleBiomes() []catalog.Biome
	Items() []catalog.Item
	LatestCaptureForItem(ctx context.Context, itemID string) (model.Capture, error)
	TotalScore(ctx context.Context) (model.ScoreSummary, error)
}

// Server wires HTTP routes for the scoring API.
type Server struct {
	healthHandler   *HealthHandler
	statsHandler    *StatsHandler
	capturesHandler *CapturesHandler
	bonusesHandler  *BonusesHandler
	scoreHandler    *ScoreHandler
	biomesHandler   *BiomesHandler
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies, statsProvider StatsProvider) *Server {
	return &Server{
		healthHandler:   NewHealthHandler(),
		statsHandler:    NewStatsHandler(statsProvider),
		capturesHandler: NewCapturesHandler(deps),
		bonusesHandler:  NewBonusesHandler(deps),
		scoreHandler:    NewScoreHandler(deps),
		biomesHandler:   NewBiomesHandler(deps),
	}
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(ctx context.Context, mux *http.ServeMux) {
	// Specific paths first (most specific to least specific)
	mux.HandleFunc("/healthz", MetricsMiddleware(s.healthHandler.HandleHealth, "healthz"))
	mux.HandleFunc("/metrics", MetricsMiddleware(s.healthHandler.HandleMetrics, "metrics"))
	mux.HandleFunc("/stats", MetricsMiddleware(s.statsHandler.HandleStats, "stats"))
	mux.HandleFunc("/captures", MetricsMiddleware(s.capturesHandler.HandleCaptures, "captures"))
	mux.HandleFunc("/captures/", MetricsMiddleware(s.capturesHandler.HandleCaptureByID, "capture"))
	mux.HandleFunc("/bonuses", MetricsMiddleware(s.bonusesHandler.HandleGetBonuses, "bonuses"))
	mux.HandleFunc("/score", MetricsMiddleware(s.scoreHandler.HandleGetScore, "score"))
	mux.HandleFunc("/biomes", MetricsMiddleware(s.biomesHandler.HandleGetBiomes, "biomes"))
	mux.HandleFunc("/items", MetricsMiddleware(s.biomesHandler.HandleGetItems, "items"))
	mux.HandleFunc("/items/", MetricsMiddleware(s.biomesHandler.HandleItemByID, "item"))
}

// captureRequest mirrors the JSON schema for POST /captures.
type captureRequest struct {
	ItemID       string   `json:"item_id"`
	OriginalURI  string   `json:"original_uri"`
	ThumbnailURI string   `json:"thumbnail_uri"`
	Latitude     *float64 `json:"latitude"`
	Longitude    *float64 `json:"longitude"`
	CreatedAt    int64    `json:"created_at"`
}

func (c captureRequest) validate() error {
	switch {
	case c.ItemID == "":
		return errors.New("missing item_id")
	case (c.Latitude == nil) != (c.Longitude == nil):
		return errors.New("latitude and longitude must be provided together")
	}
	if c.Latitude != nil {
		if *c.Latitude < -90 || *c.Latitude > 90 {
			return errors.New("latitude out of range")
		}
		if *c.Longitude < -180 || *c.Longitude > 180 {
			return errors.New("longitude out of range")
		}
	}
	return nil
}

// captureResponse pairs a stored capture with its evaluation outcome.
type captureResponse struct {
	Capture model.Capture    `json:"capture"`
	Bonus   model.BonusAward `json:"bonus"`
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
