package simulate

import "time"

// Config holds configuration for a capture simulation run.
type Config struct {
	BaseURL     string        // Base URL of the service
	NumCaptures int           // Number of captures to generate
	Workers     int           // Number of concurrent workers
	Timeout     time.Duration // HTTP request timeout
	LogFile     string        // Log file for simulation output
	Verbose     bool          // Enable verbose logging
}

// Capture mirrors the POST /captures request schema.
type Capture struct {
	ItemID       string   `json:"item_id"`
	OriginalURI  string   `json:"original_uri"`
	ThumbnailURI string   `json:"thumbnail_uri"`
	Latitude     *float64 `json:"latitude,omitempty"`
	Longitude    *float64 `json:"longitude,omitempty"`
	CreatedAt    int64    `json:"created_at"`
}

// Biome mirrors the GET /biomes response schema.
type Biome struct {
	ID           string  `json:"id"`
	Label        string  `json:"label"`
	CenterLat    float64 `json:"center_lat"`
	CenterLng    float64 `json:"center_lng"`
	RadiusMeters float64 `json:"radius_meters"`
	Multiplier   float64 `json:"multiplier"`
}

// Item mirrors the GET /items response schema.
type Item struct {
	ID         string `json:"id"`
	Title      string `json:"title"`
	BasePoints int    `json:"base_points"`
}

// BonusEvent mirrors a bonus ledger row.
type BonusEvent struct {
	CaptureID   int64  `json:"capture_id"`
	BiomeID     string `json:"biome_id"`
	BonusPoints int    `json:"bonus_points"`
}

// ScoreSummary mirrors the GET /score response schema.
type ScoreSummary struct {
	BasePoints  int `json:"base_points"`
	BonusPoints int `json:"bonus_points"`
	Total       int `json:"total"`
	UniqueItems int `json:"unique_items"`
}

// Stats holds simulation statistics.
type Stats struct {
	CapturesGenerated  int
	CapturesSubmitted  int
	CapturesSuccessful int
	CapturesFailed     int
	BonusesAwarded     int
	BonusPoints        int
	StartTime          time.Time
	EndTime            time.Time
	Duration           time.Duration
}
