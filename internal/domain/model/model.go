// Package model contains domain models passed between layers.
package model

import "time"

// Capture is a photo capture of a hunt item. Coordinates are optional:
// a capture taken without EXIF GPS data and without a live fix has neither.
// The scoring engine only ever reads captures; it never mutates them.
type Capture struct {
	ID           int64    `gorm:"primaryKey;autoIncrement" json:"id"`
	ItemID       string   `gorm:"index;not null" json:"item_id"`
	Title        string   `gorm:"not null" json:"title"`
	OriginalURI  string   `json:"original_uri"`
	ThumbnailURI string   `json:"thumbnail_uri"`
	CreatedAt    int64    `gorm:"index;not null" json:"created_at"` // epoch milliseconds
	Latitude     *float64 `json:"latitude,omitempty"`
	Longitude    *float64 `json:"longitude,omitempty"`

	// Deleting a capture deletes its bonus events with it.
	BonusEvents []BonusEvent `gorm:"foreignKey:CaptureID;constraint:OnDelete:CASCADE" json:"-"`
}

// BonusEvent is one row of the append-only bonus ledger: a specific capture
// earned extra points from a specific biome match at a specific time. The
// biome fields are a snapshot taken at evaluation time, so later catalog
// changes never rewrite history.
type BonusEvent struct {
	ID          int64   `gorm:"primaryKey;autoIncrement" json:"id"`
	CaptureID   int64   `gorm:"index;not null" json:"capture_id"`
	BiomeID     string  `gorm:"not null" json:"biome_id"`
	BiomeLabel  string  `gorm:"not null" json:"biome_label"`
	Multiplier  float64 `gorm:"not null" json:"multiplier"`
	BonusPoints int     `gorm:"not null" json:"bonus_points"`
	CreatedAt   int64   `gorm:"index;not null" json:"created_at"` // epoch milliseconds
}

// BonusAward is the caller-visible result of a bonus evaluation.
// A zero value means "no bonus", which is a normal outcome, not an error.
type BonusAward struct {
	Awarded     bool    `json:"awarded"`
	BonusPoints int     `json:"bonus_points"`
	BiomeLabel  string  `json:"biome_label,omitempty"`
	Multiplier  float64 `json:"multiplier,omitempty"`
}

// EvaluationJob is a deferred bonus evaluation for a capture that arrived
// without coordinates. A worker resolves a late GPS fix and re-runs the
// evaluation with it.
type EvaluationJob struct {
	JobID      string    // unique id for tracing
	CaptureID  int64     // capture awaiting a location
	BasePoints int       // base points of the captured item
	EnqueuedAt time.Time // when the job was scheduled
}

// ScoreSummary is the aggregate score shown in the tally:
// base points of distinct captured items plus all recorded bonus points.
type ScoreSummary struct {
	BasePoints  int `json:"base_points"`
	BonusPoints int `json:"bonus_points"`
	Total       int `json:"total"`
	UniqueItems int `json:"unique_items"`
}

// NowMillis returns the current time as epoch milliseconds, the timestamp
// representation used throughout the capture and ledger tables.
func NowMillis() int64 {
	return time.Now().UnixMilli()
}
