// Package catalog holds the static hunt content: biome bonus zones and the
// hunt item list. Both are loaded once at startup and are immutable for the
// lifetime of the process.
package catalog

// Biome kinds. Altitude biomes are carried in the data model but are not
// matched by the geo index; matching them needs a device altitude reading
// that captures do not carry yet.
const (
	KindCircle   = "circle"
	KindAltitude = "altitude"
)

// Biome is a configured bonus region carrying a score multiplier.
// A multiplier of 1.0 means no bonus.
type Biome struct {
	ID          string  `koanf:"id" json:"id"`
	Label       string  `koanf:"label" json:"label"`
	Kind        string  `koanf:"type" json:"type"`
	CenterLat   float64 `koanf:"center_lat" json:"center_lat"`
	CenterLng   float64 `koanf:"center_lng" json:"center_lng"`
	RadiusMeters float64 `koanf:"radius_meters" json:"radius_meters"`
	MinMeters   *float64 `koanf:"min_meters" json:"min_meters,omitempty"` // altitude, inclusive
	MaxMeters   *float64 `koanf:"max_meters" json:"max_meters,omitempty"` // altitude, inclusive
	Multiplier  float64 `koanf:"multiplier" json:"multiplier"`
	Description string  `koanf:"description" json:"description,omitempty"`
}

// IsCircle reports whether the biome is a circular region.
func (b *Biome) IsCircle() bool {
	return b.Kind == KindCircle
}

// Item is one entry of the scavenger hunt: the thing players photograph.
// BasePoints is the fixed value of a capture, independent of location.
type Item struct {
	ID          string `koanf:"id" json:"id"`
	Title       string `koanf:"title" json:"title"`
	Category    string `koanf:"category" json:"category"`
	BasePoints  int    `koanf:"base_points" json:"base_points"`
	Description string `koanf:"description" json:"description,omitempty"`
}
