// Package geoindex answers which circular bonus biome, if any, contains a
// given point, and with which multiplier. Circle biomes are indexed in an
// R-tree by their bounding box; candidates are then filtered with an exact
// haversine distance check.
package geoindex

import (
	"math"

	"github.com/dhconnelly/rtreego"

	"github.com/cuscogo/huntd/internal/domain/catalog"
)

const (
	// earthRadiusMeters is the mean Earth radius used by the haversine
	// formula. Accurate to within normal GPS error for the distances the
	// hunt covers.
	earthRadiusMeters = 6371000.0

	// metersPerDegreeLat is one degree of great-circle latitude for the
	// Earth radius above. Used only to size bounding boxes; exactness
	// comes from the haversine filter.
	metersPerDegreeLat = earthRadiusMeters * math.Pi / 180.0

	// bboxInflation grows bounding boxes a little so boundary points
	// always survive the R-tree stage and reach the exact filter.
	bboxInflation = 1.001

	rtreeDimensions  = 2
	rtreeMinChildren = 2
	rtreeMaxChildren = 8

	// pointQueryTolerance is the half-side of the degenerate rect used to
	// probe the tree with a single point.
	pointQueryTolerance = 1e-9
)

// Match is a biome that contains the queried point.
type Match struct {
	Biome          catalog.Biome
	DistanceMeters float64
}

// biomeEntry wraps a circle biome for R-tree indexing.
type biomeEntry struct {
	biome catalog.Biome
	rect  *rtreego.Rect
}

func (e *biomeEntry) Bounds() *rtreego.Rect {
	return e.rect
}

// Index is the immutable set of bonus biomes. Safe for concurrent use:
// nothing mutates it after New returns.
type Index struct {
	tree    *rtreego.Rtree
	circles []catalog.Biome
	all     []catalog.Biome
}

// New builds an index over the given biomes. Only circle biomes are indexed;
// altitude biomes are retained for listing but never matched.
func New(biomes []catalog.Biome) *Index {
	ix := &Index{
		tree: rtreego.NewTree(rtreeDimensions, rtreeMinChildren, rtreeMaxChildren),
		all:  biomes,
	}
	for _, b := range biomes {
		if !b.IsCircle() {
			continue
		}
		ix.circles = append(ix.circles, b)
		ix.tree.Insert(&biomeEntry{biome: b, rect: circleBounds(b)})
	}
	return ix
}

// circleBounds returns the lat/lng bounding box of a circle biome.
func circleBounds(b catalog.Biome) *rtreego.Rect {
	latDelta := b.RadiusMeters / metersPerDegreeLat * bboxInflation
	// Longitude degrees shrink toward the poles; clamp the cosine so the
	// box stays finite for near-polar centers.
	cosLat := math.Cos(b.CenterLat * math.Pi / 180.0)
	if cosLat < 0.01 {
		cosLat = 0.01
	}
	lngDelta := b.RadiusMeters / (metersPerDegreeLat * cosLat) * bboxInflation

	corner := rtreego.Point{b.CenterLat - latDelta, b.CenterLng - lngDelta}
	rect, err := rtreego.NewRect(corner, []float64{2 * latDelta, 2 * lngDelta})
	if err != nil {
		// Degenerate geometry; fall back to a point rect at the center so
		// the biome still participates in exact-distance filtering.
		return rtreego.Point{b.CenterLat, b.CenterLng}.ToRect(pointQueryTolerance)
	}
	return rect
}

// DistanceMeters returns the great-circle (haversine) distance in meters
// between two WGS84 coordinates given in degrees.
func DistanceMeters(aLat, aLng, bLat, bLng float64) float64 {
	toRad := func(deg float64) float64 { return deg * math.Pi / 180.0 }
	dLat := toRad(bLat - aLat)
	dLng := toRad(bLng - aLng)
	lat1 := toRad(aLat)
	lat2 := toRad(bLat)

	sinDLat := math.Sin(dLat / 2)
	sinDLng := math.Sin(dLng / 2)
	a := sinDLat*sinDLat + math.Cos(lat1)*math.Cos(lat2)*sinDLng*sinDLng
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
	return earthRadiusMeters * c
}

// FindBest returns the best biome containing the point: the one with the
// highest multiplier, ties broken by the smallest distance to center.
// The boundary is inclusive. ok is false when no circle biome qualifies.
func (ix *Index) FindBest(lat, lng float64) (match Match, ok bool) {
	if len(ix.circles) == 0 {
		return Match{}, false
	}

	probe := rtreego.Point{lat, lng}.ToRect(pointQueryTolerance)
	candidates := ix.tree.SearchIntersect(probe)

	for _, c := range candidates {
		entry, isEntry := c.(*biomeEntry)
		if !isEntry {
			continue
		}
		d := DistanceMeters(lat, lng, entry.biome.CenterLat, entry.biome.CenterLng)
		if d > entry.biome.RadiusMeters {
			continue
		}
		if !ok ||
			entry.biome.Multiplier > match.Biome.Multiplier ||
			(entry.biome.Multiplier == match.Biome.Multiplier && d < match.DistanceMeters) {
			match = Match{Biome: entry.biome, DistanceMeters: d}
			ok = true
		}
	}
	return match, ok
}

// CircleBiomes returns the indexed circle biomes, e.g. for map overlays.
func (ix *Index) CircleBiomes() []catalog.Biome {
	out := make([]catalog.Biome, len(ix.circles))
	copy(out, ix.circles)
	return out
}

// Biomes returns every configured biome, including altitude ones.
func (ix *Index) Biomes() []catalog.Biome {
	out := make([]catalog.Biome, len(ix.all))
	copy(out, ix.all)
	return out
}

// Len returns the number of matchable (circle) biomes.
func (ix *Index) Len() int {
	return len(ix.circles)
}
