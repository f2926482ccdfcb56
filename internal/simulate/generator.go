package simulate

import (
	"context"
	"crypto/rand"
	"math"
	"math/big"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/cuscogo/huntd/pkg/logger"
)

// Constants for random number generation.
const (
	randomFloatDivisor = 1000000
	placementDivisor   = 5
	metersPerDegree    = 111320.0
)

// Constants for capture placement cases.
const (
	caseInsideBiome  = 0
	caseNearBoundary = 1
	caseOutsideAll   = 2
	caseNoLocation   = 3
	caseFarAway      = 4
)

// getRandomFloat returns a random float64 between 0.0 and 1.0 using crypto/rand.
func getRandomFloat() float64 {
	n, _ := rand.Int(rand.Reader, big.NewInt(randomFloatDivisor))
	return float64(n.Int64()) / float64(randomFloatDivisor)
}

// generateCaptures builds capture requests placed relative to the fetched
// biome catalog: most inside a biome, some near a boundary, some outside,
// and some with no coordinates at all.
func generateCaptures(ctx context.Context, config *Config, biomes []Biome, items []Item, stats *Stats) []Capture {
	logger.Get().Info(ctx, "generating captures",
		logger.Int("numCaptures", config.NumCaptures),
		logger.Int("biomes", len(biomes)),
		logger.Int("items", len(items)),
	)

	captures := make([]Capture, 0, config.NumCaptures)
	for i := 0; i < config.NumCaptures; i++ {
		item := items[i%len(items)]
		captures = append(captures, generateSingleCapture(i, item, biomes))
	}

	stats.CapturesGenerated = len(captures)
	return captures
}

// generateSingleCapture places one capture according to a random placement case.
func generateSingleCapture(index int, item Item, biomes []Biome) Capture {
	c := Capture{
		ItemID:       item.ID,
		OriginalURI:  "file:///captures/" + uuid.New().String() + ".jpg",
		ThumbnailURI: "file:///thumbnails/" + uuid.New().String() + ".jpg",
		CreatedAt:    time.Now().UnixMilli(),
	}

	placement, _ := rand.Int(rand.Reader, big.NewInt(placementDivisor))
	if len(biomes) == 0 || placement.Int64() == caseNoLocation {
		return c
	}

	biomeIdx, _ := rand.Int(rand.Reader, big.NewInt(int64(len(biomes))))
	biome := biomes[biomeIdx.Int64()]

	var distanceMeters float64
	switch placement.Int64() {
	case caseInsideBiome:
		distanceMeters = getRandomFloat() * biome.RadiusMeters * 0.8
	case caseNearBoundary:
		distanceMeters = biome.RadiusMeters * (0.9 + getRandomFloat()*0.2)
	case caseOutsideAll:
		distanceMeters = biome.RadiusMeters * (2.0 + getRandomFloat())
	case caseFarAway:
		distanceMeters = biome.RadiusMeters * (10.0 + getRandomFloat()*10.0)
	}

	lat, lng := offsetFrom(biome.CenterLat, biome.CenterLng, distanceMeters, getRandomFloat()*2*math.Pi)
	c.Latitude = &lat
	c.Longitude = &lng
	return c
}

// offsetFrom moves distanceMeters from (lat, lng) along the given bearing
// using a local flat-earth approximation. Fine at biome scale.
func offsetFrom(lat, lng, distanceMeters, bearing float64) (float64, float64) {
	dLat := distanceMeters * math.Cos(bearing) / metersPerDegree
	cosLat := math.Cos(lat * math.Pi / 180)
	if math.Abs(cosLat) < 0.01 {
		cosLat = 0.01
	}
	dLng := distanceMeters * math.Sin(bearing) / (metersPerDegree * cosLat)
	return lat + dLat, lng + dLng
}

// describePlacement is used in verbose logging.
func describePlacement(c Capture) string {
	if c.Latitude == nil {
		return "no_location"
	}
	return "lat=" + strconv.FormatFloat(*c.Latitude, 'f', 6, 64) +
		" lng=" + strconv.FormatFloat(*c.Longitude, 'f', 6, 64)
}
