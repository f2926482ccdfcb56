package catalog

import (
	"fmt"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// LoadBiomes reads the biome catalog from a YAML file of the shape:
//
//	biomes:
//	  - id: jungle
//	    label: Jungle
//	    type: circle
//	    center_lat: -12.0
//	    center_lng: -69.0
//	    radius_meters: 5000
//	    multiplier: 2.0
//
// The loader fails fast on the first record missing a required field.
func LoadBiomes(path string) ([]Biome, error) {
	k := koanf.New(".")
	if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoadCatalog, err)
	}

	var biomes []Biome
	if err := k.Unmarshal("biomes", &biomes); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoadCatalog, err)
	}

	for i := range biomes {
		if err := validateBiome(&biomes[i]); err != nil {
			return nil, fmt.Errorf("%w: biome %d: %w", ErrInvalidCatalog, i, err)
		}
	}
	return biomes, nil
}

// LoadItems reads the hunt item catalog from a YAML file of the shape:
//
//	items:
//	  - id: condor
//	    title: Andean Condor
//	    category: animal
//	    base_points: 20
func LoadItems(path string) ([]Item, error) {
	k := koanf.New(".")
	if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoadCatalog, err)
	}

	var items []Item
	if err := k.Unmarshal("items", &items); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoadCatalog, err)
	}

	seen := make(map[string]struct{}, len(items))
	for i := range items {
		if err := validateItem(&items[i]); err != nil {
			return nil, fmt.Errorf("%w: item %d: %w", ErrInvalidCatalog, i, err)
		}
		if _, dup := seen[items[i].ID]; dup {
			return nil, fmt.Errorf("%w: item %d: duplicate id %q", ErrInvalidCatalog, i, items[i].ID)
		}
		seen[items[i].ID] = struct{}{}
	}
	return items, nil
}

func validateBiome(b *Biome) error {
	switch {
	case b.ID == "":
		return fmt.Errorf("missing id")
	case b.Label == "":
		return fmt.Errorf("missing label")
	case b.Multiplier < 1.0:
		return fmt.Errorf("multiplier %v below 1.0", b.Multiplier)
	}
	switch b.Kind {
	case KindCircle:
		if b.RadiusMeters <= 0 {
			return fmt.Errorf("circle biome needs a positive radius_meters")
		}
	case KindAltitude:
		if b.MinMeters == nil && b.MaxMeters == nil {
			return fmt.Errorf("altitude biome needs min_meters or max_meters")
		}
	default:
		return fmt.Errorf("unknown type %q", b.Kind)
	}
	return nil
}

func validateItem(it *Item) error {
	switch {
	case it.ID == "":
		return fmt.Errorf("missing id")
	case it.Title == "":
		return fmt.Errorf("missing title")
	case it.BasePoints < 0:
		return fmt.Errorf("negative base_points")
	}
	return nil
}
