// Package zonefile loads zone polygon definitions from GeoJSON
// FeatureCollection documents.
package zonefile

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/transitops/shuttleplan-go/internal/domain/geo"
	"github.com/transitops/shuttleplan-go/internal/domain/zone"
)

type featureCollection struct {
	Type     string    `json:"type"`
	Features []feature `json:"features"`
}

type feature struct {
	Properties map[string]interface{} `json:"properties"`
	Geometry   struct {
		Type        string          `json:"type"`
		Coordinates json.RawMessage `json:"coordinates"`
	} `json:"geometry"`
}

// Parse reads zones out of a GeoJSON FeatureCollection, preserving feature
// order. Only named Polygon and MultiPolygon features contribute. Holes
// are ignored; zone membership is decided on outer rings.
func Parse(data []byte) ([]zone.Zone, error) {
	var fc featureCollection
	if err := json.Unmarshal(data, &fc); err != nil {
		return nil, fmt.Errorf("failed to parse zone file: %w", err)
	}
	if fc.Type != "FeatureCollection" {
		return nil, fmt.Errorf("expected a FeatureCollection, got %q", fc.Type)
	}

	var zones []zone.Zone
	for _, f := range fc.Features {
		name := featureName(f.Properties)
		if name == "" {
			continue
		}
		switch f.Geometry.Type {
		case "Polygon":
			var rings [][][]float64
			if err := json.Unmarshal(f.Geometry.Coordinates, &rings); err != nil {
				return nil, fmt.Errorf("zone %q: bad polygon coordinates: %w", name, err)
			}
			polygon, err := outerRing(name, rings)
			if err != nil {
				return nil, err
			}
			zones = append(zones, zone.Zone{Name: name, Polygon: polygon})
		case "MultiPolygon":
			var multi [][][][]float64
			if err := json.Unmarshal(f.Geometry.Coordinates, &multi); err != nil {
				return nil, fmt.Errorf("zone %q: bad multipolygon coordinates: %w", name, err)
			}
			// Each part keeps the shared name; assignment stays
			// first-match over the flattened list.
			for _, rings := range multi {
				polygon, err := outerRing(name, rings)
				if err != nil {
					return nil, err
				}
				zones = append(zones, zone.Zone{Name: name, Polygon: polygon})
			}
		}
	}
	return zones, nil
}

// LoadFile reads and parses a GeoJSON zone file from disk.
func LoadFile(path string) ([]zone.Zone, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read zone file %s: %w", path, err)
	}
	return Parse(data)
}

func featureName(properties map[string]interface{}) string {
	for _, key := range []string{"name", "Name"} {
		if v, ok := properties[key].(string); ok && v != "" {
			return v
		}
	}
	return ""
}

// outerRing converts the first GeoJSON ring, which carries coordinates as
// [lng, lat] pairs, into a polygon.
func outerRing(name string, rings [][][]float64) (geo.Polygon, error) {
	if len(rings) == 0 {
		return nil, fmt.Errorf("zone %q: polygon has no rings", name)
	}
	ring := rings[0]
	if len(ring) < 3 {
		return nil, fmt.Errorf("zone %q: outer ring needs at least three points", name)
	}
	polygon := make(geo.Polygon, 0, len(ring))
	for _, coord := range ring {
		if len(coord) < 2 {
			return nil, fmt.Errorf("zone %q: coordinate needs lng and lat", name)
		}
		polygon = append(polygon, geo.Point{Lat: coord[1], Lng: coord[0]})
	}
	return polygon, nil
}
