package zonefile

import (
	"log"
	"sync"

	"github.com/transitops/shuttleplan-go/internal/domain/zone"
)

// Source resolves zone polygons per city. Inline zones from the request
// take precedence; otherwise the city's configured GeoJSON file is loaded
// and cached. A missing or unreadable file is not an error — the request
// proceeds with no zones and everything lands in DEFAULT_ZONE.
type Source struct {
	files map[string]string

	mu    sync.Mutex
	cache map[string][]zone.Zone
}

// NewSource creates a zone source over a city → file path map.
func NewSource(files map[string]string) *Source {
	return &Source{files: files, cache: make(map[string][]zone.Zone)}
}

// Zones implements the planner's zone source port. An error is returned
// only for malformed inline zones, which is a bad-request condition.
func (s *Source) Zones(city string, inline []byte) ([]zone.Zone, error) {
	if len(inline) > 0 {
		return Parse(inline)
	}

	path, ok := s.files[city]
	if !ok {
		return nil, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if zones, ok := s.cache[city]; ok {
		return zones, nil
	}
	zones, err := LoadFile(path)
	if err != nil {
		log.Printf("[ZONES] failed to load zone file for city %s: %v", city, err)
		s.cache[city] = nil
		return nil, nil
	}
	log.Printf("[ZONES] loaded %d zone polygons for city %s from %s", len(zones), city, path)
	s.cache[city] = zones
	return zones, nil
}
