package geo_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/transitops/shuttleplan-go/internal/domain/geo"
)

func TestHaversineKm(t *testing.T) {
	// One degree of longitude on the equator is ~111.19 km.
	d := geo.HaversineKm(geo.Point{Lat: 0, Lng: 0}, geo.Point{Lat: 0, Lng: 1})
	assert.InDelta(t, 111.19, d, 0.5)

	// Symmetry and identity.
	a := geo.Point{Lat: 12.9716, Lng: 77.5946}
	b := geo.Point{Lat: 12.9352, Lng: 77.6245}
	assert.InDelta(t, geo.HaversineKm(a, b), geo.HaversineKm(b, a), 1e-9)
	assert.Zero(t, geo.HaversineKm(a, a))

	// Two points across Bengaluru, roughly 5.2 km apart.
	assert.InDelta(t, 5.2, geo.HaversineKm(a, b), 0.2)
}

func TestPolygonContains(t *testing.T) {
	square := geo.Polygon{
		{Lat: 0, Lng: 0},
		{Lat: 0, Lng: 2},
		{Lat: 2, Lng: 2},
		{Lat: 2, Lng: 0},
	}

	assert.True(t, square.Contains(geo.Point{Lat: 1, Lng: 1}))
	assert.False(t, square.Contains(geo.Point{Lat: 3, Lng: 1}))
	assert.False(t, square.Contains(geo.Point{Lat: -0.1, Lng: 1}))
}

func TestPolygonContainsConcave(t *testing.T) {
	// L-shape: the notch between (1,1) and (2,2) is outside.
	lShape := geo.Polygon{
		{Lat: 0, Lng: 0},
		{Lat: 0, Lng: 2},
		{Lat: 1, Lng: 2},
		{Lat: 1, Lng: 1},
		{Lat: 2, Lng: 1},
		{Lat: 2, Lng: 0},
	}

	assert.True(t, lShape.Contains(geo.Point{Lat: 0.5, Lng: 0.5}))
	assert.True(t, lShape.Contains(geo.Point{Lat: 1.5, Lng: 0.5}))
	assert.False(t, lShape.Contains(geo.Point{Lat: 1.5, Lng: 1.5}))
}

func TestPolygonContainsDegenerateRing(t *testing.T) {
	assert.False(t, geo.Polygon{{Lat: 0, Lng: 0}, {Lat: 1, Lng: 1}}.Contains(geo.Point{Lat: 0.5, Lng: 0.5}))
	assert.False(t, geo.Polygon(nil).Contains(geo.Point{}))
}

func TestPolylineRoundTrip(t *testing.T) {
	points := []geo.Point{
		{Lat: 12.971600, Lng: 77.594600},
		{Lat: 12.935200, Lng: 77.624500},
		{Lat: 12.927700, Lng: 77.627100},
	}

	encoded := geo.EncodePolyline(points)
	decoded, err := geo.DecodePolyline(encoded)
	require.NoError(t, err)

	require.Len(t, decoded, len(points))
	for i := range points {
		assert.InDelta(t, points[i].Lat, decoded[i].Lat, 1e-5)
		assert.InDelta(t, points[i].Lng, decoded[i].Lng, 1e-5)
	}
}

func TestPolylineKnownEncoding(t *testing.T) {
	// Reference example from the Google polyline algorithm documentation.
	points := []geo.Point{
		{Lat: 38.5, Lng: -120.2},
		{Lat: 40.7, Lng: -120.95},
		{Lat: 43.252, Lng: -126.453},
	}
	assert.Equal(t, "_p~iF~ps|U_ulLnnqC_mqNvxq`@", geo.EncodePolyline(points))
}

func TestDecodePolylineRejectsGarbage(t *testing.T) {
	_, err := geo.DecodePolyline("\x01")
	assert.Error(t, err)
}
