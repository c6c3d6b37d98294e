package cache

import (
	"testing"
	"time"

	"github.com/appointment-map-service/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRouteCache_TTL(t *testing.T) {
	current := time.Date(2025, 6, 2, 9, 0, 0, 0, time.UTC)

	c := NewRouteCache(5 * time.Minute)
	c.now = func() time.Time { return current }

	key := RouteCacheKey(
		domain.Coordinate{Lat: 41.3851, Lon: 2.1734},
		[]domain.Coordinate{{Lat: 41.39, Lon: 2.18}},
	)

	result := domain.RouteResult{
		DistanceMeters:  5400,
		DurationSeconds: 720,
		Legs:            []domain.RouteLeg{{From: "Start", To: "Client visit", DistanceMeters: 5400, DurationSeconds: 720}},
	}
	c.Put(key, result)

	t.Run("live hit at t=4min", func(t *testing.T) {
		current = current.Add(4 * time.Minute)

		got, ok := c.Get(key)
		require.True(t, ok)
		assert.Equal(t, 5400.0, got.DistanceMeters)
		assert.Len(t, got.Legs, 1)
	})

	t.Run("miss at t=6min", func(t *testing.T) {
		current = current.Add(2 * time.Minute)

		got, ok := c.Get(key)
		assert.False(t, ok)
		assert.Nil(t, got)
	})
}

func TestRouteCacheKey_Deterministic(t *testing.T) {
	start := domain.Coordinate{Lat: 41.385063, Lon: 2.173404}
	stops := []domain.Coordinate{
		{Lat: 41.390205, Lon: 2.154007},
		{Lat: 41.403629, Lon: 2.174356},
	}

	assert.Equal(t, RouteCacheKey(start, stops), RouteCacheKey(start, stops))

	// Ordering matters: reversed stops are a different route
	reversed := []domain.Coordinate{stops[1], stops[0]}
	assert.NotEqual(t, RouteCacheKey(start, stops), RouteCacheKey(start, reversed))

	// Sub-rounding noise collapses onto the same key
	noisy := domain.Coordinate{Lat: 41.3850630000001, Lon: 2.1734040000001}
	assert.Equal(t, RouteCacheKey(start, stops), RouteCacheKey(noisy, stops))
}

func TestGeocodeCache(t *testing.T) {
	c := NewGeocodeCache()

	t.Run("normalization", func(t *testing.T) {
		assert.Equal(t, "carrer de mallorca 401", NormalizeAddress("  Carrer de Mallorca 401 "))
		assert.Equal(t, "", NormalizeAddress("   "))
	})

	t.Run("positive and negative entries", func(t *testing.T) {
		c.Put("barcelona", domain.GeocodeResult{Coordinate: domain.Coordinate{Lat: 41.38, Lon: 2.17}, Found: true})
		c.Put("nowhere", domain.GeocodeNotFound())

		res, ok := c.Get("barcelona")
		require.True(t, ok)
		assert.True(t, res.Found)

		res, ok = c.Get("nowhere")
		require.True(t, ok)
		assert.False(t, res.Found)

		_, ok = c.Get("madrid")
		assert.False(t, ok)

		assert.Equal(t, 2, c.Len())
	})

	t.Run("invalidate", func(t *testing.T) {
		c.Invalidate("nowhere")
		_, ok := c.Get("nowhere")
		assert.False(t, ok)
	})
}
