package geo

import (
	// Go Internal Packages
	"context"
	"testing"

	// Local Packages
	models "coinnet/models"

	// External Packages
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var sanJose = models.Coordinate{Lat: 9.9281, Lng: -84.0907}

func TestHaversine(t *testing.T) {
	assert.Equal(t, 0.0, Haversine(sanJose, sanJose))

	// One degree of latitude is ~111.19 km on a 6371 km sphere.
	d := Haversine(models.Coordinate{Lat: 0, Lng: 0}, models.Coordinate{Lat: 1, Lng: 0})
	assert.InDelta(t, 111.195, d, 0.01)

	// Symmetric.
	heredia := models.Coordinate{Lat: 9.9986, Lng: -84.1165}
	assert.InDelta(t, Haversine(sanJose, heredia), Haversine(heredia, sanJose), 1e-9)
	assert.InDelta(t, 8.3, Haversine(sanJose, heredia), 0.2)
}

func TestValidCoordinate(t *testing.T) {
	assert.True(t, ValidCoordinate(sanJose))
	assert.False(t, ValidCoordinate(models.Coordinate{Lat: 91, Lng: 0}))
	assert.False(t, ValidCoordinate(models.Coordinate{Lat: 0, Lng: -181}))
}

func TestMemoryIndexWithin(t *testing.T) {
	ctx := context.Background()
	idx := NewMemoryIndex()

	require.NoError(t, idx.Upsert(ctx, "near", models.Coordinate{Lat: 9.9300, Lng: -84.0907}))
	require.NoError(t, idx.Upsert(ctx, "far", models.Coordinate{Lat: 10.5, Lng: -84.0907}))
	require.NoError(t, idx.Upsert(ctx, "gone", sanJose))
	require.NoError(t, idx.Remove(ctx, "gone"))

	hits, err := idx.Within(ctx, sanJose, 5)
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, "near", hits[0].ID)
	assert.InDelta(t, 0.21, hits[0].DistanceKm, 0.01)
}

func TestIndexable(t *testing.T) {
	assert.True(t, Indexable(sanJose))
	assert.True(t, Indexable(models.Coordinate{Lat: -MaxLatitude, Lng: 180}))
	assert.False(t, Indexable(models.Coordinate{Lat: 86, Lng: 0}))
	assert.False(t, Indexable(models.Coordinate{Lat: -90, Lng: 0}))
}

func TestSearchCenter(t *testing.T) {
	moved, shift := SearchCenter(sanJose)
	assert.Equal(t, sanJose, moved)
	assert.Equal(t, 0.0, shift)

	pole := models.Coordinate{Lat: 89, Lng: 20}
	moved, shift = SearchCenter(pole)
	assert.Equal(t, MaxLatitude, moved.Lat)
	assert.Equal(t, 20.0, moved.Lng)
	assert.InDelta(t, Haversine(pole, moved), shift, 1e-9)

	// A point in the band near the moved center stays reachable.
	near := models.Coordinate{Lat: 85, Lng: 20}
	assert.LessOrEqual(t, Haversine(moved, near), Haversine(pole, near)+shift)
}
