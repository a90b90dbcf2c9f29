// Package geo stores provider locations and answers radius queries.
package geo

import (
	// Go Internal Packages
	"context"
	"math"

	// Local Packages
	models "coinnet/models"
)

const (
	// EarthRadiusKm is the mean earth radius of the spherical approximation.
	EarthRadiusKm = 6371.0
	// MaxLatitude is the widest latitude Redis GEO accepts.
	MaxLatitude = 85.05112878
)

// Hit is one indexed entry inside a query radius.
type Hit struct {
	ID         string
	DistanceKm float64
}

// Index is the location store behind provider discovery. Implementations
// must report distances computed with Haversine.
type Index interface {
	Upsert(ctx context.Context, id string, at models.Coordinate) error
	Remove(ctx context.Context, id string) error
	Within(ctx context.Context, center models.Coordinate, radiusKm float64) ([]Hit, error)
}

// Haversine returns the great-circle distance in kilometres between a and b.
func Haversine(a, b models.Coordinate) float64 {
	phi1 := a.Lat * math.Pi / 180
	phi2 := b.Lat * math.Pi / 180
	dPhi := (b.Lat - a.Lat) * math.Pi / 180
	dLambda := (b.Lng - a.Lng) * math.Pi / 180

	h := math.Sin(dPhi/2)*math.Sin(dPhi/2) +
		math.Cos(phi1)*math.Cos(phi2)*math.Sin(dLambda/2)*math.Sin(dLambda/2)
	return EarthRadiusKm * 2 * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))
}

// ValidCoordinate reports whether c is a real point on the globe.
func ValidCoordinate(c models.Coordinate) bool {
	return c.Lat >= -90 && c.Lat <= 90 && c.Lng >= -180 && c.Lng <= 180 &&
		!math.IsNaN(c.Lat) && !math.IsNaN(c.Lng)
}

// Indexable reports whether c can be stored by every Index implementation.
func Indexable(c models.Coordinate) bool {
	return ValidCoordinate(c) && math.Abs(c.Lat) <= MaxLatitude
}

// SearchCenter moves a query center into the indexable band. It returns the
// moved center and the distance moved, which callers add to the radius.
func SearchCenter(c models.Coordinate) (models.Coordinate, float64) {
	moved := c
	moved.Lat = math.Max(-MaxLatitude, math.Min(MaxLatitude, c.Lat))
	return moved, Haversine(c, moved)
}
