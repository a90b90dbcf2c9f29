package redis

import (
	// Go Internal Packages
	"context"
	"fmt"

	// Local Packages
	models "coinnet/models"
	geo "coinnet/services/geo"

	// External Packages
	"github.com/redis/go-redis/v9"
)

// searchSlack widens the GEOSEARCH radius so points on the edge are not lost
// to the difference between Redis' earth model and geo.Haversine. Results are
// filtered again with the exact radius.
const searchSlack = 1.01

// GeoIndex keeps provider locations in a Redis sorted set.
type GeoIndex struct {
	client *redis.Client
	key    string
}

func NewGeoIndex(client *redis.Client, key string) *GeoIndex {
	return &GeoIndex{client: client, key: key}
}

func (g *GeoIndex) Upsert(ctx context.Context, id string, at models.Coordinate) error {
	err := g.client.GeoAdd(ctx, g.key, &redis.GeoLocation{
		Name:      id,
		Longitude: at.Lng,
		Latitude:  at.Lat,
	}).Err()
	if err != nil {
		return fmt.Errorf("geoadd %s: %w", id, err)
	}
	return nil
}

func (g *GeoIndex) Remove(ctx context.Context, id string) error {
	if err := g.client.ZRem(ctx, g.key, id).Err(); err != nil {
		return fmt.Errorf("zrem %s: %w", id, err)
	}
	return nil
}

func (g *GeoIndex) Within(ctx context.Context, center models.Coordinate, radiusKm float64) ([]geo.Hit, error) {
	from, shift := geo.SearchCenter(center)
	locations, err := g.client.GeoSearchLocation(ctx, g.key, &redis.GeoSearchLocationQuery{
		GeoSearchQuery: redis.GeoSearchQuery{
			Longitude:  from.Lng,
			Latitude:   from.Lat,
			Radius:     (radiusKm + shift) * searchSlack,
			RadiusUnit: "km",
			Sort:       "ASC",
		},
		WithCoord: true,
	}).Result()
	if err != nil {
		return nil, fmt.Errorf("geosearch %s: %w", g.key, err)
	}

	hits := make([]geo.Hit, 0, len(locations))
	for _, loc := range locations {
		d := geo.Haversine(center, models.Coordinate{Lat: loc.Latitude, Lng: loc.Longitude})
		if d <= radiusKm {
			hits = append(hits, geo.Hit{ID: loc.Name, DistanceKm: d})
		}
	}
	return hits, nil
}

var _ geo.Index = (*GeoIndex)(nil)
