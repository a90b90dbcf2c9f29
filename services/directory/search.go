package directory

import (
	// Go Internal Packages
	"context"
	"math"
	"sort"
	"strconv"

	// Local Packages
	errors "coinnet/errors"
	models "coinnet/models"
	geo "coinnet/services/geo"
	utils "coinnet/utils"

	// External Packages
	"go.uber.org/zap"
)

type candidate struct {
	provider models.Provider
	distance float64
}

// FindNearby returns the providers able to serve q.Amount within q.RadiusKm
// of (q.Lat, q.Lng), nearest first. Results are a point-in-time view: nothing
// is reserved, and Claim re-checks eligibility when a transaction is created.
func (d *Directory) FindNearby(ctx context.Context, q models.SearchQuery) ([]models.SearchResult, error) {
	if q.Amount < d.opts.MinRequestAmount {
		return nil, errors.E(errors.InvalidAmount, "amount must be at least "+utils.FormatInt(d.opts.MinRequestAmount), nil)
	}
	center := models.Coordinate{Lat: q.Lat, Lng: q.Lng}
	ve := errors.ValidationErrs()
	if !geo.ValidCoordinate(center) {
		ve.Add("location", "is not a valid coordinate")
	}
	radius := q.RadiusKm
	if radius == 0 {
		radius = d.opts.DefaultRadiusKm
	}
	if radius < 0 || math.IsNaN(radius) {
		ve.Add("radius_km", "must be greater than zero")
	}
	if d.opts.MaxRadiusKm > 0 && radius > d.opts.MaxRadiusKm {
		ve.Add("radius_km", "must be at most "+strconv.FormatFloat(d.opts.MaxRadiusKm, 'f', -1, 64))
	}
	if err := ve.Err(); err != nil {
		return nil, errors.ValidationFailedErr(err)
	}

	hits, err := d.index.Within(ctx, center, radius)
	if err != nil {
		return nil, errors.InternalErr("geo query failed", err)
	}
	if len(hits) == 0 {
		return []models.SearchResult{}, nil
	}

	ids := make([]string, len(hits))
	for i, h := range hits {
		ids[i] = h.ID
	}
	providers, err := d.repo.GetProviders(ctx, ids)
	if err != nil {
		return nil, err
	}

	candidates := make([]candidate, 0, len(providers))
	for _, p := range providers {
		if !p.Matchable() || !p.Accepts(q.Amount) {
			continue
		}
		// The record is authoritative; the index may lag behind a move.
		dist := geo.Haversine(center, p.Location)
		if dist > radius {
			continue
		}
		candidates = append(candidates, candidate{provider: p, distance: dist})
	}
	sortResults(candidates)
	if len(candidates) > d.opts.MaxResults {
		candidates = candidates[:d.opts.MaxResults]
	}

	breakdown := d.fees.Breakdown(q.Amount)
	results := make([]models.SearchResult, len(candidates))
	for i, c := range candidates {
		results[i] = models.SearchResult{
			Provider:   c.provider.Summary(),
			DistanceKm: utils.Round(c.distance, 2),
			Fees:       breakdown,
		}
	}

	d.Logger.Debug("provider search",
		zap.Float64("lat", q.Lat),
		zap.Float64("lng", q.Lng),
		zap.Int64("amount", q.Amount),
		zap.Float64("radius_km", radius),
		zap.Int("indexed", len(hits)),
		zap.Int("matched", len(results)),
	)
	return results, nil
}

// sortResults orders by exact distance, then reputation (best first), then id
// so equal candidates come back in a stable order.
func sortResults(results []candidate) {
	sort.SliceStable(results, func(i, j int) bool {
		a, b := results[i], results[j]
		if a.distance != b.distance {
			return a.distance < b.distance
		}
		if a.provider.ReputationScore != b.provider.ReputationScore {
			return a.provider.ReputationScore > b.provider.ReputationScore
		}
		return a.provider.ID < b.provider.ID
	})
}
