package geo

import (
	// Go Internal Packages
	"context"
	"sync"

	// Local Packages
	models "coinnet/models"
)

// MemoryIndex is an Index that scans every point on each query. Good enough
// for tests and single-node deployments with a few thousand providers.
type MemoryIndex struct {
	mu     sync.RWMutex
	points map[string]models.Coordinate
}

func NewMemoryIndex() *MemoryIndex {
	return &MemoryIndex{points: make(map[string]models.Coordinate)}
}

func (m *MemoryIndex) Upsert(_ context.Context, id string, at models.Coordinate) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.points[id] = at
	return nil
}

func (m *MemoryIndex) Remove(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.points, id)
	return nil
}

func (m *MemoryIndex) Within(_ context.Context, center models.Coordinate, radiusKm float64) ([]Hit, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var hits []Hit
	for id, at := range m.points {
		d := Haversine(center, at)
		if d <= radiusKm {
			hits = append(hits, Hit{ID: id, DistanceKm: d})
		}
	}
	return hits, nil
}

var _ Index = (*MemoryIndex)(nil)
