package memory

import (
	// Go Internal Packages
	"context"
	"sort"
	"sync"

	// Local Packages
	errors "coinnet/errors"
	models "coinnet/models"
)

// ProviderStore is an in-memory provider repository. Records are copied in
// and out so callers never share state with the store.
type ProviderStore struct {
	mu        sync.RWMutex
	providers map[string]models.Provider
}

func NewProviderStore() *ProviderStore {
	return &ProviderStore{providers: make(map[string]models.Provider)}
}

func (s *ProviderStore) InsertProvider(_ context.Context, p models.Provider) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.providers[p.ID]; ok {
		return errors.E(errors.Conflict, "provider "+p.ID+" already exists", nil)
	}
	for _, existing := range s.providers {
		if existing.OwnerID == p.OwnerID {
			return errors.E(errors.Conflict, "owner already has a provider profile", nil)
		}
		if existing.Payout.AccountNumber == p.Payout.AccountNumber {
			return errors.E(errors.Conflict, "payout account already registered", nil)
		}
	}
	s.providers[p.ID] = cloneProvider(p)
	return nil
}

func (s *ProviderStore) GetProvider(_ context.Context, id string) (models.Provider, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.providers[id]
	if !ok {
		return models.Provider{}, errors.NotFoundErr("provider", id)
	}
	return cloneProvider(p), nil
}

// GetProviders returns the providers among ids that exist, in ids order.
func (s *ProviderStore) GetProviders(_ context.Context, ids []string) ([]models.Provider, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]models.Provider, 0, len(ids))
	for _, id := range ids {
		if p, ok := s.providers[id]; ok {
			result = append(result, cloneProvider(p))
		}
	}
	return result, nil
}

// UpdateProvider replaces the record when its stored version equals
// expectedVersion, bumping the version.
func (s *ProviderStore) UpdateProvider(_ context.Context, p models.Provider, expectedVersion int64) (models.Provider, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	current, ok := s.providers[p.ID]
	if !ok {
		return models.Provider{}, errors.NotFoundErr("provider", p.ID)
	}
	if current.Version != expectedVersion {
		return models.Provider{}, errors.ConflictErr("provider", p.ID, expectedVersion)
	}
	for id, existing := range s.providers {
		if id != p.ID && existing.Payout.AccountNumber == p.Payout.AccountNumber {
			return models.Provider{}, errors.E(errors.Conflict, "payout account already registered", nil)
		}
	}
	p.Version = expectedVersion + 1
	s.providers[p.ID] = cloneProvider(p)
	return cloneProvider(p), nil
}

func (s *ProviderStore) ListProviders(_ context.Context, f models.ProviderFilter) ([]models.Provider, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]models.Provider, 0)
	for _, p := range s.providers {
		if f.OwnerID != "" && p.OwnerID != f.OwnerID {
			continue
		}
		if f.PayoutAccount != "" && p.Payout.AccountNumber != f.PayoutAccount {
			continue
		}
		if f.VerificationStatus != "" && p.VerificationStatus != f.VerificationStatus {
			continue
		}
		result = append(result, cloneProvider(p))
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].CreatedAt.Equal(result[j].CreatedAt) {
			return result[i].ID < result[j].ID
		}
		return result[i].CreatedAt.After(result[j].CreatedAt)
	})
	if f.Limit > 0 && len(result) > f.Limit {
		result = result[:f.Limit]
	}
	return result, nil
}

func (s *ProviderStore) ProviderStats(_ context.Context) (models.ProviderStats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := models.ProviderStats{ByStatus: make(map[models.VerificationStatus]int64)}
	for _, status := range models.VerificationStatuses {
		stats.ByStatus[status] = 0
	}
	for _, p := range s.providers {
		stats.Total++
		stats.ByStatus[p.VerificationStatus]++
		if p.IsAvailable {
			stats.Available++
		}
	}
	return stats, nil
}

func cloneProvider(p models.Provider) models.Provider {
	if p.DeclaredLiquidity != nil {
		v := *p.DeclaredLiquidity
		p.DeclaredLiquidity = &v
	}
	return p
}
