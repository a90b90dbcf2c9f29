package memory

import (
	// Go Internal Packages
	"context"
	"sort"
	"sync"

	// Local Packages
	errors "coinnet/errors"
	models "coinnet/models"
	utils "coinnet/utils"
)

// TransactionStore is an in-memory transaction repository with optimistic
// version checks on update.
type TransactionStore struct {
	mu           sync.RWMutex
	transactions map[string]models.Transaction
	codes        map[string]string
}

func NewTransactionStore() *TransactionStore {
	return &TransactionStore{
		transactions: make(map[string]models.Transaction),
		codes:        make(map[string]string),
	}
}

func (s *TransactionStore) InsertTransaction(_ context.Context, tx models.Transaction) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.transactions[tx.ID]; ok {
		return errors.E(errors.Conflict, "transaction "+tx.ID+" already exists", nil)
	}
	if _, ok := s.codes[tx.Code]; ok {
		return errors.E(errors.Conflict, "transaction code "+tx.Code+" already exists", nil)
	}
	s.transactions[tx.ID] = tx.Clone()
	s.codes[tx.Code] = tx.ID
	return nil
}

func (s *TransactionStore) GetTransaction(_ context.Context, id string) (models.Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	tx, ok := s.transactions[id]
	if !ok {
		return models.Transaction{}, errors.NotFoundErr("transaction", id)
	}
	return tx.Clone(), nil
}

func (s *TransactionStore) GetTransactionByCode(_ context.Context, code string) (models.Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.codes[code]
	if !ok {
		return models.Transaction{}, errors.NotFoundErr("transaction", code)
	}
	return s.transactions[id].Clone(), nil
}

// UpdateTransaction replaces the record when its stored version equals
// expectedVersion, bumping the version.
func (s *TransactionStore) UpdateTransaction(_ context.Context, tx models.Transaction, expectedVersion int64) (models.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	current, ok := s.transactions[tx.ID]
	if !ok {
		return models.Transaction{}, errors.NotFoundErr("transaction", tx.ID)
	}
	if current.Version != expectedVersion {
		return models.Transaction{}, errors.ConflictErr("transaction", tx.ID, expectedVersion)
	}
	tx.Version = expectedVersion + 1
	s.transactions[tx.ID] = tx.Clone()
	return tx.Clone(), nil
}

func (s *TransactionStore) ListTransactions(_ context.Context, f models.TransactionFilter) ([]models.Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]models.Transaction, 0)
	for _, tx := range s.transactions {
		if matches(tx, f) {
			result = append(result, tx.Clone())
		}
	}
	sort.Slice(result, func(i, j int) bool {
		a, b := result[i], result[j]
		if a.CreatedAt.Equal(b.CreatedAt) {
			return a.ID < b.ID
		}
		if f.Sort == models.OldestFirst {
			return a.CreatedAt.Before(b.CreatedAt)
		}
		return a.CreatedAt.After(b.CreatedAt)
	})
	if f.Limit > 0 && len(result) > f.Limit {
		result = result[:f.Limit]
	}
	return result, nil
}

func (s *TransactionStore) CountTransactions(_ context.Context, f models.TransactionFilter) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var n int64
	for _, tx := range s.transactions {
		if matches(tx, f) {
			n++
		}
	}
	return n, nil
}

func (s *TransactionStore) TransactionStats(_ context.Context) (models.TransactionStats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := models.TransactionStats{ByStatus: make(map[models.Status]int64)}
	for _, status := range models.Statuses {
		stats.ByStatus[status] = 0
	}
	for _, tx := range s.transactions {
		stats.Total++
		stats.ByStatus[tx.Status]++
		stats.RequestedVolume += tx.RequestedAmount
		stats.CommissionTotal += tx.CommissionAmount
	}
	return stats, nil
}

func matches(tx models.Transaction, f models.TransactionFilter) bool {
	if f.UserID != "" && tx.UserID != f.UserID {
		return false
	}
	if f.ProviderID != "" && tx.ProviderID != f.ProviderID {
		return false
	}
	if len(f.Statuses) > 0 && !utils.ContainsStatus(f.Statuses, tx.Status) {
		return false
	}
	return true
}
