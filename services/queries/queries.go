// Package queries holds the read-side views over providers and transactions.
// Nothing here mutates state.
package queries

import (
	// Go Internal Packages
	"context"
	"strings"

	// Local Packages
	errors "coinnet/errors"
	models "coinnet/models"
	utils "coinnet/utils"

	// External Packages
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const DefaultListLimit = 200

type TransactionReader interface {
	ListTransactions(ctx context.Context, f models.TransactionFilter) ([]models.Transaction, error)
	TransactionStats(ctx context.Context) (models.TransactionStats, error)
}

type ProviderReader interface {
	GetProvider(ctx context.Context, id string) (models.Provider, error)
	ListProviders(ctx context.Context, f models.ProviderFilter) ([]models.Provider, error)
	ProviderStats(ctx context.Context) (models.ProviderStats, error)
}

type Service struct {
	Logger       *zap.Logger
	transactions TransactionReader
	providers    ProviderReader
	limit        int
}

func NewService(logger *zap.Logger, transactions TransactionReader, providers ProviderReader, limit int) *Service {
	if limit <= 0 {
		limit = DefaultListLimit
	}
	return &Service{Logger: logger, transactions: transactions, providers: providers, limit: limit}
}

// MyTransactions returns every transaction opened by the requester, newest
// first.
func (s *Service) MyTransactions(ctx context.Context, requesterID string) ([]models.Transaction, error) {
	if strings.TrimSpace(requesterID) == "" {
		return nil, errors.EmptyParamErr("requester_id")
	}
	return s.transactions.ListTransactions(ctx, models.TransactionFilter{
		UserID: requesterID,
		Sort:   models.NewestFirst,
		Limit:  s.limit,
	})
}

// ProviderQueue returns the provider's transactions that are still being
// worked, oldest first.
func (s *Service) ProviderQueue(ctx context.Context, actor models.Actor, providerID string) ([]models.Transaction, error) {
	p, err := s.providers.GetProvider(ctx, providerID)
	if err != nil {
		return nil, err
	}
	if !actor.IsAdmin() && !(actor.Role == models.RoleProvider && actor.ID == p.OwnerID) {
		return nil, errors.ForbiddenErr(actor.ID, "view the queue of provider "+p.ID)
	}
	return s.transactions.ListTransactions(ctx, models.TransactionFilter{
		ProviderID: p.ID,
		Statuses:   models.OpenStatuses,
		Sort:       models.OldestFirst,
		Limit:      s.limit,
	})
}

// AdminMetrics aggregates both stores. The two reads run concurrently and are
// not a single snapshot.
func (s *Service) AdminMetrics(ctx context.Context, actor models.Actor) (models.AdminMetrics, error) {
	if !actor.IsAdmin() {
		return models.AdminMetrics{}, errors.ForbiddenErr(actor.ID, "view platform metrics")
	}

	var metrics models.AdminMetrics
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		stats, err := s.providers.ProviderStats(gctx)
		metrics.Providers = stats
		return err
	})
	g.Go(func() error {
		stats, err := s.transactions.TransactionStats(gctx)
		metrics.Transactions = stats
		return err
	})
	if err := g.Wait(); err != nil {
		return models.AdminMetrics{}, err
	}

	metrics.DisputeRatePct = utils.Percentage(metrics.Transactions.ByStatus[models.StatusDisputed], metrics.Transactions.Total)
	s.Logger.Debug("admin metrics computed",
		zap.Int64("providers", metrics.Providers.Total),
		zap.Int64("transactions", metrics.Transactions.Total),
		zap.Float64("dispute_rate_pct", metrics.DisputeRatePct),
	)
	return metrics, nil
}

// Disputes lists disputed transactions awaiting an administrator, newest
// first.
func (s *Service) Disputes(ctx context.Context, actor models.Actor) ([]models.Transaction, error) {
	if !actor.IsAdmin() {
		return nil, errors.ForbiddenErr(actor.ID, "list disputes")
	}
	return s.transactions.ListTransactions(ctx, models.TransactionFilter{
		Statuses: []models.Status{models.StatusDisputed},
		Sort:     models.NewestFirst,
		Limit:    s.limit,
	})
}

// Providers lists providers for review, optionally narrowed to one
// verification status.
func (s *Service) Providers(ctx context.Context, actor models.Actor, status models.VerificationStatus) ([]models.Provider, error) {
	if !actor.IsAdmin() {
		return nil, errors.ForbiddenErr(actor.ID, "list providers")
	}
	if status != "" && !validVerification(status) {
		ve := errors.ValidationErrs()
		ve.Add("status", "is not a verification status")
		return nil, errors.ValidationFailedErr(ve.Err())
	}
	return s.providers.ListProviders(ctx, models.ProviderFilter{VerificationStatus: status, Limit: s.limit})
}

func validVerification(status models.VerificationStatus) bool {
	for _, v := range models.VerificationStatuses {
		if v == status {
			return true
		}
	}
	return false
}
