package memory

import (
	// Go Internal Packages
	"context"
	"testing"
	"time"

	// Local Packages
	errors "coinnet/errors"
	models "coinnet/models"

	// External Packages
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProviderStoreVersioning(t *testing.T) {
	ctx := context.Background()
	s := NewProviderStore()
	p := models.Provider{ID: "p1", OwnerID: "o1", Payout: models.PayoutDestination{AccountNumber: "11112222"}}
	require.NoError(t, s.InsertProvider(ctx, p))

	err := s.InsertProvider(ctx, models.Provider{ID: "p2", OwnerID: "o1", Payout: models.PayoutDestination{AccountNumber: "33334444"}})
	assert.True(t, errors.Is(errors.Conflict, err), "one profile per owner")

	p.BusinessName = "Soda Tica"
	updated, err := s.UpdateProvider(ctx, p, 0)
	require.NoError(t, err)
	assert.Equal(t, int64(1), updated.Version)

	_, err = s.UpdateProvider(ctx, p, 0)
	assert.True(t, errors.Is(errors.Conflict, err), "stale version")

	_, err = s.GetProvider(ctx, "nope")
	assert.True(t, errors.Is(errors.NotFound, err))

	found, err := s.GetProviders(ctx, []string{"nope", "p1"})
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, "Soda Tica", found[0].BusinessName)
}

func TestProviderStoreCopiesLiquidity(t *testing.T) {
	ctx := context.Background()
	s := NewProviderStore()
	liquidity := int64(100000)
	require.NoError(t, s.InsertProvider(ctx, models.Provider{ID: "p1", OwnerID: "o1", DeclaredLiquidity: &liquidity}))

	liquidity = 1
	got, err := s.GetProvider(ctx, "p1")
	require.NoError(t, err)
	assert.Equal(t, int64(100000), *got.DeclaredLiquidity)
}

func TestTransactionStoreListing(t *testing.T) {
	ctx := context.Background()
	s := NewTransactionStore()
	base := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	for i, status := range []models.Status{models.StatusRequested, models.StatusCompleted, models.StatusAccepted} {
		require.NoError(t, s.InsertTransaction(ctx, models.Transaction{
			ID:              string(rune('a' + i)),
			Code:            "CN-202601-AAAAA" + string(rune('A'+i)),
			UserID:          "u1",
			ProviderID:      "p1",
			Status:          status,
			RequestedAmount: 1000,
			CreatedAt:       base.Add(time.Duration(i) * time.Hour),
		}))
	}

	newest, err := s.ListTransactions(ctx, models.TransactionFilter{UserID: "u1"})
	require.NoError(t, err)
	require.Len(t, newest, 3)
	assert.Equal(t, "c", newest[0].ID)

	open, err := s.ListTransactions(ctx, models.TransactionFilter{ProviderID: "p1", Statuses: models.OpenStatuses, Sort: models.OldestFirst, Limit: 1})
	require.NoError(t, err)
	require.Len(t, open, 1)
	assert.Equal(t, "a", open[0].ID)

	n, err := s.CountTransactions(ctx, models.TransactionFilter{UserID: "u1", Statuses: models.ActiveStatuses})
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	err = s.InsertTransaction(ctx, models.Transaction{ID: "z", Code: "CN-202601-AAAAAA"})
	assert.True(t, errors.Is(errors.Conflict, err), "duplicate code")

	byCode, err := s.GetTransactionByCode(ctx, "CN-202601-AAAAAB")
	require.NoError(t, err)
	assert.Equal(t, "b", byCode.ID)
}

func TestTransactionStoreIsolatesTimeline(t *testing.T) {
	ctx := context.Background()
	s := NewTransactionStore()
	tx := models.Transaction{ID: "t1", Code: "CN-1", Timeline: []models.TimelineEntry{{Status: models.StatusRequested}}}
	require.NoError(t, s.InsertTransaction(ctx, tx))

	got, err := s.GetTransaction(ctx, "t1")
	require.NoError(t, err)
	got.Timeline[0].Status = models.StatusCancelled

	again, err := s.GetTransaction(ctx, "t1")
	require.NoError(t, err)
	assert.Equal(t, models.StatusRequested, again.Timeline[0].Status)
}
