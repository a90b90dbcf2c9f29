package processors

import (
	// Go Internal Packages
	"context"
	"encoding/json"
	"fmt"
	"testing"

	// Local Packages
	models "coinnet/models"

	// External Packages
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeRepo struct {
	inserted []models.TransactionEvent
	err      error
}

func (f *fakeRepo) InsertEvents(_ context.Context, events []models.TransactionEvent) error {
	if f.err != nil {
		return f.err
	}
	f.inserted = append(f.inserted, events...)
	return nil
}

type fakeDLQ struct {
	parked  []models.Record
	reasons []string
}

func (f *fakeDLQ) Send(_ context.Context, records []models.Record, reason string) error {
	f.parked = append(f.parked, records...)
	f.reasons = append(f.reasons, reason)
	return nil
}

func eventRecord(t *testing.T, id string) models.Record {
	t.Helper()
	value, err := json.Marshal(models.TransactionEvent{EventID: id, TransactionID: "tx-1", Action: "accept"})
	require.NoError(t, err)
	return models.Record{Key: []byte("tx-1"), Value: value, Topic: "transaction-events"}
}

func TestProcessRecordsParksUndecodable(t *testing.T) {
	repo, dlq := &fakeRepo{}, &fakeDLQ{}
	p := NewAuditProcessor(zap.NewNop(), repo, dlq)

	records := []models.Record{
		eventRecord(t, "evt-1"),
		{Key: []byte("tx-2"), Value: []byte("{not json")},
		{Key: []byte("tx-3"), Value: []byte(`{"action":"accept"}`)},
		eventRecord(t, "evt-2"),
	}
	require.NoError(t, p.ProcessRecords(context.Background(), records))

	require.Len(t, repo.inserted, 2)
	assert.Equal(t, "evt-1", repo.inserted[0].EventID)
	assert.Equal(t, "evt-2", repo.inserted[1].EventID)
	require.Len(t, dlq.parked, 2)
	assert.Equal(t, []string{undecodableReason}, dlq.reasons)
}

func TestProcessRecordsReportsStoreFailure(t *testing.T) {
	repo, dlq := &fakeRepo{err: fmt.Errorf("mongo down")}, &fakeDLQ{}
	p := NewAuditProcessor(zap.NewNop(), repo, dlq)

	err := p.ProcessRecords(context.Background(), []models.Record{eventRecord(t, "evt-1")})
	assert.ErrorContains(t, err, "mongo down")
	assert.Empty(t, dlq.parked)
}

func TestProcessRecordsEmpty(t *testing.T) {
	p := NewAuditProcessor(zap.NewNop(), &fakeRepo{}, &fakeDLQ{})
	assert.NoError(t, p.ProcessRecords(context.Background(), nil))
}
