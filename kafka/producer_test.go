package kafka

import (
	// Go Internal Packages
	"encoding/json"
	"testing"
	"time"

	// Local Packages
	models "coinnet/models"

	// External Packages
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEventRecordKeysByTransaction(t *testing.T) {
	event := models.TransactionEvent{
		EventID:       "evt-1",
		TransactionID: "tx-1",
		Action:        "accept",
		From:          models.StatusRequested,
		To:            models.StatusAccepted,
		Version:       1,
		OccurredAt:    time.Date(2026, 2, 3, 4, 5, 6, 0, time.UTC),
	}

	record, err := EventRecord("transaction-events", event)
	require.NoError(t, err)
	assert.Equal(t, "transaction-events", record.Topic)
	assert.Equal(t, []byte("tx-1"), record.Key)

	var decoded models.TransactionEvent
	require.NoError(t, json.Unmarshal(record.Value, &decoded))
	assert.Equal(t, event, decoded)
}
