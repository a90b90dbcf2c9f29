package redis

import (
	// Go Internal Packages
	"context"
	"encoding/json"
	"fmt"
	"time"

	// Local Packages
	models "coinnet/models"

	// External Packages
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

type DeadLetterQueue struct {
	client  *redis.Client
	logger  *zap.Logger
	listKey string
	now     func() time.Time
}

func NewDeadLetterQueue(client *redis.Client, logger *zap.Logger, listKey string) *DeadLetterQueue {
	return &DeadLetterQueue{
		client:  client,
		logger:  logger,
		listKey: listKey,
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// Send appends the records to the dead letter list with the failure reason.
// Records that cannot be stored are logged and skipped.
func (r *DeadLetterQueue) Send(ctx context.Context, records []models.Record, reason string) error {
	if len(records) == 0 {
		return nil
	}

	values := make([]any, 0, len(records))
	for _, record := range records {
		jsonData, err := json.Marshal(models.DeadLetter{
			Key:      string(record.Key),
			Value:    record.Value,
			Topic:    record.Topic,
			Reason:   reason,
			FailedAt: r.now(),
		})
		if err != nil {
			r.logger.Error("failed to marshal dead letter", zap.ByteString("key", record.Key), zap.Error(err))
			continue
		}
		values = append(values, jsonData)
	}
	if len(values) == 0 {
		return nil
	}

	if err := r.client.RPush(ctx, r.listKey, values...).Err(); err != nil {
		return fmt.Errorf("push %d dead letters to %s: %w", len(values), r.listKey, err)
	}
	r.logger.Info("records sent to dead letter queue",
		zap.Int("count", len(values)),
		zap.String("reason", reason),
	)
	return nil
}

// Len returns the number of parked records.
func (r *DeadLetterQueue) Len(ctx context.Context) (int64, error) {
	return r.client.LLen(ctx, r.listKey).Result()
}
