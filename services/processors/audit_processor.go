package processors

import (
	// Go Internal Packages
	"context"
	"encoding/json"
	"fmt"

	// Local Packages
	models "coinnet/models"

	// External Packages
	"go.uber.org/zap"
)

const undecodableReason = "undecodable transaction event"

type EventRepository interface {
	InsertEvents(ctx context.Context, events []models.TransactionEvent) error
}

type DeadLetterQueue interface {
	Send(ctx context.Context, records []models.Record, reason string) error
}

// AuditProcessor appends consumed transaction events to the audit trail.
type AuditProcessor struct {
	Logger *zap.Logger
	Repo   EventRepository
	DLQ    DeadLetterQueue
}

func NewAuditProcessor(logger *zap.Logger, repo EventRepository, dlq DeadLetterQueue) *AuditProcessor {
	return &AuditProcessor{Logger: logger, Repo: repo, DLQ: dlq}
}

// ProcessRecords decodes a batch and stores it in one write. Records that do
// not decode are parked in the dead letter queue and do not fail the batch.
func (p *AuditProcessor) ProcessRecords(ctx context.Context, records []models.Record) error {
	if len(records) == 0 {
		return nil
	}

	events := make([]models.TransactionEvent, 0, len(records))
	var bad []models.Record
	for _, record := range records {
		var event models.TransactionEvent
		if err := json.Unmarshal(record.Value, &event); err != nil || event.EventID == "" {
			p.Logger.Warn("failed to decode transaction event", zap.ByteString("key", record.Key), zap.Error(err))
			bad = append(bad, record)
			continue
		}
		events = append(events, event)
	}

	if len(bad) > 0 {
		if err := p.DLQ.Send(ctx, bad, undecodableReason); err != nil {
			return fmt.Errorf("failed to park %d records: %w", len(bad), err)
		}
	}
	if len(events) == 0 {
		return nil
	}
	if err := p.Repo.InsertEvents(ctx, events); err != nil {
		return fmt.Errorf("failed to insert transaction events: %w", err)
	}

	p.Logger.Debug("audit batch stored", zap.Int("events", len(events)), zap.Int("parked", len(bad)))
	return nil
}
