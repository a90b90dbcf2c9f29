package kafka

import (
	// Go Internal Packages
	"context"
	"encoding/json"
	"fmt"

	// Local Packages
	models "coinnet/models"

	// External Packages
	"github.com/twmb/franz-go/pkg/kgo"
	"github.com/twmb/franz-go/plugin/kprom"
	"go.uber.org/zap"
)

type ProducerConfig struct {
	Brokers []string
	Topic   string
}

// Producer publishes transaction events keyed by transaction id, so all
// events of one transaction land on the same partition in commit order.
type Producer struct {
	Client *kgo.Client
	Config *ProducerConfig
	DLQ    DeadLetterQueue
	Logger *zap.Logger
}

func NewProducer(conf *ProducerConfig, logger *zap.Logger, dlq DeadLetterQueue, metrics *kprom.Metrics) (*Producer, error) {
	client, err := kgo.NewClient(
		kgo.SeedBrokers(conf.Brokers...),
		kgo.DefaultProduceTopic(conf.Topic),
		kgo.WithHooks(metrics),
		kgo.RequiredAcks(kgo.AllISRAcks()),
	)
	if err != nil {
		return nil, err
	}
	return &Producer{Client: client, Config: conf, DLQ: dlq, Logger: logger}, nil
}

// Publish writes the event synchronously. When the broker rejects it the
// event is parked in the dead letter queue and the error is returned.
func (p *Producer) Publish(ctx context.Context, event models.TransactionEvent) error {
	record, err := EventRecord(p.Config.Topic, event)
	if err != nil {
		return err
	}

	if err := p.Client.ProduceSync(ctx, record).FirstErr(); err != nil {
		parked := []models.Record{{Key: record.Key, Value: record.Value, Topic: record.Topic}}
		if dlqErr := p.DLQ.Send(ctx, parked, err.Error()); dlqErr != nil {
			p.Logger.Error("failed to park unpublished event",
				zap.String("event_id", event.EventID),
				zap.Error(dlqErr),
			)
		}
		return fmt.Errorf("produce event %s: %w", event.EventID, err)
	}
	return nil
}

// Close flushes buffered records and closes the client.
func (p *Producer) Close(ctx context.Context) {
	if err := p.Client.Flush(ctx); err != nil {
		p.Logger.Warn("failed to flush producer", zap.Error(err))
	}
	p.Client.Close()
}

// EventRecord encodes event as a Kafka record keyed by its transaction id.
func EventRecord(topic string, event models.TransactionEvent) (*kgo.Record, error) {
	value, err := json.Marshal(event)
	if err != nil {
		return nil, fmt.Errorf("marshal event %s: %w", event.EventID, err)
	}
	return &kgo.Record{
		Topic: topic,
		Key:   []byte(event.TransactionID),
		Value: value,
	}, nil
}
