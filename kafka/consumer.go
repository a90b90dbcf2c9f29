package kafka

import (
	// Go Internal Packages
	"context"
	"errors"

	// Local Packages
	models "coinnet/models"

	// External Packages
	"github.com/twmb/franz-go/pkg/kgo"
	"github.com/twmb/franz-go/plugin/kprom"
	"go.uber.org/zap"
)

type ConsumerConfig struct {
	Brokers        []string
	Name           string
	Topic          string
	RecordsPerPoll int
}

type RecordProcessor interface {
	ProcessRecords(ctx context.Context, records []models.Record) error
}

type DeadLetterQueue interface {
	Send(ctx context.Context, records []models.Record, reason string) error
}

type Consumer struct {
	Client    *kgo.Client
	Config    *ConsumerConfig
	Processor RecordProcessor
	DLQ       DeadLetterQueue
	Logger    *zap.Logger
}

// NewConsumer creates a group consumer for conf.Topic. Poll must be called to
// start consuming.
func NewConsumer(conf *ConsumerConfig, logger *zap.Logger, processor RecordProcessor, dlq DeadLetterQueue, metrics *kprom.Metrics) (*Consumer, error) {
	c := &Consumer{Config: conf, Processor: processor, DLQ: dlq, Logger: logger}

	opts := []kgo.Opt{
		kgo.SeedBrokers(conf.Brokers...),
		kgo.ConsumerGroup(conf.Name),
		kgo.ConsumeTopics(conf.Topic),
		kgo.WithHooks(metrics),
		kgo.DisableAutoCommit(),
		kgo.BlockRebalanceOnPoll(),
	}

	client, err := kgo.NewClient(opts...)
	if err != nil {
		return nil, err
	}

	c.Client = client
	return c, nil
}

// Poll consumes until ctx is cancelled. A batch that fails processing is
// parked in the dead letter queue and committed, so one bad batch never
// stalls the partition.
func (c *Consumer) Poll(ctx context.Context) error {
	defer c.Client.Close()

	for {
		if ctx.Err() != nil {
			c.Logger.Warn("polling stopped: context canceled")
			return ctx.Err()
		}

		fetches := c.Client.PollRecords(ctx, c.Config.RecordsPerPoll)
		if fetches.IsClientClosed() {
			return errors.New("kafka client closed")
		}
		if errors.Is(fetches.Err0(), context.Canceled) {
			return ctx.Err()
		}
		fetches.EachError(func(topic string, partition int32, err error) {
			c.Logger.Error("fetch error",
				zap.String("topic", topic),
				zap.Int32("partition", partition),
				zap.Error(err),
			)
		})

		fetched := fetches.Records()
		if len(fetched) == 0 {
			c.Client.AllowRebalance()
			continue
		}
		records := make([]models.Record, len(fetched))
		for idx, record := range fetched {
			records[idx] = models.Record{
				Key:   record.Key,
				Value: record.Value,
				Topic: record.Topic,
			}
		}

		if err := c.Processor.ProcessRecords(ctx, records); err != nil {
			c.Logger.Error("failed to process records", zap.Int("count", len(records)), zap.Error(err))
			if dlqErr := c.DLQ.Send(ctx, records, err.Error()); dlqErr != nil {
				// Leave the batch uncommitted so it is redelivered after a restart.
				c.Logger.Error("failed to park records", zap.Error(dlqErr))
				c.Client.AllowRebalance()
				continue
			}
		}

		if err := c.Client.CommitRecords(ctx, fetched...); err != nil {
			c.Logger.Error("failed to commit records", zap.Error(err))
		}
		c.Client.AllowRebalance()
	}
}
