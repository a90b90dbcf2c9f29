package main

import (
	// Go Internal Packages
	"context"
	"errors"
	"log"
	"os"
	"os/signal"
	"syscall"

	// Local Packages
	config "coinnet/config"
	helpers "coinnet/helpers"
	kafka "coinnet/kafka"
	mongodb "coinnet/repositories/mongodb"
	redis "coinnet/repositories/redis"
	processors "coinnet/services/processors"

	// External Packages
	"github.com/alecthomas/kingpin/v2"
	"github.com/knadh/koanf"
	"github.com/twmb/franz-go/plugin/kprom"
	"go.uber.org/zap"
)

// LoadConfig loads the default configuration and overrides it with the config file
// specified by the path defined in the config flag
func LoadConfig() *koanf.Koanf {
	configPathMsg := "Path to the application config file"
	configPath := kingpin.Flag("config", configPathMsg).Short('c').Default("").String()

	kingpin.Parse()
	k, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Error reading config: %v", err)
	}
	if err = config.LoadSecrets(k); err != nil {
		log.Fatalf("Error reading environment: %v", err)
	}
	return k
}

func main() {
	k := LoadConfig()
	appKonf := config.Config{}

	// Unmarshalling config into struct
	err := k.Unmarshal("", &appKonf)
	if err != nil {
		log.Fatalf("Error loading config: %v", err)
	}

	// Validate the config loaded
	if err = appKonf.ValidateAudit(); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	if !appKonf.IsProdMode {
		helpers.PrintStruct(appKonf.Kafka)
	}

	logger, err := helpers.NewLogger(appKonf.Logger.Level, appKonf.Kafka.ConsumerName)
	if err != nil {
		log.Fatalf("Error building logger: %v", err)
	}
	defer func() {
		_ = logger.Sync()
	}()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Mongo Connection
	mongoClient, err := mongodb.Connect(ctx, appKonf.Mongo.URI)
	if err != nil {
		logger.Fatal("cannot create mongo client", zap.Error(err))
	}
	defer func() {
		_ = mongoClient.Disconnect(context.Background())
	}()
	db := mongoClient.Database(appKonf.Mongo.Database)
	if err = mongodb.EnsureIndexes(ctx, db); err != nil {
		logger.Fatal("cannot create mongo indexes", zap.Error(err))
	}

	// Redis Connection
	redisClient, err := redis.Connect(ctx, appKonf.Redis.URI, appKonf.Redis.Password)
	if err != nil {
		logger.Fatal("cannot create redis client", zap.Error(err))
	}
	defer func() {
		_ = redisClient.Close()
	}()

	eventRepo := mongodb.NewEventRepository(db)
	dlQueue := redis.NewDeadLetterQueue(redisClient, logger, appKonf.Redis.DLQKey)
	if parked, err := dlQueue.Len(ctx); err == nil && parked > 0 {
		logger.Warn("dead letter queue is not empty", zap.Int64("records", parked), zap.String("key", appKonf.Redis.DLQKey))
	}
	auditProcessor := processors.NewAuditProcessor(logger, eventRepo, dlQueue)

	metrics := kprom.NewMetrics("coinnet_audit")
	conf := &kafka.ConsumerConfig{
		Brokers:        appKonf.Kafka.Brokers,
		Name:           appKonf.Kafka.ConsumerName,
		Topic:          appKonf.Kafka.Topic,
		RecordsPerPoll: appKonf.Kafka.RecordsPerPoll,
	}

	consumer, err := kafka.NewConsumer(conf, logger, auditProcessor, dlQueue, metrics)
	if err != nil {
		logger.Fatal("cannot create transaction event consumer", zap.Error(err))
	}

	err = consumer.Poll(ctx)
	if err != nil && !errors.Is(err, context.Canceled) {
		logger.Fatal("cannot poll records from topic", zap.Error(err))
	}
}
