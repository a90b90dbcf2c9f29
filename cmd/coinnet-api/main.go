package main

import (
	// Go Internal Packages
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	// Local Packages
	config "coinnet/config"
	helpers "coinnet/helpers"
	kafka "coinnet/kafka"
	memory "coinnet/repositories/memory"
	mongodb "coinnet/repositories/mongodb"
	redis "coinnet/repositories/redis"
	server "coinnet/server"
	directory "coinnet/services/directory"
	fees "coinnet/services/fees"
	geo "coinnet/services/geo"
	lifecycle "coinnet/services/lifecycle"
	queries "coinnet/services/queries"

	// External Packages
	"github.com/alecthomas/kingpin/v2"
	"github.com/gin-gonic/gin"
	"github.com/knadh/koanf"
	goredis "github.com/redis/go-redis/v9"
	"github.com/twmb/franz-go/plugin/kprom"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

type providerStore interface {
	directory.ProviderRepository
	queries.ProviderReader
}

type transactionStore interface {
	lifecycle.TransactionRepository
	queries.TransactionReader
}

// LoadConfig loads the default configuration, overrides it with the config
// file given by the config flag and finally with COINNET_* variables.
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
	if err = appKonf.Validate(); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	if !appKonf.IsProdMode {
		k.Print()
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	logger, err := helpers.NewLogger(appKonf.Logger.Level, appKonf.Application)
	if err != nil {
		log.Fatalf("Error building logger: %v", err)
	}
	defer func() {
		_ = logger.Sync()
	}()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	probes := make(map[string]server.Probe)

	var (
		providers    providerStore
		transactions transactionStore
	)
	switch appKonf.Storage.Driver {
	case config.DriverMongo:
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
		providers = mongodb.NewProviderRepository(db)
		transactions = mongodb.NewTransactionRepository(db)
		probes["mongo"] = mongoProbe(mongoClient)
	default:
		providers = memory.NewProviderStore()
		transactions = memory.NewTransactionStore()
	}

	// Redis backs the geo index and the dead letter queue of the publisher.
	var redisClient *goredis.Client
	if appKonf.Geo.Driver == config.DriverRedis || appKonf.Kafka.Publish {
		redisClient, err = redis.Connect(ctx, appKonf.Redis.URI, appKonf.Redis.Password)
		if err != nil {
			logger.Fatal("cannot create redis client", zap.Error(err))
		}
		defer func() {
			_ = redisClient.Close()
		}()
		probes["redis"] = func(ctx context.Context) error {
			return redisClient.Ping(ctx).Err()
		}
	}

	var index geo.Index = geo.NewMemoryIndex()
	if appKonf.Geo.Driver == config.DriverRedis {
		index = redis.NewGeoIndex(redisClient, appKonf.Geo.Key)
	}

	metrics := kprom.NewMetrics("coinnet")
	var publisher lifecycle.Publisher = lifecycle.NopPublisher
	if appKonf.Kafka.Publish {
		dlQueue := redis.NewDeadLetterQueue(redisClient, logger, appKonf.Redis.DLQKey)
		producer, err := kafka.NewProducer(&kafka.ProducerConfig{
			Brokers: appKonf.Kafka.Brokers,
			Topic:   appKonf.Kafka.Topic,
		}, logger, dlQueue, metrics)
		if err != nil {
			logger.Fatal("cannot create event producer", zap.Error(err))
		}
		defer producer.Close(context.Background())
		publisher = producer
	}

	calc, err := fees.NewCalculator(appKonf.Fees.CommissionRate)
	if err != nil {
		logger.Fatal("cannot create fee calculator", zap.Error(err))
	}

	dir := directory.NewDirectory(logger, providers, index, calc, directory.Options{
		MinRequestAmount: appKonf.Matching.MinRequestAmount,
		DefaultRadiusKm:  appKonf.Matching.DefaultRadiusKm,
		MaxRadiusKm:      appKonf.Matching.MaxRadiusKm,
		MaxResults:       appKonf.Matching.MaxResults,
	})
	machine := lifecycle.NewMachine(logger, transactions, dir, calc, publisher, lifecycle.Options{
		MaxActivePerRequester: appKonf.Limits.MaxActivePerRequester,
	})
	querySvc := queries.NewService(logger, transactions, providers, appKonf.Limits.ListLimit)

	srv := server.NewServer(logger, dir, machine, querySvc, server.Options{
		Metrics: metrics.Handler(),
		Probes:  probes,
	})
	httpServer := &http.Server{
		Addr:         appKonf.HTTP.Address,
		Handler:      srv.Handler(),
		ReadTimeout:  appKonf.HTTP.ReadTimeout,
		WriteTimeout: appKonf.HTTP.WriteTimeout,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("http server listening", zap.String("address", httpServer.Addr),
			zap.String("storage", appKonf.Storage.Driver), zap.String("geo", appKonf.Geo.Driver))
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), appKonf.HTTP.ShutdownTimeout)
		defer cancel()
		logger.Info("shutting down http server")
		return httpServer.Shutdown(shutdownCtx)
	})

	if err = g.Wait(); err != nil {
		logger.Error("http server stopped", zap.Error(err))
	}
}

func mongoProbe(client *mongo.Client) server.Probe {
	return func(ctx context.Context) error {
		return client.Ping(ctx, nil)
	}
}
