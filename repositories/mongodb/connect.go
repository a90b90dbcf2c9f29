package mongodb

import (
	// Go Internal Packages
	"context"
	"fmt"
	"time"

	// External Packages
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	providersCollection    = "providers"
	transactionsCollection = "transactions"
	eventsCollection       = "transaction_events"
)

// Connect connects to the mongodb server and returns the client.
func Connect(ctx context.Context, uri string) (*mongo.Client, error) {
	timeout := time.Second * 5
	opts := &options.ClientOptions{ServerSelectionTimeout: &timeout}

	client, err := mongo.Connect(ctx, opts.ApplyURI(uri))
	if err != nil {
		return nil, err
	}

	// Ping the MongoDB server to verify the connection.
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("mongo ping: %w", err)
	}
	return client, nil
}

// EnsureIndexes creates the unique and query indexes the repositories rely
// on. It is idempotent.
func EnsureIndexes(ctx context.Context, db *mongo.Database) error {
	providers := []mongo.IndexModel{
		{Keys: bson.D{{Key: "owner_id", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "payout.account_number", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "verification_status", Value: 1}, {Key: "created_at", Value: -1}}},
	}
	if _, err := db.Collection(providersCollection).Indexes().CreateMany(ctx, providers); err != nil {
		return fmt.Errorf("create provider indexes: %w", err)
	}

	transactions := []mongo.IndexModel{
		{Keys: bson.D{{Key: "code", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "user_id", Value: 1}, {Key: "created_at", Value: -1}}},
		{Keys: bson.D{{Key: "provider_id", Value: 1}, {Key: "status", Value: 1}, {Key: "created_at", Value: 1}}},
		{Keys: bson.D{{Key: "status", Value: 1}, {Key: "created_at", Value: -1}}},
	}
	if _, err := db.Collection(transactionsCollection).Indexes().CreateMany(ctx, transactions); err != nil {
		return fmt.Errorf("create transaction indexes: %w", err)
	}

	events := []mongo.IndexModel{
		{Keys: bson.D{{Key: "transaction_id", Value: 1}, {Key: "version", Value: 1}}},
	}
	if _, err := db.Collection(eventsCollection).Indexes().CreateMany(ctx, events); err != nil {
		return fmt.Errorf("create event indexes: %w", err)
	}
	return nil
}
