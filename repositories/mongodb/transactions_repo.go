package mongodb

import (
	// Go Internal Packages
	"context"

	// Local Packages
	errors "coinnet/errors"
	models "coinnet/models"

	// External Packages
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type TransactionRepository struct {
	collection *mongo.Collection
}

func NewTransactionRepository(db *mongo.Database) *TransactionRepository {
	return &TransactionRepository{collection: db.Collection(transactionsCollection)}
}

// InsertTransaction stores a new transaction. A duplicate id or code is
// reported as a Conflict so the caller can retry with a fresh code.
func (r *TransactionRepository) InsertTransaction(ctx context.Context, tx models.Transaction) error {
	_, err := r.collection.InsertOne(ctx, tx)
	if mongo.IsDuplicateKeyError(err) {
		return errors.E(errors.Conflict, "transaction "+tx.ID+" or code "+tx.Code+" already exists", err)
	}
	if err != nil {
		return errors.InternalErr("insert transaction", err)
	}
	return nil
}

func (r *TransactionRepository) GetTransaction(ctx context.Context, id string) (models.Transaction, error) {
	return r.findOne(ctx, bson.M{"_id": id}, id)
}

func (r *TransactionRepository) GetTransactionByCode(ctx context.Context, code string) (models.Transaction, error) {
	return r.findOne(ctx, bson.M{"code": code}, code)
}

func (r *TransactionRepository) findOne(ctx context.Context, filter bson.M, ref string) (models.Transaction, error) {
	var tx models.Transaction
	err := r.collection.FindOne(ctx, filter).Decode(&tx)
	if err == mongo.ErrNoDocuments {
		return models.Transaction{}, errors.NotFoundErr("transaction", ref)
	}
	if err != nil {
		return models.Transaction{}, errors.InternalErr("get transaction", err)
	}
	return tx, nil
}

// UpdateTransaction replaces the document only if its stored version still
// equals expectedVersion. A lost race is reported as a Conflict.
func (r *TransactionRepository) UpdateTransaction(ctx context.Context, tx models.Transaction, expectedVersion int64) (models.Transaction, error) {
	tx.Version = expectedVersion + 1
	res, err := r.collection.ReplaceOne(ctx, bson.M{"_id": tx.ID, "version": expectedVersion}, tx)
	if err != nil {
		return models.Transaction{}, errors.InternalErr("replace transaction", err)
	}
	if res.MatchedCount == 0 {
		n, err := r.collection.CountDocuments(ctx, bson.M{"_id": tx.ID})
		if err != nil {
			return models.Transaction{}, errors.InternalErr("count transaction", err)
		}
		if n == 0 {
			return models.Transaction{}, errors.NotFoundErr("transaction", tx.ID)
		}
		return models.Transaction{}, errors.ConflictErr("transaction", tx.ID, expectedVersion)
	}
	return tx, nil
}

func transactionFilter(f models.TransactionFilter) bson.M {
	filter := bson.M{}
	if f.UserID != "" {
		filter["user_id"] = f.UserID
	}
	if f.ProviderID != "" {
		filter["provider_id"] = f.ProviderID
	}
	if len(f.Statuses) > 0 {
		filter["status"] = bson.M{"$in": f.Statuses}
	}
	return filter
}

func (r *TransactionRepository) ListTransactions(ctx context.Context, f models.TransactionFilter) ([]models.Transaction, error) {
	direction := -1
	if f.Sort == models.OldestFirst {
		direction = 1
	}
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: direction}, {Key: "_id", Value: 1}})
	if f.Limit > 0 {
		opts.SetLimit(int64(f.Limit))
	}

	cursor, err := r.collection.Find(ctx, transactionFilter(f), opts)
	if err != nil {
		return nil, errors.InternalErr("list transactions", err)
	}
	result := make([]models.Transaction, 0)
	if err := cursor.All(ctx, &result); err != nil {
		return nil, errors.InternalErr("decode transactions", err)
	}
	return result, nil
}

func (r *TransactionRepository) CountTransactions(ctx context.Context, f models.TransactionFilter) (int64, error) {
	n, err := r.collection.CountDocuments(ctx, transactionFilter(f))
	if err != nil {
		return 0, errors.InternalErr("count transactions", err)
	}
	return n, nil
}

type statusGroup struct {
	Status     models.Status `bson:"_id"`
	Count      int64         `bson:"count"`
	Requested  int64         `bson:"requested"`
	Commission int64         `bson:"commission"`
}

func (r *TransactionRepository) TransactionStats(ctx context.Context) (models.TransactionStats, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$group", Value: bson.D{
			{Key: "_id", Value: "$status"},
			{Key: "count", Value: bson.D{{Key: "$sum", Value: 1}}},
			{Key: "requested", Value: bson.D{{Key: "$sum", Value: "$requested_amount"}}},
			{Key: "commission", Value: bson.D{{Key: "$sum", Value: "$commission_amount"}}},
		}}},
	}
	cursor, err := r.collection.Aggregate(ctx, pipeline)
	if err != nil {
		return models.TransactionStats{}, errors.InternalErr("aggregate transaction stats", err)
	}
	var groups []statusGroup
	if err := cursor.All(ctx, &groups); err != nil {
		return models.TransactionStats{}, errors.InternalErr("decode transaction stats", err)
	}

	stats := models.TransactionStats{ByStatus: make(map[models.Status]int64)}
	for _, status := range models.Statuses {
		stats.ByStatus[status] = 0
	}
	for _, g := range groups {
		stats.Total += g.Count
		stats.ByStatus[g.Status] += g.Count
		stats.RequestedVolume += g.Requested
		stats.CommissionTotal += g.Commission
	}
	return stats, nil
}
