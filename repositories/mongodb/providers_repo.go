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

type ProviderRepository struct {
	collection *mongo.Collection
}

func NewProviderRepository(db *mongo.Database) *ProviderRepository {
	return &ProviderRepository{collection: db.Collection(providersCollection)}
}

func (r *ProviderRepository) InsertProvider(ctx context.Context, p models.Provider) error {
	_, err := r.collection.InsertOne(ctx, p)
	if mongo.IsDuplicateKeyError(err) {
		return errors.E(errors.Conflict, "provider "+p.ID+" duplicates an existing owner or payout account", err)
	}
	if err != nil {
		return errors.InternalErr("insert provider", err)
	}
	return nil
}

func (r *ProviderRepository) GetProvider(ctx context.Context, id string) (models.Provider, error) {
	var p models.Provider
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&p)
	if err == mongo.ErrNoDocuments {
		return models.Provider{}, errors.NotFoundErr("provider", id)
	}
	if err != nil {
		return models.Provider{}, errors.InternalErr("get provider", err)
	}
	return p, nil
}

// GetProviders returns the providers among ids that exist, in ids order.
func (r *ProviderRepository) GetProviders(ctx context.Context, ids []string) ([]models.Provider, error) {
	if len(ids) == 0 {
		return []models.Provider{}, nil
	}
	cursor, err := r.collection.Find(ctx, bson.M{"_id": bson.M{"$in": ids}})
	if err != nil {
		return nil, errors.InternalErr("find providers", err)
	}
	var found []models.Provider
	if err := cursor.All(ctx, &found); err != nil {
		return nil, errors.InternalErr("decode providers", err)
	}

	byID := make(map[string]models.Provider, len(found))
	for _, p := range found {
		byID[p.ID] = p
	}
	result := make([]models.Provider, 0, len(found))
	for _, id := range ids {
		if p, ok := byID[id]; ok {
			result = append(result, p)
		}
	}
	return result, nil
}

// UpdateProvider replaces the document only if its stored version still
// equals expectedVersion.
func (r *ProviderRepository) UpdateProvider(ctx context.Context, p models.Provider, expectedVersion int64) (models.Provider, error) {
	p.Version = expectedVersion + 1
	res, err := r.collection.ReplaceOne(ctx, bson.M{"_id": p.ID, "version": expectedVersion}, p)
	if mongo.IsDuplicateKeyError(err) {
		return models.Provider{}, errors.E(errors.Conflict, "payout account already registered", err)
	}
	if err != nil {
		return models.Provider{}, errors.InternalErr("replace provider", err)
	}
	if res.MatchedCount == 0 {
		return models.Provider{}, r.missOrConflict(ctx, p.ID, expectedVersion)
	}
	return p, nil
}

func (r *ProviderRepository) missOrConflict(ctx context.Context, id string, expectedVersion int64) error {
	n, err := r.collection.CountDocuments(ctx, bson.M{"_id": id})
	if err != nil {
		return errors.InternalErr("count provider", err)
	}
	if n == 0 {
		return errors.NotFoundErr("provider", id)
	}
	return errors.ConflictErr("provider", id, expectedVersion)
}

func (r *ProviderRepository) ListProviders(ctx context.Context, f models.ProviderFilter) ([]models.Provider, error) {
	filter := bson.M{}
	if f.OwnerID != "" {
		filter["owner_id"] = f.OwnerID
	}
	if f.PayoutAccount != "" {
		filter["payout.account_number"] = f.PayoutAccount
	}
	if f.VerificationStatus != "" {
		filter["verification_status"] = f.VerificationStatus
	}

	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: 1}})
	if f.Limit > 0 {
		opts.SetLimit(int64(f.Limit))
	}
	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, errors.InternalErr("list providers", err)
	}
	result := make([]models.Provider, 0)
	if err := cursor.All(ctx, &result); err != nil {
		return nil, errors.InternalErr("decode providers", err)
	}
	return result, nil
}

type providerGroup struct {
	Status    models.VerificationStatus `bson:"_id"`
	Count     int64                     `bson:"count"`
	Available int64                     `bson:"available"`
}

func (r *ProviderRepository) ProviderStats(ctx context.Context) (models.ProviderStats, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$group", Value: bson.D{
			{Key: "_id", Value: "$verification_status"},
			{Key: "count", Value: bson.D{{Key: "$sum", Value: 1}}},
			{Key: "available", Value: bson.D{{Key: "$sum", Value: bson.D{
				{Key: "$cond", Value: bson.A{"$is_available", 1, 0}},
			}}}},
		}}},
	}
	cursor, err := r.collection.Aggregate(ctx, pipeline)
	if err != nil {
		return models.ProviderStats{}, errors.InternalErr("aggregate provider stats", err)
	}
	var groups []providerGroup
	if err := cursor.All(ctx, &groups); err != nil {
		return models.ProviderStats{}, errors.InternalErr("decode provider stats", err)
	}

	stats := models.ProviderStats{ByStatus: make(map[models.VerificationStatus]int64)}
	for _, status := range models.VerificationStatuses {
		stats.ByStatus[status] = 0
	}
	for _, g := range groups {
		stats.Total += g.Count
		stats.Available += g.Available
		stats.ByStatus[g.Status] += g.Count
	}
	return stats, nil
}
