package mongodb

import (
	// Go Internal Packages
	"context"

	// Local Packages
	errors "coinnet/errors"
	models "coinnet/models"

	// External Packages
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const duplicateKeyCode = 11000

// EventRepository is the append-only audit trail of transaction events.
type EventRepository struct {
	collection *mongo.Collection
}

func NewEventRepository(db *mongo.Database) *EventRepository {
	return &EventRepository{collection: db.Collection(eventsCollection)}
}

// InsertEvents inserts a batch of events. Events are keyed by their id, so a
// batch redelivered by the broker only adds the events not yet stored.
func (r *EventRepository) InsertEvents(ctx context.Context, events []models.TransactionEvent) error {
	if len(events) == 0 {
		return nil
	}
	docs := make([]interface{}, len(events))
	for i, e := range events {
		docs[i] = e
	}

	_, err := r.collection.InsertMany(ctx, docs, options.InsertMany().SetOrdered(false))
	if err == nil || onlyDuplicates(err) {
		return nil
	}
	return errors.InternalErr("insert transaction events", err)
}

func onlyDuplicates(err error) bool {
	var bwe mongo.BulkWriteException
	if !errors.As(err, &bwe) || bwe.WriteConcernError != nil || len(bwe.WriteErrors) == 0 {
		return false
	}
	for _, we := range bwe.WriteErrors {
		if we.Code != duplicateKeyCode {
			return false
		}
	}
	return true
}
