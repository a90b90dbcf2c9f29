package mongodb

import (
	// Go Internal Packages
	"fmt"
	"testing"

	// External Packages
	"github.com/stretchr/testify/assert"
	"go.mongodb.org/mongo-driver/mongo"
)

func bulkErr(codes ...int) mongo.BulkWriteException {
	bwe := mongo.BulkWriteException{}
	for _, c := range codes {
		bwe.WriteErrors = append(bwe.WriteErrors, mongo.BulkWriteError{WriteError: mongo.WriteError{Code: c}})
	}
	return bwe
}

func TestOnlyDuplicates(t *testing.T) {
	assert.True(t, onlyDuplicates(bulkErr(11000, 11000)))
	assert.True(t, onlyDuplicates(fmt.Errorf("insert: %w", bulkErr(11000))))
	assert.False(t, onlyDuplicates(bulkErr(11000, 121)))
	assert.False(t, onlyDuplicates(bulkErr()))
	assert.False(t, onlyDuplicates(fmt.Errorf("network down")))
}
