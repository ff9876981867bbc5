package mongo

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/veloway/rider-tracking/internal/core/domain"
)

const collectionRiders = "riders"

// RiderRepository is a read-only adapter over the externally-owned riders
// collection. The tracking engine never writes here.
type RiderRepository struct {
	col *mongo.Collection
}

func NewRiderRepository(db *mongo.Database) *RiderRepository {
	return &RiderRepository{col: db.Collection(collectionRiders)}
}

// FindByID resolves display attributes for a rider id.
func (r *RiderRepository) FindByID(ctx context.Context, riderID string) (*domain.Rider, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var rider domain.Rider
	err := r.col.FindOne(ctx, bson.M{"_id": riderID}).Decode(&rider)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrRiderNotFound
		}
		return nil, &domain.StorageError{Op: "find rider", Err: err}
	}
	return &rider, nil
}
