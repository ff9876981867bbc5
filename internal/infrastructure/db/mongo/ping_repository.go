package mongo

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/veloway/rider-tracking/internal/core/domain"
	"github.com/veloway/rider-tracking/internal/core/ports"
)

const collectionPings = "pings"

// recencySort orders pings newest-first. ObjectID hex ids are generated
// monotonically, so the _id tie-break realizes "latest insertion wins" for
// identical timestamps.
var recencySort = bson.D{{Key: "timestamp", Value: -1}, {Key: "_id", Value: -1}}

// PingRepository implements ports.PingRepository on the append-only pings
// collection. Documents are only ever inserted or soft-deleted; position data
// is immutable once written.
type PingRepository struct {
	col *mongo.Collection
}

func NewPingRepository(db *mongo.Database) *PingRepository {
	return &PingRepository{col: db.Collection(collectionPings)}
}

// Insert appends one ping document and returns its id.
func (r *PingRepository) Insert(ctx context.Context, p *domain.Ping) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	p.ID = primitive.NewObjectID().Hex()
	p.CreatedAt = time.Now().UTC()

	if _, err := r.col.InsertOne(ctx, p); err != nil {
		return "", &domain.StorageError{Op: "insert ping", Err: err}
	}
	return p.ID, nil
}

// FindByRider returns all pings for a rider, unsorted. Callers that need
// recency order apply it themselves.
func (r *PingRepository) FindByRider(ctx context.Context, riderID string, activeOnly bool) ([]*domain.Ping, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	filter := bson.M{"rider_id": riderID}
	if activeOnly {
		filter["is_active"] = true
	}

	cur, err := r.col.Find(ctx, filter)
	if err != nil {
		return nil, &domain.StorageError{Op: "find pings by rider", Err: err}
	}
	defer cur.Close(ctx)

	var pings []*domain.Ping
	if err := cur.All(ctx, &pings); err != nil {
		return nil, &domain.StorageError{Op: "decode pings", Err: err}
	}
	return pings, nil
}

// FindLatestByRider resolves the current location with a single lookup backed
// by the (rider_id, timestamp desc) index; it never scans the full history.
func (r *PingRepository) FindLatestByRider(ctx context.Context, riderID string) (*domain.Ping, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	filter := bson.M{"rider_id": riderID, "is_active": true}
	opts := options.FindOne().SetSort(recencySort)

	var p domain.Ping
	err := r.col.FindOne(ctx, filter, opts).Decode(&p)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrNoCurrentLocation
		}
		return nil, &domain.StorageError{Op: "find latest ping", Err: err}
	}
	return &p, nil
}

// FindHistory returns active pings in the requested window, newest first,
// capped at f.Limit so results never materialize unbounded.
func (r *PingRepository) FindHistory(ctx context.Context, f ports.HistoryFilter) ([]*domain.Ping, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	filter := bson.M{"rider_id": f.RiderID, "is_active": true}
	tsRange := bson.M{}
	if !f.From.IsZero() {
		tsRange["$gte"] = f.From.UTC()
	}
	if !f.To.IsZero() {
		tsRange["$lte"] = f.To.UTC()
	}
	if len(tsRange) > 0 {
		filter["timestamp"] = tsRange
	}

	opts := options.Find().SetSort(recencySort).SetLimit(int64(f.Limit))

	cur, err := r.col.Find(ctx, filter, opts)
	if err != nil {
		return nil, &domain.StorageError{Op: "find ping history", Err: err}
	}
	defer cur.Close(ctx)

	pings := make([]*domain.Ping, 0, f.Limit)
	if err := cur.All(ctx, &pings); err != nil {
		return nil, &domain.StorageError{Op: "decode ping history", Err: err}
	}
	return pings, nil
}

// FindLatestPerRider groups active pings by rider, keeps each rider's most
// recent one, and returns those older than the threshold. The aggregation
// cursor is drained under the caller's context, so a cancelled scan stops
// cleanly with no side effects.
func (r *PingRepository) FindLatestPerRider(ctx context.Context, olderThan time.Time) ([]*domain.Ping, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.M{"is_active": true}}},
		{{Key: "$sort", Value: recencySort}},
		{{Key: "$group", Value: bson.M{
			"_id":    "$rider_id",
			"latest": bson.M{"$first": "$$ROOT"},
		}}},
		{{Key: "$match", Value: bson.M{"latest.timestamp": bson.M{"$lt": olderThan.UTC()}}}},
		{{Key: "$replaceRoot", Value: bson.M{"newRoot": "$latest"}}},
	}

	cur, err := r.col.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, &domain.StorageError{Op: "aggregate latest pings", Err: err}
	}
	defer cur.Close(ctx)

	var pings []*domain.Ping
	if err := cur.All(ctx, &pings); err != nil {
		return nil, &domain.StorageError{Op: "decode latest pings", Err: err}
	}
	return pings, nil
}

// Deactivate flips the soft-delete flag and returns the updated document.
func (r *PingRepository) Deactivate(ctx context.Context, pingID string) (*domain.Ping, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	filter := bson.M{"_id": pingID}
	update := bson.M{"$set": bson.M{"is_active": false}}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var p domain.Ping
	err := r.col.FindOneAndUpdate(ctx, filter, update, opts).Decode(&p)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrPingNotFound
		}
		return nil, &domain.StorageError{Op: "deactivate ping", Err: err}
	}
	return &p, nil
}

// PurgeOlderThan removes pings measured before now-age. Retention policy is
// decided externally; this only provides the range deletion.
func (r *PingRepository) PurgeOlderThan(ctx context.Context, age time.Duration) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	threshold := time.Now().UTC().Add(-age)
	res, err := r.col.DeleteMany(ctx, bson.M{"timestamp": bson.M{"$lt": threshold}})
	if err != nil {
		return 0, &domain.StorageError{Op: "purge pings", Err: err}
	}
	return res.DeletedCount, nil
}

// EnsureIndexes creates the indexes the read paths depend on:
//   - (rider_id, timestamp desc, _id desc) for current-location and history
//   - 2dsphere on location for proximity queries
//   - timestamp desc for the presence cutoff scan and retention purge
//   - geohash for prefix-based area lookups
func (r *PingRepository) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	indexes := []mongo.IndexModel{
		{Keys: bson.D{{Key: "rider_id", Value: 1}, {Key: "timestamp", Value: -1}, {Key: "_id", Value: -1}}},
		{Keys: bson.D{{Key: "location", Value: "2dsphere"}}},
		{Keys: bson.D{{Key: "timestamp", Value: -1}}},
		{Keys: bson.D{{Key: "geohash", Value: 1}}},
	}

	_, err := r.col.Indexes().CreateMany(ctx, indexes)
	return err
}
