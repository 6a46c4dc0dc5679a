package mongo

import (
	"context"
	"errors"
	"time"

	"okuda/tabi-planner/internal/domain"
	"okuda/tabi-planner/internal/repository"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const transportCollectionName = "transport_snapshots"

// mongoTransportRepository implements repository.TransportRepository
type mongoTransportRepository struct {
	collection *mongo.Collection
}

// NewMongoTransportRepository creates a new TransportSnapshot repository.
func NewMongoTransportRepository(db *mongo.Database) repository.TransportRepository {
	return &mongoTransportRepository{
		collection: db.Collection(transportCollectionName),
	}
}

// CreateMany inserts one snapshot per generated transport option.
func (r *mongoTransportRepository) CreateMany(ctx context.Context, snapshots []domain.TransportSnapshot) error {
	if len(snapshots) == 0 {
		return nil
	}
	now := time.Now().UTC()
	docs := make([]interface{}, 0, len(snapshots))
	for i := range snapshots {
		if snapshots[i].PlanID == primitive.NilObjectID {
			return errors.New("transport snapshot requires planId")
		}
		snapshots[i].ID = primitive.NewObjectID()
		snapshots[i].CreatedAt = now
		docs = append(docs, snapshots[i])
	}

	_, err := r.collection.InsertMany(ctx, docs)
	return err
}

// GetByPlanID retrieves all transport snapshots for a plan in insertion order.
func (r *mongoTransportRepository) GetByPlanID(ctx context.Context, planID primitive.ObjectID) ([]domain.TransportSnapshot, error) {
	var snapshots []domain.TransportSnapshot
	filter := bson.M{"planId": planID}
	findOptions := options.Find().SetSort(bson.D{{Key: "_id", Value: 1}})

	cursor, err := r.collection.Find(ctx, filter, findOptions)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	if err = cursor.All(ctx, &snapshots); err != nil {
		return nil, err
	}
	if err = cursor.Err(); err != nil {
		return nil, err
	}
	if snapshots == nil {
		snapshots = []domain.TransportSnapshot{}
	}
	return snapshots, nil
}

// SelectExclusive sets isSelected on the snapshot matching label and clears
// it on every sibling of the same plan in a single UpdateMany with an
// aggregation pipeline. One statement instead of clear-then-set, so an
// interleaving of two selection requests cannot leave zero rows selected.
func (r *mongoTransportRepository) SelectExclusive(ctx context.Context, planID primitive.ObjectID, label domain.TransportLabel) error {
	filter := bson.M{"planId": planID}
	pipeline := mongo.Pipeline{
		{{Key: "$set", Value: bson.M{
			"isSelected": bson.M{"$eq": bson.A{"$label", string(label)}},
		}}},
	}

	result, err := r.collection.UpdateMany(ctx, filter, pipeline)
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// DeleteByPlanID removes every snapshot belonging to the plan.
func (r *mongoTransportRepository) DeleteByPlanID(ctx context.Context, planID primitive.ObjectID) error {
	_, err := r.collection.DeleteMany(ctx, bson.M{"planId": planID})
	return err
}

// EnsureTransportIndexes creates necessary indexes. Call during startup.
func EnsureTransportIndexes(ctx context.Context, collection *mongo.Collection) {
	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "planId", Value: 1}},
			Options: options.Index(),
		},
	}
	_, _ = collection.Indexes().CreateMany(ctx, indexes)
}
