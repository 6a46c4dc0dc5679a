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

const scheduleCollectionName = "schedules"

// mongoScheduleRepository implements repository.ScheduleRepository
type mongoScheduleRepository struct {
	collection *mongo.Collection
}

// NewMongoScheduleRepository creates a new Schedule repository.
func NewMongoScheduleRepository(db *mongo.Database) repository.ScheduleRepository {
	return &mongoScheduleRepository{
		collection: db.Collection(scheduleCollectionName),
	}
}

// Create inserts the day-by-day itinerary for a plan.
func (r *mongoScheduleRepository) Create(ctx context.Context, schedule *domain.Schedule) (primitive.ObjectID, error) {
	if schedule.PlanID == primitive.NilObjectID {
		return primitive.NilObjectID, errors.New("schedule requires planId")
	}
	schedule.ID = primitive.NewObjectID()
	schedule.CreatedAt = time.Now().UTC()

	result, err := r.collection.InsertOne(ctx, schedule)
	if err != nil {
		return primitive.NilObjectID, err
	}
	insertedID, ok := result.InsertedID.(primitive.ObjectID)
	if !ok {
		return primitive.NilObjectID, errors.New("failed to convert inserted schedule ID")
	}
	return insertedID, nil
}

// GetByPlanID returns the oldest schedule for the plan. More than one row can
// exist historically; only the first is read.
func (r *mongoScheduleRepository) GetByPlanID(ctx context.Context, planID primitive.ObjectID) (*domain.Schedule, error) {
	var schedule domain.Schedule
	filter := bson.M{"planId": planID}
	findOptions := options.FindOne().SetSort(bson.D{{Key: "createdAt", Value: 1}})

	err := r.collection.FindOne(ctx, filter, findOptions).Decode(&schedule)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return &schedule, nil
}

// DeleteByPlanID removes every schedule belonging to the plan.
func (r *mongoScheduleRepository) DeleteByPlanID(ctx context.Context, planID primitive.ObjectID) error {
	_, err := r.collection.DeleteMany(ctx, bson.M{"planId": planID})
	return err
}

// EnsureScheduleIndexes creates necessary indexes. Call during startup.
func EnsureScheduleIndexes(ctx context.Context, collection *mongo.Collection) {
	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "planId", Value: 1}},
			Options: options.Index(),
		},
	}
	_, _ = collection.Indexes().CreateMany(ctx, indexes)
}
