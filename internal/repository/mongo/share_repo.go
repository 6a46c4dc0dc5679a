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

const shareCollectionName = "shares"

// mongoShareRepository implements repository.ShareRepository
type mongoShareRepository struct {
	collection *mongo.Collection
}

// NewMongoShareRepository creates a new Share repository.
func NewMongoShareRepository(db *mongo.Database) repository.ShareRepository {
	return &mongoShareRepository{
		collection: db.Collection(shareCollectionName),
	}
}

// Create inserts a new share token record.
func (r *mongoShareRepository) Create(ctx context.Context, share *domain.Share) (primitive.ObjectID, error) {
	if share.TemplateID == primitive.NilObjectID || share.URLToken == "" {
		return primitive.NilObjectID, errors.New("share requires templateId and urlToken")
	}
	share.ID = primitive.NewObjectID()
	share.CreatedAt = time.Now().UTC()

	result, err := r.collection.InsertOne(ctx, share)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return primitive.NilObjectID, repository.ErrDuplicate
		}
		return primitive.NilObjectID, err
	}
	insertedID, ok := result.InsertedID.(primitive.ObjectID)
	if !ok {
		return primitive.NilObjectID, errors.New("failed to convert inserted share ID")
	}
	return insertedID, nil
}

// GetByTemplateID returns the existing share for a template, if any.
func (r *mongoShareRepository) GetByTemplateID(ctx context.Context, templateID primitive.ObjectID) (*domain.Share, error) {
	var share domain.Share
	err := r.collection.FindOne(ctx, bson.M{"templateId": templateID}).Decode(&share)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return &share, nil
}

// GetByToken resolves an opaque share token.
func (r *mongoShareRepository) GetByToken(ctx context.Context, token string) (*domain.Share, error) {
	var share domain.Share
	err := r.collection.FindOne(ctx, bson.M{"urlToken": token}).Decode(&share)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return &share, nil
}

// IncrementAccessCount bumps the read counter for a share link.
func (r *mongoShareRepository) IncrementAccessCount(ctx context.Context, id primitive.ObjectID) error {
	update := bson.M{"$inc": bson.M{"accessCount": 1}}
	result, err := r.collection.UpdateOne(ctx, bson.M{"_id": id}, update)
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// DeleteByTemplateID removes shares when their template goes away.
func (r *mongoShareRepository) DeleteByTemplateID(ctx context.Context, templateID primitive.ObjectID) error {
	_, err := r.collection.DeleteMany(ctx, bson.M{"templateId": templateID})
	return err
}

// EnsureShareIndexes creates necessary indexes. Call during startup.
func EnsureShareIndexes(ctx context.Context, collection *mongo.Collection) {
	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "urlToken", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys:    bson.D{{Key: "templateId", Value: 1}},
			Options: options.Index(),
		},
	}
	_, _ = collection.Indexes().CreateMany(ctx, indexes)
}
