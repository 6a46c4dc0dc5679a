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

const (
	itemCollectionName     = "items"
	categoryCollectionName = "categories"
)

// mongoMasterDataRepository implements repository.MasterDataRepository over
// the shared items and categories collections.
type mongoMasterDataRepository struct {
	items      *mongo.Collection
	categories *mongo.Collection
}

// NewMongoMasterDataRepository creates a new master data repository.
func NewMongoMasterDataRepository(db *mongo.Database) repository.MasterDataRepository {
	return &mongoMasterDataRepository{
		items:      db.Collection(itemCollectionName),
		categories: db.Collection(categoryCollectionName),
	}
}

// GetOrCreateCategory finds a category by name or creates it. A concurrent
// create racing past the lookup hits the unique index; on duplicate-key the
// winner's row is re-read.
func (r *mongoMasterDataRepository) GetOrCreateCategory(ctx context.Context, name string) (*domain.Category, error) {
	if name == "" {
		return nil, errors.New("category name is required")
	}

	var category domain.Category
	err := r.categories.FindOne(ctx, bson.M{"name": name}).Decode(&category)
	if err == nil {
		return &category, nil
	}
	if !errors.Is(err, mongo.ErrNoDocuments) {
		return nil, err
	}

	now := time.Now().UTC()
	category = domain.Category{
		ID:        primitive.NewObjectID(),
		Name:      name,
		CreatedAt: now,
		UpdatedAt: now,
	}
	_, err = r.categories.InsertOne(ctx, category)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			// Lost the race; the row exists now.
			var existing domain.Category
			if ferr := r.categories.FindOne(ctx, bson.M{"name": name}).Decode(&existing); ferr != nil {
				return nil, ferr
			}
			return &existing, nil
		}
		return nil, err
	}
	return &category, nil
}

// GetOrCreateItem finds a master item by name or creates it.
func (r *mongoMasterDataRepository) GetOrCreateItem(ctx context.Context, name string, categoryID *primitive.ObjectID) (*domain.Item, error) {
	if name == "" {
		return nil, errors.New("item name is required")
	}

	var item domain.Item
	err := r.items.FindOne(ctx, bson.M{"name": name}).Decode(&item)
	if err == nil {
		return &item, nil
	}
	if !errors.Is(err, mongo.ErrNoDocuments) {
		return nil, err
	}

	now := time.Now().UTC()
	item = domain.Item{
		ID:         primitive.NewObjectID(),
		Name:       name,
		CategoryID: categoryID,
		DefaultQty: 1,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	_, err = r.items.InsertOne(ctx, item)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			var existing domain.Item
			if ferr := r.items.FindOne(ctx, bson.M{"name": name}).Decode(&existing); ferr != nil {
				return nil, ferr
			}
			return &existing, nil
		}
		return nil, err
	}
	return &item, nil
}

// GetItemsByIDs fetches master items for a set of ids.
func (r *mongoMasterDataRepository) GetItemsByIDs(ctx context.Context, ids []primitive.ObjectID) ([]domain.Item, error) {
	if len(ids) == 0 {
		return []domain.Item{}, nil
	}
	var items []domain.Item
	cursor, err := r.items.Find(ctx, bson.M{"_id": bson.M{"$in": ids}})
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	if err = cursor.All(ctx, &items); err != nil {
		return nil, err
	}
	if items == nil {
		items = []domain.Item{}
	}
	return items, nil
}

// GetCategoriesByIDs fetches categories for a set of ids.
func (r *mongoMasterDataRepository) GetCategoriesByIDs(ctx context.Context, ids []primitive.ObjectID) ([]domain.Category, error) {
	if len(ids) == 0 {
		return []domain.Category{}, nil
	}
	var categories []domain.Category
	cursor, err := r.categories.Find(ctx, bson.M{"_id": bson.M{"$in": ids}})
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	if err = cursor.All(ctx, &categories); err != nil {
		return nil, err
	}
	if categories == nil {
		categories = []domain.Category{}
	}
	return categories, nil
}

// EnsureMasterDataIndexes creates the unique name indexes that back the
// get-or-create semantics. Call during startup.
func EnsureMasterDataIndexes(ctx context.Context, items, categories *mongo.Collection) {
	unique := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "name", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
	}
	_, _ = items.Indexes().CreateMany(ctx, unique)
	_, _ = categories.Indexes().CreateMany(ctx, unique)
}
