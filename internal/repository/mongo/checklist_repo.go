// internal/repository/mongo/checklist_repo.go
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
	checklistCollectionName     = "checklists"
	checklistItemCollectionName = "checklist_items"
)

// mongoChecklistRepository implements repository.ChecklistRepository over the
// checklists and checklist_items collections.
type mongoChecklistRepository struct {
	checklists *mongo.Collection
	items      *mongo.Collection
}

// NewMongoChecklistRepository creates a new Checklist repository.
func NewMongoChecklistRepository(db *mongo.Database) repository.ChecklistRepository {
	return &mongoChecklistRepository{
		checklists: db.Collection(checklistCollectionName),
		items:      db.Collection(checklistItemCollectionName),
	}
}

// Create inserts a new checklist for a plan.
func (r *mongoChecklistRepository) Create(ctx context.Context, checklist *domain.Checklist) (primitive.ObjectID, error) {
	if checklist.PlanID == primitive.NilObjectID || checklist.Title == "" {
		return primitive.NilObjectID, errors.New("checklist requires planId and title")
	}
	if checklist.Status == "" {
		checklist.Status = domain.ChecklistDraft
	}
	checklist.ID = primitive.NewObjectID()
	now := time.Now().UTC()
	checklist.CreatedAt = now
	checklist.UpdatedAt = now

	result, err := r.checklists.InsertOne(ctx, checklist)
	if err != nil {
		return primitive.NilObjectID, err
	}
	insertedID, ok := result.InsertedID.(primitive.ObjectID)
	if !ok {
		return primitive.NilObjectID, errors.New("failed to convert inserted checklist ID")
	}
	return insertedID, nil
}

// GetByPlanID returns the checklist for the plan, if any.
func (r *mongoChecklistRepository) GetByPlanID(ctx context.Context, planID primitive.ObjectID) (*domain.Checklist, error) {
	var checklist domain.Checklist
	err := r.checklists.FindOne(ctx, bson.M{"planId": planID}).Decode(&checklist)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return &checklist, nil
}

// CreateItems bulk-inserts checklist items.
func (r *mongoChecklistRepository) CreateItems(ctx context.Context, items []domain.ChecklistItem) error {
	if len(items) == 0 {
		return nil
	}
	now := time.Now().UTC()
	docs := make([]interface{}, 0, len(items))
	for i := range items {
		if items[i].ChecklistID == primitive.NilObjectID {
			return errors.New("checklist item requires checklistId")
		}
		items[i].ID = primitive.NewObjectID()
		if items[i].Qty <= 0 {
			items[i].Qty = 1
		}
		items[i].CreatedAt = now
		items[i].UpdatedAt = now
		docs = append(docs, items[i])
	}
	_, err := r.items.InsertMany(ctx, docs)
	return err
}

// GetItems returns the live (non-deleted) items of a checklist in manual sort
// order.
func (r *mongoChecklistRepository) GetItems(ctx context.Context, checklistID primitive.ObjectID) ([]domain.ChecklistItem, error) {
	var items []domain.ChecklistItem
	filter := bson.M{"checklistId": checklistID, "deleted": false}
	findOptions := options.Find().SetSort(bson.D{{Key: "orderNo", Value: 1}, {Key: "_id", Value: 1}})

	cursor, err := r.items.Find(ctx, filter, findOptions)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	if err = cursor.All(ctx, &items); err != nil {
		return nil, err
	}
	if err = cursor.Err(); err != nil {
		return nil, err
	}
	if items == nil {
		items = []domain.ChecklistItem{}
	}
	return items, nil
}

// GetItemByID retrieves a single checklist item.
func (r *mongoChecklistRepository) GetItemByID(ctx context.Context, id primitive.ObjectID) (*domain.ChecklistItem, error) {
	var item domain.ChecklistItem
	err := r.items.FindOne(ctx, bson.M{"_id": id}).Decode(&item)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return &item, nil
}

// UpdateItem persists the mutable fields of a checklist item.
func (r *mongoChecklistRepository) UpdateItem(ctx context.Context, item *domain.ChecklistItem) error {
	filter := bson.M{"_id": item.ID}
	update := bson.M{
		"$set": bson.M{
			"qty":         item.Qty,
			"isEssential": item.IsEssential,
			"checked":     item.Checked,
			"orderNo":     item.OrderNo,
			"note":        item.Note,
			"updatedAt":   time.Now().UTC(),
		},
	}

	result, err := r.items.UpdateOne(ctx, filter, update)
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// SoftDeleteItem marks an item deleted without removing the row.
func (r *mongoChecklistRepository) SoftDeleteItem(ctx context.Context, id primitive.ObjectID) error {
	update := bson.M{"$set": bson.M{"deleted": true, "updatedAt": time.Now().UTC()}}
	result, err := r.items.UpdateOne(ctx, bson.M{"_id": id}, update)
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// DeleteByPlanID removes the checklist and its items when a plan is deleted.
func (r *mongoChecklistRepository) DeleteByPlanID(ctx context.Context, planID primitive.ObjectID) error {
	checklist, err := r.GetByPlanID(ctx, planID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil // nothing to cascade
		}
		return err
	}

	if _, err := r.items.DeleteMany(ctx, bson.M{"checklistId": checklist.ID}); err != nil {
		return err
	}
	_, err = r.checklists.DeleteMany(ctx, bson.M{"planId": planID})
	return err
}

// EnsureChecklistIndexes creates necessary indexes. Call during startup.
func EnsureChecklistIndexes(ctx context.Context, checklists, items *mongo.Collection) {
	_, _ = checklists.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "planId", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
	})
	_, _ = items.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "checklistId", Value: 1}, {Key: "orderNo", Value: 1}},
			Options: options.Index(),
		},
	})
}
