// internal/domain/checklist.go
package domain

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ChecklistStatus tracks the packing list lifecycle.
type ChecklistStatus string

const (
	ChecklistDraft ChecklistStatus = "draft"
	ChecklistFinal ChecklistStatus = "final"
)

// Checklist is the packing-list aggregate for a Plan. One checklist per plan;
// generation is idempotent and fails if one already exists.
type Checklist struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	PlanID    primitive.ObjectID `bson:"planId" json:"planId"`
	Title     string             `bson:"title" json:"title"`
	Status    ChecklistStatus    `bson:"status" json:"status"`
	Note      string             `bson:"note,omitempty" json:"note,omitempty"`
	CreatedAt time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt time.Time          `bson:"updatedAt" json:"updatedAt"`
}

// ChecklistItem links a Checklist to a master Item with per-trip state.
// Soft-deleted entries keep their row with Deleted set.
type ChecklistItem struct {
	ID          primitive.ObjectID  `bson:"_id,omitempty" json:"id"`
	ChecklistID primitive.ObjectID  `bson:"checklistId" json:"checklistId"`
	ItemID      primitive.ObjectID  `bson:"itemId" json:"itemId"`
	CategoryID  *primitive.ObjectID `bson:"categoryId,omitempty" json:"categoryId,omitempty"`
	Qty         int                 `bson:"qty" json:"qty"`
	IsEssential bool                `bson:"isEssential" json:"isEssential"`
	Checked     bool                `bson:"checked" json:"checked"`
	OrderNo     int                 `bson:"orderNo" json:"orderNo"`
	Note        string              `bson:"note,omitempty" json:"note,omitempty"`
	Deleted     bool                `bson:"deleted" json:"deleted"`
	CreatedAt   time.Time           `bson:"createdAt" json:"createdAt"`
	UpdatedAt   time.Time           `bson:"updatedAt" json:"updatedAt"`
}

// Item is shared master data, deduplicated by name across all users.
type Item struct {
	ID         primitive.ObjectID  `bson:"_id,omitempty" json:"id"`
	Name       string              `bson:"name" json:"name"` // unique
	CategoryID *primitive.ObjectID `bson:"categoryId,omitempty" json:"categoryId,omitempty"`
	DefaultQty int                 `bson:"defaultQty" json:"defaultQty"`
	CreatedAt  time.Time           `bson:"createdAt" json:"createdAt"`
	UpdatedAt  time.Time           `bson:"updatedAt" json:"updatedAt"`
}

// Category groups master items, e.g. "valuables", "clothing".
type Category struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Name      string             `bson:"name" json:"name"` // unique
	SortOrder int                `bson:"sortOrder" json:"sortOrder"`
	CreatedAt time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt time.Time          `bson:"updatedAt" json:"updatedAt"`
}
