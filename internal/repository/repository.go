package repository

import (
	"context"

	"okuda/tabi-planner/internal/domain"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Error constants for repository layer
var (
	ErrNotFound     = RepositoryError("not found")
	ErrDuplicate    = RepositoryError("duplicate key")
	ErrUpdateFailed = RepositoryError("update failed")
)

// RepositoryError helps distinguish repository errors
type RepositoryError string

func (e RepositoryError) Error() string {
	return string(e)
}

// TxRunner executes a function inside a single logical transaction. The
// context passed to fn must be used for every repository call made within it
// so the writes commit or roll back together.
type TxRunner interface {
	WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

// UserRepository defines the interface for interacting with user data.
type UserRepository interface {
	Create(ctx context.Context, user *domain.User) (primitive.ObjectID, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	GetByID(ctx context.Context, id primitive.ObjectID) (*domain.User, error)
}

// PlanRepository defines the interface for interacting with plan data.
type PlanRepository interface {
	Create(ctx context.Context, plan *domain.Plan) (primitive.ObjectID, error)
	GetByID(ctx context.Context, id primitive.ObjectID) (*domain.Plan, error)
	// GetByOwner returns the plan only when it belongs to userID.
	GetByOwner(ctx context.Context, id, userID primitive.ObjectID) (*domain.Plan, error)
	GetByUserID(ctx context.Context, userID primitive.ObjectID) ([]domain.Plan, error)
	// SetLodgingSelection updates the embedded selected candidate pointer.
	SetLodgingSelection(ctx context.Context, id primitive.ObjectID, candidateID string) error
	Delete(ctx context.Context, id primitive.ObjectID) error
}

// TransportRepository defines the interface for transport snapshot data.
type TransportRepository interface {
	CreateMany(ctx context.Context, snapshots []domain.TransportSnapshot) error
	GetByPlanID(ctx context.Context, planID primitive.ObjectID) ([]domain.TransportSnapshot, error)
	// SelectExclusive marks exactly the snapshot with the given label as
	// selected and clears every sibling in the same statement, so two
	// concurrent selections can never leave zero or two rows selected.
	SelectExclusive(ctx context.Context, planID primitive.ObjectID, label domain.TransportLabel) error
	DeleteByPlanID(ctx context.Context, planID primitive.ObjectID) error
}

// ScheduleRepository defines the interface for schedule data.
type ScheduleRepository interface {
	Create(ctx context.Context, schedule *domain.Schedule) (primitive.ObjectID, error)
	// GetByPlanID returns the first schedule for the plan (only the first is read).
	GetByPlanID(ctx context.Context, planID primitive.ObjectID) (*domain.Schedule, error)
	DeleteByPlanID(ctx context.Context, planID primitive.ObjectID) error
}

// ChecklistRepository covers the checklist aggregate and its items.
type ChecklistRepository interface {
	Create(ctx context.Context, checklist *domain.Checklist) (primitive.ObjectID, error)
	GetByPlanID(ctx context.Context, planID primitive.ObjectID) (*domain.Checklist, error)
	// CreateItems bulk-inserts entries, assigning generated ids in place.
	CreateItems(ctx context.Context, items []domain.ChecklistItem) error
	GetItems(ctx context.Context, checklistID primitive.ObjectID) ([]domain.ChecklistItem, error)
	GetItemByID(ctx context.Context, id primitive.ObjectID) (*domain.ChecklistItem, error)
	UpdateItem(ctx context.Context, item *domain.ChecklistItem) error
	SoftDeleteItem(ctx context.Context, id primitive.ObjectID) error
	DeleteByPlanID(ctx context.Context, planID primitive.ObjectID) error
}

// MasterDataRepository holds the shared item/category catalog. Both lookups
// are get-or-create by name; the unique index on name is the backstop
// against duplicate creation under concurrent requests.
type MasterDataRepository interface {
	GetOrCreateCategory(ctx context.Context, name string) (*domain.Category, error)
	GetOrCreateItem(ctx context.Context, name string, categoryID *primitive.ObjectID) (*domain.Item, error)
	GetItemsByIDs(ctx context.Context, ids []primitive.ObjectID) ([]domain.Item, error)
	GetCategoriesByIDs(ctx context.Context, ids []primitive.ObjectID) ([]domain.Category, error)
}

// TemplateRepository defines the interface for published templates.
type TemplateRepository interface {
	// Upsert creates or replaces the template keyed by planId + userId and
	// returns the stored document.
	Upsert(ctx context.Context, template *domain.Template) (*domain.Template, error)
	Create(ctx context.Context, template *domain.Template) (primitive.ObjectID, error)
	GetByID(ctx context.Context, id primitive.ObjectID) (*domain.Template, error)
	GetByPlanID(ctx context.Context, planID primitive.ObjectID) (*domain.Template, error)
	SetCoverObjectKey(ctx context.Context, id primitive.ObjectID, objectKey string) error
	DeleteByPlanID(ctx context.Context, planID primitive.ObjectID) error
}

// ShareRepository defines the interface for share tokens.
type ShareRepository interface {
	Create(ctx context.Context, share *domain.Share) (primitive.ObjectID, error)
	GetByTemplateID(ctx context.Context, templateID primitive.ObjectID) (*domain.Share, error)
	GetByToken(ctx context.Context, token string) (*domain.Share, error)
	IncrementAccessCount(ctx context.Context, id primitive.ObjectID) error
	DeleteByTemplateID(ctx context.Context, templateID primitive.ObjectID) error
}
