package domain

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// PublishStatus controls visibility of a published Template.
type PublishStatus string

const (
	PublishPrivate PublishStatus = "private"
	PublishPublic  PublishStatus = "public"
)

// TemplateDayOutline is a condensed day entry for the public summary view.
type TemplateDayOutline struct {
	Day        int      `bson:"day" json:"day"`
	Highlights []string `bson:"highlights" json:"highlights"`
}

// Template is the published, shareable snapshot of a Plan's public-facing
// summary. It is owned by the Plan and cascade-deleted with it; upserts are
// keyed by plan + owner so re-publishing updates in place.
type Template struct {
	ID             primitive.ObjectID   `bson:"_id,omitempty" json:"id"`
	PlanID         primitive.ObjectID   `bson:"planId" json:"planId"`
	UserID         primitive.ObjectID   `bson:"userId" json:"userId"`
	Title          string               `bson:"title" json:"title"`
	Destination    string               `bson:"destination" json:"destination"`
	Days           int                  `bson:"days" json:"days"`
	Outline        []TemplateDayOutline `bson:"outline" json:"outline"`
	ChecklistNames []string             `bson:"checklistNames,omitempty" json:"checklistNames,omitempty"`
	PublishStatus  PublishStatus        `bson:"publishStatus" json:"publishStatus"`
	CoverObjectKey string               `bson:"coverObjectKey,omitempty" json:"-"`
	CreatedAt      time.Time            `bson:"createdAt" json:"createdAt"`
	UpdatedAt      time.Time            `bson:"updatedAt" json:"updatedAt"`
}

// Share grants read access to a Template's public view through an opaque
// UUID token. Re-publishing reuses the existing token. ExpiresAt exists but
// no expiry is enforced by default.
type Share struct {
	ID           primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	TemplateID   primitive.ObjectID `bson:"templateId" json:"templateId"`
	IssuerUserID primitive.ObjectID `bson:"issuerUserId" json:"issuerUserId"`
	URLToken     string             `bson:"urlToken" json:"urlToken"` // unique
	AccessCount  int64              `bson:"accessCount" json:"accessCount"`
	ExpiresAt    *time.Time         `bson:"expiresAt,omitempty" json:"expiresAt,omitempty"`
	CreatedAt    time.Time          `bson:"createdAt" json:"createdAt"`
}
