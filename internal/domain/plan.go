// internal/domain/plan.go
package domain

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// DefaultPlanTitle is used when the itinerary generator did not supply one.
const DefaultPlanTitle = "Untitled Plan"

// Plan is a single trip request made by a user, plus the selection state the
// user builds up while walking through the transit/lodging/schedule flow.
// Transport snapshots and schedules live in their own collections; lodging
// candidates are embedded here as a typed structure.
type Plan struct {
	ID             primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	UserID         primitive.ObjectID `bson:"userId" json:"userId"`
	Title          string             `bson:"title" json:"title"`
	Destination    string             `bson:"destination" json:"destination"`
	Departure      string             `bson:"departure" json:"departure"`
	StartDate      time.Time          `bson:"startDate" json:"startDate"`
	Days           int                `bson:"days" json:"days"`
	CompanionCount int                `bson:"companionCount" json:"companionCount"`
	Purpose        string             `bson:"purpose,omitempty" json:"purpose,omitempty"`
	Options        []string           `bson:"options,omitempty" json:"options,omitempty"` // style tags, e.g. "onsen", "gourmet"

	Lodging LodgingSelection `bson:"lodging" json:"lodging"`

	CreatedAt time.Time `bson:"createdAt" json:"createdAt"`
	UpdatedAt time.Time `bson:"updatedAt" json:"updatedAt"`
}

// LodgingCandidate is a point-in-time lodging option captured from the
// external hotel search. Numeric fields are pointers because the upstream
// payload regularly omits them or sends them as unparseable strings.
type LodgingCandidate struct {
	ID       string `bson:"id" json:"id"`
	Name     string `bson:"name" json:"name"`
	URL      string `bson:"url,omitempty" json:"url,omitempty"`
	ImageURL string `bson:"imageUrl,omitempty" json:"imageUrl,omitempty"`
	MinPrice *int   `bson:"minPrice,omitempty" json:"minPrice,omitempty"`
	Address  string `bson:"address,omitempty" json:"address,omitempty"`
	Review   *float64 `bson:"review,omitempty" json:"review,omitempty"`
}

// LodgingSelection holds the candidate list and the user's pick.
// SelectedID is only meaningful when it references an existing candidate;
// use ValidSelectedID instead of reading the field directly.
type LodgingSelection struct {
	Candidates []LodgingCandidate `bson:"candidates" json:"candidates"`
	SelectedID *string            `bson:"selectedId,omitempty" json:"selectedId,omitempty"`
}

// CandidateByID returns the candidate with the given id, or nil.
func (l LodgingSelection) CandidateByID(id string) *LodgingCandidate {
	for i := range l.Candidates {
		if l.Candidates[i].ID == id {
			return &l.Candidates[i]
		}
	}
	return nil
}

// ValidSelectedID returns the selected candidate id only when it references
// an existing candidate. A dangling pointer is treated as no selection.
func (l LodgingSelection) ValidSelectedID() *string {
	if l.SelectedID == nil {
		return nil
	}
	if l.CandidateByID(*l.SelectedID) == nil {
		return nil
	}
	return l.SelectedID
}
