package domain

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// TransportLabel tags a transport proposal with the angle it optimizes for.
type TransportLabel string

const (
	LabelPricePriority TransportLabel = "price-priority"
	LabelSpeedPriority TransportLabel = "speed-priority"
	LabelRecommended   TransportLabel = "recommended"
	LabelCar           TransportLabel = "car"
)

// KnownTransportLabels lists the labels the generator is prompted for, in
// display order.
var KnownTransportLabels = []TransportLabel{
	LabelPricePriority,
	LabelSpeedPriority,
	LabelRecommended,
	LabelCar,
}

// TransportSnapshot is one proposed transportation option for a Plan,
// captured from the generator response. At most one snapshot per plan has
// IsSelected set; the repository enforces this with a single conditional
// update rather than clear-then-set.
type TransportSnapshot struct {
	ID            primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	PlanID        primitive.ObjectID `bson:"planId" json:"planId"`
	Label         TransportLabel     `bson:"label" json:"label"`
	Method        string             `bson:"method" json:"method"`
	Cost          *int               `bson:"cost,omitempty" json:"cost,omitempty"`         // yen
	Duration      *int               `bson:"duration,omitempty" json:"duration,omitempty"` // minutes
	TransitCount  *int               `bson:"transitCount,omitempty" json:"transitCount,omitempty"`
	DepartureTime string             `bson:"departureTime,omitempty" json:"departureTime,omitempty"`
	ArrivalTime   string             `bson:"arrivalTime,omitempty" json:"arrivalTime,omitempty"`
	IsSelected    bool               `bson:"isSelected" json:"isSelected"`
	CreatedAt     time.Time          `bson:"createdAt" json:"createdAt"`
}
