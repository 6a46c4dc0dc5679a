package domain

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ScheduleEntry is a single time-stamped activity within a day.
type ScheduleEntry struct {
	Time           string `bson:"time" json:"time"` // e.g. "09:00"
	Activity       string `bson:"activity" json:"activity"`
	TransportNotes string `bson:"transportNotes,omitempty" json:"transportNotes,omitempty"`
}

// ScheduleDay is the ordered activity list for one day of the trip.
type ScheduleDay struct {
	Day     int             `bson:"day" json:"day"`
	Details []ScheduleEntry `bson:"details" json:"details"`
}

// Schedule is the generated day-by-day itinerary for a Plan. Multiple rows
// are possible but only the first is ever read.
type Schedule struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	PlanID    primitive.ObjectID `bson:"planId" json:"planId"`
	Days      []ScheduleDay      `bson:"days" json:"days"`
	CreatedAt time.Time          `bson:"createdAt" json:"createdAt"`
}
