// internal/domain/stage.go
package domain

import "go.mongodb.org/mongo-driver/bson/primitive"

// Stage is the user's position in the plan-building flow. It is derived
// entirely from persisted selection pointers; there is no stored state field,
// and the flow is not strictly forward-only (re-selecting transport after
// building a checklist is allowed).
type Stage string

const (
	StageAwaitingTransportChoice Stage = "awaiting_transport_choice"
	StageAwaitingLodgingChoice   Stage = "awaiting_lodging_choice"
	StageScheduleReady           Stage = "schedule_ready"
	StageChecklistReady          Stage = "checklist_ready"
	StagePublished               Stage = "published"
)

// PlanSession identifies the plan a request is acting on and the user acting
// on it. Handlers build it from the auth token plus the path parameter and
// pass it explicitly; there is no request-global "current plan".
type PlanSession struct {
	PlanID primitive.ObjectID
	UserID primitive.ObjectID
}

// StageOf derives the current stage from what has been persisted so far.
func StageOf(plan *Plan, transports []TransportSnapshot, hasChecklist, isPublished bool) Stage {
	if isPublished {
		return StagePublished
	}
	if hasChecklist {
		return StageChecklistReady
	}
	if plan.Lodging.ValidSelectedID() != nil {
		return StageScheduleReady
	}
	for _, t := range transports {
		if t.IsSelected {
			return StageAwaitingLodgingChoice
		}
	}
	return StageAwaitingTransportChoice
}
