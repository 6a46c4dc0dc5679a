package generator

import (
	"context"
	"time"
)

// Default timeout for one generation round trip. Generation is a blocking
// inline call within a request; a timeout reads as an empty response.
const DefaultTimeout = 30 * time.Second

// PlanRequest carries the trip parameters the generator is prompted with.
type PlanRequest struct {
	Destination string
	Departure   string
	Days        int
	Purpose     string
	StyleTags   []string
}

// ItineraryGenerator defines the interface for the external generative model.
// Both methods return the raw JSON document produced by the model; shape
// coercion happens in the normalize package, not here.
type ItineraryGenerator interface {
	// GeneratePlan asks for a plan title, four transport proposals and a
	// day-by-day itinerary.
	GeneratePlan(ctx context.Context, req PlanRequest) ([]byte, error)

	// GenerateChecklist asks for a packing list derived from a plan summary.
	GenerateChecklist(ctx context.Context, planSummary string) ([]byte, error)
}
