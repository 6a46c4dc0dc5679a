package lodging

import (
	"context"
	"log"
	"time"

	"okuda/tabi-planner/internal/domain"
)

// Default timeout for one search round trip.
const DefaultTimeout = 15 * time.Second

// FallbackKeyword is retried once when the requested keyword yields nothing.
const FallbackKeyword = "Tokyo"

// Searcher defines the interface for the external lodging search.
// An empty result is not an error; an error means the call itself failed.
type Searcher interface {
	Search(ctx context.Context, keyword string) ([]domain.LodgingCandidate, error)
}

// SearchWithFallback asks for the requested keyword, and on an empty or
// failed result retries once with the fallback keyword. Failure after the
// retry degrades to zero candidates; lodging is never fatal to plan creation.
func SearchWithFallback(ctx context.Context, s Searcher, keyword string) []domain.LodgingCandidate {
	candidates, err := s.Search(ctx, keyword)
	if err != nil {
		log.Printf("WARN: lodging search for %q failed: %v", keyword, err)
	}
	if len(candidates) > 0 {
		return candidates
	}

	candidates, err = s.Search(ctx, FallbackKeyword)
	if err != nil {
		log.Printf("WARN: lodging search fallback %q failed: %v", FallbackKeyword, err)
		return []domain.LodgingCandidate{}
	}
	if candidates == nil {
		candidates = []domain.LodgingCandidate{}
	}
	return candidates
}
