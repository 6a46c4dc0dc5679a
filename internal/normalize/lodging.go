package normalize

import (
	"encoding/json"

	"okuda/tabi-planner/internal/domain"
)

// ParseLodgingCandidates normalizes a lodging-search payload. The list key
// has shipped in two casings ("Hotels" and "hotels"); a payload may also be
// the bare list. Candidates without an id or name are skipped; an empty or
// unparseable payload is simply zero candidates, never an error.
func ParseLodgingCandidates(raw []byte) []domain.LodgingCandidate {
	candidates := []domain.LodgingCandidate{}
	if len(raw) == 0 {
		return candidates
	}

	var list []interface{}

	var wrapped map[string]interface{}
	if err := json.Unmarshal(raw, &wrapped); err == nil {
		if l, ok := pick(wrapped, "Hotels", "hotels").([]interface{}); ok {
			list = l
		}
	} else if err := json.Unmarshal(raw, &list); err != nil {
		return candidates
	}

	for _, rawEntry := range list {
		entry, ok := rawEntry.(map[string]interface{})
		if !ok {
			continue
		}
		candidate := domain.LodgingCandidate{
			ID:       String(pick(entry, "id", "hotelNo", "hotel_no")),
			Name:     String(pick(entry, "name", "hotelName", "hotel_name")),
			URL:      String(pick(entry, "booking_url", "url", "hotelInformationUrl")),
			ImageURL: String(pick(entry, "image_url", "imageUrl", "hotelImageUrl")),
			MinPrice: Int(pick(entry, "min_price", "price", "hotelMinCharge")),
			Address:  String(pick(entry, "address", "address1")),
			Review:   Float(pick(entry, "review_score", "review", "reviewAverage")),
		}
		if candidate.ID == "" || candidate.Name == "" {
			continue
		}
		candidates = append(candidates, candidate)
	}

	return candidates
}
