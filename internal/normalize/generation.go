package normalize

import (
	"encoding/json"
	"errors"
	"sort"
	"strings"

	"okuda/tabi-planner/internal/domain"
)

// ErrEmptyGeneration signals that the generator returned nothing usable.
// The caller maps this to its fatal generation-failed error.
var ErrEmptyGeneration = errors.New("generator response is empty or not an object")

// Generation is the normalized result of one itinerary-generator call,
// ready for persistence.
type Generation struct {
	Title     string
	Options   []TransportOption
	Itinerary []domain.ScheduleDay
}

// TransportOption is one normalized transport proposal.
type TransportOption struct {
	Label         domain.TransportLabel
	Method        string
	Cost          *int
	Duration      *int
	TransitCount  *int
	DepartureTime string
	ArrivalTime   string
}

// labelAliases maps the label spellings the generator has produced (the
// prompt asks in Japanese) onto the canonical labels.
var labelAliases = map[string]domain.TransportLabel{
	"price-priority": domain.LabelPricePriority,
	"価格重視":           domain.LabelPricePriority,
	"speed-priority": domain.LabelSpeedPriority,
	"速度重視":           domain.LabelSpeedPriority,
	"recommended":    domain.LabelRecommended,
	"おすすめ":           domain.LabelRecommended,
	"car":            domain.LabelCar,
	"車":              domain.LabelCar,
	"車利用":            domain.LabelCar,
}

func canonicalLabel(key string) domain.TransportLabel {
	if label, ok := labelAliases[strings.TrimSpace(key)]; ok {
		return label
	}
	return domain.TransportLabel(strings.TrimSpace(key))
}

// labelRank orders canonical labels first (prompt order), unknown labels last.
func labelRank(label domain.TransportLabel) int {
	for i, known := range domain.KnownTransportLabels {
		if label == known {
			return i
		}
	}
	return len(domain.KnownTransportLabels)
}

// ParseGeneration normalizes the raw itinerary-generator payload. An empty
// body, non-object payload or unparseable JSON yields ErrEmptyGeneration;
// missing lists inside an otherwise valid payload default to empty.
func ParseGeneration(raw []byte) (*Generation, error) {
	if len(strings.TrimSpace(string(raw))) == 0 {
		return nil, ErrEmptyGeneration
	}

	var payload map[string]interface{}
	if err := json.Unmarshal(raw, &payload); err != nil {
		return nil, ErrEmptyGeneration
	}
	if payload == nil {
		return nil, ErrEmptyGeneration
	}

	gen := &Generation{
		Title:     String(pick(payload, "plan_title", "planTitle", "title")),
		Options:   []TransportOption{},
		Itinerary: []domain.ScheduleDay{},
	}

	if rawOptions, ok := pick(payload, "transport_options", "transportOptions").(map[string]interface{}); ok {
		for key, value := range rawOptions {
			entry, ok := value.(map[string]interface{})
			if !ok {
				continue
			}
			gen.Options = append(gen.Options, TransportOption{
				Label:         canonicalLabel(key),
				Method:        String(pick(entry, "method")),
				Cost:          Int(pick(entry, "estimated_cost", "estimatedCost", "cost")),
				Duration:      Int(pick(entry, "estimated_time", "estimatedTime", "duration")),
				TransitCount:  Int(pick(entry, "transit_count", "transitCount")),
				DepartureTime: String(pick(entry, "departure_time", "departureTime")),
				ArrivalTime:   String(pick(entry, "arrival_time", "arrivalTime")),
			})
		}
	}
	// Map iteration order is random; keep the prompt's label order.
	sort.SliceStable(gen.Options, func(i, j int) bool {
		ri, rj := labelRank(gen.Options[i].Label), labelRank(gen.Options[j].Label)
		if ri != rj {
			return ri < rj
		}
		return gen.Options[i].Label < gen.Options[j].Label
	})

	if rawDays, ok := pick(payload, "itinerary").([]interface{}); ok {
		for _, rawDay := range rawDays {
			dayObj, ok := rawDay.(map[string]interface{})
			if !ok {
				continue
			}
			day := domain.ScheduleDay{Details: []domain.ScheduleEntry{}}
			if n := Int(pick(dayObj, "day")); n != nil {
				day.Day = *n
			}
			if rawDetails, ok := pick(dayObj, "details").([]interface{}); ok {
				for _, rawDetail := range rawDetails {
					detailObj, ok := rawDetail.(map[string]interface{})
					if !ok {
						continue
					}
					day.Details = append(day.Details, domain.ScheduleEntry{
						Time:           String(pick(detailObj, "time")),
						Activity:       String(pick(detailObj, "activity")),
						TransportNotes: String(pick(detailObj, "transport_notes", "transportNotes")),
					})
				}
			}
			gen.Itinerary = append(gen.Itinerary, day)
		}
	}

	return gen, nil
}
