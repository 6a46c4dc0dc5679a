package normalize

import (
	"errors"
	"testing"

	"okuda/tabi-planner/internal/domain"
)

func TestInt_Coercions(t *testing.T) {
	cases := []struct {
		name string
		in   interface{}
		want *int
	}{
		{"float", float64(8000), intPtr(8000)},
		{"numeric string", "25000", intPtr(25000)},
		{"float string", "180.0", intPtr(180)},
		{"padded string", " 12000 ", intPtr(12000)},
		{"none word", "None", nil},
		{"null word", "null", nil},
		{"empty string", "", nil},
		{"nil", nil, nil},
		{"garbage", "cheap-ish", nil},
		{"bool", true, nil},
	}
	for _, tc := range cases {
		got := Int(tc.in)
		if (got == nil) != (tc.want == nil) {
			t.Fatalf("%s: Int(%v) = %v, want %v", tc.name, tc.in, got, tc.want)
		}
		if got != nil && *got != *tc.want {
			t.Fatalf("%s: Int(%v) = %d, want %d", tc.name, tc.in, *got, *tc.want)
		}
	}
}

func TestParseGeneration_FullPayload(t *testing.T) {
	raw := []byte(`{
		"plan_title": "Osaka Two-Day Food Run",
		"transport_options": {
			"car": {"method": "own car via expressway", "estimated_cost": 12000, "estimated_time": 420},
			"price-priority": {"method": "night bus + walk", "estimated_cost": "8000", "estimated_time": 480, "transit_count": 1, "departure_time": "07:00", "arrival_time": "14:00"},
			"speed-priority": {"method": "shinkansen", "estimated_cost": 25000, "estimated_time": 180, "transit_count": 3},
			"recommended": {"method": "LCC + train", "estimated_cost": null, "estimated_time": "None"}
		},
		"itinerary": [
			{"day": 1, "details": [
				{"time": "09:00", "activity": "hotel check-in", "transport_notes": "train from airport"},
				{"time": "12:00", "activity": "lunch at Dotonbori", "transport_notes": "walk 5 min"}
			]},
			{"day": 2, "details": [{"time": "10:00", "activity": "Osaka Castle"}]}
		]
	}`)

	gen, err := ParseGeneration(raw)
	if err != nil {
		t.Fatalf("ParseGeneration error: %v", err)
	}
	if gen.Title != "Osaka Two-Day Food Run" {
		t.Fatalf("title = %q", gen.Title)
	}
	if len(gen.Options) != 4 {
		t.Fatalf("options = %d, want 4", len(gen.Options))
	}
	// Canonical label order regardless of map iteration order
	wantOrder := []domain.TransportLabel{
		domain.LabelPricePriority,
		domain.LabelSpeedPriority,
		domain.LabelRecommended,
		domain.LabelCar,
	}
	for i, want := range wantOrder {
		if gen.Options[i].Label != want {
			t.Fatalf("option %d label = %s, want %s", i, gen.Options[i].Label, want)
		}
	}
	if gen.Options[0].Cost == nil || *gen.Options[0].Cost != 8000 {
		t.Fatalf("price-priority cost not coerced from string: %v", gen.Options[0].Cost)
	}
	if gen.Options[2].Cost != nil || gen.Options[2].Duration != nil {
		t.Fatalf("recommended null/None fields should be nil")
	}
	if len(gen.Itinerary) != 2 || len(gen.Itinerary[0].Details) != 2 {
		t.Fatalf("itinerary shape wrong: %+v", gen.Itinerary)
	}
	if gen.Itinerary[0].Details[1].TransportNotes != "walk 5 min" {
		t.Fatalf("transport notes = %q", gen.Itinerary[0].Details[1].TransportNotes)
	}
}

func TestParseGeneration_JapaneseLabels(t *testing.T) {
	raw := []byte(`{"plan_title":"t","transport_options":{"価格重視":{"method":"bus"},"車":{"method":"car"}},"itinerary":[]}`)
	gen, err := ParseGeneration(raw)
	if err != nil {
		t.Fatalf("ParseGeneration error: %v", err)
	}
	if len(gen.Options) != 2 {
		t.Fatalf("options = %d, want 2", len(gen.Options))
	}
	if gen.Options[0].Label != domain.LabelPricePriority || gen.Options[1].Label != domain.LabelCar {
		t.Fatalf("labels not canonicalized: %s, %s", gen.Options[0].Label, gen.Options[1].Label)
	}
}

func TestParseGeneration_EmptyBody(t *testing.T) {
	for _, raw := range [][]byte{nil, []byte(""), []byte("  "), []byte("not json"), []byte("null")} {
		if _, err := ParseGeneration(raw); !errors.Is(err, ErrEmptyGeneration) {
			t.Fatalf("ParseGeneration(%q) err = %v, want ErrEmptyGeneration", raw, err)
		}
	}
}

func TestParseGeneration_MissingListsDefaultEmpty(t *testing.T) {
	gen, err := ParseGeneration([]byte(`{"plan_title":"bare"}`))
	if err != nil {
		t.Fatalf("ParseGeneration error: %v", err)
	}
	if gen.Options == nil || len(gen.Options) != 0 {
		t.Fatalf("options should default to empty slice, got %v", gen.Options)
	}
	if gen.Itinerary == nil || len(gen.Itinerary) != 0 {
		t.Fatalf("itinerary should default to empty slice, got %v", gen.Itinerary)
	}
}

func TestParseLodgingCandidates_NonePriceIsNil(t *testing.T) {
	raw := []byte(`{"Hotels":[{"id":143637,"name":"Dotonbori Inn","min_price":"None","review_score":"4.2"}]}`)
	candidates := ParseLodgingCandidates(raw)
	if len(candidates) != 1 {
		t.Fatalf("candidates = %d, want 1", len(candidates))
	}
	if candidates[0].MinPrice != nil {
		t.Fatalf(`price "None" should normalize to nil, got %d`, *candidates[0].MinPrice)
	}
	if candidates[0].Review == nil || *candidates[0].Review != 4.2 {
		t.Fatalf("review not coerced from string: %v", candidates[0].Review)
	}
	if candidates[0].ID != "143637" {
		t.Fatalf("numeric id should become string, got %q", candidates[0].ID)
	}
}

func TestParseLodgingCandidates_LowercaseKeyAndSkips(t *testing.T) {
	raw := []byte(`{"hotels":[
		{"id":"1","name":"Keep Me","price":9800},
		{"id":"","name":"No ID"},
		{"id":"3","name":""},
		"not an object"
	]}`)
	candidates := ParseLodgingCandidates(raw)
	if len(candidates) != 1 {
		t.Fatalf("candidates = %d, want 1 (skip id-less, name-less, junk)", len(candidates))
	}
	if candidates[0].MinPrice == nil || *candidates[0].MinPrice != 9800 {
		t.Fatalf("price not parsed: %v", candidates[0].MinPrice)
	}
}

func TestParseLodgingCandidates_EmptyAndBroken(t *testing.T) {
	for _, raw := range [][]byte{nil, []byte(""), []byte("{}"), []byte("oops")} {
		if got := ParseLodgingCandidates(raw); len(got) != 0 {
			t.Fatalf("ParseLodgingCandidates(%q) = %v, want empty", raw, got)
		}
	}
}

func TestParseChecklist(t *testing.T) {
	raw := []byte(`{"checklist":[
		{"category":"valuables","required_items":["wallet","phone"],"items":["wallet","coin purse"]},
		{"category":"","required_items":["skipped"]},
		{"category":"clothing","items":["t-shirts","t-shirts"]}
	]}`)
	groups, err := ParseChecklist(raw)
	if err != nil {
		t.Fatalf("ParseChecklist error: %v", err)
	}
	if len(groups) != 2 {
		t.Fatalf("groups = %d, want 2", len(groups))
	}
	if len(groups[0].RequiredItems) != 2 {
		t.Fatalf("required = %v", groups[0].RequiredItems)
	}
	// "wallet" appears in both lists; the optional list drops it
	if len(groups[0].Items) != 1 || groups[0].Items[0] != "coin purse" {
		t.Fatalf("optional items = %v, want [coin purse]", groups[0].Items)
	}
	if len(groups[1].Items) != 1 {
		t.Fatalf("duplicate item names should collapse, got %v", groups[1].Items)
	}
}

func TestParseChecklist_Empty(t *testing.T) {
	if _, err := ParseChecklist([]byte("")); !errors.Is(err, ErrEmptyChecklist) {
		t.Fatalf("err = %v, want ErrEmptyChecklist", err)
	}
}

func intPtr(n int) *int { return &n }
