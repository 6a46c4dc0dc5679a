package domain

import "testing"

func strPtr(s string) *string { return &s }

func planWithLodging(selected *string, candidateIDs ...string) *Plan {
	p := &Plan{}
	for _, id := range candidateIDs {
		p.Lodging.Candidates = append(p.Lodging.Candidates, LodgingCandidate{ID: id, Name: "hotel " + id})
	}
	p.Lodging.SelectedID = selected
	return p
}

func TestStageOf_FreshPlan(t *testing.T) {
	p := planWithLodging(nil, "100", "200")
	stage := StageOf(p, []TransportSnapshot{{Label: LabelCar}}, false, false)
	if stage != StageAwaitingTransportChoice {
		t.Fatalf("fresh plan stage = %s, want %s", stage, StageAwaitingTransportChoice)
	}
}

func TestStageOf_TransportSelected(t *testing.T) {
	p := planWithLodging(nil, "100")
	transports := []TransportSnapshot{
		{Label: LabelPricePriority},
		{Label: LabelSpeedPriority, IsSelected: true},
	}
	stage := StageOf(p, transports, false, false)
	if stage != StageAwaitingLodgingChoice {
		t.Fatalf("stage = %s, want %s", stage, StageAwaitingLodgingChoice)
	}
}

func TestStageOf_LodgingSelected(t *testing.T) {
	p := planWithLodging(strPtr("100"), "100", "200")
	transports := []TransportSnapshot{{Label: LabelCar, IsSelected: true}}
	stage := StageOf(p, transports, false, false)
	if stage != StageScheduleReady {
		t.Fatalf("stage = %s, want %s", stage, StageScheduleReady)
	}
}

func TestStageOf_DanglingLodgingSelectionIgnored(t *testing.T) {
	// selectedId pointing at a candidate that no longer exists counts as
	// no selection at all
	p := planWithLodging(strPtr("999"), "100", "200")
	transports := []TransportSnapshot{{Label: LabelCar, IsSelected: true}}
	stage := StageOf(p, transports, false, false)
	if stage != StageAwaitingLodgingChoice {
		t.Fatalf("stage = %s, want %s", stage, StageAwaitingLodgingChoice)
	}
}

func TestStageOf_ChecklistAndPublish(t *testing.T) {
	p := planWithLodging(strPtr("100"), "100")
	transports := []TransportSnapshot{{Label: LabelCar, IsSelected: true}}

	if got := StageOf(p, transports, true, false); got != StageChecklistReady {
		t.Fatalf("stage = %s, want %s", got, StageChecklistReady)
	}
	if got := StageOf(p, transports, true, true); got != StagePublished {
		t.Fatalf("stage = %s, want %s", got, StagePublished)
	}
}

func TestValidSelectedID(t *testing.T) {
	sel := planWithLodging(strPtr("200"), "100", "200").Lodging
	if got := sel.ValidSelectedID(); got == nil || *got != "200" {
		t.Fatalf("ValidSelectedID = %v, want 200", got)
	}

	dangling := planWithLodging(strPtr("300"), "100").Lodging
	if got := dangling.ValidSelectedID(); got != nil {
		t.Fatalf("dangling selection should be nil, got %v", *got)
	}
}
