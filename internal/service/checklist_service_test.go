// internal/service/checklist_service_test.go
package service

import (
	"context"
	"errors"
	"strings"
	"testing"

	"okuda/tabi-planner/internal/domain"
)

const packingGeneration = `{
  "checklist": [
    {"category": "valuables", "required_items": ["Passport", "Wallet"], "items": ["Coin purse"]},
    {"category": "clothing", "required_items": [], "items": ["T-shirts", "Rain jacket", "T-shirts"]}
  ]
}`

type checklistFixture struct {
	*planFixture
	masterRepo *fakeMasterRepo
	svc        ChecklistService
}

func newChecklistFixture(t *testing.T) *checklistFixture {
	t.Helper()
	pf := newPlanFixture(t)
	pf.generator.checklistPayload = []byte(packingGeneration)
	masterRepo := newFakeMasterRepo()
	txRunner := &fakeTxRunner{stores: []snapshotter{pf.checklistRepo}}
	return &checklistFixture{
		planFixture: pf,
		masterRepo:  masterRepo,
		svc: NewChecklistService(
			pf.planRepo, pf.scheduleRepo, pf.checklistRepo, masterRepo, txRunner, pf.generator,
		),
	}
}

func TestGenerateChecklistPersistsGroups(t *testing.T) {
	f := newChecklistFixture(t)
	plan := f.createOsakaPlan(t)
	sess := domain.PlanSession{PlanID: plan.ID, UserID: f.userID}

	view, err := f.svc.Generate(context.Background(), sess)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}

	if view.Checklist.Status != domain.ChecklistDraft {
		t.Errorf("new checklist must be a draft, got %q", view.Checklist.Status)
	}
	// Passport, Wallet, Coin purse + deduplicated clothing entries.
	if len(view.Items) != 5 {
		t.Fatalf("expected 5 items (duplicates collapsed), got %d", len(view.Items))
	}

	essentials := map[string]bool{}
	for _, item := range view.Items {
		if item.ItemName == "" {
			t.Errorf("item name must resolve through master data: %+v", item.Entry)
		}
		if item.Entry.Checked {
			t.Errorf("generated items must start unchecked")
		}
		if item.Entry.IsEssential {
			essentials[item.ItemName] = true
		}
	}
	if !essentials["Passport"] || !essentials["Wallet"] || len(essentials) != 2 {
		t.Errorf("expected exactly Passport and Wallet essential, got %v", essentials)
	}

	// The prompt summary must describe the plan being packed for.
	if !strings.Contains(f.generator.lastSummary, "Osaka") {
		t.Errorf("generator summary should mention the destination, got %q", f.generator.lastSummary)
	}
}

func TestGenerateChecklistIsIdempotent(t *testing.T) {
	f := newChecklistFixture(t)
	plan := f.createOsakaPlan(t)
	sess := domain.PlanSession{PlanID: plan.ID, UserID: f.userID}
	ctx := context.Background()

	if _, err := f.svc.Generate(ctx, sess); err != nil {
		t.Fatalf("first Generate: %v", err)
	}
	_, err := f.svc.Generate(ctx, sess)
	if !errors.Is(err, ErrChecklistAlreadyExists) {
		t.Fatalf("expected ErrChecklistAlreadyExists, got %v", err)
	}
	if len(f.checklistRepo.checklists) != 1 {
		t.Errorf("second Generate must not create another checklist, have %d", len(f.checklistRepo.checklists))
	}
}

func TestGenerateChecklistDeduplicatesMasterData(t *testing.T) {
	f := newChecklistFixture(t)
	ctx := context.Background()

	// Two plans generating the same item names share master rows.
	for _, email := range []string{"a@example.com", "b@example.com"} {
		userID, _ := f.userRepo.Create(ctx, &domain.User{DisplayName: "U", Email: email, PasswordHash: "x"})
		plan, err := f.planFixture.svc.CreateFromGeneration(ctx, userID, f.osakaInput())
		if err != nil {
			t.Fatalf("CreateFromGeneration: %v", err)
		}
		if _, err := f.svc.Generate(ctx, domain.PlanSession{PlanID: plan.ID, UserID: userID}); err != nil {
			t.Fatalf("Generate: %v", err)
		}
	}

	if len(f.masterRepo.items) != 5 {
		t.Errorf("master items must be shared by name, expected 5, got %d", len(f.masterRepo.items))
	}
	if len(f.masterRepo.categories) != 2 {
		t.Errorf("master categories must be shared by name, expected 2, got %d", len(f.masterRepo.categories))
	}
}

func TestGenerateChecklistRollsBackItems(t *testing.T) {
	f := newChecklistFixture(t)
	plan := f.createOsakaPlan(t)
	sess := domain.PlanSession{PlanID: plan.ID, UserID: f.userID}
	f.checklistRepo.itemsErr = errors.New("write conflict")

	_, err := f.svc.Generate(context.Background(), sess)
	if !errors.Is(err, ErrPersistenceFailed) {
		t.Fatalf("expected ErrPersistenceFailed, got %v", err)
	}
	if len(f.checklistRepo.checklists) != 0 {
		t.Errorf("checklist header must be rolled back with its items")
	}
}

func TestManualChecklistFlow(t *testing.T) {
	f := newChecklistFixture(t)
	plan := f.createOsakaPlan(t)
	sess := domain.PlanSession{PlanID: plan.ID, UserID: f.userID}
	ctx := context.Background()

	checklist, err := f.svc.CreateManual(ctx, sess, "")
	if err != nil {
		t.Fatalf("CreateManual: %v", err)
	}
	if !strings.Contains(checklist.Title, plan.Title) {
		t.Errorf("default title should mention the plan, got %q", checklist.Title)
	}

	entry, err := f.svc.AddItem(ctx, sess, "Camera", "electronics", 0, false)
	if err != nil {
		t.Fatalf("AddItem: %v", err)
	}
	if entry.Qty != 1 {
		t.Errorf("non-positive qty must default to 1, got %d", entry.Qty)
	}

	checked := true
	qty := 3
	updated, err := f.svc.PatchItem(ctx, sess, entry.ID, ChecklistItemPatch{Checked: &checked, Qty: &qty})
	if err != nil {
		t.Fatalf("PatchItem: %v", err)
	}
	if !updated.Checked || updated.Qty != 3 {
		t.Errorf("patch not applied: %+v", updated)
	}

	if err := f.svc.RemoveItem(ctx, sess, entry.ID); err != nil {
		t.Fatalf("RemoveItem: %v", err)
	}
	view, err := f.svc.Get(ctx, sess)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if len(view.Items) != 0 {
		t.Errorf("soft-deleted items must not be listed, got %d", len(view.Items))
	}

	// The row itself survives the soft delete.
	found := false
	for _, item := range f.checklistRepo.items {
		if item.ID == entry.ID && item.Deleted {
			found = true
		}
	}
	if !found {
		t.Errorf("soft delete must keep the row with the deleted flag set")
	}
}

func TestChecklistOperationsRequireOwnership(t *testing.T) {
	f := newChecklistFixture(t)
	plan := f.createOsakaPlan(t)
	ctx := context.Background()

	strangerID, _ := f.userRepo.Create(ctx, &domain.User{DisplayName: "Taro", Email: "taro@example.com", PasswordHash: "x"})
	_, err := f.svc.Generate(ctx, domain.PlanSession{PlanID: plan.ID, UserID: strangerID})
	if !errors.Is(err, ErrPlanNotFound) {
		t.Fatalf("expected ErrPlanNotFound for foreign plan, got %v", err)
	}
}
