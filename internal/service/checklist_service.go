// internal/service/checklist_service.go
package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"

	"okuda/tabi-planner/internal/domain"
	"okuda/tabi-planner/internal/generator"
	"okuda/tabi-planner/internal/normalize"
	"okuda/tabi-planner/internal/repository"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// --- Error Definitions ---
var (
	ErrChecklistAlreadyExists = errors.New("a checklist already exists for this plan")
	ErrChecklistNotFound      = errors.New("checklist not found")
	ErrChecklistItemNotFound  = errors.New("checklist item not found")
)

// ChecklistItemView joins a checklist item with its master-data names.
type ChecklistItemView struct {
	Entry        domain.ChecklistItem
	ItemName     string
	CategoryName string
}

// ChecklistView is the resolved packing list for a plan.
type ChecklistView struct {
	Checklist domain.Checklist
	Items     []ChecklistItemView
}

// ChecklistItemPatch carries the user-editable fields; nil means unchanged.
type ChecklistItemPatch struct {
	Checked     *bool
	Qty         *int
	OrderNo     *int
	IsEssential *bool
	Note        *string
}

// --- Service Interface ---
type ChecklistService interface {
	// Generate builds the packing list from the generative model. Idempotent:
	// a plan that already has a checklist gets ErrChecklistAlreadyExists.
	Generate(ctx context.Context, sess domain.PlanSession) (*ChecklistView, error)

	// CreateManual starts an empty checklist for hand-built lists.
	CreateManual(ctx context.Context, sess domain.PlanSession, title string) (*domain.Checklist, error)
	AddItem(ctx context.Context, sess domain.PlanSession, itemName, categoryName string, qty int, essential bool) (*domain.ChecklistItem, error)

	Get(ctx context.Context, sess domain.PlanSession) (*ChecklistView, error)
	PatchItem(ctx context.Context, sess domain.PlanSession, itemID primitive.ObjectID, patch ChecklistItemPatch) (*domain.ChecklistItem, error)
	RemoveItem(ctx context.Context, sess domain.PlanSession, itemID primitive.ObjectID) error
}

// --- Service Implementation ---

type checklistService struct {
	planRepo      repository.PlanRepository
	scheduleRepo  repository.ScheduleRepository
	checklistRepo repository.ChecklistRepository
	masterRepo    repository.MasterDataRepository
	txRunner      repository.TxRunner
	generator     generator.ItineraryGenerator
}

// NewChecklistService creates a new instance of checklistService.
func NewChecklistService(
	planRepo repository.PlanRepository,
	scheduleRepo repository.ScheduleRepository,
	checklistRepo repository.ChecklistRepository,
	masterRepo repository.MasterDataRepository,
	txRunner repository.TxRunner,
	gen generator.ItineraryGenerator,
) ChecklistService {
	return &checklistService{
		planRepo:      planRepo,
		scheduleRepo:  scheduleRepo,
		checklistRepo: checklistRepo,
		masterRepo:    masterRepo,
		txRunner:      txRunner,
		generator:     gen,
	}
}

// Generate asks the model for a packing list and persists it with master-data
// dedup by name.
func (s *checklistService) Generate(ctx context.Context, sess domain.PlanSession) (*ChecklistView, error) {
	plan, err := s.getOwnedPlan(ctx, sess)
	if err != nil {
		return nil, err
	}

	if _, err := s.checklistRepo.GetByPlanID(ctx, sess.PlanID); err == nil {
		return nil, ErrChecklistAlreadyExists
	} else if !errors.Is(err, repository.ErrNotFound) {
		return nil, err
	}

	raw, err := s.generator.GenerateChecklist(ctx, s.planSummary(ctx, plan))
	if err != nil {
		log.Printf("ERROR: checklist generation failed: %v", err)
		return nil, ErrGenerationFailed
	}
	groups, err := normalize.ParseChecklist(raw)
	if err != nil {
		log.Printf("ERROR: checklist generation returned an unusable payload: %v", err)
		return nil, ErrGenerationFailed
	}

	// Master data rows are created outside the transaction: they are shared
	// catalog entries, not owned by the plan, and get-or-create is
	// idempotent anyway.
	items := []domain.ChecklistItem{}
	orderNo := 0
	for _, group := range groups {
		category, err := s.masterRepo.GetOrCreateCategory(ctx, group.Category)
		if err != nil {
			return nil, err
		}
		appendEntry := func(name string, essential bool) error {
			item, err := s.masterRepo.GetOrCreateItem(ctx, name, &category.ID)
			if err != nil {
				return err
			}
			items = append(items, domain.ChecklistItem{
				ItemID:      item.ID,
				CategoryID:  &category.ID,
				Qty:         1,
				IsEssential: essential,
				OrderNo:     orderNo,
			})
			orderNo++
			return nil
		}
		for _, name := range group.RequiredItems {
			if err := appendEntry(name, true); err != nil {
				return nil, err
			}
		}
		for _, name := range group.Items {
			if err := appendEntry(name, false); err != nil {
				return nil, err
			}
		}
	}

	checklist := &domain.Checklist{
		PlanID: sess.PlanID,
		Title:  fmt.Sprintf("Packing list: %s", plan.Title),
		Status: domain.ChecklistDraft,
	}
	err = s.txRunner.WithTransaction(ctx, func(txCtx context.Context) error {
		checklistID, err := s.checklistRepo.Create(txCtx, checklist)
		if err != nil {
			return err
		}
		checklist.ID = checklistID
		for i := range items {
			items[i].ChecklistID = checklistID
		}
		return s.checklistRepo.CreateItems(txCtx, items)
	})
	if err != nil {
		log.Printf("ERROR: checklist persistence rolled back: %v", err)
		return nil, ErrPersistenceFailed
	}

	return s.resolveView(ctx, checklist)
}

// CreateManual starts an empty checklist. Subject to the same one-per-plan
// rule as generation.
func (s *checklistService) CreateManual(ctx context.Context, sess domain.PlanSession, title string) (*domain.Checklist, error) {
	plan, err := s.getOwnedPlan(ctx, sess)
	if err != nil {
		return nil, err
	}

	if _, err := s.checklistRepo.GetByPlanID(ctx, sess.PlanID); err == nil {
		return nil, ErrChecklistAlreadyExists
	} else if !errors.Is(err, repository.ErrNotFound) {
		return nil, err
	}

	if strings.TrimSpace(title) == "" {
		title = fmt.Sprintf("Packing list: %s", plan.Title)
	}
	checklist := &domain.Checklist{
		PlanID: sess.PlanID,
		Title:  title,
		Status: domain.ChecklistDraft,
	}
	checklistID, err := s.checklistRepo.Create(ctx, checklist)
	if err != nil {
		return nil, err
	}
	checklist.ID = checklistID
	return checklist, nil
}

// AddItem appends a named item to the plan's checklist, creating master data
// as needed.
func (s *checklistService) AddItem(ctx context.Context, sess domain.PlanSession, itemName, categoryName string, qty int, essential bool) (*domain.ChecklistItem, error) {
	if _, err := s.getOwnedPlan(ctx, sess); err != nil {
		return nil, err
	}
	checklist, err := s.checklistRepo.GetByPlanID(ctx, sess.PlanID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrChecklistNotFound
		}
		return nil, err
	}

	var categoryID *primitive.ObjectID
	if strings.TrimSpace(categoryName) != "" {
		category, err := s.masterRepo.GetOrCreateCategory(ctx, categoryName)
		if err != nil {
			return nil, err
		}
		categoryID = &category.ID
	}
	item, err := s.masterRepo.GetOrCreateItem(ctx, itemName, categoryID)
	if err != nil {
		return nil, err
	}

	existing, err := s.checklistRepo.GetItems(ctx, checklist.ID)
	if err != nil {
		return nil, err
	}
	if qty <= 0 {
		qty = 1
	}
	entries := []domain.ChecklistItem{{
		ChecklistID: checklist.ID,
		ItemID:      item.ID,
		CategoryID:  categoryID,
		Qty:         qty,
		IsEssential: essential,
		OrderNo:     len(existing),
	}}
	// CreateItems assigns the generated ids in place.
	if err := s.checklistRepo.CreateItems(ctx, entries); err != nil {
		return nil, err
	}
	return &entries[0], nil
}

// Get returns the resolved checklist for a plan.
func (s *checklistService) Get(ctx context.Context, sess domain.PlanSession) (*ChecklistView, error) {
	if _, err := s.getOwnedPlan(ctx, sess); err != nil {
		return nil, err
	}
	checklist, err := s.checklistRepo.GetByPlanID(ctx, sess.PlanID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrChecklistNotFound
		}
		return nil, err
	}
	return s.resolveView(ctx, checklist)
}

// PatchItem applies the user's edits (check off, quantity, manual order,
// note) to one entry.
func (s *checklistService) PatchItem(ctx context.Context, sess domain.PlanSession, itemID primitive.ObjectID, patch ChecklistItemPatch) (*domain.ChecklistItem, error) {
	entry, err := s.getOwnedItem(ctx, sess, itemID)
	if err != nil {
		return nil, err
	}

	if patch.Checked != nil {
		entry.Checked = *patch.Checked
	}
	if patch.Qty != nil && *patch.Qty > 0 {
		entry.Qty = *patch.Qty
	}
	if patch.OrderNo != nil {
		entry.OrderNo = *patch.OrderNo
	}
	if patch.IsEssential != nil {
		entry.IsEssential = *patch.IsEssential
	}
	if patch.Note != nil {
		entry.Note = *patch.Note
	}

	if err := s.checklistRepo.UpdateItem(ctx, entry); err != nil {
		return nil, err
	}
	return entry, nil
}

// RemoveItem soft-deletes one entry.
func (s *checklistService) RemoveItem(ctx context.Context, sess domain.PlanSession, itemID primitive.ObjectID) error {
	if _, err := s.getOwnedItem(ctx, sess, itemID); err != nil {
		return err
	}
	return s.checklistRepo.SoftDeleteItem(ctx, itemID)
}

// --- helpers ---

func (s *checklistService) getOwnedPlan(ctx context.Context, sess domain.PlanSession) (*domain.Plan, error) {
	plan, err := s.planRepo.GetByOwner(ctx, sess.PlanID, sess.UserID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrPlanNotFound
		}
		return nil, err
	}
	return plan, nil
}

// getOwnedItem resolves an item and verifies it belongs to the session
// plan's checklist.
func (s *checklistService) getOwnedItem(ctx context.Context, sess domain.PlanSession, itemID primitive.ObjectID) (*domain.ChecklistItem, error) {
	if _, err := s.getOwnedPlan(ctx, sess); err != nil {
		return nil, err
	}
	checklist, err := s.checklistRepo.GetByPlanID(ctx, sess.PlanID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrChecklistNotFound
		}
		return nil, err
	}
	entry, err := s.checklistRepo.GetItemByID(ctx, itemID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrChecklistItemNotFound
		}
		return nil, err
	}
	if entry.ChecklistID != checklist.ID {
		return nil, ErrChecklistItemNotFound
	}
	return entry, nil
}

// planSummary renders a compact text block for the checklist prompt.
func (s *checklistService) planSummary(ctx context.Context, plan *domain.Plan) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Title: %s\nDestination: %s\nDeparture: %s\nDays: %d\nCompanions: %d\n",
		plan.Title, plan.Destination, plan.Departure, plan.Days, plan.CompanionCount)
	if plan.Purpose != "" {
		fmt.Fprintf(&b, "Purpose: %s\n", plan.Purpose)
	}
	if len(plan.Options) > 0 {
		fmt.Fprintf(&b, "Style: %s\n", strings.Join(plan.Options, ", "))
	}
	if schedule, err := s.scheduleRepo.GetByPlanID(ctx, plan.ID); err == nil {
		for _, day := range schedule.Days {
			fmt.Fprintf(&b, "Day %d:", day.Day)
			for _, detail := range day.Details {
				fmt.Fprintf(&b, " %s %s;", detail.Time, detail.Activity)
			}
			b.WriteString("\n")
		}
	}
	return b.String()
}

// resolveView joins checklist entries with their master-data names.
func (s *checklistService) resolveView(ctx context.Context, checklist *domain.Checklist) (*ChecklistView, error) {
	entries, err := s.checklistRepo.GetItems(ctx, checklist.ID)
	if err != nil {
		return nil, err
	}

	itemIDs := make([]primitive.ObjectID, 0, len(entries))
	categoryIDs := make([]primitive.ObjectID, 0, len(entries))
	for _, entry := range entries {
		itemIDs = append(itemIDs, entry.ItemID)
		if entry.CategoryID != nil {
			categoryIDs = append(categoryIDs, *entry.CategoryID)
		}
	}

	masterItems, err := s.masterRepo.GetItemsByIDs(ctx, itemIDs)
	if err != nil {
		return nil, err
	}
	categories, err := s.masterRepo.GetCategoriesByIDs(ctx, categoryIDs)
	if err != nil {
		return nil, err
	}

	itemNames := make(map[primitive.ObjectID]string, len(masterItems))
	for _, item := range masterItems {
		itemNames[item.ID] = item.Name
	}
	categoryNames := make(map[primitive.ObjectID]string, len(categories))
	for _, category := range categories {
		categoryNames[category.ID] = category.Name
	}

	view := &ChecklistView{Checklist: *checklist, Items: []ChecklistItemView{}}
	for _, entry := range entries {
		itemView := ChecklistItemView{
			Entry:    entry,
			ItemName: itemNames[entry.ItemID],
		}
		if entry.CategoryID != nil {
			itemView.CategoryName = categoryNames[*entry.CategoryID]
		}
		view.Items = append(view.Items, itemView)
	}
	return view, nil
}
