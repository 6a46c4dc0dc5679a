// internal/service/plan_service.go
package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"okuda/tabi-planner/internal/domain"
	"okuda/tabi-planner/internal/generator"
	"okuda/tabi-planner/internal/lodging"
	"okuda/tabi-planner/internal/normalize"
	"okuda/tabi-planner/internal/repository"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// --- Error Definitions ---
//
// Collaborator failures are caught here and mapped onto this taxonomy;
// nothing below the service layer leaks collaborator-specific error shapes
// upward.
var (
	ErrGenerationFailed  = errors.New("itinerary generation failed")
	ErrSessionInvalid    = errors.New("acting user no longer resolves to an account")
	ErrInvalidSelection  = errors.New("selection does not reference a valid option")
	ErrPersistenceFailed = errors.New("plan could not be persisted")
	ErrPlanNotFound      = errors.New("plan not found")
)

// PlanInput carries the raw creation-form values.
type PlanInput struct {
	Destination    string
	Departure      string
	StartDate      time.Time
	Days           int
	CompanionCount int
	Purpose        string
	Options        []string
}

// PlanDetail bundles a plan with its transport options and derived stage for
// the detail view.
type PlanDetail struct {
	Plan       *domain.Plan
	Transports []domain.TransportSnapshot
	Stage      domain.Stage
}

// --- Service Interface ---
type PlanService interface {
	// CreateFromGeneration runs the full generation flow: validate the user,
	// call both collaborators, normalize, and persist the plan with all
	// first-generation children in one transaction.
	CreateFromGeneration(ctx context.Context, userID primitive.ObjectID, input PlanInput) (*domain.Plan, error)

	GetPlans(ctx context.Context, userID primitive.ObjectID) ([]domain.Plan, error)
	GetPlanDetail(ctx context.Context, sess domain.PlanSession) (*PlanDetail, error)
	GetSchedule(ctx context.Context, sess domain.PlanSession) (*domain.Schedule, error)

	// SelectTransport marks exactly one snapshot as selected by label.
	SelectTransport(ctx context.Context, sess domain.PlanSession, label domain.TransportLabel) error
	// SelectLodging points the embedded selection at an existing candidate.
	SelectLodging(ctx context.Context, sess domain.PlanSession, candidateID string) error

	// CopyPlan deep-clones a plan and all owned children under a new owner,
	// resetting selections, checked flags and visibility.
	CopyPlan(ctx context.Context, sourcePlanID, destUserID primitive.ObjectID) (primitive.ObjectID, error)
	DeletePlan(ctx context.Context, sess domain.PlanSession) error
}

// --- Service Implementation ---

// planService implements the PlanService interface.
type planService struct {
	userRepo      repository.UserRepository
	planRepo      repository.PlanRepository
	transportRepo repository.TransportRepository
	scheduleRepo  repository.ScheduleRepository
	checklistRepo repository.ChecklistRepository
	templateRepo  repository.TemplateRepository
	shareRepo     repository.ShareRepository
	txRunner      repository.TxRunner
	generator     generator.ItineraryGenerator
	lodgingSearch lodging.Searcher
}

// NewPlanService creates a new instance of planService.
func NewPlanService(
	userRepo repository.UserRepository,
	planRepo repository.PlanRepository,
	transportRepo repository.TransportRepository,
	scheduleRepo repository.ScheduleRepository,
	checklistRepo repository.ChecklistRepository,
	templateRepo repository.TemplateRepository,
	shareRepo repository.ShareRepository,
	txRunner repository.TxRunner,
	gen generator.ItineraryGenerator,
	lodgingSearch lodging.Searcher,
) PlanService {
	return &planService{
		userRepo:      userRepo,
		planRepo:      planRepo,
		transportRepo: transportRepo,
		scheduleRepo:  scheduleRepo,
		checklistRepo: checklistRepo,
		templateRepo:  templateRepo,
		shareRepo:     shareRepo,
		txRunner:      txRunner,
		generator:     gen,
		lodgingSearch: lodgingSearch,
	}
}

// CreateFromGeneration orchestrates itinerary generation and persistence.
func (s *planService) CreateFromGeneration(ctx context.Context, userID primitive.ObjectID, input PlanInput) (*domain.Plan, error) {
	// 1. The acting user must still resolve; a stale token forces
	// re-authentication at the caller.
	if _, err := s.userRepo.GetByID(ctx, userID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrSessionInvalid
		}
		return nil, err
	}

	// 2. Itinerary generation is fatal on failure: nothing is written.
	raw, err := s.generator.GeneratePlan(ctx, generator.PlanRequest{
		Destination: input.Destination,
		Departure:   input.Departure,
		Days:        input.Days,
		Purpose:     input.Purpose,
		StyleTags:   input.Options,
	})
	if err != nil {
		log.Printf("ERROR: itinerary generation failed: %v", err)
		return nil, ErrGenerationFailed
	}
	gen, err := normalize.ParseGeneration(raw)
	if err != nil {
		log.Printf("ERROR: itinerary generation returned an unusable payload: %v", err)
		return nil, ErrGenerationFailed
	}

	// 3. Lodging is best-effort; an empty result degrades to a plan with no
	// candidates rather than blocking creation.
	candidates := lodging.SearchWithFallback(ctx, s.lodgingSearch, input.Destination)

	// 4. Persist the plan and all first-generation children together.
	plan := &domain.Plan{
		UserID:         userID,
		Title:          gen.Title,
		Destination:    input.Destination,
		Departure:      input.Departure,
		StartDate:      input.StartDate,
		Days:           input.Days,
		CompanionCount: input.CompanionCount,
		Purpose:        input.Purpose,
		Options:        input.Options,
		Lodging: domain.LodgingSelection{
			Candidates: candidates,
		},
	}
	if plan.CompanionCount <= 0 {
		plan.CompanionCount = 1
	}

	err = s.txRunner.WithTransaction(ctx, func(txCtx context.Context) error {
		planID, err := s.planRepo.Create(txCtx, plan)
		if err != nil {
			return err
		}
		plan.ID = planID

		snapshots := make([]domain.TransportSnapshot, 0, len(gen.Options))
		for _, option := range gen.Options {
			snapshots = append(snapshots, domain.TransportSnapshot{
				PlanID:        planID,
				Label:         option.Label,
				Method:        option.Method,
				Cost:          option.Cost,
				Duration:      option.Duration,
				TransitCount:  option.TransitCount,
				DepartureTime: option.DepartureTime,
				ArrivalTime:   option.ArrivalTime,
			})
		}
		if err := s.transportRepo.CreateMany(txCtx, snapshots); err != nil {
			return err
		}

		_, err = s.scheduleRepo.Create(txCtx, &domain.Schedule{
			PlanID: planID,
			Days:   gen.Itinerary,
		})
		return err
	})
	if err != nil {
		log.Printf("ERROR: plan persistence rolled back: %v", err)
		return nil, ErrPersistenceFailed
	}

	return plan, nil
}

// GetPlans lists the user's plans, newest first.
func (s *planService) GetPlans(ctx context.Context, userID primitive.ObjectID) ([]domain.Plan, error) {
	return s.planRepo.GetByUserID(ctx, userID)
}

// GetPlanDetail loads a plan with its transport snapshots and derived stage.
func (s *planService) GetPlanDetail(ctx context.Context, sess domain.PlanSession) (*PlanDetail, error) {
	plan, err := s.getOwnedPlan(ctx, sess)
	if err != nil {
		return nil, err
	}

	transports, err := s.transportRepo.GetByPlanID(ctx, sess.PlanID)
	if err != nil {
		return nil, err
	}

	stage, err := s.deriveStage(ctx, plan, transports)
	if err != nil {
		return nil, err
	}

	return &PlanDetail{
		Plan:       plan,
		Transports: transports,
		Stage:      stage,
	}, nil
}

// GetSchedule returns the plan's itinerary.
func (s *planService) GetSchedule(ctx context.Context, sess domain.PlanSession) (*domain.Schedule, error) {
	if _, err := s.getOwnedPlan(ctx, sess); err != nil {
		return nil, err
	}
	schedule, err := s.scheduleRepo.GetByPlanID(ctx, sess.PlanID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrPlanNotFound
		}
		return nil, err
	}
	return schedule, nil
}

// SelectTransport marks the snapshot with the given label as the single
// selected one. The label must name one of the plan's snapshots.
func (s *planService) SelectTransport(ctx context.Context, sess domain.PlanSession, label domain.TransportLabel) error {
	if _, err := s.getOwnedPlan(ctx, sess); err != nil {
		return err
	}

	snapshots, err := s.transportRepo.GetByPlanID(ctx, sess.PlanID)
	if err != nil {
		return err
	}
	known := false
	for _, snapshot := range snapshots {
		if snapshot.Label == label {
			known = true
			break
		}
	}
	if !known {
		return fmt.Errorf("%w: transport label %q", ErrInvalidSelection, label)
	}

	return s.transportRepo.SelectExclusive(ctx, sess.PlanID, label)
}

// SelectLodging points the embedded lodging selection at candidateID. The id
// must reference an existing candidate; otherwise the state is unchanged.
func (s *planService) SelectLodging(ctx context.Context, sess domain.PlanSession, candidateID string) error {
	plan, err := s.getOwnedPlan(ctx, sess)
	if err != nil {
		return err
	}

	if plan.Lodging.CandidateByID(candidateID) == nil {
		return fmt.Errorf("%w: lodging candidate %q", ErrInvalidSelection, candidateID)
	}

	return s.planRepo.SetLodgingSelection(ctx, sess.PlanID, candidateID)
}

// CopyPlan deep-clones a plan under a new owner. Selection flags, checked
// states and visibility are reset; no share token is carried over.
func (s *planService) CopyPlan(ctx context.Context, sourcePlanID, destUserID primitive.ObjectID) (primitive.ObjectID, error) {
	source, err := s.planRepo.GetByID(ctx, sourcePlanID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return primitive.NilObjectID, ErrPlanNotFound
		}
		return primitive.NilObjectID, err
	}
	if _, err := s.userRepo.GetByID(ctx, destUserID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return primitive.NilObjectID, ErrSessionInvalid
		}
		return primitive.NilObjectID, err
	}

	transports, err := s.transportRepo.GetByPlanID(ctx, sourcePlanID)
	if err != nil {
		return primitive.NilObjectID, err
	}
	schedule, err := s.scheduleRepo.GetByPlanID(ctx, sourcePlanID)
	if err != nil && !errors.Is(err, repository.ErrNotFound) {
		return primitive.NilObjectID, err
	}
	checklist, err := s.checklistRepo.GetByPlanID(ctx, sourcePlanID)
	if err != nil && !errors.Is(err, repository.ErrNotFound) {
		return primitive.NilObjectID, err
	}
	var checklistItems []domain.ChecklistItem
	if checklist != nil {
		checklistItems, err = s.checklistRepo.GetItems(ctx, checklist.ID)
		if err != nil {
			return primitive.NilObjectID, err
		}
	}
	template, err := s.templateRepo.GetByPlanID(ctx, sourcePlanID)
	if err != nil && !errors.Is(err, repository.ErrNotFound) {
		return primitive.NilObjectID, err
	}

	clone := *source
	clone.ID = primitive.NilObjectID
	clone.UserID = destUserID
	clone.Lodging.SelectedID = nil

	var newPlanID primitive.ObjectID
	err = s.txRunner.WithTransaction(ctx, func(txCtx context.Context) error {
		planID, err := s.planRepo.Create(txCtx, &clone)
		if err != nil {
			return err
		}
		newPlanID = planID

		if len(transports) > 0 {
			cloned := make([]domain.TransportSnapshot, 0, len(transports))
			for _, snapshot := range transports {
				snapshot.ID = primitive.NilObjectID
				snapshot.PlanID = planID
				snapshot.IsSelected = false
				cloned = append(cloned, snapshot)
			}
			if err := s.transportRepo.CreateMany(txCtx, cloned); err != nil {
				return err
			}
		}

		if schedule != nil {
			_, err := s.scheduleRepo.Create(txCtx, &domain.Schedule{
				PlanID: planID,
				Days:   schedule.Days,
			})
			if err != nil {
				return err
			}
		}

		if checklist != nil {
			newChecklistID, err := s.checklistRepo.Create(txCtx, &domain.Checklist{
				PlanID: planID,
				Title:  checklist.Title,
				Status: domain.ChecklistDraft,
				Note:   checklist.Note,
			})
			if err != nil {
				return err
			}
			if len(checklistItems) > 0 {
				cloned := make([]domain.ChecklistItem, 0, len(checklistItems))
				for _, item := range checklistItems {
					item.ID = primitive.NilObjectID
					item.ChecklistID = newChecklistID
					item.Checked = false // copies always start unchecked
					cloned = append(cloned, item)
				}
				if err := s.checklistRepo.CreateItems(txCtx, cloned); err != nil {
					return err
				}
			}
		}

		if template != nil {
			_, err := s.templateRepo.Create(txCtx, &domain.Template{
				PlanID:         planID,
				UserID:         destUserID,
				Title:          template.Title + " (Copy)",
				Destination:    template.Destination,
				Days:           template.Days,
				Outline:        template.Outline,
				ChecklistNames: template.ChecklistNames,
				PublishStatus:  domain.PublishPrivate,
			})
			if err != nil {
				return err
			}
		}

		return nil
	})
	if err != nil {
		log.Printf("ERROR: plan copy rolled back: %v", err)
		return primitive.NilObjectID, ErrPersistenceFailed
	}

	return newPlanID, nil
}

// DeletePlan removes a plan and cascades to every owned child, including the
// derived template and its share links.
func (s *planService) DeletePlan(ctx context.Context, sess domain.PlanSession) error {
	if _, err := s.getOwnedPlan(ctx, sess); err != nil {
		return err
	}

	template, err := s.templateRepo.GetByPlanID(ctx, sess.PlanID)
	if err != nil && !errors.Is(err, repository.ErrNotFound) {
		return err
	}

	err = s.txRunner.WithTransaction(ctx, func(txCtx context.Context) error {
		if err := s.transportRepo.DeleteByPlanID(txCtx, sess.PlanID); err != nil {
			return err
		}
		if err := s.scheduleRepo.DeleteByPlanID(txCtx, sess.PlanID); err != nil {
			return err
		}
		if err := s.checklistRepo.DeleteByPlanID(txCtx, sess.PlanID); err != nil {
			return err
		}
		if template != nil {
			if err := s.shareRepo.DeleteByTemplateID(txCtx, template.ID); err != nil {
				return err
			}
		}
		if err := s.templateRepo.DeleteByPlanID(txCtx, sess.PlanID); err != nil {
			return err
		}
		return s.planRepo.Delete(txCtx, sess.PlanID)
	})
	if err != nil {
		log.Printf("ERROR: plan deletion rolled back: %v", err)
		return ErrPersistenceFailed
	}
	return nil
}

// getOwnedPlan loads the plan only when the session user owns it.
func (s *planService) getOwnedPlan(ctx context.Context, sess domain.PlanSession) (*domain.Plan, error) {
	plan, err := s.planRepo.GetByOwner(ctx, sess.PlanID, sess.UserID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrPlanNotFound
		}
		return nil, err
	}
	return plan, nil
}

// deriveStage computes the flow stage from persisted pointers.
func (s *planService) deriveStage(ctx context.Context, plan *domain.Plan, transports []domain.TransportSnapshot) (domain.Stage, error) {
	hasChecklist := false
	if _, err := s.checklistRepo.GetByPlanID(ctx, plan.ID); err == nil {
		hasChecklist = true
	} else if !errors.Is(err, repository.ErrNotFound) {
		return "", err
	}

	isPublished := false
	template, err := s.templateRepo.GetByPlanID(ctx, plan.ID)
	if err != nil && !errors.Is(err, repository.ErrNotFound) {
		return "", err
	}
	if template != nil && template.PublishStatus == domain.PublishPublic {
		if _, err := s.shareRepo.GetByTemplateID(ctx, template.ID); err == nil {
			isPublished = true
		} else if !errors.Is(err, repository.ErrNotFound) {
			return "", err
		}
	}

	return domain.StageOf(plan, transports, hasChecklist, isPublished), nil
}
