// internal/service/template_service.go
package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"okuda/tabi-planner/internal/domain"
	"okuda/tabi-planner/internal/repository"
	"okuda/tabi-planner/internal/storage"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// --- Error Definitions ---
var (
	ErrShareNotFound    = errors.New("shared template not found or no longer public")
	ErrTemplateNotFound = errors.New("template not found")
)

// PublishResult is what the owner gets back after publishing: the stored
// template plus the share URL to hand out.
type PublishResult struct {
	Template *domain.Template
	Share    *domain.Share
	ShareURL string
}

// SharedView is the public, read-only rendering of a published template.
// CoverImageURL is a short-lived presigned link, empty when no cover was
// uploaded.
type SharedView struct {
	Template      domain.Template
	Share         domain.Share
	CoverImageURL string
}

// --- Service Interface ---
type TemplateService interface {
	// Publish snapshots the plan into a public template and mints (or
	// reuses) the share token. Re-publishing an edited plan updates the
	// snapshot in place and keeps the existing URL valid.
	Publish(ctx context.Context, sess domain.PlanSession) (*PublishResult, error)

	// Unpublish flips the template private. The share row stays so a later
	// re-publish restores the same URL.
	Unpublish(ctx context.Context, sess domain.PlanSession) error

	// ResolveShare resolves a share token for anonymous readers and counts
	// the access. Private or unknown tokens both resolve to ErrShareNotFound.
	ResolveShare(ctx context.Context, token string) (*SharedView, error)

	// CoverUploadURL returns a presigned PUT URL for the template's cover
	// image and records the object key on the template.
	CoverUploadURL(ctx context.Context, sess domain.PlanSession, contentType string) (string, error)
}

// --- Service Implementation ---

type templateService struct {
	planRepo      repository.PlanRepository
	scheduleRepo  repository.ScheduleRepository
	checklistRepo repository.ChecklistRepository
	masterRepo    repository.MasterDataRepository
	templateRepo  repository.TemplateRepository
	shareRepo     repository.ShareRepository
	fileStorage   storage.FileStorage
	shareBaseURL  string
}

// NewTemplateService creates a new instance of templateService.
func NewTemplateService(
	planRepo repository.PlanRepository,
	scheduleRepo repository.ScheduleRepository,
	checklistRepo repository.ChecklistRepository,
	masterRepo repository.MasterDataRepository,
	templateRepo repository.TemplateRepository,
	shareRepo repository.ShareRepository,
	fileStorage storage.FileStorage,
	shareBaseURL string,
) TemplateService {
	return &templateService{
		planRepo:      planRepo,
		scheduleRepo:  scheduleRepo,
		checklistRepo: checklistRepo,
		masterRepo:    masterRepo,
		templateRepo:  templateRepo,
		shareRepo:     shareRepo,
		fileStorage:   fileStorage,
		shareBaseURL:  shareBaseURL,
	}
}

// Publish builds the public snapshot from the plan's current state and
// upserts it, so publishing twice never duplicates templates or tokens.
func (s *templateService) Publish(ctx context.Context, sess domain.PlanSession) (*PublishResult, error) {
	plan, err := s.planRepo.GetByOwner(ctx, sess.PlanID, sess.UserID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrPlanNotFound
		}
		return nil, err
	}

	template := &domain.Template{
		PlanID:         plan.ID,
		UserID:         sess.UserID,
		Title:          plan.Title,
		Destination:    plan.Destination,
		Days:           plan.Days,
		Outline:        s.buildOutline(ctx, plan.ID),
		ChecklistNames: s.collectChecklistNames(ctx, plan.ID),
		PublishStatus:  domain.PublishPublic,
	}

	// Preserve a previously uploaded cover across re-publishes.
	if existing, err := s.templateRepo.GetByPlanID(ctx, plan.ID); err == nil {
		template.CoverObjectKey = existing.CoverObjectKey
	}

	stored, err := s.templateRepo.Upsert(ctx, template)
	if err != nil {
		log.Printf("ERROR: Failed to upsert template for plan %s: %v", plan.ID.Hex(), err)
		return nil, ErrPersistenceFailed
	}

	share, err := s.ensureShare(ctx, stored.ID, sess.UserID)
	if err != nil {
		return nil, err
	}

	return &PublishResult{
		Template: stored,
		Share:    share,
		ShareURL: s.shareURL(share.URLToken),
	}, nil
}

// Unpublish flips the template private without touching the share row.
func (s *templateService) Unpublish(ctx context.Context, sess domain.PlanSession) error {
	if _, err := s.planRepo.GetByOwner(ctx, sess.PlanID, sess.UserID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrPlanNotFound
		}
		return err
	}
	template, err := s.templateRepo.GetByPlanID(ctx, sess.PlanID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrTemplateNotFound
		}
		return err
	}
	template.PublishStatus = domain.PublishPrivate
	if _, err := s.templateRepo.Upsert(ctx, template); err != nil {
		return err
	}
	return nil
}

// ResolveShare looks up the token, checks the template is still public and
// counts the access. The increment failing only loses a count, never the
// page, so it is logged and ignored.
func (s *templateService) ResolveShare(ctx context.Context, token string) (*SharedView, error) {
	share, err := s.shareRepo.GetByToken(ctx, token)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrShareNotFound
		}
		return nil, err
	}
	if share.ExpiresAt != nil && share.ExpiresAt.Before(time.Now()) {
		return nil, ErrShareNotFound
	}

	template, err := s.templateRepo.GetByID(ctx, share.TemplateID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrShareNotFound
		}
		return nil, err
	}
	if template.PublishStatus != domain.PublishPublic {
		return nil, ErrShareNotFound
	}

	if err := s.shareRepo.IncrementAccessCount(ctx, share.ID); err != nil {
		log.Printf("WARN: Failed to count access for share %s: %v", share.ID.Hex(), err)
	} else {
		share.AccessCount++
	}

	view := &SharedView{Template: *template, Share: *share}
	if template.CoverObjectKey != "" && s.fileStorage != nil {
		url, err := s.fileStorage.GeneratePresignedDownloadURL(ctx, template.CoverObjectKey, storage.DefaultPresignedURLExpiry)
		if err != nil {
			log.Printf("WARN: Failed to presign cover image for template %s: %v", template.ID.Hex(), err)
		} else {
			view.CoverImageURL = url
		}
	}
	return view, nil
}

// CoverUploadURL presigns a PUT for the cover object and stores the key on
// the template so shared views can resolve it later.
func (s *templateService) CoverUploadURL(ctx context.Context, sess domain.PlanSession, contentType string) (string, error) {
	if _, err := s.planRepo.GetByOwner(ctx, sess.PlanID, sess.UserID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return "", ErrPlanNotFound
		}
		return "", err
	}
	template, err := s.templateRepo.GetByPlanID(ctx, sess.PlanID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return "", ErrTemplateNotFound
		}
		return "", err
	}

	objectKey := fmt.Sprintf("covers/%s/%s", template.ID.Hex(), uuid.NewString())
	uploadURL, err := s.fileStorage.GeneratePresignedUploadURL(ctx, objectKey, contentType, storage.DefaultPresignedURLExpiry)
	if err != nil {
		return "", err
	}
	if err := s.templateRepo.SetCoverObjectKey(ctx, template.ID, objectKey); err != nil {
		return "", err
	}
	return uploadURL, nil
}

// --- helpers ---

// ensureShare returns the template's existing share or mints a new token.
func (s *templateService) ensureShare(ctx context.Context, templateID, userID primitive.ObjectID) (*domain.Share, error) {
	share, err := s.shareRepo.GetByTemplateID(ctx, templateID)
	if err == nil {
		return share, nil
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return nil, err
	}

	share = &domain.Share{
		TemplateID:   templateID,
		IssuerUserID: userID,
		URLToken:     uuid.NewString(),
	}
	shareID, err := s.shareRepo.Create(ctx, share)
	if err != nil {
		// Lost a race with a concurrent publish: the unique token index
		// rejected us, the winner's share is the one to hand out.
		if errors.Is(err, repository.ErrDuplicate) {
			return s.shareRepo.GetByTemplateID(ctx, templateID)
		}
		return nil, err
	}
	share.ID = shareID
	return share, nil
}

func (s *templateService) shareURL(token string) string {
	return strings.TrimRight(s.shareBaseURL, "/") + "/" + token
}

// buildOutline condenses the schedule into per-day highlight lists. A plan
// without a stored schedule publishes with an empty outline.
func (s *templateService) buildOutline(ctx context.Context, planID primitive.ObjectID) []domain.TemplateDayOutline {
	outline := []domain.TemplateDayOutline{}
	schedule, err := s.scheduleRepo.GetByPlanID(ctx, planID)
	if err != nil {
		return outline
	}
	for _, day := range schedule.Days {
		highlights := make([]string, 0, len(day.Details))
		for _, detail := range day.Details {
			highlights = append(highlights, detail.Activity)
		}
		outline = append(outline, domain.TemplateDayOutline{Day: day.Day, Highlights: highlights})
	}
	return outline
}

// collectChecklistNames flattens the plan's checklist into item names for the
// public view. Soft-deleted entries are already filtered by the repository.
func (s *templateService) collectChecklistNames(ctx context.Context, planID primitive.ObjectID) []string {
	checklist, err := s.checklistRepo.GetByPlanID(ctx, planID)
	if err != nil {
		return nil
	}
	entries, err := s.checklistRepo.GetItems(ctx, checklist.ID)
	if err != nil {
		return nil
	}
	itemIDs := make([]primitive.ObjectID, 0, len(entries))
	for _, entry := range entries {
		itemIDs = append(itemIDs, entry.ItemID)
	}
	items, err := s.masterRepo.GetItemsByIDs(ctx, itemIDs)
	if err != nil {
		return nil
	}
	nameByID := make(map[primitive.ObjectID]string, len(items))
	for _, item := range items {
		nameByID[item.ID] = item.Name
	}
	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		if name, ok := nameByID[entry.ItemID]; ok && name != "" {
			names = append(names, name)
		}
	}
	return names
}
