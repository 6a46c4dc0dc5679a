// internal/service/template_service_test.go
package service

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"okuda/tabi-planner/internal/domain"
)

const testShareBase = "https://tabi.example.com/shared/"

type templateFixture struct {
	*planFixture
	masterRepo  *fakeMasterRepo
	fileStorage *fakeFileStorage
	svc         TemplateService
	export      ExportService
}

func newTemplateFixture(t *testing.T) *templateFixture {
	t.Helper()
	pf := newPlanFixture(t)
	masterRepo := newFakeMasterRepo()
	fileStorage := &fakeFileStorage{}
	return &templateFixture{
		planFixture: pf,
		masterRepo:  masterRepo,
		fileStorage: fileStorage,
		svc: NewTemplateService(
			pf.planRepo, pf.scheduleRepo, pf.checklistRepo, masterRepo,
			pf.templateRepo, pf.shareRepo, fileStorage, testShareBase,
		),
		export: NewExportService(pf.templateRepo, pf.shareRepo, testShareBase),
	}
}

func TestPublishCreatesTemplateAndShare(t *testing.T) {
	f := newTemplateFixture(t)
	plan := f.createOsakaPlan(t)
	sess := domain.PlanSession{PlanID: plan.ID, UserID: f.userID}

	result, err := f.svc.Publish(context.Background(), sess)
	if err != nil {
		t.Fatalf("Publish: %v", err)
	}

	if result.Template.PublishStatus != domain.PublishPublic {
		t.Errorf("published template must be public, got %q", result.Template.PublishStatus)
	}
	if result.Template.Title != "Osaka Food Weekend" {
		t.Errorf("template title must mirror the plan, got %q", result.Template.Title)
	}
	if len(result.Template.Outline) != 2 {
		t.Errorf("expected a 2-day outline, got %d", len(result.Template.Outline))
	}
	if result.Share.URLToken == "" {
		t.Fatalf("publish must mint a share token")
	}
	if !strings.HasPrefix(result.ShareURL, testShareBase) || !strings.HasSuffix(result.ShareURL, result.Share.URLToken) {
		t.Errorf("share URL must be base + token, got %q", result.ShareURL)
	}
}

func TestRepublishReusesShareToken(t *testing.T) {
	f := newTemplateFixture(t)
	plan := f.createOsakaPlan(t)
	sess := domain.PlanSession{PlanID: plan.ID, UserID: f.userID}
	ctx := context.Background()

	first, err := f.svc.Publish(ctx, sess)
	if err != nil {
		t.Fatalf("first Publish: %v", err)
	}
	second, err := f.svc.Publish(ctx, sess)
	if err != nil {
		t.Fatalf("second Publish: %v", err)
	}

	if second.Share.URLToken != first.Share.URLToken {
		t.Errorf("re-publish must keep the share URL valid: %q vs %q", first.Share.URLToken, second.Share.URLToken)
	}
	if second.Template.ID != first.Template.ID {
		t.Errorf("re-publish must update in place, not duplicate templates")
	}
	if len(f.templateRepo.templates) != 1 || len(f.shareRepo.shares) != 1 {
		t.Errorf("expected 1 template and 1 share, got %d/%d", len(f.templateRepo.templates), len(f.shareRepo.shares))
	}
}

func TestResolveShareCountsAccess(t *testing.T) {
	f := newTemplateFixture(t)
	plan := f.createOsakaPlan(t)
	sess := domain.PlanSession{PlanID: plan.ID, UserID: f.userID}
	ctx := context.Background()

	result, err := f.svc.Publish(ctx, sess)
	if err != nil {
		t.Fatalf("Publish: %v", err)
	}

	for i := 0; i < 3; i++ {
		view, err := f.svc.ResolveShare(ctx, result.Share.URLToken)
		if err != nil {
			t.Fatalf("ResolveShare %d: %v", i, err)
		}
		if view.Template.ID != result.Template.ID {
			t.Errorf("resolved wrong template")
		}
	}

	share, _ := f.shareRepo.GetByToken(ctx, result.Share.URLToken)
	if share.AccessCount != 3 {
		t.Errorf("expected 3 counted accesses, got %d", share.AccessCount)
	}
}

func TestResolveShareHidesPrivateAndUnknown(t *testing.T) {
	f := newTemplateFixture(t)
	plan := f.createOsakaPlan(t)
	sess := domain.PlanSession{PlanID: plan.ID, UserID: f.userID}
	ctx := context.Background()

	result, err := f.svc.Publish(ctx, sess)
	if err != nil {
		t.Fatalf("Publish: %v", err)
	}

	if _, err := f.svc.ResolveShare(ctx, "no-such-token"); !errors.Is(err, ErrShareNotFound) {
		t.Errorf("unknown token: expected ErrShareNotFound, got %v", err)
	}

	if err := f.svc.Unpublish(ctx, sess); err != nil {
		t.Fatalf("Unpublish: %v", err)
	}
	// Unknown and private tokens must be indistinguishable to a reader.
	if _, err := f.svc.ResolveShare(ctx, result.Share.URLToken); !errors.Is(err, ErrShareNotFound) {
		t.Errorf("private template: expected ErrShareNotFound, got %v", err)
	}

	// Re-publishing restores the original URL.
	again, err := f.svc.Publish(ctx, sess)
	if err != nil {
		t.Fatalf("re-Publish: %v", err)
	}
	if again.Share.URLToken != result.Share.URLToken {
		t.Errorf("re-publish after unpublish must restore the same token")
	}
	if _, err := f.svc.ResolveShare(ctx, result.Share.URLToken); err != nil {
		t.Errorf("restored share must resolve: %v", err)
	}
}

func TestPublishIncludesChecklistNames(t *testing.T) {
	f := newTemplateFixture(t)
	plan := f.createOsakaPlan(t)
	sess := domain.PlanSession{PlanID: plan.ID, UserID: f.userID}
	ctx := context.Background()

	checklistID, _ := f.checklistRepo.Create(ctx, &domain.Checklist{PlanID: plan.ID, Title: "Packing", Status: domain.ChecklistDraft})
	passport, _ := f.masterRepo.GetOrCreateItem(ctx, "Passport", nil)
	f.checklistRepo.CreateItems(ctx, []domain.ChecklistItem{
		{ChecklistID: checklistID, ItemID: passport.ID, Qty: 1},
	})

	result, err := f.svc.Publish(ctx, sess)
	if err != nil {
		t.Fatalf("Publish: %v", err)
	}
	if len(result.Template.ChecklistNames) != 1 || result.Template.ChecklistNames[0] != "Passport" {
		t.Errorf("expected checklist names [Passport], got %v", result.Template.ChecklistNames)
	}
}

func TestCoverUploadFlow(t *testing.T) {
	f := newTemplateFixture(t)
	plan := f.createOsakaPlan(t)
	sess := domain.PlanSession{PlanID: plan.ID, UserID: f.userID}
	ctx := context.Background()

	result, err := f.svc.Publish(ctx, sess)
	if err != nil {
		t.Fatalf("Publish: %v", err)
	}

	uploadURL, err := f.svc.CoverUploadURL(ctx, sess, "image/jpeg")
	if err != nil {
		t.Fatalf("CoverUploadURL: %v", err)
	}
	if uploadURL == "" || len(f.fileStorage.uploadedKeys) != 1 {
		t.Fatalf("expected one presigned upload, got %q / %v", uploadURL, f.fileStorage.uploadedKeys)
	}

	view, err := f.svc.ResolveShare(ctx, result.Share.URLToken)
	if err != nil {
		t.Fatalf("ResolveShare: %v", err)
	}
	if !strings.Contains(view.CoverImageURL, f.fileStorage.uploadedKeys[0]) {
		t.Errorf("shared view must presign the uploaded cover, got %q", view.CoverImageURL)
	}

	// The cover key survives a re-publish.
	again, err := f.svc.Publish(ctx, sess)
	if err != nil {
		t.Fatalf("re-Publish: %v", err)
	}
	if again.Template.CoverObjectKey != f.fileStorage.uploadedKeys[0] {
		t.Errorf("re-publish dropped the cover key, got %q", again.Template.CoverObjectKey)
	}
}

func TestShareExportArtifacts(t *testing.T) {
	f := newTemplateFixture(t)
	plan := f.createOsakaPlan(t)
	sess := domain.PlanSession{PlanID: plan.ID, UserID: f.userID}
	ctx := context.Background()

	result, err := f.svc.Publish(ctx, sess)
	if err != nil {
		t.Fatalf("Publish: %v", err)
	}

	pdf, filename, err := f.export.SharePDF(ctx, result.Share.URLToken)
	if err != nil {
		t.Fatalf("SharePDF: %v", err)
	}
	if !bytes.HasPrefix(pdf, []byte("%PDF")) {
		t.Errorf("expected a PDF document, got %q...", pdf[:min(8, len(pdf))])
	}
	if !strings.HasSuffix(filename, ".pdf") {
		t.Errorf("unexpected filename %q", filename)
	}

	png, err := f.export.ShareQR(ctx, result.Share.URLToken)
	if err != nil {
		t.Fatalf("ShareQR: %v", err)
	}
	if !bytes.HasPrefix(png, []byte("\x89PNG")) {
		t.Errorf("expected a PNG image")
	}

	// Exports must not count as page accesses.
	share, _ := f.shareRepo.GetByToken(ctx, result.Share.URLToken)
	if share.AccessCount != 0 {
		t.Errorf("exports must not touch the access counter, got %d", share.AccessCount)
	}

	if err := f.svc.Unpublish(ctx, sess); err != nil {
		t.Fatalf("Unpublish: %v", err)
	}
	if _, _, err := f.export.SharePDF(ctx, result.Share.URLToken); !errors.Is(err, ErrShareNotFound) {
		t.Errorf("private template must not export, got %v", err)
	}
}
