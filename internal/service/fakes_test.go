// internal/service/fakes_test.go
//
// In-memory fakes for the repository, generator and lodging interfaces.
// Each fake can snapshot and restore its state, which is how the fake
// transaction runner simulates rollback.
package service

import (
	"context"
	"time"

	"okuda/tabi-planner/internal/domain"
	"okuda/tabi-planner/internal/generator"
	"okuda/tabi-planner/internal/repository"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// snapshotter is implemented by every fake store; snapshot returns a restore
// closure.
type snapshotter interface {
	snapshot() func()
}

// fakeTxRunner snapshots every registered store before running fn and
// restores all of them when fn fails, mimicking an aborted transaction.
type fakeTxRunner struct {
	stores []snapshotter
}

func (r *fakeTxRunner) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	restores := make([]func(), 0, len(r.stores))
	for _, store := range r.stores {
		restores = append(restores, store.snapshot())
	}
	if err := fn(ctx); err != nil {
		for _, restore := range restores {
			restore()
		}
		return err
	}
	return nil
}

// --- users ---

type fakeUserRepo struct {
	users map[primitive.ObjectID]domain.User
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: map[primitive.ObjectID]domain.User{}}
}

func (r *fakeUserRepo) Create(ctx context.Context, user *domain.User) (primitive.ObjectID, error) {
	for _, existing := range r.users {
		if existing.Email == user.Email {
			return primitive.NilObjectID, repository.ErrDuplicate
		}
	}
	user.ID = primitive.NewObjectID()
	r.users[user.ID] = *user
	return user.ID, nil
}

func (r *fakeUserRepo) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	for _, user := range r.users {
		if user.Email == email {
			u := user
			return &u, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *fakeUserRepo) GetByID(ctx context.Context, id primitive.ObjectID) (*domain.User, error) {
	user, ok := r.users[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	u := user
	return &u, nil
}

func (r *fakeUserRepo) snapshot() func() {
	saved := make(map[primitive.ObjectID]domain.User, len(r.users))
	for id, user := range r.users {
		saved[id] = user
	}
	return func() { r.users = saved }
}

// --- plans ---

type fakePlanRepo struct {
	plans map[primitive.ObjectID]domain.Plan
}

func newFakePlanRepo() *fakePlanRepo {
	return &fakePlanRepo{plans: map[primitive.ObjectID]domain.Plan{}}
}

func (r *fakePlanRepo) Create(ctx context.Context, plan *domain.Plan) (primitive.ObjectID, error) {
	plan.ID = primitive.NewObjectID()
	if plan.Title == "" {
		plan.Title = domain.DefaultPlanTitle
	}
	r.plans[plan.ID] = *plan
	return plan.ID, nil
}

func (r *fakePlanRepo) GetByID(ctx context.Context, id primitive.ObjectID) (*domain.Plan, error) {
	plan, ok := r.plans[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	p := plan
	return &p, nil
}

func (r *fakePlanRepo) GetByOwner(ctx context.Context, id, userID primitive.ObjectID) (*domain.Plan, error) {
	plan, ok := r.plans[id]
	if !ok || plan.UserID != userID {
		return nil, repository.ErrNotFound
	}
	p := plan
	return &p, nil
}

func (r *fakePlanRepo) GetByUserID(ctx context.Context, userID primitive.ObjectID) ([]domain.Plan, error) {
	result := []domain.Plan{}
	for _, plan := range r.plans {
		if plan.UserID == userID {
			result = append(result, plan)
		}
	}
	return result, nil
}

func (r *fakePlanRepo) SetLodgingSelection(ctx context.Context, id primitive.ObjectID, candidateID string) error {
	plan, ok := r.plans[id]
	if !ok {
		return repository.ErrNotFound
	}
	selected := candidateID
	plan.Lodging.SelectedID = &selected
	r.plans[id] = plan
	return nil
}

func (r *fakePlanRepo) Delete(ctx context.Context, id primitive.ObjectID) error {
	if _, ok := r.plans[id]; !ok {
		return repository.ErrNotFound
	}
	delete(r.plans, id)
	return nil
}

func (r *fakePlanRepo) snapshot() func() {
	saved := make(map[primitive.ObjectID]domain.Plan, len(r.plans))
	for id, plan := range r.plans {
		saved[id] = plan
	}
	return func() { r.plans = saved }
}

// --- transport snapshots ---

type fakeTransportRepo struct {
	rows []domain.TransportSnapshot
}

func (r *fakeTransportRepo) CreateMany(ctx context.Context, snapshots []domain.TransportSnapshot) error {
	for _, snapshot := range snapshots {
		snapshot.ID = primitive.NewObjectID()
		r.rows = append(r.rows, snapshot)
	}
	return nil
}

func (r *fakeTransportRepo) GetByPlanID(ctx context.Context, planID primitive.ObjectID) ([]domain.TransportSnapshot, error) {
	result := []domain.TransportSnapshot{}
	for _, row := range r.rows {
		if row.PlanID == planID {
			result = append(result, row)
		}
	}
	return result, nil
}

func (r *fakeTransportRepo) SelectExclusive(ctx context.Context, planID primitive.ObjectID, label domain.TransportLabel) error {
	for i := range r.rows {
		if r.rows[i].PlanID == planID {
			r.rows[i].IsSelected = r.rows[i].Label == label
		}
	}
	return nil
}

func (r *fakeTransportRepo) DeleteByPlanID(ctx context.Context, planID primitive.ObjectID) error {
	kept := r.rows[:0]
	for _, row := range r.rows {
		if row.PlanID != planID {
			kept = append(kept, row)
		}
	}
	r.rows = kept
	return nil
}

func (r *fakeTransportRepo) snapshot() func() {
	saved := append([]domain.TransportSnapshot(nil), r.rows...)
	return func() { r.rows = saved }
}

// --- schedules ---

type fakeScheduleRepo struct {
	rows      []domain.Schedule
	createErr error // set to force transaction rollback
}

func (r *fakeScheduleRepo) Create(ctx context.Context, schedule *domain.Schedule) (primitive.ObjectID, error) {
	if r.createErr != nil {
		return primitive.NilObjectID, r.createErr
	}
	schedule.ID = primitive.NewObjectID()
	r.rows = append(r.rows, *schedule)
	return schedule.ID, nil
}

func (r *fakeScheduleRepo) GetByPlanID(ctx context.Context, planID primitive.ObjectID) (*domain.Schedule, error) {
	for _, row := range r.rows {
		if row.PlanID == planID {
			s := row
			return &s, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *fakeScheduleRepo) DeleteByPlanID(ctx context.Context, planID primitive.ObjectID) error {
	kept := r.rows[:0]
	for _, row := range r.rows {
		if row.PlanID != planID {
			kept = append(kept, row)
		}
	}
	r.rows = kept
	return nil
}

func (r *fakeScheduleRepo) snapshot() func() {
	saved := append([]domain.Schedule(nil), r.rows...)
	return func() { r.rows = saved }
}

// --- checklists ---

type fakeChecklistRepo struct {
	checklists map[primitive.ObjectID]domain.Checklist
	items      []domain.ChecklistItem
	itemsErr   error // set to force transaction rollback on CreateItems
}

func newFakeChecklistRepo() *fakeChecklistRepo {
	return &fakeChecklistRepo{checklists: map[primitive.ObjectID]domain.Checklist{}}
}

func (r *fakeChecklistRepo) Create(ctx context.Context, checklist *domain.Checklist) (primitive.ObjectID, error) {
	checklist.ID = primitive.NewObjectID()
	r.checklists[checklist.ID] = *checklist
	return checklist.ID, nil
}

func (r *fakeChecklistRepo) GetByPlanID(ctx context.Context, planID primitive.ObjectID) (*domain.Checklist, error) {
	for _, checklist := range r.checklists {
		if checklist.PlanID == planID {
			c := checklist
			return &c, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *fakeChecklistRepo) CreateItems(ctx context.Context, items []domain.ChecklistItem) error {
	if r.itemsErr != nil {
		return r.itemsErr
	}
	for i := range items {
		items[i].ID = primitive.NewObjectID()
		r.items = append(r.items, items[i])
	}
	return nil
}

func (r *fakeChecklistRepo) GetItems(ctx context.Context, checklistID primitive.ObjectID) ([]domain.ChecklistItem, error) {
	result := []domain.ChecklistItem{}
	for _, item := range r.items {
		if item.ChecklistID == checklistID && !item.Deleted {
			result = append(result, item)
		}
	}
	return result, nil
}

func (r *fakeChecklistRepo) GetItemByID(ctx context.Context, id primitive.ObjectID) (*domain.ChecklistItem, error) {
	for _, item := range r.items {
		if item.ID == id && !item.Deleted {
			i := item
			return &i, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *fakeChecklistRepo) UpdateItem(ctx context.Context, item *domain.ChecklistItem) error {
	for i := range r.items {
		if r.items[i].ID == item.ID {
			r.items[i] = *item
			return nil
		}
	}
	return repository.ErrNotFound
}

func (r *fakeChecklistRepo) SoftDeleteItem(ctx context.Context, id primitive.ObjectID) error {
	for i := range r.items {
		if r.items[i].ID == id {
			r.items[i].Deleted = true
			return nil
		}
	}
	return repository.ErrNotFound
}

func (r *fakeChecklistRepo) DeleteByPlanID(ctx context.Context, planID primitive.ObjectID) error {
	for id, checklist := range r.checklists {
		if checklist.PlanID != planID {
			continue
		}
		delete(r.checklists, id)
		kept := r.items[:0]
		for _, item := range r.items {
			if item.ChecklistID != id {
				kept = append(kept, item)
			}
		}
		r.items = kept
	}
	return nil
}

func (r *fakeChecklistRepo) snapshot() func() {
	savedChecklists := make(map[primitive.ObjectID]domain.Checklist, len(r.checklists))
	for id, checklist := range r.checklists {
		savedChecklists[id] = checklist
	}
	savedItems := append([]domain.ChecklistItem(nil), r.items...)
	return func() {
		r.checklists = savedChecklists
		r.items = savedItems
	}
}

// --- master data ---

type fakeMasterRepo struct {
	categories map[string]domain.Category
	items      map[string]domain.Item
}

func newFakeMasterRepo() *fakeMasterRepo {
	return &fakeMasterRepo{
		categories: map[string]domain.Category{},
		items:      map[string]domain.Item{},
	}
}

func (r *fakeMasterRepo) GetOrCreateCategory(ctx context.Context, name string) (*domain.Category, error) {
	if category, ok := r.categories[name]; ok {
		c := category
		return &c, nil
	}
	category := domain.Category{ID: primitive.NewObjectID(), Name: name}
	r.categories[name] = category
	return &category, nil
}

func (r *fakeMasterRepo) GetOrCreateItem(ctx context.Context, name string, categoryID *primitive.ObjectID) (*domain.Item, error) {
	if item, ok := r.items[name]; ok {
		i := item
		return &i, nil
	}
	item := domain.Item{ID: primitive.NewObjectID(), Name: name, CategoryID: categoryID, DefaultQty: 1}
	r.items[name] = item
	return &item, nil
}

func (r *fakeMasterRepo) GetItemsByIDs(ctx context.Context, ids []primitive.ObjectID) ([]domain.Item, error) {
	wanted := make(map[primitive.ObjectID]bool, len(ids))
	for _, id := range ids {
		wanted[id] = true
	}
	result := []domain.Item{}
	for _, item := range r.items {
		if wanted[item.ID] {
			result = append(result, item)
		}
	}
	return result, nil
}

func (r *fakeMasterRepo) GetCategoriesByIDs(ctx context.Context, ids []primitive.ObjectID) ([]domain.Category, error) {
	wanted := make(map[primitive.ObjectID]bool, len(ids))
	for _, id := range ids {
		wanted[id] = true
	}
	result := []domain.Category{}
	for _, category := range r.categories {
		if wanted[category.ID] {
			result = append(result, category)
		}
	}
	return result, nil
}

// --- templates ---

type fakeTemplateRepo struct {
	templates map[primitive.ObjectID]domain.Template
}

func newFakeTemplateRepo() *fakeTemplateRepo {
	return &fakeTemplateRepo{templates: map[primitive.ObjectID]domain.Template{}}
}

func (r *fakeTemplateRepo) Upsert(ctx context.Context, template *domain.Template) (*domain.Template, error) {
	for id, existing := range r.templates {
		if existing.PlanID == template.PlanID && existing.UserID == template.UserID {
			stored := *template
			stored.ID = id
			r.templates[id] = stored
			return &stored, nil
		}
	}
	stored := *template
	stored.ID = primitive.NewObjectID()
	r.templates[stored.ID] = stored
	return &stored, nil
}

func (r *fakeTemplateRepo) Create(ctx context.Context, template *domain.Template) (primitive.ObjectID, error) {
	template.ID = primitive.NewObjectID()
	r.templates[template.ID] = *template
	return template.ID, nil
}

func (r *fakeTemplateRepo) GetByID(ctx context.Context, id primitive.ObjectID) (*domain.Template, error) {
	template, ok := r.templates[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	t := template
	return &t, nil
}

func (r *fakeTemplateRepo) GetByPlanID(ctx context.Context, planID primitive.ObjectID) (*domain.Template, error) {
	for _, template := range r.templates {
		if template.PlanID == planID {
			t := template
			return &t, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *fakeTemplateRepo) SetCoverObjectKey(ctx context.Context, id primitive.ObjectID, objectKey string) error {
	template, ok := r.templates[id]
	if !ok {
		return repository.ErrNotFound
	}
	template.CoverObjectKey = objectKey
	r.templates[id] = template
	return nil
}

func (r *fakeTemplateRepo) DeleteByPlanID(ctx context.Context, planID primitive.ObjectID) error {
	for id, template := range r.templates {
		if template.PlanID == planID {
			delete(r.templates, id)
		}
	}
	return nil
}

func (r *fakeTemplateRepo) snapshot() func() {
	saved := make(map[primitive.ObjectID]domain.Template, len(r.templates))
	for id, template := range r.templates {
		saved[id] = template
	}
	return func() { r.templates = saved }
}

// --- shares ---

type fakeShareRepo struct {
	shares map[primitive.ObjectID]domain.Share
}

func newFakeShareRepo() *fakeShareRepo {
	return &fakeShareRepo{shares: map[primitive.ObjectID]domain.Share{}}
}

func (r *fakeShareRepo) Create(ctx context.Context, share *domain.Share) (primitive.ObjectID, error) {
	for _, existing := range r.shares {
		if existing.URLToken == share.URLToken {
			return primitive.NilObjectID, repository.ErrDuplicate
		}
	}
	share.ID = primitive.NewObjectID()
	r.shares[share.ID] = *share
	return share.ID, nil
}

func (r *fakeShareRepo) GetByTemplateID(ctx context.Context, templateID primitive.ObjectID) (*domain.Share, error) {
	for _, share := range r.shares {
		if share.TemplateID == templateID {
			s := share
			return &s, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *fakeShareRepo) GetByToken(ctx context.Context, token string) (*domain.Share, error) {
	for _, share := range r.shares {
		if share.URLToken == token {
			s := share
			return &s, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *fakeShareRepo) IncrementAccessCount(ctx context.Context, id primitive.ObjectID) error {
	share, ok := r.shares[id]
	if !ok {
		return repository.ErrNotFound
	}
	share.AccessCount++
	r.shares[id] = share
	return nil
}

func (r *fakeShareRepo) DeleteByTemplateID(ctx context.Context, templateID primitive.ObjectID) error {
	for id, share := range r.shares {
		if share.TemplateID == templateID {
			delete(r.shares, id)
		}
	}
	return nil
}

func (r *fakeShareRepo) snapshot() func() {
	saved := make(map[primitive.ObjectID]domain.Share, len(r.shares))
	for id, share := range r.shares {
		saved[id] = share
	}
	return func() { r.shares = saved }
}

// --- collaborators ---

type fakeGenerator struct {
	planPayload      []byte
	planErr          error
	checklistPayload []byte
	checklistErr     error
	lastSummary      string
}

func (g *fakeGenerator) GeneratePlan(ctx context.Context, req generator.PlanRequest) ([]byte, error) {
	return g.planPayload, g.planErr
}

func (g *fakeGenerator) GenerateChecklist(ctx context.Context, planSummary string) ([]byte, error) {
	g.lastSummary = planSummary
	return g.checklistPayload, g.checklistErr
}

type fakeSearcher struct {
	results  map[string][]domain.LodgingCandidate
	err      error
	keywords []string
}

func (s *fakeSearcher) Search(ctx context.Context, keyword string) ([]domain.LodgingCandidate, error) {
	s.keywords = append(s.keywords, keyword)
	if s.err != nil {
		return nil, s.err
	}
	return s.results[keyword], nil
}

// --- storage ---

type fakeFileStorage struct {
	uploadedKeys []string
	deletedKeys  []string
}

func (f *fakeFileStorage) GeneratePresignedUploadURL(ctx context.Context, objectKey string, contentType string, expires time.Duration) (string, error) {
	f.uploadedKeys = append(f.uploadedKeys, objectKey)
	return "https://storage.test/upload/" + objectKey, nil
}

func (f *fakeFileStorage) GeneratePresignedDownloadURL(ctx context.Context, objectKey string, expires time.Duration) (string, error) {
	return "https://storage.test/download/" + objectKey, nil
}

func (f *fakeFileStorage) DeleteObject(ctx context.Context, objectKey string) error {
	f.deletedKeys = append(f.deletedKeys, objectKey)
	return nil
}
