package service

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"time"

	"cinreq/internal/domain"
	"cinreq/internal/domain/models"
	"cinreq/internal/domain/repositories"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// callRecorder collects repository calls across fakes so tests can assert
// ordering between repositories (e.g. deactivate before delete).
type callRecorder struct {
	calls []string
}

func (r *callRecorder) record(call string) {
	r.calls = append(r.calls, call)
}

func (r *callRecorder) indexOf(call string) int {
	for i, c := range r.calls {
		if c == call {
			return i
		}
	}
	return -1
}

// fakeTxManager runs the function directly and counts invocations.
type fakeTxManager struct {
	calls int
	fail  bool
}

func (m *fakeTxManager) ExecTx(ctx context.Context, fn repositories.TxFn) error {
	m.calls++
	if m.fail {
		return fmt.Errorf("begin transaction: connection refused")
	}
	return fn(ctx)
}

type fakeDocRepo struct {
	rec  *callRecorder
	docs map[string]models.Document
	seq  int
}

func (r *fakeDocRepo) Create(_ context.Context, doc *models.Document) error {
	r.seq++
	if doc.ID == "" {
		doc.ID = fmt.Sprintf("doc-%d", r.seq)
	}
	doc.CreatedAt = time.Now().UTC()
	doc.UpdatedAt = doc.CreatedAt
	r.docs[doc.ID] = *doc
	return nil
}

func (r *fakeDocRepo) GetByID(_ context.Context, id string) (*models.Document, error) {
	doc, ok := r.docs[id]
	if !ok {
		return nil, fmt.Errorf("document %s: %w", id, domain.ErrNotFound)
	}
	out := doc
	return &out, nil
}

func (r *fakeDocRepo) List(_ context.Context) ([]models.Document, error) {
	out := make([]models.Document, 0, len(r.docs))
	for _, doc := range r.docs {
		out = append(out, doc)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UpdatedAt.After(out[j].UpdatedAt) })
	return out, nil
}

func (r *fakeDocRepo) Update(_ context.Context, doc *models.Document) error {
	if _, ok := r.docs[doc.ID]; !ok {
		return fmt.Errorf("document %s: %w", doc.ID, domain.ErrNotFound)
	}
	doc.UpdatedAt = time.Now().UTC()
	r.docs[doc.ID] = *doc
	return nil
}

func (r *fakeDocRepo) Delete(_ context.Context, id string) error {
	if _, ok := r.docs[id]; !ok {
		return fmt.Errorf("document %s: %w", id, domain.ErrNotFound)
	}
	delete(r.docs, id)
	return nil
}

type fakeVersionRepo struct {
	versions []models.DocumentVersion
	seq      int
}

func (r *fakeVersionRepo) Create(_ context.Context, version *models.DocumentVersion) error {
	r.seq++
	version.ID = fmt.Sprintf("v-%d", r.seq)
	version.CreatedAt = time.Now().UTC()
	r.versions = append(r.versions, *version)
	return nil
}

func (r *fakeVersionRepo) ListByDocument(_ context.Context, documentID string) ([]models.DocumentVersion, error) {
	out := make([]models.DocumentVersion, 0)
	for i := len(r.versions) - 1; i >= 0; i-- {
		if r.versions[i].DocumentID == documentID {
			out = append(out, r.versions[i])
		}
	}
	return out, nil
}

func (r *fakeVersionRepo) GetByNumber(_ context.Context, documentID string, versionNumber int) (*models.DocumentVersion, error) {
	for i := range r.versions {
		if r.versions[i].DocumentID == documentID && r.versions[i].VersionNumber == versionNumber {
			out := r.versions[i]
			return &out, nil
		}
	}
	return nil, fmt.Errorf("version %d of document %s: %w", versionNumber, documentID, domain.ErrNotFound)
}

type fakeSectionRepo struct {
	rec      *callRecorder
	sections map[string]models.Section
	seq      int
	clock    time.Time
}

func (r *fakeSectionRepo) Create(_ context.Context, section *models.Section) error {
	r.seq++
	if section.ID == "" {
		section.ID = fmt.Sprintf("s-%d", r.seq)
	}
	// Distinct creation times keep sibling tie-breaking deterministic.
	r.clock = r.clock.Add(time.Second)
	section.CreatedAt = r.clock
	section.UpdatedAt = r.clock
	r.sections[section.ID] = *section
	r.rec.record("createSection:" + section.ID)
	return nil
}

func (r *fakeSectionRepo) GetByID(_ context.Context, id, documentID string) (*models.Section, error) {
	section, ok := r.sections[id]
	if !ok || section.DocumentID != documentID {
		return nil, fmt.Errorf("section %s: %w", id, domain.ErrNotFound)
	}
	out := section
	return &out, nil
}

func (r *fakeSectionRepo) ListByDocument(_ context.Context, documentID string) ([]models.Section, error) {
	out := make([]models.Section, 0)
	for _, section := range r.sections {
		if section.DocumentID == documentID {
			out = append(out, section)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (r *fakeSectionRepo) Update(_ context.Context, section *models.Section) error {
	if _, ok := r.sections[section.ID]; !ok {
		return fmt.Errorf("section %s: %w", section.ID, domain.ErrNotFound)
	}
	section.UpdatedAt = time.Now().UTC()
	r.sections[section.ID] = *section
	r.rec.record("updateSection:" + section.ID)
	return nil
}

func (r *fakeSectionRepo) Delete(_ context.Context, id, documentID string) error {
	section, ok := r.sections[id]
	if !ok || section.DocumentID != documentID {
		return fmt.Errorf("section %s: %w", id, domain.ErrNotFound)
	}
	delete(r.sections, id)
	r.rec.record("deleteSection:" + id)
	return nil
}

// fakeBindingRepo models a single document's bindings, which is all the
// service tests need.
type fakeBindingRepo struct {
	rec        *callRecorder
	bindings   []models.SectionBinding
	seq        int
	failCreate bool
}

func (r *fakeBindingRepo) Create(_ context.Context, binding *models.SectionBinding) error {
	r.rec.record("createBinding:" + binding.SectionID)
	if r.failCreate {
		return fmt.Errorf("insert binding: connection refused")
	}
	r.seq++
	binding.ID = fmt.Sprintf("b-%d", r.seq)
	binding.IsActive = true
	binding.CreatedAt = time.Now().UTC()
	r.bindings = append(r.bindings, *binding)
	return nil
}

func (r *fakeBindingRepo) GetByID(_ context.Context, id, _ string) (*models.SectionBinding, error) {
	for i := range r.bindings {
		if r.bindings[i].ID == id {
			out := r.bindings[i]
			return &out, nil
		}
	}
	return nil, fmt.Errorf("binding %s: %w", id, domain.ErrNotFound)
}

func (r *fakeBindingRepo) ListActiveByDocument(_ context.Context, _ string) ([]models.SectionBinding, error) {
	var out []models.SectionBinding
	for i := range r.bindings {
		if r.bindings[i].IsActive {
			out = append(out, r.bindings[i])
		}
	}
	return out, nil
}

func (r *fakeBindingRepo) ListActiveBySection(_ context.Context, sectionID string) ([]models.SectionBinding, error) {
	var out []models.SectionBinding
	for i := range r.bindings {
		if r.bindings[i].IsActive && r.bindings[i].SectionID == sectionID {
			out = append(out, r.bindings[i])
		}
	}
	return out, nil
}

func (r *fakeBindingRepo) Update(_ context.Context, binding *models.SectionBinding) error {
	for i := range r.bindings {
		if r.bindings[i].ID == binding.ID {
			r.bindings[i] = *binding
			return nil
		}
	}
	return fmt.Errorf("binding %s: %w", binding.ID, domain.ErrNotFound)
}

func (r *fakeBindingRepo) DeactivateByDocument(_ context.Context, documentID string) (int, error) {
	r.rec.record("deactivateByDocument:" + documentID)
	return r.deactivate(func(models.SectionBinding) bool { return true }), nil
}

func (r *fakeBindingRepo) DeactivateBySection(_ context.Context, sectionID string) (int, error) {
	r.rec.record("deactivateBySection:" + sectionID)
	return r.deactivate(func(b models.SectionBinding) bool { return b.SectionID == sectionID }), nil
}

func (r *fakeBindingRepo) deactivate(match func(models.SectionBinding) bool) int {
	now := time.Now().UTC()
	count := 0
	for i := range r.bindings {
		if r.bindings[i].IsActive && match(r.bindings[i]) {
			r.bindings[i].IsActive = false
			r.bindings[i].DeactivatedAt = &now
			count++
		}
	}
	return count
}

type fakeSessionRepo struct {
	sessions map[string]models.Session
	seq      int
}

func (r *fakeSessionRepo) Create(_ context.Context, session *models.Session) error {
	r.seq++
	session.ID = fmt.Sprintf("sess-%d", r.seq)
	session.CreatedAt = time.Now().UTC()
	session.UpdatedAt = session.CreatedAt
	r.sessions[session.ID] = *session
	return nil
}

func (r *fakeSessionRepo) GetByID(_ context.Context, id string) (*models.Session, error) {
	session, ok := r.sessions[id]
	if !ok {
		return nil, fmt.Errorf("session %s: %w", id, domain.ErrNotFound)
	}
	out := session
	return &out, nil
}

func (r *fakeSessionRepo) ListByOwner(_ context.Context, ownerID string) ([]models.Session, error) {
	out := make([]models.Session, 0)
	for _, session := range r.sessions {
		if session.OwnerID == ownerID {
			out = append(out, session)
		}
	}
	return out, nil
}

func (r *fakeSessionRepo) Update(_ context.Context, session *models.Session) error {
	if _, ok := r.sessions[session.ID]; !ok {
		return fmt.Errorf("session %s: %w", session.ID, domain.ErrNotFound)
	}
	session.UpdatedAt = time.Now().UTC()
	r.sessions[session.ID] = *session
	return nil
}

func (r *fakeSessionRepo) Delete(_ context.Context, id string) error {
	if _, ok := r.sessions[id]; !ok {
		return fmt.Errorf("session %s: %w", id, domain.ErrNotFound)
	}
	delete(r.sessions, id)
	return nil
}

type fakeMessageRepo struct {
	messages []models.Message
	seq      int
}

func (r *fakeMessageRepo) Create(_ context.Context, message *models.Message) error {
	r.seq++
	message.ID = fmt.Sprintf("m-%d", r.seq)
	message.CreatedAt = time.Now().UTC()
	r.messages = append(r.messages, *message)
	return nil
}

func (r *fakeMessageRepo) GetByID(_ context.Context, id string) (*models.Message, error) {
	for i := range r.messages {
		if r.messages[i].ID == id {
			out := r.messages[i]
			return &out, nil
		}
	}
	return nil, fmt.Errorf("message %s: %w", id, domain.ErrNotFound)
}

func (r *fakeMessageRepo) ListBySession(_ context.Context, sessionID string) ([]models.Message, error) {
	out := make([]models.Message, 0)
	for i := range r.messages {
		if r.messages[i].SessionID == sessionID {
			out = append(out, r.messages[i])
		}
	}
	return out, nil
}

// fixture wires every fake repository together the way main wires the real
// ones, sharing one call recorder.
type fixture struct {
	rec      *callRecorder
	docs     *fakeDocRepo
	versions *fakeVersionRepo
	sections *fakeSectionRepo
	bindings *fakeBindingRepo
	sessions *fakeSessionRepo
	messages *fakeMessageRepo
	tx       *fakeTxManager
}

func newFixture() *fixture {
	rec := &callRecorder{}
	return &fixture{
		rec:      rec,
		docs:     &fakeDocRepo{rec: rec, docs: make(map[string]models.Document)},
		versions: &fakeVersionRepo{},
		sections: &fakeSectionRepo{rec: rec, sections: make(map[string]models.Section), clock: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)},
		bindings: &fakeBindingRepo{rec: rec},
		sessions: &fakeSessionRepo{sessions: make(map[string]models.Session)},
		messages: &fakeMessageRepo{},
		tx:       &fakeTxManager{},
	}
}

// seedDocument inserts a document directly, bypassing validation.
func (f *fixture) seedDocument(id string) {
	f.docs.docs[id] = models.Document{
		ID:             id,
		Title:          "Seeded",
		DocumentType:   models.DocumentTypeRequirements,
		Status:         models.DocumentStatusDraft,
		CurrentVersion: 1,
		CreatedByID:    "user-1",
	}
}

// seedSection inserts a section directly.
func (f *fixture) seedSection(id, documentID string, parentID *string, order int) {
	f.sections.clock = f.sections.clock.Add(time.Second)
	f.sections.sections[id] = models.Section{
		ID:            id,
		DocumentID:    documentID,
		SectionNumber: id,
		Title:         "Section " + id,
		ParentID:      parentID,
		Order:         order,
		Status:        models.SectionStatusDraft,
		CreatedAt:     f.sections.clock,
		UpdatedAt:     f.sections.clock,
	}
}

func strPtr(s string) *string { return &s }
