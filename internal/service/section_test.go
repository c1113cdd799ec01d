package service

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"cinreq/internal/domain"
	"cinreq/internal/domain/models"
	"cinreq/internal/domain/services"
)

func newSectionService(f *fixture) services.SectionService {
	return NewSectionService(f.sections, f.bindings, f.docs, f.tx, testLogger())
}

func TestCreateSectionValidation(t *testing.T) {
	f := newFixture()
	f.seedDocument("doc-1")
	svc := newSectionService(f)
	ctx := context.Background()

	tests := []struct {
		name string
		req  services.CreateSectionRequest
	}{
		{"missing title", services.CreateSectionRequest{SectionNumber: "1"}},
		{"missing section number", services.CreateSectionRequest{Title: "Overview"}},
		{"negative order", services.CreateSectionRequest{SectionNumber: "1", Title: "Overview", Order: -1}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.CreateSection(ctx, "doc-1", &tt.req)
			if !errors.Is(err, domain.ErrValidation) {
				t.Errorf("expected ErrValidation, got %v", err)
			}
		})
	}
}

func TestCreateSection(t *testing.T) {
	f := newFixture()
	f.seedDocument("doc-1")
	svc := newSectionService(f)
	ctx := context.Background()

	section, err := svc.CreateSection(ctx, "doc-1", &services.CreateSectionRequest{
		SectionNumber: "1",
		Title:         "Overview",
	})
	if err != nil {
		t.Fatalf("CreateSection: %v", err)
	}
	if section.ID == "" {
		t.Error("no ID assigned")
	}
	if section.Status != models.SectionStatusEmpty {
		t.Errorf("status = %s, want empty", section.Status)
	}
	if section.DocumentID != "doc-1" {
		t.Errorf("document_id = %s", section.DocumentID)
	}

	// Unknown document and unknown parent are both not-found, not validation
	if _, err := svc.CreateSection(ctx, "ghost", &services.CreateSectionRequest{
		SectionNumber: "1", Title: "Overview",
	}); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("unknown document: got %v", err)
	}
	if _, err := svc.CreateSection(ctx, "doc-1", &services.CreateSectionRequest{
		SectionNumber: "1.1", Title: "Child", ParentID: strPtr("ghost"),
	}); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("unknown parent: got %v", err)
	}
}

func TestGetSectionTree(t *testing.T) {
	f := newFixture()
	f.seedDocument("doc-1")
	// Seeded out of outline order; the tree must sort siblings by order.
	f.seedSection("s2", "doc-1", nil, 1)
	f.seedSection("s1", "doc-1", nil, 0)
	f.seedSection("s2b", "doc-1", strPtr("s2"), 1)
	f.seedSection("s2a", "doc-1", strPtr("s2"), 0)
	f.seedSection("s2a1", "doc-1", strPtr("s2a"), 0)
	svc := newSectionService(f)

	roots, err := svc.GetSectionTree(context.Background(), "doc-1")
	if err != nil {
		t.Fatalf("GetSectionTree: %v", err)
	}

	if len(roots) != 2 || roots[0].ID != "s1" || roots[1].ID != "s2" {
		t.Fatalf("roots out of order: %s, %s", roots[0].ID, roots[1].ID)
	}

	children := roots[1].Children
	if len(children) != 2 || children[0].ID != "s2a" || children[1].ID != "s2b" {
		t.Fatalf("s2 children out of order")
	}
	if len(children[0].Children) != 1 || children[0].Children[0].ID != "s2a1" {
		t.Error("nesting does not recurse past one level")
	}
	if len(roots[0].Children) != 0 {
		t.Error("leaf root has children")
	}
}

func TestGetSectionTreeSiblingTieBreaksOnCreation(t *testing.T) {
	f := newFixture()
	f.seedDocument("doc-1")
	f.seedSection("later", "doc-1", nil, 0)
	f.seedSection("latest", "doc-1", nil, 0)
	svc := newSectionService(f)

	roots, err := svc.GetSectionTree(context.Background(), "doc-1")
	if err != nil {
		t.Fatalf("GetSectionTree: %v", err)
	}
	if len(roots) != 2 || roots[0].ID != "later" || roots[1].ID != "latest" {
		t.Errorf("equal orders should fall back to creation time: %s, %s", roots[0].ID, roots[1].ID)
	}
}

func TestUpdateSectionParentCycle(t *testing.T) {
	f := newFixture()
	f.seedDocument("doc-1")
	f.seedSection("a", "doc-1", nil, 0)
	f.seedSection("b", "doc-1", strPtr("a"), 0)
	f.seedSection("c", "doc-1", strPtr("b"), 0)
	svc := newSectionService(f)
	ctx := context.Background()

	tests := []struct {
		name      string
		section   string
		newParent string
	}{
		{"self parent", "a", "a"},
		{"direct child", "a", "b"},
		{"deep descendant", "a", "c"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			parent := strPtr(tt.newParent)
			_, err := svc.UpdateSection(ctx, "doc-1", tt.section, &services.UpdateSectionRequest{
				ParentID: &parent,
			})
			if !errors.Is(err, domain.ErrStructuralViolation) {
				t.Fatalf("expected ErrStructuralViolation, got %v", err)
			}
			var httpErr domain.HTTPError
			if !errors.As(err, &httpErr) || httpErr.StatusCode() != 422 {
				t.Errorf("structural violation should map to 422, got %v", err)
			}
		})
	}

	// The outline was not modified by any rejected attempt
	updated, err := svc.GetSection(ctx, "doc-1", "a")
	if err != nil {
		t.Fatalf("GetSection: %v", err)
	}
	if updated.ParentID != nil {
		t.Errorf("section a was reparented: %v", *updated.ParentID)
	}
}

func TestUpdateSectionReparent(t *testing.T) {
	f := newFixture()
	f.seedDocument("doc-1")
	f.seedSection("a", "doc-1", nil, 0)
	f.seedSection("b", "doc-1", strPtr("a"), 0)
	svc := newSectionService(f)
	ctx := context.Background()

	// Missing parent is not-found, not a structural violation
	ghost := strPtr("ghost")
	if _, err := svc.UpdateSection(ctx, "doc-1", "b", &services.UpdateSectionRequest{
		ParentID: &ghost,
	}); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("missing parent: got %v", err)
	}

	// Explicit null moves to root
	var root *string
	moved, err := svc.UpdateSection(ctx, "doc-1", "b", &services.UpdateSectionRequest{
		ParentID: &root,
	})
	if err != nil {
		t.Fatalf("move to root: %v", err)
	}
	if moved.ParentID != nil {
		t.Errorf("parent_id = %v, want nil", *moved.ParentID)
	}
}

func TestUpdateSectionParentDecodedFromJSON(t *testing.T) {
	// parent_id must round-trip through the wire format: an explicit null
	// moves to root, an absent key leaves the parent unchanged.
	f := newFixture()
	f.seedDocument("doc-1")
	f.seedSection("a", "doc-1", nil, 0)
	f.seedSection("b", "doc-1", strPtr("a"), 0)
	f.seedSection("c", "doc-1", nil, 1)
	svc := newSectionService(f)
	ctx := context.Background()

	tests := []struct {
		name       string
		payload    string
		wantParent *string
	}{
		{"absent leaves unchanged", `{"title":"Renamed"}`, strPtr("a")},
		{"explicit null moves to root", `{"parent_id":null}`, nil},
		{"string reparents", `{"parent_id":"c"}`, strPtr("c")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f.sections.sections["b"] = withParent(f.sections.sections["b"], strPtr("a"))

			var req services.UpdateSectionRequest
			if err := json.Unmarshal([]byte(tt.payload), &req); err != nil {
				t.Fatalf("decode: %v", err)
			}

			updated, err := svc.UpdateSection(ctx, "doc-1", "b", &req)
			if err != nil {
				t.Fatalf("UpdateSection: %v", err)
			}
			switch {
			case tt.wantParent == nil && updated.ParentID != nil:
				t.Errorf("parent_id = %q, want nil", *updated.ParentID)
			case tt.wantParent != nil && (updated.ParentID == nil || *updated.ParentID != *tt.wantParent):
				t.Errorf("parent_id = %v, want %q", updated.ParentID, *tt.wantParent)
			}
		})
	}
}

func withParent(s models.Section, parent *string) models.Section {
	s.ParentID = parent
	return s
}

func TestUpdateSectionFieldValidation(t *testing.T) {
	f := newFixture()
	f.seedDocument("doc-1")
	f.seedSection("s1", "doc-1", nil, 0)
	svc := newSectionService(f)
	ctx := context.Background()

	empty := ""
	if _, err := svc.UpdateSection(ctx, "doc-1", "s1", &services.UpdateSectionRequest{
		Title: &empty,
	}); !errors.Is(err, domain.ErrValidation) {
		t.Errorf("empty title: got %v", err)
	}

	bogus := models.SectionStatus("done-ish")
	if _, err := svc.UpdateSection(ctx, "doc-1", "s1", &services.UpdateSectionRequest{
		Status: &bogus,
	}); !errors.Is(err, domain.ErrValidation) {
		t.Errorf("unknown status: got %v", err)
	}

	status := models.SectionStatusApproved
	updated, err := svc.UpdateSection(ctx, "doc-1", "s1", &services.UpdateSectionRequest{
		Status: &status,
	})
	if err != nil {
		t.Fatalf("UpdateSection: %v", err)
	}
	if updated.Status != models.SectionStatusApproved {
		t.Errorf("status = %s", updated.Status)
	}
}

func TestDeleteSectionDeactivatesBindings(t *testing.T) {
	f := newFixture()
	f.seedDocument("doc-1")
	f.seedSection("s1", "doc-1", nil, 0)
	svc := newSectionService(f)
	bindingSvc := NewBindingService(f.bindings, f.sections, f.docs, f.tx, testLogger())
	ctx := context.Background()

	binding, err := bindingSvc.CreateBinding(ctx, "doc-1", "s1", &services.CreateBindingRequest{
		BindingType: models.BindingTypeEditing,
		UserID:      "user-1",
	})
	if err != nil {
		t.Fatalf("CreateBinding: %v", err)
	}

	txBefore := f.tx.calls
	if err := svc.DeleteSection(ctx, "doc-1", "s1"); err != nil {
		t.Fatalf("DeleteSection: %v", err)
	}
	if f.tx.calls != txBefore+1 {
		t.Errorf("delete ran %d transactions, want 1", f.tx.calls-txBefore)
	}

	deactivateAt := f.rec.indexOf("deactivateBySection:s1")
	deleteAt := f.rec.indexOf("deleteSection:s1")
	if deactivateAt == -1 || deleteAt == -1 || deactivateAt > deleteAt {
		t.Errorf("deactivate must precede delete: %v", f.rec.calls)
	}

	closed, err := f.bindings.GetByID(ctx, binding.ID, "doc-1")
	if err != nil {
		t.Fatalf("binding lookup: %v", err)
	}
	if closed.IsActive || closed.DeactivatedAt == nil {
		t.Errorf("binding not force-deactivated: %+v", closed)
	}
}

func TestDeleteSectionUnknown(t *testing.T) {
	f := newFixture()
	f.seedDocument("doc-1")
	svc := newSectionService(f)

	err := svc.DeleteSection(context.Background(), "doc-1", "ghost")
	if !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	for _, call := range f.rec.calls {
		if strings.HasPrefix(call, "deactivateBySection:") {
			t.Error("deactivation ran for a missing section")
		}
	}
}

func TestGetSectionIncludesActiveBindings(t *testing.T) {
	f := newFixture()
	f.seedDocument("doc-1")
	f.seedSection("s1", "doc-1", nil, 0)
	svc := newSectionService(f)
	bindingSvc := NewBindingService(f.bindings, f.sections, f.docs, f.tx, testLogger())
	ctx := context.Background()

	got, err := svc.GetSection(ctx, "doc-1", "s1")
	if err != nil {
		t.Fatalf("GetSection: %v", err)
	}
	if got.Bindings == nil || len(got.Bindings) != 0 {
		t.Errorf("bindings = %v, want empty non-nil slice", got.Bindings)
	}

	if _, err := bindingSvc.CreateBinding(ctx, "doc-1", "s1", &services.CreateBindingRequest{
		BindingType: models.BindingTypeDiscussion,
	}); err != nil {
		t.Fatalf("CreateBinding: %v", err)
	}

	got, err = svc.GetSection(ctx, "doc-1", "s1")
	if err != nil {
		t.Fatalf("GetSection: %v", err)
	}
	if len(got.Bindings) != 1 || got.Bindings[0].SectionID != "s1" {
		t.Errorf("bindings = %+v", got.Bindings)
	}
}
