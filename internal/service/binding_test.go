package service

import (
	"context"
	"errors"
	"strings"
	"testing"

	"cinreq/internal/domain"
	"cinreq/internal/domain/models"
	"cinreq/internal/domain/services"
)

func newBindingService(f *fixture) services.BindingService {
	return NewBindingService(f.bindings, f.sections, f.docs, f.tx, testLogger())
}

func TestCreateBindingSupersedesActive(t *testing.T) {
	f := newFixture()
	f.seedDocument("doc-1")
	f.seedSection("s1", "doc-1", nil, 0)
	f.seedSection("s2", "doc-1", nil, 1)
	svc := newBindingService(f)
	ctx := context.Background()

	first, err := svc.CreateBinding(ctx, "doc-1", "s1", &services.CreateBindingRequest{
		BindingType: models.BindingTypeDiscussion,
		UserID:      "user-1",
	})
	if err != nil {
		t.Fatalf("first CreateBinding: %v", err)
	}
	if !first.IsActive {
		t.Fatalf("new binding not active: %+v", first)
	}

	second, err := svc.CreateBinding(ctx, "doc-1", "s2", &services.CreateBindingRequest{
		BindingType: models.BindingTypeEditing,
		UserID:      "user-1",
	})
	if err != nil {
		t.Fatalf("second CreateBinding: %v", err)
	}

	// The supersede and the insert happen inside one transaction each time
	if f.tx.calls != 2 {
		t.Errorf("transactions = %d, want 2", f.tx.calls)
	}
	deactivateAt := f.rec.indexOf("deactivateByDocument:doc-1")
	createAt := f.rec.indexOf("createBinding:s2")
	if deactivateAt == -1 || deactivateAt > createAt {
		t.Errorf("supersede must precede create: %v", f.rec.calls)
	}

	active, err := svc.ListActiveBindings(ctx, "doc-1")
	if err != nil {
		t.Fatalf("ListActiveBindings: %v", err)
	}
	if len(active) != 1 || active[0].ID != second.ID {
		t.Fatalf("active = %+v, want only the second binding", active)
	}

	superseded, err := f.bindings.GetByID(ctx, first.ID, "doc-1")
	if err != nil {
		t.Fatalf("binding lookup: %v", err)
	}
	if superseded.IsActive || superseded.DeactivatedAt == nil {
		t.Errorf("first binding not closed: %+v", superseded)
	}
}

func TestCreateBindingRejectsBadInput(t *testing.T) {
	f := newFixture()
	f.seedDocument("doc-1")
	f.seedSection("s1", "doc-1", nil, 0)
	svc := newBindingService(f)
	ctx := context.Background()

	if _, err := svc.CreateBinding(ctx, "doc-1", "s1", &services.CreateBindingRequest{
		BindingType: "pondering",
	}); !errors.Is(err, domain.ErrValidation) {
		t.Errorf("unknown binding type: got %v", err)
	}

	if _, err := svc.CreateBinding(ctx, "doc-1", "ghost", &services.CreateBindingRequest{
		BindingType: models.BindingTypeDiscussion,
	}); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("unknown section: got %v", err)
	}

	long := strings.Repeat("n", 2001)
	if _, err := svc.CreateBinding(ctx, "doc-1", "s1", &services.CreateBindingRequest{
		BindingType: models.BindingTypeDiscussion,
		Note:        &long,
	}); !errors.Is(err, domain.ErrValidation) {
		t.Errorf("oversized note: got %v", err)
	}

	// Neither attempt opened a transaction
	if f.tx.calls != 0 {
		t.Errorf("transactions = %d, want 0", f.tx.calls)
	}
}

func TestCreateBindingAttribution(t *testing.T) {
	f := newFixture()
	f.seedDocument("doc-1")
	f.seedSection("s1", "doc-1", nil, 0)
	svc := newBindingService(f)
	ctx := context.Background()

	// System/AI-originated: no user ID on the request
	system, err := svc.CreateBinding(ctx, "doc-1", "s1", &services.CreateBindingRequest{
		BindingType:   models.BindingTypeReference,
		IsAIGenerated: true,
	})
	if err != nil {
		t.Fatalf("CreateBinding: %v", err)
	}
	if system.CreatedByID != nil {
		t.Errorf("created_by_id = %v, want nil for system binding", *system.CreatedByID)
	}
	if !system.IsAIGenerated {
		t.Error("ai_generated flag dropped")
	}

	user, err := svc.CreateBinding(ctx, "doc-1", "s1", &services.CreateBindingRequest{
		BindingType: models.BindingTypeDiscussion,
		UserID:      "user-7",
		MessageID:   strPtr("m-3"),
	})
	if err != nil {
		t.Fatalf("CreateBinding: %v", err)
	}
	if user.CreatedByID == nil || *user.CreatedByID != "user-7" {
		t.Errorf("created_by_id = %v", user.CreatedByID)
	}
	if user.MessageID == nil || *user.MessageID != "m-3" {
		t.Errorf("message_id = %v", user.MessageID)
	}
}

func TestUpdateBindingDeactivation(t *testing.T) {
	f := newFixture()
	f.seedDocument("doc-1")
	f.seedSection("s1", "doc-1", nil, 0)
	svc := newBindingService(f)
	ctx := context.Background()

	binding, err := svc.CreateBinding(ctx, "doc-1", "s1", &services.CreateBindingRequest{
		BindingType: models.BindingTypeDiscussion,
	})
	if err != nil {
		t.Fatalf("CreateBinding: %v", err)
	}

	inactive := false
	closed, err := svc.UpdateBinding(ctx, "doc-1", binding.ID, &services.UpdateBindingRequest{
		IsActive: &inactive,
	})
	if err != nil {
		t.Fatalf("UpdateBinding: %v", err)
	}
	if closed.IsActive || closed.DeactivatedAt == nil {
		t.Fatalf("binding not closed: %+v", closed)
	}

	// Inactive bindings are history: reactivation is rejected
	active := true
	if _, err := svc.UpdateBinding(ctx, "doc-1", binding.ID, &services.UpdateBindingRequest{
		IsActive: &active,
	}); !errors.Is(err, domain.ErrValidation) {
		t.Errorf("reactivation: got %v, want ErrValidation", err)
	}

	// The note stays editable after deactivation
	annotated, err := svc.UpdateBinding(ctx, "doc-1", binding.ID, &services.UpdateBindingRequest{
		Note: strPtr("resolved in review"),
	})
	if err != nil {
		t.Fatalf("note edit: %v", err)
	}
	if annotated.Note == nil || *annotated.Note != "resolved in review" {
		t.Errorf("note = %v", annotated.Note)
	}
	if annotated.IsActive {
		t.Error("note edit reactivated the binding")
	}
}

func TestUpdateBindingDeactivateTwice(t *testing.T) {
	f := newFixture()
	f.seedDocument("doc-1")
	f.seedSection("s1", "doc-1", nil, 0)
	svc := newBindingService(f)
	ctx := context.Background()

	binding, err := svc.CreateBinding(ctx, "doc-1", "s1", &services.CreateBindingRequest{
		BindingType: models.BindingTypeQuestion,
	})
	if err != nil {
		t.Fatalf("CreateBinding: %v", err)
	}

	inactive := false
	closed, err := svc.UpdateBinding(ctx, "doc-1", binding.ID, &services.UpdateBindingRequest{IsActive: &inactive})
	if err != nil {
		t.Fatalf("first deactivate: %v", err)
	}
	stamp := *closed.DeactivatedAt

	// A second deactivation is a no-op and keeps the original stamp
	again, err := svc.UpdateBinding(ctx, "doc-1", binding.ID, &services.UpdateBindingRequest{IsActive: &inactive})
	if err != nil {
		t.Fatalf("second deactivate: %v", err)
	}
	if again.DeactivatedAt == nil || !again.DeactivatedAt.Equal(stamp) {
		t.Errorf("deactivated_at moved: %v -> %v", stamp, again.DeactivatedAt)
	}
}

func TestListActiveBindings(t *testing.T) {
	f := newFixture()
	f.seedDocument("doc-1")
	svc := newBindingService(f)
	ctx := context.Background()

	bindings, err := svc.ListActiveBindings(ctx, "doc-1")
	if err != nil {
		t.Fatalf("ListActiveBindings: %v", err)
	}
	if bindings == nil || len(bindings) != 0 {
		t.Errorf("bindings = %v, want empty non-nil slice", bindings)
	}

	if _, err := svc.ListActiveBindings(ctx, "ghost"); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("unknown document: got %v", err)
	}
}
