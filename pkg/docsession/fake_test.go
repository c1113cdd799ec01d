package docsession

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func strPtr(s string) *string { return &s }

// fakeClient is an in-memory PersistenceClient that records every call in
// order and fails on demand.
type fakeClient struct {
	mu    sync.Mutex
	calls []string

	doc      Document
	sections []Section
	bindings []Binding

	failGetDocument       bool
	failListSections      bool
	failListBindings      bool
	failUpdateContent     bool
	failCreateSection     bool
	failUpdateSection     bool
	failDeleteSection     bool
	failCreateBinding     bool
	failDeactivateBinding bool

	bindingSeq int
}

func newFakeClient() *fakeClient {
	return &fakeClient{
		doc: Document{ID: "doc-1", Title: "Doc", CurrentVersion: 1},
	}
}

func (f *fakeClient) record(call string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, call)
}

func (f *fakeClient) callLog() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, len(f.calls))
	copy(out, f.calls)
	return out
}

func (f *fakeClient) GetDocument(ctx context.Context, documentID string) (*Document, error) {
	f.record("getDocument")
	if f.failGetDocument {
		return nil, errors.New("get document down")
	}
	doc := f.doc
	return &doc, nil
}

func (f *fakeClient) ListSections(ctx context.Context, documentID string) ([]Section, error) {
	f.record("listSections")
	if f.failListSections {
		return nil, errors.New("list sections down")
	}
	out := make([]Section, len(f.sections))
	copy(out, f.sections)
	return out, nil
}

func (f *fakeClient) ListActiveBindings(ctx context.Context, documentID string) ([]Binding, error) {
	f.record("listActiveBindings")
	if f.failListBindings {
		return nil, errors.New("list bindings down")
	}
	out := make([]Binding, len(f.bindings))
	copy(out, f.bindings)
	return out, nil
}

func (f *fakeClient) UpdateContent(ctx context.Context, documentID string, content json.RawMessage) (*Document, error) {
	f.record("updateContent")
	if f.failUpdateContent {
		return nil, fmt.Errorf("save rejected: %w", ErrPersistenceFailed)
	}
	doc := f.doc
	doc.Content = content
	doc.UpdatedAt = time.Now().UTC()
	return &doc, nil
}

func (f *fakeClient) CreateSection(ctx context.Context, documentID string, section Section) (*Section, error) {
	f.record("createSection:" + section.ID)
	if f.failCreateSection {
		return nil, fmt.Errorf("create rejected: %w", ErrPersistenceFailed)
	}
	return &section, nil
}

func (f *fakeClient) UpdateSection(ctx context.Context, documentID string, section Section) (*Section, error) {
	f.record("updateSection:" + section.ID)
	if f.failUpdateSection {
		return nil, fmt.Errorf("update rejected: %w", ErrPersistenceFailed)
	}
	return &section, nil
}

func (f *fakeClient) DeleteSection(ctx context.Context, documentID, sectionID string) error {
	f.record("deleteSection:" + sectionID)
	if f.failDeleteSection {
		return fmt.Errorf("delete rejected: %w", ErrPersistenceFailed)
	}
	return nil
}

func (f *fakeClient) CreateBinding(ctx context.Context, documentID, sectionID string, bindingType BindingType, messageID *string) (*Binding, error) {
	f.record("createBinding:" + sectionID)
	if f.failCreateBinding {
		return nil, fmt.Errorf("create binding rejected: %w", ErrPersistenceFailed)
	}

	f.mu.Lock()
	f.bindingSeq++
	id := fmt.Sprintf("b%d", f.bindingSeq)
	f.mu.Unlock()

	return &Binding{
		ID:          id,
		SectionID:   sectionID,
		BindingType: bindingType,
		MessageID:   messageID,
		IsActive:    true,
		CreatedAt:   time.Now().UTC(),
	}, nil
}

func (f *fakeClient) DeactivateBinding(ctx context.Context, documentID, bindingID string) (*Binding, error) {
	f.record("deactivateBinding:" + bindingID)
	if f.failDeactivateBinding {
		return nil, fmt.Errorf("deactivate rejected: %w", ErrPersistenceFailed)
	}

	now := time.Now().UTC()
	return &Binding{
		ID:            bindingID,
		IsActive:      false,
		DeactivatedAt: &now,
	}, nil
}
