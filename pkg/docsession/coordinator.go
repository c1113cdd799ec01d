package docsession

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

// Coordinator owns the canonical in-memory snapshot for one open document:
// content, section list, binding ledger, and the activation controller.
// Every mutation is optimistic: applied locally first, then persisted and
// reconciled against the canonical record when the round trip completes. Persistence failures keep the optimistic state (local-wins);
// the caller gets an explicit error to surface.
type Coordinator struct {
	client PersistenceClient
	logger *slog.Logger

	mu         sync.Mutex
	documentID string
	document   *Document
	sections   []Section
	ledger     *Ledger
	controller *ActivationController
}

// NewCoordinator creates an empty coordinator. Call Load before anything
// else.
func NewCoordinator(client PersistenceClient, logger *slog.Logger) *Coordinator {
	return &Coordinator{
		client: client,
		logger: logger,
	}
}

// Load concurrently fetches the document, its section list, and its active
// bindings, then swaps them in as the new canonical state. If any fetch
// fails the whole load fails with ErrLoadFailed and prior state, if any,
// is left untouched rather than partially overwritten.
func (c *Coordinator) Load(ctx context.Context, documentID string) error {
	var (
		doc      *Document
		sections []Section
		bindings []Binding
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		doc, err = c.client.GetDocument(gctx, documentID)
		return err
	})
	g.Go(func() error {
		var err error
		sections, err = c.client.ListSections(gctx, documentID)
		return err
	})
	g.Go(func() error {
		var err error
		bindings, err = c.client.ListActiveBindings(gctx, documentID)
		return err
	})

	if err := g.Wait(); err != nil {
		return fmt.Errorf("load document %s: %v: %w", documentID, err, ErrLoadFailed)
	}

	ledger := NewLedger(bindings)

	c.mu.Lock()
	defer c.mu.Unlock()
	c.documentID = documentID
	c.document = doc
	c.sections = sections
	c.ledger = ledger
	c.controller = NewActivationController(c.client, ledger, documentID)

	c.logger.Info("document session loaded",
		"document_id", documentID,
		"sections", len(sections),
		"active_bindings", len(bindings),
	)
	return nil
}

// Document returns a copy of the current document snapshot.
func (c *Coordinator) Document() Document {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.document == nil {
		return Document{}
	}
	return *c.document
}

// Sections returns a copy of the flat section list.
func (c *Coordinator) Sections() []Section {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]Section, len(c.sections))
	copy(out, c.sections)
	return out
}

// Tree projects the current section list into an ordered forest.
func (c *Coordinator) Tree() *Tree {
	c.mu.Lock()
	defer c.mu.Unlock()
	return NewTree(c.sections)
}

// ActiveBinding returns the unique active binding, or nil when Idle.
func (c *Coordinator) ActiveBinding() *Binding {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.ledger == nil {
		return nil
	}
	return c.ledger.ActiveBinding()
}

// Bindings returns the full binding history.
func (c *Coordinator) Bindings() []Binding {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.ledger == nil {
		return nil
	}
	return c.ledger.Bindings()
}

// UpdateContent optimistically replaces the local content snapshot, then
// persists it. On failure the optimistic edit is retained, so a transient
// network blip never loses keystrokes, and the next successful save
// reconciles.
func (c *Coordinator) UpdateContent(ctx context.Context, content json.RawMessage) error {
	c.mu.Lock()
	if c.document == nil {
		c.mu.Unlock()
		return fmt.Errorf("no document loaded: %w", ErrLoadFailed)
	}
	c.document.Content = content
	documentID := c.documentID
	c.mu.Unlock()

	doc, err := c.client.UpdateContent(ctx, documentID, content)
	if err != nil {
		c.logger.Warn("content save failed, keeping local edit", "document_id", documentID, "error", err)
		return fmt.Errorf("save content: %w", err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	// The local blob stays as typed; only metadata reconciles. A save that
	// raced a newer local edit must not roll the text back.
	c.document.CurrentVersion = doc.CurrentVersion
	c.document.UpdatedAt = doc.UpdatedAt
	return nil
}

// CreateSection optimistically inserts a section and persists it. The
// placement is checked against the structural rules first; violations are
// rejected before any network call.
func (c *Coordinator) CreateSection(ctx context.Context, section Section) (*Section, error) {
	c.mu.Lock()
	if section.ID == "" {
		section.ID = uuid.NewString()
	}
	section.DocumentID = c.documentID
	if section.Status == "" {
		section.Status = SectionEmpty
	}
	section.CreatedAt = time.Now().UTC()
	section.UpdatedAt = section.CreatedAt

	if err := c.checkPlacementLocked(section.ID, section.ParentID, section.Order); err != nil {
		c.mu.Unlock()
		return nil, err
	}

	c.sections = append(c.sections, section)
	documentID := c.documentID
	c.mu.Unlock()

	created, err := c.client.CreateSection(ctx, documentID, section)
	if err != nil {
		c.logger.Warn("section create not persisted", "section_id", section.ID, "error", err)
		return &section, fmt.Errorf("persist section: %w", err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.replaceSectionLocked(section.ID, *created)
	return created, nil
}

// UpdateSection optimistically merges the given section record over the
// local copy and persists it. Parent reassignments that would create a
// cycle, and order values already used by a sibling, fail with
// ErrStructuralViolation before any network call.
func (c *Coordinator) UpdateSection(ctx context.Context, section Section) (*Section, error) {
	c.mu.Lock()
	if c.findSectionLocked(section.ID) == nil {
		c.mu.Unlock()
		return nil, fmt.Errorf("unknown section %s: %w", section.ID, ErrPersistenceFailed)
	}

	if err := c.checkPlacementLocked(section.ID, section.ParentID, section.Order); err != nil {
		c.mu.Unlock()
		return nil, err
	}

	section.DocumentID = c.documentID
	section.UpdatedAt = time.Now().UTC()
	c.replaceSectionLocked(section.ID, section)
	documentID := c.documentID
	c.mu.Unlock()

	updated, err := c.client.UpdateSection(ctx, documentID, section)
	if err != nil {
		c.logger.Warn("section update not persisted", "section_id", section.ID, "error", err)
		return &section, fmt.Errorf("persist section update: %w", err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.replaceSectionLocked(section.ID, *updated)
	return updated, nil
}

// DeleteSection removes a section. A section holding the active binding is
// never deleted out from under the focus: the controller deactivates it
// first, then the section is removed locally and the delete persisted.
// Children are promoted to root, matching the backend's behavior.
func (c *Coordinator) DeleteSection(ctx context.Context, sectionID string) error {
	c.mu.Lock()
	controller := c.controller
	documentID := c.documentID
	c.mu.Unlock()

	if controller == nil {
		return fmt.Errorf("no document loaded: %w", ErrLoadFailed)
	}

	if err := controller.Deactivate(ctx, sectionID); err != nil {
		return fmt.Errorf("deactivate before delete: %w", err)
	}

	c.mu.Lock()
	kept := c.sections[:0:0]
	for _, s := range c.sections {
		if s.ID == sectionID {
			continue
		}
		if s.ParentID != nil && *s.ParentID == sectionID {
			s.ParentID = nil
		}
		kept = append(kept, s)
	}
	c.sections = kept
	c.mu.Unlock()

	if err := c.client.DeleteSection(ctx, documentID, sectionID); err != nil {
		c.logger.Warn("section delete not persisted", "section_id", sectionID, "error", err)
		return fmt.Errorf("persist section delete: %w", err)
	}
	return nil
}

// ActivateSection moves focus to a section, superseding any current focus.
func (c *Coordinator) ActivateSection(ctx context.Context, sectionID string, bindingType BindingType, messageID *string) (*Binding, error) {
	c.mu.Lock()
	controller := c.controller
	known := c.findSectionLocked(sectionID) != nil
	c.mu.Unlock()

	if controller == nil {
		return nil, fmt.Errorf("no document loaded: %w", ErrLoadFailed)
	}
	if !known {
		return nil, fmt.Errorf("unknown section %s: %w", sectionID, ErrActivationFailed)
	}
	return controller.Activate(ctx, sectionID, bindingType, messageID)
}

// DeactivateSection clears focus if it is on the given section; otherwise
// it is a no-op.
func (c *Coordinator) DeactivateSection(ctx context.Context, sectionID string) error {
	c.mu.Lock()
	controller := c.controller
	c.mu.Unlock()

	if controller == nil {
		return fmt.Errorf("no document loaded: %w", ErrLoadFailed)
	}
	return controller.Deactivate(ctx, sectionID)
}

// ChangeBindingType rebinds the focused section with a new type.
func (c *Coordinator) ChangeBindingType(ctx context.Context, newType BindingType) (*Binding, error) {
	c.mu.Lock()
	controller := c.controller
	c.mu.Unlock()

	if controller == nil {
		return nil, fmt.Errorf("no document loaded: %w", ErrLoadFailed)
	}
	return controller.ChangeBindingType(ctx, newType)
}

// Focus reports the current focus. ok is false when Idle or unloaded.
func (c *Coordinator) Focus() (sectionID string, bindingType BindingType, ok bool) {
	c.mu.Lock()
	controller := c.controller
	c.mu.Unlock()

	if controller == nil {
		return "", "", false
	}
	return controller.Focus()
}

// checkPlacementLocked enforces the structural rules for placing sectionID
// under parentID at the given sibling order: the parent must exist, the
// parent chain must not loop back through the section, and no sibling may
// already hold the order value.
func (c *Coordinator) checkPlacementLocked(sectionID string, parentID *string, order int) error {
	parentOf := make(map[string]*string, len(c.sections))
	for _, s := range c.sections {
		parentOf[s.ID] = s.ParentID
	}

	if parentID != nil {
		if *parentID == sectionID {
			return fmt.Errorf("section %s cannot be its own parent: %w", sectionID, ErrStructuralViolation)
		}
		if _, ok := parentOf[*parentID]; !ok {
			return fmt.Errorf("parent section %s does not exist: %w", *parentID, ErrStructuralViolation)
		}

		// Walk up from the proposed parent; reaching the section itself
		// means the assignment would close a cycle.
		seen := map[string]bool{}
		for cur := parentID; cur != nil; cur = parentOf[*cur] {
			if *cur == sectionID {
				return fmt.Errorf("moving section %s under %s creates a cycle: %w", sectionID, *parentID, ErrStructuralViolation)
			}
			if seen[*cur] {
				break
			}
			seen[*cur] = true
		}
	}

	for _, s := range c.sections {
		if s.ID == sectionID {
			continue
		}
		if sameParent(s.ParentID, parentID) && s.Order == order {
			return fmt.Errorf("sibling %s already has order %d: %w", s.ID, order, ErrStructuralViolation)
		}
	}

	return nil
}

func sameParent(a, b *string) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

func (c *Coordinator) findSectionLocked(id string) *Section {
	for i := range c.sections {
		if c.sections[i].ID == id {
			return &c.sections[i]
		}
	}
	return nil
}

func (c *Coordinator) replaceSectionLocked(id string, section Section) {
	for i := range c.sections {
		if c.sections[i].ID == id {
			c.sections[i] = section
			return
		}
	}
	c.sections = append(c.sections, section)
}
