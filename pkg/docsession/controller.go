package docsession

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// ActivationController is the state machine that moves the participant's
// focus between sections. It has two states: Idle (no active focus) and
// Focused (one section, one binding type).
//
// A mutex serializes all transitions: an activation arriving while another
// is in flight waits for it to settle, so the ledger never sees two active
// bindings and late responses cannot clobber fresher state.
type ActivationController struct {
	mu         sync.Mutex
	client     PersistenceClient
	ledger     *Ledger
	documentID string

	// "" means Idle
	focusSection string
	focusType    BindingType
}

// NewActivationController creates a controller in the Idle state. If the
// ledger was seeded with an active binding from the initial load, focus is
// adopted from it.
func NewActivationController(client PersistenceClient, ledger *Ledger, documentID string) *ActivationController {
	c := &ActivationController{
		client:     client,
		ledger:     ledger,
		documentID: documentID,
	}
	if active := ledger.ActiveBinding(); active != nil {
		c.focusSection = active.SectionID
		c.focusType = active.BindingType
	}
	return c
}

// Focus reports the current focus. ok is false when Idle.
func (c *ActivationController) Focus() (sectionID string, bindingType BindingType, ok bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.focusSection, c.focusType, c.focusSection != ""
}

// Activate moves focus to a section. If another section is focused, its
// binding is deactivated first (persistence call, then ledger update), then
// the new binding is created. Activating the section already in focus
// rebinds the type: the old binding closes and a fresh one records the new
// intent, since the type itself is informative.
//
// The deactivate-before-create ordering means a reader polling between the
// two calls may observe zero active bindings, never two.
//
// If the deactivate succeeds but the create fails, the controller ends in
// Idle and returns ErrActivationFailed. The closed binding is history and
// is never resurrected; retry Activate to recover.
func (c *ActivationController) Activate(ctx context.Context, sectionID string, bindingType BindingType, messageID *string) (*Binding, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.activateLocked(ctx, sectionID, bindingType, messageID)
}

func (c *ActivationController) activateLocked(ctx context.Context, sectionID string, bindingType BindingType, messageID *string) (*Binding, error) {
	if c.focusSection != "" {
		if err := c.closeActiveLocked(ctx); err != nil {
			// The switch never started; focus is unchanged.
			return nil, fmt.Errorf("deactivate previous binding: %v: %w", err, ErrActivationFailed)
		}
	}

	binding, err := c.client.CreateBinding(ctx, c.documentID, sectionID, bindingType, messageID)
	if err != nil {
		// The previous binding is already closed. Idle is the honest state.
		return nil, fmt.Errorf("create binding for section %s: %v: %w", sectionID, err, ErrActivationFailed)
	}

	c.ledger.Record(*binding)
	c.focusSection = sectionID
	c.focusType = binding.BindingType
	return binding, nil
}

// Deactivate clears focus if it is on the given section. Deactivating a
// section that is not focused is a no-op, so it can be called defensively.
func (c *ActivationController) Deactivate(ctx context.Context, sectionID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.focusSection != sectionID {
		return nil
	}

	if err := c.closeActiveLocked(ctx); err != nil {
		return fmt.Errorf("deactivate binding for section %s: %w", sectionID, err)
	}
	return nil
}

// ChangeBindingType rebinds the focused section with a new type. Returns
// ErrActivationFailed when Idle.
func (c *ActivationController) ChangeBindingType(ctx context.Context, newType BindingType) (*Binding, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.focusSection == "" {
		return nil, fmt.Errorf("no focused section to rebind: %w", ErrActivationFailed)
	}
	return c.activateLocked(ctx, c.focusSection, newType, nil)
}

// closeActiveLocked persists deactivation of the current binding, applies
// it to the ledger, and transitions to Idle. On persistence failure the
// state is unchanged.
func (c *ActivationController) closeActiveLocked(ctx context.Context) error {
	active := c.ledger.ActiveBindingFor(c.focusSection)
	if active == nil {
		// Ledger already has nothing active (e.g. the section was removed
		// out from under us); just drop the focus marker.
		c.focusSection = ""
		c.focusType = ""
		return nil
	}

	closed, err := c.client.DeactivateBinding(ctx, c.documentID, active.ID)
	if err != nil {
		return err
	}

	at := time.Now().UTC()
	if closed != nil && closed.DeactivatedAt != nil {
		at = *closed.DeactivatedAt
	}
	c.ledger.Deactivate(active.ID, at)

	c.focusSection = ""
	c.focusType = ""
	return nil
}
