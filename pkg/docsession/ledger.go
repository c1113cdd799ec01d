package docsession

import "time"

// Ledger holds the full binding history for one document: every binding
// ever recorded in this session plus the active set loaded at startup.
// In the single-focus model at most one binding is active at a time.
//
// All operations are synchronous over the local copy; persistence is the
// Coordinator's concern. The ledger is not safe for concurrent use; the
// ActivationController serializes access.
type Ledger struct {
	bindings []Binding
}

// NewLedger seeds a ledger, typically with the active bindings returned by
// the initial load.
func NewLedger(bindings []Binding) *Ledger {
	l := &Ledger{bindings: make([]Binding, len(bindings))}
	copy(l.bindings, bindings)
	return l
}

// Record appends a new binding, marking it active.
func (l *Ledger) Record(b Binding) {
	b.IsActive = true
	b.DeactivatedAt = nil
	l.bindings = append(l.bindings, b)
}

// Deactivate flips a binding inactive and stamps deactivated_at. Returns
// false if the binding is unknown or already inactive.
func (l *Ledger) Deactivate(bindingID string, at time.Time) bool {
	for i := range l.bindings {
		if l.bindings[i].ID == bindingID && l.bindings[i].IsActive {
			l.bindings[i].IsActive = false
			stamp := at
			l.bindings[i].DeactivatedAt = &stamp
			return true
		}
	}
	return false
}

// ActiveBinding returns a copy of the unique active binding, or nil.
func (l *Ledger) ActiveBinding() *Binding {
	for i := range l.bindings {
		if l.bindings[i].IsActive {
			b := l.bindings[i]
			return &b
		}
	}
	return nil
}

// ActiveBindingFor returns a copy of the active binding referencing the
// given section, or nil.
func (l *Ledger) ActiveBindingFor(sectionID string) *Binding {
	for i := range l.bindings {
		if l.bindings[i].IsActive && l.bindings[i].SectionID == sectionID {
			b := l.bindings[i]
			return &b
		}
	}
	return nil
}

// Bindings returns a copy of the full history, active and inactive.
func (l *Ledger) Bindings() []Binding {
	out := make([]Binding, len(l.bindings))
	copy(out, l.bindings)
	return out
}

// ActiveCount reports how many bindings are currently active. The ledger
// invariant keeps this at zero or one.
func (l *Ledger) ActiveCount() int {
	n := 0
	for i := range l.bindings {
		if l.bindings[i].IsActive {
			n++
		}
	}
	return n
}
