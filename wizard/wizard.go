package wizard

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"statuslookup/application"
)

// Messages shown inline on the Enter ID step.
const (
	NotFoundMessage    = "No application found with the provided Submission ID."
	UnavailableMessage = "We couldn't check your status right now. Please try again."
)

var (
	// ErrBusy signals that a lookup is already in flight.
	ErrBusy = errors.New("wizard: lookup already in progress")
	// ErrWrongStep signals an action that is not available on the current step.
	ErrWrongStep = errors.New("wizard: action not available on this step")
)

// Finder looks up a submission. Absent ids return application.ErrNotFound.
type Finder interface {
	Find(ctx context.Context, id string) (application.Record, error)
}

// Snapshot is a copy of the wizard state.
type Snapshot struct {
	Step         Step
	SubmissionID string
	Loading      bool
	Error        string
	Record       *application.Record
}

// Wizard is the three-step lookup flow. It is safe for concurrent use; a
// renderer may call Snapshot while Submit is waiting on the finder.
type Wizard struct {
	finder     Finder
	returnStep Step

	mu    sync.Mutex
	state Snapshot
}

// Option customizes a Wizard.
type Option func(*Wizard)

// WithReturnStep sets where Check Another leads: Welcome (default) or EnterID.
func WithReturnStep(step Step) Option {
	return func(w *Wizard) {
		if step == Welcome || step == EnterID {
			w.returnStep = step
		}
	}
}

// New builds a wizard positioned on the Welcome step.
func New(finder Finder, opts ...Option) *Wizard {
	w := &Wizard{finder: finder, returnStep: Welcome}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Snapshot returns a copy of the current state.
func (w *Wizard) Snapshot() Snapshot {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.state.clone()
}

// Restore replaces the current state with snap. Loading is never restored
// since a lookup cannot outlive the wizard that started it.
func (w *Wizard) Restore(snap Snapshot) error {
	if !snap.Step.Valid() {
		return fmt.Errorf("wizard: restore: invalid step %d", int(snap.Step))
	}
	if snap.Step == ViewStatus && snap.Record == nil {
		return fmt.Errorf("wizard: restore: view status without a record")
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	if w.state.Loading {
		return ErrBusy
	}
	w.state = snap.clone()
	w.state.Loading = false
	return nil
}

// Start moves from Welcome to EnterID.
func (w *Wizard) Start() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.state.Step != Welcome {
		return ErrWrongStep
	}
	w.state.Step = EnterID
	return nil
}

// SetSubmissionID records the text typed so far without looking it up.
func (w *Wizard) SetSubmissionID(id string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.state.SubmissionID = id
}

// Submit looks up id. On success the record is kept and the wizard advances
// to ViewStatus; when the id is unknown the not-found message is set and the
// wizard stays on EnterID. Loading is cleared on every path.
//
// The returned error is nil for found and not-found outcomes alike; it only
// reports ErrBusy, ErrWrongStep, context errors and data source failures.
func (w *Wizard) Submit(ctx context.Context, id string) error {
	w.mu.Lock()
	if w.state.Step != EnterID {
		w.mu.Unlock()
		return ErrWrongStep
	}
	if w.state.Loading {
		w.mu.Unlock()
		return ErrBusy
	}
	prevErr := w.state.Error
	w.state.Loading = true
	w.state.Error = ""
	w.state.SubmissionID = id
	w.mu.Unlock()

	rec, err := w.finder.Find(ctx, id)

	w.mu.Lock()
	defer w.mu.Unlock()
	w.state.Loading = false

	switch {
	case err == nil:
		w.state.Record = &rec
		w.state.Step = ViewStatus
		return nil
	case errors.Is(err, application.ErrNotFound):
		w.state.Error = NotFoundMessage
		return nil
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		w.state.Error = prevErr
		return err
	default:
		w.state.Error = UnavailableMessage
		return fmt.Errorf("wizard: lookup %q: %w", id, err)
	}
}

// CheckAnother leaves ViewStatus for the configured return step, clearing the
// displayed record and any error. The last submission id is kept as a prefill.
func (w *Wizard) CheckAnother() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.state.Step != ViewStatus {
		return ErrWrongStep
	}
	w.state.Step = w.returnStep
	w.state.Record = nil
	w.state.Error = ""
	return nil
}

func (s Snapshot) clone() Snapshot {
	out := s
	if s.Record != nil {
		rec := *s.Record
		out.Record = &rec
	}
	return out
}
