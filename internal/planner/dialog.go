package planner

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/serendib/internal/models"
	"github.com/ternarybob/serendib/internal/services/validation"
)

var (
	// ErrEmptySelection is returned when the dialog is opened with nothing selected
	ErrEmptySelection = errors.New("select at least one destination before saving your trip")
	// ErrDialogClosed is returned when submitting to a dialog that is not open
	ErrDialogClosed = errors.New("submission dialog is not open")
	// ErrSubmissionInFlight is returned when a submission is already being dispatched
	ErrSubmissionInFlight = errors.New("a submission is already in progress")
	// ErrAlreadySent is returned when submitting again after a successful send; Close starts over
	ErrAlreadySent = errors.New("this trip plan has already been sent")
)

// DialogSnapshot is the dialog as the UI renders it
type DialogSnapshot struct {
	Open  bool        `json:"open"`
	State State       `json:"state"`
	Form  ContactForm `json:"form"`
}

// Dialog collects contact details and sends them with the current selection.
// Results of a submission that was abandoned by Close are discarded.
type Dialog struct {
	mu         sync.Mutex
	dispatcher Dispatcher
	validator  *validation.Service
	logger     arbor.ILogger

	open       bool
	selection  *Selection
	state      State
	form       ContactForm
	task       *Task
	cancel     context.CancelFunc
	generation uint64

	onChange func(DialogSnapshot)
}

// NewDialog creates a closed dialog
func NewDialog(dispatcher Dispatcher, validator *validation.Service, logger arbor.ILogger) *Dialog {
	return &Dialog{
		dispatcher: dispatcher,
		validator:  validator,
		logger:     logger,
	}
}

// OnChange registers the callback invoked after each dialog state change
func (d *Dialog) OnChange(fn func(DialogSnapshot)) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.onChange = fn
}

// Open shows the dialog for selection. It fails with ErrEmptySelection when nothing is selected.
func (d *Dialog) Open(selection *Selection) error {
	if selection == nil || selection.Len() == 0 {
		return ErrEmptySelection
	}

	d.mu.Lock()
	d.open = true
	d.selection = selection
	snapshot := d.snapshotLocked()
	onChange := d.onChange
	d.mu.Unlock()

	d.emit(onChange, snapshot)
	return nil
}

// Submit validates form and, when valid, dispatches it with a snapshot of the selection.
// Validation failures resolve the returned task immediately without calling the dispatcher.
func (d *Dialog) Submit(ctx context.Context, form ContactForm) (*Task, error) {
	d.mu.Lock()
	if !d.open {
		d.mu.Unlock()
		return nil, ErrDialogClosed
	}
	switch d.state.Phase {
	case PhaseSubmitting, PhaseValidating:
		d.mu.Unlock()
		return nil, ErrSubmissionInFlight
	case PhaseSuccess:
		d.mu.Unlock()
		return nil, ErrAlreadySent
	}

	d.form = form
	d.state = Transition(d.state, Event{Kind: EventSubmitRequested})

	normalized := form.Normalized()
	places := d.selection.Places()

	fieldErrors := ValidateContact(d.validator, normalized)
	if len(places) == 0 {
		if fieldErrors == nil {
			fieldErrors = validation.FieldErrors{}
		}
		fieldErrors["places"] = ErrEmptySelection.Error()
	}

	if len(fieldErrors) > 0 {
		d.state = Transition(d.state, Event{Kind: EventValidationFailed, FieldErrors: fieldErrors})
		state := d.state
		snapshot := d.snapshotLocked()
		onChange := d.onChange
		d.mu.Unlock()

		d.logger.Debug().Strs("fields", fieldErrors.Fields()).Msg("Trip plan form failed validation")
		d.emit(onChange, snapshot)
		return resolvedTask(state), nil
	}

	d.state = Transition(d.state, Event{Kind: EventValidationPassed})

	taskCtx, cancel := context.WithCancel(ctx)
	task := newTask(cancel)
	d.task = task
	d.cancel = cancel
	d.generation++
	generation := d.generation

	req := models.TripPlanRequest{
		Name:   normalized.Name,
		Email:  normalized.Email,
		Phone:  normalized.Phone,
		Notes:  normalized.Notes,
		Places: places,
	}

	snapshot := d.snapshotLocked()
	onChange := d.onChange
	d.mu.Unlock()

	d.emit(onChange, snapshot)

	d.logger.Info().
		Str("email", req.Email).
		Int("places", len(req.Places)).
		Msg("Dispatching trip plan")

	go d.run(taskCtx, task, generation, req)

	return task, nil
}

func (d *Dialog) run(ctx context.Context, task *Task, generation uint64, req models.TripPlanRequest) {
	result, err := d.dispatch(ctx, req)
	if err == nil && ctx.Err() != nil {
		err = ctx.Err()
	}
	event := OutcomeEvent(result, err)
	final := Transition(State{Phase: PhaseSubmitting}, event)

	d.mu.Lock()
	current := d.generation == generation && d.open
	var snapshot DialogSnapshot
	var onChange func(DialogSnapshot)
	if current {
		d.state = Transition(d.state, event)
		d.task = nil
		d.cancel = nil
		snapshot = d.snapshotLocked()
		onChange = d.onChange
	}
	d.mu.Unlock()

	if final.Phase == PhaseSuccess {
		d.logger.Info().Str("email_id", resultEmailID(result)).Msg("Trip plan sent")
	} else {
		d.logger.Warn().Str("error", final.Error).Bool("discarded", !current).Msg("Trip plan dispatch failed")
	}

	task.resolve(final)
	if current {
		d.emit(onChange, snapshot)
	}
}

// dispatch shields the dialog from a panicking dispatcher
func (d *Dialog) dispatch(ctx context.Context, req models.TripPlanRequest) (result *models.DispatchResult, err error) {
	defer func() {
		if r := recover(); r != nil {
			d.logger.Error().Str("panic", fmt.Sprint(r)).Msg("Dispatcher panicked")
			result, err = nil, errors.New("email dispatch failed unexpectedly")
		}
	}()
	return d.dispatcher.Dispatch(ctx, req)
}

// Retry returns a failed dialog to Idle keeping the entered form
func (d *Dialog) Retry() {
	d.mu.Lock()
	d.state = Transition(d.state, Event{Kind: EventRetry})
	snapshot := d.snapshotLocked()
	onChange := d.onChange
	d.mu.Unlock()

	d.emit(onChange, snapshot)
}

// Close hides the dialog and abandons any in-flight submission.
// Form fields are cleared only after a successful submission.
func (d *Dialog) Close() {
	d.mu.Lock()
	if d.cancel != nil {
		d.cancel()
	}
	if d.state.Phase == PhaseSuccess {
		d.form = ContactForm{}
	}
	d.generation++
	d.task = nil
	d.cancel = nil
	d.open = false
	d.state = Transition(d.state, Event{Kind: EventClosed})
	snapshot := d.snapshotLocked()
	onChange := d.onChange
	d.mu.Unlock()

	d.emit(onChange, snapshot)
}

// Snapshot returns the current dialog state
func (d *Dialog) Snapshot() DialogSnapshot {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.snapshotLocked()
}

// State returns the current state
func (d *Dialog) State() State {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.state
}

// Pending returns the in-flight task, if any
func (d *Dialog) Pending() *Task {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.task
}

func (d *Dialog) snapshotLocked() DialogSnapshot {
	return DialogSnapshot{Open: d.open, State: d.state, Form: d.form}
}

func (d *Dialog) emit(onChange func(DialogSnapshot), snapshot DialogSnapshot) {
	if onChange != nil {
		onChange(snapshot)
	}
}

func resultEmailID(result *models.DispatchResult) string {
	if result == nil {
		return ""
	}
	return result.EmailID
}
