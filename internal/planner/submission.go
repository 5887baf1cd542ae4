package planner

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/ternarybob/serendib/internal/models"
	"github.com/ternarybob/serendib/internal/services/validation"
)

// Dispatcher delivers a trip plan to the email-dispatch collaborator.
// The planner only looks at DispatchResult.Success.
type Dispatcher interface {
	Dispatch(ctx context.Context, req models.TripPlanRequest) (*models.DispatchResult, error)
}

// DispatcherFunc adapts a function to Dispatcher
type DispatcherFunc func(ctx context.Context, req models.TripPlanRequest) (*models.DispatchResult, error)

func (f DispatcherFunc) Dispatch(ctx context.Context, req models.TripPlanRequest) (*models.DispatchResult, error) {
	return f(ctx, req)
}

// Phase names the submission dialog states
type Phase int

const (
	PhaseIdle Phase = iota
	PhaseValidating
	PhaseSubmitting
	PhaseSuccess
	PhaseFailed
)

var phaseNames = map[Phase]string{
	PhaseIdle:       "idle",
	PhaseValidating: "validating",
	PhaseSubmitting: "submitting",
	PhaseSuccess:    "success",
	PhaseFailed:     "failed",
}

func (p Phase) String() string {
	if name, ok := phaseNames[p]; ok {
		return name
	}
	return fmt.Sprintf("phase(%d)", int(p))
}

func (p Phase) MarshalJSON() ([]byte, error) {
	return json.Marshal(p.String())
}

// State is the dialog state plus the data that belongs to it:
// field errors after a failed validation, the dispatch result on success,
// the error message on failure.
type State struct {
	Phase       Phase                  `json:"phase"`
	FieldErrors validation.FieldErrors `json:"fieldErrors,omitempty"`
	Result      *models.DispatchResult `json:"result,omitempty"`
	Error       string                 `json:"error,omitempty"`
}

// EventKind names the inputs of the dialog state machine
type EventKind int

const (
	EventSubmitRequested EventKind = iota
	EventValidationFailed
	EventValidationPassed
	EventDispatchSucceeded
	EventDispatchFailed
	EventClosed
	EventRetry
)

// Event is one input to Transition
type Event struct {
	Kind        EventKind
	FieldErrors validation.FieldErrors
	Result      *models.DispatchResult
	Err         error
}

// Transition returns the state that follows s after e. Events that are not
// valid in the current phase leave the state unchanged.
func Transition(s State, e Event) State {
	switch e.Kind {
	case EventClosed:
		return State{Phase: PhaseIdle}

	case EventSubmitRequested:
		if s.Phase == PhaseIdle || s.Phase == PhaseFailed {
			return State{Phase: PhaseValidating}
		}

	case EventValidationFailed:
		if s.Phase == PhaseValidating {
			return State{Phase: PhaseIdle, FieldErrors: e.FieldErrors}
		}

	case EventValidationPassed:
		if s.Phase == PhaseValidating {
			return State{Phase: PhaseSubmitting}
		}

	case EventDispatchSucceeded:
		if s.Phase == PhaseSubmitting {
			return State{Phase: PhaseSuccess, Result: e.Result}
		}

	case EventDispatchFailed:
		if s.Phase == PhaseSubmitting {
			msg := "Failed to send your trip plan. Please try again."
			if e.Err != nil {
				msg = e.Err.Error()
			} else if e.Result != nil && e.Result.Error != "" {
				msg = e.Result.Error
			}
			return State{Phase: PhaseFailed, Result: e.Result, Error: msg}
		}

	case EventRetry:
		if s.Phase == PhaseFailed {
			return State{Phase: PhaseIdle}
		}
	}
	return s
}

// OutcomeEvent maps a dispatcher response to DispatchSucceeded or DispatchFailed
func OutcomeEvent(result *models.DispatchResult, err error) Event {
	if err != nil {
		return Event{Kind: EventDispatchFailed, Err: err}
	}
	if result == nil {
		return Event{Kind: EventDispatchFailed, Err: errors.New("email dispatch returned no result")}
	}
	if !result.Success {
		return Event{Kind: EventDispatchFailed, Result: result}
	}
	return Event{Kind: EventDispatchSucceeded, Result: result}
}

// Task is an in-flight submission. It resolves exactly once with the final state.
type Task struct {
	done   chan struct{}
	cancel context.CancelFunc
	state  State
}

func newTask(cancel context.CancelFunc) *Task {
	return &Task{done: make(chan struct{}), cancel: cancel}
}

func resolvedTask(state State) *Task {
	t := newTask(func() {})
	t.resolve(state)
	return t
}

func (t *Task) resolve(state State) {
	t.state = state
	close(t.done)
}

// Done is closed when the task has resolved
func (t *Task) Done() <-chan struct{} {
	return t.done
}

// Wait blocks until the task resolves and returns its final state
func (t *Task) Wait() State {
	<-t.done
	return t.state
}

// WaitContext is Wait bounded by ctx
func (t *Task) WaitContext(ctx context.Context) (State, error) {
	select {
	case <-t.done:
		return t.state, nil
	case <-ctx.Done():
		return State{}, ctx.Err()
	}
}

// Cancel aborts the dispatch call. The task then resolves as failed.
func (t *Task) Cancel() {
	t.cancel()
}
