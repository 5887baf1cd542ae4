package planner

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/ternarybob/serendib/internal/models"
	"github.com/ternarybob/serendib/internal/services/validation"
)

func TestTransition(t *testing.T) {
	fieldErrors := validation.FieldErrors{"name": "too short"}
	ok := &models.DispatchResult{Success: true, EmailID: "em_1"}
	rejected := &models.DispatchResult{Success: false, Error: "mailbox full"}

	tests := []struct {
		name  string
		from  State
		event Event
		want  State
	}{
		{"submit from idle", State{Phase: PhaseIdle}, Event{Kind: EventSubmitRequested}, State{Phase: PhaseValidating}},
		{"submit from failed", State{Phase: PhaseFailed, Error: "x"}, Event{Kind: EventSubmitRequested}, State{Phase: PhaseValidating}},
		{"validation failed returns to idle", State{Phase: PhaseValidating}, Event{Kind: EventValidationFailed, FieldErrors: fieldErrors}, State{Phase: PhaseIdle, FieldErrors: fieldErrors}},
		{"validation passed submits", State{Phase: PhaseValidating}, Event{Kind: EventValidationPassed}, State{Phase: PhaseSubmitting}},
		{"dispatch succeeded", State{Phase: PhaseSubmitting}, Event{Kind: EventDispatchSucceeded, Result: ok}, State{Phase: PhaseSuccess, Result: ok}},
		{"dispatch rejected", State{Phase: PhaseSubmitting}, Event{Kind: EventDispatchFailed, Result: rejected}, State{Phase: PhaseFailed, Result: rejected, Error: "mailbox full"}},
		{"dispatch error", State{Phase: PhaseSubmitting}, Event{Kind: EventDispatchFailed, Err: errors.New("timeout")}, State{Phase: PhaseFailed, Error: "timeout"}},
		{"retry from failed", State{Phase: PhaseFailed, Error: "x"}, Event{Kind: EventRetry}, State{Phase: PhaseIdle}},
		{"close from success", State{Phase: PhaseSuccess, Result: ok}, Event{Kind: EventClosed}, State{Phase: PhaseIdle}},
		{"close from submitting", State{Phase: PhaseSubmitting}, Event{Kind: EventClosed}, State{Phase: PhaseIdle}},
		{"submit ignored while submitting", State{Phase: PhaseSubmitting}, Event{Kind: EventSubmitRequested}, State{Phase: PhaseSubmitting}},
		{"dispatch result ignored when idle", State{Phase: PhaseIdle}, Event{Kind: EventDispatchSucceeded, Result: ok}, State{Phase: PhaseIdle}},
		{"retry ignored from success", State{Phase: PhaseSuccess, Result: ok}, Event{Kind: EventRetry}, State{Phase: PhaseSuccess, Result: ok}},
		{"submit ignored from success", State{Phase: PhaseSuccess, Result: ok}, Event{Kind: EventSubmitRequested}, State{Phase: PhaseSuccess, Result: ok}},
		{"validation result ignored from success", State{Phase: PhaseSuccess, Result: ok}, Event{Kind: EventValidationFailed, FieldErrors: fieldErrors}, State{Phase: PhaseSuccess, Result: ok}},
		{"dispatch failure ignored from success", State{Phase: PhaseSuccess, Result: ok}, Event{Kind: EventDispatchFailed, Err: errors.New("late")}, State{Phase: PhaseSuccess, Result: ok}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Transition(tt.from, tt.event))
		})
	}
}

func TestOutcomeEvent(t *testing.T) {
	assert.Equal(t, EventDispatchSucceeded, OutcomeEvent(&models.DispatchResult{Success: true}, nil).Kind)
	assert.Equal(t, EventDispatchFailed, OutcomeEvent(&models.DispatchResult{Success: false}, nil).Kind)
	assert.Equal(t, EventDispatchFailed, OutcomeEvent(nil, nil).Kind)
	assert.Equal(t, EventDispatchFailed, OutcomeEvent(&models.DispatchResult{Success: true}, errors.New("boom")).Kind)
}

func TestPhase_MarshalsAsName(t *testing.T) {
	data, err := PhaseSubmitting.MarshalJSON()
	assert.NoError(t, err)
	assert.Equal(t, `"submitting"`, string(data))
	assert.Equal(t, "phase(42)", Phase(42).String())
}
