package planner

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/serendib/internal/models"
)

func newTestSession(dispatcher Dispatcher) *Session {
	return NewSession("sess_1", testCatalog(), dispatcher, NewFormValidator(), arbor.NewLogger())
}

func TestSession_AddPlaceUsesCatalog(t *testing.T) {
	s := newTestSession(&MockDispatcher{})

	assert.True(t, s.AddPlace("kandy"))
	assert.False(t, s.AddPlace("atlantis"))

	places := s.Selection.Places()
	require.Len(t, places, 1)
	assert.Equal(t, "Hill Country", places[0].Province)
	assert.Equal(t, 1, s.Itinerary.Itinerary().Stats.DestinationCount)
	assert.Len(t, s.Map.State().Markers, 1)
}

func TestSession_WatchReceivesUpdates(t *testing.T) {
	s := newTestSession(DispatcherFunc(func(ctx context.Context, req models.TripPlanRequest) (*models.DispatchResult, error) {
		return &models.DispatchResult{Success: true}, nil
	}))

	var mu sync.Mutex
	var updates []Update
	unwatch := s.Watch(func(u Update) {
		mu.Lock()
		updates = append(updates, u)
		mu.Unlock()
	})
	assert.Equal(t, 1, s.WatcherCount())

	s.AddPlace("kandy")
	s.AddPlace("ella")

	mu.Lock()
	require.Len(t, updates, 2)
	last := updates[1]
	mu.Unlock()
	assert.Equal(t, UpdateSelection, last.Kind)
	require.NotNil(t, last.Itinerary)
	assert.Equal(t, 2, last.Itinerary.Stats.DestinationCount)
	require.NotNil(t, last.Map)
	assert.Len(t, last.Map.Markers, 2)

	require.NoError(t, s.Dialog.Open(s.Selection))
	task, err := s.Dialog.Submit(context.Background(), validForm())
	require.NoError(t, err)
	task.Wait()

	assert.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		u := updates[len(updates)-1]
		return u.Kind == UpdateDialog && u.Dialog.State.Phase == PhaseSuccess
	}, time.Second, 5*time.Millisecond)

	unwatch()
	assert.Equal(t, 0, s.WatcherCount())
}

func TestSession_Touch(t *testing.T) {
	s := newTestSession(&MockDispatcher{})
	later := time.Now().Add(time.Hour)
	s.Touch(later)
	assert.Equal(t, later, s.LastSeen())
}
