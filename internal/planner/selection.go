package planner

import (
	"sync"

	"github.com/ternarybob/serendib/internal/models"
)

// Listener is notified after every selection change with a snapshot of the new state
type Listener func(places []models.Place)

type subscription struct {
	id       uint64
	listener Listener
}

// Selection is the ordered, duplicate-free list of places a traveller has picked.
// All operations are total. Listeners run synchronously, in registration order,
// after each mutation that changed the list. Listeners must not mutate the selection.
type Selection struct {
	mu        sync.Mutex
	notifyMu  sync.Mutex
	places    []models.Place
	listeners []subscription
	nextID    uint64
	version   uint64
	delivered uint64
}

// NewSelection creates an empty selection
func NewSelection() *Selection {
	return &Selection{}
}

// Add appends place unless a place with the same id is already selected.
// Returns true when the selection changed.
func (s *Selection) Add(place models.Place) bool {
	s.mu.Lock()
	if s.indexOf(place.ID) >= 0 {
		s.mu.Unlock()
		return false
	}
	s.places = append(s.places, place)
	s.version++
	s.mu.Unlock()

	s.notify()
	return true
}

// Remove deletes the place with placeID, keeping the order of the rest.
// Returns true when the selection changed.
func (s *Selection) Remove(placeID string) bool {
	s.mu.Lock()
	i := s.indexOf(placeID)
	if i < 0 {
		s.mu.Unlock()
		return false
	}
	s.places = append(s.places[:i:i], s.places[i+1:]...)
	s.version++
	s.mu.Unlock()

	s.notify()
	return true
}

// Toggle removes place when selected and adds it otherwise
func (s *Selection) Toggle(place models.Place) {
	if !s.Remove(place.ID) {
		s.Add(place)
	}
}

// Clear empties the selection. Listeners are only called if it was non-empty.
func (s *Selection) Clear() {
	s.mu.Lock()
	if len(s.places) == 0 {
		s.mu.Unlock()
		return
	}
	s.places = nil
	s.version++
	s.mu.Unlock()

	s.notify()
}

// Places returns a copy of the selected places in order
func (s *Selection) Places() []models.Place {
	s.mu.Lock()
	defer s.mu.Unlock()
	return copyPlaces(s.places)
}

// Contains reports whether placeID is selected
func (s *Selection) Contains(placeID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.indexOf(placeID) >= 0
}

// Len returns the number of selected places
func (s *Selection) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.places)
}

// Subscribe registers a listener and returns a function that removes it.
// The listener is not called for the current state.
func (s *Selection) Subscribe(listener Listener) (unsubscribe func()) {
	s.mu.Lock()
	s.nextID++
	id := s.nextID
	s.listeners = append(s.listeners, subscription{id: id, listener: listener})
	s.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			defer s.mu.Unlock()
			for i, sub := range s.listeners {
				if sub.id == id {
					s.listeners = append(s.listeners[:i:i], s.listeners[i+1:]...)
					return
				}
			}
		})
	}
}

func (s *Selection) indexOf(placeID string) int {
	for i, p := range s.places {
		if p.ID == placeID {
			return i
		}
	}
	return -1
}

// notify delivers the current state to every listener. Concurrent mutations
// are coalesced so the last delivery always reflects the latest state.
func (s *Selection) notify() {
	s.notifyMu.Lock()
	defer s.notifyMu.Unlock()

	s.mu.Lock()
	if s.version <= s.delivered {
		s.mu.Unlock()
		return
	}
	s.delivered = s.version
	snapshot := copyPlaces(s.places)
	listeners := make([]Listener, len(s.listeners))
	for i, sub := range s.listeners {
		listeners[i] = sub.listener
	}
	s.mu.Unlock()

	for _, l := range listeners {
		l(copyPlaces(snapshot))
	}
}

func copyPlaces(places []models.Place) []models.Place {
	result := make([]models.Place, len(places))
	copy(result, places)
	return result
}
