package planner

import (
	"sync"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/serendib/internal/models"
	"github.com/ternarybob/serendib/internal/services/validation"
)

// UpdateKind tells watchers which part of the session changed
type UpdateKind string

const (
	UpdateSelection UpdateKind = "selection"
	UpdateDialog    UpdateKind = "dialog"
	UpdateError     UpdateKind = "error" // a rejected command, sent only to the client that issued it
)

// Update is pushed to session watchers after every change
type Update struct {
	Kind      UpdateKind      `json:"type"`
	Itinerary *Itinerary      `json:"itinerary,omitempty"`
	Map       *MapState       `json:"map,omitempty"`
	Dialog    *DialogSnapshot `json:"dialog,omitempty"`
	Error     string          `json:"error,omitempty"`
}

// Session is one traveller's planner: a selection with its two views and the submission dialog
type Session struct {
	ID        string
	Catalog   *Catalog
	Selection *Selection
	Map       *MapView
	Itinerary *ItineraryPanel
	Dialog    *Dialog

	mu        sync.Mutex
	lastSeen  time.Time
	watchers  map[uint64]func(Update)
	nextWatch uint64
}

// NewSession wires a fresh selection to its views and dialog
func NewSession(id string, catalog *Catalog, dispatcher Dispatcher, validator *validation.Service, logger arbor.ILogger) *Session {
	s := &Session{
		ID:        id,
		Catalog:   catalog,
		Selection: NewSelection(),
		Map:       NewMapView(),
		Itinerary: NewItineraryPanel(),
		Dialog:    NewDialog(dispatcher, validator, logger),
		lastSeen:  time.Now(),
		watchers:  make(map[uint64]func(Update)),
	}

	s.Selection.Subscribe(s.Map.Update)
	s.Selection.Subscribe(s.Itinerary.Update)
	s.Selection.Subscribe(func(places []models.Place) {
		itinerary := s.Itinerary.Itinerary()
		mapState := s.Map.State()
		s.broadcast(Update{Kind: UpdateSelection, Itinerary: &itinerary, Map: &mapState})
	})
	s.Dialog.OnChange(func(snapshot DialogSnapshot) {
		s.broadcast(Update{Kind: UpdateDialog, Dialog: &snapshot})
	})

	return s
}

// AddPlace adds a catalogue place by id. Returns false when the id is unknown.
func (s *Session) AddPlace(placeID string) bool {
	place, ok := s.Catalog.Place(placeID)
	if !ok {
		return false
	}
	s.Selection.Add(place)
	return true
}

// Touch records activity on the session
func (s *Session) Touch(now time.Time) {
	s.mu.Lock()
	s.lastSeen = now
	s.mu.Unlock()
}

// LastSeen returns the time of the last recorded activity
func (s *Session) LastSeen() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastSeen
}

// Watch registers fn for session updates and returns a function that removes it
func (s *Session) Watch(fn func(Update)) (unwatch func()) {
	s.mu.Lock()
	s.nextWatch++
	id := s.nextWatch
	s.watchers[id] = fn
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		delete(s.watchers, id)
		s.mu.Unlock()
	}
}

// WatcherCount returns the number of active watchers
func (s *Session) WatcherCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.watchers)
}

// Close abandons any pending submission and drops all watchers
func (s *Session) Close() {
	s.Dialog.Close()
	s.mu.Lock()
	s.watchers = make(map[uint64]func(Update))
	s.mu.Unlock()
}

func (s *Session) broadcast(update Update) {
	s.mu.Lock()
	watchers := make([]func(Update), 0, len(s.watchers))
	for _, w := range s.watchers {
		watchers = append(watchers, w)
	}
	s.mu.Unlock()

	for _, w := range watchers {
		w(update)
	}
}
