package planner

import (
	"sync"

	"github.com/ternarybob/serendib/internal/models"
)

// Marker is one numbered pin on the map
type Marker struct {
	Number int     `json:"number"`
	ID     string  `json:"id"`
	Name   string  `json:"name"`
	Lat    float64 `json:"lat"`
	Lng    float64 `json:"lng"`
}

// Bounds is the bounding box of the markers
type Bounds struct {
	MinLat float64 `json:"minLat"`
	MinLng float64 `json:"minLng"`
	MaxLat float64 `json:"maxLat"`
	MaxLng float64 `json:"maxLng"`
}

// PreviewPosition places a marker on the static map preview, in percent of the image
type PreviewPosition struct {
	Number int     `json:"number"`
	Top    float64 `json:"top"`
	Left   float64 `json:"left"`
}

// previewPositions is a fixed layout for the map preview keyed by list position.
// It does not follow real coordinates.
var previewPositions = []struct{ top, left float64 }{
	{30, 45},
	{45, 60},
	{65, 40},
	{55, 25},
	{25, 65},
	{75, 55},
	{40, 35},
	{20, 50},
}

// MapState is what the map renderer receives
type MapState struct {
	Markers []Marker          `json:"markers"`
	Bounds  *Bounds           `json:"bounds,omitempty"`
	Route   [][2]float64      `json:"route"`
	Preview []PreviewPosition `json:"preview"`
}

// MapView keeps the map rendering of the selection. It only reads selection snapshots.
type MapView struct {
	mu    sync.RWMutex
	state MapState
}

// NewMapView creates a map view of an empty selection
func NewMapView() *MapView {
	return &MapView{state: RenderMap(nil)}
}

// Update is a selection Listener
func (v *MapView) Update(places []models.Place) {
	state := RenderMap(places)
	v.mu.Lock()
	v.state = state
	v.mu.Unlock()
}

// State returns the current map state
func (v *MapView) State() MapState {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.state
}

// RenderMap builds the map state for an ordered selection
func RenderMap(places []models.Place) MapState {
	state := MapState{
		Markers: make([]Marker, len(places)),
		Route:   make([][2]float64, len(places)),
		Preview: make([]PreviewPosition, len(places)),
	}

	for i, p := range places {
		state.Markers[i] = Marker{Number: i + 1, ID: p.ID, Name: p.Name, Lat: p.Lat, Lng: p.Lng}
		state.Route[i] = [2]float64{p.Lat, p.Lng}

		pos := previewPositions[i%len(previewPositions)]
		state.Preview[i] = PreviewPosition{Number: i + 1, Top: pos.top, Left: pos.left}

		if state.Bounds == nil {
			state.Bounds = &Bounds{MinLat: p.Lat, MaxLat: p.Lat, MinLng: p.Lng, MaxLng: p.Lng}
			continue
		}
		state.Bounds.MinLat = min(state.Bounds.MinLat, p.Lat)
		state.Bounds.MaxLat = max(state.Bounds.MaxLat, p.Lat)
		state.Bounds.MinLng = min(state.Bounds.MinLng, p.Lng)
		state.Bounds.MaxLng = max(state.Bounds.MaxLng, p.Lng)
	}

	return state
}

// ItineraryEntry is one numbered stop
type ItineraryEntry struct {
	Number int          `json:"number"`
	Place  models.Place `json:"place"`
}

// Itinerary is the numbered list with its derived statistics
type Itinerary struct {
	Entries []ItineraryEntry `json:"entries"`
	Stats   Stats            `json:"stats"`
	CanSave bool             `json:"canSave"`
}

// ItineraryPanel keeps the itinerary rendering of the selection
type ItineraryPanel struct {
	mu        sync.RWMutex
	itinerary Itinerary
}

// NewItineraryPanel creates a panel for an empty selection
func NewItineraryPanel() *ItineraryPanel {
	return &ItineraryPanel{itinerary: RenderItinerary(nil)}
}

// Update is a selection Listener
func (p *ItineraryPanel) Update(places []models.Place) {
	itinerary := RenderItinerary(places)
	p.mu.Lock()
	p.itinerary = itinerary
	p.mu.Unlock()
}

// Itinerary returns the current itinerary
func (p *ItineraryPanel) Itinerary() Itinerary {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.itinerary
}

// RenderItinerary numbers the selection from 1 and computes its stats.
// Saving is offered only when at least one place is selected.
func RenderItinerary(places []models.Place) Itinerary {
	entries := make([]ItineraryEntry, len(places))
	for i, p := range places {
		entries[i] = ItineraryEntry{Number: i + 1, Place: p}
	}
	stats := ComputeStats(len(places))
	return Itinerary{
		Entries: entries,
		Stats:   stats,
		CanSave: stats.DestinationCount > 0,
	}
}
