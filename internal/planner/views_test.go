package planner

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/serendib/internal/models"
)

func TestRenderMap_Empty(t *testing.T) {
	state := RenderMap(nil)
	assert.Empty(t, state.Markers)
	assert.Nil(t, state.Bounds)
	assert.Empty(t, state.Preview)
}

func TestRenderMap_NumbersMarkersInSelectionOrder(t *testing.T) {
	state := RenderMap([]models.Place{kandy, ella, galle})

	require.Len(t, state.Markers, 3)
	assert.Equal(t, 1, state.Markers[0].Number)
	assert.Equal(t, "galle", state.Markers[2].ID)
	assert.Equal(t, [2]float64{ella.Lat, ella.Lng}, state.Route[1])

	require.NotNil(t, state.Bounds)
	assert.Equal(t, galle.Lat, state.Bounds.MinLat)
	assert.Equal(t, kandy.Lat, state.Bounds.MaxLat)
	assert.Equal(t, galle.Lng, state.Bounds.MinLng)
	assert.Equal(t, ella.Lng, state.Bounds.MaxLng)
}

func TestRenderMap_PreviewPositionsWrap(t *testing.T) {
	places := make([]models.Place, len(previewPositions)+1)
	for i := range places {
		places[i] = models.Place{ID: string(rune('a' + i))}
	}

	state := RenderMap(places)
	first, wrapped := state.Preview[0], state.Preview[len(previewPositions)]
	assert.Equal(t, first.Top, wrapped.Top)
	assert.Equal(t, first.Left, wrapped.Left)
	assert.Equal(t, len(places), wrapped.Number)
}

func TestRenderItinerary(t *testing.T) {
	itinerary := RenderItinerary([]models.Place{kandy, ella})

	assert.Equal(t, []ItineraryEntry{{Number: 1, Place: kandy}, {Number: 2, Place: ella}}, itinerary.Entries)
	assert.Equal(t, Stats{DestinationCount: 2, RouteSegments: 1, EstimatedDays: 4}, itinerary.Stats)
	assert.True(t, itinerary.CanSave)

	assert.False(t, RenderItinerary(nil).CanSave)
}

func TestViews_FollowSelection(t *testing.T) {
	selection := NewSelection()
	mapView := NewMapView()
	panel := NewItineraryPanel()
	selection.Subscribe(mapView.Update)
	selection.Subscribe(panel.Update)

	selection.Add(kandy)
	selection.Add(ella)
	selection.Add(galle)
	selection.Remove("ella")

	assert.Len(t, mapView.State().Markers, 2)
	assert.Equal(t, "galle", mapView.State().Markers[1].ID)
	assert.Equal(t, 2, mapView.State().Markers[1].Number)

	itinerary := panel.Itinerary()
	assert.Equal(t, Stats{DestinationCount: 2, RouteSegments: 1, EstimatedDays: 4}, itinerary.Stats)

	selection.Clear()
	assert.Empty(t, mapView.State().Markers)
	assert.Equal(t, Stats{}, panel.Itinerary().Stats)
	assert.Equal(t, []string{}, ids(selection.Places()), "views never write back")
}
