package planner

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/ternarybob/serendib/internal/models"
)

func TestFilter(t *testing.T) {
	catalog := testCatalog()

	tests := []struct {
		name     string
		province string
		query    string
		want     []string
	}{
		{"empty query returns province in catalog order", "hills", "", []string{"kandy", "ella"}},
		{"whitespace query is matched as typed", "hills", "   ", []string{}},
		{"trailing space is part of the query", "hills", "kandy ", []string{}},
		{"inner space matches description", "hills", "arch bridge", []string{"ella"}},
		{"substring of name is case-insensitive", "hills", "and", []string{"kandy"}},
		{"upper case query", "hills", "ELL", []string{"ella"}},
		{"description matches", "hills", "bridge", []string{"ella"}},
		{"no match", "hills", "beach", []string{}},
		{"other province", "south", "fort", []string{"galle"}},
		{"unknown province is empty", "nowhere", "", []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ids(Filter(catalog, tt.province, tt.query)))
		})
	}
}

func TestFilter_ReturnsPlaceValues(t *testing.T) {
	result := Filter(testCatalog(), "hills", "and")
	assert.Equal(t, []models.Place{{
		ID:          "kandy",
		Name:        "Kandy",
		Province:    "Hill Country",
		Lat:         kandy.Lat,
		Lng:         kandy.Lng,
		Description: kandy.Description,
	}}, result)
}

func TestTabs(t *testing.T) {
	catalog := testCatalog()

	tabs := Tabs(catalog, "south")
	assert.Len(t, tabs, 2)
	assert.False(t, tabs[0].Active)
	assert.True(t, tabs[1].Active)
	assert.Equal(t, 1, tabs[1].PlaceCount)

	tabs = Tabs(catalog, "unknown")
	assert.True(t, tabs[0].Active, "unknown id falls back to first province")
}

func TestCards_MarksSelected(t *testing.T) {
	catalog := testCatalog()
	selection := NewSelection()
	selection.Add(ella)

	cards := Cards(Filter(catalog, "hills", ""), selection)
	assert.Len(t, cards, 2)
	assert.Equal(t, "kandy", cards[0].ID)
	assert.False(t, cards[0].Selected)
	assert.Equal(t, "ella", cards[1].ID)
	assert.True(t, cards[1].Selected)
}
