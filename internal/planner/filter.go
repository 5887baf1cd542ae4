package planner

import (
	"strings"

	"github.com/ternarybob/serendib/internal/models"
)

// Tab is one province switch in the place browser
type Tab struct {
	ProvinceSummary
	Active bool `json:"active"`
}

// Filter returns the places of a province whose name or description contains
// query, case-insensitively, in catalogue order. The query is matched as
// typed, whitespace included. An empty query returns every place of the
// province and an unknown province returns nothing.
func Filter(catalog *Catalog, provinceID, query string) []models.Place {
	province, ok := catalog.Province(provinceID)
	if !ok {
		return []models.Place{}
	}

	if query == "" {
		return province.Places
	}

	needle := strings.ToLower(query)
	result := make([]models.Place, 0, len(province.Places))
	for _, place := range province.Places {
		if strings.Contains(strings.ToLower(place.Name), needle) ||
			strings.Contains(strings.ToLower(place.Description), needle) {
			result = append(result, place)
		}
	}
	return result
}

// Tabs lists the province tabs, marking activeID. An unknown activeID falls
// back to the first province.
func Tabs(catalog *Catalog, activeID string) []Tab {
	summaries := catalog.Summaries()
	if _, ok := catalog.Province(activeID); !ok {
		activeID = catalog.DefaultProvinceID()
	}

	tabs := make([]Tab, len(summaries))
	for i, s := range summaries {
		tabs[i] = Tab{ProvinceSummary: s, Active: s.ID == activeID}
	}
	return tabs
}

// PlaceCard is a place as the browser grid shows it, with its add/remove toggle state
type PlaceCard struct {
	models.Place
	Selected bool `json:"selected"`
}

// Cards marks each place that is already in the selection
func Cards(places []models.Place, selection *Selection) []PlaceCard {
	cards := make([]PlaceCard, len(places))
	for i, place := range places {
		cards[i] = PlaceCard{Place: place, Selected: selection.Contains(place.ID)}
	}
	return cards
}
