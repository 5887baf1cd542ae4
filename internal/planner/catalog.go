package planner

import (
	"github.com/ternarybob/serendib/internal/models"
)

// ProvinceSummary is the tab-level view of a province
type ProvinceSummary struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	PlaceCount int    `json:"placeCount"`
}

// Catalog is the read-only place catalogue. It is built once at startup and
// shared by every planner session; nothing mutates it afterwards.
type Catalog struct {
	provinces []models.Province
	places    map[string]models.Place
	index     map[string]int
}

// NewCatalog copies provinces into an immutable catalogue. Each place's
// Province field is set to its owning province's name.
func NewCatalog(provinces []models.Province) *Catalog {
	c := &Catalog{
		provinces: make([]models.Province, 0, len(provinces)),
		places:    make(map[string]models.Place),
		index:     make(map[string]int, len(provinces)),
	}

	for _, p := range provinces {
		province := models.Province{
			ID:     p.ID,
			Name:   p.Name,
			Places: make([]models.Place, 0, len(p.Places)),
		}
		for _, place := range p.Places {
			place.Province = p.Name
			province.Places = append(province.Places, place)
			c.places[place.ID] = place
		}
		c.index[p.ID] = len(c.provinces)
		c.provinces = append(c.provinces, province)
	}

	return c
}

// EmptyCatalog returns a catalogue with no provinces
func EmptyCatalog() *Catalog {
	return NewCatalog(nil)
}

// Provinces returns a copy of all provinces in catalogue order
func (c *Catalog) Provinces() []models.Province {
	result := make([]models.Province, len(c.provinces))
	for i, p := range c.provinces {
		result[i] = copyProvince(p)
	}
	return result
}

// Province returns the province with the given id
func (c *Catalog) Province(id string) (models.Province, bool) {
	i, ok := c.index[id]
	if !ok {
		return models.Province{}, false
	}
	return copyProvince(c.provinces[i]), true
}

// Place looks up a place by id across all provinces
func (c *Catalog) Place(id string) (models.Place, bool) {
	place, ok := c.places[id]
	return place, ok
}

// Summaries lists provinces with their place counts
func (c *Catalog) Summaries() []ProvinceSummary {
	result := make([]ProvinceSummary, len(c.provinces))
	for i, p := range c.provinces {
		result[i] = ProvinceSummary{ID: p.ID, Name: p.Name, PlaceCount: len(p.Places)}
	}
	return result
}

// DefaultProvinceID is the first province, or "" for an empty catalogue
func (c *Catalog) DefaultProvinceID() string {
	if len(c.provinces) == 0 {
		return ""
	}
	return c.provinces[0].ID
}

// PlaceCount returns the total number of places
func (c *Catalog) PlaceCount() int {
	return len(c.places)
}

func copyProvince(p models.Province) models.Province {
	places := make([]models.Place, len(p.Places))
	copy(places, p.Places)
	p.Places = places
	return p
}
