package models

// Place is a single point of interest in the catalogue.
// Places are immutable reference data; the planner only ever copies them.
type Place struct {
	ID          string  `json:"id" yaml:"id"`
	Name        string  `json:"name" yaml:"name"`
	Province    string  `json:"province" yaml:"province"`
	Lat         float64 `json:"lat" yaml:"lat"`
	Lng         float64 `json:"lng" yaml:"lng"`
	Description string  `json:"description" yaml:"description"`
	Image       string  `json:"image" yaml:"image"`
}

// Province groups the places it owns. A place belongs to exactly one province.
type Province struct {
	ID     string  `json:"id" yaml:"id"`
	Name   string  `json:"name" yaml:"name"`
	Places []Place `json:"places" yaml:"places"`
}
