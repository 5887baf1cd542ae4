package models

import "time"

// ContentKind names a family of admin-managed documents
type ContentKind string

const (
	ContentKindTour        ContentKind = "tours"
	ContentKindDestination ContentKind = "destinations"
	ContentKindVehicle     ContentKind = "vehicles"
	ContentKindBlogPost    ContentKind = "blog"
	ContentKindStory       ContentKind = "stories"
)

// ContentKinds lists every kind in navigation order
var ContentKinds = []ContentKind{
	ContentKindTour,
	ContentKindDestination,
	ContentKindVehicle,
	ContentKindBlogPost,
	ContentKindStory,
}

// ParseContentKind validates a kind taken from a URL segment
func ParseContentKind(s string) (ContentKind, bool) {
	for _, k := range ContentKinds {
		if string(k) == s {
			return k, true
		}
	}
	return "", false
}

// Tour is a packaged multi-day itinerary sold by the operator
type Tour struct {
	ID           string    `json:"id"`
	Title        string    `json:"title" validate:"required,min=3,max=120"`
	Slug         string    `json:"slug"`
	Summary      string    `json:"summary" validate:"max=300"`
	Body         string    `json:"body"` // markdown
	DurationDays int       `json:"duration_days" validate:"gte=1,lte=60"`
	PriceFrom    float64   `json:"price_from" validate:"gte=0"`
	Currency     string    `json:"currency" validate:"omitempty,len=3"`
	Highlights   []string  `json:"highlights"`
	Destinations []string  `json:"destinations"` // destination slugs
	Image        string    `json:"image"`
	Featured     bool      `json:"featured"`
	Published    bool      `json:"published"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Destination is a marketing page about a place worth visiting
type Destination struct {
	ID          string    `json:"id"`
	Name        string    `json:"name" validate:"required,min=2,max=80"`
	Slug        string    `json:"slug"`
	Province    string    `json:"province"`
	Summary     string    `json:"summary" validate:"max=300"`
	Body        string    `json:"body"` // markdown
	Image       string    `json:"image"`
	PlaceID     string    `json:"place_id"` // optional link to the planner catalogue
	Published   bool      `json:"published"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Vehicle is a chauffeur-driven vehicle available for hire
type Vehicle struct {
	ID        string    `json:"id"`
	Name      string    `json:"name" validate:"required,min=2,max=80"`
	Slug      string    `json:"slug"`
	Kind      string    `json:"kind" validate:"required,oneof=car van minibus coach suv tuk-tuk"`
	Seats     int       `json:"seats" validate:"gte=1,lte=60"`
	Luggage   int       `json:"luggage" validate:"gte=0"`
	DailyRate float64   `json:"daily_rate" validate:"gte=0"`
	Features  []string  `json:"features"`
	Image     string    `json:"image"`
	Published bool      `json:"published"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// BlogPost is a dated article
type BlogPost struct {
	ID          string    `json:"id"`
	Title       string    `json:"title" validate:"required,min=3,max=140"`
	Slug        string    `json:"slug"`
	Author      string    `json:"author" validate:"max=80"`
	Body        string    `json:"body"` // markdown
	Tags        []string  `json:"tags"`
	Cover       string    `json:"cover"`
	Published   bool      `json:"published"`
	PublishedAt time.Time `json:"published_at"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Story is a traveller testimonial
type Story struct {
	ID        string    `json:"id"`
	Traveller string    `json:"traveller" validate:"required,min=2,max=80"`
	Country   string    `json:"country" validate:"max=60"`
	Title     string    `json:"title" validate:"required,min=3,max=140"`
	Slug      string    `json:"slug"`
	Body      string    `json:"body"` // markdown
	Rating    int       `json:"rating" validate:"gte=1,lte=5"`
	Image     string    `json:"image"`
	Published bool      `json:"published"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ContentStats counts documents per kind for the admin dashboard
type ContentStats struct {
	Counts    map[ContentKind]int `json:"counts"`
	Inquiries int                 `json:"inquiries"`
}
