package content

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/serendib/internal/interfaces"
	"github.com/ternarybob/serendib/internal/models"
	"github.com/ternarybob/serendib/internal/services/markdown"
	"github.com/ternarybob/serendib/internal/services/validation"
)

// ErrInvalidDocument is returned when a request body cannot be decoded
var ErrInvalidDocument = errors.New("invalid document")

// Service owns the five content collections
type Service struct {
	Tours        *Collection[models.Tour, *models.Tour]
	Destinations *Collection[models.Destination, *models.Destination]
	Vehicles     *Collection[models.Vehicle, *models.Vehicle]
	BlogPosts    *Collection[models.BlogPost, *models.BlogPost]
	Stories      *Collection[models.Story, *models.Story]

	inquiries interfaces.InquiryStorage
	stores    map[models.ContentKind]Store
	markdown  *markdown.Renderer
}

// NewService creates the content service. events may be nil.
func NewService(storage interfaces.StorageManager, events interfaces.EventService, logger arbor.ILogger) *Service {
	validator := validation.NewService()
	renderer := markdown.NewRenderer()

	s := &Service{
		Tours:        newCollection(models.ContentKindTour, storage.Tours(), validator, renderer, events, logger),
		Destinations: newCollection(models.ContentKindDestination, storage.Destinations(), validator, renderer, events, logger),
		Vehicles:     newCollection(models.ContentKindVehicle, storage.Vehicles(), validator, renderer, events, logger),
		BlogPosts:    newCollection(models.ContentKindBlogPost, storage.BlogPosts(), validator, renderer, events, logger),
		Stories:      newCollection(models.ContentKindStory, storage.Stories(), validator, renderer, events, logger),
		inquiries:    storage.InquiryStorage(),
		markdown:     renderer,
	}

	s.stores = map[models.ContentKind]Store{
		models.ContentKindTour:        s.Tours,
		models.ContentKindDestination: s.Destinations,
		models.ContentKindVehicle:     s.Vehicles,
		models.ContentKindBlogPost:    s.BlogPosts,
		models.ContentKindStory:       s.Stories,
	}
	return s
}

func newCollection[T any, PT Document[T]](
	kind models.ContentKind,
	storage interfaces.DocumentStorage[T],
	validator *validation.Service,
	renderer *markdown.Renderer,
	events interfaces.EventService,
	logger arbor.ILogger,
) *Collection[T, PT] {
	return &Collection[T, PT]{
		kind:      kind,
		storage:   storage,
		validator: validator,
		markdown:  renderer,
		events:    events,
		logger:    logger,
		now:       time.Now,
	}
}

// Store returns the kind-erased collection for kind
func (s *Service) Store(kind models.ContentKind) (Store, bool) {
	store, ok := s.stores[kind]
	return store, ok
}

// Markdown exposes the shared renderer for templates
func (s *Service) Markdown() *markdown.Renderer {
	return s.markdown
}

// Stats counts documents per kind plus stored inquiries
func (s *Service) Stats(ctx context.Context) (*models.ContentStats, error) {
	stats := &models.ContentStats{Counts: make(map[models.ContentKind]int, len(s.stores))}
	for kind, store := range s.stores {
		count, err := store.Count(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to count %s: %w", kind, err)
		}
		stats.Counts[kind] = count
	}

	if s.inquiries != nil {
		count, err := s.inquiries.CountInquiries(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to count inquiries: %w", err)
		}
		stats.Inquiries = count
	}
	return stats, nil
}

// FeaturedTours returns up to limit published tours, featured ones first
func (s *Service) FeaturedTours(ctx context.Context, limit int) ([]*models.Tour, error) {
	tours, err := s.Tours.List(ctx, true)
	if err != nil {
		return nil, err
	}

	result := make([]*models.Tour, 0, len(tours))
	for _, tour := range tours {
		if tour.Featured {
			result = append(result, tour)
		}
	}
	for _, tour := range tours {
		if !tour.Featured {
			result = append(result, tour)
		}
	}
	if limit > 0 && len(result) > limit {
		result = result[:limit]
	}
	return result, nil
}

// ToursVisiting returns published tours whose route includes the destination slug
func (s *Service) ToursVisiting(ctx context.Context, destinationSlug string) ([]*models.Tour, error) {
	tours, err := s.Tours.List(ctx, true)
	if err != nil {
		return nil, err
	}

	var result []*models.Tour
	for _, tour := range tours {
		for _, slug := range tour.Destinations {
			if slug == destinationSlug {
				result = append(result, tour)
				break
			}
		}
	}
	return result, nil
}
