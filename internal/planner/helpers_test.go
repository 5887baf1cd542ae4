package planner

import (
	"context"

	"github.com/stretchr/testify/mock"
	"github.com/ternarybob/serendib/internal/models"
)

var (
	kandy = models.Place{ID: "kandy", Name: "Kandy", Lat: 7.2906, Lng: 80.6337, Description: "Hill capital with the Temple of the Tooth"}
	ella  = models.Place{ID: "ella", Name: "Ella", Lat: 6.8667, Lng: 81.0466, Description: "Nine Arch Bridge views"}
	galle = models.Place{ID: "galle", Name: "Galle", Lat: 6.0535, Lng: 80.2210, Description: "Dutch fort by the sea"}
)

func testCatalog() *Catalog {
	return NewCatalog([]models.Province{
		{ID: "hills", Name: "Hill Country", Places: []models.Place{kandy, ella}},
		{ID: "south", Name: "South Coast", Places: []models.Place{galle}},
	})
}

// MockDispatcher is a mock implementation of Dispatcher
type MockDispatcher struct {
	mock.Mock
}

func (m *MockDispatcher) Dispatch(ctx context.Context, req models.TripPlanRequest) (*models.DispatchResult, error) {
	args := m.Called(ctx, req)
	if result, ok := args.Get(0).(*models.DispatchResult); ok {
		return result, args.Error(1)
	}
	return nil, args.Error(1)
}

func validForm() ContactForm {
	return ContactForm{
		Name:  "Nimal Perera",
		Email: "nimal@example.com",
		Phone: "+94 77 123 4567",
		Notes: "Vegetarian meals please",
	}
}

func ids(places []models.Place) []string {
	result := make([]string, len(places))
	for i, p := range places {
		result[i] = p.ID
	}
	return result
}
