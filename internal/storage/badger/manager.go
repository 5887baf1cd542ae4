package badger

import (
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/serendib/internal/common"
	"github.com/ternarybob/serendib/internal/interfaces"
	"github.com/ternarybob/serendib/internal/models"
)

// Manager implements the StorageManager interface for Badger
type Manager struct {
	db           *BadgerDB
	tours        interfaces.DocumentStorage[models.Tour]
	destinations interfaces.DocumentStorage[models.Destination]
	vehicles     interfaces.DocumentStorage[models.Vehicle]
	blogPosts    interfaces.DocumentStorage[models.BlogPost]
	stories      interfaces.DocumentStorage[models.Story]
	inquiry      interfaces.InquiryStorage
	adminSession interfaces.AdminSessionStorage
	settings     interfaces.SettingsStorage
	logger       arbor.ILogger
}

// NewManager creates a new Badger storage manager
func NewManager(logger arbor.ILogger, config *common.BadgerConfig) (interfaces.StorageManager, error) {
	db, err := NewBadgerDB(logger, config)
	if err != nil {
		return nil, err
	}

	manager := newManager(db, logger)

	logger.Info().Str("path", config.Path).Msg("Badger storage manager initialized")

	return manager, nil
}

func newManager(db *BadgerDB, logger arbor.ILogger) *Manager {
	return &Manager{
		db:           db,
		tours:        NewDocumentStorage[models.Tour](db, string(models.ContentKindTour), logger),
		destinations: NewDocumentStorage[models.Destination](db, string(models.ContentKindDestination), logger),
		vehicles:     NewDocumentStorage[models.Vehicle](db, string(models.ContentKindVehicle), logger),
		blogPosts:    NewDocumentStorage[models.BlogPost](db, string(models.ContentKindBlogPost), logger),
		stories:      NewDocumentStorage[models.Story](db, string(models.ContentKindStory), logger),
		inquiry:      NewInquiryStorage(db, logger),
		adminSession: NewAdminSessionStorage(db, logger),
		settings:     NewSettingsStorage(db, logger),
		logger:       logger,
	}
}

func (m *Manager) Tours() interfaces.DocumentStorage[models.Tour] {
	return m.tours
}

func (m *Manager) Destinations() interfaces.DocumentStorage[models.Destination] {
	return m.destinations
}

func (m *Manager) Vehicles() interfaces.DocumentStorage[models.Vehicle] {
	return m.vehicles
}

func (m *Manager) BlogPosts() interfaces.DocumentStorage[models.BlogPost] {
	return m.blogPosts
}

func (m *Manager) Stories() interfaces.DocumentStorage[models.Story] {
	return m.stories
}

// InquiryStorage returns the Inquiry storage interface
func (m *Manager) InquiryStorage() interfaces.InquiryStorage {
	return m.inquiry
}

// AdminSessionStorage returns the admin session storage interface
func (m *Manager) AdminSessionStorage() interfaces.AdminSessionStorage {
	return m.adminSession
}

// Settings returns the runtime settings store
func (m *Manager) Settings() interfaces.SettingsStorage {
	return m.settings
}

// RunGC reclaims space from the value log
func (m *Manager) RunGC() (int, error) {
	rewritten, err := m.db.RunValueLogGC()
	if err != nil {
		return rewritten, err
	}
	m.logger.Debug().Int("files_rewritten", rewritten).Msg("Badger value log GC complete")
	return rewritten, nil
}

// Close closes the database connection
func (m *Manager) Close() error {
	if m.db != nil {
		return m.db.Close()
	}
	return nil
}
