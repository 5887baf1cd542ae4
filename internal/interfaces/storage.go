package interfaces

import (
	"context"
	"errors"
	"time"

	"github.com/ternarybob/serendib/internal/models"
)

// ErrNotFound is returned when a document does not exist
var ErrNotFound = errors.New("not found")

// DocumentStorage is the persistence contract shared by every content kind
type DocumentStorage[T any] interface {
	Save(ctx context.Context, id string, doc *T) error
	Get(ctx context.Context, id string) (*T, error)
	GetBySlug(ctx context.Context, slug string) (*T, error)
	List(ctx context.Context) ([]*T, error) // newest first
	Delete(ctx context.Context, id string) error
	Count(ctx context.Context) (int, error)
}

// InquiryStorage persists inquiry delivery records
type InquiryStorage interface {
	SaveInquiry(ctx context.Context, inquiry *models.Inquiry) error
	GetInquiry(ctx context.Context, id string) (*models.Inquiry, error)
	ListInquiries(ctx context.Context, limit int) ([]*models.Inquiry, error) // newest first, limit <= 0 = all
	CountInquiries(ctx context.Context) (int, error)
}

// AdminSessionStorage persists admin login sessions
type AdminSessionStorage interface {
	SaveSession(ctx context.Context, session *models.AdminSession) error
	GetSession(ctx context.Context, token string) (*models.AdminSession, error)
	DeleteSession(ctx context.Context, token string) error
	DeleteExpired(ctx context.Context, now time.Time) (int, error)
}

// StorageManager - composite interface for all storage operations
type StorageManager interface {
	Tours() DocumentStorage[models.Tour]
	Destinations() DocumentStorage[models.Destination]
	Vehicles() DocumentStorage[models.Vehicle]
	BlogPosts() DocumentStorage[models.BlogPost]
	Stories() DocumentStorage[models.Story]
	InquiryStorage() InquiryStorage
	AdminSessionStorage() AdminSessionStorage
	Settings() SettingsStorage
	RunGC() (int, error) // value log files rewritten
	Close() error
}
