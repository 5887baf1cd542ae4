package badger

import (
	"context"
	"errors"
	"fmt"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/serendib/internal/interfaces"
	"github.com/ternarybob/serendib/internal/models"
	"github.com/timshannon/badgerhold/v4"
)

// InquiryStorage implements the InquiryStorage interface for Badger
type InquiryStorage struct {
	db     *BadgerDB
	logger arbor.ILogger
}

// NewInquiryStorage creates a new InquiryStorage instance
func NewInquiryStorage(db *BadgerDB, logger arbor.ILogger) interfaces.InquiryStorage {
	return &InquiryStorage{
		db:     db,
		logger: logger,
	}
}

func (s *InquiryStorage) SaveInquiry(ctx context.Context, inquiry *models.Inquiry) error {
	if inquiry.ID == "" {
		return fmt.Errorf("inquiry ID is required")
	}
	if err := s.db.Store().Upsert(inquiry.ID, inquiry); err != nil {
		return fmt.Errorf("failed to save inquiry: %w", err)
	}
	return nil
}

func (s *InquiryStorage) GetInquiry(ctx context.Context, id string) (*models.Inquiry, error) {
	var inquiry models.Inquiry
	if err := s.db.Store().Get(id, &inquiry); err != nil {
		if errors.Is(err, badgerhold.ErrNotFound) {
			return nil, fmt.Errorf("inquiry %s: %w", id, interfaces.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get inquiry: %w", err)
	}
	return &inquiry, nil
}

func (s *InquiryStorage) ListInquiries(ctx context.Context, limit int) ([]*models.Inquiry, error) {
	query := badgerhold.Where("ID").Ne("").SortBy("CreatedAt").Reverse()
	if limit > 0 {
		query = query.Limit(limit)
	}

	var inquiries []models.Inquiry
	if err := s.db.Store().Find(&inquiries, query); err != nil {
		return nil, fmt.Errorf("failed to list inquiries: %w", err)
	}

	result := make([]*models.Inquiry, len(inquiries))
	for i := range inquiries {
		result[i] = &inquiries[i]
	}
	return result, nil
}

func (s *InquiryStorage) CountInquiries(ctx context.Context) (int, error) {
	count, err := s.db.Store().Count(&models.Inquiry{}, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to count inquiries: %w", err)
	}
	return int(count), nil
}
