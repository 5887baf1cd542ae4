package badger

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/serendib/internal/interfaces"
	"github.com/ternarybob/serendib/internal/models"
	"github.com/timshannon/badgerhold/v4"
)

// AdminSessionStorage implements the AdminSessionStorage interface for Badger
type AdminSessionStorage struct {
	db     *BadgerDB
	logger arbor.ILogger
}

// NewAdminSessionStorage creates a new AdminSessionStorage instance
func NewAdminSessionStorage(db *BadgerDB, logger arbor.ILogger) interfaces.AdminSessionStorage {
	return &AdminSessionStorage{
		db:     db,
		logger: logger,
	}
}

func (s *AdminSessionStorage) SaveSession(ctx context.Context, session *models.AdminSession) error {
	if session.Token == "" {
		return fmt.Errorf("session token is required")
	}
	if err := s.db.Store().Upsert(session.Token, session); err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}
	return nil
}

func (s *AdminSessionStorage) GetSession(ctx context.Context, token string) (*models.AdminSession, error) {
	var session models.AdminSession
	if err := s.db.Store().Get(token, &session); err != nil {
		if errors.Is(err, badgerhold.ErrNotFound) {
			return nil, fmt.Errorf("session: %w", interfaces.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get session: %w", err)
	}
	return &session, nil
}

func (s *AdminSessionStorage) DeleteSession(ctx context.Context, token string) error {
	if err := s.db.Store().Delete(token, &models.AdminSession{}); err != nil {
		if errors.Is(err, badgerhold.ErrNotFound) {
			return nil // Already deleted
		}
		return fmt.Errorf("failed to delete session: %w", err)
	}
	return nil
}

// DeleteExpired removes every session whose expiry is at or before now
func (s *AdminSessionStorage) DeleteExpired(ctx context.Context, now time.Time) (int, error) {
	var expired []models.AdminSession
	if err := s.db.Store().Find(&expired, badgerhold.Where("ExpiresAt").Le(now)); err != nil {
		return 0, fmt.Errorf("failed to find expired sessions: %w", err)
	}

	deleted := 0
	for _, session := range expired {
		if err := s.db.Store().Delete(session.Token, &models.AdminSession{}); err != nil {
			s.logger.Warn().Err(err).Msg("Failed to delete expired admin session")
			continue
		}
		deleted++
	}
	return deleted, nil
}
