package badger

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/serendib/internal/interfaces"
	"github.com/timshannon/badgerhold/v4"
)

// SettingsStorage stores interfaces.Setting records keyed by lowercased key
type SettingsStorage struct {
	db     *BadgerDB
	logger arbor.ILogger
}

// NewSettingsStorage creates the settings store
func NewSettingsStorage(db *BadgerDB, logger arbor.ILogger) interfaces.SettingsStorage {
	return &SettingsStorage{db: db, logger: logger}
}

func settingKey(key string) string {
	return strings.ToLower(strings.TrimSpace(key))
}

func (s *SettingsStorage) Get(ctx context.Context, key string) (string, error) {
	var setting interfaces.Setting
	switch err := s.db.Store().Get(settingKey(key), &setting); {
	case errors.Is(err, badgerhold.ErrNotFound):
		return "", interfaces.ErrKeyNotFound
	case err != nil:
		return "", fmt.Errorf("failed to read setting %s: %w", key, err)
	}
	return setting.Value, nil
}

// Set writes the setting in one transaction, keeping CreatedAt of an earlier value
func (s *SettingsStorage) Set(ctx context.Context, key, value, description string) error {
	store := s.db.Store()
	k := settingKey(key)

	err := store.Badger().Update(func(tx *badger.Txn) error {
		now := time.Now()
		setting := interfaces.Setting{Key: k, Value: value, Description: description, CreatedAt: now, UpdatedAt: now}

		var existing interfaces.Setting
		switch err := store.TxGet(tx, k, &existing); {
		case err == nil:
			setting.CreatedAt = existing.CreatedAt
		case !errors.Is(err, badgerhold.ErrNotFound):
			return err
		}
		return store.TxUpsert(tx, k, &setting)
	})
	if err != nil {
		return fmt.Errorf("failed to write setting %s: %w", k, err)
	}
	return nil
}

func (s *SettingsStorage) SetIfAbsent(ctx context.Context, key, value, description string) (bool, error) {
	k := settingKey(key)
	now := time.Now()

	err := s.db.Store().Insert(k, &interfaces.Setting{Key: k, Value: value, Description: description, CreatedAt: now, UpdatedAt: now})
	switch {
	case errors.Is(err, badgerhold.ErrKeyExists):
		return false, nil
	case err != nil:
		return false, fmt.Errorf("failed to insert setting %s: %w", k, err)
	}
	return true, nil
}

func (s *SettingsStorage) Delete(ctx context.Context, key string) error {
	switch err := s.db.Store().Delete(settingKey(key), &interfaces.Setting{}); {
	case errors.Is(err, badgerhold.ErrNotFound):
		return interfaces.ErrKeyNotFound
	case err != nil:
		return fmt.Errorf("failed to delete setting %s: %w", key, err)
	}
	return nil
}

func (s *SettingsStorage) List(ctx context.Context, prefix string) ([]interfaces.Setting, error) {
	var settings []interfaces.Setting
	query := badgerhold.Where("Key").HasPrefix(settingKey(prefix)).SortBy("Key")
	if err := s.db.Store().Find(&settings, query); err != nil {
		return nil, fmt.Errorf("failed to list settings: %w", err)
	}
	return settings, nil
}
