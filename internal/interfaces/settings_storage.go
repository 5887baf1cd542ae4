package interfaces

import (
	"context"
	"errors"
	"time"
)

// ErrKeyNotFound is returned when a setting does not exist
var ErrKeyNotFound = errors.New("key not found")

// Setting is one runtime setting, such as an SMTP credential. Keys are case-insensitive.
type Setting struct {
	Key         string    `json:"key"`
	Value       string    `json:"value"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// SettingsStorage persists settings that the admin can change without a restart
type SettingsStorage interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value, description string) error
	// SetIfAbsent reports whether the setting was written
	SetIfAbsent(ctx context.Context, key, value, description string) (bool, error)
	Delete(ctx context.Context, key string) error
	// List returns settings whose key starts with prefix, ordered by key
	List(ctx context.Context, prefix string) ([]Setting, error)
}
