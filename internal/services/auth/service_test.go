package auth

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/serendib/internal/common"
	"github.com/ternarybob/serendib/internal/interfaces"
	"github.com/ternarybob/serendib/internal/storage/badger"
)

func newSessionStorage(t *testing.T) interfaces.AdminSessionStorage {
	t.Helper()
	storage, err := badger.NewManager(arbor.NewLogger(), &common.BadgerConfig{Path: filepath.Join(t.TempDir(), "db")})
	require.NoError(t, err)
	t.Cleanup(func() { _ = storage.Close() })
	return storage.AdminSessionStorage()
}

func newTestService(t *testing.T, config common.AdminConfig) *Service {
	t.Helper()
	svc, err := NewService(config, newSessionStorage(t), arbor.NewLogger())
	require.NoError(t, err)
	return svc
}

func TestLogin_WithHash(t *testing.T) {
	hash, err := HashPassword("s3cret-pass")
	require.NoError(t, err)
	svc := newTestService(t, common.AdminConfig{Username: "admin", PasswordHash: hash, SessionTTL: "1h"})
	ctx := context.Background()

	session, err := svc.Login(ctx, "admin", "s3cret-pass")
	require.NoError(t, err)
	assert.NotEmpty(t, session.Token)
	assert.Equal(t, "admin", session.Username)
	assert.WithinDuration(t, session.CreatedAt.Add(time.Hour), session.ExpiresAt, time.Second)

	resolved, err := svc.Authenticate(ctx, session.Token)
	require.NoError(t, err)
	assert.Equal(t, session.Token, resolved.Token)
}

func TestLogin_InvalidCredentials(t *testing.T) {
	svc := newTestService(t, common.AdminConfig{Username: "admin", Password: "s3cret-pass"})
	ctx := context.Background()

	_, err := svc.Login(ctx, "admin", "wrong")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	_, err = svc.Login(ctx, "root", "s3cret-pass")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestLogin_NotConfigured(t *testing.T) {
	svc := newTestService(t, common.AdminConfig{Username: "admin"})
	assert.False(t, svc.Configured())

	_, err := svc.Login(context.Background(), "admin", "")
	assert.ErrorIs(t, err, ErrNotConfigured)
}

func TestNewService_RejectsBadHash(t *testing.T) {
	_, err := NewService(common.AdminConfig{Username: "admin", PasswordHash: "plain"}, newSessionStorage(t), arbor.NewLogger())
	assert.Error(t, err)
}

func TestAuthenticate_ExpiredAndLogout(t *testing.T) {
	svc := newTestService(t, common.AdminConfig{Username: "admin", Password: "s3cret-pass", SessionTTL: "1m"})
	ctx := context.Background()

	session, err := svc.Login(ctx, "admin", "s3cret-pass")
	require.NoError(t, err)

	_, err = svc.Authenticate(ctx, "unknown-token")
	assert.ErrorIs(t, err, ErrSessionExpired)
	_, err = svc.Authenticate(ctx, "")
	assert.ErrorIs(t, err, ErrSessionExpired)

	svc.now = func() time.Time { return session.ExpiresAt.Add(time.Second) }
	_, err = svc.Authenticate(ctx, session.Token)
	assert.ErrorIs(t, err, ErrSessionExpired)

	svc.now = time.Now
	_, err = svc.Authenticate(ctx, session.Token)
	assert.ErrorIs(t, err, ErrSessionExpired, "expired session is deleted on first sight")

	fresh, err := svc.Login(ctx, "admin", "s3cret-pass")
	require.NoError(t, err)
	require.NoError(t, svc.Logout(ctx, fresh.Token))
	_, err = svc.Authenticate(ctx, fresh.Token)
	assert.ErrorIs(t, err, ErrSessionExpired)
}

func TestCleanupExpired(t *testing.T) {
	svc := newTestService(t, common.AdminConfig{Username: "admin", Password: "s3cret-pass", SessionTTL: "1m"})
	ctx := context.Background()

	_, err := svc.Login(ctx, "admin", "s3cret-pass")
	require.NoError(t, err)
	_, err = svc.Login(ctx, "admin", "s3cret-pass")
	require.NoError(t, err)

	deleted, err := svc.CleanupExpired(ctx)
	require.NoError(t, err)
	assert.Zero(t, deleted)

	svc.now = func() time.Time { return time.Now().Add(2 * time.Minute) }
	deleted, err = svc.CleanupExpired(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, deleted)
}
