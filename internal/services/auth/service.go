package auth

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/serendib/internal/common"
	"github.com/ternarybob/serendib/internal/interfaces"
	"github.com/ternarybob/serendib/internal/models"
	"golang.org/x/crypto/bcrypt"
)

const (
	// CookieName carries the admin session token
	CookieName = "serendib_admin"
	// CleanupJobName is the scheduler job that drops expired sessions
	CleanupJobName = "admin_session_cleanup"
)

var (
	// ErrInvalidCredentials is returned for an unknown username or wrong password
	ErrInvalidCredentials = errors.New("invalid username or password")
	// ErrSessionExpired is returned for a missing or expired session token
	ErrSessionExpired = errors.New("session expired")
	// ErrNotConfigured is returned when no admin password is configured
	ErrNotConfigured = errors.New("admin login is not configured")
)

// Service checks admin credentials and manages admin sessions
type Service struct {
	username     string
	passwordHash []byte
	ttl          time.Duration
	sessions     interfaces.AdminSessionStorage
	logger       arbor.ILogger
	now          func() time.Time
}

// NewService creates the admin credentials provider. A plain password in
// config is hashed once at startup when no hash is configured.
func NewService(config common.AdminConfig, sessions interfaces.AdminSessionStorage, logger arbor.ILogger) (*Service, error) {
	s := &Service{
		username: strings.TrimSpace(config.Username),
		ttl:      config.SessionTimeout(),
		sessions: sessions,
		logger:   logger,
		now:      time.Now,
	}
	switch {
	case config.PasswordHash != "":
		if _, err := bcrypt.Cost([]byte(config.PasswordHash)); err != nil {
			return nil, fmt.Errorf("admin password_hash is not a bcrypt hash: %w", err)
		}
		s.passwordHash = []byte(config.PasswordHash)
	case config.Password != "":
		hash, err := HashPassword(config.Password)
		if err != nil {
			return nil, err
		}
		s.passwordHash = []byte(hash)
		logger.Warn().Msg("Admin password configured in plain text, set [admin] password_hash instead")
	default:
		logger.Warn().Msg("No admin password configured, admin login is disabled")
	}

	return s, nil
}

// HashPassword returns a bcrypt hash suitable for [admin] password_hash
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(hash), nil
}

// Configured reports whether admin login is possible
func (s *Service) Configured() bool {
	return s.username != "" && len(s.passwordHash) > 0
}

// Login checks credentials and starts a session
func (s *Service) Login(ctx context.Context, username, password string) (*models.AdminSession, error) {
	if !s.Configured() {
		return nil, ErrNotConfigured
	}

	userOK := subtle.ConstantTimeCompare([]byte(strings.TrimSpace(username)), []byte(s.username)) == 1
	passErr := bcrypt.CompareHashAndPassword(s.passwordHash, []byte(password))
	if !userOK || passErr != nil {
		s.logger.Warn().Str("username", username).Msg("Admin login failed")
		return nil, ErrInvalidCredentials
	}

	now := s.now()
	session := &models.AdminSession{
		Token:     common.NewToken(),
		Username:  s.username,
		CreatedAt: now,
		ExpiresAt: now.Add(s.ttl),
	}
	if err := s.sessions.SaveSession(ctx, session); err != nil {
		return nil, fmt.Errorf("failed to store admin session: %w", err)
	}

	s.logger.Info().Str("username", s.username).Msg("Admin logged in")
	return session, nil
}

// Authenticate resolves a session token. Expired sessions are deleted.
func (s *Service) Authenticate(ctx context.Context, token string) (*models.AdminSession, error) {
	if token == "" {
		return nil, ErrSessionExpired
	}

	session, err := s.sessions.GetSession(ctx, token)
	if errors.Is(err, interfaces.ErrNotFound) {
		return nil, ErrSessionExpired
	}
	if err != nil {
		return nil, err
	}

	if session.Expired(s.now()) {
		_ = s.sessions.DeleteSession(ctx, token)
		return nil, ErrSessionExpired
	}
	return session, nil
}

// Logout ends a session
func (s *Service) Logout(ctx context.Context, token string) error {
	if token == "" {
		return nil
	}
	return s.sessions.DeleteSession(ctx, token)
}

// CleanupExpired deletes sessions past their expiry
func (s *Service) CleanupExpired(ctx context.Context) (int, error) {
	deleted, err := s.sessions.DeleteExpired(ctx, s.now())
	if err != nil {
		return 0, err
	}
	if deleted > 0 {
		s.logger.Debug().Int("deleted", deleted).Msg("Expired admin sessions removed")
	}
	return deleted, nil
}

// RegisterCleanup schedules CleanupExpired on the scheduler
func (s *Service) RegisterCleanup(scheduler interfaces.SchedulerService, schedule string) error {
	return scheduler.RegisterJob(CleanupJobName, schedule, "Remove expired admin sessions", func() error {
		ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
		defer cancel()
		_, err := s.CleanupExpired(ctx)
		return err
	})
}
