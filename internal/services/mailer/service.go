// -----------------------------------------------------------------------
// Mailer Service - SMTP email sending
// Credentials are stored in the settings store with smtp_ prefix and seeded
// from the [mail] section of the config file on first start
// -----------------------------------------------------------------------

package mailer

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/serendib/internal/common"
	"github.com/ternarybob/serendib/internal/interfaces"
)

const keyPrefix = "smtp_"

// Config holds SMTP configuration loaded from the settings store
type Config struct {
	Host     string `json:"smtp_host"`
	Port     int    `json:"smtp_port"`
	Username string `json:"smtp_username"`
	Password string `json:"smtp_password,omitempty"`
	From     string `json:"smtp_from"`
	FromName string `json:"smtp_from_name"`
	UseTLS   bool   `json:"smtp_use_tls"`
}

// Validate checks the minimum settings needed to send
func (c *Config) Validate() error {
	if c.Host == "" {
		return fmt.Errorf("SMTP host not configured")
	}
	if c.Username == "" || c.Password == "" {
		return fmt.Errorf("SMTP credentials not configured")
	}
	if c.From == "" {
		return fmt.Errorf("from email not configured")
	}
	return nil
}

// Attachment represents an email attachment
type Attachment struct {
	Filename    string
	ContentType string // defaults to application/octet-stream
	Content     []byte
}

// Message is one outgoing email. At least one of HTMLBody and TextBody must be set.
type Message struct {
	To          []string
	ReplyTo     string
	Subject     string
	HTMLBody    string
	TextBody    string
	Attachments []Attachment
}

// Service provides email sending functionality
type Service struct {
	settings interfaces.SettingsStorage
	transport Transport
	logger    arbor.ILogger
	now       func() time.Time
}

// NewService creates a new mailer service that delivers over SMTP
func NewService(settings interfaces.SettingsStorage, logger arbor.ILogger) *Service {
	return NewServiceWithTransport(settings, NewSMTPTransport(), logger)
}

// NewServiceWithTransport creates a mailer that hands composed messages to transport
func NewServiceWithTransport(settings interfaces.SettingsStorage, transport Transport, logger arbor.ILogger) *Service {
	return &Service{
		settings: settings,
		transport: transport,
		logger:    logger,
		now:       time.Now,
	}
}

// GetConfig retrieves SMTP configuration from the settings store
func (s *Service) GetConfig(ctx context.Context) (*Config, error) {
	config := &Config{
		Port:     587,
		UseTLS:   true,
		FromName: "Serendib",
	}

	pairs, err := s.settings.List(ctx, keyPrefix)
	if err != nil {
		return nil, fmt.Errorf("failed to load mail config: %w", err)
	}

	for _, pair := range pairs {
		value := strings.TrimSpace(pair.Value)
		switch pair.Key {
		case "smtp_host":
			config.Host = value
		case "smtp_port":
			if port, err := strconv.Atoi(value); err == nil && port > 0 {
				config.Port = port
			}
		case "smtp_username":
			config.Username = value
		case "smtp_password":
			config.Password = pair.Value
		case "smtp_from":
			config.From = value
		case "smtp_from_name":
			if value != "" {
				config.FromName = value
			}
		case "smtp_use_tls":
			if value != "" {
				config.UseTLS = strings.EqualFold(value, "true") || value == "1"
			}
		}
	}

	return config, nil
}

func configPairs(config *Config) [][3]string {
	tlsStr := "false"
	if config.UseTLS {
		tlsStr = "true"
	}
	return [][3]string{
		{"smtp_host", config.Host, "SMTP server hostname"},
		{"smtp_port", strconv.Itoa(config.Port), "SMTP server port"},
		{"smtp_username", config.Username, "SMTP username"},
		{"smtp_password", config.Password, "SMTP password or app password"},
		{"smtp_from", config.From, "From email address"},
		{"smtp_from_name", config.FromName, "From display name"},
		{"smtp_use_tls", tlsStr, "Use TLS encryption"},
	}
}

// SetConfig saves SMTP configuration. An empty password keeps the stored one.
func (s *Service) SetConfig(ctx context.Context, config *Config) error {
	if config.Port <= 0 || config.Port > 65535 {
		return fmt.Errorf("invalid SMTP port: %d", config.Port)
	}

	for _, kv := range configPairs(config) {
		if kv[0] == "smtp_password" && kv[1] == "" {
			continue
		}
		if err := s.settings.Set(ctx, kv[0], kv[1], kv[2]); err != nil {
			return fmt.Errorf("failed to set %s: %w", kv[0], err)
		}
	}

	s.logger.Info().
		Str("host", config.Host).
		Int("port", config.Port).
		Str("from", config.From).
		Msg("Mail configuration saved")

	return nil
}

// SeedConfig copies non-empty SMTP values from the config file into storage,
// leaving anything already stored (e.g. edited in the admin area) untouched
func (s *Service) SeedConfig(ctx context.Context, mail common.MailConfig) error {
	seed := &Config{
		Host:     mail.SMTPHost,
		Port:     mail.SMTPPort,
		Username: mail.SMTPUsername,
		Password: mail.SMTPPassword,
		From:     mail.SMTPFrom,
		FromName: mail.SMTPFromName,
		UseTLS:   mail.SMTPUseTLS,
	}

	seeded := 0
	for _, kv := range configPairs(seed) {
		if kv[1] == "" || (kv[0] == "smtp_port" && mail.SMTPPort <= 0) {
			continue
		}
		written, err := s.settings.SetIfAbsent(ctx, kv[0], kv[1], kv[2])
		if err != nil {
			return fmt.Errorf("failed to seed %s: %w", kv[0], err)
		}
		if written {
			seeded++
		}
	}

	if seeded > 0 {
		s.logger.Info().Int("keys", seeded).Msg("Mail configuration seeded from config file")
	}
	return nil
}

// IsConfigured checks if SMTP is configured with minimum required settings
func (s *Service) IsConfigured(ctx context.Context) bool {
	config, err := s.GetConfig(ctx)
	if err != nil {
		return false
	}
	return config.Validate() == nil
}

// Send composes msg and delivers it. Returns the Message-ID of the sent email.
func (s *Service) Send(ctx context.Context, msg Message) (string, error) {
	if len(msg.To) == 0 {
		return "", fmt.Errorf("no recipients")
	}

	config, err := s.GetConfig(ctx)
	if err != nil {
		return "", err
	}
	if err := config.Validate(); err != nil {
		return "", err
	}

	data, messageID, err := Compose(config, msg, s.now())
	if err != nil {
		return "", err
	}

	if err := ctx.Err(); err != nil {
		return "", err
	}

	if err := s.transport.Send(ctx, config, msg.To, data); err != nil {
		s.logger.Error().
			Err(err).
			Strs("to", msg.To).
			Str("subject", msg.Subject).
			Msg("Failed to send email")
		return "", fmt.Errorf("failed to send email: %w", err)
	}

	s.logger.Info().
		Strs("to", msg.To).
		Str("subject", msg.Subject).
		Str("message_id", messageID).
		Int("attachments", len(msg.Attachments)).
		Msg("Email sent")

	return messageID, nil
}

// SendEmail sends a plain text email
func (s *Service) SendEmail(ctx context.Context, to, subject, body string) error {
	_, err := s.Send(ctx, Message{To: []string{to}, Subject: subject, TextBody: body})
	return err
}

// SendTestEmail sends a test email to verify configuration
func (s *Service) SendTestEmail(ctx context.Context, to string) error {
	subject := "Serendib Test Email"
	body := "This is a test email from Serendib to verify your SMTP configuration is working correctly."

	if err := s.SendEmail(ctx, to, subject, body); err != nil {
		s.logger.Error().Err(err).Str("to", to).Msg("Failed to send test email")
		return err
	}

	s.logger.Info().Str("to", to).Msg("Test email sent successfully")
	return nil
}
