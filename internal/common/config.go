package common

import (
	"fmt"
	"net/netip"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
	"github.com/robfig/cron/v3"
)

// Config represents the application configuration
type Config struct {
	Environment string        `toml:"environment"` // "development" or "production"
	Server      ServerConfig  `toml:"server"`
	Storage     StorageConfig `toml:"storage"`
	Logging     LoggingConfig `toml:"logging"`
	Site        SiteConfig    `toml:"site"`
	Catalog     CatalogConfig `toml:"catalog"`
	Planner     PlannerConfig `toml:"planner"`
	Mail        MailConfig    `toml:"mail"`
	Admin       AdminConfig   `toml:"admin"`
}

type ServerConfig struct {
	Port           int      `toml:"port"`
	Host           string   `toml:"host"`
	TrustedProxies []string `toml:"trusted_proxies"` // IPs or CIDRs whose X-Forwarded-For / X-Real-IP headers are honoured
}

type StorageConfig struct {
	Badger BadgerConfig `toml:"badger"`
}

// BadgerConfig represents BadgerDB-specific configuration
type BadgerConfig struct {
	Path           string `toml:"path"`             // Database directory path, empty = in-memory
	ResetOnStartup bool   `toml:"reset_on_startup"` // Delete database on startup for clean test runs
}

type LoggingConfig struct {
	Level      string   `toml:"level"`       // "debug", "info", "warn", "error"
	Output     []string `toml:"output"`      // "stdout", "file"
	TimeFormat string   `toml:"time_format"` // Time format for logs (default: "15:04:05")
}

// SiteConfig holds public-facing site identity used by pages and SEO metadata
type SiteConfig struct {
	Name        string `toml:"name"`
	BaseURL     string `toml:"base_url"`
	Description string `toml:"description"`
	Phone       string `toml:"phone"`
	Email       string `toml:"email"`
}

// CatalogConfig points at the place catalogue. Empty path uses the embedded catalogue.
type CatalogConfig struct {
	Path string `toml:"path"`
}

// PlannerConfig controls trip planner sessions and the email-dispatch collaborator
type PlannerConfig struct {
	SessionTTL      string `toml:"session_ttl"`      // Duration string, idle planner sessions are dropped after this (default: "2h")
	SweepSchedule   string `toml:"sweep_schedule"`   // Cron schedule for the session sweeper
	DispatchURL     string `toml:"dispatch_url"`     // Empty = dispatch in-process
	DispatchTimeout string `toml:"dispatch_timeout"` // Duration string, upper bound for one submission (default: "30s")
}

// SessionTimeout returns SessionTTL parsed, or the default when unset or invalid
func (p PlannerConfig) SessionTimeout() time.Duration {
	return durationOr(p.SessionTTL, defaultPlannerSessionTTL)
}

// DispatchTimeoutDuration returns DispatchTimeout parsed, or the default when unset or invalid
func (p PlannerConfig) DispatchTimeoutDuration() time.Duration {
	return durationOr(p.DispatchTimeout, defaultDispatchTimeout)
}

// MailConfig controls inquiry delivery. SMTP credentials live in the settings store.
type MailConfig struct {
	OperatorInbox    string  `toml:"operator_inbox"`    // Where inquiries are delivered
	SubjectPrefix    string  `toml:"subject_prefix"`    // Prepended to inquiry subjects
	SendConfirmation bool    `toml:"send_confirmation"` // Send a copy to the traveller
	AttachItinerary  bool    `toml:"attach_itinerary"`  // Attach a PDF itinerary to trip plans
	RatePerMinute    float64 `toml:"rate_per_minute"`   // Submissions per client per minute
	RateBurst        int     `toml:"rate_burst"`        // Burst allowance per client
	SMTPHost         string  `toml:"smtp_host"`         // Seed value, copied into the settings store when absent
	SMTPPort         int     `toml:"smtp_port"`         // Seed value
	SMTPUsername     string  `toml:"smtp_username"`     // Seed value
	SMTPPassword     string  `toml:"smtp_password"`     // Seed value
	SMTPFrom         string  `toml:"smtp_from"`         // Seed value
	SMTPFromName     string  `toml:"smtp_from_name"`    // Seed value
	SMTPUseTLS       bool    `toml:"smtp_use_tls"`      // Seed value
}

// AdminConfig is the credentials provider for the admin area
type AdminConfig struct {
	Username     string `toml:"username"`
	PasswordHash string `toml:"password_hash"` // bcrypt hash (preferred)
	Password     string `toml:"password"`      // Plain password, hashed at startup when no hash is set
	SessionTTL   string `toml:"session_ttl"`   // Duration string (default: "12h")
}

// SessionTimeout returns SessionTTL parsed, or the default when unset or invalid
func (a AdminConfig) SessionTimeout() time.Duration {
	return durationOr(a.SessionTTL, defaultAdminSessionTTL)
}

const (
	defaultPlannerSessionTTL = 2 * time.Hour
	defaultDispatchTimeout   = 30 * time.Second
	defaultAdminSessionTTL   = 12 * time.Hour
)

func durationOr(value string, fallback time.Duration) time.Duration {
	d, err := time.ParseDuration(strings.TrimSpace(value))
	if err != nil || d <= 0 {
		return fallback
	}
	return d
}

func parsePositiveDuration(name, value string) error {
	d, err := time.ParseDuration(strings.TrimSpace(value))
	if err != nil {
		return fmt.Errorf("invalid %s %q: %w", name, value, err)
	}
	if d <= 0 {
		return fmt.Errorf("%s must be positive", name)
	}
	return nil
}

// NewDefaultConfig creates a configuration with default values
func NewDefaultConfig() *Config {
	return &Config{
		Environment: "development",
		Server: ServerConfig{
			Port: 8080,
			Host: "localhost",
		},
		Storage: StorageConfig{
			Badger: BadgerConfig{
				Path: "./data",
			},
		},
		Logging: LoggingConfig{
			Level:      "info",
			Output:     []string{"stdout", "file"},
			TimeFormat: "15:04:05",
		},
		Site: SiteConfig{
			Name:        "Serendib Journeys",
			BaseURL:     "http://localhost:8080",
			Description: "Private tours, chauffeur-driven vehicles and tailor-made trips across Sri Lanka.",
		},
		Planner: PlannerConfig{
			SessionTTL:      "2h",
			SweepSchedule:   "*/10 * * * *",
			DispatchTimeout: "30s",
		},
		Mail: MailConfig{
			SubjectPrefix:    "[Serendib]",
			SendConfirmation: true,
			AttachItinerary:  true,
			RatePerMinute:    3,
			RateBurst:        3,
			SMTPPort:         587,
			SMTPFromName:     "Serendib Journeys",
			SMTPUseTLS:       true,
		},
		Admin: AdminConfig{
			Username:   "admin",
			SessionTTL: "12h",
		},
	}
}

// LoadFromFiles loads configuration from multiple files with priority: default -> file1 -> file2 -> ... -> env
// Later files override earlier files. CLI flags are applied afterwards by ApplyFlagOverrides.
func LoadFromFiles(paths ...string) (*Config, error) {
	config := NewDefaultConfig()

	for i, path := range paths {
		if path == "" {
			continue
		}

		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}

		if err := toml.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s (file %d of %d): %w", path, i+1, len(paths), err)
		}
	}

	applyEnvOverrides(config)

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

// applyEnvOverrides applies environment variable overrides to config
func applyEnvOverrides(config *Config) {
	if env := os.Getenv("SERENDIB_ENV"); env != "" {
		config.Environment = env
	} else if env := os.Getenv("GO_ENV"); env != "" {
		config.Environment = env
	}

	// Server configuration
	if port := os.Getenv("SERENDIB_SERVER_PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			config.Server.Port = p
		}
	}
	if host := os.Getenv("SERENDIB_SERVER_HOST"); host != "" {
		config.Server.Host = host
	}

	// Storage configuration
	if badgerPath := os.Getenv("SERENDIB_BADGER_PATH"); badgerPath != "" {
		config.Storage.Badger.Path = badgerPath
	}

	// Logging configuration
	if level := os.Getenv("SERENDIB_LOG_LEVEL"); level != "" {
		config.Logging.Level = level
	}
	if output := os.Getenv("SERENDIB_LOG_OUTPUT"); output != "" {
		outputs := []string{}
		for _, o := range strings.Split(output, ",") {
			if trimmed := strings.TrimSpace(o); trimmed != "" {
				outputs = append(outputs, trimmed)
			}
		}
		if len(outputs) > 0 {
			config.Logging.Output = outputs
		}
	}

	// Site configuration
	if baseURL := os.Getenv("SERENDIB_SITE_BASE_URL"); baseURL != "" {
		config.Site.BaseURL = baseURL
	}

	// Catalog configuration
	if catalogPath := os.Getenv("SERENDIB_CATALOG_PATH"); catalogPath != "" {
		config.Catalog.Path = catalogPath
	}

	// Planner configuration
	if ttl := os.Getenv("SERENDIB_PLANNER_SESSION_TTL"); ttl != "" {
		if _, err := time.ParseDuration(ttl); err == nil {
			config.Planner.SessionTTL = ttl
		}
	}
	if timeout := os.Getenv("SERENDIB_PLANNER_DISPATCH_TIMEOUT"); timeout != "" {
		if _, err := time.ParseDuration(timeout); err == nil {
			config.Planner.DispatchTimeout = timeout
		}
	}
	if dispatchURL := os.Getenv("SERENDIB_PLANNER_DISPATCH_URL"); dispatchURL != "" {
		config.Planner.DispatchURL = dispatchURL
	}

	// Mail configuration
	if inbox := os.Getenv("SERENDIB_MAIL_OPERATOR_INBOX"); inbox != "" {
		config.Mail.OperatorInbox = inbox
	}
	if host := os.Getenv("SERENDIB_SMTP_HOST"); host != "" {
		config.Mail.SMTPHost = host
	}
	if port := os.Getenv("SERENDIB_SMTP_PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			config.Mail.SMTPPort = p
		}
	}
	if username := os.Getenv("SERENDIB_SMTP_USERNAME"); username != "" {
		config.Mail.SMTPUsername = username
	}
	if password := os.Getenv("SERENDIB_SMTP_PASSWORD"); password != "" {
		config.Mail.SMTPPassword = password
	}
	if from := os.Getenv("SERENDIB_SMTP_FROM"); from != "" {
		config.Mail.SMTPFrom = from
	}

	// Admin configuration
	if username := os.Getenv("SERENDIB_ADMIN_USERNAME"); username != "" {
		config.Admin.Username = username
	}
	if hash := os.Getenv("SERENDIB_ADMIN_PASSWORD_HASH"); hash != "" {
		config.Admin.PasswordHash = hash
	}
	if password := os.Getenv("SERENDIB_ADMIN_PASSWORD"); password != "" {
		config.Admin.Password = password
	}
}

// ApplyFlagOverrides applies command-line flag overrides to config
func ApplyFlagOverrides(config *Config, port int, host string) {
	if port > 0 {
		config.Server.Port = port
	}
	if host != "" {
		config.Server.Host = host
	}
}

// Validate checks values that would otherwise fail late at runtime
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}
	if err := parsePositiveDuration("planner session_ttl", c.Planner.SessionTTL); err != nil {
		return err
	}
	if err := parsePositiveDuration("planner dispatch_timeout", c.Planner.DispatchTimeout); err != nil {
		return err
	}
	if err := parsePositiveDuration("admin session_ttl", c.Admin.SessionTTL); err != nil {
		return err
	}
	if _, err := ParseTrustedProxies(c.Server.TrustedProxies); err != nil {
		return err
	}
	if err := ValidateSchedule(c.Planner.SweepSchedule); err != nil {
		return fmt.Errorf("invalid planner sweep_schedule: %w", err)
	}
	if c.Mail.RatePerMinute < 0 || c.Mail.RateBurst < 0 {
		return fmt.Errorf("mail rate limits must not be negative")
	}
	return nil
}

// ParseTrustedProxies converts trusted_proxies entries (single IPs or CIDRs) to prefixes
func ParseTrustedProxies(entries []string) ([]netip.Prefix, error) {
	prefixes := make([]netip.Prefix, 0, len(entries))
	for _, entry := range entries {
		entry = strings.TrimSpace(entry)
		if strings.Contains(entry, "/") {
			prefix, err := netip.ParsePrefix(entry)
			if err != nil {
				return nil, fmt.Errorf("invalid server trusted_proxies entry %q: %w", entry, err)
			}
			prefixes = append(prefixes, prefix.Masked())
			continue
		}
		addr, err := netip.ParseAddr(entry)
		if err != nil {
			return nil, fmt.Errorf("invalid server trusted_proxies entry %q: %w", entry, err)
		}
		addr = addr.Unmap()
		prefixes = append(prefixes, netip.PrefixFrom(addr, addr.BitLen()))
	}
	return prefixes, nil
}

// ValidateSchedule validates a standard five-field cron expression
func ValidateSchedule(schedule string) error {
	parser := cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)
	if _, err := parser.Parse(schedule); err != nil {
		return fmt.Errorf("invalid cron expression: %w", err)
	}
	return nil
}

// IsProduction returns true if the environment is set to production
func (c *Config) IsProduction() bool {
	env := strings.ToLower(strings.TrimSpace(c.Environment))
	return env == "production" || env == "prod"
}
