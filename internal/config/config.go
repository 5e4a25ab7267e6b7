package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the root configuration structure. It is read-only after Load
// returns.
type Config struct {
	Server      ServerConfig      `yaml:"server"`
	Database    DatabaseConfig    `yaml:"database"`
	Auth        AuthConfig        `yaml:"auth"`
	Catalog     CatalogConfig     `yaml:"catalog"`
	Mail        MailConfig        `yaml:"mail"`
	Log         LogConfig         `yaml:"log"`
	Reservation ReservationConfig `yaml:"reservation"`
}

type ServerConfig struct {
	Port            int      `yaml:"port"`
	ReadTimeout     Duration `yaml:"read_timeout"`
	WriteTimeout    Duration `yaml:"write_timeout"`
	ShutdownTimeout Duration `yaml:"shutdown_timeout"`
	// BaseURL is the public origin used in shared wishlist links.
	BaseURL     string   `yaml:"base_url"`
	CORSOrigins []string `yaml:"cors_origins"`
	// ExposeAllBooks enables the cross-user GET /api/books listing.
	ExposeAllBooks bool `yaml:"expose_all_books"`
}

type DatabaseConfig struct {
	// DSN is a SQLite path, a MySQL DSN or a postgres:// URL.
	DSN string `yaml:"dsn"`
}

type AuthConfig struct {
	JWTSecret string `yaml:"-"` // env-only, never in YAML
	Issuer    string `yaml:"issuer"`
}

// CatalogConfig configures the ISBNdb client.
type CatalogConfig struct {
	BaseURL           string   `yaml:"base_url"`
	APIKey            string   `yaml:"-"` // env-only, never in YAML
	PageSize          int      `yaml:"page_size"`
	Timeout           Duration `yaml:"timeout"`
	RequestsPerSecond float64  `yaml:"requests_per_second"`
	Burst             int      `yaml:"burst"`
}

type MailConfig struct {
	// Provider is "console" or "smtp".
	Provider string     `yaml:"provider"`
	SMTP     SMTPConfig `yaml:"smtp"`
}

type SMTPConfig struct {
	Host     string `yaml:"host"`
	Port     string `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"-"` // env-only, never in YAML
	From     string `yaml:"from"`
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// ReservationConfig limits anonymous reservations per client IP.
type ReservationConfig struct {
	RequestsPerMinute float64 `yaml:"requests_per_minute"`
	Burst             int     `yaml:"burst"`
}

// Duration is a wrapper around time.Duration that supports YAML string parsing.
type Duration time.Duration

func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", s, err)
	}
	*d = Duration(parsed)
	return nil
}

func (d Duration) MarshalYAML() (interface{}, error) {
	return time.Duration(d).String(), nil
}

func (d Duration) Std() time.Duration {
	return time.Duration(d)
}

// Load loads configuration with precedence: defaults → YAML file → env vars.
func Load() (*Config, error) {
	cfg := newDefaults()

	configPath := getEnv("MYLIBRARY_CONFIG_PATH", "config/mylibrary.yaml")

	// Missing file is not an error.
	if err := loadYAMLFile(cfg, configPath); err != nil {
		return nil, err
	}

	applyEnvOverrides(cfg)

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadFromFile loads configuration from a path that must exist.
func LoadFromFile(path string) (*Config, error) {
	cfg := newDefaults()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	applyEnvOverrides(cfg)

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func newDefaults() *Config {
	return &Config{
		Server: ServerConfig{
			Port:            8080,
			ReadTimeout:     Duration(15 * time.Second),
			WriteTimeout:    Duration(30 * time.Second),
			ShutdownTimeout: Duration(10 * time.Second),
			BaseURL:         "http://localhost:8080",
			CORSOrigins:     []string{"*"},
		},
		Database: DatabaseConfig{
			DSN: "data/mylibrary.db",
		},
		Catalog: CatalogConfig{
			BaseURL:           "https://api2.isbndb.com",
			PageSize:          20,
			Timeout:           Duration(15 * time.Second),
			RequestsPerSecond: 1,
			Burst:             1,
		},
		Mail: MailConfig{
			Provider: "console",
		},
		Log: LogConfig{
			Level:  "info",
			Format: "json",
		},
		Reservation: ReservationConfig{
			RequestsPerMinute: 10,
			Burst:             5,
		},
	}
}

func loadYAMLFile(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("reading config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parsing config file: %w", err)
	}
	return nil
}

// applyEnvOverrides applies environment variable overrides to the config.
// Only non-empty, parseable env vars override config values.
func applyEnvOverrides(cfg *Config) {
	// Server (PORT is what most hosts inject)
	envInt("PORT", &cfg.Server.Port)
	envInt("MYLIBRARY_PORT", &cfg.Server.Port)
	envDuration("MYLIBRARY_READ_TIMEOUT", &cfg.Server.ReadTimeout)
	envDuration("MYLIBRARY_WRITE_TIMEOUT", &cfg.Server.WriteTimeout)
	envDuration("MYLIBRARY_SHUTDOWN_TIMEOUT", &cfg.Server.ShutdownTimeout)
	envString("BASE_URL", &cfg.Server.BaseURL)
	if v := os.Getenv("MYLIBRARY_CORS_ORIGINS"); v != "" {
		cfg.Server.CORSOrigins = splitList(v)
	}
	envBool("MYLIBRARY_EXPOSE_ALL_BOOKS", &cfg.Server.ExposeAllBooks)

	// Database
	envString("DB_PATH", &cfg.Database.DSN)
	envString("DATABASE_URL", &cfg.Database.DSN)

	// Auth
	envString("JWT_SECRET", &cfg.Auth.JWTSecret)
	envString("JWT_ISSUER", &cfg.Auth.Issuer)

	// Catalog
	envString("ISBNDB_API_KEY", &cfg.Catalog.APIKey)
	envString("ISBNDB_BASE_URL", &cfg.Catalog.BaseURL)
	envInt("ISBNDB_PAGE_SIZE", &cfg.Catalog.PageSize)
	envDuration("ISBNDB_TIMEOUT", &cfg.Catalog.Timeout)
	if v := os.Getenv("ISBNDB_RATE_LIMIT"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			cfg.Catalog.RequestsPerSecond = f
		}
	}

	// Mail
	envString("MAIL_PROVIDER", &cfg.Mail.Provider)
	envString("SMTP_HOST", &cfg.Mail.SMTP.Host)
	envString("SMTP_PORT", &cfg.Mail.SMTP.Port)
	envString("SMTP_USER", &cfg.Mail.SMTP.User)
	envString("SMTP_PASSWORD", &cfg.Mail.SMTP.Password)
	envString("SMTP_FROM", &cfg.Mail.SMTP.From)

	// Log
	envString("MYLIBRARY_LOG_LEVEL", &cfg.Log.Level)
	envString("MYLIBRARY_LOG_FORMAT", &cfg.Log.Format)
}

// validate checks that required configuration values are set.
// In dev mode (MYLIBRARY_DEV_MODE=true), secret validation is skipped.
func (c *Config) validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port %d", c.Server.Port)
	}
	switch c.Mail.Provider {
	case "console", "smtp":
	default:
		return fmt.Errorf("unknown mail provider %q", c.Mail.Provider)
	}

	if IsDevMode() {
		return nil
	}

	if c.Auth.JWTSecret == "" {
		return errors.New("JWT_SECRET is required")
	}
	if c.Catalog.APIKey == "" {
		return errors.New("ISBNDB_API_KEY is required")
	}
	return nil
}

// IsDevMode reports whether MYLIBRARY_DEV_MODE is set.
func IsDevMode() bool {
	return os.Getenv("MYLIBRARY_DEV_MODE") == "true"
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func envString(key string, dst *string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func envInt(key string, dst *int) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

func envBool(key string, dst *bool) {
	if v := os.Getenv(key); v != "" {
		*dst = v == "true" || v == "1"
	}
}

func envDuration(key string, dst *Duration) {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			*dst = Duration(d)
		}
	}
}

func splitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
