package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Storage drivers
const (
	StorageDriverPostgres = "postgres"
	StorageDriverFile     = "file"
	StorageDriverNone     = "none"
)

// Config holds all configuration options for the dashboard backend
type Config struct {
	Server     ServerConfig     `yaml:"server" json:"server"`
	Instagram  InstagramConfig  `yaml:"instagram" json:"instagram"`
	Pagination PaginationConfig `yaml:"pagination" json:"pagination"`
	Storage    StorageConfig    `yaml:"storage" json:"storage"`
	Logging    LoggingConfig    `yaml:"logging" json:"logging"`
	Sentry     SentryConfig     `yaml:"sentry" json:"sentry"`
}

// ServerConfig holds the HTTP boundary settings
type ServerConfig struct {
	Addr         string        `yaml:"addr" json:"addr" env:"IGDASH_SERVER_ADDR" env-description:"HTTP listen address"`
	ReadTimeout  time.Duration `yaml:"read_timeout" json:"read_timeout" env:"IGDASH_SERVER_READ_TIMEOUT" env-description:"HTTP read timeout"`
	WriteTimeout time.Duration `yaml:"write_timeout" json:"write_timeout" env:"IGDASH_SERVER_WRITE_TIMEOUT" env-description:"HTTP write timeout (0 disables; ingestion can run for minutes)"`
	// IngestPerMinute limits scrape/ingest calls per client address. 0 disables.
	IngestPerMinute int `yaml:"ingest_per_minute" json:"ingest_per_minute" env:"IGDASH_SERVER_INGEST_PER_MINUTE" env-description:"ingestion requests per minute per client, 0 disables"`
	IngestBurst     int `yaml:"ingest_burst" json:"ingest_burst" env:"IGDASH_SERVER_INGEST_BURST" env-description:"ingestion burst per client"`
}

// InstagramConfig holds the upstream API settings
type InstagramConfig struct {
	BaseURL   string `yaml:"base_url" json:"base_url" env:"IGDASH_INSTAGRAM_BASE_URL" env-description:"upstream base URL"`
	AppID     string `yaml:"app_id" json:"app_id" env:"IGDASH_INSTAGRAM_APP_ID" env-description:"x-ig-app-id header value"`
	UserAgent string `yaml:"user_agent" json:"user_agent" env:"IGDASH_INSTAGRAM_USER_AGENT" env-description:"browser-like User-Agent"`
	// Timeout of 0 leaves the transport default in place.
	Timeout time.Duration `yaml:"timeout" json:"timeout" env:"IGDASH_INSTAGRAM_TIMEOUT" env-description:"per-request timeout, 0 uses the transport default"`
}

// PaginationConfig holds the pagination driver settings
type PaginationConfig struct {
	MaxPosts          int           `yaml:"max_posts" json:"max_posts" env:"IGDASH_MAX_POSTS" env-description:"maximum posts collected per ingestion"`
	PageSize          int           `yaml:"page_size" json:"page_size" env:"IGDASH_PAGE_SIZE" env-description:"nodes requested per page"`
	InterRequestDelay time.Duration `yaml:"inter_request_delay" json:"inter_request_delay" env:"IGDASH_INTER_REQUEST_DELAY" env-description:"fixed delay between page requests"`
}

// StorageConfig selects and configures persistence
type StorageConfig struct {
	Driver      string         `yaml:"driver" json:"driver" env:"IGDASH_STORAGE_DRIVER" env-description:"postgres, file or none"`
	AutoMigrate bool           `yaml:"auto_migrate" json:"auto_migrate" env:"IGDASH_STORAGE_AUTO_MIGRATE" env-description:"apply migrations on startup"`
	Directory   string         `yaml:"directory" json:"directory" env:"IGDASH_STORAGE_DIR" env-description:"directory for the file driver"`
	Postgres    PostgresConfig `yaml:"postgres" json:"postgres"`
}

// PostgresConfig holds connection settings for the postgres driver
type PostgresConfig struct {
	Host     string `yaml:"host" json:"host" env:"POSTGRES_HOST"`
	Port     int    `yaml:"port" json:"port" env:"POSTGRES_PORT"`
	User     string `yaml:"user" json:"user" env:"POSTGRES_USER"`
	Pass     string `yaml:"pass" json:"-" env:"POSTGRES_PASS"`
	Name     string `yaml:"name" json:"name" env:"POSTGRES_NAME"`
	SslMode  string `yaml:"ssl_mode" json:"ssl_mode" env:"POSTGRES_SSL_MODE"`
	MaxConns int32  `yaml:"max_conns" json:"max_conns" env:"POSTGRES_MAX_CONNS"`
}

// DSN builds a postgres URL accepted by pgxpool and the pgx stdlib driver
func (p PostgresConfig) DSN() string {
	u := url.URL{
		Scheme: "postgres",
		User:   url.UserPassword(p.User, p.Pass),
		Host:   fmt.Sprintf("%s:%d", p.Host, p.Port),
		Path:   "/" + p.Name,
	}
	q := url.Values{}
	if p.SslMode != "" {
		q.Set("sslmode", p.SslMode)
	}
	if p.MaxConns > 0 {
		q.Set("pool_max_conns", fmt.Sprintf("%d", p.MaxConns))
	}
	u.RawQuery = q.Encode()
	return u.String()
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level  string `yaml:"level" json:"level" env:"IGDASH_LOG_LEVEL" env-description:"debug, info, warn or error"`
	Format string `yaml:"format" json:"format" env:"IGDASH_LOG_FORMAT" env-description:"console or json"`
	File   string `yaml:"file" json:"file" env:"IGDASH_LOG_FILE" env-description:"append logs to this file"`
}

// SentryConfig enables error reporting when DSN is set
type SentryConfig struct {
	DSN         string `yaml:"dsn" json:"-" env:"SENTRY_DSN" env-description:"sentry DSN, empty disables reporting"`
	Environment string `yaml:"environment" json:"environment" env:"IGDASH_ENV" env-description:"deployment environment name"`
}

// DefaultConfig returns a Config instance with the documented defaults
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Addr:            ":8080",
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    0,
			IngestPerMinute: 0,
			IngestBurst:     1,
		},
		Instagram: InstagramConfig{
			BaseURL:   "https://www.instagram.com",
			AppID:     "936619743392459",
			UserAgent: "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/91.0.4472.124 Safari/537.36",
			Timeout:   0,
		},
		Pagination: PaginationConfig{
			MaxPosts:          200,
			PageSize:          50,
			InterRequestDelay: time.Second,
		},
		Storage: StorageConfig{
			Driver:      StorageDriverNone,
			AutoMigrate: true,
			Directory:   "./data",
			Postgres: PostgresConfig{
				Host:    "localhost",
				Port:    5432,
				User:    "igdash",
				Name:    "igdash",
				SslMode: "disable",
			},
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
		Sentry: SentryConfig{
			Environment: "development",
		},
	}
}

// LoadFromEnv overlays environment variables onto c. Unset variables keep
// the current value.
func (c *Config) LoadFromEnv() error {
	if err := cleanenv.ReadEnv(c); err != nil {
		return fmt.Errorf("failed to read environment: %w", err)
	}
	return nil
}

// EnvDescription returns a help text listing every supported variable
func (c *Config) EnvDescription() (string, error) {
	return cleanenv.GetDescription(c, nil)
}

// LoadFromFile loads configuration from a YAML file
func (c *Config) LoadFromFile(path string) error {
	if path == "" {
		path = findConfigFile()
		if path == "" {
			return nil
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse config file: %w", err)
	}

	return nil
}

// findConfigFile searches for a config file in standard locations
func findConfigFile() string {
	home := os.Getenv("HOME")
	locations := []string{
		"igdash.yaml",
		"igdash.yml",
		filepath.Join(home, ".config", "igdash", "config.yaml"),
		filepath.Join(home, ".config", "igdash", "config.yml"),
	}

	for _, loc := range locations {
		if _, err := os.Stat(loc); err == nil {
			return loc
		}
	}

	return ""
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	var errs []error

	if c.Server.Addr == "" {
		errs = append(errs, errors.New("server address is required"))
	}
	if c.Server.IngestPerMinute < 0 {
		errs = append(errs, errors.New("ingest rate limit cannot be negative"))
	}
	if c.Server.IngestPerMinute > 0 && c.Server.IngestBurst <= 0 {
		errs = append(errs, errors.New("ingest burst must be positive when rate limiting is enabled"))
	}

	if _, err := url.ParseRequestURI(c.Instagram.BaseURL); err != nil {
		errs = append(errs, fmt.Errorf("invalid instagram base URL: %w", err))
	}
	if c.Instagram.AppID == "" {
		errs = append(errs, errors.New("instagram app id is required"))
	}
	if c.Instagram.UserAgent == "" {
		errs = append(errs, errors.New("instagram user agent is required"))
	}
	if c.Instagram.Timeout < 0 {
		errs = append(errs, errors.New("instagram timeout cannot be negative"))
	}

	if c.Pagination.MaxPosts <= 0 {
		errs = append(errs, errors.New("max posts must be positive"))
	}
	if c.Pagination.PageSize <= 0 || c.Pagination.PageSize > 50 {
		errs = append(errs, errors.New("page size must be between 1 and 50"))
	}
	if c.Pagination.InterRequestDelay < 0 {
		errs = append(errs, errors.New("inter-request delay cannot be negative"))
	}

	switch strings.ToLower(c.Storage.Driver) {
	case StorageDriverPostgres:
		if c.Storage.Postgres.Host == "" || c.Storage.Postgres.Name == "" {
			errs = append(errs, errors.New("postgres host and name are required"))
		}
	case StorageDriverFile:
		if c.Storage.Directory == "" {
			errs = append(errs, errors.New("storage directory is required for the file driver"))
		}
	case StorageDriverNone:
	default:
		errs = append(errs, fmt.Errorf("unknown storage driver %q", c.Storage.Driver))
	}

	validLogLevels := map[string]bool{
		"debug": true, "info": true, "warn": true, "error": true,
	}
	if !validLogLevels[strings.ToLower(c.Logging.Level)] {
		errs = append(errs, errors.New("invalid log level"))
	}
	switch strings.ToLower(c.Logging.Format) {
	case "", "console", "json":
	default:
		errs = append(errs, errors.New("invalid log format"))
	}

	return errors.Join(errs...)
}

// Save writes the configuration to a YAML file
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// Overrides carries command line values; zero values are ignored
type Overrides struct {
	Addr              string
	LogLevel          string
	StorageDriver     string
	MaxPosts          int
	PageSize          int
	InterRequestDelay *time.Duration
}

// Apply merges non-zero overrides into c
func (o Overrides) Apply(c *Config) {
	if o.Addr != "" {
		c.Server.Addr = o.Addr
	}
	if o.LogLevel != "" {
		c.Logging.Level = o.LogLevel
	}
	if o.StorageDriver != "" {
		c.Storage.Driver = o.StorageDriver
	}
	if o.MaxPosts > 0 {
		c.Pagination.MaxPosts = o.MaxPosts
	}
	if o.PageSize > 0 {
		c.Pagination.PageSize = o.PageSize
	}
	if o.InterRequestDelay != nil {
		c.Pagination.InterRequestDelay = *o.InterRequestDelay
	}
}

// Load loads configuration from all sources with proper precedence.
// Precedence order: flags > environment > .env file > config file > defaults
func Load(configPath string, overrides Overrides) (*Config, error) {
	_ = godotenv.Load(".env")

	cfg := DefaultConfig()

	if err := cfg.LoadFromFile(configPath); err != nil {
		return nil, fmt.Errorf("failed to load config file: %w", err)
	}

	if err := cfg.LoadFromEnv(); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	overrides.Apply(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}
