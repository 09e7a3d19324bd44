package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds the application configuration loaded from files and environment variables.
type Config struct {
	AppName  string `mapstructure:"app_name"`
	Env      string `mapstructure:"app_env"`
	LogLevel string `mapstructure:"log_level"`

	// Single-board settings used by boardctl.
	APIBaseURL         string        `mapstructure:"api_base_url"`
	APIKey             string        `mapstructure:"api_key"`
	APIToken           string        `mapstructure:"api_token"`
	HTTPTimeoutSeconds int64         `mapstructure:"http_timeout_seconds"`
	HTTPTimeout        time.Duration `mapstructure:"-"`
	HTTPCacheEnabled   bool          `mapstructure:"http_cache_enabled"`

	// Watcher settings.
	BoardsFile          string        `mapstructure:"boards_file"`
	PublishersFile      string        `mapstructure:"publishers_file"`
	PollIntervalSeconds int64         `mapstructure:"poll_interval"`
	PollInterval        time.Duration `mapstructure:"-"`

	StorageType            string        `mapstructure:"storage_type"`
	BBoltPath              string        `mapstructure:"bbolt_path"`
	StorageTTLSeconds      int64         `mapstructure:"storage_ttl_seconds"`
	StorageCleanupSeconds  int64         `mapstructure:"storage_cleanup_interval_seconds"`
	StorageTTL             time.Duration `mapstructure:"-"`
	StorageCleanupInterval time.Duration `mapstructure:"-"`
}

// Override adjusts the loaded values before they are validated.
type Override func(*Config)

// Load reads configuration from environment variables and config files, then
// applies overrides (command line flags, for instance) and validates the result.
func Load(overrides ...Override) (*Config, error) {
	_ = godotenv.Load("configs/.env")

	v := viper.New()

	v.SetDefault("app_name", "samvad-board-client")
	v.SetDefault("app_env", "development")
	v.SetDefault("log_level", "info")
	v.SetDefault("api_base_url", "http://localhost:8080/api")
	v.SetDefault("api_key", "")
	v.SetDefault("api_token", "")
	v.SetDefault("http_timeout_seconds", 15)
	v.SetDefault("http_cache_enabled", false)
	v.SetDefault("boards_file", "./configs/boards.yaml")
	v.SetDefault("publishers_file", "./configs/publishers.yaml")
	v.SetDefault("poll_interval", 300) // seconds
	v.SetDefault("storage_type", "bbolt")
	v.SetDefault("bbolt_path", "./data/events.db")
	v.SetDefault("storage_ttl_seconds", int64((30*24*time.Hour)/time.Second))
	v.SetDefault("storage_cleanup_interval_seconds", int64((12*time.Hour)/time.Second))

	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	for _, o := range overrides {
		if o != nil {
			o(&cfg)
		}
	}

	cfg.APIBaseURL = strings.TrimSpace(cfg.APIBaseURL)
	if _, err := url.ParseRequestURI(cfg.APIBaseURL); err != nil {
		return nil, fmt.Errorf("invalid api_base_url %q: %w", cfg.APIBaseURL, err)
	}

	// An override may set HTTPTimeout directly with sub-second precision.
	if cfg.HTTPTimeout <= 0 {
		if cfg.HTTPTimeoutSeconds <= 0 {
			return nil, fmt.Errorf("invalid http_timeout_seconds (must be positive seconds)")
		}
		cfg.HTTPTimeout = time.Duration(cfg.HTTPTimeoutSeconds) * time.Second
	}

	if cfg.PollIntervalSeconds <= 0 {
		return nil, fmt.Errorf("invalid poll_interval (must be positive seconds)")
	}
	cfg.PollInterval = time.Duration(cfg.PollIntervalSeconds) * time.Second

	if cfg.StorageTTLSeconds <= 0 {
		return nil, fmt.Errorf("invalid storage_ttl_seconds (must be positive seconds)")
	}
	if cfg.StorageCleanupSeconds <= 0 {
		return nil, fmt.Errorf("invalid storage_cleanup_interval_seconds (must be positive seconds)")
	}
	cfg.StorageTTL = time.Duration(cfg.StorageTTLSeconds) * time.Second
	cfg.StorageCleanupInterval = time.Duration(cfg.StorageCleanupSeconds) * time.Second

	return &cfg, nil
}

// Redacted returns a copy safe for logging.
func (c Config) Redacted() Config {
	if c.APIKey != "" {
		c.APIKey = "***"
	}
	if c.APIToken != "" {
		c.APIToken = "***"
	}
	return c
}
