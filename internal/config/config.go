package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/pelletier/go-toml/v2"
)

// Config represents the application configuration.
type Config struct {
	// Database configuration
	Database DatabaseConfig `toml:"database"`

	// HTTP server configuration
	Server ServerConfig `toml:"server"`

	// Card data provider configuration
	Scryfall ScryfallConfig `toml:"scryfall"`

	// Application configuration
	App AppConfig `toml:"app"`
}

// DatabaseConfig contains SQLite settings.
type DatabaseConfig struct {
	Path        string `toml:"path"`         // Path to the database file
	AutoMigrate bool   `toml:"auto_migrate"` // Apply migrations on open
	BusyTimeout string `toml:"busy_timeout"` // SQLite busy timeout (e.g., "5s")
}

// ServerConfig contains HTTP API settings.
type ServerConfig struct {
	Port           int      `toml:"port"`            // Listen port
	AllowedOrigins []string `toml:"allowed_origins"` // CORS origins
	RequestTimeout string   `toml:"request_timeout"` // Per-request timeout (e.g., "30s")
}

// ScryfallConfig contains card provider settings.
type ScryfallConfig struct {
	BaseURL   string `toml:"base_url"`   // API base URL
	RateLimit string `toml:"rate_limit"` // Minimum delay between requests (e.g., "100ms")
	UserAgent string `toml:"user_agent"` // User-Agent header sent to the API
	CacheTTL  string `toml:"cache_ttl"`  // How long cached cards stay fresh (e.g., "168h")
}

// AppConfig contains general application settings.
type AppConfig struct {
	DebugMode bool `toml:"debug_mode"` // Enable debug logging
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Database: DatabaseConfig{
			Path:        "",
			AutoMigrate: true,
			BusyTimeout: "5s",
		},
		Server: ServerConfig{
			Port:           8080,
			AllowedOrigins: []string{"http://localhost:3000", "http://localhost:5173"},
			RequestTimeout: "30s",
		},
		Scryfall: ScryfallConfig{
			BaseURL:   "https://api.scryfall.com",
			RateLimit: "100ms",
			UserAgent: "Manaforge/1.0",
			CacheTTL:  "168h",
		},
		App: AppConfig{
			DebugMode: false,
		},
	}
}

// Dir returns the application data directory, creating it if needed.
func Dir() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("get home directory: %w", err)
	}

	dir := filepath.Join(homeDir, ".manaforge")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create config directory: %w", err)
	}

	return dir, nil
}

// DefaultPath returns the path to the default configuration file.
func DefaultPath() (string, error) {
	dir, err := Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.toml"), nil
}

// Load loads the configuration from the default path.
func Load() (*Config, error) {
	path, err := DefaultPath()
	if err != nil {
		return nil, err
	}
	return LoadFrom(path)
}

// LoadFrom loads the configuration from path. Returns default config if the
// file doesn't exist. Keys missing from the file keep their default values.
func LoadFrom(path string) (*Config, error) {
	config := DefaultConfig()

	// If file doesn't exist, return default config
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return config, nil
	}

	// Read file
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	// Parse TOML
	if err := toml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("parse config file: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

// SaveTo saves the configuration to path.
func (c *Config) SaveTo(path string) error {
	// Marshal to TOML
	data, err := toml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}

	// Write to file
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write config file: %w", err)
	}

	return nil
}

// Save saves the configuration to the default path.
func (c *Config) Save() error {
	path, err := DefaultPath()
	if err != nil {
		return err
	}
	return c.SaveTo(path)
}

// Validate validates the configuration values.
func (c *Config) Validate() error {
	if _, err := time.ParseDuration(c.Database.BusyTimeout); err != nil {
		return fmt.Errorf("invalid busy timeout %q: %w", c.Database.BusyTimeout, err)
	}

	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}

	if _, err := time.ParseDuration(c.Server.RequestTimeout); err != nil {
		return fmt.Errorf("invalid request timeout %q: %w", c.Server.RequestTimeout, err)
	}

	if c.Scryfall.BaseURL == "" {
		return fmt.Errorf("scryfall base url cannot be empty")
	}

	if d, err := time.ParseDuration(c.Scryfall.RateLimit); err != nil {
		return fmt.Errorf("invalid rate limit %q: %w", c.Scryfall.RateLimit, err)
	} else if d < 0 {
		return fmt.Errorf("rate limit cannot be negative: %s", c.Scryfall.RateLimit)
	}

	if _, err := time.ParseDuration(c.Scryfall.CacheTTL); err != nil {
		return fmt.Errorf("invalid cache TTL %q: %w", c.Scryfall.CacheTTL, err)
	}

	return nil
}

// DatabasePath returns the configured database path, or the default file in
// the application data directory.
func (c *Config) DatabasePath() (string, error) {
	if c.Database.Path != "" {
		return c.Database.Path, nil
	}
	dir, err := Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "manaforge.db"), nil
}

// GetBusyTimeout returns the database busy timeout as a duration.
func (c *Config) GetBusyTimeout() (time.Duration, error) {
	return time.ParseDuration(c.Database.BusyTimeout)
}

// GetRequestTimeout returns the HTTP request timeout as a duration.
func (c *Config) GetRequestTimeout() (time.Duration, error) {
	return time.ParseDuration(c.Server.RequestTimeout)
}

// GetRateLimit returns the card provider request spacing as a duration.
func (c *Config) GetRateLimit() (time.Duration, error) {
	return time.ParseDuration(c.Scryfall.RateLimit)
}

// GetCacheTTL returns the card cache TTL as a duration.
func (c *Config) GetCacheTTL() (time.Duration, error) {
	return time.ParseDuration(c.Scryfall.CacheTTL)
}
