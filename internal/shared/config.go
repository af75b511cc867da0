package shared

import (
	_ "embed"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
)

//go:embed config.example.toml
var exampleConf []byte

// Config represents the application configuration loaded from a TOML file.
type Config struct {
	Device   DeviceConfig   `toml:"device"`
	Cache    CacheConfig    `toml:"cache"`
	Cloud    CloudConfig    `toml:"cloud"`
	Database DatabaseConfig `toml:"database"`
	Server   ServerConfig   `toml:"server"`
	Resume   ResumeConfig   `toml:"resume"`
}

// DeviceConfig identifies this device to the playback state store.
type DeviceConfig struct {
	ID   string `toml:"id"`
	Name string `toml:"name"`
}

// CacheConfig controls the content-addressed local cache.
type CacheConfig struct {
	Dir           string  `toml:"dir"`
	CapacityBytes int64   `toml:"capacity_bytes"`
	WarmRateLimit float64 `toml:"warm_rate_limit"`
	WarmWorkers   int     `toml:"warm_workers"`
}

// CloudConfig describes the object-storage provider used for signed URLs.
//
// Provider is one of "hmac" (URLs signed locally against endpoint/bucket)
// or "remote" (a signer service issues URLs). Empty disables the cloud tier.
type CloudConfig struct {
	Provider     string `toml:"provider"`
	Endpoint     string `toml:"endpoint"`
	Bucket       string `toml:"bucket"`
	AccessKey    string `toml:"access_key"`
	SecretKey    string `toml:"secret_key"`
	SignTTLSec   int    `toml:"sign_ttl_sec"`
	TokenURL     string `toml:"token_url"`
	ClientID     string `toml:"client_id"`
	ClientSecret string `toml:"client_secret"`
}

// DatabaseConfig contains database connection settings.
type DatabaseConfig struct {
	Path         string `toml:"path"`
	MaxOpenConns int    `toml:"max_open_conns"`
	MaxIdleConns int    `toml:"max_idle_conns"`
}

// ServerConfig contains HTTP server settings.
type ServerConfig struct {
	Host string `toml:"host"`
	Port int    `toml:"port"`
}

// ResumeConfig contains cross-device resume tuning.
type ResumeConfig struct {
	StateTTLHours      int     `toml:"state_ttl_hours"`
	SuppressionMinutes int     `toml:"suppression_minutes"`
	ToleranceSec       float64 `toml:"tolerance_sec"`
}

// StateTTL returns the playback state freshness window, defaulting to 24h.
func (r ResumeConfig) StateTTL() time.Duration {
	if r.StateTTLHours <= 0 {
		return 24 * time.Hour
	}
	return time.Duration(r.StateTTLHours) * time.Hour
}

// Suppression returns the prompt suppression window, defaulting to 30m.
func (r ResumeConfig) Suppression() time.Duration {
	if r.SuppressionMinutes <= 0 {
		return 30 * time.Minute
	}
	return time.Duration(r.SuppressionMinutes) * time.Minute
}

// Path returns Dir with a leading "~/" expanded to the user's home directory.
func (c CacheConfig) Path() string {
	if strings.HasPrefix(c.Dir, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, c.Dir[2:])
		}
	}
	return c.Dir
}

// SignTTL returns the signed URL lifetime, defaulting to 15m.
func (c CloudConfig) SignTTL() time.Duration {
	if c.SignTTLSec <= 0 {
		return 15 * time.Minute
	}
	return time.Duration(c.SignTTLSec) * time.Second
}

// LoadConfig reads and parses a TOML configuration file from the specified path.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var config Config
	if err := toml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	return &config, nil
}

// DefaultConfig returns a Config with sensible defaults loaded from the embedded example config.
func DefaultConfig() *Config {
	var config Config
	if err := toml.Unmarshal(exampleConf, &config); err != nil {
		panic(fmt.Sprintf("failed to parse embedded default config: %v", err))
	}
	return &config
}

// CreateConfigFile creates a config.toml file at the specified path using the embedded example config.
func CreateConfigFile(path string) error {
	// Check if file already exists
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file already exists at %s", path)
	}

	if err := os.WriteFile(path, exampleConf, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}
