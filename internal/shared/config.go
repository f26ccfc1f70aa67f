package shared

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

//go:embed config.example.toml
var exampleConf []byte

// Environment variables that override the config file.
const (
	EnvSpotifyClientID     = "SPOTIFY_CLIENT_ID"
	EnvSpotifyClientSecret = "SPOTIFY_CLIENT_SECRET"
	EnvYTMusicAuthFile     = "YTMUSIC_AUTH_FILE"
	EnvYTMusicProxyURL     = "YTMUSIC_PROXY_URL"
)

// Config represents the application configuration loaded from a TOML file.
type Config struct {
	Credentials CredentialsConfig `toml:"credentials"`
	Resolve     ResolveConfig     `toml:"resolve"`
	Destination DestinationConfig `toml:"destination"`
	Timeouts    TimeoutsConfig    `toml:"timeouts"`
	Database    DatabaseConfig    `toml:"database"`
}

// CredentialsConfig contains service-specific credentials.
type CredentialsConfig struct {
	Spotify SpotifyConfig `toml:"spotify"`
	YouTube YouTubeConfig `toml:"youtube"`
}

// SpotifyConfig holds the app-level client credentials used for the source catalog.
type SpotifyConfig struct {
	ClientID     string `toml:"client_id"`
	ClientSecret string `toml:"client_secret"`
}

// YouTubeConfig points at the ytmusicapi proxy and the auth artifact it should use.
type YouTubeConfig struct {
	ProxyURL string `toml:"proxy_url"`
	AuthFile string `toml:"auth_file"`
}

// ResolveConfig tunes how destination candidates are searched and accepted.
type ResolveConfig struct {
	Threshold   float64 `toml:"threshold"`
	SearchLimit int     `toml:"search_limit"`
	Workers     int     `toml:"workers"`
}

// DestinationConfig controls how the destination playlist is written.
type DestinationConfig struct {
	Description string  `toml:"description"`
	Privacy     string  `toml:"privacy"`
	RateLimit   float64 `toml:"rate_limit"`
	MaxAttempts int     `toml:"max_attempts"`
}

// TimeoutsConfig holds per-call deadlines.
type TimeoutsConfig struct {
	Call Duration `toml:"call"`
}

// DatabaseConfig contains database connection settings. An empty path disables the run journal.
type DatabaseConfig struct {
	Path         string `toml:"path"`
	MaxOpenConns int    `toml:"max_open_conns"`
	MaxIdleConns int    `toml:"max_idle_conns"`
}

// Duration is a [time.Duration] that decodes from strings such as "20s".
type Duration struct {
	time.Duration
}

// UnmarshalText implements [encoding.TextUnmarshaler].
func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return fmt.Errorf("%w: bad duration %q", ErrInvalidConfig, string(text))
	}
	d.Duration = v
	return nil
}

// MarshalText implements [encoding.TextMarshaler].
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// LoadConfig reads the TOML file at path on top of [DefaultConfig], so keys the file omits keep their defaults.
func LoadConfig(path string) (*Config, error) {
	config := DefaultConfig()
	if _, err := toml.DecodeFile(path, config); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrMissingConfig, path)
		}
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	return config, nil
}

// LoadConfigOrDefault behaves like [LoadConfig] but falls back to the defaults when the file does not exist.
func LoadConfigOrDefault(path string) (*Config, error) {
	config, err := LoadConfig(path)
	if errors.Is(err, ErrMissingConfig) {
		return DefaultConfig(), nil
	}
	return config, err
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
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file already exists at %s", path)
	}

	if err := os.WriteFile(path, exampleConf, 0o644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// LoadDotEnv loads each existing .env file into the process environment.
// Variables that are already set are left untouched.
func LoadDotEnv(paths ...string) error {
	for _, p := range paths {
		if _, err := os.Stat(p); err != nil {
			continue
		}
		if err := godotenv.Load(p); err != nil {
			return fmt.Errorf("failed to load %s: %w", p, err)
		}
	}
	return nil
}

// ApplyEnv overlays credential values from the environment. getenv is usually [os.Getenv].
func (c *Config) ApplyEnv(getenv func(string) string) {
	set := func(dst *string, key string) {
		if v := strings.TrimSpace(getenv(key)); v != "" {
			*dst = v
		}
	}
	set(&c.Credentials.Spotify.ClientID, EnvSpotifyClientID)
	set(&c.Credentials.Spotify.ClientSecret, EnvSpotifyClientSecret)
	set(&c.Credentials.YouTube.AuthFile, EnvYTMusicAuthFile)
	set(&c.Credentials.YouTube.ProxyURL, EnvYTMusicProxyURL)
}

// Validate checks the tuning values. Credentials are checked separately by
// [Config.RequireSpotify] and [Config.RequireAuthFile] since not every command needs them.
func (c *Config) Validate() error {
	r := c.Resolve
	switch {
	case r.Threshold < 0 || r.Threshold >= 1:
		return fmt.Errorf("%w: resolve.threshold must be in [0, 1), got %v", ErrInvalidConfig, r.Threshold)
	case r.SearchLimit < 1:
		return fmt.Errorf("%w: resolve.search_limit must be positive, got %d", ErrInvalidConfig, r.SearchLimit)
	case r.Workers < 1:
		return fmt.Errorf("%w: resolve.workers must be positive, got %d", ErrInvalidConfig, r.Workers)
	}

	d := c.Destination
	switch strings.ToUpper(d.Privacy) {
	case "PRIVATE", "PUBLIC", "UNLISTED":
	default:
		return fmt.Errorf("%w: destination.privacy must be PRIVATE, PUBLIC or UNLISTED, got %q", ErrInvalidConfig, d.Privacy)
	}
	if d.RateLimit < 0 {
		return fmt.Errorf("%w: destination.rate_limit must not be negative", ErrInvalidConfig)
	}
	if d.MaxAttempts < 1 {
		return fmt.Errorf("%w: destination.max_attempts must be at least 1", ErrInvalidConfig)
	}
	if c.Timeouts.Call.Duration <= 0 {
		return fmt.Errorf("%w: timeouts.call must be positive", ErrInvalidConfig)
	}
	if c.Credentials.YouTube.ProxyURL == "" {
		return fmt.Errorf("%w: credentials.youtube.proxy_url is empty", ErrInvalidConfig)
	}
	return nil
}

// RequireSpotify reports [ErrMissingCredentials] with remediation text when the source credentials are absent.
func (c *Config) RequireSpotify() error {
	s := c.Credentials.Spotify
	if s.ClientID == "" || s.ClientSecret == "" {
		return fmt.Errorf("%w: set %s and %s (environment, .env, config.toml, or --spotify-client-id/--spotify-client-secret)",
			ErrMissingCredentials, EnvSpotifyClientID, EnvSpotifyClientSecret)
	}
	return nil
}

// RequireAuthFile reports [ErrMissingAuthFile] when the destination auth artifact does not exist.
func (c *Config) RequireAuthFile() error {
	path := c.Credentials.YouTube.AuthFile
	if path == "" {
		return fmt.Errorf("%w: set %s or pass --ytmusic-auth", ErrMissingAuthFile, EnvYTMusicAuthFile)
	}
	if _, err := os.Stat(path); err != nil {
		return fmt.Errorf("%w: %s (run `ytmigrate setup youtube` to create it)", ErrMissingAuthFile, path)
	}
	return nil
}
