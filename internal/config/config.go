package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application configuration
type Config struct {
	Server  ServerConfig  `mapstructure:"server"`
	Cache   CacheConfig   `mapstructure:"cache"`
	API     APIConfig     `mapstructure:"api"`
	Logging LoggingConfig `mapstructure:"logging"`
	Metrics MetricsConfig `mapstructure:"metrics"`
}

// ServerConfig holds the offline cache front configuration
type ServerConfig struct {
	Listen      string        `mapstructure:"listen"`       // e.g. ":8080"
	Origin      string        `mapstructure:"origin"`       // Upstream application URL
	ReadTimeout time.Duration `mapstructure:"read_timeout"` // 0 = no timeout
}

// CacheConfig describes the current cache generation
type CacheConfig struct {
	Dir       string   `mapstructure:"dir"`        // Empty = memory only
	Name      string   `mapstructure:"name"`       // Generation tag, bump when the manifest changes
	Manifest  []string `mapstructure:"manifest"`   // Paths pre-cached at install
	APIMarker string   `mapstructure:"api_marker"` // URLs containing this are never cached
}

// APIConfig holds REST client configuration
type APIConfig struct {
	BaseURL string        `mapstructure:"base_url"`
	Timeout time.Duration `mapstructure:"timeout"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	File  string `mapstructure:"file"`
	Level string `mapstructure:"level"`
}

// MetricsConfig holds Prometheus exposition configuration
type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Path    string `mapstructure:"path"`
}

// DefaultConfig returns the default configuration
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Listen: ":8080",
			Origin: "http://localhost:5173",
		},
		Cache: CacheConfig{
			Dir:       defaultCachePath(),
			Name:      "travel-bucketlist-v1",
			Manifest:  []string{"/", "/manifest.json", "/icons/icon.svg"},
			APIMarker: "/api/",
		},
		API: APIConfig{
			BaseURL: "http://localhost:8080/api",
			Timeout: 30 * time.Second,
		},
		Logging: LoggingConfig{
			File:  defaultLogPath(),
			Level: "INFO",
		},
		Metrics: MetricsConfig{
			Enabled: false,
			Path:    "/metrics",
		},
	}
}

// defaultLogPath returns the default log file path for the current OS
func defaultLogPath() string {
	switch runtime.GOOS {
	case "windows":
		return filepath.Join(os.Getenv("APPDATA"), "wanderlist", "wanderlist.log")
	default:
		home, _ := os.UserHomeDir()
		return filepath.Join(home, ".local", "share", "wanderlist", "wanderlist.log")
	}
}

// defaultConfigPath returns the default config directory for the current OS
func defaultConfigPath() string {
	switch runtime.GOOS {
	case "windows":
		return filepath.Join(os.Getenv("APPDATA"), "wanderlist")
	default:
		home, _ := os.UserHomeDir()
		return filepath.Join(home, ".config", "wanderlist")
	}
}

// defaultCachePath returns the default cache directory path for the current OS
func defaultCachePath() string {
	switch runtime.GOOS {
	case "windows":
		return filepath.Join(os.Getenv("LOCALAPPDATA"), "wanderlist", "cache")
	default:
		home, _ := os.UserHomeDir()
		return filepath.Join(home, ".local", "share", "wanderlist", "cache")
	}
}

// LoadConfig loads configuration from file and environment.
// An empty configFile searches the default config directory and ".".
func LoadConfig(configFile string) (*Config, error) {
	return load(viper.New(), configFile)
}

func load(v *viper.Viper, configFile string) (*Config, error) {
	setDefaults(v, DefaultConfig())

	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(defaultConfigPath())
		v.AddConfigPath(".")
	}

	// Environment variable overrides (WANDERLIST_CACHE_NAME, ...)
	v.SetEnvPrefix("WANDERLIST")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		// Config file not found is OK, use defaults
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("error parsing config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// setDefaults registers every key so environment overrides apply to it
func setDefaults(v *viper.Viper, cfg *Config) {
	v.SetDefault("server.listen", cfg.Server.Listen)
	v.SetDefault("server.origin", cfg.Server.Origin)
	v.SetDefault("server.read_timeout", cfg.Server.ReadTimeout)

	v.SetDefault("cache.dir", cfg.Cache.Dir)
	v.SetDefault("cache.name", cfg.Cache.Name)
	v.SetDefault("cache.manifest", cfg.Cache.Manifest)
	v.SetDefault("cache.api_marker", cfg.Cache.APIMarker)

	v.SetDefault("api.base_url", cfg.API.BaseURL)
	v.SetDefault("api.timeout", cfg.API.Timeout)

	v.SetDefault("logging.file", cfg.Logging.File)
	v.SetDefault("logging.level", cfg.Logging.Level)

	v.SetDefault("metrics.enabled", cfg.Metrics.Enabled)
	v.SetDefault("metrics.path", cfg.Metrics.Path)
}

// Validate checks the fields every command depends on
func (c *Config) Validate() error {
	if c.Cache.Name == "" {
		return fmt.Errorf("cache.name is required")
	}
	if c.Cache.APIMarker == "" {
		return fmt.Errorf("cache.api_marker is required")
	}
	if _, err := parseOrigin(c.Server.Origin); err != nil {
		return err
	}
	if c.Metrics.Enabled && !strings.HasPrefix(c.Metrics.Path, "/") {
		return fmt.Errorf("metrics.path must start with /: %q", c.Metrics.Path)
	}
	return nil
}

func parseOrigin(origin string) (*url.URL, error) {
	u, err := url.Parse(origin)
	if err != nil {
		return nil, fmt.Errorf("invalid server.origin: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("server.origin must be an http(s) URL: %q", origin)
	}
	if u.Host == "" {
		return nil, fmt.Errorf("server.origin has no host: %q", origin)
	}
	return u, nil
}

// ManifestURLs resolves the manifest paths against the origin the same way
// intercepted requests are, so "/manifest.json" on "http://host/app" is
// "http://host/app/manifest.json". Absolute entries are kept as-is.
func (c *Config) ManifestURLs() ([]string, error) {
	base, err := parseOrigin(c.Server.Origin)
	if err != nil {
		return nil, err
	}
	urls := make([]string, 0, len(c.Cache.Manifest))
	for _, p := range c.Cache.Manifest {
		ref, err := url.Parse(p)
		if err != nil {
			return nil, fmt.Errorf("invalid manifest entry %q: %w", p, err)
		}
		if ref.IsAbs() {
			urls = append(urls, ref.String())
			continue
		}
		urls = append(urls, JoinOrigin(base, ref.Path, ref.RawQuery).String())
	}
	return urls, nil
}

// JoinOrigin maps a request path onto origin, keeping the origin's own path
// as a prefix.
func JoinOrigin(origin *url.URL, path, rawQuery string) *url.URL {
	u := *origin
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	u.Path = strings.TrimRight(origin.Path, "/") + path
	u.RawPath = ""
	u.RawQuery = rawQuery
	u.Fragment = ""
	return &u
}

// SaveConfig writes cfg to the default config file and returns its path
func SaveConfig(cfg *Config) (string, error) {
	configFile := DefaultConfigFile()
	return configFile, SaveConfigAs(cfg, configFile)
}

// SaveConfigAs writes cfg to configFile, creating its directory
func SaveConfigAs(cfg *Config, configFile string) error {
	if err := os.MkdirAll(filepath.Dir(configFile), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	v := viper.New()
	setDefaults(v, cfg)

	if err := v.WriteConfigAs(configFile); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// DefaultConfigFile returns the config file searched when --config is unset
func DefaultConfigFile() string {
	return filepath.Join(defaultConfigPath(), "config.yaml")
}

// OriginURL returns the parsed server.origin
func (c *Config) OriginURL() (*url.URL, error) {
	return parseOrigin(c.Server.Origin)
}
