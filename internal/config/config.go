package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	App            AppConfig            `yaml:"app"`
	Server         ServerConfig         `yaml:"server"`
	Remote         RemoteConfig         `yaml:"remote"`
	Session        SessionConfig        `yaml:"session"`
	Redis          RedisConfig          `yaml:"redis"`
	Database       DatabaseConfig       `yaml:"database"`
	Monitoring     MonitoringConfig     `yaml:"monitoring"`
	Logging        LoggingConfig        `yaml:"logging"`
	LoginRateLimit LoginRateLimitConfig `yaml:"login_rate_limit"`
}

type AppConfig struct {
	Name        string `yaml:"name"`
	Environment string `yaml:"environment"`
	Version     string `yaml:"version"`
}

type ServerConfig struct {
	Port          int    `yaml:"port"`
	SecureCookies bool   `yaml:"secure_cookies"`
	CSRFKey       string `yaml:"csrf_key"`
	StaticDir     string `yaml:"static_dir"`
	// TimeZone is used to place appointments on the calendar export.
	TimeZone string `yaml:"time_zone"`
}

// RemoteConfig describes the CRM REST API the dashboard sits on.
type RemoteConfig struct {
	BaseURL         string `yaml:"base_url"`
	TimeoutSeconds  int    `yaml:"timeout_seconds"`
	CacheTTLSeconds int    `yaml:"cache_ttl_seconds"`
}

type SessionConfig struct {
	CookieName string `yaml:"cookie_name"`
	TTLHours   int    `yaml:"ttl_hours"`
}

type RedisConfig struct {
	Address  string `yaml:"address"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
	PoolSize int    `yaml:"pool_size"`
}

// DatabaseConfig points at the local sqlite activity log.
type DatabaseConfig struct {
	Path string `yaml:"path"`
}

type MonitoringConfig struct {
	PrometheusEnabled bool `yaml:"prometheus_enabled"`
	PrometheusPort    int  `yaml:"prometheus_port"`
}

type LoggingConfig struct {
	Level    string `yaml:"level"`
	Format   string `yaml:"format"`
	Output   string `yaml:"output"`
	FilePath string `yaml:"file_path"`
}

type LoginRateLimitConfig struct {
	RPS   float64 `yaml:"rps"`
	Burst int     `yaml:"burst"`
}

const (
	DefaultBaseURL    = "http://localhost:8000/api"
	DefaultCookieName = "crmdash_session"
)

func Load(configPath string) (*Config, error) {
	// .env is optional
	if err := godotenv.Load(".env"); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, err
	}

	expandedData := []byte(os.ExpandEnv(string(data)))

	var config Config
	if err := yaml.Unmarshal(expandedData, &config); err != nil {
		return nil, err
	}

	config.applyDefaults()

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &config, nil
}

func (c *Config) Validate() error {
	u, err := url.Parse(c.Remote.BaseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("remote.base_url %q is not an absolute URL", c.Remote.BaseURL)
	}

	if len(c.Server.CSRFKey) != 32 {
		return errors.New("server.csrf_key must be exactly 32 bytes")
	}

	if c.Server.TimeZone != "" {
		if _, err := time.LoadLocation(c.Server.TimeZone); err != nil {
			return fmt.Errorf("server.time_zone: %w", err)
		}
	}

	if c.LoginRateLimit.RPS < 0 {
		return errors.New("login_rate_limit.rps must not be negative")
	}

	return nil
}

func (c *Config) applyDefaults() {
	if c.App.Name == "" {
		c.App.Name = "crmdash"
	}
	if c.Server.Port == 0 {
		c.Server.Port = 8080
	}
	if c.Remote.BaseURL == "" {
		c.Remote.BaseURL = DefaultBaseURL
	}
	c.Remote.BaseURL = strings.TrimRight(c.Remote.BaseURL, "/")
	if c.Remote.TimeoutSeconds == 0 {
		c.Remote.TimeoutSeconds = 10
	}
	if c.Session.CookieName == "" {
		c.Session.CookieName = DefaultCookieName
	}
	if c.Session.TTLHours == 0 {
		c.Session.TTLHours = 24
	}
	if c.Database.Path == "" {
		c.Database.Path = "data/activity.db"
	}
	if c.Monitoring.PrometheusEnabled && c.Monitoring.PrometheusPort == 0 {
		c.Monitoring.PrometheusPort = 9090
	}
	if c.LoginRateLimit.RPS == 0 {
		c.LoginRateLimit.RPS = 0.2
	}
	if c.LoginRateLimit.Burst == 0 {
		c.LoginRateLimit.Burst = 5
	}
}

// RemoteTimeout returns the upstream HTTP timeout.
func (c *Config) RemoteTimeout() time.Duration {
	return time.Duration(c.Remote.TimeoutSeconds) * time.Second
}

// CacheTTL returns how long stats responses stay in Redis; zero disables it.
func (c *Config) CacheTTL() time.Duration {
	return time.Duration(c.Remote.CacheTTLSeconds) * time.Second
}

func (c *Config) SessionTTL() time.Duration {
	return time.Duration(c.Session.TTLHours) * time.Hour
}

// Location returns the configured time zone, falling back to time.Local.
func (c *Config) Location() *time.Location {
	if c.Server.TimeZone == "" {
		return time.Local
	}
	loc, err := time.LoadLocation(c.Server.TimeZone)
	if err != nil {
		return time.Local
	}
	return loc
}
