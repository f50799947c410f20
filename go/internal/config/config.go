package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/arabcoders/contesthub/go/clients/arab_coders_client"
	"github.com/arabcoders/contesthub/go/internal/countdown"
)

// ErrMissingBaseURL is returned when API_BASE_URL is unset
var ErrMissingBaseURL = errors.New("API_BASE_URL environment variable is required")

// Config holds every runtime setting of the server.
type Config struct {
	APIBaseURL      string
	APIToken        string
	FetchTimeout    time.Duration
	FetchRatePerSec float64
	FetchBurst      int

	Port            string
	RefreshInterval time.Duration
	TickInterval    time.Duration
	DefaultLocale   countdown.Locale

	NATSURL           string
	NATSSubjectPrefix string

	LogLevel  string
	LogFormat string

	ConfigPath string
	File       File
}

// File is the optional YAML file pointed to by CONFIG_PATH.
type File struct {
	Endpoints arab_coders_client.Endpoints `yaml:"endpoints"`
	Locales   struct {
		Default string   `yaml:"default"`
		Enabled []string `yaml:"enabled"`
	} `yaml:"locales"`
}

// NewConfigFromEnv reads the environment (with defaults) and the YAML file, if any.
func NewConfigFromEnv() (Config, error) {
	cfg := Config{
		APIBaseURL:        strings.TrimRight(getEnv("API_BASE_URL", ""), "/"),
		APIToken:          getEnv("API_TOKEN", ""),
		FetchTimeout:      getEnvAsDuration("FETCH_TIMEOUT", 10*time.Second),
		FetchRatePerSec:   getEnvAsFloat("FETCH_RATE_PER_SEC", 10),
		FetchBurst:        getEnvAsInt("FETCH_BURST", 5),
		Port:              getEnv("PORT", "8080"),
		RefreshInterval:   getEnvAsDuration("REFRESH_INTERVAL", 30*time.Second),
		TickInterval:      getEnvAsDuration("TICK_INTERVAL", countdown.DefaultTickInterval),
		DefaultLocale:     countdown.ParseLocale(getEnv("DEFAULT_LOCALE", "en")),
		NATSURL:           getEnv("NATS_URL", ""),
		NATSSubjectPrefix: getEnv("NATS_SUBJECT_PREFIX", "contests.snapshots"),
		LogLevel:          getEnv("LOG_LEVEL", "info"),
		LogFormat:         getEnv("LOG_FORMAT", "console"),
		ConfigPath:        getEnv("CONFIG_PATH", ""),
	}

	if cfg.APIBaseURL == "" {
		return cfg, ErrMissingBaseURL
	}

	if cfg.ConfigPath != "" {
		file, err := LoadFile(cfg.ConfigPath)
		if err != nil {
			return cfg, err
		}
		cfg.File = *file
		if file.Locales.Default != "" {
			cfg.DefaultLocale = countdown.ParseLocale(file.Locales.Default)
		}
	}

	return cfg, nil
}

// LoadFile parses the YAML config file at path.
func LoadFile(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var file File
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	return &file, nil
}

// Endpoints returns the remote paths, defaults filled in.
func (c Config) Endpoints() arab_coders_client.Endpoints {
	return c.File.Endpoints.WithDefaults()
}

// Locales returns the enabled locales. Nil means all supported locales.
func (c Config) Locales() []countdown.Locale {
	if len(c.File.Locales.Enabled) == 0 {
		return nil
	}
	locales := make([]countdown.Locale, 0, len(c.File.Locales.Enabled))
	for _, tag := range c.File.Locales.Enabled {
		locales = append(locales, countdown.ParseLocale(tag))
	}
	return locales
}

// Addr is the listen address for the HTTP server.
func (c Config) Addr() string {
	return ":" + c.Port
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}

func getEnvAsFloat(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}

func getEnvAsDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil && d > 0 {
			return d
		}
	}
	return fallback
}
