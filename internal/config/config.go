package config

import (
	"fmt"
	"net"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"golang.org/x/text/language"

	"hesabdari/internal/core"
	"hesabdari/internal/log"
)

// Backends accepted by DATA_BACKEND.
const (
	BackendMemory = "memory"
	BackendFile   = "file"
	BackendSQLite = "sqlite"
)

var validBackends = []string{BackendMemory, BackendFile, BackendSQLite}

type Config struct {
	// HTTP Server
	Port            string
	ShutdownTimeout time.Duration
	RateLimit       int // mutating requests per client per minute
	TrustedProxies  []string

	// Persistence
	DataBackend  string
	DataFile     string
	SQLiteDBPath string
	SlotName     string

	// AMQP, disabled when AMQPURL is empty
	AMQPURL        string
	AMQPExchange   string
	AMQPRoutingKey string

	// Presentation
	DisplayLocale string
	ViewFallback  string
	ViewCacheSize int

	LogLevel  string
	LogFormat string
}

func Load() *Config {
	return &Config{
		Port:            getEnv("PORT", "8081"),
		ShutdownTimeout: getEnvDuration("SHUTDOWN_TIMEOUT", 10*time.Second),
		RateLimit:       getEnvInt("RATE_LIMIT_PER_MINUTE", 60),
		TrustedProxies:  getEnvList("TRUSTED_PROXIES"),

		DataBackend:  getEnv("DATA_BACKEND", BackendFile),
		DataFile:     getEnv("DATA_FILE", "./data/transactions.json"),
		SQLiteDBPath: getEnv("SQLITE_DB_PATH", "./data/hesabdari.db"),
		SlotName:     getEnv("SLOT_NAME", "hesabdari_transactions"),

		AMQPURL:        getEnv("AMQP_URL", ""),
		AMQPExchange:   getEnv("AMQP_EXCHANGE", "hesabdari"),
		AMQPRoutingKey: getEnv("AMQP_ROUTING_KEY", "transactions"),

		DisplayLocale: getEnv("DISPLAY_LOCALE", "fa-IR"),
		ViewFallback:  getEnv("VIEW_FALLBACK", "all"),
		ViewCacheSize: getEnvInt("VIEW_CACHE_SIZE", 128),

		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogFormat: getEnv("LOG_FORMAT", "text"),
	}
}

// Validate validates the configuration and returns every problem found.
func (c *Config) Validate() error {
	var errors []string

	if port, err := strconv.Atoi(c.Port); err != nil {
		errors = append(errors, fmt.Sprintf("invalid port '%s': must be a number", c.Port))
	} else if port < 1 || port > 65535 {
		errors = append(errors, fmt.Sprintf("invalid port %d: must be between 1 and 65535", port))
	}

	if c.ShutdownTimeout < time.Second {
		errors = append(errors, fmt.Sprintf("invalid shutdown timeout %v: must be at least 1 second", c.ShutdownTimeout))
	}
	if c.RateLimit < 1 {
		errors = append(errors, fmt.Sprintf("invalid rate limit %d: must be at least 1", c.RateLimit))
	}

	for _, cidr := range c.TrustedProxies {
		if _, _, err := net.ParseCIDR(cidr); err != nil {
			errors = append(errors, fmt.Sprintf("invalid trusted proxy '%s': must be a CIDR", cidr))
		}
	}

	isValidBackend := false
	for _, backend := range validBackends {
		if c.DataBackend == backend {
			isValidBackend = true
			break
		}
	}
	if !isValidBackend {
		errors = append(errors, fmt.Sprintf("invalid data backend '%s': must be one of %v", c.DataBackend, validBackends))
	}

	switch c.DataBackend {
	case BackendFile:
		if c.DataFile == "" {
			errors = append(errors, "data file path cannot be empty when using file backend")
		} else if err := ensureDir(c.DataFile); err != nil {
			errors = append(errors, fmt.Sprintf("cannot create data file directory: %v", err))
		}
	case BackendSQLite:
		if c.SQLiteDBPath == "" {
			errors = append(errors, "SQLite database path cannot be empty when using sqlite backend")
		} else if err := ensureDir(c.SQLiteDBPath); err != nil {
			errors = append(errors, fmt.Sprintf("cannot create SQLite database directory: %v", err))
		}
		if strings.TrimSpace(c.SlotName) == "" {
			errors = append(errors, "slot name cannot be empty when using sqlite backend")
		}
	}

	if c.AMQPURL != "" {
		if parsedURL, err := url.Parse(c.AMQPURL); err != nil {
			errors = append(errors, fmt.Sprintf("invalid AMQP URL '%s': %v", c.AMQPURL, err))
		} else if parsedURL.Scheme != "amqp" && parsedURL.Scheme != "amqps" {
			errors = append(errors, fmt.Sprintf("invalid AMQP URL scheme '%s': must be 'amqp' or 'amqps'", parsedURL.Scheme))
		}
		if c.AMQPExchange == "" {
			errors = append(errors, "AMQP exchange name cannot be empty when AMQP URL is provided")
		}
		if c.AMQPRoutingKey == "" {
			errors = append(errors, "AMQP routing key cannot be empty when AMQP URL is provided")
		}
	}

	if _, err := language.Parse(c.DisplayLocale); err != nil {
		errors = append(errors, fmt.Sprintf("invalid display locale '%s': %v", c.DisplayLocale, err))
	}
	if _, ok := core.ParseFallbackPolicy(c.ViewFallback); !ok {
		errors = append(errors, fmt.Sprintf("invalid view fallback '%s': must be 'all' or 'none'", c.ViewFallback))
	}
	if c.ViewCacheSize < 1 {
		errors = append(errors, fmt.Sprintf("invalid view cache size %d: must be at least 1", c.ViewCacheSize))
	}

	if _, err := log.ParseLevel(c.LogLevel); err != nil {
		errors = append(errors, err.Error())
	}
	if c.LogFormat != "text" && c.LogFormat != "json" {
		errors = append(errors, fmt.Sprintf("invalid log format '%s': must be 'text' or 'json'", c.LogFormat))
	}

	if len(errors) > 0 {
		return fmt.Errorf("configuration validation failed:\n- %s", strings.Join(errors, "\n- "))
	}

	return nil
}

// Locale returns the parsed display locale, falling back to Persian.
func (c *Config) Locale() language.Tag {
	tag, err := language.Parse(c.DisplayLocale)
	if err != nil {
		return language.Persian
	}
	return tag
}

// FallbackPolicy returns the parsed VIEW_FALLBACK setting.
func (c *Config) FallbackPolicy() core.FallbackPolicy {
	p, _ := core.ParseFallbackPolicy(c.ViewFallback)
	return p
}

func ensureDir(path string) error {
	dir := filepath.Dir(path)
	if dir == "." || dir == "" {
		return nil
	}
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		return os.MkdirAll(dir, 0755)
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

// getEnvList splits a comma-separated variable, dropping empty items.
func getEnvList(key string) []string {
	var out []string
	for _, item := range strings.Split(os.Getenv(key), ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
