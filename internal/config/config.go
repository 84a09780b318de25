package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Session storage backends.
const (
	SessionBackendFile   = "file"
	SessionBackendSQLite = "sqlite"
)

// Config captures the runtime configuration for the Renzo client.
type Config struct {
	BackendURL     string
	LogLevel       string
	LogFormat      string
	HTTPTimeout    time.Duration
	RequestRate    float64
	RequestBurst   int
	SessionBackend string
	SessionPath    string
	ObjectStore    ObjectStoreConfig
	StubPort       int
}

// ObjectStoreConfig configures the S3-compatible store used for s3:// uploads.
type ObjectStoreConfig struct {
	Region   string
	Endpoint string
}

// Load reads configuration from the environment, after merging an optional
// .env file from the working directory. Variables already set take precedence.
func Load() (Config, error) {
	_ = godotenv.Load()

	cfg := Config{
		BackendURL:     strings.TrimSuffix(getString("RENZO_BACKEND_URL", "http://localhost:8001"), "/"),
		LogLevel:       getString("RENZO_LOG_LEVEL", "info"),
		LogFormat:      getString("RENZO_LOG_FORMAT", "text"),
		HTTPTimeout:    getDuration("RENZO_HTTP_TIMEOUT", 30*time.Second),
		RequestRate:    getFloat("RENZO_REQUEST_RATE", 10),
		RequestBurst:   getInt("RENZO_REQUEST_BURST", 5),
		SessionBackend: strings.ToLower(getString("RENZO_SESSION_BACKEND", SessionBackendFile)),
		ObjectStore: ObjectStoreConfig{
			Region:   getString("RENZO_S3_REGION", "us-east-1"),
			Endpoint: getString("RENZO_S3_ENDPOINT", ""),
		},
		StubPort: getInt("RENZO_STUB_PORT", 8001),
	}

	switch cfg.SessionBackend {
	case SessionBackendFile, SessionBackendSQLite:
	default:
		return Config{}, fmt.Errorf("config: unknown session backend %q", cfg.SessionBackend)
	}

	cfg.SessionPath = getString("RENZO_SESSION_PATH", "")
	if cfg.SessionPath == "" {
		path, err := defaultSessionPath(cfg.SessionBackend)
		if err != nil {
			return Config{}, err
		}
		cfg.SessionPath = path
	}

	return cfg, nil
}

func defaultSessionPath(backend string) (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("config: locate user config dir: %w", err)
	}
	name := "session.json"
	if backend == SessionBackendSQLite {
		name = "session.db"
	}
	return filepath.Join(dir, "renzo", name), nil
}

func getString(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getInt(key string, fallback int) int {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	i, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return i
}

func getFloat(key string, fallback float64) float64 {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	f, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return fallback
	}
	return f
}

func getDuration(key string, fallback time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return fallback
	}
	return d
}
