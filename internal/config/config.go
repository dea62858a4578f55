package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds the configuration settings for the enrichment service.
//
// Fields:
// - Env: The current environment (e.g., local, development, production).
// - Port: The port for the HTTP server.
// - AllowedOrigin: The front-end origin allowed by CORS.
// - UploadsDir: The directory where uploaded and processed files are kept.
// - MaxRows: The upper bound on rows accepted per uploaded table (0 = unlimited).
// - LookupTimeout: The deadline applied to each external provider call.
// - RateLimit: The requests-per-second budget handed to each provider.
type Config struct {
	Env           string        // Env is the current environment: local, development, production.
	Port          int           // Port is the HTTP server port.
	AllowedOrigin string        // AllowedOrigin is the CORS origin of the front-end.
	UploadsDir    string        // UploadsDir holds uploaded and processed spreadsheets.
	MaxRows       int           // MaxRows caps the size of an uploaded table.
	LookupTimeout time.Duration // LookupTimeout bounds a single provider call.
	RateLimit     int           // RateLimit is the per-provider requests-per-second budget.
}

// MustLoad loads the configuration from environment variables (with .env
// support) and panics when a value cannot be parsed.
func MustLoad() *Config {
	_ = godotenv.Load()

	port, err := strconv.Atoi(setDefaultEnv("DEMETER_PORT", "8000"))
	if err != nil {
		panic("failed to parse port for HTTP server from configuration")
	}

	maxRows, err := strconv.Atoi(setDefaultEnv("DEMETER_MAX_ROWS", "10000"))
	if err != nil {
		panic("failed to parse max rows from configuration, must be an integer")
	}

	lookupTimeout, err := time.ParseDuration(setDefaultEnv("DEMETER_LOOKUP_TIMEOUT", "10s"))
	if err != nil {
		panic("failed to parse lookup timeout from configuration")
	}

	rateLimit, err := strconv.Atoi(setDefaultEnv("DEMETER_RATE_LIMIT", "50"))
	if err != nil {
		panic("failed to parse rate limit from configuration, must be an integer")
	}

	return &Config{
		Env:           setDefaultEnv("DEMETER_ENV", "production"),
		Port:          port,
		AllowedOrigin: setDefaultEnv("DEMETER_ALLOWED_ORIGIN", "http://localhost:3000"),
		UploadsDir:    setDefaultEnv("DEMETER_UPLOADS_DIR", "uploads"),
		MaxRows:       maxRows,
		LookupTimeout: lookupTimeout,
		RateLimit:     rateLimit,
	}
}

func setDefaultEnv(key, override string) string {
	value, exists := os.LookupEnv(key)
	if !exists {
		value = override
	}

	return value
}
