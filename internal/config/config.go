// Package config loads application configuration from environment variables.
package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Storage providers understood by storage.New.
const (
	ProviderMinio      = "minio"
	ProviderS3         = "s3"
	ProviderCloudinary = "cloudinary"
	ProviderLocal      = "local"
)

// Companion notification policies.
const (
	// PolicyLenient logs companion failures and still reports the upload as successful.
	PolicyLenient = "lenient"
	// PolicyStrict fails the whole request when the companion cannot be notified.
	PolicyStrict = "strict"
)

// Config holds all runtime configuration for the service.
type Config struct {
	Port          string
	AppEnv        string
	PublicBaseURL string // browser-accessible base of this API, e.g. "http://localhost:8080"

	MaxUploadBytes     int64
	RateLimitPerMinute int

	// Object storage
	StorageProvider   string
	StorageEndpoint   string
	StorageAccessKey  string
	StorageSecretKey  string
	StorageBucket     string
	StorageRegion     string
	StorageUseSSL     bool
	StoragePublicBase string // browser-accessible base URL, e.g. "http://localhost:9000/photos"
	StorageS3Endpoint string // custom S3 endpoint; empty means AWS
	StorageLocalDir   string
	CloudinaryURL     string

	// Companion (bridge) endpoint that receives the uploaded photo URLs
	CompanionURL             string
	CompanionPath            string
	CompanionTimeout         time.Duration
	CompanionPolicy          string
	CompanionBreakerFailures int
}

// Load reads configuration from a .env file (if present) and environment variables.
func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("no .env file found, reading from environment")
	}
	return FromEnv(os.Getenv)
}

// FromEnv builds a Config from the given lookup function. Missing keys fall back to defaults.
func FromEnv(getenv func(string) string) *Config {
	get := func(key, fallback string) string {
		if v := getenv(key); v != "" {
			return v
		}
		return fallback
	}

	// BRIDGE_SERVER_URL is the older name of COMPANION_URL.
	companionURL := get("COMPANION_URL", get("BRIDGE_SERVER_URL", "http://localhost:3001"))

	return &Config{
		Port:          get("PORT", "8080"),
		AppEnv:        get("APP_ENV", "development"),
		PublicBaseURL: get("PUBLIC_BASE_URL", "http://localhost:8080"),

		MaxUploadBytes:     getInt64(get("MAX_UPLOAD_BYTES", ""), 32<<20),
		RateLimitPerMinute: int(getInt64(get("RATE_LIMIT_PER_MINUTE", ""), 0)),

		StorageProvider:   get("STORAGE_PROVIDER", ProviderMinio),
		StorageEndpoint:   get("STORAGE_ENDPOINT", "localhost:9000"),
		StorageAccessKey:  get("STORAGE_ACCESS_KEY", "minioadmin"),
		StorageSecretKey:  get("STORAGE_SECRET_KEY", "minioadmin"),
		StorageBucket:     get("STORAGE_BUCKET", "photos"),
		StorageRegion:     get("STORAGE_REGION", "us-east-1"),
		StorageUseSSL:     get("STORAGE_USE_SSL", "false") == "true",
		StoragePublicBase: get("STORAGE_PUBLIC_BASE", ""),
		StorageS3Endpoint: get("STORAGE_S3_ENDPOINT", ""),
		StorageLocalDir:   get("STORAGE_LOCAL_DIR", "./uploads"),
		CloudinaryURL:     get("CLOUDINARY_URL", ""),

		CompanionURL:             companionURL,
		CompanionPath:            get("COMPANION_PATH", "/photos"),
		CompanionTimeout:         getDuration(get("COMPANION_TIMEOUT", ""), 5*time.Second),
		CompanionPolicy:          get("COMPANION_POLICY", PolicyLenient),
		CompanionBreakerFailures: int(getInt64(get("COMPANION_BREAKER_FAILURES", ""), 5)),
	}
}

// Validate reports configuration values the service cannot run with.
func (c *Config) Validate() error {
	switch c.StorageProvider {
	case ProviderMinio, ProviderS3, ProviderCloudinary, ProviderLocal:
	default:
		return fmt.Errorf("unknown STORAGE_PROVIDER %q", c.StorageProvider)
	}
	switch c.CompanionPolicy {
	case PolicyLenient, PolicyStrict:
	default:
		return fmt.Errorf("unknown COMPANION_POLICY %q (want %q or %q)", c.CompanionPolicy, PolicyLenient, PolicyStrict)
	}
	if c.MaxUploadBytes <= 0 {
		return fmt.Errorf("MAX_UPLOAD_BYTES must be positive")
	}
	if c.CompanionTimeout <= 0 {
		return fmt.Errorf("COMPANION_TIMEOUT must be positive")
	}
	if c.StorageProvider == ProviderCloudinary && c.CloudinaryURL == "" {
		return fmt.Errorf("CLOUDINARY_URL is required for the cloudinary provider")
	}
	return nil
}

// IsProduction returns true when the app is running in production mode.
func (c *Config) IsProduction() bool {
	return c.AppEnv == "production"
}

// CompanionEndpoint returns the full URL the photo list is posted to.
func (c *Config) CompanionEndpoint() string {
	path := c.CompanionPath
	if path != "" && !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	return strings.TrimRight(c.CompanionURL, "/") + path
}

func getInt64(v string, fallback int64) int64 {
	if v == "" {
		return fallback
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		log.Printf("config: invalid integer %q, using %d", v, fallback)
		return fallback
	}
	return n
}

// getDuration accepts Go durations ("5s") or a bare number of seconds.
func getDuration(v string, fallback time.Duration) time.Duration {
	if v == "" {
		return fallback
	}
	if d, err := time.ParseDuration(v); err == nil {
		return d
	}
	if n, err := strconv.Atoi(v); err == nil {
		return time.Duration(n) * time.Second
	}
	log.Printf("config: invalid duration %q, using %s", v, fallback)
	return fallback
}
