// Package config loads application configuration from environment variables.
package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Storage mode names accepted in STORAGE_MODE.
const (
	ModeEphemeral  = "ephemeral"
	ModePersistent = "persistent"
	ModeS3         = "s3"
)

// Config holds all runtime configuration for the service.
type Config struct {
	Port   string
	AppEnv string

	// StorageMode selects the backend: "ephemeral" returns processed images
	// inline, "persistent" writes them under UploadDir, "s3" puts them in an
	// S3-compatible bucket.
	StorageMode   string
	PublicBaseURL string
	UploadDir     string

	MaxDimension   int
	JPEGQuality    int
	MaxUploadBytes int64

	RetentionTTL  time.Duration
	SweepInterval time.Duration

	// Object storage (S3-compatible: MinIO locally, any S3 provider in production)
	S3Endpoint   string
	S3AccessKey  string
	S3SecretKey  string
	S3Bucket     string
	S3UseSSL     bool
	S3PublicBase string // browser-accessible base URL, e.g. "http://localhost:9000/images"
}

// Load reads configuration from a .env file (if present) and environment variables.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Println("no .env file found, reading from environment")
	}

	cfg := &Config{
		Port:   getEnv("PORT", "8080"),
		AppEnv: getEnv("APP_ENV", "development"),

		StorageMode:   getEnv("STORAGE_MODE", ModePersistent),
		PublicBaseURL: getEnv("PUBLIC_BASE_URL", "http://localhost:8080"),
		UploadDir:     getEnv("UPLOAD_DIR", "uploads"),

		S3Endpoint:   getEnv("S3_ENDPOINT", "localhost:9000"),
		S3AccessKey:  getEnv("S3_ACCESS_KEY", "minioadmin"),
		S3SecretKey:  getEnv("S3_SECRET_KEY", "minioadmin"),
		S3Bucket:     getEnv("S3_BUCKET", "images"),
		S3UseSSL:     getEnv("S3_USE_SSL", "false") == "true",
		S3PublicBase: getEnv("S3_PUBLIC_BASE", "http://localhost:9000/images"),
	}

	switch cfg.StorageMode {
	case ModeEphemeral, ModePersistent, ModeS3:
	default:
		return nil, fmt.Errorf("invalid STORAGE_MODE %q: must be one of %s, %s, %s",
			cfg.StorageMode, ModeEphemeral, ModePersistent, ModeS3)
	}

	var err error
	if cfg.MaxDimension, err = getEnvInt("MAX_DIMENSION", 1200); err != nil {
		return nil, err
	}
	if cfg.MaxDimension <= 0 {
		return nil, fmt.Errorf("MAX_DIMENSION must be positive, got %d", cfg.MaxDimension)
	}
	if cfg.JPEGQuality, err = getEnvInt("JPEG_QUALITY", 85); err != nil {
		return nil, err
	}
	if cfg.JPEGQuality < 1 || cfg.JPEGQuality > 100 {
		return nil, fmt.Errorf("JPEG_QUALITY must be in [1,100], got %d", cfg.JPEGQuality)
	}

	maxUpload, err := getEnvInt("MAX_UPLOAD_BYTES", defaultMaxUpload(cfg.StorageMode))
	if err != nil {
		return nil, err
	}
	cfg.MaxUploadBytes = int64(maxUpload)

	if cfg.RetentionTTL, err = getEnvDuration("RETENTION_TTL", 10*time.Minute); err != nil {
		return nil, err
	}
	if cfg.SweepInterval, err = getEnvDuration("SWEEP_INTERVAL", 10*time.Minute); err != nil {
		return nil, err
	}

	return cfg, nil
}

// IsProduction returns true when the app is running in production mode.
func (c *Config) IsProduction() bool {
	return c.AppEnv == "production"
}

// defaultMaxUpload picks the body cap for the storage mode: inline responses
// get a tighter limit since the whole result travels back in the payload.
func defaultMaxUpload(mode string) int {
	if mode == ModeEphemeral {
		return 4 << 20
	}
	return 10 << 20
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, v, err)
	}
	return n, nil
}

func getEnvDuration(key string, fallback time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, v, err)
	}
	return d, nil
}
