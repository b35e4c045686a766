package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	require.Equal(t, "8080", cfg.Port)
	require.Equal(t, ModePersistent, cfg.StorageMode)
	require.Equal(t, "uploads", cfg.UploadDir)
	require.Equal(t, 1200, cfg.MaxDimension)
	require.Equal(t, 85, cfg.JPEGQuality)
	require.Equal(t, int64(10<<20), cfg.MaxUploadBytes)
	require.Equal(t, 10*time.Minute, cfg.RetentionTTL)
	require.Equal(t, 10*time.Minute, cfg.SweepInterval)
	require.False(t, cfg.IsProduction())
}

func TestLoadEphemeralDefaultsToSmallerBodyCap(t *testing.T) {
	t.Setenv("STORAGE_MODE", ModeEphemeral)

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, int64(4<<20), cfg.MaxUploadBytes)
}

func TestLoadRejectsUnknownMode(t *testing.T) {
	t.Setenv("STORAGE_MODE", "floppy")

	_, err := Load()
	require.Error(t, err)
}

func TestLoadRejectsBadQuality(t *testing.T) {
	t.Setenv("JPEG_QUALITY", "250")

	_, err := Load()
	require.Error(t, err)
}

func TestLoadParsesOverrides(t *testing.T) {
	t.Setenv("MAX_DIMENSION", "1600")
	t.Setenv("JPEG_QUALITY", "90")
	t.Setenv("RETENTION_TTL", "1h")
	t.Setenv("SWEEP_INTERVAL", "5m")
	t.Setenv("PUBLIC_BASE_URL", "https://img.example.com")

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, 1600, cfg.MaxDimension)
	require.Equal(t, 90, cfg.JPEGQuality)
	require.Equal(t, time.Hour, cfg.RetentionTTL)
	require.Equal(t, 5*time.Minute, cfg.SweepInterval)
	require.Equal(t, "https://img.example.com", cfg.PublicBaseURL)
}
