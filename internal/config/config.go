package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/dgallion1/docoutline/internal/outline"
)

type Config struct {
	Port string

	// Auth
	APIKey string

	// Worker pool
	WorkerCount  int
	MaxQueueSize int

	// Upload limits
	MaxUploadBytes int64

	// Job state
	JobTTL time.Duration

	// Outline
	ContentID      string
	ContentsListID string
	AnchorPrefix   string
	MaxVisits      int

	// PDF
	PDFFallbackPdftotext bool

	// Build statistics window
	StatsWindow time.Duration
}

func Load() Config {
	cfg := Config{
		Port: envOr("PORT", "8090"),

		APIKey: os.Getenv("OUTLINE_API_KEY"),

		WorkerCount:  envInt("WORKER_COUNT", 4),
		MaxQueueSize: envInt("MAX_QUEUE_SIZE", 100),

		MaxUploadBytes: envInt64("MAX_UPLOAD_BYTES", 52428800), // 50MB

		JobTTL: envDuration("JOB_TTL", 1*time.Hour),

		ContentID:      envOr("CONTENT_ID", "content"),
		ContentsListID: envOr("CONTENTS_LIST_ID", "contentsList"),
		AnchorPrefix:   envOr("ANCHOR_PREFIX", outline.DefaultAnchorPrefix),
		MaxVisits:      envInt("MAX_VISITS", outline.DefaultMaxVisits),

		PDFFallbackPdftotext: envBool("PDF_FALLBACK_PDFTOTEXT", true),

		StatsWindow: envDuration("STATS_WINDOW", 1*time.Hour),
	}

	if cfg.WorkerCount <= 0 {
		cfg.WorkerCount = 4
	}
	if cfg.MaxQueueSize <= 0 {
		cfg.MaxQueueSize = 100
	}
	if cfg.MaxUploadBytes <= 0 {
		cfg.MaxUploadBytes = 52428800
	}
	if cfg.JobTTL <= 0 {
		cfg.JobTTL = 1 * time.Hour
	}
	if cfg.MaxVisits <= 0 {
		cfg.MaxVisits = outline.DefaultMaxVisits
	}
	if cfg.StatsWindow <= 0 {
		cfg.StatsWindow = 1 * time.Hour
	}

	return cfg
}

func (c Config) Validate() error {
	if c.APIKey == "" {
		return fmt.Errorf("OUTLINE_API_KEY is required")
	}
	if c.ContentID == c.ContentsListID {
		return fmt.Errorf("CONTENT_ID and CONTENTS_LIST_ID must differ")
	}
	return nil
}

// OutlineOptions returns the builder options derived from the config.
func (c Config) OutlineOptions() outline.Options {
	return outline.Options{
		ContentID:      c.ContentID,
		ContentsListID: c.ContentsListID,
		AnchorPrefix:   c.AnchorPrefix,
		MaxVisits:      c.MaxVisits,
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envInt64(key string, fallback int64) int64 {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			return n
		}
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
