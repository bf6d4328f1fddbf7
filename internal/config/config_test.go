package config

import (
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("PORT", "")
	t.Setenv("WORKER_COUNT", "")
	t.Setenv("CONTENT_ID", "")
	t.Setenv("MAX_VISITS", "")

	cfg := Load()
	if cfg.Port != "8090" {
		t.Errorf("expected port 8090, got %q", cfg.Port)
	}
	if cfg.WorkerCount != 4 {
		t.Errorf("expected 4 workers, got %d", cfg.WorkerCount)
	}
	if cfg.ContentID != "content" || cfg.ContentsListID != "contentsList" {
		t.Errorf("unexpected element ids %q / %q", cfg.ContentID, cfg.ContentsListID)
	}
	if cfg.MaxVisits != 10000 {
		t.Errorf("expected 10000 max visits, got %d", cfg.MaxVisits)
	}
	if cfg.JobTTL != time.Hour {
		t.Errorf("expected 1h job ttl, got %s", cfg.JobTTL)
	}
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("WORKER_COUNT", "9")
	t.Setenv("ANCHOR_PREFIX", "sec")
	t.Setenv("JOB_TTL", "5m")
	t.Setenv("PDF_FALLBACK_PDFTOTEXT", "false")

	cfg := Load()
	if cfg.WorkerCount != 9 {
		t.Errorf("expected 9 workers, got %d", cfg.WorkerCount)
	}
	if cfg.AnchorPrefix != "sec" {
		t.Errorf("expected prefix %q, got %q", "sec", cfg.AnchorPrefix)
	}
	if cfg.JobTTL != 5*time.Minute {
		t.Errorf("expected 5m ttl, got %s", cfg.JobTTL)
	}
	if cfg.PDFFallbackPdftotext {
		t.Error("expected pdftotext fallback disabled")
	}
	if opts := cfg.OutlineOptions(); opts.AnchorPrefix != "sec" {
		t.Errorf("expected outline options to carry prefix, got %+v", opts)
	}
}

func TestLoad_InvalidValuesFallBack(t *testing.T) {
	t.Setenv("WORKER_COUNT", "-2")
	t.Setenv("MAX_QUEUE_SIZE", "many")

	cfg := Load()
	if cfg.WorkerCount != 4 {
		t.Errorf("expected fallback of 4 workers, got %d", cfg.WorkerCount)
	}
	if cfg.MaxQueueSize != 100 {
		t.Errorf("expected fallback queue size 100, got %d", cfg.MaxQueueSize)
	}
}

func TestValidate(t *testing.T) {
	cfg := Config{ContentID: "content", ContentsListID: "contentsList"}
	if err := cfg.Validate(); err == nil {
		t.Error("expected missing api key to fail validation")
	}
	cfg.APIKey = "secret"
	if err := cfg.Validate(); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
	cfg.ContentsListID = "content"
	if err := cfg.Validate(); err == nil {
		t.Error("expected identical element ids to fail validation")
	}
}
