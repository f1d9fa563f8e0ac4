package enrich_test

import (
	"context"
	"testing"

	"uplink/internal/config"
	"uplink/internal/enrich"
	"uplink/internal/logging"
)

func TestUnconfiguredServiceReturnsPlaceholder(t *testing.T) {
	cfg := config.Default()
	cfg.Enrichment.BaseURL = ""
	cfg.Enrichment.APIKey = ""
	svc := enrich.NewService(&cfg, logging.NewNop())

	text, err := svc.Describe(context.Background(), "img/x1.png", "flooded area")
	if err != nil {
		t.Fatalf("noop Describe errored: %v", err)
	}
	if text != enrich.Placeholder {
		t.Fatalf("expected placeholder, got %q", text)
	}

	answer, err := svc.Ask(context.Background(), "img/x1.png", "what is this?")
	if err != nil || answer != enrich.Placeholder {
		t.Fatalf("unexpected Ask result: %q, %v", answer, err)
	}
}

func TestConfiguredServiceFailsOnMissingImage(t *testing.T) {
	cfg := config.Default()
	cfg.Enrichment.BaseURL = "http://localhost:1/v1"
	cfg.Enrichment.APIKey = "unused"
	svc := enrich.NewService(&cfg, logging.NewNop())

	if _, err := svc.Describe(context.Background(), "/nonexistent/image.png", ""); err == nil {
		t.Fatal("expected error for unreadable image")
	}
}
