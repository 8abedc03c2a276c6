package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg := Load()

	if cfg.Port != "8080" {
		t.Errorf("Expected default port 8080, got %s", cfg.Port)
	}
	if cfg.MaxDepth != 3 {
		t.Errorf("Expected default max depth 3, got %d", cfg.MaxDepth)
	}
	if cfg.MaxPages != 25 {
		t.Errorf("Expected default max pages 25, got %d", cfg.MaxPages)
	}
	if cfg.PipelineTimeout != 180*time.Second {
		t.Errorf("Expected default pipeline timeout 180s, got %v", cfg.PipelineTimeout)
	}
	if cfg.DomainAuthority != nil {
		t.Error("Expected domain authority estimate to be unset by default")
	}
	if len(cfg.Keywords) == 0 {
		t.Error("Expected default keyword list to be non-empty")
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("MAX_CRAWL_DEPTH", "5")
	t.Setenv("PAGE_TIMEOUT", "40")
	t.Setenv("PIPELINE_TIMEOUT", "2m")
	t.Setenv("EST_DOMAIN_AUTHORITY", "65")
	t.Setenv("SEO_KEYWORDS", "Term, Health ,")
	t.Setenv("LOG_PRETTY", "true")

	cfg := Load()

	if cfg.Port != "9090" {
		t.Errorf("Expected port 9090, got %s", cfg.Port)
	}
	if cfg.MaxDepth != 5 {
		t.Errorf("Expected max depth 5, got %d", cfg.MaxDepth)
	}
	if cfg.PageTimeout != 40*time.Second {
		t.Errorf("Expected page timeout 40s from bare seconds, got %v", cfg.PageTimeout)
	}
	if cfg.PipelineTimeout != 2*time.Minute {
		t.Errorf("Expected pipeline timeout 2m, got %v", cfg.PipelineTimeout)
	}
	if cfg.DomainAuthority == nil || *cfg.DomainAuthority != 65 {
		t.Errorf("Expected domain authority estimate 65, got %v", cfg.DomainAuthority)
	}
	if len(cfg.Keywords) != 2 || cfg.Keywords[0] != "term" || cfg.Keywords[1] != "health" {
		t.Errorf("Expected normalized keyword list [term health], got %v", cfg.Keywords)
	}
	if !cfg.LogPretty {
		t.Error("Expected pretty logging enabled")
	}
}

func TestLoadInvalidValuesFallBack(t *testing.T) {
	t.Setenv("MAX_PAGES", "lots")
	t.Setenv("EST_TOTAL_BACKLINKS", "many")
	t.Setenv("CACHE_TTL", "soon")

	cfg := Load()

	if cfg.MaxPages != 25 {
		t.Errorf("Expected fallback max pages 25 on bad input, got %d", cfg.MaxPages)
	}
	if cfg.TotalBacklinks != nil {
		t.Error("Expected unparseable backlink estimate to stay unset")
	}
	if cfg.CacheTTL != 15*time.Minute {
		t.Errorf("Expected fallback cache TTL 15m, got %v", cfg.CacheTTL)
	}
}
