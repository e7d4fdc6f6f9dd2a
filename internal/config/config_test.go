package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg := Load()

	if cfg.APIPort != "8080" {
		t.Fatalf("APIPort = %q, want 8080", cfg.APIPort)
	}
	if cfg.MaxUploadSize != 10*1024*1024 {
		t.Fatalf("MaxUploadSize = %d, want 10MiB", cfg.MaxUploadSize)
	}
	if cfg.TokenTTL != 7*24*time.Hour {
		t.Fatalf("TokenTTL = %v, want 168h", cfg.TokenTTL)
	}
	if cfg.NATSSubject != "documents.process" {
		t.Fatalf("NATSSubject = %q", cfg.NATSSubject)
	}
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("API_PORT", "9000")
	t.Setenv("MAX_UPLOAD_SIZE_BYTES", "1024")
	t.Setenv("TOKEN_TTL_MINUTES", "not-a-number")

	cfg := Load()

	if cfg.APIPort != "9000" {
		t.Fatalf("APIPort = %q, want 9000", cfg.APIPort)
	}
	if cfg.MaxUploadSize != 1024 {
		t.Fatalf("MaxUploadSize = %d, want 1024", cfg.MaxUploadSize)
	}
	if cfg.TokenTTL != 7*24*time.Hour {
		t.Fatalf("invalid TOKEN_TTL_MINUTES should fall back, got %v", cfg.TokenTTL)
	}
}
