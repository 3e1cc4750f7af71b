package config

import (
	"os"
	"testing"
)

func TestLoadConfig_Defaults(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost:5432/hunter")
	t.Setenv("JWT_SECRET", "test-secret")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if cfg.HTTPPort != "3000" {
		t.Fatalf("unexpected port %q", cfg.HTTPPort)
	}
	if cfg.AccessTTLSeconds != 3600 {
		t.Fatalf("unexpected access TTL %d", cfg.AccessTTLSeconds)
	}
	if cfg.RefreshTTLMinutes != 43200 {
		t.Fatalf("unexpected refresh TTL %d", cfg.RefreshTTLMinutes)
	}
	if cfg.UploadBucket != "hunter-s3-bucket" {
		t.Fatalf("unexpected bucket %q", cfg.UploadBucket)
	}
}

func TestLoadConfig_MissingRequired(t *testing.T) {
	t.Setenv("DATABASE_URL", "")
	t.Setenv("JWT_SECRET", "")
	os.Unsetenv("DATABASE_URL")
	os.Unsetenv("JWT_SECRET")

	if _, err := LoadConfig(); err == nil {
		t.Fatal("expected error when required variables are missing")
	}
}

func TestLoadConfig_Overrides(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost:5432/hunter")
	t.Setenv("JWT_SECRET", "test-secret")
	t.Setenv("HTTP_PORT", "8080")
	t.Setenv("REDIS_ADDR", "localhost:6379")
	t.Setenv("AUTH_RATE_PER_MINUTE", "5")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if cfg.HTTPPort != "8080" || cfg.RedisAddr != "localhost:6379" || cfg.AuthRatePerMinute != 5 {
		t.Fatalf("overrides not applied: %+v", cfg)
	}
}
