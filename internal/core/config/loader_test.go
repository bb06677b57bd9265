package config

import (
	"os"
	"testing"
	"time"
)

func TestLoad_EnvSubstitution(t *testing.T) {
	// Setup env var
	os.Setenv("TEST_MATCH_URL", "https://api.example.com/v1")
	defer os.Unsetenv("TEST_MATCH_URL")

	// Create temp config file
	configContent := `
matching:
  base_url: ${TEST_MATCH_URL}
`
	tmpFile, err := os.CreateTemp("", "config_*.yaml")
	if err != nil {
		t.Fatalf("Failed to create temp file: %v", err)
	}
	defer os.Remove(tmpFile.Name())

	if _, err := tmpFile.Write([]byte(configContent)); err != nil {
		t.Fatalf("Failed to write to temp file: %v", err)
	}
	tmpFile.Close()

	// Load config
	cfg, err := Load(tmpFile.Name())
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Matching.BaseURL != "https://api.example.com/v1" {
		t.Errorf("Expected base URL https://api.example.com/v1, got %s", cfg.Matching.BaseURL)
	}
}

func TestLoad_Defaults(t *testing.T) {
	tmpFile, err := os.CreateTemp("", "config_*.yaml")
	if err != nil {
		t.Fatalf("Failed to create temp file: %v", err)
	}
	defer os.Remove(tmpFile.Name())

	if _, err := tmpFile.Write([]byte("server:\n  port: 0\n")); err != nil {
		t.Fatalf("Failed to write to temp file: %v", err)
	}
	tmpFile.Close()

	cfg, err := Load(tmpFile.Name())
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Server.Port != 8080 {
		t.Errorf("Expected default port 8080, got %d", cfg.Server.Port)
	}
	if cfg.Matching.FetchTimeout != 15*time.Second {
		t.Errorf("Expected default fetch timeout 15s, got %v", cfg.Matching.FetchTimeout)
	}
	if cfg.Matching.PreloadBatchSize != 3 {
		t.Errorf("Expected default preload batch size 3, got %d", cfg.Matching.PreloadBatchSize)
	}
	if cfg.Matching.DeclineDelay != 3*time.Minute {
		t.Errorf("Expected default decline delay 3m, got %v", cfg.Matching.DeclineDelay)
	}
	if cfg.Breaker.Threshold != 3 {
		t.Errorf("Expected default breaker threshold 3, got %d", cfg.Breaker.Threshold)
	}
	if cfg.Breaker.Cooldown != 30*time.Second {
		t.Errorf("Expected default breaker cooldown 30s, got %v", cfg.Breaker.Cooldown)
	}
}
