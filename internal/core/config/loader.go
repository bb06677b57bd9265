package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v2"
)

// Load reads configuration from a YAML file.
func Load(path string) (*AppConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg AppConfig
	// Expand environment variables in the YAML content
	expandedData := os.ExpandEnv(string(data))
	if err := yaml.Unmarshal([]byte(expandedData), &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	// Set defaults if necessary
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Matching.FetchTimeout == 0 {
		cfg.Matching.FetchTimeout = 15 * time.Second
	}
	if cfg.Matching.PreloadBatchSize == 0 {
		cfg.Matching.PreloadBatchSize = 3
	}
	if cfg.Matching.DeclineDelay == 0 {
		cfg.Matching.DeclineDelay = 3 * time.Minute
	}
	if cfg.Breaker.Threshold == 0 {
		cfg.Breaker.Threshold = 3
	}
	if cfg.Breaker.Cooldown == 0 {
		cfg.Breaker.Cooldown = 30 * time.Second
	}

	return &cfg, nil
}
