package app

import "errors"

// Config holds all the necessary configuration for an App instance to run.
type Config struct {
	WorkloadPath string

	LogFormat   string
	LogLevel    string
	WorkerCount int
}

// NewConfig validates the configuration and returns it.
func NewConfig(cfg Config) (*Config, error) {
	if cfg.WorkloadPath == "" {
		return nil, errors.New("WorkloadPath is a required configuration field and cannot be empty")
	}
	return &cfg, nil
}
