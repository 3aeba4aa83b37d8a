package main

import (
	"fmt"
	"os"

	"github.com/pelletier/go-toml/v2"
)

// config holds the optional TOML configuration file. Flags override
// whatever the file sets.
type config struct {
	FlushDelayMS  int    `toml:"flush_delay_ms"`
	RetryDelayMS  int    `toml:"retry_delay_ms"`
	ViewportWidth int    `toml:"viewport_width"`
	Images        bool   `toml:"images"`
	CSS           string `toml:"css"`
	ChunkSize     int    `toml:"chunk_size"`
	IntervalMS    int    `toml:"interval_ms"`
}

func defaultConfig() config {
	return config{
		FlushDelayMS:  40,
		RetryDelayMS:  30,
		ViewportWidth: 800,
		Images:        true,
		ChunkSize:     64,
		IntervalMS:    10,
	}
}

// loadConfig reads path into the defaults. An empty path returns the
// defaults untouched.
func loadConfig(path string) (config, error) {
	cfg := defaultConfig()
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return config{}, fmt.Errorf("read config: %w", err)
	}
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return config{}, fmt.Errorf("parse config: %w", err)
	}
	return cfg, nil
}
