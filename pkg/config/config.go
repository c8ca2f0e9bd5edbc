// Package config holds the jitterbug CLI configuration. The generator itself
// has no configuration surface.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Log     LogConfig     `yaml:"log"`
	Stream  StreamConfig  `yaml:"stream"`
	Redis   RedisConfig   `yaml:"redis"`
	Metrics MetricsConfig `yaml:"metrics"`
}

// ---- LOG ----

type LogConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // text or json
}

// ---- STREAM ----

type StreamConfig struct {
	Chunk     int   `yaml:"chunk"`      // bytes per write
	RateBytes int   `yaml:"rate_bytes"` // bytes per second, 0 = unpaced
	Total     int64 `yaml:"total"`      // bytes to write, 0 = until interrupted
}

// ---- REDIS SINK ----

type RedisConfig struct {
	Addr       string `yaml:"addr"`
	Password   string `yaml:"password"`
	DB         int    `yaml:"db"`
	Key        string `yaml:"key"`
	MaxLen     int64  `yaml:"max_len"`     // list is trimmed to this many blocks
	TTLSeconds int    `yaml:"ttl_seconds"` // 0 = no expiry
	Blocks     int    `yaml:"blocks"`      // blocks to publish per run
}

// ---- METRICS ----

type MetricsConfig struct {
	Dump bool `yaml:"dump"` // print metrics after selftest
}

// Load reads a YAML file and applies defaults. An empty path yields the
// defaults alone.
func Load(path string) (*Config, error) {
	cfg := &Config{}
	if path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(raw, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	}
	Normalize(cfg)
	return cfg, nil
}
