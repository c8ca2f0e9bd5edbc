package config

import (
	"errors"
	"fmt"
)

// Validate checks a normalized configuration and reports every problem.
func Validate(cfg *Config) error {
	var errs []error

	switch cfg.Log.Level {
	case "debug", "info", "warn", "error":
	default:
		errs = append(errs, fmt.Errorf("log.level: unknown level %q", cfg.Log.Level))
	}
	switch cfg.Log.Format {
	case "text", "json":
	default:
		errs = append(errs, fmt.Errorf("log.format: unknown format %q", cfg.Log.Format))
	}

	if cfg.Stream.Chunk < 0 {
		errs = append(errs, fmt.Errorf("stream.chunk: must be positive, got %d", cfg.Stream.Chunk))
	}
	if cfg.Stream.RateBytes < 0 {
		errs = append(errs, fmt.Errorf("stream.rate_bytes: must not be negative, got %d", cfg.Stream.RateBytes))
	}
	if cfg.Stream.Total < 0 {
		errs = append(errs, fmt.Errorf("stream.total: must not be negative, got %d", cfg.Stream.Total))
	}

	if cfg.Redis.DB < 0 {
		errs = append(errs, fmt.Errorf("redis.db: must not be negative, got %d", cfg.Redis.DB))
	}
	if cfg.Redis.MaxLen < 0 {
		errs = append(errs, fmt.Errorf("redis.max_len: must not be negative, got %d", cfg.Redis.MaxLen))
	}
	if cfg.Redis.TTLSeconds < 0 {
		errs = append(errs, fmt.Errorf("redis.ttl_seconds: must not be negative, got %d", cfg.Redis.TTLSeconds))
	}
	if cfg.Redis.Blocks < 0 {
		errs = append(errs, fmt.Errorf("redis.blocks: must not be negative, got %d", cfg.Redis.Blocks))
	}

	return errors.Join(errs...)
}
