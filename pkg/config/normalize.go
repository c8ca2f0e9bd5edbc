package config

import "strings"

const (
	DefaultLogLevel    = "info"
	DefaultLogFormat   = "text"
	DefaultChunk       = 4096
	DefaultRedisAddr   = "localhost:6379"
	DefaultRedisKey    = "jitter:blocks"
	DefaultRedisMaxLen = 1024
	DefaultRedisBlocks = 64
)

// Normalize fills in defaults for unset fields.
func Normalize(cfg *Config) {
	cfg.Log.Level = strings.ToLower(strings.TrimSpace(cfg.Log.Level))
	if cfg.Log.Level == "" {
		cfg.Log.Level = DefaultLogLevel
	}
	cfg.Log.Format = strings.ToLower(strings.TrimSpace(cfg.Log.Format))
	if cfg.Log.Format == "" {
		cfg.Log.Format = DefaultLogFormat
	}

	if cfg.Stream.Chunk == 0 {
		cfg.Stream.Chunk = DefaultChunk
	}

	if cfg.Redis.Addr == "" {
		cfg.Redis.Addr = DefaultRedisAddr
	}
	if cfg.Redis.Key == "" {
		cfg.Redis.Key = DefaultRedisKey
	}
	if cfg.Redis.MaxLen == 0 {
		cfg.Redis.MaxLen = DefaultRedisMaxLen
	}
	if cfg.Redis.Blocks == 0 {
		cfg.Redis.Blocks = DefaultRedisBlocks
	}
}
