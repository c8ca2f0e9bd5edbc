package sink

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/go-redis/redis/v8"

	"GoJitterRNG/pkg/conditioner"
	"GoJitterRNG/pkg/logger"
)

// batchBlocks is the number of blocks sent per pipeline round trip.
const batchBlocks = 64

// Redis publishes output blocks to a capped redis list so that other
// processes can pop them.
type Redis struct {
	Client redis.Cmdable
	Key    string
	MaxLen int64         // trim the list to the newest MaxLen blocks, 0 = unbounded
	TTL    time.Duration // expire the list after the last push, 0 = never
}

// NewRedis is the constructor.
func NewRedis(client redis.Cmdable, key string, maxLen int64, ttl time.Duration) *Redis {
	return &Redis{
		Client: client,
		Key:    key,
		MaxLen: maxLen,
		TTL:    ttl,
	}
}

// Push appends blocks to the list, then trims and refreshes its expiry in the
// same pipeline.
func (s *Redis) Push(ctx context.Context, blocks [][]byte) error {
	if s.Key == "" {
		return errors.New("redis sink: empty key")
	}
	if len(blocks) == 0 {
		return nil
	}

	values := make([]interface{}, len(blocks))
	for i, b := range blocks {
		values[i] = b
	}

	pipe := s.Client.Pipeline()
	pipe.RPush(ctx, s.Key, values...)
	if s.MaxLen > 0 {
		pipe.LTrim(ctx, s.Key, -s.MaxLen, -1)
	}
	if s.TTL > 0 {
		pipe.Expire(ctx, s.Key, s.TTL)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("redis sink push %s: %w", s.Key, err)
	}
	return nil
}

// Publish reads n blocks of conditioner.BlockSize bytes from r and pushes them
// in batches. It returns the number of blocks published.
func (s *Redis) Publish(ctx context.Context, r io.Reader, n int) (int, error) {
	log := logger.FromContext(ctx)

	published := 0
	for published < n {
		if err := ctx.Err(); err != nil {
			return published, err
		}
		batch := n - published
		if batch > batchBlocks {
			batch = batchBlocks
		}

		raw := make([]byte, batch*conditioner.BlockSize)
		if _, err := io.ReadFull(r, raw); err != nil {
			return published, fmt.Errorf("read generator: %w", err)
		}
		blocks := make([][]byte, batch)
		for i := range blocks {
			blocks[i] = raw[i*conditioner.BlockSize : (i+1)*conditioner.BlockSize]
		}

		if err := s.Push(ctx, blocks); err != nil {
			return published, err
		}
		published += batch
		log.Debug("published blocks", "key", s.Key, "batch", batch, "total", published)
	}
	return published, nil
}
