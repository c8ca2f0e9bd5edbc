// Package sink moves generator output to consumers outside the process.
package sink

import (
	"context"
	"fmt"
	"io"

	"golang.org/x/time/rate"

	"GoJitterRNG/pkg/logger"
)

// StreamOptions controls Stream.
type StreamOptions struct {
	Chunk     int   // bytes per write, default 4096
	RateBytes int   // bytes per second, 0 = unpaced
	Total     int64 // bytes to copy, 0 = until ctx is done or a write fails
}

// Stream copies random bytes from r to w in chunks. Pacing uses a token
// bucket whose burst is one chunk.
func Stream(ctx context.Context, r io.Reader, w io.Writer, opts StreamOptions) (int64, error) {
	log := logger.FromContext(ctx)

	chunk := opts.Chunk
	if chunk <= 0 {
		chunk = 4096
	}
	var limiter *rate.Limiter
	if opts.RateBytes > 0 {
		if opts.RateBytes < chunk {
			chunk = opts.RateBytes
		}
		limiter = rate.NewLimiter(rate.Limit(opts.RateBytes), chunk)
	}

	buf := make([]byte, chunk)
	var written int64
	for {
		if err := ctx.Err(); err != nil {
			return written, err
		}

		n := chunk
		if opts.Total > 0 {
			left := opts.Total - written
			if left <= 0 {
				log.Debug("stream complete", "bytes", written)
				return written, nil
			}
			if left < int64(n) {
				n = int(left)
			}
		}

		if limiter != nil {
			if err := limiter.WaitN(ctx, n); err != nil {
				return written, err
			}
		}
		if _, err := io.ReadFull(r, buf[:n]); err != nil {
			return written, fmt.Errorf("read generator: %w", err)
		}
		m, err := w.Write(buf[:n])
		written += int64(m)
		if err != nil {
			return written, fmt.Errorf("write output: %w", err)
		}
	}
}
