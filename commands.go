package main

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"math/bits"
	"os"
	"syscall"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/prometheus/common/expfmt"

	"GoJitterRNG/pkg/sink"
)

type StreamCmd struct {
	Total int64 `short:"n" placeholder:"bytes" help:"Stop after this many bytes (default: until interrupted)"`
	Rate  int   `placeholder:"bytes/s" help:"Limit output rate in bytes per second"`
}

func (c *StreamCmd) Run(app *App) error {
	opts := sink.StreamOptions{
		Chunk:     app.Config.Stream.Chunk,
		RateBytes: app.Config.Stream.RateBytes,
		Total:     app.Config.Stream.Total,
	}
	if c.Total > 0 {
		opts.Total = c.Total
	}
	if c.Rate > 0 {
		opts.RateBytes = c.Rate
	}

	g, err := app.NewGenerator()
	if err != nil {
		return err
	}
	n, err := sink.Stream(app.Ctx, g, os.Stdout, opts)
	switch {
	case err == nil:
	case errors.Is(err, context.Canceled), errors.Is(err, syscall.EPIPE):
		// Interrupted or the reader went away
	default:
		return err
	}
	app.Log.Info("stream finished", "bytes", n)
	return nil
}

type PushCmd struct {
	Addr   string `placeholder:"host:port" help:"Redis address (default from config)"`
	Key    string `placeholder:"key" help:"Redis list key (default from config)"`
	Blocks int    `placeholder:"n" help:"Number of 32-byte blocks to publish (default from config)"`
}

func (c *PushCmd) Run(app *App) error {
	rc := app.Config.Redis
	if c.Addr != "" {
		rc.Addr = c.Addr
	}
	if c.Key != "" {
		rc.Key = c.Key
	}
	if c.Blocks > 0 {
		rc.Blocks = c.Blocks
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:     rc.Addr,
		Password: rc.Password,
		DB:       rc.DB,
	})
	defer rdb.Close()

	if err := rdb.Ping(app.Ctx).Err(); err != nil {
		return fmt.Errorf("redis %s: %w", rc.Addr, err)
	}

	g, err := app.NewGenerator()
	if err != nil {
		return err
	}
	s := sink.NewRedis(rdb, rc.Key, rc.MaxLen, time.Duration(rc.TTLSeconds)*time.Second)
	n, err := s.Publish(app.Ctx, g, rc.Blocks)
	if err != nil {
		return err
	}
	app.Log.Info("published blocks", "key", rc.Key, "blocks", n)
	return nil
}

type SelftestCmd struct {
	Draws int  `default:"10000" help:"Number of 64-bit draws"`
	Dump  bool `help:"Print metrics in Prometheus text format (default from config)"`
}

func (c *SelftestCmd) Run(app *App) error {
	start := time.Now()
	g, err := app.NewGenerator()
	if err != nil {
		return err
	}
	warmup := time.Since(start)

	buf := make([]byte, 8*c.Draws)
	start = time.Now()
	if err := g.TryFillBytes(buf); err != nil {
		return err
	}
	elapsed := time.Since(start)

	ones, longest := bitStats(buf)
	total := len(buf) * 8
	app.Log.Info("selftest",
		"draws", c.Draws,
		"warmup", warmup,
		"elapsed", elapsed,
		"ones_ratio", float64(ones)/float64(total),
		"longest_run", longest,
		"state", g.State())

	if c.Dump || app.Config.Metrics.Dump {
		if err := dumpMetrics(app); err != nil {
			return err
		}
	}
	if longest >= 64 {
		return fmt.Errorf("selftest: run of %d equal bits in output", longest)
	}
	return nil
}

// bitStats counts set bits and the longest run of equal bits in buf,
// read as little-endian 64-bit words.
func bitStats(buf []byte) (ones, longest int) {
	run, prev := 0, -1
	for i := 0; i+8 <= len(buf); i += 8 {
		w := binary.LittleEndian.Uint64(buf[i:])
		ones += bits.OnesCount64(w)
		for b := 0; b < 64; b++ {
			bit := int(w>>b) & 1
			if bit == prev {
				run++
			} else {
				prev, run = bit, 1
			}
			longest = max(longest, run)
		}
	}
	return ones, longest
}

func dumpMetrics(app *App) error {
	families, err := app.Registry.Gather()
	if err != nil {
		return fmt.Errorf("gather metrics: %w", err)
	}
	enc := expfmt.NewEncoder(os.Stdout, expfmt.NewFormat(expfmt.TypeTextPlain))
	for _, mf := range families {
		if err := enc.Encode(mf); err != nil {
			return fmt.Errorf("encode metrics: %w", err)
		}
	}
	return nil
}
