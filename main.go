// Command jitterbug serves random bytes harvested from CPU timing jitter.
//
//	$ jitterbug stream | dieharder -g 200 -a
//	$ jitterbug push --blocks 256
//	$ jitterbug selftest --dump
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/alecthomas/kong"
	"github.com/prometheus/client_golang/prometheus"

	"GoJitterRNG/pkg/config"
	"GoJitterRNG/pkg/generator"
	"GoJitterRNG/pkg/logger"
)

var cli struct {
	Config   string      `short:"c" type:"path" env:"JITTERBUG_CONFIG" placeholder:"path" help:"YAML configuration file"`
	LogLevel string      `name:"log-level" placeholder:"level" help:"Override log level (debug, info, warn, error)"`
	Stream   StreamCmd   `cmd:"stream" help:"Write generator output to standard output"`
	Push     PushCmd     `cmd:"push" help:"Publish conditioned blocks to a redis list"`
	Selftest SelftestCmd `cmd:"selftest" help:"Construct a generator, draw from it and report health"`
}

// App is bound into every command's Run method.
type App struct {
	Ctx      context.Context
	Config   *config.Config
	Registry *prometheus.Registry
	Log      logger.Logger
}

// NewGenerator constructs a host generator wired to the app's logger and metrics.
func (a *App) NewGenerator() (*generator.Generator, error) {
	return generator.NewWithOptions(
		generator.WithLogger(a.Log),
		generator.WithMetrics(generator.NewMetrics(a.Registry)),
	)
}

func main() {
	kctx := kong.Parse(&cli,
		kong.Name("jitterbug"),
		kong.Description("Seedless random numbers from CPU timing jitter."),
		kong.UsageOnError(),
	)

	// --------------------
	// Load + validate config
	// --------------------

	cfg, err := config.Load(cli.Config)
	if err != nil {
		fail(err)
	}
	if cli.LogLevel != "" {
		cfg.Log.Level = cli.LogLevel
		config.Normalize(cfg)
	}
	if err := config.Validate(cfg); err != nil {
		fail(fmt.Errorf("config validation failed: %w", err))
	}

	log, err := logger.New(os.Stderr, cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		fail(err)
	}
	slog.SetDefault(log)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app := &App{
		Ctx:      logger.Insert(ctx, log),
		Config:   cfg,
		Registry: prometheus.NewRegistry(),
		Log:      log,
	}
	if err := kctx.Run(app); err != nil {
		stop()
		fail(err)
	}
}

func fail(message any) {
	fmt.Fprintln(os.Stderr, errorMessage(message))
	os.Exit(1)
}

// errorMessage keeps the message intact and adds an "Error: " prefix unless
// one is already there.
func errorMessage(message any) string {
	errmsg := fmt.Sprint(message)
	if !strings.HasPrefix(strings.ToLower(errmsg), "error") {
		errmsg = "Error: " + errmsg
	}
	return errmsg
}
