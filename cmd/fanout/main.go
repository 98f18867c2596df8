// Command fanout drives a broadcast queue with concurrent publishers,
// subscribers and removers. It is configured entirely from the environment
// (and an optional .env file).
//
//	FANOUT_MODE=single|churn|infinite
//	FANOUT_PUBLISHERS, FANOUT_SUBSCRIBERS, FANOUT_PUBLICATIONS
//	BROADCAST_CAPACITY, BROADCAST_BUCKETS
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dmitrymomot/fanout/core/config"
	"github.com/dmitrymomot/fanout/core/logger"
	"github.com/dmitrymomot/fanout/pkg/broadcast"
)

// Config holds the demo settings.
type Config struct {
	Mode         string        `env:"FANOUT_MODE" envDefault:"single"`
	Publishers   int           `env:"FANOUT_PUBLISHERS" envDefault:"4"`
	Subscribers  int           `env:"FANOUT_SUBSCRIBERS" envDefault:"16"`
	Publications int           `env:"FANOUT_PUBLICATIONS" envDefault:"16"`
	Removers     int           `env:"FANOUT_REMOVERS" envDefault:"1"`
	Resizes      int           `env:"FANOUT_RESIZES" envDefault:"4"`
	ResizeEvery  time.Duration `env:"FANOUT_RESIZE_EVERY" envDefault:"1s"`
	Duration     time.Duration `env:"FANOUT_DURATION" envDefault:"5s"`
	Debug        bool          `env:"FANOUT_DEBUG" envDefault:"false"`
	JSON         bool          `env:"FANOUT_LOG_JSON" envDefault:"false"`
}

// Validate rejects counts the scenarios cannot run with.
func (c Config) Validate() error {
	switch {
	case c.Publishers <= 0:
		return fmt.Errorf("FANOUT_PUBLISHERS must be positive, got %d", c.Publishers)
	case c.Publications <= 0:
		return fmt.Errorf("FANOUT_PUBLICATIONS must be positive, got %d", c.Publications)
	case c.Subscribers < 0:
		return fmt.Errorf("FANOUT_SUBSCRIBERS must not be negative, got %d", c.Subscribers)
	case c.Removers < 0:
		return fmt.Errorf("FANOUT_REMOVERS must not be negative, got %d", c.Removers)
	case c.Resizes < 0:
		return fmt.Errorf("FANOUT_RESIZES must not be negative, got %d", c.Resizes)
	}
	if _, ok := scenarios[c.Mode]; !ok {
		return fmt.Errorf("unknown FANOUT_MODE %q", c.Mode)
	}
	return nil
}

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run() error {
	var cfg Config
	if err := config.Load(&cfg); err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	var qcfg broadcast.Config
	if err := config.Load(&qcfg); err != nil {
		return err
	}

	opts := []logger.Option{
		logger.WithOutput(os.Stderr),
		logger.WithAttr(logger.Component("fanout")),
	}
	if cfg.Debug {
		opts = append(opts, logger.WithLevel(slog.LevelDebug))
	}
	if cfg.JSON {
		opts = append(opts, logger.WithJSONFormatter())
	}
	log := logger.New(opts...)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	q, err := broadcast.NewFromConfig[Token, *int](qcfg, broadcast.WithLogger(log))
	if err != nil {
		return err
	}

	start := time.Now()
	log.Info("starting", slog.String("mode", cfg.Mode), logger.Capacity(qcfg.Capacity))
	err = scenarios[cfg.Mode](ctx, q, cfg, log)

	// Scenarios destroy the queue themselves unless they bail out early.
	closeErr := q.Destroy()
	if errors.Is(closeErr, broadcast.ErrAlreadyDestroyed) {
		closeErr = nil
	}

	st := q.Stats()
	log.Info("finished",
		slog.String("mode", cfg.Mode),
		logger.Elapsed(start),
		slog.Int64("published", st.Published),
		slog.Int64("delivered", st.Delivered),
		slog.Int64("dropped", st.Dropped),
		slog.Int64("removed", st.Removed),
		slog.Int64("evicted", st.Evicted),
		logger.Errors(err, closeErr),
	)
	return errors.Join(err, closeErr)
}
