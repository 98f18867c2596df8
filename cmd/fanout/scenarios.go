package main

import (
	"context"
	"errors"
	"log/slog"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/dmitrymomot/fanout/core/logger"
	"github.com/dmitrymomot/fanout/pkg/broadcast"
)

// Token identifies a subscriber goroutine.
type Token = uuid.UUID

type queue = broadcast.Queue[Token, *int]

type scenarioFunc func(ctx context.Context, q *queue, cfg Config, log *slog.Logger) error

var scenarios = map[string]scenarioFunc{
	"single":   runSingle,
	"churn":    runChurn,
	"infinite": runInfinite,
}

// values allocates the payloads. Publishers send pointers, so Remove works
// on identity exactly like the queue sees it.
func values(n int) []*int {
	arr := make([]*int, n)
	for i := range arr {
		v := i
		arr[i] = &v
	}
	return arr
}

// runSingle waits for every subscriber to join, then each publisher sends
// its share once. Every subscriber must receive every message.
func runSingle(ctx context.Context, q *queue, cfg Config, log *slog.Logger) error {
	defer q.Destroy()

	total := cfg.Publishers * cfg.Publications
	arr := values(total)

	var joined sync.WaitGroup
	joined.Add(cfg.Subscribers)
	ready := make(chan struct{})
	go func() {
		joined.Wait()
		close(ready)
	}()

	g, ctx := errgroup.WithContext(ctx)
	for id := range cfg.Subscribers {
		g.Go(func() error {
			token := uuid.New()
			if err := q.Subscribe(token); err != nil {
				joined.Done()
				return err
			}
			joined.Done()

			for n := range total {
				v, err := q.Get(ctx, token)
				if err != nil {
					return err
				}
				log.Debug("got", logger.Worker("subscriber", id), slog.Int("value", *v), slog.Int("n", n))
			}
			return q.Unsubscribe(token)
		})
	}
	for id := range cfg.Publishers {
		g.Go(func() error {
			select {
			case <-ready:
			case <-ctx.Done():
				return ctx.Err()
			}
			for i := range cfg.Publications {
				v := arr[i*cfg.Publishers+id]
				if err := q.Put(ctx, v); err != nil {
					return err
				}
				log.Debug("put", logger.Worker("publisher", id), slog.Int("value", *v))
			}
			return nil
		})
	}
	return g.Wait()
}

// runChurn publishes forever while removing random messages and shrinking
// capacity, and subscribers leave and rejoin on every 16th value. The main
// goroutine doubles the bucket count a few times and then destroys the
// queue, which releases everybody.
func runChurn(ctx context.Context, q *queue, cfg Config, log *slog.Logger) error {
	total := cfg.Publishers * cfg.Publications
	arr := values(total)

	var g errgroup.Group
	for id := range cfg.Publishers {
		g.Go(func() error {
			rng := rand.New(rand.NewPCG(uint64(id), uint64(id)+1))
			for i := 0; ; {
				i = (i + 1) % cfg.Publications
				if err := q.Put(ctx, arr[i*cfg.Publishers+id]); err != nil {
					return stopped(err)
				}
				if i != 0 {
					continue
				}

				n := rng.IntN(total)
				if err := q.Remove(arr[n]); err != nil && !errors.Is(err, broadcast.ErrNotFound) {
					return stopped(err)
				}
				if n%16 == 0 {
					if err := q.SetSize(n + 1); err != nil {
						return stopped(err)
					}
				}
			}
		})
	}
	for id := range cfg.Subscribers {
		g.Go(func() error {
			return subscribe(ctx, q, id, true, log)
		})
	}

	buckets := q.Stats().Buckets
	for range cfg.Resizes {
		if !sleep(ctx, cfg.ResizeEvery) {
			break
		}
		buckets *= 2
		if err := q.SetBuckets(buckets); err != nil {
			return err
		}
		log.Info("registry resized", logger.Buckets(buckets))
	}

	if err := q.Destroy(); err != nil {
		return err
	}
	return g.Wait()
}

// runInfinite keeps publishers, subscribers and sequential removers busy
// until the configured duration elapses or the process is interrupted.
func runInfinite(ctx context.Context, q *queue, cfg Config, log *slog.Logger) error {
	total := cfg.Publishers * cfg.Publications
	arr := values(total)

	var g errgroup.Group
	for id := range cfg.Publishers {
		g.Go(func() error {
			for i := 0; ; {
				i = (i + 1) % cfg.Publications
				if err := q.Put(ctx, arr[i*cfg.Publishers+id]); err != nil {
					return stopped(err)
				}
			}
		})
	}
	for id := range cfg.Subscribers {
		g.Go(func() error {
			return subscribe(ctx, q, id, false, log)
		})
	}
	for id := range cfg.Removers {
		g.Go(func() error {
			for i := 0; ; {
				i = (i + 1) % total
				err := q.Remove(arr[i])
				switch {
				case err == nil:
					log.Debug("removed", logger.Worker("remover", id), slog.Int("value", *arr[i]))
				case !errors.Is(err, broadcast.ErrNotFound):
					return stopped(err)
				}
				if ctx.Err() != nil {
					return nil
				}
			}
		})
	}

	sleep(ctx, cfg.Duration)
	if err := q.Destroy(); err != nil {
		return err
	}
	return g.Wait()
}

// subscribe reads until the queue is destroyed. With rejoin set, the
// subscriber leaves and rejoins after every value divisible by 16.
func subscribe(ctx context.Context, q *queue, id int, rejoin bool, log *slog.Logger) error {
	token := uuid.New()
	if err := q.Subscribe(token); err != nil {
		return stopped(err)
	}
	for {
		v, err := q.Get(ctx, token)
		if err != nil {
			return stopped(err)
		}
		if rejoin && *v%16 == 0 {
			if err := q.Unsubscribe(token); err != nil {
				return stopped(err)
			}
			if err := q.Subscribe(token); err != nil {
				return stopped(err)
			}
		}
		n, err := q.Available(token)
		if err != nil {
			return stopped(err)
		}
		log.Debug("got", logger.Worker("subscriber", id), slog.Int("value", *v), slog.Int("available", n))
	}
}

// stopped treats queue teardown and cancellation as a clean exit.
func stopped(err error) error {
	switch {
	case errors.Is(err, broadcast.ErrDestroyed),
		errors.Is(err, context.Canceled),
		errors.Is(err, context.DeadlineExceeded):
		return nil
	}
	return err
}

func sleep(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return true
	case <-ctx.Done():
		return false
	}
}
