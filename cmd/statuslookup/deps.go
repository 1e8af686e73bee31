package main

import (
	"context"
	"fmt"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"

	"statuslookup/application"
	"statuslookup/config"
	"statuslookup/db"
	"statuslookup/wizard"
)

// newFinder builds the configured data source, optionally behind the redis
// cache. The returned cleanup releases every connection it opened.
func newFinder(ctx context.Context, cfg config.Config, logger *zap.Logger) (application.Finder, func(), error) {
	var (
		finder   application.Finder
		closers  []func()
		cleanup = func() {
			for i := len(closers) - 1; i >= 0; i-- {
				closers[i]()
			}
		}
	)

	switch cfg.Lookup.Source {
	case config.SourcePostgres:
		pool, err := db.NewPool(ctx, cfg.Database.URL, db.PoolOptions{MaxConns: cfg.Database.MaxConns})
		if err != nil {
			return nil, nil, fmt.Errorf("bootstrap database pool: %w", err)
		}
		closers = append(closers, pool.Close)
		finder = application.NewRepository(pool)
	default:
		finder = application.NewStaticRepository()
	}

	if cfg.Redis.Addr != "" {
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		closers = append(closers, func() { _ = client.Close() })
		if err := client.Ping(ctx).Err(); err != nil {
			logger.Warn("redis unreachable; lookups will bypass the cache", zap.String("addr", cfg.Redis.Addr), zap.Error(err))
		}
		finder = application.NewCachedRepository(finder, client, cfg.Redis.TTL, logger)
	}

	logger.Info("lookup source ready",
		zap.String("source", cfg.Lookup.Source),
		zap.Bool("cache", cfg.Redis.Addr != ""),
	)
	return finder, cleanup, nil
}

// newService wraps the finder with the simulated delay.
func newService(finder application.Finder, cfg config.Config) *application.Service {
	return application.NewService(finder).WithDelay(cfg.Lookup.Delay)
}

func returnStep(cfg config.Config) wizard.Step {
	if cfg.Lookup.ReturnStep == "enter_id" {
		return wizard.EnterID
	}
	return wizard.Welcome
}
