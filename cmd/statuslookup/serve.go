package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"statuslookup/session"
	"statuslookup/web"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the lookup wizard over HTTP",
	RunE:  runServe,
}

func runServe(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	finder, cleanup, err := newFinder(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer cleanup()

	if cfg.Session.Secret == "" {
		logger.Warn("session.secret is empty; wizard cookies will not survive a restart")
	}
	codec, err := session.NewCodec(cfg.Session.Secret, cfg.Session.TTL)
	if err != nil {
		return err
	}

	limiter := web.NewRateLimiter(cfg.RateLimit.RPS, cfg.RateLimit.Burst, logger)
	srv := web.NewServer(web.Options{
		Finder:     newService(finder, cfg),
		Codec:      codec,
		Cookie:     web.CookieOptions{Name: cfg.Session.CookieName, Secure: cfg.Session.Secure},
		ReturnStep: returnStep(cfg),
		Support:    web.Support{Email: cfg.Support.Email, Phone: cfg.Support.Phone},
		Limiter:    limiter,
		Logger:     logger,
	})

	httpServer := &http.Server{
		Addr:         cfg.Server.Addr,
		Handler:      srv.Routes(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("http server listening", zap.String("addr", cfg.Server.Addr))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		limiter.Run(gctx, time.Minute)
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		logger.Info("http server shutting down")
		return httpServer.Shutdown(shutdownCtx)
	})

	return g.Wait()
}
