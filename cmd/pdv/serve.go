package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"golang.org/x/sync/errgroup"

	"pdv/internal/cache"
	"pdv/internal/cli"
	apphttp "pdv/internal/http"
	"pdv/internal/log"
	"pdv/internal/session"
)

func serve(ctx context.Context, flags *rootFlags) error {
	cfg, err := flags.loadConfig()
	if err != nil {
		return err
	}
	logger := cli.SetupLogger(cfg)

	loc, err := cfg.Location()
	if err != nil {
		return fmt.Errorf("load timezone: %w", err)
	}

	newLedger, err := cli.NewLedgerFactory(cfg.LedgerBackend)
	if err != nil {
		return err
	}

	store := session.NewStore(session.StoreConfig{
		TTL:      cfg.SessionTTL,
		MaxSize:  cfg.SessionMax,
		Location: loc,
	}, newLedger, logger)
	defer store.Close()

	cacheManager := cache.NewManager(logger.WithComponent(log.ComponentCache).Logger)
	cacheManager.Register(store.Cleaner())
	cacheManager.StartCleanup(cfg.SessionCleanupInterval)
	defer cacheManager.Stop()

	srv := apphttp.NewServer(":"+cfg.Port, store, apphttp.Options{
		StoreName:          cfg.StoreName,
		Products:           cfg.Products,
		SessionTTL:         cfg.SessionTTL,
		RateLimitPerMinute: cfg.RateLimitPerMinute,
	}, logger)

	srv.ReadTimeout = 10 * time.Second
	srv.WriteTimeout = 10 * time.Second
	srv.IdleTimeout = 60 * time.Second
	srv.MaxHeaderBytes = 1 << 16 // 64KB

	ctx, cancel := cli.SignalContext(ctx, logger)
	defer cancel()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("Starting pdv server",
			"port", cfg.Port,
			log.FieldBackend, cfg.LedgerBackend,
			"timezone", loc.String(),
			log.FieldOperation, log.OpStartup)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("listen on :%s: %w", cfg.Port, err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer shutdownCancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server shutdown: %w", err)
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		logger.Error("Server stopped with error", log.FieldError, err)
		return err
	}
	logger.Info("Server stopped gracefully", log.FieldOperation, log.OpShutdown)
	return nil
}
