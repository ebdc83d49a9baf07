package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/patrickwarner/nativeads/internal/api"
	"github.com/patrickwarner/nativeads/internal/config"
	"github.com/patrickwarner/nativeads/internal/db"
	"github.com/patrickwarner/nativeads/internal/macros"
	"github.com/patrickwarner/nativeads/internal/nativead"
	"github.com/patrickwarner/nativeads/internal/observability"
	"github.com/patrickwarner/nativeads/internal/pixel"
	"github.com/patrickwarner/nativeads/internal/ratelimit"
	"github.com/patrickwarner/nativeads/internal/redirect"
	"github.com/patrickwarner/nativeads/internal/remoteconfig"
	"github.com/patrickwarner/nativeads/internal/screen"
	"github.com/patrickwarner/nativeads/internal/uiexec"
	"github.com/patrickwarner/nativeads/internal/viewsim"
)

func main() {
	cfg := config.Load()

	logger, err := observability.InitLoggerWithService(cfg.ServiceName)
	if err != nil {
		fmt.Fprintf(os.Stderr, "init logger: %v\n", err)
		os.Exit(1)
	}

	defer func() {
		if err := logger.Sync(); err != nil {
			fmt.Fprintf(os.Stderr, "failed to sync logger: %v\n", err)
		}
	}()

	if err := run(logger, cfg); err != nil {
		logger.Error("server error", zap.Error(err))
		os.Exit(1)
	}
}

func run(logger *zap.Logger, cfg config.Config) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.TracingEnabled {
		shutdown, err := observability.InitTracing(ctx, logger, cfg.ServiceName, cfg.TempoEndpoint, cfg.TracingSampleRate)
		if err != nil {
			return fmt.Errorf("init tracing: %w", err)
		}
		defer shutdown()
	}

	store, err := db.InitRedis(ctx, cfg.RedisAddr)
	if err != nil {
		return fmt.Errorf("failed to connect redis: %w", err)
	}
	defer store.Close()

	metricsRegistry := observability.NewPrometheusRegistry()

	firer := pixel.NewFirer(cfg.PixelTimeout, cfg.PixelWorkers, cfg.PixelQueueSize, logger, metricsRegistry)
	defer firer.Close()

	ui := uiexec.NewQueue(cfg.UIQueueSize, logger, metricsRegistry)
	defer ui.Close()

	navigations := redirect.NewNavigationLog(cfg.NavigationLogSize)
	surface := viewsim.NewSurface()
	screens := screen.NewTracker()

	expander := macros.NewExpander(logger)
	macroBase := macros.Context{PublisherID: cfg.PublisherID, AppID: cfg.AppID, SDKVersion: cfg.SDKVersion}

	mapper, err := nativead.NewMapper(nativead.Dependencies{
		Visibility: surface.Visibility(),
		Clicks:     surface.Clicks(),
		Redirector: macros.NewRedirector(redirect.New(navigations, cfg.RedirectTimeout, logger), expander, macroBase),
		Screens:    screens,
		Pixels:     macros.NewPixelFirer(firer, expander, macroBase),
		UI:         ui,
	}, logger, metricsRegistry)
	if err != nil {
		return fmt.Errorf("create mapper: %w", err)
	}

	var remote *remoteconfig.Client
	if cfg.RemoteConfigURL != "" {
		remote = remoteconfig.NewClient(
			cfg.RemoteConfigURL,
			cfg.PublisherID,
			cfg.AppID,
			cfg.SDKVersion,
			cfg.RemoteConfigTimeout,
			cfg.RemoteConfigCacheTTL,
			store,
			logger,
			metricsRegistry,
		)
		if _, err := remote.Fetch(ctx); err != nil {
			logger.Warn("initial remote config fetch failed", zap.Error(err))
		}
		if cfg.RemoteConfigRefresh > 0 {
			go remote.Refresh(ctx, cfg.RemoteConfigRefresh)
		}
		logger.Info("remote config enabled",
			zap.String("url", cfg.RemoteConfigURL),
			zap.Duration("refresh", cfg.RemoteConfigRefresh))
	}

	srvDeps := api.NewServer(logger, mapper, surface, screens, store, remote, navigations, metricsRegistry)
	if cfg.RateLimitEnabled {
		limiter := ratelimit.NewClientLimiter(ratelimit.Config{
			Capacity:   cfg.RateLimitCapacity,
			RefillRate: cfg.RateLimitRefillRate,
			Enabled:    true,
		}, metricsRegistry)
		srvDeps.Limiter = limiter
		go func() {
			ticker := time.NewTicker(time.Minute)
			defer ticker.Stop()
			for {
				select {
				case <-ticker.C:
					if n := limiter.Prune(10 * time.Minute); n > 0 {
						logger.Debug("pruned idle rate limit buckets", zap.Int("clients", n))
					}
				case <-ctx.Done():
					return
				}
			}
		}()
	}

	addr := ":" + cfg.Port
	srv := &http.Server{
		Addr:         addr,
		Handler:      srvDeps.Router(),
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}

	logger.Info("Native ad harness running", zap.String("addr", addr))

	errCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- fmt.Errorf("listen: %w", err)
		}
	}()

	select {
	case <-ctx.Done():
	case err := <-errCh:
		if err != nil {
			return err
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}
	ui.Close()
	srvDeps.Close()

	return nil
}
