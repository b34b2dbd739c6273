package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"

	"github.com/exceptionzofficial/testing-backend-akshaya/auth"
	"github.com/exceptionzofficial/testing-backend-akshaya/config"
	"github.com/exceptionzofficial/testing-backend-akshaya/events"
	"github.com/exceptionzofficial/testing-backend-akshaya/handlers"
	"github.com/exceptionzofficial/testing-backend-akshaya/logger"
	"github.com/exceptionzofficial/testing-backend-akshaya/notify"
	"github.com/exceptionzofficial/testing-backend-akshaya/routes"
	"github.com/exceptionzofficial/testing-backend-akshaya/service"
	"github.com/exceptionzofficial/testing-backend-akshaya/store"
	"github.com/exceptionzofficial/testing-backend-akshaya/throttle"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func main() {
	cfg := config.Load(".env")

	zlog, err := logger.New(cfg.App.Name, cfg.App.LogLevel, cfg.App.Development())
	if err != nil {
		log.Fatalf("failed to build logger: %v", err)
	}
	defer zlog.Sync()

	if !cfg.App.Development() {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, zlog); err != nil {
		zlog.Fatal("server exited with error", zap.Error(err))
	}
	zlog.Info("server exited")
}

// run wires the service and serves HTTP until ctx is cancelled. Every
// resource it opens is closed before it returns.
func run(ctx context.Context, cfg *config.Config, zlog *zap.Logger) error {
	st, err := store.Open(cfg.Database)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer st.Close()
	zlog.Info("database connected and migrated", zap.String("driver", cfg.Database.Driver))

	var guard throttle.LoginGuard = throttle.Noop{}
	if cfg.Redis.Addr != "" {
		client, err := throttle.NewRedisClient(ctx, cfg.Redis)
		if err != nil {
			return err
		}
		defer client.Close()
		guard = throttle.NewRedisGuard(client, cfg.Login)
		zlog.Info("login throttle enabled", zap.String("redis", cfg.Redis.Addr))
	}

	var publisher events.Publisher = events.Noop{}
	if cfg.NATS.URL != "" {
		np, err := events.NewNATSPublisher(cfg.NATS.URL, cfg.NATS.SubjectPrefix, zlog)
		if err != nil {
			return fmt.Errorf("connect to nats: %w", err)
		}
		defer np.Close()
		publisher = np
		zlog.Info("event publishing enabled", zap.String("nats", cfg.NATS.URL))
	}

	var notifier notify.Notifier = notify.NewNoop(zlog)
	if cfg.Push.ServerKey != "" {
		notifier = notify.NewFCMClient(cfg.Push, zlog)
	}

	issuer := auth.NewIssuer(cfg.JWT)
	ledger := service.NewOrderLedger(st, publisher, zlog)
	coord := service.NewCoordinator(st, ledger, notifier, publisher, cfg.Push.Timeout, zlog)
	// Let in-flight push notifications finish before the store and
	// connections close.
	defer coord.Wait()

	h := handlers.New(handlers.Deps{
		Registry:    service.NewRegistry(st, issuer, guard, publisher, zlog),
		Riders:      service.NewRiderDirectory(st, publisher, zlog),
		Orders:      ledger,
		Coordinator: coord,
		Catalog:     service.NewCatalog(st, zlog),
		DB:          st,
	}, zlog)

	r := gin.New()
	r.Use(gin.Recovery())

	// CORS middleware for frontend integration
	r.Use(func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, DELETE, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Origin, Content-Type, Authorization")
		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	})

	routes.SetupRoutes(r, h, issuer, zlog)

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	serveErr := make(chan error, 1)
	go func() {
		zlog.Info("server starting", zap.String("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case err := <-serveErr:
		return fmt.Errorf("serve: %w", err)
	case <-ctx.Done():
	}
	zlog.Info("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		zlog.Error("server forced to shutdown", zap.Error(err))
	}
	return nil
}
