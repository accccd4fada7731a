package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"eets/internal/auth"
	"eets/internal/config"
	"eets/internal/handlers"
	"eets/internal/logger"
	"eets/internal/storage"
	"eets/internal/tracker"

	"golang.org/x/sync/errgroup"
)

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	cfg, err := config.Load(args)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	if err := logger.Init(cfg.LogLevel); err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer logger.Sync()

	db, err := storage.NewDB(cfg.DBPath)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	svc := tracker.NewService(db)
	if err := seedAdmin(ctx, db, svc, cfg); err != nil {
		return err
	}

	secret := cfg.TokenSecret
	if secret == "" {
		if secret, err = auth.GenerateSecret(); err != nil {
			return fmt.Errorf("generate token secret: %w", err)
		}
		logger.Log.Warn("TOKEN_SECRET not set, using a random secret; logins will not survive a restart")
	}

	h := handlers.NewHandlers(svc, auth.NewIssuer([]byte(secret), cfg.TokenTTL), cfg.TemplateDir, cfg.SecureCookie)
	srv := setupServer(cfg.RunAddr, h)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Log.Infow("starting server", "addr", cfg.RunAddr, "db", cfg.DBPath)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Log.Info("shutting down server")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		return fmt.Errorf("server: %w", err)
	}
	logger.Log.Info("server stopped")
	return nil
}

func setupServer(addr string, h *handlers.Handlers) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           handlers.NewRouter(h),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      10 * time.Second,
		IdleTimeout:       60 * time.Second,
		MaxHeaderBytes:    1 << 16,
	}
}

// seedAdmin registers the configured admin employee when the store is empty.
func seedAdmin(ctx context.Context, db *storage.DB, svc *tracker.Service, cfg *config.Config) error {
	if cfg.AdminEmployeeID == "" {
		return nil
	}

	count, err := db.UserCount(ctx)
	if err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	if err := svc.Register(ctx, cfg.AdminEmployeeID, cfg.AdminPassword); err != nil {
		return fmt.Errorf("register admin %s: %w", cfg.AdminEmployeeID, err)
	}
	logger.Log.Infow("registered admin employee", "employee_id", cfg.AdminEmployeeID)
	return nil
}
