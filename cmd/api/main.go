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

	"booksvc/internal/auth"
	"booksvc/internal/book"
	"booksvc/internal/config"
	"booksvc/internal/platform/logger"
	"booksvc/internal/platform/metrics"
	"booksvc/internal/seed"
	"booksvc/internal/storage"

	"github.com/rs/zerolog"
)

const shutdownTimeout = 10 * time.Second

// developmentPassword is shared by the built-in users when USERS is unset.
const developmentPassword = "password"

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "booksvc: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	cfg, err := config.Load(args)
	if err != nil {
		return err
	}

	log, err := logger.New(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, err := storage.Open(ctx, cfg.Storage, log)
	if err != nil {
		return err
	}
	defer func() {
		if err := store.Close(); err != nil {
			log.Error().Err(err).Msg("closing storage")
		}
	}()

	m := metrics.New()
	repo := book.NewInstrumentedRepository(store.Repo, cfg.Profile, m, log)

	if cfg.Seed {
		if _, err := seed.Load(ctx, repo, log); err != nil {
			return err
		}
	}

	users, err := loadUsers(cfg, log)
	if err != nil {
		return err
	}
	authn := auth.NewService(cfg.JWTSecret, cfg.TokenTTL, users)

	handler, stopHandler := newHandler(cfg, repo, authn, m, log)
	defer stopHandler()

	httpServer := &http.Server{
		Addr:              cfg.Addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		log.Info().Str("addr", cfg.Addr).Str("profile", cfg.Profile).Msg("starting server")
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case err := <-serveErr:
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	log.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

func loadUsers(cfg config.Config, log zerolog.Logger) ([]auth.User, error) {
	if cfg.Users != "" {
		return auth.ParseUsers(cfg.Users)
	}
	log.Warn().Msg("USERS not set, falling back to built-in reader, writer and admin accounts")
	return auth.DevelopmentUsers(developmentPassword)
}
