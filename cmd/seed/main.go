package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"booksvc/internal/config"
	"booksvc/internal/platform/logger"
	"booksvc/internal/seed"
	"booksvc/internal/storage"

	"github.com/alecthomas/kong"
)

type cli struct {
	config.Storage `embed:""`
	config.Logging `embed:""`
}

func main() {
	config.LoadEnvFiles()

	var c cli
	kong.Parse(&c,
		kong.Name("seed"),
		kong.Description("Insert the sample catalogue into an empty repository."),
	)
	if err := run(c); err != nil {
		fmt.Fprintf(os.Stderr, "seed: %v\n", err)
		os.Exit(1)
	}
}

func run(c cli) error {
	log, err := logger.New(c.LogLevel, c.LogFormat)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, err := storage.Open(ctx, c.Storage, log)
	if err != nil {
		return err
	}
	defer store.Close()

	n, err := seed.Load(ctx, store.Repo, log)
	if err != nil {
		return err
	}
	log.Info().Str("profile", c.Profile).Int("books", n).Msg("seed finished")
	return nil
}
