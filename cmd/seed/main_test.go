package main

import (
	"context"
	"path/filepath"
	"testing"

	"booksvc/internal/book"
	"booksvc/internal/config"
	"booksvc/internal/seed"
	"booksvc/internal/storage"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRun_SeedsBoltFileOnce(t *testing.T) {
	c := cli{
		Storage: config.Storage{Profile: config.ProfileBolt, BoltPath: filepath.Join(t.TempDir(), "seed.db")},
		Logging: config.Logging{LogLevel: "error", LogFormat: "json"},
	}

	require.NoError(t, run(c))
	require.NoError(t, run(c))

	store, err := storage.Open(context.Background(), c.Storage, zerolog.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	want := 0
	for _, g := range seed.Catalogue {
		want += len(g.Books)
	}
	all, err := store.Repo.TopBooks(context.Background(), book.FieldID, 1000)
	require.NoError(t, err)
	assert.Len(t, all, want)
}
