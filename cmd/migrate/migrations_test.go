package main

import (
	"testing"

	"booksvc/db"

	"github.com/pressly/goose/v3"
	"github.com/stretchr/testify/require"
)

func TestCollectMigrations_ParsesEmbeddedSet(t *testing.T) {
	goose.SetBaseFS(db.Migrations)
	t.Cleanup(func() { goose.SetBaseFS(nil) })

	migrations, err := goose.CollectMigrations(db.MigrationsDir, 0, goose.MaxVersion)
	require.NoError(t, err)
	require.NotEmpty(t, migrations)
}
