package ormstore

import (
	"context"
	"testing"

	"booksvc/db"
	"booksvc/internal/book"
	"booksvc/internal/store/storetest"
	"booksvc/internal/testutil"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func setupTestDB(t *testing.T) *gorm.DB {
	dsn := testutil.PostgresDSN(t)

	gdb, err := Open(dsn, zerolog.Nop())
	if err != nil {
		t.Skipf("Skipping test: cannot connect to test database: %v", err)
	}
	sqlDB, err := gdb.DB()
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlDB.Close() })
	if err := sqlDB.Ping(); err != nil {
		t.Skipf("Skipping test: cannot ping test database: %v", err)
	}
	require.NoError(t, db.Up(context.Background(), sqlDB))
	return gdb
}

func TestRepositoryContract(t *testing.T) {
	gdb := setupTestDB(t)
	reset := func(t *testing.T) {
		require.NoError(t, gdb.Exec(`TRUNCATE books, authors RESTART IDENTITY CASCADE`).Error)
	}

	t.Run("explicit", func(t *testing.T) {
		storetest.Run(t, func(t *testing.T) book.Repository {
			reset(t)
			return New(gdb)
		})
	})

	t.Run("cascade", func(t *testing.T) {
		storetest.Run(t, func(t *testing.T) book.Repository {
			reset(t)
			return New(gdb, WithCascade(true))
		})
	})
}
