package testutil

import (
	"context"
	"os"
	"testing"

	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/mongodb"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
)

// PostgresDSN returns a DSN for an empty database. TEST_DB_DSN wins; otherwise a
// throwaway container is started. The test is skipped when neither is available.
func PostgresDSN(t *testing.T) string {
	t.Helper()
	if testing.Short() {
		t.Skip("Skipping postgres integration test in short mode")
	}
	if dsn := os.Getenv("TEST_DB_DSN"); dsn != "" {
		return dsn
	}

	defer func() {
		if r := recover(); r != nil {
			t.Skipf("Docker daemon not available, skipping: %v", r)
		}
	}()

	ctx := context.Background()
	container, err := postgres.Run(ctx,
		"postgres:16-alpine",
		postgres.WithDatabase("booksvc_test"),
		postgres.WithUsername("postgres"),
		postgres.WithPassword("postgres"),
		postgres.BasicWaitStrategies(),
	)
	if err != nil {
		t.Skipf("Failed to start postgres container (Docker not available?): %v", err)
	}
	t.Cleanup(func() {
		if err := testcontainers.TerminateContainer(container); err != nil {
			t.Logf("Failed to terminate postgres container: %v", err)
		}
	})

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		t.Fatalf("Failed to get postgres connection string: %v", err)
	}
	return dsn
}

// MongoURI returns a URI for a single node replica set so multi-document
// transactions work. TEST_MONGO_URI wins; otherwise a container is started.
func MongoURI(t *testing.T) string {
	t.Helper()
	if testing.Short() {
		t.Skip("Skipping mongo integration test in short mode")
	}
	if uri := os.Getenv("TEST_MONGO_URI"); uri != "" {
		return uri
	}

	defer func() {
		if r := recover(); r != nil {
			t.Skipf("Docker daemon not available, skipping: %v", r)
		}
	}()

	ctx := context.Background()
	container, err := mongodb.Run(ctx, "mongo:7", mongodb.WithReplicaSet("rs0"))
	if err != nil {
		t.Skipf("Failed to start mongo container (Docker not available?): %v", err)
	}
	t.Cleanup(func() {
		if err := testcontainers.TerminateContainer(container); err != nil {
			t.Logf("Failed to terminate mongo container: %v", err)
		}
	})

	uri, err := container.ConnectionString(ctx)
	if err != nil {
		t.Fatalf("Failed to get mongo connection string: %v", err)
	}
	return uri
}
