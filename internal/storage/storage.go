// Package storage opens the book repository selected by the configured profile.
package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"booksvc/internal/book"
	"booksvc/internal/config"
	"booksvc/internal/sequence"
	"booksvc/internal/store/boltstore"
	"booksvc/internal/store/memory"
	"booksvc/internal/store/mongostore"
	"booksvc/internal/store/ormstore"
	"booksvc/internal/store/postgres"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const connectTimeout = 5 * time.Second

// Storage is an opened repository together with whatever must be released on shutdown.
type Storage struct {
	Repo    book.Repository
	closers []func() error
}

func (s *Storage) onClose(fn func() error) {
	s.closers = append(s.closers, fn)
}

// Close releases resources in reverse order of acquisition.
func (s *Storage) Close() error {
	var errs []error
	for i := len(s.closers) - 1; i >= 0; i-- {
		errs = append(errs, s.closers[i]())
	}
	return errors.Join(errs...)
}

// Open connects to the backend named by cfg.Profile.
func Open(ctx context.Context, cfg config.Storage, log zerolog.Logger) (*Storage, error) {
	s := &Storage{}
	var err error
	switch cfg.Profile {
	case config.ProfilePostgres:
		err = s.openPostgres(ctx, cfg, log)
	case config.ProfileGorm, config.ProfileGormSession:
		err = s.openGorm(ctx, cfg, log)
	case config.ProfileMongo:
		err = s.openMongo(ctx, cfg, log)
	case config.ProfileBolt:
		err = s.openBolt(cfg, log)
	case config.ProfileMemory:
		s.Repo = memory.New(sequence.NewMemory())
	default:
		err = fmt.Errorf("unknown profile %q", cfg.Profile)
	}
	if err != nil {
		_ = s.Close()
		return nil, err
	}
	return s, nil
}

func (s *Storage) openPostgres(ctx context.Context, cfg config.Storage, log zerolog.Logger) error {
	pool, err := pgxpool.New(ctx, cfg.DBDSN)
	if err != nil {
		return fmt.Errorf("cannot create db pool: %w", err)
	}
	s.onClose(func() error { pool.Close(); return nil })

	pingCtx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()
	if err := pool.Ping(pingCtx); err != nil {
		return fmt.Errorf("cannot ping database (%s): %w", RedactDSN(cfg.DBDSN), err)
	}
	log.Info().Str("dsn", RedactDSN(cfg.DBDSN)).Msg("database connection OK")

	s.Repo = postgres.New(pool, cfg.DBTimeout)
	return nil
}

func (s *Storage) openGorm(ctx context.Context, cfg config.Storage, log zerolog.Logger) error {
	db, err := ormstore.Open(cfg.DBDSN, log)
	if err != nil {
		return err
	}
	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("gorm connection pool: %w", err)
	}
	s.onClose(sqlDB.Close)

	repo := ormstore.New(db, ormstore.WithCascade(cfg.Profile == config.ProfileGormSession))
	pingCtx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()
	if err := repo.Ping(pingCtx); err != nil {
		return fmt.Errorf("cannot ping database (%s): %w", RedactDSN(cfg.DBDSN), err)
	}
	log.Info().Str("dsn", RedactDSN(cfg.DBDSN)).Bool("cascade", cfg.Profile == config.ProfileGormSession).Msg("database connection OK")

	s.Repo = repo
	return nil
}

func (s *Storage) openMongo(ctx context.Context, cfg config.Storage, log zerolog.Logger) error {
	connectCtx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()

	client, err := mongo.Connect(connectCtx, options.Client().ApplyURI(cfg.MongoURI))
	if err != nil {
		return fmt.Errorf("cannot connect to mongo (%s): %w", RedactDSN(cfg.MongoURI), err)
	}
	s.onClose(func() error {
		ctx, cancel := context.WithTimeout(context.Background(), connectTimeout)
		defer cancel()
		return client.Disconnect(ctx)
	})

	var seq sequence.Generator
	switch cfg.SequenceBackend {
	case "redis":
		rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		s.onClose(rdb.Close)
		gen := sequence.NewRedis(rdb)
		if err := gen.Ping(connectCtx); err != nil {
			return fmt.Errorf("cannot ping redis at %s: %w", cfg.RedisAddr, err)
		}
		seq = gen
	default:
		seq = mongostore.NewSequence(client.Database(cfg.MongoDatabase))
	}

	repo := mongostore.New(client, cfg.MongoDatabase, seq, mongostore.WithTransactions(cfg.MongoTransactions))
	if err := repo.Ping(connectCtx); err != nil {
		return fmt.Errorf("cannot ping mongo (%s): %w", RedactDSN(cfg.MongoURI), err)
	}
	if err := repo.EnsureIndexes(connectCtx); err != nil {
		return err
	}
	log.Info().
		Str("uri", RedactDSN(cfg.MongoURI)).
		Str("database", cfg.MongoDatabase).
		Str("sequence", cfg.SequenceBackend).
		Bool("transactions", cfg.MongoTransactions).
		Msg("mongo connection OK")

	s.Repo = repo
	return nil
}

func (s *Storage) openBolt(cfg config.Storage, log zerolog.Logger) error {
	repo, err := boltstore.Open(cfg.BoltPath, boltstore.WithLogger(log))
	if err != nil {
		return err
	}
	s.onClose(repo.Close)
	log.Info().Str("path", cfg.BoltPath).Msg("bolt database opened")

	s.Repo = repo
	return nil
}

// RedactDSN hides the credentials part of a URL style connection string.
func RedactDSN(dsn string) string {
	const marker = "://"
	start := strings.Index(dsn, marker)
	if start < 0 {
		return dsn
	}
	start += len(marker)
	end := strings.Index(dsn[start:], "@")
	if end < 0 {
		return dsn
	}
	return dsn[:start] + "***" + dsn[start+end:]
}
