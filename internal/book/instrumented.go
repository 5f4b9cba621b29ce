package book

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"
)

// OpRecorder receives one observation per repository call.
type OpRecorder interface {
	ObserveRepositoryOp(backend, op, outcome string, d time.Duration)
}

// InstrumentedRepository wraps a Repository with debug logging and metrics.
type InstrumentedRepository struct {
	repo    Repository
	backend string
	rec     OpRecorder
	log     zerolog.Logger
}

var _ Repository = (*InstrumentedRepository)(nil)

// NewInstrumentedRepository creates a new instrumented repository wrapper.
// rec may be nil when metrics are not wanted.
func NewInstrumentedRepository(repo Repository, backend string, rec OpRecorder, log zerolog.Logger) *InstrumentedRepository {
	return &InstrumentedRepository{
		repo:    repo,
		backend: backend,
		rec:     rec,
		log:     log.With().Str("component", "repository").Str("backend", backend).Logger(),
	}
}

// Unwrap returns the decorated repository.
func (ir *InstrumentedRepository) Unwrap() Repository {
	return ir.repo
}

func (ir *InstrumentedRepository) Get(ctx context.Context, id int64) (Book, error) {
	start := time.Now()
	b, err := ir.repo.Get(ctx, id)
	ir.observe("get", start, err, func(e *zerolog.Event) { e.Int64("id", id) })
	return b, err
}

func (ir *InstrumentedRepository) Put(ctx context.Context, b Book) (int64, error) {
	start := time.Now()
	id, err := ir.repo.Put(ctx, b)
	ir.observe("put", start, err, func(e *zerolog.Event) {
		e.Bool("insert", b.ID == nil).Int64("id", id)
	})
	return id, err
}

func (ir *InstrumentedRepository) TopBooks(ctx context.Context, field Field, limit int) ([]Book, error) {
	start := time.Now()
	books, err := ir.repo.TopBooks(ctx, field, limit)
	ir.observe("top_books", start, err, func(e *zerolog.Event) {
		e.Str("field", string(field)).Int("limit", limit).Int("results", len(books))
	})
	return books, err
}

func (ir *InstrumentedRepository) BooksByAuthor(ctx context.Context, name string) ([]Book, error) {
	start := time.Now()
	books, err := ir.repo.BooksByAuthor(ctx, name)
	ir.observe("books_by_author", start, err, func(e *zerolog.Event) {
		e.Str("author", name).Int("results", len(books))
	})
	return books, err
}

func (ir *InstrumentedRepository) GetContent(ctx context.Context, id int64) (Content, error) {
	start := time.Now()
	c, err := ir.repo.GetContent(ctx, id)
	ir.observe("get_content", start, err, func(e *zerolog.Event) {
		e.Int64("id", id).Int("bytes", len(c.Data))
	})
	return c, err
}

func (ir *InstrumentedRepository) PutContent(ctx context.Context, c Content) error {
	start := time.Now()
	err := ir.repo.PutContent(ctx, c)
	ir.observe("put_content", start, err, func(e *zerolog.Event) {
		e.Int64("id", c.ID).Int("bytes", len(c.Data))
	})
	return err
}

// Ping forwards to the wrapped repository when it supports health checks.
func (ir *InstrumentedRepository) Ping(ctx context.Context) error {
	if p, ok := ir.repo.(Pinger); ok {
		return p.Ping(ctx)
	}
	return nil
}

func (ir *InstrumentedRepository) observe(op string, start time.Time, err error, fields func(*zerolog.Event)) {
	d := time.Since(start)
	outcome := outcomeFromError(err)
	if ir.rec != nil {
		ir.rec.ObserveRepositoryOp(ir.backend, op, outcome, d)
	}

	ev := ir.log.Debug()
	if outcome == "error" {
		ev = ir.log.Warn().Err(err)
	}
	if ev.Enabled() {
		fields(ev)
	}
	ev.Str("op", op).Str("outcome", outcome).Dur("duration", d).Msg("repository call")
}

func outcomeFromError(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, ErrNotFound):
		return "not_found"
	default:
		return "error"
	}
}
