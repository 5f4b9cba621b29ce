package book

import (
	"context"
)

// Repository defines the contract for book data storage. Every backend
// returns detached copies; mutating a returned value never touches the store.
//
//go:generate mockgen -source=ports.go -destination=mock_repository_test.go -package=book
type Repository interface {
	// Get returns the book with the given id or ErrBookNotFound.
	Get(ctx context.Context, id int64) (Book, error)
	// Put inserts the book when it has no id, otherwise updates the existing one,
	// and returns its id. The author is created or renamed along the way.
	Put(ctx context.Context, b Book) (int64, error)
	// TopBooks returns at most limit books sorted ascending by field.
	TopBooks(ctx context.Context, field Field, limit int) ([]Book, error)
	// BooksByAuthor returns every book whose author's name equals name exactly.
	BooksByAuthor(ctx context.Context, name string) ([]Book, error)
	// GetContent returns the stored file of a book or ErrContentNotFound.
	GetContent(ctx context.Context, id int64) (Content, error)
	// PutContent replaces the stored file of an existing book.
	PutContent(ctx context.Context, c Content) error
}

// Pinger is implemented by backends that can report connectivity for /readyz.
type Pinger interface {
	Ping(ctx context.Context) error
}
