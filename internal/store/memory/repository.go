// Package memory implements book.Repository on process-local maps.
package memory

import (
	"cmp"
	"context"
	"fmt"
	"slices"
	"sync"

	"booksvc/internal/book"
	"booksvc/internal/sequence"
)

type storedBook struct {
	id       int64
	title    string
	year     int
	authorID int64
	content  *book.Content
}

type Repository struct {
	mu      sync.RWMutex
	seq     sequence.Generator
	authors map[int64]string
	books   map[int64]*storedBook
}

var _ book.Repository = (*Repository)(nil)

func New(seq sequence.Generator) *Repository {
	return &Repository{
		seq:     seq,
		authors: make(map[int64]string),
		books:   make(map[int64]*storedBook),
	}
}

func (r *Repository) Get(_ context.Context, id int64) (book.Book, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	sb, ok := r.books[id]
	if !ok {
		return book.Book{}, book.BookNotFound(id)
	}
	return r.toBook(sb), nil
}

func (r *Repository) Put(ctx context.Context, b book.Book) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var existing *storedBook
	if b.ID != nil {
		sb, ok := r.books[*b.ID]
		if !ok {
			return 0, book.BookNotFound(*b.ID)
		}
		existing = sb
	}

	var authorID int64
	if b.Author.ID == nil {
		id, err := r.seq.Next(ctx, sequence.Authors)
		if err != nil {
			return 0, err
		}
		authorID = id
	} else {
		if _, ok := r.authors[*b.Author.ID]; !ok {
			return 0, book.AuthorNotFound(*b.Author.ID)
		}
		authorID = *b.Author.ID
	}

	if existing == nil {
		id, err := r.seq.Next(ctx, sequence.Books)
		if err != nil {
			return 0, err
		}
		existing = &storedBook{id: id}
		r.books[id] = existing
	}
	r.authors[authorID] = b.Author.Name
	existing.title = b.Title
	existing.year = b.Year
	existing.authorID = authorID
	return existing.id, nil
}

func (r *Repository) TopBooks(_ context.Context, field book.Field, limit int) ([]book.Book, error) {
	var less func(a, b book.Book) int
	switch field {
	case book.FieldID:
		less = func(a, b book.Book) int { return 0 }
	case book.FieldTitle:
		less = func(a, b book.Book) int { return cmp.Compare(a.Title, b.Title) }
	case book.FieldYear:
		less = func(a, b book.Book) int { return cmp.Compare(a.Year, b.Year) }
	case book.FieldAuthor:
		less = func(a, b book.Book) int { return cmp.Compare(a.Author.Name, b.Author.Name) }
	default:
		return nil, fmt.Errorf("%w: %q", book.ErrInvalidField, field)
	}
	if limit < 1 {
		return nil, book.ErrInvalidLimit
	}

	r.mu.RLock()
	out := make([]book.Book, 0, len(r.books))
	for _, sb := range r.books {
		out = append(out, r.toBook(sb))
	}
	r.mu.RUnlock()

	slices.SortFunc(out, func(a, b book.Book) int {
		if c := less(a, b); c != 0 {
			return c
		}
		return cmp.Compare(*a.ID, *b.ID)
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r *Repository) BooksByAuthor(_ context.Context, name string) ([]book.Book, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []book.Book
	for _, sb := range r.books {
		if r.authors[sb.authorID] == name {
			out = append(out, r.toBook(sb))
		}
	}
	slices.SortFunc(out, func(a, b book.Book) int { return cmp.Compare(*a.ID, *b.ID) })
	return out, nil
}

func (r *Repository) GetContent(_ context.Context, id int64) (book.Content, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	sb, ok := r.books[id]
	if !ok || sb.content == nil {
		return book.Content{}, book.ContentNotFound(id)
	}
	c := sb.content.Clone()
	c.Size = int64(len(c.Data))
	return c, nil
}

func (r *Repository) PutContent(_ context.Context, c book.Content) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	sb, ok := r.books[c.ID]
	if !ok {
		return book.BookNotFound(c.ID)
	}
	stored := c.Clone()
	sb.content = &stored
	return nil
}

// toBook must be called with r.mu held.
func (r *Repository) toBook(sb *storedBook) book.Book {
	return book.Book{
		ID:    book.Int64(sb.id),
		Title: sb.title,
		Year:  sb.year,
		Author: book.Author{
			ID:   book.Int64(sb.authorID),
			Name: r.authors[sb.authorID],
		},
	}
}
