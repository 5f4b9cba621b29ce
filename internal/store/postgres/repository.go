// Package postgres implements book.Repository with hand written SQL over pgx.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"booksvc/internal/book"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const selectBooks = `
	SELECT b.id, b.title, b.year, a.id, a.name
	FROM books b
	JOIN authors a ON a.id = b.author_id`

var sortColumns = map[book.Field]string{
	book.FieldID:     "b.id",
	book.FieldTitle:  "b.title",
	book.FieldYear:   "b.year",
	book.FieldAuthor: "a.name",
}

type Repository struct {
	db      *pgxpool.Pool
	timeout time.Duration
}

var _ book.Repository = (*Repository)(nil)

func New(db *pgxpool.Pool, timeout time.Duration) *Repository {
	return &Repository{db: db, timeout: timeout}
}

func (r *Repository) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if r.timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, r.timeout)
}

func (r *Repository) Get(ctx context.Context, id int64) (book.Book, error) {
	timeoutCtx, cancel := r.withTimeout(ctx)
	defer cancel()

	b, err := scanBook(r.db.QueryRow(timeoutCtx, selectBooks+" WHERE b.id = $1", id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return book.Book{}, book.BookNotFound(id)
		}
		return book.Book{}, err
	}
	return b, nil
}

func (r *Repository) Put(ctx context.Context, b book.Book) (int64, error) {
	timeoutCtx, cancel := r.withTimeout(ctx)
	defer cancel()

	var id int64
	err := pgx.BeginFunc(timeoutCtx, r.db, func(tx pgx.Tx) error {
		if b.ID != nil {
			var exists bool
			err := tx.QueryRow(timeoutCtx, `SELECT EXISTS (SELECT 1 FROM books WHERE id = $1)`, *b.ID).Scan(&exists)
			if err != nil {
				return err
			}
			if !exists {
				return book.BookNotFound(*b.ID)
			}
		}

		authorID, err := putAuthor(timeoutCtx, tx, b.Author)
		if err != nil {
			return err
		}

		if b.ID == nil {
			return tx.QueryRow(timeoutCtx,
				`INSERT INTO books (title, year, author_id) VALUES ($1, $2, $3) RETURNING id`,
				b.Title, b.Year, authorID,
			).Scan(&id)
		}

		_, err = tx.Exec(timeoutCtx,
			`UPDATE books SET title = $1, year = $2, author_id = $3 WHERE id = $4`,
			b.Title, b.Year, authorID, *b.ID,
		)
		id = *b.ID
		return err
	})
	if err != nil {
		return 0, err
	}
	return id, nil
}

func putAuthor(ctx context.Context, tx pgx.Tx, a book.Author) (int64, error) {
	if a.ID == nil {
		var id int64
		err := tx.QueryRow(ctx, `INSERT INTO authors (name) VALUES ($1) RETURNING id`, a.Name).Scan(&id)
		return id, err
	}

	tag, err := tx.Exec(ctx, `UPDATE authors SET name = $1 WHERE id = $2`, a.Name, *a.ID)
	if err != nil {
		return 0, err
	}
	if tag.RowsAffected() == 0 {
		return 0, book.AuthorNotFound(*a.ID)
	}
	return *a.ID, nil
}

func (r *Repository) TopBooks(ctx context.Context, field book.Field, limit int) ([]book.Book, error) {
	col, ok := sortColumns[field]
	if !ok {
		return nil, fmt.Errorf("%w: %q", book.ErrInvalidField, field)
	}
	if limit < 1 {
		return nil, book.ErrInvalidLimit
	}

	query := fmt.Sprintf("%s ORDER BY %s, b.id LIMIT $1", selectBooks, col)
	return r.queryBooks(ctx, query, limit)
}

func (r *Repository) BooksByAuthor(ctx context.Context, name string) ([]book.Book, error) {
	return r.queryBooks(ctx, selectBooks+" WHERE a.name = $1 ORDER BY b.id", name)
}

func (r *Repository) queryBooks(ctx context.Context, query string, args ...any) ([]book.Book, error) {
	timeoutCtx, cancel := r.withTimeout(ctx)
	defer cancel()

	rows, err := r.db.Query(timeoutCtx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []book.Book
	for rows.Next() {
		b, err := scanBook(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

func (r *Repository) GetContent(ctx context.Context, id int64) (book.Content, error) {
	const query = `
		SELECT COALESCE(file_name, ''), COALESCE(mime_type, ''), content, octet_length(content)
		FROM books
		WHERE id = $1 AND content IS NOT NULL`

	timeoutCtx, cancel := r.withTimeout(ctx)
	defer cancel()

	c := book.Content{ID: id}
	err := r.db.QueryRow(timeoutCtx, query, id).Scan(&c.FileName, &c.MimeType, &c.Data, &c.Size)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return book.Content{}, book.ContentNotFound(id)
		}
		return book.Content{}, err
	}
	return c, nil
}

func (r *Repository) PutContent(ctx context.Context, c book.Content) error {
	timeoutCtx, cancel := r.withTimeout(ctx)
	defer cancel()

	return pgx.BeginFunc(timeoutCtx, r.db, func(tx pgx.Tx) error {
		tag, err := tx.Exec(timeoutCtx,
			`UPDATE books SET file_name = $1, mime_type = $2, content = $3 WHERE id = $4`,
			c.FileName, c.MimeType, c.Data, c.ID,
		)
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			return book.BookNotFound(c.ID)
		}
		return nil
	})
}

func (r *Repository) Ping(ctx context.Context) error {
	timeoutCtx, cancel := r.withTimeout(ctx)
	defer cancel()
	return r.db.Ping(timeoutCtx)
}

func scanBook(row pgx.Row) (book.Book, error) {
	var (
		b        book.Book
		id       int64
		authorID int64
	)
	if err := row.Scan(&id, &b.Title, &b.Year, &authorID, &b.Author.Name); err != nil {
		return book.Book{}, err
	}
	b.ID = &id
	b.Author.ID = &authorID
	return b, nil
}
