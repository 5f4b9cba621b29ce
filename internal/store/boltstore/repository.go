// Package boltstore implements book.Repository on an embedded bbolt file.
package boltstore

import (
	"cmp"
	"context"
	"encoding/json"
	"fmt"
	"slices"
	"time"

	"booksvc/internal/book"

	"github.com/rs/zerolog"
	"go.etcd.io/bbolt"
)

type Repository struct {
	db     *bbolt.DB
	logger zerolog.Logger
	noSync bool
}

var _ book.Repository = (*Repository)(nil)

// Option configures a Repository.
type Option func(*Repository)

// WithLogger sets the logger for the database.
func WithLogger(logger zerolog.Logger) Option {
	return func(r *Repository) {
		r.logger = logger
	}
}

// WithNoSync disables fsync per transaction. Only for tests.
func WithNoSync(noSync bool) Option {
	return func(r *Repository) {
		r.noSync = noSync
	}
}

// Open opens (or creates) the database at path.
func Open(path string, opts ...Option) (*Repository, error) {
	r := &Repository{logger: zerolog.Nop()}
	for _, opt := range opts {
		opt(r)
	}

	db, err := bbolt.Open(path, 0o600, &bbolt.Options{
		Timeout: 1 * time.Second,
		NoSync:  r.noSync,
	})
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	r.db = db

	if err := r.createBuckets(); err != nil {
		_ = db.Close()
		return nil, err
	}

	r.logger.Debug().Str("path", path).Bool("no_sync", r.noSync).Msg("opened bolt store")
	return r, nil
}

func (r *Repository) createBuckets() error {
	return r.db.Update(func(tx *bbolt.Tx) error {
		for _, name := range [][]byte{bucketAuthors, bucketBooks, bucketContents} {
			if _, err := tx.CreateBucketIfNotExists(name); err != nil {
				return fmt.Errorf("creating bucket %s: %w", name, err)
			}
		}
		return nil
	})
}

// Close closes the database and releases the file lock.
func (r *Repository) Close() error {
	return r.db.Close()
}

func (r *Repository) Ping(_ context.Context) error {
	return r.db.View(func(*bbolt.Tx) error { return nil })
}

func (r *Repository) Get(_ context.Context, id int64) (book.Book, error) {
	var out book.Book
	err := r.db.View(func(tx *bbolt.Tx) error {
		var doc bookDoc
		found, err := getJSON(tx.Bucket(bucketBooks), id, &doc)
		if err != nil {
			return err
		}
		if !found {
			return book.BookNotFound(id)
		}
		out, err = resolve(tx, doc)
		return err
	})
	return out, err
}

func (r *Repository) Put(_ context.Context, b book.Book) (int64, error) {
	var id int64
	err := r.db.Update(func(tx *bbolt.Tx) error {
		books := tx.Bucket(bucketBooks)
		authors := tx.Bucket(bucketAuthors)

		if b.ID != nil {
			found, err := getJSON(books, *b.ID, &bookDoc{})
			if err != nil {
				return err
			}
			if !found {
				return book.BookNotFound(*b.ID)
			}
		}

		author := authorDoc{Name: b.Author.Name}
		if b.Author.ID == nil {
			seq, err := authors.NextSequence()
			if err != nil {
				return err
			}
			author.ID = int64(seq)
		} else {
			found, err := getJSON(authors, *b.Author.ID, &authorDoc{})
			if err != nil {
				return err
			}
			if !found {
				return book.AuthorNotFound(*b.Author.ID)
			}
			author.ID = *b.Author.ID
		}
		if err := putJSON(authors, author.ID, author); err != nil {
			return err
		}

		if b.ID != nil {
			id = *b.ID
		} else {
			seq, err := books.NextSequence()
			if err != nil {
				return err
			}
			id = int64(seq)
		}
		return putJSON(books, id, bookDoc{ID: id, Title: b.Title, Year: b.Year, AuthorID: author.ID})
	})
	if err != nil {
		return 0, err
	}
	return id, nil
}

func (r *Repository) TopBooks(ctx context.Context, field book.Field, limit int) ([]book.Book, error) {
	var less func(a, b book.Book) int
	switch field {
	case book.FieldID, book.FieldAuthor:
	case book.FieldTitle:
		less = func(a, b book.Book) int { return cmp.Compare(a.Title, b.Title) }
	case book.FieldYear:
		less = func(a, b book.Book) int { return cmp.Compare(a.Year, b.Year) }
	default:
		return nil, fmt.Errorf("%w: %q", book.ErrInvalidField, field)
	}
	if limit < 1 {
		return nil, book.ErrInvalidLimit
	}

	var out []book.Book
	err := r.db.View(func(tx *bbolt.Tx) error {
		var err error
		switch field {
		case book.FieldID:
			out, err = scanBooks(tx, limit, func(bookDoc) bool { return true })
		case book.FieldAuthor:
			out, err = topByAuthor(ctx, tx, limit)
		default:
			out, err = scanBooks(tx, 0, func(bookDoc) bool { return true })
			if err == nil {
				slices.SortStableFunc(out, less)
				if len(out) > limit {
					out = out[:limit]
				}
			}
		}
		return err
	})
	return out, err
}

func topByAuthor(ctx context.Context, tx *bbolt.Tx, limit int) ([]book.Book, error) {
	var authors []authorDoc
	err := tx.Bucket(bucketAuthors).ForEach(func(_, v []byte) error {
		var a authorDoc
		if err := json.Unmarshal(v, &a); err != nil {
			return err
		}
		authors = append(authors, a)
		return nil
	})
	if err != nil {
		return nil, err
	}
	slices.SortFunc(authors, func(a, b authorDoc) int {
		if c := cmp.Compare(a.Name, b.Name); c != 0 {
			return c
		}
		return cmp.Compare(a.ID, b.ID)
	})

	byName := make([]book.Author, 0, len(authors))
	for _, a := range authors {
		byName = append(byName, book.Author{ID: book.Int64(a.ID), Name: a.Name})
	}
	return book.MergeTopByAuthor(ctx, book.GroupByName(byName), limit, func(_ context.Context, authorIDs []int64, quota int) ([]book.Book, error) {
		return scanBooks(tx, quota, func(d bookDoc) bool { return slices.Contains(authorIDs, d.AuthorID) })
	})
}

func (r *Repository) BooksByAuthor(_ context.Context, name string) ([]book.Book, error) {
	var out []book.Book
	err := r.db.View(func(tx *bbolt.Tx) error {
		matching := make(map[int64]bool)
		err := tx.Bucket(bucketAuthors).ForEach(func(_, v []byte) error {
			var a authorDoc
			if err := json.Unmarshal(v, &a); err != nil {
				return err
			}
			if a.Name == name {
				matching[a.ID] = true
			}
			return nil
		})
		if err != nil || len(matching) == 0 {
			return err
		}
		out, err = scanBooks(tx, 0, func(d bookDoc) bool { return matching[d.AuthorID] })
		return err
	})
	return out, err
}

func (r *Repository) GetContent(_ context.Context, id int64) (book.Content, error) {
	var out book.Content
	err := r.db.View(func(tx *bbolt.Tx) error {
		var doc contentDoc
		found, err := getJSON(tx.Bucket(bucketContents), id, &doc)
		if err != nil {
			return err
		}
		if !found {
			return book.ContentNotFound(id)
		}
		out = book.Content{
			ID:       id,
			FileName: doc.FileName,
			MimeType: doc.MimeType,
			Data:     doc.Data,
			Size:     int64(len(doc.Data)),
		}
		return nil
	})
	return out, err
}

func (r *Repository) PutContent(_ context.Context, c book.Content) error {
	return r.db.Update(func(tx *bbolt.Tx) error {
		found, err := getJSON(tx.Bucket(bucketBooks), c.ID, &bookDoc{})
		if err != nil {
			return err
		}
		if !found {
			return book.BookNotFound(c.ID)
		}
		return putJSON(tx.Bucket(bucketContents), c.ID, contentDoc{
			FileName: c.FileName,
			MimeType: c.MimeType,
			Data:     c.Data,
		})
	})
}

// scanBooks walks the books bucket in id order and resolves every match.
// limit 0 means no limit.
func scanBooks(tx *bbolt.Tx, limit int, match func(bookDoc) bool) ([]book.Book, error) {
	var out []book.Book
	c := tx.Bucket(bucketBooks).Cursor()
	for k, v := c.First(); k != nil; k, v = c.Next() {
		var doc bookDoc
		if err := json.Unmarshal(v, &doc); err != nil {
			return nil, err
		}
		if !match(doc) {
			continue
		}
		b, err := resolve(tx, doc)
		if err != nil {
			return nil, err
		}
		out = append(out, b)
		if limit > 0 && len(out) >= limit {
			break
		}
	}
	return out, nil
}

func resolve(tx *bbolt.Tx, doc bookDoc) (book.Book, error) {
	var a authorDoc
	found, err := getJSON(tx.Bucket(bucketAuthors), doc.AuthorID, &a)
	if err != nil {
		return book.Book{}, err
	}
	if !found {
		return book.Book{}, fmt.Errorf("book %d references missing author %d", doc.ID, doc.AuthorID)
	}
	return book.Book{
		ID:     book.Int64(doc.ID),
		Title:  doc.Title,
		Year:   doc.Year,
		Author: book.Author{ID: book.Int64(a.ID), Name: a.Name},
	}, nil
}

func getJSON(b *bbolt.Bucket, id int64, v any) (bool, error) {
	data := b.Get(itob(id))
	if data == nil {
		return false, nil
	}
	return true, json.Unmarshal(data, v)
}

func putJSON(b *bbolt.Bucket, id int64, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return b.Put(itob(id), data)
}
