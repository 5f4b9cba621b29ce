// Package ormstore implements book.Repository with gorm over postgres.
package ormstore

import (
	"context"
	"errors"
	"fmt"

	"booksvc/internal/book"

	"github.com/rs/zerolog"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var sortColumns = map[book.Field]string{
	book.FieldID:     `"books"."id"`,
	book.FieldTitle:  `"books"."title"`,
	book.FieldYear:   `"books"."year"`,
	book.FieldAuthor: `"Author"."name"`,
}

type Repository struct {
	db      *gorm.DB
	cascade bool
}

var _ book.Repository = (*Repository)(nil)

// Option configures a Repository.
type Option func(*Repository)

// WithCascade saves the author through the book in one session with
// FullSaveAssociations instead of two explicit statements.
func WithCascade(cascade bool) Option {
	return func(r *Repository) {
		r.cascade = cascade
	}
}

// Open connects gorm to the postgres database at dsn.
func Open(dsn string, log zerolog.Logger) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger:                 newLogger(log),
		SkipDefaultTransaction: true,
	})
	if err != nil {
		return nil, fmt.Errorf("opening gorm: %w", err)
	}
	return db, nil
}

func New(db *gorm.DB, opts ...Option) *Repository {
	r := &Repository{db: db}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func (r *Repository) Ping(ctx context.Context) error {
	sqlDB, err := r.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

func (r *Repository) Get(ctx context.Context, id int64) (book.Book, error) {
	var m bookModel
	err := r.db.WithContext(ctx).Joins("Author").First(&m, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return book.Book{}, book.BookNotFound(id)
		}
		return book.Book{}, err
	}
	return m.toBook(), nil
}

func (r *Repository) Put(ctx context.Context, b book.Book) (int64, error) {
	var id int64
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		m := bookModel{Title: b.Title, Year: b.Year}
		if b.ID != nil {
			if err := tx.Select("id").First(&bookModel{}, *b.ID).Error; err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return book.BookNotFound(*b.ID)
				}
				return err
			}
			m.ID = *b.ID
		}

		author := authorModel{Name: b.Author.Name}
		if b.Author.ID != nil {
			if err := tx.First(&authorModel{}, *b.Author.ID).Error; err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return book.AuthorNotFound(*b.Author.ID)
				}
				return err
			}
			author.ID = *b.Author.ID
		}

		var err error
		if r.cascade {
			err = saveCascading(tx, &m, author)
		} else {
			err = saveExplicit(tx, &m, author)
		}
		id = m.ID
		return err
	})
	if err != nil {
		return 0, err
	}
	return id, nil
}

// saveCascading lets gorm persist the author as part of the book save.
func saveCascading(tx *gorm.DB, m *bookModel, author authorModel) error {
	m.Author = author
	return tx.Session(&gorm.Session{FullSaveAssociations: true}).Save(m).Error
}

// saveExplicit writes the author first and then the book row.
func saveExplicit(tx *gorm.DB, m *bookModel, author authorModel) error {
	if author.ID == 0 {
		if err := tx.Create(&author).Error; err != nil {
			return err
		}
	} else if err := tx.Model(&authorModel{ID: author.ID}).Update("name", author.Name).Error; err != nil {
		return err
	}

	m.AuthorID = author.ID
	if m.ID == 0 {
		return tx.Omit(clause.Associations).Create(m).Error
	}
	return tx.Model(&bookModel{ID: m.ID}).Omit(clause.Associations).Updates(map[string]any{
		"title":     m.Title,
		"year":      m.Year,
		"author_id": m.AuthorID,
	}).Error
}

func (r *Repository) TopBooks(ctx context.Context, field book.Field, limit int) ([]book.Book, error) {
	col, ok := sortColumns[field]
	if !ok {
		return nil, fmt.Errorf("%w: %q", book.ErrInvalidField, field)
	}
	if limit < 1 {
		return nil, book.ErrInvalidLimit
	}

	var models []bookModel
	err := r.db.WithContext(ctx).
		Joins("Author").
		Order(col).
		Order(`"books"."id"`).
		Limit(limit).
		Find(&models).Error
	if err != nil {
		return nil, err
	}
	return toBooks(models), nil
}

func (r *Repository) BooksByAuthor(ctx context.Context, name string) ([]book.Book, error) {
	var models []bookModel
	err := r.db.WithContext(ctx).
		Joins("Author").
		Where(`"Author"."name" = ?`, name).
		Order(`"books"."id"`).
		Find(&models).Error
	if err != nil {
		return nil, err
	}
	return toBooks(models), nil
}

func (r *Repository) GetContent(ctx context.Context, id int64) (book.Content, error) {
	var m contentModel
	err := r.db.WithContext(ctx).Where("content IS NOT NULL").First(&m, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return book.Content{}, book.ContentNotFound(id)
		}
		return book.Content{}, err
	}
	return book.Content{
		ID:       m.ID,
		FileName: deref(m.FileName),
		MimeType: deref(m.MimeType),
		Data:     m.Content,
		Size:     int64(len(m.Content)),
	}, nil
}

func (r *Repository) PutContent(ctx context.Context, c book.Content) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&contentModel{ID: c.ID}).Updates(map[string]any{
			"file_name": c.FileName,
			"mime_type": c.MimeType,
			"content":   c.Data,
		})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return book.BookNotFound(c.ID)
		}
		return nil
	})
}
