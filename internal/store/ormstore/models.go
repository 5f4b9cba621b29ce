package ormstore

import "booksvc/internal/book"

type authorModel struct {
	ID   int64  `gorm:"primaryKey"`
	Name string `gorm:"size:255;not null"`
}

func (authorModel) TableName() string { return "authors" }

type bookModel struct {
	ID       int64       `gorm:"primaryKey"`
	Title    string      `gorm:"size:255;not null"`
	Year     int         `gorm:"not null"`
	AuthorID int64       `gorm:"not null"`
	Author   authorModel `gorm:"foreignKey:AuthorID"`
}

func (bookModel) TableName() string { return "books" }

// contentModel maps the content columns of the books table only, so book
// updates never rewrite the payload and content updates never touch the book.
type contentModel struct {
	ID       int64 `gorm:"primaryKey"`
	FileName *string
	MimeType *string
	Content  []byte
}

func (contentModel) TableName() string { return "books" }

func (m bookModel) toBook() book.Book {
	return book.Book{
		ID:    book.Int64(m.ID),
		Title: m.Title,
		Year:  m.Year,
		Author: book.Author{
			ID:   book.Int64(m.Author.ID),
			Name: m.Author.Name,
		},
	}
}

func toBooks(models []bookModel) []book.Book {
	if len(models) == 0 {
		return nil
	}
	out := make([]book.Book, 0, len(models))
	for _, m := range models {
		out = append(out, m.toBook())
	}
	return out
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
