package book

import (
	"context"
)

// Service provides book-related business logic on top of a Repository.
type Service struct {
	repo Repository
}

// NewService creates a new book service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// Get returns a book by its id.
func (s *Service) Get(ctx context.Context, id int64) (Book, error) {
	return s.repo.Get(ctx, id)
}

// Put validates and stores a book, returning its id.
func (s *Service) Put(ctx context.Context, b Book) (int64, error) {
	if err := Validate(b); err != nil {
		return 0, err
	}
	return s.repo.Put(ctx, b)
}

// TopBooks returns up to limit books ordered by field.
func (s *Service) TopBooks(ctx context.Context, field Field, limit int) ([]Book, error) {
	if limit < 1 {
		return nil, ErrInvalidLimit
	}
	return s.repo.TopBooks(ctx, field, limit)
}

// BooksByAuthor returns the books written by every author named name.
func (s *Service) BooksByAuthor(ctx context.Context, name string) ([]Book, error) {
	return s.repo.BooksByAuthor(ctx, name)
}

// GetContent returns the stored file of a book.
func (s *Service) GetContent(ctx context.Context, id int64) (Content, error) {
	c, err := s.repo.GetContent(ctx, id)
	if err != nil {
		return Content{}, err
	}
	c.Size = int64(len(c.Data))
	return c, nil
}

// PutContent stores an uploaded file for the book with the given id.
func (s *Service) PutContent(ctx context.Context, c Content) error {
	if len(c.Data) == 0 {
		return ErrEmptyFile
	}
	c.FileName = SanitizeFileName(c.FileName)
	c.Size = int64(len(c.Data))
	return s.repo.PutContent(ctx, c)
}
