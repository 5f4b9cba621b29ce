package book

import (
	"errors"
	"fmt"
	"strings"
)

// ErrNotFound is the parent of every "does not exist" error returned by a Repository.
var ErrNotFound = errors.New("not found")

var (
	ErrBookNotFound    = fmt.Errorf("book %w", ErrNotFound)
	ErrAuthorNotFound  = fmt.Errorf("author %w", ErrNotFound)
	ErrContentNotFound = fmt.Errorf("content %w", ErrNotFound)

	ErrInvalidField = errors.New("unknown field value")
	ErrInvalidLimit = errors.New("limit must be at least 1")
	ErrEmptyFile    = errors.New("empty file")
)

// BookNotFound reports a missing book, e.g. "Book[id=7] not found".
func BookNotFound(id int64) error {
	return &notFoundError{kind: ErrBookNotFound, msg: fmt.Sprintf("Book[id=%d] not found", id)}
}

// AuthorNotFound reports a missing author referenced by a book.
func AuthorNotFound(id int64) error {
	return &notFoundError{kind: ErrAuthorNotFound, msg: fmt.Sprintf("Author[id=%d] not found", id)}
}

// ContentNotFound reports a book without stored content.
func ContentNotFound(id int64) error {
	return &notFoundError{kind: ErrContentNotFound, msg: fmt.Sprintf("Book[id=%d]'s content not found", id)}
}

type notFoundError struct {
	kind error
	msg  string
}

func (e *notFoundError) Error() string { return e.msg }
func (e *notFoundError) Unwrap() error { return e.kind }

// Violation is a single failed constraint on an input field.
type Violation struct {
	Field   string
	Message string
}

// ValidationError collects every violated constraint of one input value.
type ValidationError struct {
	Object     string
	Violations []Violation
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Violations))
	for _, v := range e.Violations {
		parts = append(parts, fmt.Sprintf("Field error in object '%s' on field '%s': %s", e.Object, v.Field, v.Message))
	}
	return strings.Join(parts, "; ")
}
