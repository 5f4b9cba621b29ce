package mongostore

import "booksvc/internal/book"

const (
	authorsCollection = "authors"
	booksCollection   = "books"
)

type authorDoc struct {
	ID   int64  `bson:"_id"`
	Name string `bson:"name"`
}

// authorRef has the DBRef shape so other drivers can follow the reference.
type authorRef struct {
	Ref string `bson:"$ref"`
	ID  int64  `bson:"$id"`
}

type bookDoc struct {
	ID       int64     `bson:"_id"`
	Title    string    `bson:"title"`
	Year     int       `bson:"year"`
	Author   authorRef `bson:"author"`
	FileName string    `bson:"fileName,omitempty"`
	MimeType string    `bson:"mimeType,omitempty"`
	Content  []byte    `bson:"content,omitempty"`
	Size     int64     `bson:"size,omitempty"`
}

func newAuthorRef(id int64) authorRef {
	return authorRef{Ref: authorsCollection, ID: id}
}

func (d bookDoc) toBook(a authorDoc) book.Book {
	return book.Book{
		ID:     book.Int64(d.ID),
		Title:  d.Title,
		Year:   d.Year,
		Author: book.Author{ID: book.Int64(a.ID), Name: a.Name},
	}
}
