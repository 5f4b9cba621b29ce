package book

import "fmt"

// Book represents a book entity.
type Book struct {
	ID     *int64 `json:"id"`
	Title  string `json:"title" validate:"required,notblank,max=255"`
	Year   int    `json:"year" validate:"gte=0,lte=9999"`
	Author Author `json:"author"`
}

// Author is referenced by books through its id. Updating an author's name is
// visible to every book that references it.
type Author struct {
	ID   *int64 `json:"id"`
	Name string `json:"name" validate:"required,notblank,max=255"`
}

// Content is the binary payload attached to a book. Its ID is the owning book's ID.
type Content struct {
	ID       int64
	FileName string
	MimeType string
	Data     []byte
	Size     int64
}

// Field names a sortable book attribute.
type Field string

const (
	FieldID     Field = "ID"
	FieldTitle  Field = "TITLE"
	FieldYear   Field = "YEAR"
	FieldAuthor Field = "AUTHOR"
)

// ParseField maps a query parameter value to a Field.
func ParseField(s string) (Field, error) {
	switch f := Field(s); f {
	case FieldID, FieldTitle, FieldYear, FieldAuthor:
		return f, nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidField, s)
}

// Int64 returns a pointer to v. Handy for building books with known ids.
func Int64(v int64) *int64 {
	return &v
}

// WithID returns a copy of b carrying the given id.
func (b Book) WithID(id int64) Book {
	b.ID = Int64(id)
	return b
}

// Clone returns a deep copy so callers never share the id pointers of a stored value.
func (b Book) Clone() Book {
	if b.ID != nil {
		b.ID = Int64(*b.ID)
	}
	if b.Author.ID != nil {
		b.Author.ID = Int64(*b.Author.ID)
	}
	return b
}

// Clone returns a copy of c with its own payload slice.
func (c Content) Clone() Content {
	if c.Data != nil {
		c.Data = append([]byte(nil), c.Data...)
	}
	return c
}
