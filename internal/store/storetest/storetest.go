// Package storetest holds the behaviour every book.Repository backend must share.
package storetest

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"booksvc/internal/book"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Factory returns an empty repository. It is called once per subtest.
type Factory func(t *testing.T) book.Repository

// Run exercises repo against the shared repository contract.
func Run(t *testing.T, newRepo Factory) {
	tests := []struct {
		name string
		fn   func(t *testing.T, repo book.Repository)
	}{
		{"GetMissing", testGetMissing},
		{"InsertBookAndAuthor", testInsertBookAndAuthor},
		{"InsertWithExistingAuthorRenamesIt", testInsertWithExistingAuthor},
		{"InsertWithUnknownAuthor", testInsertWithUnknownAuthor},
		{"UpdateBook", testUpdateBook},
		{"UpdateMissingBook", testUpdateMissingBook},
		{"TopBooks", testTopBooks},
		{"TopBooksByAuthorNamesakes", testTopBooksByAuthorNamesakes},
		{"TopBooksInvalidArguments", testTopBooksInvalidArguments},
		{"BooksByAuthor", testBooksByAuthor},
		{"Content", testContent},
		{"ContentMissing", testContentMissing},
		{"ReturnedValuesAreDetached", testDetached},
		{"ConcurrentInserts", testConcurrentInserts},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.fn(t, newRepo(t))
		})
	}
}

func newBook(title string, year int, author book.Author) book.Book {
	return book.Book{Title: title, Year: year, Author: author}
}

func mustPut(t *testing.T, repo book.Repository, b book.Book) int64 {
	t.Helper()
	id, err := repo.Put(context.Background(), b)
	require.NoError(t, err)
	return id
}

func mustGet(t *testing.T, repo book.Repository, id int64) book.Book {
	t.Helper()
	b, err := repo.Get(context.Background(), id)
	require.NoError(t, err)
	return b
}

func ids(books []book.Book) []int64 {
	out := make([]int64, 0, len(books))
	for _, b := range books {
		out = append(out, *b.ID)
	}
	return out
}

func testGetMissing(t *testing.T, repo book.Repository) {
	_, err := repo.Get(context.Background(), 999)
	require.ErrorIs(t, err, book.ErrBookNotFound)
	assert.Equal(t, "Book[id=999] not found", err.Error())
}

func testInsertBookAndAuthor(t *testing.T, repo book.Repository) {
	id := mustPut(t, repo, newBook("The Gunslinger", 1982, book.Author{Name: "Stephen King"}))

	got := mustGet(t, repo, id)
	require.NotNil(t, got.ID)
	require.NotNil(t, got.Author.ID)
	assert.Equal(t, id, *got.ID)
	assert.Equal(t, "The Gunslinger", got.Title)
	assert.Equal(t, 1982, got.Year)
	assert.Equal(t, "Stephen King", got.Author.Name)

	second := mustPut(t, repo, newBook("Carrie", 1974, book.Author{Name: "Stephen King"}))
	assert.NotEqual(t, id, second)
	assert.NotEqual(t, *got.Author.ID, *mustGet(t, repo, second).Author.ID, "a null author id always creates a new author")
}

func testInsertWithExistingAuthor(t *testing.T, repo book.Repository) {
	first := mustPut(t, repo, newBook("It", 1986, book.Author{Name: "Stephen Kng"}))
	authorID := *mustGet(t, repo, first).Author.ID

	second := mustPut(t, repo, newBook("Misery", 1987, book.Author{ID: book.Int64(authorID), Name: "Stephen King"}))

	assert.Equal(t, authorID, *mustGet(t, repo, second).Author.ID)
	assert.Equal(t, "Stephen King", mustGet(t, repo, first).Author.Name, "rename is visible through every referencing book")
}

func testInsertWithUnknownAuthor(t *testing.T, repo book.Repository) {
	_, err := repo.Put(context.Background(), newBook("Ghost", 2000, book.Author{ID: book.Int64(4242), Name: "Nobody"}))
	require.ErrorIs(t, err, book.ErrAuthorNotFound)
	assert.Equal(t, "Author[id=4242] not found", err.Error())

	books, err := repo.BooksByAuthor(context.Background(), "Nobody")
	require.NoError(t, err)
	assert.Empty(t, books)
}

func testUpdateBook(t *testing.T, repo book.Repository) {
	id := mustPut(t, repo, newBook("Draft", 2001, book.Author{Name: "First"}))
	other := mustPut(t, repo, newBook("Other", 2002, book.Author{Name: "Second"}))
	secondAuthor := mustGet(t, repo, other).Author

	got, err := repo.Put(context.Background(), book.Book{
		ID:     book.Int64(id),
		Title:  "Final",
		Year:   2003,
		Author: secondAuthor,
	})
	require.NoError(t, err)
	assert.Equal(t, id, got)

	updated := mustGet(t, repo, id)
	assert.Equal(t, "Final", updated.Title)
	assert.Equal(t, 2003, updated.Year)
	assert.Equal(t, *secondAuthor.ID, *updated.Author.ID)
	assert.Equal(t, "Second", updated.Author.Name)
}

func testUpdateMissingBook(t *testing.T, repo book.Repository) {
	_, err := repo.Put(context.Background(), book.Book{
		ID:     book.Int64(777),
		Title:  "Ghost",
		Year:   1999,
		Author: book.Author{Name: "Nobody"},
	})
	require.ErrorIs(t, err, book.ErrBookNotFound)

	books, err := repo.BooksByAuthor(context.Background(), "Nobody")
	require.NoError(t, err)
	assert.Empty(t, books, "a failed update leaves no author behind")
}

func testTopBooks(t *testing.T, repo book.Repository) {
	ctx := context.Background()
	zed := mustPut(t, repo, newBook("Alpha", 2010, book.Author{Name: "Zed"}))
	zedAuthor := mustGet(t, repo, zed).Author
	amy := mustPut(t, repo, newBook("Charlie", 2000, book.Author{Name: "Amy"}))
	amyAuthor := mustGet(t, repo, amy).Author
	zed2 := mustPut(t, repo, newBook("Bravo", 2000, zedAuthor))
	amy2 := mustPut(t, repo, newBook("Alpha", 1990, amyAuthor))

	tests := []struct {
		field book.Field
		limit int
		want  []int64
	}{
		{book.FieldID, 10, []int64{zed, amy, zed2, amy2}},
		{book.FieldID, 2, []int64{zed, amy}},
		{book.FieldTitle, 10, []int64{zed, amy2, zed2, amy}},
		{book.FieldYear, 3, []int64{amy2, amy, zed2}},
		{book.FieldAuthor, 10, []int64{amy, amy2, zed, zed2}},
		{book.FieldAuthor, 3, []int64{amy, amy2, zed}},
		{book.FieldAuthor, 1, []int64{amy}},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("%s/%d", tt.field, tt.limit), func(t *testing.T) {
			books, err := repo.TopBooks(ctx, tt.field, tt.limit)
			require.NoError(t, err)
			assert.Equal(t, tt.want, ids(books))
			for _, b := range books {
				assert.NotEmpty(t, b.Author.Name)
			}
		})
	}
}

func testTopBooksByAuthorNamesakes(t *testing.T, repo book.Repository) {
	ctx := context.Background()
	first := mustPut(t, repo, newBook("First", 2001, book.Author{Name: "Same"}))
	firstAuthor := mustGet(t, repo, first).Author
	second := mustPut(t, repo, newBook("Second", 2002, book.Author{Name: "Same"}))
	third := mustPut(t, repo, newBook("Third", 2003, firstAuthor))
	early := mustPut(t, repo, newBook("Early", 2004, book.Author{Name: "Abe"}))

	books, err := repo.TopBooks(ctx, book.FieldAuthor, 10)
	require.NoError(t, err)
	assert.Equal(t, []int64{early, first, second, third}, ids(books))

	books, err = repo.TopBooks(ctx, book.FieldAuthor, 3)
	require.NoError(t, err)
	assert.Equal(t, []int64{early, first, second}, ids(books))
}

func testTopBooksInvalidArguments(t *testing.T, repo book.Repository) {
	ctx := context.Background()
	mustPut(t, repo, newBook("Alpha", 2010, book.Author{Name: "Zed"}))

	_, err := repo.TopBooks(ctx, book.FieldTitle, 0)
	assert.ErrorIs(t, err, book.ErrInvalidLimit)

	_, err = repo.TopBooks(ctx, book.Field("ISBN"), 3)
	assert.ErrorIs(t, err, book.ErrInvalidField)

	books, err := repo.TopBooks(ctx, book.FieldID, 100)
	require.NoError(t, err)
	assert.Len(t, books, 1)
}

func testBooksByAuthor(t *testing.T, repo book.Repository) {
	ctx := context.Background()
	a := mustPut(t, repo, newBook("One", 2001, book.Author{Name: "Same Name"}))
	b := mustPut(t, repo, newBook("Two", 2002, book.Author{Name: "Same Name"}))
	mustPut(t, repo, newBook("Three", 2003, book.Author{Name: "same name"}))
	mustPut(t, repo, newBook("Four", 2004, book.Author{Name: "Other"}))

	books, err := repo.BooksByAuthor(ctx, "Same Name")
	require.NoError(t, err)
	assert.ElementsMatch(t, []int64{a, b}, ids(books))

	books, err = repo.BooksByAuthor(ctx, "Nobody")
	require.NoError(t, err)
	assert.Empty(t, books)
}

func testContent(t *testing.T, repo book.Repository) {
	ctx := context.Background()
	id := mustPut(t, repo, newBook("Readable", 2020, book.Author{Name: "Writer"}))

	payload := []byte("The man in black fled across the desert")
	require.NoError(t, repo.PutContent(ctx, book.Content{
		ID:       id,
		FileName: "tower.txt",
		MimeType: "text/plain",
		Data:     payload,
		Size:     int64(len(payload)),
	}))

	c, err := repo.GetContent(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, id, c.ID)
	assert.Equal(t, "tower.txt", c.FileName)
	assert.Equal(t, "text/plain", c.MimeType)
	assert.Equal(t, payload, c.Data)
	assert.Equal(t, int64(len(payload)), c.Size)

	require.NoError(t, repo.PutContent(ctx, book.Content{
		ID:       id,
		FileName: "tower.bin",
		MimeType: "application/octet-stream",
		Data:     []byte{0x00, 0xff},
		Size:     2,
	}))
	c, err = repo.GetContent(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "tower.bin", c.FileName)
	assert.Equal(t, []byte{0x00, 0xff}, c.Data)

	got := mustGet(t, repo, id)
	assert.Equal(t, "Readable", got.Title, "content upload leaves book fields intact")

	_, err = repo.Put(ctx, book.Book{ID: book.Int64(id), Title: "Renamed", Year: 2021, Author: got.Author})
	require.NoError(t, err)
	c, err = repo.GetContent(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, []byte{0x00, 0xff}, c.Data, "book update keeps its content")
}

func testContentMissing(t *testing.T, repo book.Repository) {
	ctx := context.Background()
	id := mustPut(t, repo, newBook("Empty", 2020, book.Author{Name: "Writer"}))

	_, err := repo.GetContent(ctx, id)
	require.ErrorIs(t, err, book.ErrContentNotFound)
	assert.Equal(t, fmt.Sprintf("Book[id=%d]'s content not found", id), err.Error())

	_, err = repo.GetContent(ctx, 9999)
	assert.ErrorIs(t, err, book.ErrContentNotFound)

	err = repo.PutContent(ctx, book.Content{ID: 9999, FileName: "x", MimeType: "text/plain", Data: []byte("x"), Size: 1})
	assert.ErrorIs(t, err, book.ErrBookNotFound)
}

func testDetached(t *testing.T, repo book.Repository) {
	id := mustPut(t, repo, newBook("Stable", 2000, book.Author{Name: "Writer"}))

	got := mustGet(t, repo, id)
	got.Title = "Mutated"
	*got.Author.ID = 12345

	again := mustGet(t, repo, id)
	assert.Equal(t, "Stable", again.Title)
	assert.NotEqual(t, int64(12345), *again.Author.ID)
}

func testConcurrentInserts(t *testing.T, repo book.Repository) {
	const workers = 8
	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		seen = make(map[int64]bool)
	)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			id, err := repo.Put(context.Background(), newBook(fmt.Sprintf("Book %d", i), 2000+i, book.Author{Name: "Parallel"}))
			if !assert.NoError(t, err) {
				return
			}
			mu.Lock()
			seen[id] = true
			mu.Unlock()
		}(i)
	}
	wg.Wait()
	assert.Len(t, seen, workers)

	books, err := repo.BooksByAuthor(context.Background(), "Parallel")
	require.NoError(t, err)
	assert.Len(t, books, workers)
}
