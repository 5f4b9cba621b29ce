package seed

import (
	"context"
	"testing"

	"booksvc/internal/book"
	"booksvc/internal/sequence"
	"booksvc/internal/store/memory"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad(t *testing.T) {
	repo := memory.New(sequence.NewMemory())
	ctx := context.Background()

	n, err := Load(ctx, repo, zerolog.Nop())
	require.NoError(t, err)

	want := 0
	for _, g := range Catalogue {
		want += len(g.Books)
	}
	assert.Equal(t, want, n)

	king, err := repo.BooksByAuthor(ctx, "Stephen King")
	require.NoError(t, err)
	require.Len(t, king, 7)
	for _, b := range king[1:] {
		assert.Equal(t, *king[0].Author.ID, *b.Author.ID, "one author row per catalogue author")
	}

	top, err := repo.TopBooks(ctx, book.FieldYear, 1)
	require.NoError(t, err)
	assert.Equal(t, "Hard to Be a God", top[0].Title)
}

func TestLoad_SkipsNonEmptyRepository(t *testing.T) {
	repo := memory.New(sequence.NewMemory())
	ctx := context.Background()
	_, err := repo.Put(ctx, book.Book{Title: "Existing", Year: 2000, Author: book.Author{Name: "Someone"}})
	require.NoError(t, err)

	n, err := Load(ctx, repo, zerolog.Nop())
	require.NoError(t, err)
	assert.Zero(t, n)
}
