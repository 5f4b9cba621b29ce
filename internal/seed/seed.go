// Package seed fills an empty repository with a small sample catalogue.
package seed

import (
	"context"
	"fmt"

	"booksvc/internal/book"

	"github.com/rs/zerolog"
)

type entry struct {
	Title string
	Year  int
}

// Catalogue maps each sample author to their books, oldest first.
var Catalogue = []struct {
	Author string
	Books  []entry
}{
	{"Stephen King", []entry{
		{"The Dark Tower: The Gunslinger", 1982},
		{"The Dark Tower II: The Drawing of the Three", 1987},
		{"The Dark Tower III: The Waste Lands", 1991},
		{"The Dark Tower IV: Wizard and Glass", 1997},
		{"The Dark Tower V: Wolves of the Calla", 2003},
		{"The Dark Tower VI: Song of Susannah", 2004},
		{"The Dark Tower VII: The Dark Tower", 2004},
	}},
	{"Ursula K. Le Guin", []entry{
		{"A Wizard of Earthsea", 1968},
		{"The Left Hand of Darkness", 1969},
		{"The Dispossessed", 1974},
	}},
	{"Terry Pratchett", []entry{
		{"The Colour of Magic", 1983},
		{"Mort", 1987},
		{"Small Gods", 1992},
	}},
	{"Arkady and Boris Strugatsky", []entry{
		{"Hard to Be a God", 1964},
		{"Roadside Picnic", 1972},
	}},
}

// Load inserts the catalogue unless repo already holds books and returns the
// number of books written.
func Load(ctx context.Context, repo book.Repository, log zerolog.Logger) (int, error) {
	existing, err := repo.TopBooks(ctx, book.FieldID, 1)
	if err != nil {
		return 0, fmt.Errorf("seed: probe repository: %w", err)
	}
	if len(existing) > 0 {
		log.Info().Msg("repository not empty, skipping seed")
		return 0, nil
	}

	written := 0
	for _, group := range Catalogue {
		author := book.Author{Name: group.Author}
		for _, e := range group.Books {
			id, err := repo.Put(ctx, book.Book{Title: e.Title, Year: e.Year, Author: author})
			if err != nil {
				return written, fmt.Errorf("seed: put %q: %w", e.Title, err)
			}
			written++

			if author.ID == nil {
				stored, err := repo.Get(ctx, id)
				if err != nil {
					return written, fmt.Errorf("seed: reload %d: %w", id, err)
				}
				author.ID = stored.Author.ID
			}
		}
	}

	log.Info().Int("books", written).Msg("seeded sample catalogue")
	return written, nil
}
