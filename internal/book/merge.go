package book

import "context"

// AuthorBooksFunc fetches at most quota books written by any of authorIDs,
// ordered by book id.
type AuthorBooksFunc func(ctx context.Context, authorIDs []int64, quota int) ([]Book, error)

// GroupByName collapses authors, already ordered by name, into runs of ids
// sharing one name.
func GroupByName(authors []Author) [][]int64 {
	var groups [][]int64
	for i, a := range authors {
		if a.ID == nil {
			continue
		}
		if i > 0 && len(groups) > 0 && authors[i-1].Name == a.Name {
			groups[len(groups)-1] = append(groups[len(groups)-1], *a.ID)
			continue
		}
		groups = append(groups, []int64{*a.ID})
	}
	return groups
}

// MergeTopByAuthor builds the AUTHOR-sorted top list for stores that cannot join
// authors and books in one query. groups must be ordered by author name with
// namesakes in one group; the result keeps that order, breaks ties by book id
// and never holds more than limit books.
func MergeTopByAuthor(ctx context.Context, groups [][]int64, limit int, fetch AuthorBooksFunc) ([]Book, error) {
	if limit < 1 {
		return nil, ErrInvalidLimit
	}
	out := make([]Book, 0, min(limit, 64))
	for _, authorIDs := range groups {
		quota := limit - len(out)
		if quota <= 0 {
			break
		}
		books, err := fetch(ctx, authorIDs, quota)
		if err != nil {
			return nil, err
		}
		if len(books) > quota {
			books = books[:quota]
		}
		out = append(out, books...)
	}
	return out, nil
}
