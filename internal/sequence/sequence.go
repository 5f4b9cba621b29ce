// Package sequence hands out monotonically increasing ids for stores that have
// no native auto-increment.
package sequence

import "context"

// Counter names shared by every backend that draws ids from a Generator.
const (
	Authors = "authors_sequence"
	Books   = "books_sequence"
)

// Generator returns the next id of the named counter. The first id is 1 and the
// increment is atomic at the store level, so concurrent callers never share an id.
type Generator interface {
	Next(ctx context.Context, name string) (int64, error)
}
