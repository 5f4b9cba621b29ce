package boltstore

import "encoding/binary"

// Bucket names for bbolt storage. Every bucket is keyed by an 8-byte big-endian id.
var (
	bucketAuthors  = []byte("authors")  // author id -> authorDoc JSON
	bucketBooks    = []byte("books")    // book id -> bookDoc JSON
	bucketContents = []byte("contents") // book id -> contentDoc JSON
)

type authorDoc struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

type bookDoc struct {
	ID       int64  `json:"id"`
	Title    string `json:"title"`
	Year     int    `json:"year"`
	AuthorID int64  `json:"authorId"`
}

type contentDoc struct {
	FileName string `json:"fileName"`
	MimeType string `json:"mimeType"`
	Data     []byte `json:"data"`
}

func itob(v int64) []byte {
	b := make([]byte, 8)
	binary.BigEndian.PutUint64(b, uint64(v))
	return b
}
