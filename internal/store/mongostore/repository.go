// Package mongostore implements book.Repository on MongoDB.
package mongostore

import (
	"context"
	"errors"
	"fmt"

	"booksvc/internal/book"
	"booksvc/internal/sequence"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

const authorIDPath = "author.$id"

var sortFields = map[book.Field]string{
	book.FieldID:    "_id",
	book.FieldTitle: "title",
	book.FieldYear:  "year",
}

type Repository struct {
	client       *mongo.Client
	authors      *mongo.Collection
	books        *mongo.Collection
	seq          sequence.Generator
	transactions bool
}

var _ book.Repository = (*Repository)(nil)

// Option configures a Repository.
type Option func(*Repository)

// WithTransactions runs the author and book writes of Put in one
// multi-document transaction. The server must be a replica set.
func WithTransactions(enabled bool) Option {
	return func(r *Repository) {
		r.transactions = enabled
	}
}

// New returns a repository on database. seq hands out author and book ids.
func New(client *mongo.Client, database string, seq sequence.Generator, opts ...Option) *Repository {
	db := client.Database(database)
	r := &Repository{
		client:  client,
		authors: db.Collection(authorsCollection),
		books:   db.Collection(booksCollection),
		seq:     seq,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// EnsureIndexes creates the secondary indexes used by the author queries.
func (r *Repository) EnsureIndexes(ctx context.Context) error {
	_, err := r.authors.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "name", Value: 1}, {Key: "_id", Value: 1}},
	})
	if err != nil {
		return fmt.Errorf("creating authors index: %w", err)
	}
	return nil
}

func (r *Repository) Ping(ctx context.Context) error {
	return r.client.Ping(ctx, readpref.Primary())
}

func (r *Repository) Get(ctx context.Context, id int64) (book.Book, error) {
	var doc bookDoc
	err := r.books.FindOne(ctx, bson.M{"_id": id}, options.FindOne().SetProjection(bson.M{"content": 0})).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return book.Book{}, book.BookNotFound(id)
		}
		return book.Book{}, err
	}
	books, err := r.resolve(ctx, []bookDoc{doc})
	if err != nil {
		return book.Book{}, err
	}
	return books[0], nil
}

func (r *Repository) Put(ctx context.Context, b book.Book) (int64, error) {
	var id int64
	write := func(sc context.Context) error {
		var err error
		id, err = r.put(ctx, sc, b)
		return err
	}

	if !r.transactions {
		err := write(ctx)
		return id, err
	}

	sess, err := r.client.StartSession()
	if err != nil {
		return 0, err
	}
	defer sess.EndSession(ctx)

	_, err = sess.WithTransaction(ctx, func(sc mongo.SessionContext) (any, error) {
		return nil, write(sc)
	})
	if err != nil {
		return 0, err
	}
	return id, nil
}

// put writes through sc. Ids are drawn with ctx so the counters stay outside
// any transaction bound to sc.
func (r *Repository) put(ctx, sc context.Context, b book.Book) (int64, error) {
	if b.ID != nil {
		n, err := r.books.CountDocuments(sc, bson.M{"_id": *b.ID})
		if err != nil {
			return 0, err
		}
		if n == 0 {
			return 0, book.BookNotFound(*b.ID)
		}
	}

	var authorID int64
	if b.Author.ID == nil {
		next, err := r.seq.Next(ctx, sequence.Authors)
		if err != nil {
			return 0, err
		}
		authorID = next
		if _, err := r.authors.InsertOne(sc, authorDoc{ID: authorID, Name: b.Author.Name}); err != nil {
			return 0, err
		}
	} else {
		authorID = *b.Author.ID
		res, err := r.authors.UpdateOne(sc, bson.M{"_id": authorID}, bson.M{"$set": bson.M{"name": b.Author.Name}})
		if err != nil {
			return 0, err
		}
		if res.MatchedCount == 0 {
			return 0, book.AuthorNotFound(authorID)
		}
	}

	if b.ID != nil {
		_, err := r.books.UpdateOne(sc, bson.M{"_id": *b.ID}, bson.M{"$set": bson.M{
			"title":  b.Title,
			"year":   b.Year,
			"author": newAuthorRef(authorID),
		}})
		return *b.ID, err
	}

	id, err := r.seq.Next(ctx, sequence.Books)
	if err != nil {
		return 0, err
	}
	_, err = r.books.InsertOne(sc, bookDoc{ID: id, Title: b.Title, Year: b.Year, Author: newAuthorRef(authorID)})
	if err != nil {
		return 0, err
	}
	return id, nil
}

func (r *Repository) TopBooks(ctx context.Context, field book.Field, limit int) ([]book.Book, error) {
	if field == book.FieldAuthor {
		if limit < 1 {
			return nil, book.ErrInvalidLimit
		}
		return r.topByAuthor(ctx, limit)
	}

	key, ok := sortFields[field]
	if !ok {
		return nil, fmt.Errorf("%w: %q", book.ErrInvalidField, field)
	}
	if limit < 1 {
		return nil, book.ErrInvalidLimit
	}

	sort := bson.D{{Key: key, Value: 1}}
	if key != "_id" {
		sort = append(sort, bson.E{Key: "_id", Value: 1})
	}
	return r.findBooks(ctx, bson.M{}, options.Find().SetSort(sort).SetLimit(int64(limit)))
}

func (r *Repository) topByAuthor(ctx context.Context, limit int) ([]book.Book, error) {
	cur, err := r.authors.Find(ctx, bson.M{}, options.Find().
		SetSort(bson.D{{Key: "name", Value: 1}, {Key: "_id", Value: 1}}))
	if err != nil {
		return nil, err
	}
	var docs []authorDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, err
	}

	authors := make([]book.Author, 0, len(docs))
	for _, a := range docs {
		authors = append(authors, book.Author{ID: book.Int64(a.ID), Name: a.Name})
	}
	return book.MergeTopByAuthor(ctx, book.GroupByName(authors), limit, func(ctx context.Context, authorIDs []int64, quota int) ([]book.Book, error) {
		return r.findBooks(ctx, bson.M{authorIDPath: bson.M{"$in": authorIDs}}, options.Find().
			SetSort(bson.D{{Key: "_id", Value: 1}}).
			SetLimit(int64(quota)))
	})
}

func (r *Repository) BooksByAuthor(ctx context.Context, name string) ([]book.Book, error) {
	cur, err := r.authors.Find(ctx, bson.M{"name": name}, options.Find().SetProjection(bson.M{"_id": 1}))
	if err != nil {
		return nil, err
	}
	var authors []authorDoc
	if err := cur.All(ctx, &authors); err != nil {
		return nil, err
	}
	if len(authors) == 0 {
		return nil, nil
	}

	ids := make([]int64, 0, len(authors))
	for _, a := range authors {
		ids = append(ids, a.ID)
	}
	return r.findBooks(ctx, bson.M{authorIDPath: bson.M{"$in": ids}}, options.Find().SetSort(bson.D{{Key: "_id", Value: 1}}))
}

func (r *Repository) GetContent(ctx context.Context, id int64) (book.Content, error) {
	var doc bookDoc
	err := r.books.FindOne(ctx, bson.M{"_id": id, "content": bson.M{"$exists": true}}).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return book.Content{}, book.ContentNotFound(id)
		}
		return book.Content{}, err
	}

	size := doc.Size
	if size == 0 {
		size = int64(len(doc.Content))
	}
	return book.Content{
		ID:       id,
		FileName: doc.FileName,
		MimeType: doc.MimeType,
		Data:     doc.Content,
		Size:     size,
	}, nil
}

func (r *Repository) PutContent(ctx context.Context, c book.Content) error {
	res, err := r.books.UpdateOne(ctx, bson.M{"_id": c.ID}, bson.M{"$set": bson.M{
		"fileName": c.FileName,
		"mimeType": c.MimeType,
		"content":  c.Data,
		"size":     int64(len(c.Data)),
	}})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return book.BookNotFound(c.ID)
	}
	return nil
}

func (r *Repository) findBooks(ctx context.Context, filter any, opts *options.FindOptions) ([]book.Book, error) {
	opts.SetProjection(bson.M{"content": 0})
	cur, err := r.books.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	var docs []bookDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, err
	}
	return r.resolve(ctx, docs)
}

// resolve loads the referenced authors of docs with one $in query.
func (r *Repository) resolve(ctx context.Context, docs []bookDoc) ([]book.Book, error) {
	if len(docs) == 0 {
		return nil, nil
	}

	ids := make([]int64, 0, len(docs))
	for _, d := range docs {
		ids = append(ids, d.Author.ID)
	}
	cur, err := r.authors.Find(ctx, bson.M{"_id": bson.M{"$in": ids}})
	if err != nil {
		return nil, err
	}
	var authors []authorDoc
	if err := cur.All(ctx, &authors); err != nil {
		return nil, err
	}
	byID := make(map[int64]authorDoc, len(authors))
	for _, a := range authors {
		byID[a.ID] = a
	}

	out := make([]book.Book, 0, len(docs))
	for _, d := range docs {
		a, ok := byID[d.Author.ID]
		if !ok {
			return nil, fmt.Errorf("book %d references missing author %d", d.ID, d.Author.ID)
		}
		out = append(out, d.toBook(a))
	}
	return out, nil
}
