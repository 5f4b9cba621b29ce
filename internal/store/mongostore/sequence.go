package mongostore

import (
	"context"
	"fmt"

	"booksvc/internal/sequence"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const sequencesCollection = "database_sequences"

// Sequence keeps counters in the database_sequences collection and increments
// them with a single findAndModify.
type Sequence struct {
	coll *mongo.Collection
}

var _ sequence.Generator = (*Sequence)(nil)

func NewSequence(db *mongo.Database) *Sequence {
	return &Sequence{coll: db.Collection(sequencesCollection)}
}

func (s *Sequence) Next(ctx context.Context, name string) (int64, error) {
	opts := options.FindOneAndUpdate().
		SetUpsert(true).
		SetReturnDocument(options.After)

	var doc struct {
		Seq int64 `bson:"seq"`
	}
	err := s.coll.FindOneAndUpdate(ctx, bson.M{"_id": name}, bson.M{"$inc": bson.M{"seq": int64(1)}}, opts).Decode(&doc)
	if mongo.IsDuplicateKeyError(err) {
		// Two first-time upserts raced on the same counter; the loser retries
		// against the document the winner created.
		err = s.coll.FindOneAndUpdate(ctx, bson.M{"_id": name}, bson.M{"$inc": bson.M{"seq": int64(1)}}, opts).Decode(&doc)
	}
	if err != nil {
		return 0, fmt.Errorf("sequence %s: %w", name, err)
	}
	return doc.Seq, nil
}
