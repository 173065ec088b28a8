// internal/app/store/docs/docs.go
package docs

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Store is the document-store surface the entity stores depend on. It is an
// explicit, injected collaborator (no ambient client); tests substitute the
// in-memory fake from testutil.
//
// Implementations must preserve stage order semantics: joins before the
// filters that depend on joined fields, projection after sort.
type Store interface {
	Aggregate(ctx context.Context, collection string, pipeline mongo.Pipeline) ([]bson.M, error)
	AggregateCount(ctx context.Context, collection string, pipeline mongo.Pipeline) (int64, error)
	UpdateOne(ctx context.Context, collection string, filter, patch bson.M) (bson.M, error)
	UpdateMany(ctx context.Context, collection string, filter, update bson.M) (int64, error)
	InsertOne(ctx context.Context, collection string, doc bson.M) (bson.M, error)
	DeleteOne(ctx context.Context, collection string, filter bson.M) (int64, error)
}

// Mongo implements Store on a mongo database handle.
type Mongo struct {
	db *mongo.Database
}

// NewMongo wraps the given database.
func NewMongo(db *mongo.Database) *Mongo { return &Mongo{db: db} }

func (m *Mongo) Aggregate(ctx context.Context, collection string, pipeline mongo.Pipeline) ([]bson.M, error) {
	cur, err := m.db.Collection(collection).Aggregate(ctx, pipeline)
	if err != nil {
		return nil, fmt.Errorf("aggregate %s: %w", collection, err)
	}
	defer cur.Close(ctx)
	var rows []bson.M
	if err := cur.All(ctx, &rows); err != nil {
		return nil, fmt.Errorf("decode %s rows: %w", collection, err)
	}
	return rows, nil
}

// AggregateCount runs a count pipeline and reads the single "total" row.
// Zero matching rows produce no row at all, which counts as zero.
func (m *Mongo) AggregateCount(ctx context.Context, collection string, pipeline mongo.Pipeline) (int64, error) {
	rows, err := m.Aggregate(ctx, collection, pipeline)
	if err != nil {
		return 0, err
	}
	if len(rows) == 0 {
		return 0, nil
	}
	switch t := rows[0]["total"].(type) {
	case int32:
		return int64(t), nil
	case int64:
		return t, nil
	case int:
		return int64(t), nil
	default:
		return 0, fmt.Errorf("count %s: unexpected total type %T", collection, rows[0]["total"])
	}
}

// UpdateOne applies a $set patch to the first matching document and returns
// the updated document (without _id), or nil when nothing matched.
func (m *Mongo) UpdateOne(ctx context.Context, collection string, filter, patch bson.M) (bson.M, error) {
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var updated bson.M
	err := m.db.Collection(collection).
		FindOneAndUpdate(ctx, filter, bson.M{"$set": patch}, opts).
		Decode(&updated)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("update %s: %w", collection, err)
	}
	delete(updated, "_id")
	return updated, nil
}

// UpdateMany applies an arbitrary update document (callers supply their own
// operators, e.g. $pull for back-reference removal) to every match.
func (m *Mongo) UpdateMany(ctx context.Context, collection string, filter, update bson.M) (int64, error) {
	res, err := m.db.Collection(collection).UpdateMany(ctx, filter, update)
	if err != nil {
		return 0, fmt.Errorf("update many %s: %w", collection, err)
	}
	return res.ModifiedCount, nil
}

func (m *Mongo) InsertOne(ctx context.Context, collection string, doc bson.M) (bson.M, error) {
	if _, err := m.db.Collection(collection).InsertOne(ctx, doc); err != nil {
		return nil, fmt.Errorf("insert %s: %w", collection, err)
	}
	out := bson.M{}
	for k, v := range doc {
		if k == "_id" {
			continue
		}
		out[k] = v
	}
	return out, nil
}

func (m *Mongo) DeleteOne(ctx context.Context, collection string, filter bson.M) (int64, error) {
	res, err := m.db.Collection(collection).DeleteOne(ctx, filter)
	if err != nil {
		return 0, fmt.Errorf("delete %s: %w", collection, err)
	}
	return res.DeletedCount, nil
}

// Collection names used across the stores.
const (
	CollVolunteers    = "users"
	CollFacilities    = "facilities"
	CollCongregations = "congregations"
	CollZones         = "zones"
	CollRegions       = "regions"
	CollInmates       = "inmates"
	CollMeetings      = "meetings"
	CollDocuments     = "documents"
)
