// Package mongodb implements the domain repositories on MongoDB.
package mongodb

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/duynhne/portfolio-service/internal/core/domain"
)

// documentCollection holds the operations shared by the user and portfolio
// repositories. notFound is returned when a lookup or update matches nothing.
type documentCollection struct {
	coll     *mongo.Collection
	notFound error
}

func newDocumentCollection(db *mongo.Database, name string, notFound error) documentCollection {
	return documentCollection{coll: db.Collection(name), notFound: notFound}
}

// matchID builds an equality filter on field. Ids travel as strings, so a
// 24-hex id also matches the ObjectID form and a decimal id also matches the
// numeric form. Documents inserted by other clients are found either way.
func matchID(field, id string) bson.M {
	if oid, err := primitive.ObjectIDFromHex(id); err == nil {
		return bson.M{field: bson.M{"$in": bson.A{id, oid}}}
	}
	// numeric comparison in MongoDB spans int32, int64 and double
	if n, err := strconv.ParseInt(id, 10, 64); err == nil && strconv.FormatInt(n, 10) == id {
		return bson.M{field: bson.M{"$in": bson.A{id, n}}}
	}
	return bson.M{field: id}
}

func (c documentCollection) findOne(ctx context.Context, op string, filter bson.M) (doc domain.Document, err error) {
	defer observe(c.coll.Name(), op, time.Now(), &err, c.notFound)

	err = c.coll.FindOne(ctx, filter).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, c.notFound
	}
	if err != nil {
		return nil, fmt.Errorf("find in %s: %w", c.coll.Name(), err)
	}
	return doc, nil
}

func (c documentCollection) updateByID(ctx context.Context, op, id string, fields domain.Document) (doc domain.Document, err error) {
	if id == "" {
		return nil, domain.ErrInvalidID
	}

	set := fields.Fields()
	if len(set) == 0 {
		// $set rejects an empty document; an empty edit returns the stored state.
		return c.findOne(ctx, op, matchID(domain.IDField, id))
	}

	defer observe(c.coll.Name(), op, time.Now(), &err, c.notFound)

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	err = c.coll.FindOneAndUpdate(ctx, matchID(domain.IDField, id), bson.M{"$set": set}, opts).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, c.notFound
	}
	if err != nil {
		return nil, fmt.Errorf("update %s %q: %w", c.coll.Name(), id, err)
	}
	return doc, nil
}

func (c documentCollection) insert(ctx context.Context, doc domain.Document) (id string, err error) {
	defer observe(c.coll.Name(), "insert", time.Now(), &err, nil)

	res, err := c.coll.InsertOne(ctx, doc)
	if err != nil {
		return "", fmt.Errorf("insert into %s: %w", c.coll.Name(), err)
	}
	id, ok := domain.NormalizeID(res.InsertedID)
	if !ok {
		return "", fmt.Errorf("insert into %s: unsupported id type %T", c.coll.Name(), res.InsertedID)
	}
	return id, nil
}

func (c documentCollection) clear(ctx context.Context) (n int64, err error) {
	defer observe(c.coll.Name(), "clear", time.Now(), &err, nil)

	res, err := c.coll.DeleteMany(ctx, bson.D{})
	if err != nil {
		return 0, fmt.Errorf("clear %s: %w", c.coll.Name(), err)
	}
	return res.DeletedCount, nil
}
