package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/markjakearzadon/eduplus-gobackend/internal/models"
)

const opTimeout = 5 * time.Second

// now is truncated to what Mongo stores so returned documents match reads.
func now() time.Time {
	return time.Now().UTC().Truncate(time.Millisecond)
}

func objectID(id string) (primitive.ObjectID, error) {
	objID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return primitive.NilObjectID, fmt.Errorf("%w: %q", ErrInvalidID, id)
	}
	return objID, nil
}

func newestFirst(field string) *options.FindOptions {
	return options.Find().SetSort(bson.D{{Key: field, Value: -1}})
}

func findAll[T any](ctx context.Context, coll *mongo.Collection, filter any, opts ...*options.FindOptions) ([]T, error) {
	cur, err := coll.Find(ctx, filter, opts...)
	if err != nil {
		return nil, fmt.Errorf("find %s: %w", coll.Name(), err)
	}
	defer cur.Close(ctx)

	var out []T
	if err := cur.All(ctx, &out); err != nil {
		return nil, fmt.Errorf("decode %s: %w", coll.Name(), err)
	}
	if out == nil {
		out = []T{}
	}
	return out, nil
}

func findOne[T any](ctx context.Context, coll *mongo.Collection, filter any, opts ...*options.FindOneOptions) (*T, error) {
	var doc T
	if err := coll.FindOne(ctx, filter, opts...).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("find %s: %w", coll.Name(), err)
	}
	return &doc, nil
}

// transition moves a pending document matching filter to status to. It
// reports ErrNotFound when filter matches nothing and ErrConflict when the
// document has already left pending.
func transition(ctx context.Context, coll *mongo.Collection, filter bson.M, to models.Status) (*mongo.UpdateResult, error) {
	if !to.Terminal() {
		return nil, ErrInvalidStatus
	}

	guarded := bson.M{"status": models.StatusPending}
	for k, v := range filter {
		guarded[k] = v
	}
	res, err := coll.UpdateOne(ctx, guarded, bson.M{"$set": bson.M{"status": to}})
	if err != nil {
		return nil, fmt.Errorf("update %s status: %w", coll.Name(), err)
	}
	if res.MatchedCount > 0 {
		return res, nil
	}

	n, err := coll.CountDocuments(ctx, filter, options.Count().SetLimit(1))
	if err != nil {
		return nil, fmt.Errorf("count %s: %w", coll.Name(), err)
	}
	if n == 0 {
		return nil, ErrNotFound
	}
	return nil, fmt.Errorf("%w: status is no longer pending", ErrConflict)
}
