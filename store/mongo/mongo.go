/*
Package mongo provides the MongoDB implementation of the store Gateway.

PURPOSE:
  The production adapter. The original deployment of this service ran on a
  hosted MongoDB selected by a single MONGO_URI-style connection string;
  this package keeps that contract.

UPSERT:
  Upsert maps onto a single UpdateOne with $set/$setOnInsert and the upsert
  option, so find-and-create is one atomic conditional operation on the
  server. Duplicate-key errors surface as store.ErrConflict.

READINESS:
  Ready pings the primary with a short deadline. The availability gate
  turns a failed ping into a 503 before any business logic runs.
*/
package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"github.com/sabaispa/backoffice/store"
)

// Gateway implements store.Gateway on a MongoDB database.
type Gateway struct {
	client *mongo.Client
	db     *mongo.Database
}

// New connects to the MongoDB instance at uri and selects dbName.
func New(ctx context.Context, uri, dbName string) (*Gateway, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to mongodb: %w", err)
	}
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx, readpref.Primary()); err != nil {
		client.Disconnect(ctx)
		return nil, fmt.Errorf("%w: %v", store.ErrUnavailable, err)
	}
	return &Gateway{client: client, db: client.Database(dbName)}, nil
}

func (g *Gateway) Collection(name string) store.Collection {
	return &collection{col: g.db.Collection(name)}
}

func (g *Gateway) Ready(ctx context.Context) error {
	pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := g.client.Ping(pingCtx, readpref.Primary()); err != nil {
		return fmt.Errorf("%w: %v", store.ErrUnavailable, err)
	}
	return nil
}

func (g *Gateway) Close(ctx context.Context) error {
	return g.client.Disconnect(ctx)
}

// =============================================================================
// COLLECTION
// =============================================================================

type collection struct {
	col *mongo.Collection
}

func (c *collection) EnsureUniqueIndex(ctx context.Context, fields ...string) error {
	keys := bson.D{}
	for _, f := range fields {
		keys = append(keys, bson.E{Key: f, Value: 1})
	}
	_, err := c.col.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    keys,
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		return fmt.Errorf("failed to create unique index on %v: %w", fields, err)
	}
	return nil
}

func (c *collection) FindOne(ctx context.Context, filter store.Filter) (store.Document, error) {
	var raw bson.M
	if err := c.col.FindOne(ctx, toBson(filter)).Decode(&raw); err != nil {
		return nil, mapErr(err)
	}
	return normalize(raw), nil
}

func (c *collection) Find(ctx context.Context, filter store.Filter) ([]store.Document, error) {
	cur, err := c.col.Find(ctx, toBson(filter))
	if err != nil {
		return nil, mapErr(err)
	}
	defer cur.Close(ctx)

	var docs []store.Document
	for cur.Next(ctx) {
		var raw bson.M
		if err := cur.Decode(&raw); err != nil {
			return nil, mapErr(err)
		}
		docs = append(docs, normalize(raw))
	}
	return docs, mapErr(cur.Err())
}

func (c *collection) Insert(ctx context.Context, doc store.Document) (string, error) {
	id, _ := doc[store.IDField].(string)
	if id == "" {
		id = uuid.NewString()
		doc[store.IDField] = id
	}
	if _, err := c.col.InsertOne(ctx, doc); err != nil {
		return "", mapErr(err)
	}
	return id, nil
}

func (c *collection) Update(ctx context.Context, filter store.Filter, set store.Document) (store.Document, error) {
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var raw bson.M
	err := c.col.FindOneAndUpdate(ctx, toBson(filter), bson.M{"$set": set}, opts).Decode(&raw)
	if err != nil {
		return nil, mapErr(err)
	}
	return normalize(raw), nil
}

func (c *collection) Upsert(ctx context.Context, filter store.Filter, set, setOnInsert store.Document) (store.Document, bool, error) {
	onInsert := store.Document{}
	for k, v := range setOnInsert {
		onInsert[k] = v
	}
	if _, ok := onInsert[store.IDField]; !ok {
		onInsert[store.IDField] = uuid.NewString()
	}

	update := bson.M{"$set": set, "$setOnInsert": onInsert}
	res, err := c.col.UpdateOne(ctx, toBson(filter), update, options.Update().SetUpsert(true))
	if err != nil {
		return nil, false, mapErr(err)
	}

	created := res.UpsertedCount > 0
	var raw bson.M
	if created {
		err = c.col.FindOne(ctx, bson.M{"_id": res.UpsertedID}).Decode(&raw)
	} else {
		err = c.col.FindOne(ctx, toBson(filter)).Decode(&raw)
	}
	if err != nil {
		return nil, false, mapErr(err)
	}
	return normalize(raw), created, nil
}

func (c *collection) Delete(ctx context.Context, filter store.Filter) error {
	res, err := c.col.DeleteOne(ctx, toBson(filter))
	if err != nil {
		return mapErr(err)
	}
	if res.DeletedCount == 0 {
		return store.ErrNotFound
	}
	return nil
}

// =============================================================================
// TRANSLATION
// =============================================================================

func toBson(filter store.Filter) bson.M {
	out := bson.M{}
	for _, cond := range filter {
		switch cond.Op {
		case store.OpEq:
			out[cond.Field] = cond.Value
		case store.OpGte:
			out[cond.Field] = merged(out[cond.Field], "$gte", cond.Value)
		case store.OpLte:
			out[cond.Field] = merged(out[cond.Field], "$lte", cond.Value)
		}
	}
	return out
}

// merged folds range operators on the same field into one bson.M.
func merged(existing any, op string, value any) bson.M {
	m, ok := existing.(bson.M)
	if !ok {
		m = bson.M{}
	}
	m[op] = value
	return m
}

// normalize converts driver types into plain Go maps and slices so that
// documents look the same regardless of backend.
func normalize(raw bson.M) store.Document {
	return normalizeMap(raw)
}

func normalizeMap(m map[string]any) map[string]any {
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = normalizeValue(v)
	}
	return out
}

func normalizeValue(v any) any {
	switch t := v.(type) {
	case bson.M:
		return normalizeMap(t)
	case bson.D:
		m := make(map[string]any, len(t))
		for _, e := range t {
			m[e.Key] = normalizeValue(e.Value)
		}
		return m
	case bson.A:
		out := make([]any, len(t))
		for i, e := range t {
			out[i] = normalizeValue(e)
		}
		return out
	case primitive.DateTime:
		return t.Time().UTC()
	case int32:
		return float64(t)
	case int64:
		return float64(t)
	default:
		return v
	}
}

func mapErr(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, mongo.ErrNoDocuments):
		return store.ErrNotFound
	case mongo.IsDuplicateKeyError(err):
		return fmt.Errorf("%w: %v", store.ErrConflict, err)
	case mongo.IsTimeout(err) || mongo.IsNetworkError(err):
		return fmt.Errorf("%w: %v", store.ErrUnavailable, err)
	default:
		return err
	}
}
