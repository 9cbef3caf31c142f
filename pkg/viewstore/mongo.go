package viewstore

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/nestview/nestview/pkg/errors"
	"github.com/nestview/nestview/pkg/observability"
)

// MongoConfig configures the MongoDB backend.
type MongoConfig struct {
	URI        string
	Database   string
	Collection string
}

// MongoStore keeps views in a MongoDB collection, one document per
// view with the view ID as _id.
type MongoStore struct {
	client *mongo.Client
	coll   *mongo.Collection
}

var _ Store = (*MongoStore)(nil)

// NewMongoStore connects to MongoDB and verifies the connection.
func NewMongoStore(ctx context.Context, cfg MongoConfig) (*MongoStore, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.URI))
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeStorage, err, "connect to mongodb")
	}
	if err := client.Ping(ctx, nil); err != nil {
		client.Disconnect(ctx)
		return nil, errors.Wrap(errors.ErrCodeStorage, err, "ping mongodb")
	}

	db := cfg.Database
	if db == "" {
		db = "nestview"
	}
	coll := cfg.Collection
	if coll == "" {
		coll = "views"
	}
	return &MongoStore{client: client, coll: client.Database(db).Collection(coll)}, nil
}

// Get implements [Store].
func (s *MongoStore) Get(ctx context.Context, id string) (*View, error) {
	var v View
	err := s.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&v)
	if err == mongo.ErrNoDocuments {
		observability.Store().OnMiss(ctx, "mongo", keyType)
		return nil, errors.New(errors.ErrCodeViewNotFound, "view %q not found", id)
	}
	if err != nil {
		observability.Store().OnError(ctx, "mongo", keyType, err)
		return nil, errors.Wrap(errors.ErrCodeStorage, err, "get view %q", id)
	}
	observability.Store().OnHit(ctx, "mongo", keyType)
	return &v, nil
}

// Put implements [Store].
func (s *MongoStore) Put(ctx context.Context, v *View) error {
	if err := validateView(v); err != nil {
		return err
	}
	opts := options.Replace().SetUpsert(true)
	if _, err := s.coll.ReplaceOne(ctx, bson.M{"_id": v.ID}, v, opts); err != nil {
		observability.Store().OnError(ctx, "mongo", keyType, err)
		return errors.Wrap(errors.ErrCodeStorage, err, "store view %q", v.ID)
	}
	observability.Store().OnWrite(ctx, "mongo", keyType, len(v.Collapsed))
	return nil
}

// Delete implements [Store].
func (s *MongoStore) Delete(ctx context.Context, id string) error {
	if _, err := s.coll.DeleteOne(ctx, bson.M{"_id": id}); err != nil {
		observability.Store().OnError(ctx, "mongo", keyType, err)
		return errors.Wrap(errors.ErrCodeStorage, err, "delete view %q", id)
	}
	return nil
}

// List implements [Store].
func (s *MongoStore) List(ctx context.Context, graphID string) ([]View, error) {
	cur, err := s.coll.Find(ctx, bson.M{"graph_id": graphID})
	if err != nil {
		observability.Store().OnError(ctx, "mongo", keyType, err)
		return nil, errors.Wrap(errors.ErrCodeStorage, err, "list views for %q", graphID)
	}
	var out []View
	if err := cur.All(ctx, &out); err != nil {
		observability.Store().OnError(ctx, "mongo", keyType, err)
		return nil, errors.Wrap(errors.ErrCodeStorage, err, "decode views for %q", graphID)
	}
	sortViews(out)
	return out, nil
}

// Close implements [Store].
func (s *MongoStore) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}
