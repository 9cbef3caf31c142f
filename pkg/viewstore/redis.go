package viewstore

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/nestview/nestview/pkg/errors"
	"github.com/nestview/nestview/pkg/observability"
)

// RedisConfig configures the Redis backend.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int

	// TTL bounds how long a view lives. Zero means no expiry.
	TTL time.Duration
}

// RedisStore keeps views in Redis. Each view is one JSON value; a
// per-graph set tracks membership so List stays a two-round-trip
// operation.
type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
}

var _ Store = (*RedisStore)(nil)

// NewRedisStore connects to Redis and verifies the connection.
func NewRedisStore(ctx context.Context, cfg RedisConfig) (*RedisStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, errors.Wrap(errors.ErrCodeStorage, err, "connect to redis at %s", cfg.Addr)
	}
	return &RedisStore{client: client, ttl: cfg.TTL}, nil
}

func viewKey(id string) string       { return "nestview:view:" + id }
func graphKey(graphID string) string { return "nestview:graph-views:" + graphID }

// Get implements [Store].
func (s *RedisStore) Get(ctx context.Context, id string) (*View, error) {
	data, err := s.client.Get(ctx, viewKey(id)).Bytes()
	if err == redis.Nil {
		observability.Store().OnMiss(ctx, "redis", keyType)
		return nil, errors.New(errors.ErrCodeViewNotFound, "view %q not found", id)
	}
	if err != nil {
		observability.Store().OnError(ctx, "redis", keyType, err)
		return nil, errors.Wrap(errors.ErrCodeStorage, err, "get view %q", id)
	}

	var v View
	if err := json.Unmarshal(data, &v); err != nil {
		observability.Store().OnError(ctx, "redis", keyType, err)
		return nil, errors.Wrap(errors.ErrCodeStorage, err, "parse view %q", id)
	}
	observability.Store().OnHit(ctx, "redis", keyType)
	return &v, nil
}

// Put implements [Store].
func (s *RedisStore) Put(ctx context.Context, v *View) error {
	if err := validateView(v); err != nil {
		return err
	}
	data, err := json.Marshal(v)
	if err != nil {
		return errors.Wrap(errors.ErrCodeStorage, err, "marshal view %q", v.ID)
	}

	pipe := s.client.TxPipeline()
	pipe.Set(ctx, viewKey(v.ID), data, s.ttl)
	pipe.SAdd(ctx, graphKey(v.GraphID), v.ID)
	if s.ttl > 0 {
		pipe.Expire(ctx, graphKey(v.GraphID), s.ttl)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		observability.Store().OnError(ctx, "redis", keyType, err)
		return errors.Wrap(errors.ErrCodeStorage, err, "store view %q", v.ID)
	}
	observability.Store().OnWrite(ctx, "redis", keyType, len(data))
	return nil
}

// Delete implements [Store].
func (s *RedisStore) Delete(ctx context.Context, id string) error {
	// Membership cleanup needs the graph ID; a missing view means
	// there is nothing left to clean up.
	v, err := s.Get(ctx, id)
	if errors.Is(err, errors.ErrCodeViewNotFound) {
		return nil
	}
	if err != nil {
		return err
	}

	pipe := s.client.TxPipeline()
	pipe.Del(ctx, viewKey(id))
	pipe.SRem(ctx, graphKey(v.GraphID), id)
	if _, err := pipe.Exec(ctx); err != nil {
		observability.Store().OnError(ctx, "redis", keyType, err)
		return errors.Wrap(errors.ErrCodeStorage, err, "delete view %q", id)
	}
	return nil
}

// List implements [Store].
func (s *RedisStore) List(ctx context.Context, graphID string) ([]View, error) {
	ids, err := s.client.SMembers(ctx, graphKey(graphID)).Result()
	if err != nil {
		observability.Store().OnError(ctx, "redis", keyType, err)
		return nil, errors.Wrap(errors.ErrCodeStorage, err, "list views for %q", graphID)
	}

	var out []View
	for _, id := range ids {
		v, err := s.Get(ctx, id)
		if errors.Is(err, errors.ErrCodeViewNotFound) {
			// Expired view; drop the stale membership entry.
			s.client.SRem(ctx, graphKey(graphID), id)
			continue
		}
		if err != nil {
			return nil, err
		}
		out = append(out, *v)
	}
	sortViews(out)
	return out, nil
}

// Close implements [Store].
func (s *RedisStore) Close(context.Context) error {
	return s.client.Close()
}
