// Package attrstore provides attribute backends that live outside the process.
package attrstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	backend "github.com/redis/go-redis/v9"

	"github.com/xff16/vesta"
)

const defaultPrefix = "vesta:attrs:"

// Redis keeps the attributes of each scope in one Redis hash. Values are stored as
// JSON, so they come back in their JSON shape (numbers as float64, objects as maps).
type Redis struct {
	client *backend.Client
	prefix string
	ttl    time.Duration
}

type Option func(*Redis)

func WithPrefix(prefix string) Option {
	return func(r *Redis) {
		r.prefix = prefix
	}
}

// WithTTL expires a scope ttl after its last write. Zero keeps scopes forever.
func WithTTL(ttl time.Duration) Option {
	return func(r *Redis) {
		r.ttl = ttl
	}
}

func NewRedis(client *backend.Client, opts ...Option) *Redis {
	r := &Redis{
		client: client,
		prefix: defaultPrefix,
	}

	for _, opt := range opts {
		opt(r)
	}

	return r
}

func (r *Redis) Scope(id string) vesta.AttributeStore {
	return &redisScope{
		backend: r,
		key:     r.prefix + id,
	}
}

func (r *Redis) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

type redisScope struct {
	backend *Redis
	key     string
}

func (s *redisScope) SetAttribute(ctx context.Context, key string, value any) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("cannot encode attribute %q: %w", key, err)
	}

	_, err = s.backend.client.TxPipelined(ctx, func(pipe backend.Pipeliner) error {
		pipe.HSet(ctx, s.key, key, data)
		if s.backend.ttl > 0 {
			pipe.Expire(ctx, s.key, s.backend.ttl)
		}

		return nil
	})
	if err != nil {
		return fmt.Errorf("redis error setting attribute %q: %w", key, err)
	}

	return nil
}

func (s *redisScope) Attribute(ctx context.Context, key string) (any, error) {
	data, err := s.backend.client.HGet(ctx, s.key, key).Bytes()
	if errors.Is(err, backend.Nil) {
		return nil, vesta.ErrAttributeNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("redis error getting attribute %q: %w", key, err)
	}

	var v any
	if err = json.Unmarshal(data, &v); err != nil {
		return nil, fmt.Errorf("cannot decode attribute %q: %w", key, err)
	}

	return v, nil
}
