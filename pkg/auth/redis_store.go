package auth

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisRevocationStore keeps refresh token records in Redis as hashes
// with a TTL matching the token lifetime, so revocation state is shared
// across processes and expired records clean themselves up.
type RedisRevocationStore struct {
	client redis.UniversalClient
	prefix string
}

// RedisRevocationStoreOption configures a RedisRevocationStore.
type RedisRevocationStoreOption func(*RedisRevocationStore)

// WithKeyPrefix overrides the prefix prepended to every Redis key.
func WithKeyPrefix(prefix string) RedisRevocationStoreOption {
	return func(s *RedisRevocationStore) {
		if prefix != "" {
			s.prefix = prefix
		}
	}
}

// NewRedisRevocationStore creates a Redis-backed revocation store.
func NewRedisRevocationStore(client redis.UniversalClient, opts ...RedisRevocationStoreOption) (*RedisRevocationStore, error) {
	if client == nil {
		return nil, ErrStoreRequired
	}

	s := &RedisRevocationStore{
		client: client,
		prefix: "auth:refresh",
	}

	for _, opt := range opts {
		opt(s)
	}

	return s, nil
}

// Save implements RevocationStore.
func (s *RedisRevocationStore) Save(ctx context.Context, jti string, rec RefreshRecord, ttl time.Duration) error {
	key := s.key(jti)

	pipe := s.client.TxPipeline()
	pipe.HSet(ctx, key, "user_id", rec.UserID, "active", boolField(rec.Active))
	pipe.Expire(ctx, key, ttl)
	_, err := pipe.Exec(ctx)
	return err
}

// Get implements RevocationStore.
func (s *RedisRevocationStore) Get(ctx context.Context, jti string) (RefreshRecord, error) {
	fields, err := s.client.HGetAll(ctx, s.key(jti)).Result()
	if err != nil {
		return RefreshRecord{}, err
	}
	if len(fields) == 0 {
		return RefreshRecord{}, ErrTokenNotFound
	}

	return RefreshRecord{
		UserID: fields["user_id"],
		Active: fields["active"] == "1",
	}, nil
}

// Revoke implements RevocationStore.
func (s *RedisRevocationStore) Revoke(ctx context.Context, jti string) error {
	key := s.key(jti)

	exists, err := s.client.Exists(ctx, key).Result()
	if err != nil {
		return err
	}
	if exists == 0 {
		return ErrTokenNotFound
	}

	// HSet keeps the key's TTL, so the tombstone expires with the token.
	if err := s.client.HSet(ctx, key, "active", "0").Err(); err != nil {
		return err
	}
	return nil
}

func (s *RedisRevocationStore) key(jti string) string {
	return s.prefix + ":" + jti
}

func boolField(b bool) string {
	if b {
		return "1"
	}
	return "0"
}
