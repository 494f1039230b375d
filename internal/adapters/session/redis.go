package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	domain "seacomms/internal/domain/session"
)

// KeyPrefix namespaces session keys in Redis.
const KeyPrefix = "seacomms:session:"

// RedisRegistry is a Registry shared between processes. Expiry is left to Redis key TTLs.
type RedisRegistry struct {
	client *redis.Client
	now    func() time.Time
}

var _ Registry = (*RedisRegistry)(nil)

// NewRedisRegistry creates a registry backed by the Redis server at addr.
func NewRedisRegistry(addr, password string, db int) *RedisRegistry {
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	return &RedisRegistry{client: rdb, now: time.Now}
}

// Ping checks connectivity.
func (r *RedisRegistry) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

// Close releases the client's connections.
func (r *RedisRegistry) Close() error {
	return r.client.Close()
}

func sessionKey(id string) string {
	return KeyPrefix + id
}

// Put stores s with a TTL matching its remaining lifetime.
// PRE: s.ID is non-empty
// POST: the key expires when the session does; already-expired sessions are not stored
func (r *RedisRegistry) Put(ctx context.Context, s domain.Session) error {
	ttl := s.ExpiresAt.Sub(r.now())
	if ttl <= 0 {
		return nil
	}
	payload, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("encode session: %w", err)
	}
	if err := r.client.Set(ctx, sessionKey(s.ID), payload, ttl).Err(); err != nil {
		return fmt.Errorf("redis set session: %w", err)
	}
	return nil
}

// Get returns the session with id, or domain.ErrNotFound.
func (r *RedisRegistry) Get(ctx context.Context, id string) (domain.Session, error) {
	payload, err := r.client.Get(ctx, sessionKey(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return domain.Session{}, domain.ErrNotFound
	}
	if err != nil {
		return domain.Session{}, fmt.Errorf("redis get session: %w", err)
	}
	return decodeSession(payload)
}

// Delete atomically removes and returns the session with id.
func (r *RedisRegistry) Delete(ctx context.Context, id string) (domain.Session, bool, error) {
	payload, err := r.client.GetDel(ctx, sessionKey(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return domain.Session{}, false, nil
	}
	if err != nil {
		return domain.Session{}, false, fmt.Errorf("redis delete session: %w", err)
	}
	s, err := decodeSession(payload)
	return s, err == nil, err
}

func decodeSession(payload []byte) (domain.Session, error) {
	var s domain.Session
	if err := json.Unmarshal(payload, &s); err != nil {
		return domain.Session{}, fmt.Errorf("decode session: %w", err)
	}
	return s, nil
}
