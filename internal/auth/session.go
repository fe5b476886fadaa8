package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/beyond-silhouette/storefront/internal/domain"
)

const keySession = "session:%s"

// SessionStore resolves opaque session tokens to identities. Tokens are
// random; nothing about the user is recoverable from the token itself.
type SessionStore interface {
	Create(ctx context.Context, sess domain.Session) (string, error)
	Read(ctx context.Context, token string) (*domain.Session, error)
	Delete(ctx context.Context, token string) error
}

// RedisSessions stores sessions as JSON under a TTL key. Expiry is handled by
// Redis; there is no sweeper.
type RedisSessions struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewRedisSessions(rdb *redis.Client, ttl time.Duration) *RedisSessions {
	return &RedisSessions{rdb: rdb, ttl: ttl}
}

func (s *RedisSessions) Create(ctx context.Context, sess domain.Session) (string, error) {
	data, err := json.Marshal(sess)
	if err != nil {
		return "", err
	}

	token := uuid.NewString()
	if err := s.rdb.Set(ctx, fmt.Sprintf(keySession, token), data, s.ttl).Err(); err != nil {
		return "", err
	}

	return token, nil
}

func (s *RedisSessions) Read(ctx context.Context, token string) (*domain.Session, error) {
	data, err := s.rdb.Get(ctx, fmt.Sprintf(keySession, token)).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var sess domain.Session
	if err := json.Unmarshal(data, &sess); err != nil {
		return nil, err
	}

	return &sess, nil
}

func (s *RedisSessions) Delete(ctx context.Context, token string) error {
	return s.rdb.Del(ctx, fmt.Sprintf(keySession, token)).Err()
}
