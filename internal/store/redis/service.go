package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/MrSnakeDoc/upsync/internal/domain"
	"github.com/MrSnakeDoc/upsync/internal/logger"
	"github.com/MrSnakeDoc/upsync/internal/session"
)

// Store handles Redis operations for sessions, history, cache and locks
type Store struct {
	client *redis.Client
	logger logger.Logger
}

// NewStore creates a new Redis store
func NewStore(client *redis.Client, log logger.Logger) *Store {
	return &Store{
		client: client,
		logger: log.Named("store"),
	}
}

// Ping checks the connection
func (s *Store) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

// SaveSession stores an offline session and registers its shop
func (s *Store) SaveSession(ctx context.Context, sess session.Session) error {
	if sess.Shop == "" || sess.AccessToken == "" {
		return fmt.Errorf("%w: session requires shop and access token", domain.ErrInvalidProduct)
	}

	data, err := json.Marshal(sess)
	if err != nil {
		return fmt.Errorf("failed to marshal session: %w", err)
	}

	pipe := s.client.TxPipeline()
	pipe.Set(ctx, SessionKey(sess.Shop), data, 0)
	pipe.SAdd(ctx, AllShopsKey(), sess.Shop)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}
	return nil
}

// GetSession retrieves the offline session of a shop.
// A missing session is reported as domain.ErrUnauthorized.
func (s *Store) GetSession(ctx context.Context, shop string) (session.Session, error) {
	data, err := s.client.Get(ctx, SessionKey(shop)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return session.Session{}, fmt.Errorf("%w: no session for %s", domain.ErrUnauthorized, shop)
		}
		return session.Session{}, fmt.Errorf("failed to get session: %w", err)
	}

	var sess session.Session
	if err := json.Unmarshal(data, &sess); err != nil {
		return session.Session{}, fmt.Errorf("failed to unmarshal session: %w", err)
	}
	return sess, nil
}

// ListShops returns every shop with a stored session
func (s *Store) ListShops(ctx context.Context) ([]string, error) {
	shops, err := s.client.SMembers(ctx, AllShopsKey()).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list shops: %w", err)
	}
	return shops, nil
}

// DeleteSession removes a shop session
func (s *Store) DeleteSession(ctx context.Context, shop string) error {
	pipe := s.client.TxPipeline()
	pipe.Del(ctx, SessionKey(shop))
	pipe.SRem(ctx, AllShopsKey(), shop)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	return nil
}
