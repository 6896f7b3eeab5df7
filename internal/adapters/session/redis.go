package session

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	keyPrefix  = "chainscope:session:"
	sessionTTL = 30 * 24 * time.Hour
)

// RedisStore persists per-user sessions in Redis so repeat analyses survive
// restarts. Entries expire after sessionTTL of inactivity.
type RedisStore struct {
	client *redis.Client
}

func NewRedisStore(addr string) (*RedisStore, error) {
	client := redis.NewClient(&redis.Options{Addr: addr})
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return &RedisStore{client: client}, nil
}

func (s *RedisStore) SaveAddresses(ctx context.Context, userID string, addresses []string) error {
	payload, err := json.Marshal(addresses)
	if err != nil {
		return fmt.Errorf("marshal addresses: %w", err)
	}
	if err := s.client.Set(ctx, keyPrefix+userID, payload, sessionTTL).Err(); err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	return nil
}

func (s *RedisStore) LastAddresses(ctx context.Context, userID string) ([]string, error) {
	payload, err := s.client.Get(ctx, keyPrefix+userID).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load session: %w", err)
	}
	var addresses []string
	if err := json.Unmarshal(payload, &addresses); err != nil {
		return nil, fmt.Errorf("decode session: %w", err)
	}
	return addresses, nil
}

func (s *RedisStore) Close() error {
	return s.client.Close()
}
