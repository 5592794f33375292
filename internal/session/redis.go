package session

import (
	"context"
	"fmt"
	"time"

	"github.com/bytedance/sonic"
	"github.com/cloudwego/eino/schema"
	"github.com/redis/go-redis/v9"
)

// RedisStore is a session backend for deployments where several processes
// serve the same sessions. Same contract as MemoryStore; entries expire
// after the configured TTL of inactivity.
type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
}

type sessionBlob struct {
	Messages []*schema.Message `json:"messages"`
}

func NewRedisStore(ctx context.Context, redisURL string, ttl time.Duration) (*RedisStore, error) {
	if redisURL == "" {
		return nil, fmt.Errorf("redis URL is required for the redis session backend")
	}

	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse redis URL: %w", err)
	}

	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	return &RedisStore{client: client, ttl: ttl}, nil
}

func sessionKey(sessionID string) string {
	return "session:" + sessionID
}

func (s *RedisStore) load(ctx context.Context, sessionID string) (*sessionBlob, error) {
	data, err := s.client.Get(ctx, sessionKey(sessionID)).Result()
	if err != nil {
		if err == redis.Nil {
			return &sessionBlob{Messages: []*schema.Message{}}, nil
		}
		return nil, fmt.Errorf("failed to load session: %w", err)
	}

	var blob sessionBlob
	if err := sonic.Unmarshal([]byte(data), &blob); err != nil {
		return nil, fmt.Errorf("failed to unmarshal session: %w", err)
	}

	// Refresh TTL on read so active sessions stay alive.
	s.client.Expire(ctx, sessionKey(sessionID), s.ttl)
	return &blob, nil
}

func (s *RedisStore) save(ctx context.Context, sessionID string, blob *sessionBlob) error {
	data, err := sonic.Marshal(blob)
	if err != nil {
		return fmt.Errorf("failed to marshal session: %w", err)
	}
	return s.client.Set(ctx, sessionKey(sessionID), data, s.ttl).Err()
}

func (s *RedisStore) Append(ctx context.Context, sessionID string, message *schema.Message) error {
	blob, err := s.load(ctx, sessionID)
	if err != nil {
		return err
	}
	blob.Messages = append(blob.Messages, message)
	return s.save(ctx, sessionID, blob)
}

func (s *RedisStore) History(ctx context.Context, sessionID string) ([]*schema.Message, error) {
	blob, err := s.load(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	return blob.Messages, nil
}

func (s *RedisStore) Clear(ctx context.Context, sessionID string) error {
	return s.client.Del(ctx, sessionKey(sessionID)).Err()
}

// Close releases the underlying connection pool.
func (s *RedisStore) Close() error {
	return s.client.Close()
}
