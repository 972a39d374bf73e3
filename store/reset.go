package store

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// OpenRedis initializes a Redis client from a DSN and verifies the
// connection.
func OpenRedis(ctx context.Context, dsn string) (*redis.Client, error) {
	opt, err := redis.ParseURL(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse Redis DSN: %w", err)
	}

	opt.PoolSize = 20
	opt.MinIdleConns = 2
	opt.DialTimeout = 5 * time.Second
	opt.ConnMaxIdleTime = 5 * time.Minute

	client := redis.NewClient(opt)
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("ping redis: %w", err)
	}

	return client, nil
}

// ResetCodes keeps one-time password-reset codes in Redis, keyed by
// email with a TTL. A code disappears on first use or on expiry,
// whichever comes first.
type ResetCodes struct {
	client *redis.Client
}

func NewResetCodes(client *redis.Client) *ResetCodes {
	return &ResetCodes{client: client}
}

func resetKey(email string) string {
	return "reset:" + email
}

func (s *ResetCodes) SaveCode(ctx context.Context, email, code string, ttl time.Duration) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := s.client.Set(ctx, resetKey(email), code, ttl).Err(); err != nil {
		return fmt.Errorf("save reset code: %w", err)
	}
	return nil
}

// ConsumeCode deletes the stored code and reports whether it matched.
// A wrong guess also burns the code, so each issued code allows a
// single attempt.
func (s *ResetCodes) ConsumeCode(ctx context.Context, email, code string) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	stored, err := s.client.GetDel(ctx, resetKey(email)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return false, nil
		}
		return false, fmt.Errorf("consume reset code: %w", err)
	}
	return subtle.ConstantTimeCompare([]byte(stored), []byte(code)) == 1, nil
}
