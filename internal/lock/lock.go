package lock

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/google/uuid"
	redis "github.com/redis/go-redis/v9"
)

const lockReleaseScript = `
if redis.call("GET", KEYS[1]) == ARGV[1] then
  return redis.call("DEL", KEYS[1])
end
return 0
`

var (
	ErrLockKeyEmpty   = errors.New("lock_key_empty")
	ErrLockTTLInvalid = errors.New("lock_ttl_invalid")
)

// Locker serializes work on a key across processes.
type Locker interface {
	TryLock(ctx context.Context, key string, ttl time.Duration) (string, bool, error)
	Release(ctx context.Context, key, token string) error
}

// SettlementKey is the per-lot key shared by optimizer runs and take-all acceptance.
func SettlementKey(lotID snowflake.ID) string {
	return "lot:" + lotID.String() + ":settlement"
}

type redisLocker struct {
	client *redis.Client
	script *redis.Script
}

// New returns a Redis-backed locker, or a noop locker when Redis is not configured.
func New(client *redis.Client) Locker {
	if client == nil {
		return Noop{}
	}
	return &redisLocker{
		client: client,
		script: redis.NewScript(lockReleaseScript),
	}
}

func (l *redisLocker) TryLock(ctx context.Context, key string, ttl time.Duration) (string, bool, error) {
	if err := validate(key, ttl); err != nil {
		return "", false, err
	}

	token := uuid.NewString()
	ok, err := l.client.SetNX(ctx, key, token, ttl).Result()
	if err != nil {
		return "", false, err
	}
	return token, ok, nil
}

func (l *redisLocker) Release(ctx context.Context, key, token string) error {
	if key == "" || token == "" {
		return nil
	}
	return l.script.Run(ctx, l.client, []string{key}, token).Err()
}

// Noop always grants the lock. The storage constraints remain the only guard.
type Noop struct{}

func (Noop) TryLock(_ context.Context, key string, ttl time.Duration) (string, bool, error) {
	if err := validate(key, ttl); err != nil {
		return "", false, err
	}
	return "", true, nil
}

func (Noop) Release(context.Context, string, string) error { return nil }

func validate(key string, ttl time.Duration) error {
	if key == "" {
		return ErrLockKeyEmpty
	}
	if ttl <= 0 {
		return ErrLockTTLInvalid
	}
	return nil
}
