package shared

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// ProposalActivationLockKey builds the redis key guarding a proposal activation.
func ProposalActivationLockKey(proposalID int64) string {
	return fmt.Sprintf("proposal:%d:activation", proposalID)
}

// ContractSequenceKey builds the redis counter key for a client's contract numbers in a year.
func ContractSequenceKey(clientID int64, year int) string {
	return fmt.Sprintf("contract:client:%d:%d:seq", clientID, year)
}

var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// RedisLocker hands out short-lived exclusive locks using SET NX.
type RedisLocker struct {
	client redis.Cmdable
}

// NewRedisLocker constructs a locker.
func NewRedisLocker(client redis.Cmdable) *RedisLocker {
	return &RedisLocker{client: client}
}

// Acquire takes the lock for ttl. ErrLockHeld is returned when another owner holds it.
// The returned release func only deletes the key while this owner still holds it.
func (l *RedisLocker) Acquire(ctx context.Context, key string, ttl time.Duration) (func(context.Context) error, error) {
	token := uuid.NewString()
	ok, err := l.client.SetNX(ctx, key, token, ttl).Result()
	if err != nil {
		return nil, fmt.Errorf("acquire lock %s: %w", key, err)
	}
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrLockHeld, key)
	}
	release := func(ctx context.Context) error {
		return releaseScript.Run(ctx, l.client, []string{key}, token).Err()
	}
	return release, nil
}
