package proposals

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/agencyops/agencyops/internal/shared"
)

// RedisContractNumbers numbers contracts per client using a Redis counter.
type RedisContractNumbers struct {
	client redis.Cmdable
	now    func() time.Time
}

// NewRedisContractNumbers constructs the generator.
func NewRedisContractNumbers(client redis.Cmdable) *RedisContractNumbers {
	return &RedisContractNumbers{client: client, now: time.Now}
}

// Next returns CT-{year}-{client:04}-{seq:03}. The sequence restarts every year.
func (g *RedisContractNumbers) Next(ctx context.Context, clientID int64) (string, error) {
	year := g.now().Year()
	seq, err := g.client.Incr(ctx, shared.ContractSequenceKey(clientID, year)).Result()
	if err != nil {
		return "", fmt.Errorf("contract sequence: %w", err)
	}
	return fmt.Sprintf("CT-%d-%04d-%03d", year, clientID, seq), nil
}

// FallbackContractNumber derives a contract number from the proposal id alone.
func FallbackContractNumber(proposalID int64) string {
	return fmt.Sprintf("CT-P%06d", proposalID)
}
