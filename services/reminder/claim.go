package reminder

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/go-redis/redis/v8"
)

const claimKeyPrefix = "reminder:claim:"

// RedisClaimer leases bookings to a single sweeper with SET NX.
type RedisClaimer struct {
	client *redis.Client
	ttl    time.Duration
	owner  string
}

// NewRedisClaimer leases claims for ttl. The ttl should outlive the reminder
// window so a sent-but-unmarked booking is not picked up again.
func NewRedisClaimer(client *redis.Client, ttl time.Duration) *RedisClaimer {
	if ttl <= 0 {
		ttl = 30 * time.Minute
	}
	host, _ := os.Hostname()
	return &RedisClaimer{client: client, ttl: ttl, owner: fmt.Sprintf("%s:%d", host, os.Getpid())}
}

func (c *RedisClaimer) Claim(ctx context.Context, bookingID string) (bool, error) {
	ok, err := c.client.SetNX(ctx, claimKeyPrefix+bookingID, c.owner, c.ttl).Result()
	if err != nil {
		return false, fmt.Errorf("redis claim %s: %w", bookingID, err)
	}
	return ok, nil
}

func (c *RedisClaimer) Release(ctx context.Context, bookingID string) error {
	if err := c.client.Del(ctx, claimKeyPrefix+bookingID).Err(); err != nil {
		return fmt.Errorf("redis release %s: %w", bookingID, err)
	}
	return nil
}
