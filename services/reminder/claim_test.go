package reminder

import (
	"context"
	"testing"
	"time"

	"bookme/models"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return mr, client
}

func TestRedisClaimerLease(t *testing.T) {
	mr, client := newRedis(t)
	ctx := context.Background()
	a := NewRedisClaimer(client, time.Minute)
	b := NewRedisClaimer(client, time.Minute)

	ok, err := a.Claim(ctx, "b-1")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = b.Claim(ctx, "b-1")
	require.NoError(t, err)
	assert.False(t, ok)

	assert.Equal(t, time.Minute, mr.TTL(claimKeyPrefix+"b-1"))

	require.NoError(t, a.Release(ctx, "b-1"))
	ok, err = b.Claim(ctx, "b-1")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestRedisClaimerExpires(t *testing.T) {
	mr, client := newRedis(t)
	ctx := context.Background()
	c := NewRedisClaimer(client, 30*time.Minute)

	ok, err := c.Claim(ctx, "b-1")
	require.NoError(t, err)
	require.True(t, ok)

	mr.FastForward(31 * time.Minute)
	ok, err = c.Claim(ctx, "b-1")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestRedisClaimerUnavailable(t *testing.T) {
	mr, client := newRedis(t)
	mr.Close()

	_, err := NewRedisClaimer(client, time.Minute).Claim(context.Background(), "b-1")
	assert.Error(t, err)
}

func TestTwoSweepersShareOneDelivery(t *testing.T) {
	_, client := newRedis(t)
	now := time.Date(2025, 6, 2, 9, 0, 0, 0, ub)
	src := newFakeSource()
	src.add("b-1", stamp(now.Add(time.Hour)), models.StatusConfirmed, customer())

	// Both replicas list the booking before either marks it.
	listed, err := src.PendingReminders(context.Background(), now, now)
	require.NoError(t, err)
	frozen := &frozenSource{fakeSource: src, candidates: listed}

	notifier := &recordingNotifier{}
	first := newSweeper(frozen, notifier, WithClaimer(NewRedisClaimer(client, 30*time.Minute)))
	second := newSweeper(frozen, notifier, WithClaimer(NewRedisClaimer(client, 30*time.Minute)))

	r1, err := first.Sweep(context.Background(), now)
	require.NoError(t, err)
	r2, err := second.Sweep(context.Background(), now)
	require.NoError(t, err)

	assert.Equal(t, 1, r1.Sent)
	assert.Equal(t, 0, r2.Sent)
	assert.Equal(t, 1, r2.Skipped)
	assert.Equal(t, 1, notifier.count())
}

// frozenSource replays a stale candidate list, as a replica that read before the mark would.
type frozenSource struct {
	*fakeSource
	candidates []models.ReminderCandidate
}

func (f *frozenSource) PendingReminders(context.Context, time.Time, time.Time) ([]models.ReminderCandidate, error) {
	return f.candidates, nil
}
