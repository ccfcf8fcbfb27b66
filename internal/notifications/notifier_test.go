package notifications

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newNotifier(t *testing.T) (*Notifier, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return NewNotifier(rdb), rdb
}

func TestPublishLoanEvent_NilClient(t *testing.T) {
	var n *Notifier
	assert.NoError(t, n.PublishLoanEvent(context.Background(), LoanEvent{Type: EventBookLent}))
	assert.NoError(t, NewNotifier(nil).PublishLoanEvent(context.Background(), LoanEvent{Type: EventBookLent}))
}

func TestPublishLoanEvent_DeliversToSubscriber(t *testing.T) {
	n, _ := newNotifier(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	type delivery struct {
		channel string
		event   LoanEvent
	}
	got := make(chan delivery, 1)
	require.NoError(t, n.StartPatternSubscriber(ctx, func(channel string, event LoanEvent) {
		got <- delivery{channel, event}
	}))

	require.NoError(t, n.PublishLoanEvent(ctx, LoanEvent{
		Type:      EventBookReturned,
		BookID:    7,
		UserID:    3,
		Title:     "Dune",
		Available: 2,
	}))

	select {
	case d := <-got:
		assert.Equal(t, UserChannel(3), d.channel)
		assert.Equal(t, EventBookReturned, d.event.Type)
		assert.Equal(t, uint(7), d.event.BookID)
		assert.Equal(t, "Dune", d.event.Title)
		assert.Equal(t, 2, d.event.Available)
		assert.False(t, d.event.OccurredAt.IsZero())
	case <-time.After(2 * time.Second):
		t.Fatal("loan event was not delivered")
	}
}

func TestUserChannel(t *testing.T) {
	assert.Equal(t, "loans:user:42", UserChannel(42))
}
