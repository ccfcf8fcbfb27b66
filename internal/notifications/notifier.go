// Package notifications publishes lending events to Redis channels so other
// processes (mail senders, dashboards) can react to circulation changes.
package notifications

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"runtime/debug"
	"time"

	"github.com/redis/go-redis/v9"
)

// Loan event types.
const (
	EventBookLent     = "book_lent"
	EventBookReturned = "book_returned"
)

const broadcastChannel = "loans:broadcast"

// LoanEvent is the JSON payload published for every lend or return.
type LoanEvent struct {
	Type       string    `json:"type"`
	BookID     uint      `json:"book_id"`
	UserID     uint      `json:"user_id"`
	Title      string    `json:"title"`
	Available  int       `json:"available"`
	OccurredAt time.Time `json:"occurred_at"`
}

// Notifier provides helpers to publish loan events into Redis channels.
// A nil Redis client turns every call into a no-op.
type Notifier struct {
	rdb *redis.Client
}

// NewNotifier creates a new Notifier instance using the provided Redis client.
func NewNotifier(rdb *redis.Client) *Notifier {
	return &Notifier{rdb: rdb}
}

// UserChannel returns the channel carrying events for one borrower.
func UserChannel(userID uint) string {
	return fmt.Sprintf("loans:user:%d", userID)
}

// PublishLoanEvent sends the event to the borrower's channel and the broadcast channel.
func (n *Notifier) PublishLoanEvent(ctx context.Context, event LoanEvent) error {
	if n == nil || n.rdb == nil {
		return nil
	}
	if event.OccurredAt.IsZero() {
		event.OccurredAt = time.Now().UTC()
	}
	payload, err := json.Marshal(event)
	if err != nil {
		return err
	}

	pipe := n.rdb.Pipeline()
	pipe.Publish(ctx, UserChannel(event.UserID), payload)
	pipe.Publish(ctx, broadcastChannel, payload)
	_, err = pipe.Exec(ctx)
	return err
}

// StartPatternSubscriber subscribes to every loan channel and calls onEvent
// for each decodable message until ctx is cancelled.
func (n *Notifier) StartPatternSubscriber(
	ctx context.Context, onEvent func(channel string, event LoanEvent),
) error {
	if n == nil || n.rdb == nil {
		return nil
	}
	sub := n.rdb.PSubscribe(ctx, "loans:user:*")
	// Wait for the subscription confirmation so publishes right after return are not lost.
	if _, err := sub.Receive(ctx); err != nil {
		_ = sub.Close()
		return err
	}
	ch := sub.Channel()

	go func() {
		defer func() { _ = sub.Close() }()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-ch:
				if !ok {
					return
				}
				var event LoanEvent
				if err := json.Unmarshal([]byte(msg.Payload), &event); err != nil {
					log.Printf("notifications: dropping malformed payload on %s: %v", msg.Channel, err)
					continue
				}
				func() {
					defer func() {
						if r := recover(); r != nil {
							log.Printf("PANIC in PatternSubscriber: %v\n%s", r, debug.Stack())
						}
					}()
					onEvent(msg.Channel, event)
				}()
			}
		}
	}()

	return nil
}
