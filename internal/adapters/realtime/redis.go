package realtime

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"

	"github.com/redis/go-redis/v9"
)

// channelPrefix namespaces per-user pub/sub channels.
const channelPrefix = "routines:"

// RedisNotifier fans events out through Redis pub/sub so several server processes
// can share subscriptions.
type RedisNotifier struct {
	client *redis.Client
}

// Compile-time check that RedisNotifier implements Notifier.
var _ Notifier = (*RedisNotifier)(nil)

// NewRedisNotifier connects to addr and verifies the connection.
// PRE: addr is host:port
// POST: Returns a notifier or the ping error
func NewRedisNotifier(ctx context.Context, addr string) (*RedisNotifier, error) {
	client := redis.NewClient(&redis.Options{Addr: addr})
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("redis ping %s: %w", addr, err)
	}
	return NewRedisNotifierWithClient(client), nil
}

// NewRedisNotifierWithClient wraps an existing client.
func NewRedisNotifierWithClient(client *redis.Client) *RedisNotifier {
	return &RedisNotifier{client: client}
}

func channelFor(userID string) string {
	return channelPrefix + userID
}

// Publish sends ev on the user's channel.
// PRE: userID is non-empty
// POST: ev is handed to Redis; delivery to slow subscribers is best effort
func (n *RedisNotifier) Publish(ctx context.Context, userID string, ev ChangeEvent) error {
	payload, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("encode change event: %w", err)
	}
	if err := n.client.Publish(ctx, channelFor(userID), payload).Err(); err != nil {
		return fmt.Errorf("redis publish: %w", err)
	}
	return nil
}

// Subscribe opens a Redis subscription for userID and waits for it to be confirmed.
// PRE: userID is non-empty
// POST: events published after return are delivered until unsubscribe or ctx is done
func (n *RedisNotifier) Subscribe(ctx context.Context, userID string) (<-chan ChangeEvent, func(), error) {
	pubsub := n.client.Subscribe(ctx, channelFor(userID))
	if _, err := pubsub.Receive(ctx); err != nil {
		pubsub.Close()
		return nil, nil, fmt.Errorf("redis subscribe: %w", err)
	}

	out := make(chan ChangeEvent, subscriberBuffer)
	msgs := pubsub.Channel()
	go func() {
		defer close(out)
		for msg := range msgs {
			var ev ChangeEvent
			if err := json.Unmarshal([]byte(msg.Payload), &ev); err != nil {
				slog.Warn("realtime_bad_payload", "channel", msg.Channel, "error", err)
				continue
			}
			select {
			case out <- ev:
			default:
				slog.Warn("realtime_event_dropped", "user_id", userID, "kind", ev.Kind)
			}
		}
	}()

	var once sync.Once
	unsubscribe := func() {
		once.Do(func() {
			// Closing the PubSub closes msgs, which ends the goroutine and closes out.
			if err := pubsub.Close(); err != nil {
				slog.Warn("realtime_unsubscribe_failed", "user_id", userID, "error", err)
			}
		})
	}
	stop := context.AfterFunc(ctx, unsubscribe)

	return out, func() {
		stop()
		unsubscribe()
	}, nil
}

// Close releases the Redis client.
func (n *RedisNotifier) Close() error {
	return n.client.Close()
}
