// Package notifications provides real-time notification and chat delivery.
package notifications

import (
	"context"
	"log"
	"runtime/debug"
	"strconv"
	"strings"

	"github.com/redis/go-redis/v9"

	"campuswell/internal/observability"
)

// Notifier provides helpers to publish realtime payloads into Redis channels
// so pushes from any instance reach clients connected to another one.
type Notifier struct {
	rdb *redis.Client
}

// NewNotifier creates a new Notifier instance using the provided Redis client.
func NewNotifier(rdb *redis.Client) *Notifier {
	return &Notifier{rdb: rdb}
}

// PublishUser sends a notification payload to a user's channel.
func (n *Notifier) PublishUser(ctx context.Context, userID uint, payload string) error {
	if n.rdb == nil {
		return nil
	}
	if err := n.rdb.Publish(ctx, UserChannel(userID), payload).Err(); err != nil {
		return err
	}
	observability.NotificationsPublished.WithLabelValues("user").Inc()
	return nil
}

// PublishBroadcast sends a notification payload to all connected users.
func (n *Notifier) PublishBroadcast(ctx context.Context, payload string) error {
	if n.rdb == nil {
		return nil
	}
	if err := n.rdb.Publish(ctx, "notifications:broadcast", payload).Err(); err != nil {
		return err
	}
	observability.NotificationsPublished.WithLabelValues("broadcast").Inc()
	return nil
}

// PublishChatMessage publishes a chat frame to the receiver's chat channel.
func (n *Notifier) PublishChatMessage(ctx context.Context, receiverID uint, payload string) error {
	if n.rdb == nil {
		return nil
	}
	if err := n.rdb.Publish(ctx, ChatChannel(receiverID), payload).Err(); err != nil {
		return err
	}
	observability.NotificationsPublished.WithLabelValues("chat").Inc()
	return nil
}

// StartPatternSubscriber subscribes to `notifications:user:*` and the broadcast
// channel and calls onMessage for each incoming message until ctx is cancelled.
func (n *Notifier) StartPatternSubscriber(
	ctx context.Context, onMessage func(channel string, payload string),
) error {
	if n.rdb == nil {
		return nil
	}
	sub := n.rdb.PSubscribe(ctx, "notifications:user:*", "notifications:broadcast")
	runSubscriber(ctx, sub, "PatternSubscriber", onMessage)
	return nil
}

// StartChatSubscriber subscribes to `chat:user:*` and calls onMessage for each
// incoming message until ctx is cancelled.
func (n *Notifier) StartChatSubscriber(
	ctx context.Context, onMessage func(channel string, payload string),
) error {
	if n.rdb == nil {
		return nil
	}
	sub := n.rdb.PSubscribe(ctx, "chat:user:*")
	runSubscriber(ctx, sub, "ChatSubscriber", onMessage)
	return nil
}

func runSubscriber(
	ctx context.Context, sub *redis.PubSub, name string, onMessage func(channel, payload string),
) {
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
				func() {
					defer func() {
						if r := recover(); r != nil {
							log.Printf("PANIC in %s: %v\n%s", name, r, debug.Stack())
						}
					}()
					onMessage(msg.Channel, msg.Payload)
				}()
			}
		}
	}()
}

// UserChannel derives the Redis channel name for a user's notifications.
func UserChannel(userID uint) string {
	return "notifications:user:" + strconv.FormatUint(uint64(userID), 10)
}

// ChatChannel derives the Redis channel name for a user's direct messages.
func ChatChannel(userID uint) string {
	return "chat:user:" + strconv.FormatUint(uint64(userID), 10)
}

// ParseUserChannel extracts the user ID from a per-user channel name such as
// notifications:user:42 or chat:user:42.
func ParseUserChannel(channel string) (uint, bool) {
	idx := strings.LastIndex(channel, ":")
	if idx < 0 {
		return 0, false
	}
	id, err := strconv.ParseUint(channel[idx+1:], 10, 64)
	if err != nil {
		return 0, false
	}
	return uint(id), true
}
