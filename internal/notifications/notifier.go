// Package notifications fans card events out to websocket clients over Redis pub/sub.
package notifications

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"runtime/debug"

	"mesto/internal/middleware"
	"mesto/internal/observability"

	"github.com/redis/go-redis/v9"
)

// CardEventsChannel carries every card event.
const CardEventsChannel = "cards:events"

// Card event types.
const (
	EventCardCreated = "card_created"
	EventCardDeleted = "card_deleted"
	EventCardLiked   = "card_liked"
)

// Event is the envelope written to the channel and to websocket clients.
type Event struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// Notifier publishes card events into Redis.
type Notifier struct {
	rdb *redis.Client
}

// NewNotifier creates a Notifier. A nil client turns publishing into a no-op.
func NewNotifier(rdb *redis.Client) *Notifier {
	return &Notifier{rdb: rdb}
}

// PublishCardEvent publishes an event of eventType carrying payload.
func (n *Notifier) PublishCardEvent(ctx context.Context, eventType string, payload any) error {
	if n == nil || n.rdb == nil {
		return nil
	}
	raw, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}
	msg, err := json.Marshal(Event{Type: eventType, Payload: raw})
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}
	if err := n.rdb.Publish(ctx, CardEventsChannel, msg).Err(); err != nil {
		return err
	}
	observability.CardEvents.WithLabelValues(eventType).Inc()
	return nil
}

// StartCardSubscriber subscribes to the card channel and calls onMessage for
// each payload until ctx is cancelled. It returns once the subscription is live.
func (n *Notifier) StartCardSubscriber(ctx context.Context, onMessage func(payload string)) error {
	if n == nil || n.rdb == nil {
		return nil
	}
	sub := n.rdb.Subscribe(ctx, CardEventsChannel)
	if _, err := sub.Receive(ctx); err != nil {
		_ = sub.Close()
		return fmt.Errorf("subscribe %s: %w", CardEventsChannel, err)
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
				func() {
					defer func() {
						if r := recover(); r != nil {
							middleware.Logger.Error("panic in card subscriber",
								slog.Any("panic", r), slog.String("stack", string(debug.Stack())))
						}
					}()
					onMessage(msg.Payload)
				}()
			}
		}
	}()

	return nil
}
