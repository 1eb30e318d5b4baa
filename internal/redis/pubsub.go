package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	goredis "github.com/redis/go-redis/v9"
)

// updatesChannel carries ledger-change notifications from the point-mutation
// layer to every running instance of this service.
const updatesChannel = "leaderboard:updates"

// LedgerUpdate is the message published when the ledger changes. The payload
// is informational only; receivers always recompute from storage.
type LedgerUpdate struct {
	Source     string    `json:"source"`
	OccurredAt time.Time `json:"occurred_at"`
}

// PubSub provides the on-demand broadcast trigger via Redis Pub/Sub.
type PubSub struct {
	rdb *goredis.Client
}

func NewPubSub(rdb *goredis.Client) *PubSub {
	return &PubSub{rdb: rdb}
}

// PublishUpdate signals that the point ledger changed. Called by the CSR /
// admin mutation layer after approving submissions or adding points.
func (ps *PubSub) PublishUpdate(ctx context.Context, source string) error {
	msg := LedgerUpdate{Source: source, OccurredAt: time.Now().UTC()}
	data, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("failed to marshal ledger update: %w", err)
	}
	return ps.rdb.Publish(ctx, updatesChannel, data).Err()
}

// Subscription is an active subscription to ledger updates.
type Subscription struct {
	sub    *goredis.PubSub
	Ch     <-chan LedgerUpdate
	cancel context.CancelFunc
}

// Close unsubscribes and closes the subscription.
func (s *Subscription) Close() {
	s.cancel()
	_ = s.sub.Close()
}

// Subscribe listens for ledger updates. Messages are dropped rather than
// queued when the receiver is slow; each update is only a hint to broadcast
// sooner, never the data itself.
func (ps *PubSub) Subscribe(ctx context.Context) *Subscription {
	sub := ps.rdb.Subscribe(ctx, updatesChannel)

	subCtx, cancel := context.WithCancel(ctx)
	ch := make(chan LedgerUpdate, 16)

	go func() {
		defer close(ch)
		msgCh := sub.Channel()
		for {
			select {
			case msg, ok := <-msgCh:
				if !ok {
					return
				}
				var update LedgerUpdate
				if err := json.Unmarshal([]byte(msg.Payload), &update); err != nil {
					slog.Warn("Failed to unmarshal ledger update", "error", err)
					continue
				}
				select {
				case ch <- update:
				default:
					// Drop if receiver is slow
				}
			case <-subCtx.Done():
				return
			}
		}
	}()

	return &Subscription{sub: sub, Ch: ch, cancel: cancel}
}
