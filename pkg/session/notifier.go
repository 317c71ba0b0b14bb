package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

type AuthEvent string

const (
	AuthSignedIn       AuthEvent = "signed_in"
	AuthSignedOut      AuthEvent = "signed_out"
	AuthProfileUpdated AuthEvent = "profile_updated"
)

type AuthStateChange struct {
	Event      AuthEvent `json:"event"`
	UserId     uuid.UUID `json:"user_id"`
	TokenId    string    `json:"token_id,omitempty"`
	OccurredAt time.Time `json:"occurred_at"`
}

var ErrNotifierUnavailable = errors.New("auth notifier requires redis")

func channelFor(userId uuid.UUID) string {
	return "auth:state:" + userId.String()
}

// Notifier fans auth-state changes out over redis pub/sub.
type Notifier struct {
	rdb *redis.Client
}

func NewNotifier(rdb *redis.Client) *Notifier {
	return &Notifier{rdb: rdb}
}

// Publish is a no-op on a nil notifier or one without redis.
func (n *Notifier) Publish(ctx context.Context, change AuthStateChange) error {
	if n == nil || n.rdb == nil {
		return nil
	}
	if change.OccurredAt.IsZero() {
		change.OccurredAt = time.Now().UTC()
	}
	payload, err := json.Marshal(change)
	if err != nil {
		return err
	}
	return n.rdb.Publish(ctx, channelFor(change.UserId), payload).Err()
}

// Subscribe starts listening for changes of one user. The returned
// subscription must be released with Unsubscribe.
func (n *Notifier) Subscribe(ctx context.Context, userId uuid.UUID) (*Subscription, error) {
	if n == nil || n.rdb == nil {
		return nil, ErrNotifierUnavailable
	}

	ps := n.rdb.Subscribe(ctx, channelFor(userId))
	// Wait for the subscription to be confirmed so no publish is missed.
	if _, err := ps.Receive(ctx); err != nil {
		_ = ps.Close()
		return nil, fmt.Errorf("subscribe auth state: %w", err)
	}

	sub := &Subscription{
		ps:     ps,
		events: make(chan AuthStateChange, 16),
		done:   make(chan struct{}),
	}
	go sub.pump()
	return sub, nil
}

type Subscription struct {
	ps     *redis.PubSub
	events chan AuthStateChange
	done   chan struct{}
	once   sync.Once
}

// Events is closed after Unsubscribe.
func (s *Subscription) Events() <-chan AuthStateChange {
	return s.events
}

func (s *Subscription) pump() {
	defer close(s.events)
	ch := s.ps.Channel()
	for {
		select {
		case <-s.done:
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			var change AuthStateChange
			if err := json.Unmarshal([]byte(msg.Payload), &change); err != nil {
				continue
			}
			select {
			case s.events <- change:
			case <-s.done:
				return
			}
		}
	}
}

func (s *Subscription) Unsubscribe() {
	s.once.Do(func() {
		close(s.done)
		_ = s.ps.Close()
	})
}
