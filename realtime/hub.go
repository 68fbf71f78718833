package realtime

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Hub is an explicit registry of realtime channels keyed by (kind, scope).
// Overlapping views share one underlying channel entry; the entry disappears
// when its last subscriber leaves. Cross-instance delivery rides Redis
// pub/sub; without a Redis client the hub degrades to in-process fan-out.
type Hub struct {
	mu       sync.RWMutex
	channels map[string]*channelState

	rdb    *redis.Client
	logger *zap.SugaredLogger
}

type channelState struct {
	subs map[string]*Subscription
}

// Subscription is one view's handle on a channel. Events are delivered on a
// small buffer with non-blocking sends: a slow consumer drops pings, which is
// acceptable because every ping means "refetch".
type Subscription struct {
	id     string
	key    string
	events chan Event
	hub    *Hub
	once   sync.Once
}

// Events returns the stream of change pings for this subscription.
func (s *Subscription) Events() <-chan Event {
	return s.events
}

// Close releases the subscription. Safe to call more than once; the channel
// entry is removed when the last subscriber closes.
func (s *Subscription) Close() {
	s.once.Do(func() {
		s.hub.release(s.key, s.id)
	})
}

// NewHub creates a hub. rdb may be nil, in which case events stay in-process.
func NewHub(rdb *redis.Client, logger *zap.SugaredLogger) *Hub {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return &Hub{
		channels: make(map[string]*channelState),
		rdb:      rdb,
		logger:   logger,
	}
}

// Start launches the Redis relay that forwards published events to local
// subscribers. It returns immediately; the relay stops when ctx is cancelled.
func (h *Hub) Start(ctx context.Context) {
	if h.rdb == nil {
		return
	}
	go h.relay(ctx)
}

func (h *Hub) relay(ctx context.Context) {
	pubsub := h.rdb.PSubscribe(ctx, "rt:*")
	defer pubsub.Close()

	ch := pubsub.Channel()
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			var ev Event
			if err := json.Unmarshal([]byte(msg.Payload), &ev); err != nil {
				h.logger.Debugf("realtime: dropping malformed event on %s: %v", msg.Channel, err)
				continue
			}
			h.dispatch(msg.Channel, ev)
		}
	}
}

// Subscribe registers a view on the (kind, scope) channel and returns its
// handle. The caller must Close it when the view goes away or its scope
// changes.
func (h *Hub) Subscribe(kind Kind, scope string) *Subscription {
	key := ChannelName(kind, scope)
	sub := &Subscription{
		id:     uuid.New().String(),
		key:    key,
		events: make(chan Event, 8),
		hub:    h,
	}

	h.mu.Lock()
	state, ok := h.channels[key]
	if !ok {
		state = &channelState{subs: make(map[string]*Subscription)}
		h.channels[key] = state
	}
	state.subs[sub.id] = sub
	h.mu.Unlock()

	return sub
}

func (h *Hub) release(key, id string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	state, ok := h.channels[key]
	if !ok {
		return
	}
	if sub, ok := state.subs[id]; ok {
		close(sub.events)
		delete(state.subs, id)
	}
	if len(state.subs) == 0 {
		delete(h.channels, key)
	}
}

// SubscriberCount reports how many views currently share the (kind, scope)
// channel.
func (h *Hub) SubscriberCount(kind Kind, scope string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	state, ok := h.channels[ChannelName(kind, scope)]
	if !ok {
		return 0
	}
	return len(state.subs)
}

// Publish emits a change ping on the (kind, scope) channel. With Redis wired
// the ping travels through pub/sub and comes back via the relay on every
// instance; otherwise, or when the publish fails, it is dispatched locally so
// a single instance keeps working.
func (h *Hub) Publish(ctx context.Context, kind Kind, scope string) {
	ev := Event{Kind: kind, Scope: scope, At: time.Now()}
	key := ChannelName(kind, scope)

	if h.rdb != nil {
		payload, err := json.Marshal(ev)
		if err == nil {
			if err := h.rdb.Publish(ctx, key, payload).Err(); err == nil {
				return
			}
			h.logger.Debugf("realtime: redis publish failed on %s, dispatching locally", key)
		}
	}
	h.dispatch(key, ev)
}

// dispatch delivers under the read lock so it cannot interleave with a close
// in release. Sends are non-blocking, so the lock is held only briefly.
func (h *Hub) dispatch(key string, ev Event) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	state, ok := h.channels[key]
	if !ok {
		return
	}
	for _, sub := range state.subs {
		select {
		case sub.events <- ev:
		default:
			// Buffer full: the consumer is behind and will refetch on the
			// next ping anyway.
		}
	}
}
