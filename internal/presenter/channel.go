package presenter

import (
	"context"
	"sync"
)

// Channel is a named publish/subscribe transport. Delivery is at-least-once
// per live subscriber and unordered across publishers; subscribers that
// fall behind lose messages rather than block the publisher.
type Channel interface {
	Publish(ctx context.Context, session string, msg Message) error
	Subscribe(ctx context.Context, session string) (Subscription, error)
}

type Subscription interface {
	C() <-chan Message
	Close() error
}

const subscriptionBuffer = 32

// Hub is the in-process Channel used when Redis is not configured.
type Hub struct {
	mu   sync.Mutex
	subs map[string]map[*hubSub]struct{}
}

func NewHub() *Hub {
	return &Hub{subs: make(map[string]map[*hubSub]struct{})}
}

func (h *Hub) Publish(_ context.Context, session string, msg Message) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	for s := range h.subs[session] {
		select {
		case s.ch <- msg:
		default:
		}
	}
	return nil
}

func (h *Hub) Subscribe(_ context.Context, session string) (Subscription, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	s := &hubSub{hub: h, session: session, ch: make(chan Message, subscriptionBuffer)}
	if h.subs[session] == nil {
		h.subs[session] = make(map[*hubSub]struct{})
	}
	h.subs[session][s] = struct{}{}
	return s, nil
}

// Subscribers reports the number of live subscriptions on session.
func (h *Hub) Subscribers(session string) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs[session])
}

type hubSub struct {
	hub     *Hub
	session string
	ch      chan Message
	once    sync.Once
}

func (s *hubSub) C() <-chan Message { return s.ch }

func (s *hubSub) Close() error {
	s.once.Do(func() {
		s.hub.mu.Lock()
		defer s.hub.mu.Unlock()
		delete(s.hub.subs[s.session], s)
		if len(s.hub.subs[s.session]) == 0 {
			delete(s.hub.subs, s.session)
		}
		close(s.ch)
	})
	return nil
}
