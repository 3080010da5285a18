package presenter

import (
	"brand-builder/internal/domain"
	"context"
	"encoding/json"
	defError "errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

var ErrHandoffNotFound = defError.New("handoff not found or already taken")

// Snapshot is everything a presenter window needs to render before the first
// channel message arrives.
type Snapshot struct {
	Session      string           `json:"session"`
	Presentation *domain.Document `json:"presentation"`
	StartIndex   int              `json:"startIndex"`
}

// Handoff is a one-shot transfer slot: each token can be taken exactly once.
type Handoff interface {
	Put(ctx context.Context, snap Snapshot, ttl time.Duration) (string, error)
	Take(ctx context.Context, token string) (*Snapshot, error)
}

func handoffKey(token string) string {
	return "presenter:handoff:" + token
}

type RedisHandoff struct {
	client *redis.Client
}

func NewRedisHandoff(client *redis.Client) *RedisHandoff {
	return &RedisHandoff{client: client}
}

func (h *RedisHandoff) Put(ctx context.Context, snap Snapshot, ttl time.Duration) (string, error) {
	raw, err := json.Marshal(snap)
	if err != nil {
		return "", err
	}
	token := uuid.NewString()
	if err := h.client.Set(ctx, handoffKey(token), raw, ttl).Err(); err != nil {
		return "", err
	}
	return token, nil
}

func (h *RedisHandoff) Take(ctx context.Context, token string) (*Snapshot, error) {
	raw, err := h.client.GetDel(ctx, handoffKey(token)).Bytes()
	if defError.Is(err, redis.Nil) {
		return nil, ErrHandoffNotFound
	}
	if err != nil {
		return nil, err
	}
	var snap Snapshot
	if err := json.Unmarshal(raw, &snap); err != nil {
		return nil, err
	}
	return &snap, nil
}

type memoryEntry struct {
	snap    Snapshot
	expires time.Time
}

type MemoryHandoff struct {
	mu      sync.Mutex
	entries map[string]memoryEntry
	now     func() time.Time
}

func NewMemoryHandoff() *MemoryHandoff {
	return &MemoryHandoff{entries: make(map[string]memoryEntry), now: time.Now}
}

func (h *MemoryHandoff) Put(_ context.Context, snap Snapshot, ttl time.Duration) (string, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	now := h.now()
	for k, e := range h.entries {
		if now.After(e.expires) {
			delete(h.entries, k)
		}
	}
	token := uuid.NewString()
	h.entries[token] = memoryEntry{snap: snap, expires: now.Add(ttl)}
	return token, nil
}

func (h *MemoryHandoff) Take(_ context.Context, token string) (*Snapshot, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	e, ok := h.entries[token]
	if !ok {
		return nil, ErrHandoffNotFound
	}
	delete(h.entries, token)
	if h.now().After(e.expires) {
		return nil, ErrHandoffNotFound
	}
	return &e.snap, nil
}
