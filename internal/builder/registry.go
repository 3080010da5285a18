package builder

import (
	"context"
	defError "errors"
	"sync"
	"time"

	"brand-builder/internal/domain"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

const notificationLimit = 20

var ErrSessionNotFound = defError.New("builder session not found")

// Documents loads and stores documents on behalf of a user.
type Documents interface {
	Get(ctx context.Context, userID uint64, t domain.DocumentType, id string) (*domain.Document, error)
	Save(ctx context.Context, userID uint64, doc *domain.Document) error
}

type SaverFunc func(ctx context.Context, doc *domain.Document) error

func (f SaverFunc) Save(ctx context.Context, doc *domain.Document) error { return f(ctx, doc) }

type RegistryConfig struct {
	AutosaveDelay time.Duration
	IdleTTL       time.Duration
	Logger        *zap.Logger
}

// Session is one open builder. Callers go through Do so that a builder and
// its canvas only ever see one request at a time.
type Session struct {
	ID     string
	UserID uint64

	mu       sync.Mutex
	builder  *Builder
	canvas   *Canvas
	lastSeen time.Time

	notesMu sync.Mutex
	notes   []Notification
}

// Do runs fn with exclusive access to the session's builder and canvas.
func (s *Session) Do(fn func(b *Builder, c *Canvas)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fn(s.builder, s.canvas)
}

func (s *Session) touch(now time.Time) {
	s.mu.Lock()
	s.lastSeen = now
	s.mu.Unlock()
}

func (s *Session) idleSince() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastSeen
}

func (s *Session) Notify(n Notification) {
	s.notesMu.Lock()
	defer s.notesMu.Unlock()
	s.notes = append(s.notes, n)
	if len(s.notes) > notificationLimit {
		s.notes = s.notes[len(s.notes)-notificationLimit:]
	}
}

// Notifications drains the pending notifications.
func (s *Session) Notifications() []Notification {
	s.notesMu.Lock()
	defer s.notesMu.Unlock()
	out := s.notes
	s.notes = nil
	return out
}

// Registry holds the open builder sessions of every user.
type Registry struct {
	mu       sync.Mutex
	sessions map[string]*Session

	docs   Documents
	cfg    RegistryConfig
	logger *zap.Logger
	cron   *cron.Cron
	now    func() time.Time
}

func NewRegistry(docs Documents, cfg RegistryConfig) *Registry {
	if cfg.IdleTTL <= 0 {
		cfg.IdleTTL = 30 * time.Minute
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	return &Registry{
		sessions: make(map[string]*Session),
		docs:     docs,
		cfg:      cfg,
		logger:   cfg.Logger,
		now:      time.Now,
	}
}

// Open starts a session on an existing document, or on a new unsaved one
// when id is empty.
func (r *Registry) Open(ctx context.Context, userID uint64, t domain.DocumentType, id string) (*Session, error) {
	var doc *domain.Document
	if id == "" {
		doc = domain.NewDocument(t)
	} else {
		var err error
		if doc, err = r.docs.Get(ctx, userID, t, id); err != nil {
			return nil, err
		}
		if err := doc.Validate(); err != nil {
			r.logger.Warn("repairing stored document",
				zap.String("document_id", doc.ID), zap.Error(err))
			doc = doc.Clone()
			doc.Repair()
		}
	}

	s := &Session{ID: domain.NewID(), UserID: userID, lastSeen: r.now()}
	s.builder = New(doc, Options{
		AutosaveDelay: r.cfg.AutosaveDelay,
		Saver: SaverFunc(func(ctx context.Context, doc *domain.Document) error {
			return r.docs.Save(ctx, userID, doc)
		}),
		Notifier: s,
		Logger:   r.logger.With(zap.String("session", s.ID), zap.Uint64("user_id", userID)),
	})
	s.canvas = NewCanvas(s.builder)

	r.mu.Lock()
	r.sessions[s.ID] = s
	r.mu.Unlock()

	r.logger.Info("builder session opened",
		zap.String("session", s.ID), zap.String("document_id", doc.ID), zap.String("type", string(t)))
	return s, nil
}

// Get returns the user's session and marks it as active.
func (r *Registry) Get(userID uint64, sessionID string) (*Session, error) {
	r.mu.Lock()
	s, ok := r.sessions[sessionID]
	r.mu.Unlock()
	if !ok || s.UserID != userID {
		return nil, ErrSessionNotFound
	}
	s.touch(r.now())
	return s, nil
}

// Close removes the session and saves pending changes.
func (r *Registry) Close(ctx context.Context, userID uint64, sessionID string) error {
	r.mu.Lock()
	s, ok := r.sessions[sessionID]
	if !ok || s.UserID != userID {
		r.mu.Unlock()
		return ErrSessionNotFound
	}
	delete(r.sessions, sessionID)
	r.mu.Unlock()

	return s.builder.Close(ctx)
}

func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}

// Evict closes every session idle for longer than the configured TTL and
// returns how many were closed.
func (r *Registry) Evict(ctx context.Context) int {
	cutoff := r.now().Add(-r.cfg.IdleTTL)

	var idle []*Session
	r.mu.Lock()
	for id, s := range r.sessions {
		if s.idleSince().Before(cutoff) {
			idle = append(idle, s)
			delete(r.sessions, id)
		}
	}
	r.mu.Unlock()

	for _, s := range idle {
		if err := s.builder.Close(ctx); err != nil {
			r.logger.Error("save on eviction failed", zap.String("session", s.ID), zap.Error(err))
		}
	}
	if len(idle) > 0 {
		r.logger.Info("evicted idle builder sessions", zap.Int("count", len(idle)))
	}
	return len(idle)
}

// Start schedules eviction with a cron spec such as "@every 1m".
func (r *Registry) Start(spec string) error {
	c := cron.New()
	if _, err := c.AddFunc(spec, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		r.Evict(ctx)
	}); err != nil {
		return err
	}
	r.cron = c
	c.Start()
	return nil
}

// Stop halts eviction and closes every session.
func (r *Registry) Stop(ctx context.Context) {
	if r.cron != nil {
		<-r.cron.Stop().Done()
	}

	r.mu.Lock()
	all := make([]*Session, 0, len(r.sessions))
	for id, s := range r.sessions {
		all = append(all, s)
		delete(r.sessions, id)
	}
	r.mu.Unlock()

	for _, s := range all {
		if err := s.builder.Close(ctx); err != nil {
			r.logger.Error("save on shutdown failed", zap.String("session", s.ID), zap.Error(err))
		}
	}
}
