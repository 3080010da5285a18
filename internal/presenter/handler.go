package presenter

import (
	"brand-builder/internal/domain"
	"brand-builder/internal/errors"
	"context"
	defError "errors"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Handler bridges browser windows onto a Channel: the controller posts a
// snapshot and gets a handoff token, the presenter window redeems it once,
// and both sides exchange messages through POST and a server-sent event
// stream.
//
// Every session is followed by a Sync on the instance that opened it. Its
// state can be read back, and the session ends when the controller sends
// CLOSE or the presenter's event stream goes away.
type Handler struct {
	channel      Channel
	handoff      Handoff
	handoffTTL   time.Duration
	heartbeat    time.Duration
	pollInterval time.Duration
	logger       *zap.Logger
	now          func() time.Time

	mu       sync.Mutex
	sessions map[string]*hosted
}

type hosted struct {
	owner  uint64
	mirror *Sync
	window *streamWindow
}

func NewHandler(channel Channel, handoff Handoff, handoffTTL, heartbeat time.Duration, logger *zap.Logger) *Handler {
	if heartbeat <= 0 {
		heartbeat = 15 * time.Second
	}
	if handoffTTL <= 0 {
		handoffTTL = 5 * time.Minute
	}
	return &Handler{
		channel:      channel,
		handoff:      handoff,
		handoffTTL:   handoffTTL,
		heartbeat:    heartbeat,
		pollInterval: time.Second,
		logger:       logger,
		now:          time.Now,
		sessions:     make(map[string]*hosted),
	}
}

// streamWindow is the presenter window as the server sees it: open while the
// presenter's event stream is connected. A handoff nobody redeems before it
// expires counts as closed.
type streamWindow struct {
	mu       sync.Mutex
	deadline time.Time
	now      func() time.Time
	streams  int
	attached bool
	closed   bool
}

func (w *streamWindow) attach() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.streams++
	w.attached = true
}

func (w *streamWindow) detach() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.streams--
	if w.streams <= 0 {
		w.closed = true
	}
}

func (w *streamWindow) Closed() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.closed || (!w.attached && w.now().After(w.deadline))
}

func (w *streamWindow) Close() {
	w.mu.Lock()
	w.closed = true
	w.mu.Unlock()
}

type OpenRequest struct {
	Presentation *domain.Document `json:"presentation" binding:"required"`
	StartIndex   int              `json:"startIndex" binding:"min=0"`
}

func (h *Handler) OpenSession(c *gin.Context) {
	var form OpenRequest
	if err := c.ShouldBindJSON(&form); err != nil {
		c.Error(errors.BadRequest("Invalid presenter request", err))
		return
	}
	if form.Presentation.Type != domain.DocumentPresentation || len(form.Presentation.Pages) == 0 {
		c.Error(errors.BadRequest("A presentation with at least one slide is required", nil))
		return
	}
	if form.StartIndex >= len(form.Presentation.Pages) {
		form.StartIndex = len(form.Presentation.Pages) - 1
	}

	session := uuid.NewString()
	window := &streamWindow{deadline: h.now().Add(h.handoffTTL), now: h.now}
	mirror := NewSync(h.channel, h.handoff, session, Options{
		PollInterval: h.pollInterval,
		HandoffTTL:   h.handoffTTL,
		Logger:       h.logger,
		OnChange: func(st State) {
			if !st.Open {
				h.forget(session)
			}
		},
	})

	h.mu.Lock()
	h.sessions[session] = &hosted{owner: c.GetUint64("user_id"), mirror: mirror, window: window}
	h.mu.Unlock()

	// the session outlives this request
	ctx := context.WithoutCancel(c.Request.Context())
	token, err := mirror.Open(ctx, Snapshot{
		Presentation: form.Presentation,
		StartIndex:   form.StartIndex,
	}, func(context.Context, string) (Window, error) { return window, nil })
	if err != nil {
		h.forget(session)
		c.Error(errors.Internal(err))
		return
	}

	h.logger.Debug("presenter session opened", zap.String("session", session))
	c.JSON(http.StatusCreated, gin.H{"session": session, "token": token})
}

func (h *Handler) forget(session string) {
	h.mu.Lock()
	delete(h.sessions, session)
	h.mu.Unlock()
}

// owned looks up the session in the URL. Sessions of other users are
// reported as not found.
func (h *Handler) owned(c *gin.Context) (*hosted, bool) {
	h.mu.Lock()
	s, ok := h.sessions[c.Param("session")]
	h.mu.Unlock()
	if !ok || s.owner != c.GetUint64("user_id") {
		c.Error(errors.NotFound("Presenter session not found", nil))
		return nil, false
	}
	return s, true
}

// TakeHandoff returns the snapshot for a token. A token works once.
func (h *Handler) TakeHandoff(c *gin.Context) {
	snap, err := h.handoff.Take(c.Request.Context(), c.Param("token"))
	if err != nil {
		if defError.Is(err, ErrHandoffNotFound) {
			c.Error(errors.NotFound("Presentation handoff not found", err))
			return
		}
		c.Error(errors.Internal(err))
		return
	}
	c.JSON(http.StatusOK, snap)
}

func (h *Handler) Show(c *gin.Context) {
	s, ok := h.owned(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, gin.H{"session": c.Param("session"), "state": s.mirror.State()})
}

// CloseSession ends the session from the server side; both windows receive
// CLOSE.
func (h *Handler) CloseSession(c *gin.Context) {
	s, ok := h.owned(c)
	if !ok {
		return
	}
	if err := s.mirror.Close(c.Request.Context()); err != nil {
		c.Error(errors.Internal(err))
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) PostMessage(c *gin.Context) {
	if _, ok := h.owned(c); !ok {
		return
	}
	var msg Message
	if err := c.ShouldBindJSON(&msg); err != nil {
		c.Error(errors.BadRequest("Invalid message", err))
		return
	}
	if err := msg.Validate(); err != nil {
		c.Error(errors.BadRequest(err.Error(), err))
		return
	}
	if err := h.channel.Publish(c.Request.Context(), c.Param("session"), msg); err != nil {
		c.Error(errors.Internal(err))
		return
	}
	c.Status(http.StatusAccepted)
}

// Events streams session messages as server-sent events until the client goes
// away. Messages the client posted itself (matching ?client=) are skipped.
// The presenter window connects with ?role=presenter; the session ends once
// its last such stream disconnects.
func (h *Handler) Events(c *gin.Context) {
	s, ok := h.owned(c)
	if !ok {
		return
	}
	session := c.Param("session")
	client := c.Query("client")
	ctx := c.Request.Context()

	sub, err := h.channel.Subscribe(ctx, session)
	if err != nil {
		c.Error(errors.Internal(err))
		return
	}
	defer sub.Close()
	if c.Query("role") == "presenter" {
		s.window.attach()
		defer s.window.detach()
	}

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Status(http.StatusOK)
	c.SSEvent("ready", gin.H{"session": session, "state": s.mirror.State()})
	c.Writer.Flush()

	ticker := time.NewTicker(h.heartbeat)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.SSEvent("ping", time.Now().UnixMilli())
			c.Writer.Flush()
		case msg, ok := <-sub.C():
			if !ok {
				return
			}
			if client != "" && msg.Sender == client {
				continue
			}
			c.SSEvent("message", msg)
			c.Writer.Flush()
			if msg.Type == Close {
				h.logger.Debug("presenter session closed", zap.String("session", session))
				return
			}
		}
	}
}

// CloseAll ends every session this instance hosts.
func (h *Handler) CloseAll(ctx context.Context) {
	h.mu.Lock()
	open := make([]*Sync, 0, len(h.sessions))
	for _, s := range h.sessions {
		open = append(open, s.mirror)
	}
	h.mu.Unlock()

	for _, s := range open {
		if err := s.Close(ctx); err != nil {
			h.logger.Warn("close presenter session", zap.String("session", s.session), zap.Error(err))
		}
	}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/sessions", h.OpenSession)
	rg.GET("/handoff/:token", h.TakeHandoff)
	rg.GET("/sessions/:session", h.Show)
	rg.DELETE("/sessions/:session", h.CloseSession)
	rg.POST("/sessions/:session/messages", h.PostMessage)
	rg.GET("/sessions/:session/events", h.Events)
}
