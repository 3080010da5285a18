package presenter

import (
	"context"
	"encoding/json"
	defError "errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

var (
	ErrNotOpen     = defError.New("presenter session is not open")
	ErrAlreadyOpen = defError.New("presenter session is already open")
)

// Window is the other side's display surface. Closing is only observable by
// polling Closed.
type Window interface {
	Closed() bool
	Close()
}

// Opener opens the presenter window for a handoff token.
type Opener func(ctx context.Context, token string) (Window, error)

type State struct {
	Open      bool  `json:"open"`
	Index     int   `json:"index"`
	Paused    bool  `json:"paused"`
	ElapsedMs int64 `json:"elapsedMs"`
}

type Options struct {
	PollInterval time.Duration
	HandoffTTL   time.Duration
	Logger       *zap.Logger
	// OnChange is called after every state change, outside the lock, from
	// the goroutine that caused it. It must not call Close.
	OnChange func(State)
}

// Sync is one window's end of a presenter session. The controller calls Open,
// the presenter window calls Attach; both then exchange messages on the
// session channel and ignore their own.
type Sync struct {
	channel Channel
	handoff Handoff
	session string
	id      string
	opts    Options

	mu       sync.Mutex
	state    State
	starting bool
	sub      Subscription
	window Window
	self   bool
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func NewSync(channel Channel, handoff Handoff, session string, opts Options) *Sync {
	if opts.PollInterval <= 0 {
		opts.PollInterval = time.Second
	}
	if opts.HandoffTTL <= 0 {
		opts.HandoffTTL = 5 * time.Minute
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	return &Sync{
		channel: channel,
		handoff: handoff,
		session: session,
		id:      uuid.NewString(),
		opts:    opts,
	}
}

func (s *Sync) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Open stores the snapshot in the handoff slot, opens the presenter window
// and starts watching it. It returns the handoff token.
func (s *Sync) Open(ctx context.Context, snap Snapshot, open Opener) (string, error) {
	if err := s.reserve(); err != nil {
		return "", err
	}

	snap.Session = s.session
	token, err := s.handoff.Put(ctx, snap, s.opts.HandoffTTL)
	if err != nil {
		s.release()
		return "", err
	}
	sub, err := s.channel.Subscribe(ctx, s.session)
	if err != nil {
		s.release()
		return "", err
	}
	w, err := open(ctx, token)
	if err != nil {
		_ = sub.Close()
		s.release()
		return "", err
	}

	s.start(sub, w, false, snap.StartIndex)
	return token, nil
}

// Attach takes the handoff for token and joins the session as the presenter.
// self is the presenter's own window; it is closed when the controller sends
// CLOSE.
func (s *Sync) Attach(ctx context.Context, token string, self Window) (*Snapshot, error) {
	if err := s.reserve(); err != nil {
		return nil, err
	}
	snap, err := s.handoff.Take(ctx, token)
	if err != nil {
		s.release()
		return nil, err
	}
	sub, err := s.channel.Subscribe(ctx, s.session)
	if err != nil {
		s.release()
		return nil, err
	}
	s.start(sub, self, true, snap.StartIndex)
	return snap, nil
}

// reserve claims the session for one Open or Attach at a time.
func (s *Sync) reserve() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state.Open || s.starting {
		return ErrAlreadyOpen
	}
	s.starting = true
	return nil
}

func (s *Sync) release() {
	s.mu.Lock()
	s.starting = false
	s.mu.Unlock()
}

func (s *Sync) start(sub Subscription, w Window, self bool, index int) {
	ctx, cancel := context.WithCancel(context.Background())

	s.mu.Lock()
	s.starting = false
	s.sub = sub
	s.window = w
	s.self = self
	s.cancel = cancel
	s.state = State{Open: true, Index: index}
	st := s.state
	s.mu.Unlock()

	s.wg.Add(1)
	go s.receive(ctx, sub)
	if !self && w != nil {
		s.wg.Add(1)
		go s.poll(ctx, w)
	}
	s.changed(st)
}

func (s *Sync) receive(ctx context.Context, sub Subscription) {
	defer s.wg.Done()
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-sub.C():
			if !ok {
				return
			}
			if msg.Sender == s.id {
				continue
			}
			s.handle(msg)
		}
	}
}

func (s *Sync) handle(msg Message) {
	if err := msg.Validate(); err != nil {
		s.opts.Logger.Warn("drop presenter message", zap.String("session", s.session), zap.Error(err))
		return
	}
	s.mu.Lock()
	if !s.state.Open {
		s.mu.Unlock()
		return
	}
	switch msg.Type {
	case SlideChange:
		var p SlidePayload
		_ = json.Unmarshal(msg.Payload, &p)
		s.state.Index = p.Index
	case Pause:
		s.state.Paused = true
	case Resume:
		s.state.Paused = false
	case TimerUpdate:
		var p TimerPayload
		_ = json.Unmarshal(msg.Payload, &p)
		s.state.ElapsedMs = p.ElapsedMs
	case Close:
		// the controller closes the presenter; the presenter closing only
		// resets the controller
		s.teardownLocked(s.self)
	default:
		s.mu.Unlock()
		return
	}
	st := s.state
	s.mu.Unlock()
	s.changed(st)
}

// poll reconciles the open flag with the window, whose closing raises no
// event of its own.
func (s *Sync) poll(ctx context.Context, w Window) {
	defer s.wg.Done()
	ticker := time.NewTicker(s.opts.PollInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if !w.Closed() {
				continue
			}
			s.mu.Lock()
			if !s.state.Open {
				s.mu.Unlock()
				return
			}
			s.opts.Logger.Debug("presenter window closed", zap.String("session", s.session))
			s.teardownLocked(false)
			st := s.state
			s.mu.Unlock()
			s.changed(st)
			return
		}
	}
}

func (s *Sync) teardownLocked(closeWindow bool) {
	if !s.state.Open {
		return
	}
	s.state.Open = false
	s.cancel()
	if err := s.sub.Close(); err != nil {
		s.opts.Logger.Warn("close presenter subscription", zap.String("session", s.session), zap.Error(err))
	}
	if closeWindow && s.window != nil {
		s.window.Close()
	}
}

func (s *Sync) GoTo(ctx context.Context, index int) error {
	if index < 0 {
		index = 0
	}
	return s.send(ctx, SlideChange, SlidePayload{Index: index}, func(st *State) { st.Index = index })
}

func (s *Sync) Pause(ctx context.Context) error {
	return s.send(ctx, Pause, nil, func(st *State) { st.Paused = true })
}

func (s *Sync) Resume(ctx context.Context) error {
	return s.send(ctx, Resume, nil, func(st *State) { st.Paused = false })
}

func (s *Sync) UpdateTimer(ctx context.Context, elapsed time.Duration) error {
	ms := elapsed.Milliseconds()
	return s.send(ctx, TimerUpdate, TimerPayload{ElapsedMs: ms}, func(st *State) { st.ElapsedMs = ms })
}

func (s *Sync) send(ctx context.Context, t MessageType, payload any, apply func(*State)) error {
	msg, err := NewMessage(t, payload)
	if err != nil {
		return err
	}
	msg.Sender = s.id

	s.mu.Lock()
	if !s.state.Open {
		s.mu.Unlock()
		return ErrNotOpen
	}
	apply(&s.state)
	st := s.state
	s.mu.Unlock()

	s.changed(st)
	return s.channel.Publish(ctx, s.session, msg)
}

// Close tells the other side to close, tears down local subscriptions and
// waits for them to stop. Closing a session that is not open only waits.
func (s *Sync) Close(ctx context.Context) error {
	s.mu.Lock()
	wasOpen := s.state.Open
	s.teardownLocked(true)
	st := s.state
	s.mu.Unlock()

	var err error
	if wasOpen {
		s.changed(st)
		msg, _ := NewMessage(Close, nil)
		msg.Sender = s.id
		err = s.channel.Publish(ctx, s.session, msg)
	}
	s.wg.Wait()
	return err
}

// Wait blocks until the background goroutines of the last open have exited.
func (s *Sync) Wait() {
	s.wg.Wait()
}

func (s *Sync) changed(st State) {
	if s.opts.OnChange != nil {
		s.opts.OnChange(st)
	}
}
