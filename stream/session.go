package stream

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/skillsenselab/relay/envelope"
	"github.com/skillsenselab/relay/errors"
	"github.com/skillsenselab/relay/hub"
	"github.com/skillsenselab/relay/logger"
)

// State is a connection lifecycle state.
type State int32

const (
	// StateConnecting: transport handshake in progress. Nothing is
	// registered with the hub yet.
	StateConnecting State = iota
	// StateActive: registered with the hub, accepting subscriptions and
	// deliveries.
	StateActive
	// StateDraining: no new subscriptions; queued deliveries are flushed
	// best-effort within the drain grace period.
	StateDraining
	// StateClosed: terminal. The hub detach (and with it the single
	// unsubscribe-all) has run.
	StateClosed
)

func (s State) String() string {
	switch s {
	case StateConnecting:
		return "connecting"
	case StateActive:
		return "active"
	case StateDraining:
		return "draining"
	case StateClosed:
		return "closed"
	default:
		return "unknown"
	}
}

// TransitionHook observes connection state transitions, e.g. for metrics.
type TransitionHook func(connID string, from, to State)

// Session owns one transport connection's lifecycle:
// Connecting → Active → Draining → Closed.
type Session struct {
	id    string
	hub   *hub.Hub
	queue *hub.Queue
	cfg   Config
	log   *logger.Logger

	metadata map[string]string
	onState  TransitionHook
	tracker  *Tracker

	mu       sync.Mutex
	state    State
	channels map[string]struct{}

	ctx       context.Context
	cancel    context.CancelFunc
	closeOnce sync.Once
}

// SessionOption configures a Session.
type SessionOption func(*Session)

// WithMetadata adds a metadata key-value pair to the session.
func WithMetadata(key, value string) SessionOption {
	return func(s *Session) {
		s.metadata[key] = value
	}
}

// WithUserID sets the user ID metadata.
func WithUserID(userID string) SessionOption {
	return WithMetadata("user_id", userID)
}

// WithTracker registers the session with a tracker for the lifetime of its
// Active and Draining states.
func WithTracker(t *Tracker) SessionOption {
	return func(s *Session) {
		s.tracker = t
	}
}

// WithTransitionHook registers a state transition observer.
func WithTransitionHook(hook TransitionHook) SessionOption {
	return func(s *Session) {
		if hook != nil {
			s.onState = hook
		}
	}
}

// NewSession creates a session in the Connecting state with a fresh
// connection id and an outbound queue sized per the hub configuration.
func NewSession(h *hub.Hub, cfg Config, log *logger.Logger, opts ...SessionOption) *Session {
	cfg.ApplyDefaults()
	ctx, cancel := context.WithCancel(context.Background())
	s := &Session{
		id:       uuid.New().String(),
		hub:      h,
		queue:    h.NewQueue(),
		cfg:      cfg,
		log:      log.WithComponent("session"),
		metadata: make(map[string]string),
		onState:  func(string, State, State) {},
		state:    StateConnecting,
		channels: make(map[string]struct{}),
		ctx:      ctx,
		cancel:   cancel,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ID returns the connection id.
func (s *Session) ID() string { return s.id }

// Queue returns the session's outbound delivery queue.
func (s *Session) Queue() *hub.Queue { return s.queue }

// Context is canceled when the session closes.
func (s *Session) Context() context.Context { return s.ctx }

// Metadata returns the value for a metadata key.
func (s *Session) Metadata(key string) string { return s.metadata[key] }

// State returns the current lifecycle state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// transition must be called with s.mu held.
func (s *Session) transition(to State) {
	from := s.state
	s.state = to
	s.onState(s.id, from, to)
	s.log.Debug("State transition", logger.Fields(
		logger.FieldConnID, s.id,
		logger.FieldState, to.String(),
		"from", from.String(),
	))
}

// Activate registers the session with the hub and moves it to Active.
// Called once the transport handshake has succeeded. A handshake that
// fails instead goes straight to Close without ever registering.
func (s *Session) Activate() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateConnecting {
		return errors.ConnectionClosed(s.id)
	}
	if err := s.hub.Attach(s.id, s.queue); err != nil {
		return err
	}
	s.transition(StateActive)
	if s.tracker != nil {
		s.tracker.add(s)
	}
	return nil
}

// Subscribe adds the session to a channel. The registry reflects the
// subscription when Subscribe returns, so bidirectional transports can ack
// afterwards. Rejected outside Active.
func (s *Session) Subscribe(channel string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateActive {
		return errors.ConnectionClosed(s.id)
	}
	if channel == "" {
		return errors.MissingField("channel")
	}
	if err := s.hub.Subscribe(s.id, channel); err != nil {
		return err
	}
	s.channels[channel] = struct{}{}
	return nil
}

// Unsubscribe removes the session from a channel. A no-op outside Active
// or for channels the session is not on.
func (s *Session) Unsubscribe(channel string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateActive {
		return
	}
	s.hub.Unsubscribe(s.id, channel)
	delete(s.channels, channel)
}

// Channels returns a snapshot of the session's subscribed channels.
func (s *Session) Channels() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, 0, len(s.channels))
	for ch := range s.channels {
		out = append(out, ch)
	}
	return out
}

// BeginDrain moves an Active session to Draining: the queue stops accepting
// new deliveries, already-queued events stay dequeuable so the transport
// writer can flush them, and a grace timer forces Close if the flush takes
// too long. Safe to call from any state; only Active actually drains.
func (s *Session) BeginDrain(reason string) {
	s.mu.Lock()
	if s.state != StateActive {
		s.mu.Unlock()
		return
	}
	s.transition(StateDraining)
	s.mu.Unlock()

	s.log.Debug("Draining connection", logger.Fields(
		logger.FieldConnID, s.id,
		"reason", reason,
		"pending", s.queue.Len(),
	))

	s.queue.Close()
	time.AfterFunc(time.Duration(s.cfg.DrainGrace)*time.Second, s.Close)
}

// events pumps deliveries off the queue onto a channel that closes once the
// queue is closed and fully drained, so transport writers can select on it
// alongside keep-alive timers.
func (s *Session) events() <-chan envelope.Event {
	out := make(chan envelope.Event)
	go func() {
		defer close(out)
		for {
			ev, ok := s.queue.Dequeue(s.ctx)
			if !ok {
				return
			}
			select {
			case out <- ev:
			case <-s.ctx.Done():
				return
			}
		}
	}()
	return out
}

// Close moves the session to Closed, detaches it from the hub (which runs
// the single unsubscribe-all), and cancels the session context. Safe to
// call multiple times; only the first call has any effect.
func (s *Session) Close() {
	s.closeOnce.Do(func() {
		s.mu.Lock()
		s.transition(StateClosed)
		s.mu.Unlock()

		if s.tracker != nil {
			s.tracker.remove(s.id)
		}
		s.hub.Detach(s.id)
		s.cancel()
	})
}
