package hub

import (
	"sync"

	"github.com/skillsenselab/relay/errors"
	"github.com/skillsenselab/relay/logger"
)

// Hub owns the subscription registry and the table of attached connection
// queues. It is constructed once by the hosting process and passed by
// reference to everything that publishes or manages connections; there is
// no package-level hub state.
type Hub struct {
	registry *Registry
	cfg      Config
	log      *logger.Logger
	metrics  Metrics

	mu     sync.RWMutex
	queues map[string]*Queue // connection id -> outbound queue
}

// Option configures a Hub.
type Option func(*Hub)

// WithMetrics attaches a metrics recorder to the hub.
func WithMetrics(m Metrics) Option {
	return func(h *Hub) {
		if m != nil {
			h.metrics = m
		}
	}
}

// SetMetrics attaches a metrics recorder after construction, for hosts whose
// instruments only exist once their telemetry pipeline has started. Call it
// before the hub serves traffic; a nil recorder is ignored.
func (h *Hub) SetMetrics(m Metrics) {
	if m == nil {
		return
	}
	h.mu.Lock()
	h.metrics = m
	h.mu.Unlock()
}

// New creates a Hub from config.
func New(cfg Config, log *logger.Logger, opts ...Option) *Hub {
	cfg.ApplyDefaults()
	h := &Hub{
		registry: NewRegistry(),
		cfg:      cfg,
		log:      log.WithComponent("hub"),
		metrics:  nopMetrics{},
		queues:   make(map[string]*Queue),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Registry exposes the subscription registry.
func (h *Hub) Registry() *Registry { return h.registry }

// Config returns the hub configuration.
func (h *Hub) Config() Config { return h.cfg }

// NewQueue creates an outbound queue sized per the hub configuration.
func (h *Hub) NewQueue() *Queue {
	return NewQueue(h.cfg.QueueCapacity, OverflowPolicy(h.cfg.OverflowPolicy))
}

// Attach registers a connection's outbound queue so publishes can reach it.
// Called by the connection manager on the Connecting→Active transition,
// before any subscription is accepted.
func (h *Hub) Attach(connID string, q *Queue) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, exists := h.queues[connID]; exists {
		return errors.InvalidInput("conn_id", "connection already attached")
	}
	h.queues[connID] = q
	h.metrics.ConnectionAttached()
	h.log.Debug("Connection attached", logger.Fields(
		logger.FieldConnID, connID,
		"connections", len(h.queues),
	))
	return nil
}

// Detach removes a connection. It unsubscribes the connection from every
// channel and closes its queue. Called exactly once, on the transition to
// Closed; later calls are no-ops.
func (h *Hub) Detach(connID string) {
	h.mu.Lock()
	q, exists := h.queues[connID]
	if exists {
		delete(h.queues, connID)
	}
	h.mu.Unlock()

	if !exists {
		return
	}

	h.registry.UnsubscribeAll(connID)
	q.Close()
	h.metrics.ConnectionDetached()
	h.log.Debug("Connection detached", logger.Fields(
		logger.FieldConnID, connID,
		"dropped_total", q.Dropped(),
	))
}

// Subscribe adds the connection to a channel. The registry is updated
// synchronously: when Subscribe returns, the next publish to the channel
// reaches this connection.
func (h *Hub) Subscribe(connID, channel string) error {
	h.mu.RLock()
	_, attached := h.queues[connID]
	h.mu.RUnlock()
	if !attached {
		return errors.ConnectionClosed(connID)
	}

	h.registry.Subscribe(channel, connID)
	h.metrics.SubscriberCount(channel, h.registry.SubscriberCount(channel))
	h.log.Debug("Subscribed", logger.Fields(
		logger.FieldConnID, connID,
		logger.FieldChannel, channel,
	))
	return nil
}

// Unsubscribe removes the connection from a channel. Unsubscribing from a
// channel the connection is not on is a no-op.
func (h *Hub) Unsubscribe(connID, channel string) {
	h.registry.Unsubscribe(channel, connID)
	h.metrics.SubscriberCount(channel, h.registry.SubscriberCount(channel))
	h.log.Debug("Unsubscribed", logger.Fields(
		logger.FieldConnID, connID,
		logger.FieldChannel, channel,
	))
}

// queue returns the outbound queue for a connection, if attached.
func (h *Hub) queue(connID string) (*Queue, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	q, ok := h.queues[connID]
	return q, ok
}

// ConnectionCount returns the number of attached connections.
func (h *Hub) ConnectionCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.queues)
}

// DroppedTotal sums the dropped-event counters of all attached connections.
func (h *Hub) DroppedTotal() uint64 {
	h.mu.RLock()
	defer h.mu.RUnlock()
	var total uint64
	for _, q := range h.queues {
		total += q.Dropped()
	}
	return total
}

// Shutdown closes the queues of all attached connections. Drain loops see
// the close and take their sessions through Draining to Closed.
func (h *Hub) Shutdown() {
	h.mu.RLock()
	queues := make([]*Queue, 0, len(h.queues))
	for _, q := range h.queues {
		queues = append(queues, q)
	}
	h.mu.RUnlock()

	for _, q := range queues {
		q.Close()
	}
	h.log.Info("Hub shut down", logger.Fields("connections", len(queues)))
}
