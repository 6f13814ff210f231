package hub

import (
	"context"
	"testing"

	"github.com/skillsenselab/relay/errors"
	"github.com/skillsenselab/relay/logger"
)

func newTestHub(t *testing.T, cfg Config) *Hub {
	t.Helper()
	return New(cfg, logger.NewDefault("relay-test"))
}

func attach(t *testing.T, h *Hub, connID string) *Queue {
	t.Helper()
	q := h.NewQueue()
	if err := h.Attach(connID, q); err != nil {
		t.Fatalf("attach %s: %v", connID, err)
	}
	return q
}

func TestPublisher_PublishToEmptyChannel(t *testing.T) {
	h := newTestHub(t, Config{})
	p := NewPublisher(h)

	seq, err := p.Publish(context.Background(), "nobody-home", "msg", []byte("hi"))
	if err != nil {
		t.Fatalf("publish to empty channel should succeed, got: %v", err)
	}
	if seq != 1 {
		t.Errorf("expected seq 1, got %d", seq)
	}

	seq, _ = p.Publish(context.Background(), "nobody-home", "msg", []byte("again"))
	if seq != 2 {
		t.Errorf("expected seq 2, got %d", seq)
	}
}

func TestPublisher_SingleSubscriberScenario(t *testing.T) {
	h := newTestHub(t, Config{})
	p := NewPublisher(h)

	q := attach(t, h, "conn-a")
	if err := h.Subscribe("conn-a", "chat"); err != nil {
		t.Fatalf("subscribe: %v", err)
	}

	seq, err := p.Publish(context.Background(), "chat", "msg", []byte("hi"))
	if err != nil {
		t.Fatalf("publish: %v", err)
	}
	if seq != 1 {
		t.Errorf("expected seq 1, got %d", seq)
	}

	e, ok := q.TryDequeue()
	if !ok {
		t.Fatal("expected exactly one delivered event")
	}
	if e.Seq != 1 || string(e.Payload) != "hi" || e.Name != "msg" || e.Channel != "chat" {
		t.Errorf("unexpected event: %+v", e)
	}
	if _, ok := q.TryDequeue(); ok {
		t.Error("expected no further events")
	}
}

func TestPublisher_LateSubscriberMissesEarlierEvents(t *testing.T) {
	h := newTestHub(t, Config{})
	p := NewPublisher(h)

	attach(t, h, "conn-a")
	h.Subscribe("conn-a", "chat")
	p.Publish(context.Background(), "chat", "msg", []byte("hi"))

	// B connects after the first publish.
	qb := attach(t, h, "conn-b")
	h.Subscribe("conn-b", "chat")

	seq, _ := p.Publish(context.Background(), "chat", "msg", []byte("hello"))
	if seq != 2 {
		t.Fatalf("expected seq 2, got %d", seq)
	}

	e, ok := qb.TryDequeue()
	if !ok {
		t.Fatal("B should receive the second publish")
	}
	if e.Seq != 2 || string(e.Payload) != "hello" {
		t.Errorf("unexpected event for B: %+v", e)
	}
	if _, ok := qb.TryDequeue(); ok {
		t.Error("B must never see seq=1")
	}
}

func TestPublisher_FanOutReachesAllSubscribers(t *testing.T) {
	h := newTestHub(t, Config{})
	p := NewPublisher(h)

	queues := make([]*Queue, 5)
	for i := range queues {
		id := string(rune('a' + i))
		queues[i] = attach(t, h, id)
		h.Subscribe(id, "dash")
	}

	p.Publish(context.Background(), "dash", "tick", []byte("1"))

	for i, q := range queues {
		e, ok := q.TryDequeue()
		if !ok {
			t.Fatalf("subscriber %d missed the event", i)
		}
		if e.Seq != 1 {
			t.Errorf("subscriber %d: expected seq 1, got %d", i, e.Seq)
		}
	}
}

func TestPublisher_SlowSubscriberDoesNotBlockOthers(t *testing.T) {
	h := newTestHub(t, Config{QueueCapacity: 2})
	p := NewPublisher(h)

	slow := attach(t, h, "slow")
	fast := attach(t, h, "fast")
	h.Subscribe("slow", "chat")
	h.Subscribe("fast", "chat")

	// Nobody drains "slow"; its queue overflows while "fast" keeps up.
	for i := 0; i < 10; i++ {
		p.Publish(context.Background(), "chat", "msg", []byte("x"))
		fast.TryDequeue()
	}

	if slow.Dropped() != 8 {
		t.Errorf("expected 8 drops on slow subscriber, got %d", slow.Dropped())
	}
	if fast.Dropped() != 0 {
		t.Errorf("fast subscriber should have no drops, got %d", fast.Dropped())
	}

	// Drop-oldest: slow's queue holds exactly the 2 most recent events.
	e1, _ := slow.TryDequeue()
	e2, _ := slow.TryDequeue()
	if e1.Seq != 9 || e2.Seq != 10 {
		t.Errorf("expected seqs 9,10 on slow queue, got %d,%d", e1.Seq, e2.Seq)
	}
}

func TestPublisher_SubscriberSeesGapFreeIncreasingSeqs(t *testing.T) {
	h := newTestHub(t, Config{QueueCapacity: 100})
	p := NewPublisher(h)

	q := attach(t, h, "conn-a")
	h.Subscribe("conn-a", "chat")

	for i := 0; i < 50; i++ {
		p.Publish(context.Background(), "chat", "msg", nil)
	}

	var last uint64
	for {
		e, ok := q.TryDequeue()
		if !ok {
			break
		}
		if e.Seq != last+1 {
			t.Fatalf("gap or duplicate: got %d after %d", e.Seq, last)
		}
		last = e.Seq
	}
	if last != 50 {
		t.Errorf("expected to observe 50 events, got %d", last)
	}
}

func TestPublisher_RejectsMissingChannel(t *testing.T) {
	h := newTestHub(t, Config{})
	p := NewPublisher(h)

	_, err := p.Publish(context.Background(), "", "msg", nil)
	if err == nil {
		t.Fatal("expected error for empty channel")
	}
	appErr, _ := errors.AsAppError(err)
	if appErr.Code != errors.ErrCodeMissingField {
		t.Errorf("expected MISSING_FIELD, got %s", appErr.Code)
	}
}

func TestPublisher_RejectsOversizePayload(t *testing.T) {
	h := newTestHub(t, Config{MaxPayload: 8})
	p := NewPublisher(h)

	_, err := p.Publish(context.Background(), "chat", "msg", make([]byte, 9))
	if err == nil {
		t.Fatal("expected error for oversize payload")
	}
	appErr, _ := errors.AsAppError(err)
	if appErr.Code != errors.ErrCodePayloadTooLarge {
		t.Errorf("expected PAYLOAD_TOO_LARGE, got %s", appErr.Code)
	}

	// The failed publish must not consume a sequence number.
	seq, _ := p.Publish(context.Background(), "chat", "msg", []byte("ok"))
	if seq != 1 {
		t.Errorf("expected seq 1 after rejected publish, got %d", seq)
	}
}

func TestHub_AttachDetach(t *testing.T) {
	h := newTestHub(t, Config{})

	q := h.NewQueue()
	if err := h.Attach("conn-a", q); err != nil {
		t.Fatalf("attach: %v", err)
	}
	if err := h.Attach("conn-a", h.NewQueue()); err == nil {
		t.Error("expected error on duplicate attach")
	}

	h.Subscribe("conn-a", "chat")
	h.Detach("conn-a")

	if h.ConnectionCount() != 0 {
		t.Errorf("expected 0 connections, got %d", h.ConnectionCount())
	}
	if n := h.Registry().SubscriberCount("chat"); n != 0 {
		t.Errorf("detach should unsubscribe everywhere, got %d", n)
	}
	if !q.Closed() {
		t.Error("detach should close the queue")
	}

	// Second detach is a no-op.
	h.Detach("conn-a")
}

func TestHub_SubscribeRequiresAttach(t *testing.T) {
	h := newTestHub(t, Config{})
	err := h.Subscribe("ghost", "chat")
	if err == nil {
		t.Fatal("expected error for unattached connection")
	}
	appErr, _ := errors.AsAppError(err)
	if appErr.Code != errors.ErrCodeConnectionClosed {
		t.Errorf("expected CONNECTION_CLOSED, got %s", appErr.Code)
	}
}

func TestHub_PublishAfterDetachSkipsGoneSubscriber(t *testing.T) {
	h := newTestHub(t, Config{})
	p := NewPublisher(h)

	attach(t, h, "conn-a")
	h.Subscribe("conn-a", "chat")
	h.Detach("conn-a")

	// Must not panic or error; the subscriber is gone.
	seq, err := p.Publish(context.Background(), "chat", "msg", nil)
	if err != nil {
		t.Fatalf("publish after detach: %v", err)
	}
	if seq != 1 {
		t.Errorf("expected seq 1, got %d", seq)
	}
}

func TestHub_Shutdown(t *testing.T) {
	h := newTestHub(t, Config{})
	qa := attach(t, h, "a")
	qb := attach(t, h, "b")

	h.Shutdown()

	if !qa.Closed() || !qb.Closed() {
		t.Error("shutdown should close all queues")
	}
}

type recordingMetrics struct {
	published int
	dropped   int
	attached  int
	detached  int
}

func (m *recordingMetrics) EventPublished(string, int)  { m.published++ }
func (m *recordingMetrics) EventDropped(string)         { m.dropped++ }
func (m *recordingMetrics) SubscriberCount(string, int) {}
func (m *recordingMetrics) ConnectionAttached()         { m.attached++ }
func (m *recordingMetrics) ConnectionDetached()         { m.detached++ }

func TestHub_MetricsSignals(t *testing.T) {
	m := &recordingMetrics{}
	h := New(Config{QueueCapacity: 1}, logger.NewDefault("relay-test"), WithMetrics(m))
	p := NewPublisher(h)

	q := h.NewQueue()
	h.Attach("conn-a", q)
	h.Subscribe("conn-a", "chat")

	p.Publish(context.Background(), "chat", "msg", nil)
	p.Publish(context.Background(), "chat", "msg", nil) // evicts under drop-oldest, still accepted

	h.Detach("conn-a")

	if m.published != 2 {
		t.Errorf("expected 2 publishes recorded, got %d", m.published)
	}
	if m.dropped != 1 {
		t.Errorf("expected the eviction to record 1 drop, got %d", m.dropped)
	}
	if got := q.Dropped(); got != 1 {
		t.Errorf("expected queue dropped counter 1, got %d", got)
	}
	if m.attached != 1 || m.detached != 1 {
		t.Errorf("expected 1 attach/1 detach, got %d/%d", m.attached, m.detached)
	}
}

func TestHubComponent_MetricsSourceWiredOnStart(t *testing.T) {
	m := &recordingMetrics{}
	h := newTestHub(t, Config{})
	comp := NewComponent(h, WithMetricsSource(func() Metrics { return m }))

	if err := comp.Start(context.Background()); err != nil {
		t.Fatalf("Start failed: %v", err)
	}

	attach(t, h, "conn-a")
	if m.attached != 1 {
		t.Errorf("expected attach recorded after Start wiring, got %d", m.attached)
	}
}

func TestHubComponent_NilMetricsSourceKeepsNop(t *testing.T) {
	h := newTestHub(t, Config{})
	comp := NewComponent(h, WithMetricsSource(func() Metrics { return nil }))

	if err := comp.Start(context.Background()); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	// Must not panic on the nop recorder.
	attach(t, h, "conn-a")
}

func TestHubComponent(t *testing.T) {
	h := newTestHub(t, Config{})
	comp := NewComponent(h)

	if comp.Name() != "hub" {
		t.Errorf("expected name 'hub', got %q", comp.Name())
	}
	ctx := context.Background()
	if err := comp.Start(ctx); err != nil {
		t.Fatalf("Start failed: %v", err)
	}

	health := comp.Health(ctx)
	if health.Status != "healthy" {
		t.Errorf("expected healthy, got %s", health.Status)
	}

	desc := comp.Describe()
	if desc.Type != "hub" {
		t.Errorf("expected type 'hub', got %q", desc.Type)
	}

	q := attach(t, h, "a")
	if err := comp.Stop(ctx); err != nil {
		t.Fatalf("Stop failed: %v", err)
	}
	if !q.Closed() {
		t.Error("Stop should close attached queues")
	}
}
