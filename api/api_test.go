package api_test

import (
	"bufio"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/skillsenselab/relay/api"
	"github.com/skillsenselab/relay/hub"
	"github.com/skillsenselab/relay/logger"
	"github.com/skillsenselab/relay/stream"
)

func newTestAPI(t *testing.T) (*gin.Engine, *hub.Hub) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	log := logger.NewDefault("test")
	hubCfg := hub.Config{QueueCapacity: 8}
	hubCfg.ApplyDefaults()
	h := hub.New(hubCfg, log)
	t.Cleanup(h.Shutdown)

	streamCfg := stream.Config{KeepAlive: 1, DrainGrace: 1, WriteTimeout: 1}
	streamCfg.ApplyDefaults()

	a := api.NewStreamAPI(h, hub.NewPublisher(h), streamCfg, log)
	engine := gin.New()
	a.RegisterRoutes(engine)
	return engine, h
}

func postJSON(t *testing.T, engine *gin.Engine, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	rr := httptest.NewRecorder()
	req := httptest.NewRequest("POST", path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	engine.ServeHTTP(rr, req)
	return rr
}

func TestPublish(t *testing.T) {
	engine, _ := newTestAPI(t)

	rr := postJSON(t, engine, "/v1/publish", `{"channel":"orders","event":"created","payload":{"id":1}}`)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rr.Code, rr.Body.String())
	}

	var resp struct {
		Data api.PublishResponse `json:"data"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if resp.Data.Seq != 1 {
		t.Errorf("expected seq 1 on first publish, got %d", resp.Data.Seq)
	}
	if resp.Data.Subscribers != 0 {
		t.Errorf("expected 0 subscribers, got %d", resp.Data.Subscribers)
	}
}

func TestPublish_SeqAdvancesPerChannel(t *testing.T) {
	engine, _ := newTestAPI(t)

	postJSON(t, engine, "/v1/publish", `{"channel":"orders","event":"created","payload":1}`)
	rr := postJSON(t, engine, "/v1/publish", `{"channel":"orders","event":"updated","payload":2}`)

	var resp struct {
		Data api.PublishResponse `json:"data"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if resp.Data.Seq != 2 {
		t.Errorf("expected seq 2, got %d", resp.Data.Seq)
	}

	// An unrelated channel starts its own sequence.
	rr = postJSON(t, engine, "/v1/publish", `{"channel":"alerts","event":"fired","payload":3}`)
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if resp.Data.Seq != 1 {
		t.Errorf("expected seq 1 on fresh channel, got %d", resp.Data.Seq)
	}
}

func TestPublish_Validation(t *testing.T) {
	engine, _ := newTestAPI(t)

	tests := []struct {
		name string
		body string
	}{
		{"missing channel", `{"event":"created","payload":1}`},
		{"bad channel name", `{"channel":"orders..x","event":"created","payload":1}`},
		{"missing event", `{"channel":"orders","payload":1}`},
		{"missing payload", `{"channel":"orders","event":"created"}`},
		{"not json", `{{{`},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			rr := postJSON(t, engine, "/v1/publish", tc.body)
			if rr.Code != http.StatusBadRequest {
				t.Errorf("expected 400, got %d: %s", rr.Code, rr.Body.String())
			}
		})
	}
}

func TestChannelStats(t *testing.T) {
	engine, h := newTestAPI(t)

	q := h.NewQueue()
	if err := h.Attach("conn-1", q); err != nil {
		t.Fatalf("attach failed: %v", err)
	}
	if err := h.Subscribe("conn-1", "orders"); err != nil {
		t.Fatalf("subscribe failed: %v", err)
	}

	rr := httptest.NewRecorder()
	engine.ServeHTTP(rr, httptest.NewRequest("GET", "/v1/channels/orders", http.NoBody))
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}

	var resp struct {
		Data api.ChannelInfo `json:"data"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if resp.Data.Subscribers != 1 {
		t.Errorf("expected 1 subscriber, got %d", resp.Data.Subscribers)
	}
}

func TestChannelStats_UnknownChannelIsZero(t *testing.T) {
	engine, _ := newTestAPI(t)

	rr := httptest.NewRecorder()
	engine.ServeHTTP(rr, httptest.NewRequest("GET", "/v1/channels/never-used", http.NoBody))
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200 for implicit channel, got %d", rr.Code)
	}

	var resp struct {
		Data api.ChannelInfo `json:"data"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if resp.Data.Subscribers != 0 {
		t.Errorf("expected 0 subscribers, got %d", resp.Data.Subscribers)
	}
}

func TestChannelStats_InvalidName(t *testing.T) {
	engine, _ := newTestAPI(t)

	rr := httptest.NewRecorder()
	engine.ServeHTTP(rr, httptest.NewRequest("GET", "/v1/channels/bad..name", http.NoBody))
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rr.Code)
	}
}

func TestListChannels(t *testing.T) {
	engine, h := newTestAPI(t)

	q := h.NewQueue()
	if err := h.Attach("conn-1", q); err != nil {
		t.Fatalf("attach failed: %v", err)
	}
	for _, ch := range []string{"orders", "alerts"} {
		if err := h.Subscribe("conn-1", ch); err != nil {
			t.Fatalf("subscribe failed: %v", err)
		}
	}

	rr := httptest.NewRecorder()
	engine.ServeHTTP(rr, httptest.NewRequest("GET", "/v1/channels", http.NoBody))
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}

	var resp struct {
		Data api.ChannelListResponse `json:"data"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if len(resp.Data.Channels) != 2 {
		t.Fatalf("expected 2 channels, got %d", len(resp.Data.Channels))
	}
	// Sorted alphabetically.
	if resp.Data.Channels[0].Channel != "alerts" {
		t.Errorf("expected alerts first, got %s", resp.Data.Channels[0].Channel)
	}
	if resp.Data.Connections != 1 {
		t.Errorf("expected 1 connection, got %d", resp.Data.Connections)
	}
}

func TestListChannels_IncludesIdleChannels(t *testing.T) {
	engine, _ := newTestAPI(t)

	// Publishing creates the channel; nobody ever subscribes to it.
	rr := postJSON(t, engine, "/v1/publish", `{"channel":"orders","event":"created","payload":1}`)
	if rr.Code != http.StatusOK {
		t.Fatalf("publish failed: %d", rr.Code)
	}

	rr = httptest.NewRecorder()
	engine.ServeHTTP(rr, httptest.NewRequest("GET", "/v1/channels", http.NoBody))

	var resp struct {
		Data api.ChannelListResponse `json:"data"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if len(resp.Data.Channels) != 1 || resp.Data.Channels[0].Channel != "orders" {
		t.Fatalf("expected idle channel in listing, got %+v", resp.Data.Channels)
	}
	if resp.Data.Channels[0].Subscribers != 0 {
		t.Errorf("expected 0 subscribers, got %d", resp.Data.Channels[0].Subscribers)
	}
}

func TestStreamSSE_InvalidChannels(t *testing.T) {
	engine, _ := newTestAPI(t)

	rr := httptest.NewRecorder()
	engine.ServeHTTP(rr, httptest.NewRequest("GET", "/v1/stream/sse?channels=bad..name", http.NoBody))
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rr.Code)
	}
}

func TestStreamSSE_ReceivesPublishedEvent(t *testing.T) {
	engine, _ := newTestAPI(t)

	srv := httptest.NewServer(engine)
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/v1/stream/sse?channels=orders,alerts")
	if err != nil {
		t.Fatalf("stream request failed: %v", err)
	}
	defer resp.Body.Close()

	if ct := resp.Header.Get("Content-Type"); !strings.HasPrefix(ct, "text/event-stream") {
		t.Fatalf("expected text/event-stream, got %s", ct)
	}

	reader := newSSEReader(resp.Body)

	// First frame is the connected event.
	frame := readSSEFrame(t, reader)
	if !strings.Contains(frame, "event: connected") {
		t.Fatalf("expected connected frame, got %q", frame)
	}

	// Publish once the subscription is in place (the connected frame is
	// only written after registration, so we are safe to publish now).
	rr := postJSON(t, engine, "/v1/publish", `{"channel":"orders","event":"created","payload":{"id":7}}`)
	if rr.Code != http.StatusOK {
		t.Fatalf("publish failed: %d", rr.Code)
	}

	frame = readSSEFrame(t, reader)
	if !strings.Contains(frame, "event: created") || !strings.Contains(frame, `"id":7`) {
		t.Fatalf("expected created event frame, got %q", frame)
	}
}

// sseReader owns the single goroutine that reads lines off a stream, so
// repeated readSSEFrame calls on the same stream share one reader instead of
// leaking a goroutine per call that steals lines from later calls.
type sseReader struct {
	lines chan string
	errs  chan error
}

func newSSEReader(r io.Reader) *sseReader {
	s := &sseReader{lines: make(chan string, 16), errs: make(chan error, 1)}
	go func() {
		br := bufio.NewReader(r)
		for {
			line, err := br.ReadString('\n')
			if err != nil {
				s.errs <- err
				return
			}
			s.lines <- line
		}
	}()
	return s
}

// readSSEFrame reads lines until a blank line, skipping keepalive comments.
func readSSEFrame(t *testing.T, reader *sseReader) string {
	t.Helper()

	deadline := time.After(5 * time.Second)
	lines := reader.lines
	errs := reader.errs

	var frame strings.Builder
	for {
		select {
		case <-deadline:
			t.Fatalf("timed out waiting for SSE frame, got so far: %q", frame.String())
		case err := <-errs:
			t.Fatalf("stream read failed: %v", err)
		case line := <-lines:
			if strings.HasPrefix(line, ":") {
				continue
			}
			if strings.TrimSpace(line) == "" && frame.Len() > 0 {
				return frame.String()
			}
			frame.WriteString(line)
		}
	}
}

// connIDFromFrame parses the conn_id out of a connected SSE frame.
func connIDFromFrame(t *testing.T, frame string) string {
	t.Helper()
	for _, line := range strings.Split(frame, "\n") {
		if !strings.HasPrefix(line, "data: ") {
			continue
		}
		var connected struct {
			ConnID string `json:"conn_id"`
		}
		if err := json.Unmarshal([]byte(strings.TrimPrefix(line, "data: ")), &connected); err != nil {
			t.Fatalf("invalid connected payload: %v", err)
		}
		return connected.ConnID
	}
	t.Fatalf("no data line in frame %q", frame)
	return ""
}

func TestSubscriptions_REST(t *testing.T) {
	engine, h := newTestAPI(t)

	srv := httptest.NewServer(engine)
	defer srv.Close()

	// A bare attach: the client subscribes over REST afterwards.
	resp, err := http.Get(srv.URL + "/v1/stream/sse")
	if err != nil {
		t.Fatalf("stream request failed: %v", err)
	}
	defer resp.Body.Close()

	reader := newSSEReader(resp.Body)
	frame := readSSEFrame(t, reader)
	if !strings.Contains(frame, "event: connected") {
		t.Fatalf("expected connected frame, got %q", frame)
	}
	connID := connIDFromFrame(t, frame)

	rr := postJSON(t, engine, "/v1/subscriptions",
		`{"conn_id":"`+connID+`","channel":"orders"}`)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rr.Code, rr.Body.String())
	}
	if got := h.Registry().SubscriberCount("orders"); got != 1 {
		t.Fatalf("expected 1 subscriber after REST subscribe, got %d", got)
	}

	req := httptest.NewRequest("DELETE", "/v1/subscriptions",
		strings.NewReader(`{"conn_id":"`+connID+`","channel":"orders"}`))
	req.Header.Set("Content-Type", "application/json")
	rr = httptest.NewRecorder()
	engine.ServeHTTP(rr, req)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rr.Code, rr.Body.String())
	}
	if got := h.Registry().SubscriberCount("orders"); got != 0 {
		t.Fatalf("expected 0 subscribers after REST unsubscribe, got %d", got)
	}
}

func TestSubscriptions_UnknownConnection(t *testing.T) {
	engine, _ := newTestAPI(t)

	rr := postJSON(t, engine, "/v1/subscriptions",
		`{"conn_id":"0d4e9a66-9e9b-4c27-b51e-4f65c6a0f002","channel":"orders"}`)
	if rr.Code == http.StatusOK {
		t.Fatalf("expected error for unattached connection, got 200")
	}
}

func TestParseChannels_Dedup(t *testing.T) {
	engine, h := newTestAPI(t)

	srv := httptest.NewServer(engine)
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/v1/stream/sse?channels=orders,orders&channels=orders")
	if err != nil {
		t.Fatalf("stream request failed: %v", err)
	}
	defer resp.Body.Close()

	reader := newSSEReader(resp.Body)
	frame := readSSEFrame(t, reader)
	if !strings.Contains(frame, "event: connected") {
		t.Fatalf("expected connected frame, got %q", frame)
	}

	if got := h.Registry().SubscriberCount("orders"); got != 1 {
		t.Errorf("expected 1 subscriber after dedup, got %d", got)
	}
}
