package stream

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/skillsenselab/relay/envelope"
	"github.com/skillsenselab/relay/hub"
	"github.com/skillsenselab/relay/logger"
)

// ConnectedEvent is sent as the first frame on every stream so the client
// learns its connection id and the channels it starts on.
type ConnectedEvent struct {
	ConnID   string            `json:"conn_id"`
	Channels []string          `json:"channels,omitempty"`
	UserID   string            `json:"user_id,omitempty"`
	Metadata map[string]string `json:"metadata,omitempty"`
}

const eventTypeConnected = "connected"

// ServeSSE handles a Server-Sent Events connection: it registers a session,
// subscribes it to the requested channels, and streams deliveries until the
// client disconnects. This is the main entry point called from HTTP handlers.
func ServeSSE(h *hub.Hub, codec *envelope.Codec, cfg Config, log *logger.Logger, w http.ResponseWriter, r *http.Request, channels []string, opts ...SessionOption) {
	cfg.ApplyDefaults()

	// SSE requires the http.Flusher interface
	flusher, ok := w.(http.Flusher)
	if !ok {
		log.Error("Streaming not supported", logger.Fields("remote_addr", r.RemoteAddr))
		http.Error(w, "streaming not supported", http.StatusInternalServerError)
		return
	}

	// Disable the write deadline for this connection using ResponseController.
	// SSE connections are long-lived and must not be terminated by the
	// server's WriteTimeout setting.
	rc := http.NewResponseController(w)
	if err := rc.SetWriteDeadline(time.Time{}); err != nil {
		log.Warn("Could not disable write deadline", logger.Fields(logger.FieldError, err.Error()))
		// Continue anyway - the connection might still work with keep-alives
	}

	// Set SSE headers
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
	w.Header().Set("X-Accel-Buffering", "no") // Disable nginx buffering

	sess := NewSession(h, cfg, log, opts...)
	if err := sess.Activate(); err != nil {
		log.Error("Session activation failed", logger.Fields(
			logger.FieldError, err.Error(),
			logger.FieldConnID, sess.ID(),
		))
		sess.Close()
		http.Error(w, "service unavailable", http.StatusServiceUnavailable)
		return
	}
	defer sess.Close()

	for _, ch := range channels {
		if err := sess.Subscribe(ch); err != nil {
			log.Warn("Subscribe failed", logger.Fields(
				logger.FieldError, err.Error(),
				logger.FieldConnID, sess.ID(),
				logger.FieldChannel, ch,
			))
		}
	}

	// Send initial connection event
	connected := ConnectedEvent{
		ConnID:   sess.ID(),
		Channels: sess.Channels(),
		UserID:   sess.Metadata("user_id"),
	}
	connectedData, _ := json.Marshal(connected)
	_, _ = fmt.Fprintf(w, "event: %s\n", eventTypeConnected)
	_, _ = fmt.Fprintf(w, "data: %s\n\n", connectedData)
	flusher.Flush()

	log.Debug("Client connected", logger.Fields(
		logger.FieldConnID, sess.ID(),
		"channels", len(channels),
		"remote_addr", r.RemoteAddr,
	))

	events := sess.events()

	// Keep-alive interval should be less than proxy timeouts (typically 60s).
	keepAlive := time.NewTicker(time.Duration(cfg.KeepAlive) * time.Second)
	defer keepAlive.Stop()

	ctx := r.Context()
	for {
		select {
		case <-ctx.Done():
			// Client disconnected (browser closed, network issue, etc.)
			// Drain first so the lifecycle passes through Draining on this
			// path too; there is nobody left to flush to, so the deferred
			// Close follows immediately.
			log.Debug("Client disconnected", logger.Fields(
				logger.FieldConnID, sess.ID(),
				"reason", ctx.Err().Error(),
			))
			sess.BeginDrain("client_disconnect")
			return

		case ev, ok := <-events:
			if !ok {
				// Queue closed and drained; the session is done.
				log.Debug("Delivery queue drained", logger.Fields(logger.FieldConnID, sess.ID()))
				return
			}
			if err := writeSSEEvent(w, codec, ev); err != nil {
				log.Debug("Write failed", logger.Fields(
					logger.FieldError, err.Error(),
					logger.FieldConnID, sess.ID(),
				))
				sess.BeginDrain("write_failure")
				return
			}
			flusher.Flush()

		case <-keepAlive.C:
			// SSE spec: lines starting with : are comments. These keep the
			// connection alive through proxies and load balancers.
			if _, err := fmt.Fprintf(w, ": keepalive %d\n\n", time.Now().Unix()); err != nil {
				sess.BeginDrain("write_failure")
				return
			}
			flusher.Flush()
		}
	}
}

func writeSSEEvent(w http.ResponseWriter, codec *envelope.Codec, ev envelope.Event) error {
	data, err := codec.Encode(ev)
	if err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "event: %s\n", ev.Name); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "id: %d\ndata: %s\n\n", ev.Seq, data); err != nil {
		return err
	}
	return nil
}
