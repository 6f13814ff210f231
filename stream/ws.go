package stream

import (
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/skillsenselab/relay/envelope"
	"github.com/skillsenselab/relay/errors"
	"github.com/skillsenselab/relay/hub"
	"github.com/skillsenselab/relay/logger"
)

// Origin checks are left to upstream middleware; the relay itself does not
// restrict cross-origin streams.
var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 4096,
	CheckOrigin:     func(*http.Request) bool { return true },
}

// ServeWS handles a WebSocket connection: it upgrades the request, registers
// a session, subscribes it to the requested channels, streams deliveries to
// the client, and applies subscribe/unsubscribe control messages sent by the
// client. Each control message is acked after the registry reflects it.
func ServeWS(h *hub.Hub, codec *envelope.Codec, cfg Config, log *logger.Logger, w http.ResponseWriter, r *http.Request, channels []string, opts ...SessionOption) {
	cfg.ApplyDefaults()

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade has already written the error response. The session was
		// never registered, so there is nothing to unsubscribe.
		hErr := errors.HandshakeFailed("websocket", err)
		log.Warn("WebSocket handshake failed", logger.Fields(
			logger.FieldError, hErr.Error(),
			"remote_addr", r.RemoteAddr,
		))
		return
	}

	sess := NewSession(h, cfg, log, opts...)
	if err := sess.Activate(); err != nil {
		log.Error("Session activation failed", logger.Fields(
			logger.FieldError, err.Error(),
			logger.FieldConnID, sess.ID(),
		))
		sess.Close()
		_ = conn.Close()
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

	log.Debug("Client connected", logger.Fields(
		logger.FieldConnID, sess.ID(),
		"channels", len(channels),
		"remote_addr", r.RemoteAddr,
	))

	writeTimeout := time.Duration(cfg.WriteTimeout) * time.Second
	pingPeriod := time.Duration(cfg.KeepAlive) * time.Second
	pongWait := 2 * pingPeriod

	conn.SetReadLimit(cfg.ReadLimit)
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	// gorilla/websocket permits one concurrent writer, so acks from the read
	// loop are routed through a channel to the writer goroutine.
	acks := make(chan Ack, 8)
	writerDone := make(chan struct{})
	go wsWriter(sess, conn, codec, acks, pingPeriod, writeTimeout, log, writerDone)

	// Unblock the read loop once the session closes.
	go func() {
		<-sess.Context().Done()
		_ = conn.Close()
	}()

	// Read loop: control messages only. A read error means the client is
	// gone or misbehaving; either way the session drains and closes.
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				log.Debug("Read failed", logger.Fields(
					logger.FieldError, err.Error(),
					logger.FieldConnID, sess.ID(),
				))
			}
			sess.BeginDrain("read_closed")
			break
		}

		msg, err := DecodeControl(data)
		if err != nil {
			select {
			case acks <- Ack{Type: "error", OK: false, Error: err.Error()}:
			case <-sess.Context().Done():
			}
			continue
		}

		ack := sess.apply(msg)
		select {
		case acks <- ack:
		case <-sess.Context().Done():
		}
	}

	// Let the writer flush whatever the drain grace period allows.
	<-writerDone
	_ = conn.Close()
}

// wsWriter owns all writes on the connection: the connected event, fanned-out
// deliveries, control acks and keep-alive pings.
func wsWriter(sess *Session, conn *websocket.Conn, codec *envelope.Codec, acks <-chan Ack, pingPeriod, writeTimeout time.Duration, log *logger.Logger, done chan<- struct{}) {
	defer close(done)

	ping := time.NewTicker(pingPeriod)
	defer ping.Stop()

	_ = conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	if err := conn.WriteJSON(ConnectedEvent{
		ConnID:   sess.ID(),
		Channels: sess.Channels(),
		UserID:   sess.Metadata("user_id"),
	}); err != nil {
		sess.BeginDrain("write_failure")
		return
	}

	events := sess.events()
	for {
		select {
		case ev, ok := <-events:
			if !ok {
				// Queue closed and drained; say goodbye.
				_ = conn.WriteControl(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
					time.Now().Add(writeTimeout))
				return
			}
			data, err := codec.Encode(ev)
			if err != nil {
				log.Error("Encode failed", logger.Fields(
					logger.FieldError, err.Error(),
					logger.FieldConnID, sess.ID(),
					logger.FieldChannel, ev.Channel,
				))
				continue
			}
			_ = conn.SetWriteDeadline(time.Now().Add(writeTimeout))
			if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
				log.Debug("Write failed", logger.Fields(
					logger.FieldError, err.Error(),
					logger.FieldConnID, sess.ID(),
				))
				sess.BeginDrain("write_failure")
				return
			}

		case ack := <-acks:
			_ = conn.SetWriteDeadline(time.Now().Add(writeTimeout))
			if err := conn.WriteJSON(ack); err != nil {
				sess.BeginDrain("write_failure")
				return
			}

		case <-ping.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeTimeout)); err != nil {
				sess.BeginDrain("write_failure")
				return
			}

		case <-sess.Context().Done():
			return
		}
	}
}
