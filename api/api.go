package api

import (
	"github.com/gin-gonic/gin"

	"github.com/skillsenselab/relay/envelope"
	"github.com/skillsenselab/relay/hub"
	"github.com/skillsenselab/relay/logger"
	"github.com/skillsenselab/relay/stream"
)

// StreamAPI bundles the relay handlers with their shared dependencies.
type StreamAPI struct {
	hub       *hub.Hub
	publisher *hub.Publisher
	codec     envelope.Codec
	streamCfg stream.Config
	log       *logger.Logger

	// sessions tracks live stream sessions by connection id so the REST
	// subscription handlers go through each session's state machine.
	sessions *stream.Tracker

	// sessionOpts are applied to every session created by the stream
	// handlers, used to wire the state-transition metrics hook.
	sessionOpts []stream.SessionOption
}

// NewStreamAPI creates the API handler set. Extra session options are passed
// through to every SSE and WebSocket session.
func NewStreamAPI(h *hub.Hub, pub *hub.Publisher, streamCfg stream.Config, log *logger.Logger, opts ...stream.SessionOption) *StreamAPI {
	tracker := stream.NewTracker()
	return &StreamAPI{
		hub:         h,
		publisher:   pub,
		codec:       pub.Codec(),
		streamCfg:   streamCfg,
		log:         log.WithComponent("api"),
		sessions:    tracker,
		sessionOpts: append([]stream.SessionOption{stream.WithTracker(tracker)}, opts...),
	}
}

// RegisterRoutes registers all relay routes on the given engine under /v1.
func (a *StreamAPI) RegisterRoutes(engine *gin.Engine) {
	v1 := engine.Group("/v1")
	v1.POST("/publish", a.Publish)
	v1.GET("/stream/sse", a.StreamSSE)
	v1.GET("/stream/ws", a.StreamWS)
	v1.POST("/subscriptions", a.Subscribe)
	v1.DELETE("/subscriptions", a.Unsubscribe)
	v1.GET("/channels", a.ListChannels)
	v1.GET("/channels/:channel", a.ChannelStats)
}
