package api

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/skillsenselab/relay/errors"
	"github.com/skillsenselab/relay/server"
	"github.com/skillsenselab/relay/stream"
	"github.com/skillsenselab/relay/util"
	"github.com/skillsenselab/relay/validation"
)

// StreamSSE handles GET /v1/stream/sse. Channels come from the repeatable
// "channels" query parameter; each value may itself be a comma-separated
// list. The handler does not return until the stream ends.
func (a *StreamAPI) StreamSSE(c *gin.Context) {
	channels, err := parseChannels(c)
	if err != nil {
		server.RespondWithError(c, err)
		return
	}

	stream.ServeSSE(a.hub, &a.codec, a.streamCfg, a.log, c.Writer, c.Request, channels, a.sessionOpts...)
}

// StreamWS handles GET /v1/stream/ws. Initial channels come from the same
// query form as SSE; further subscriptions arrive as control messages over
// the socket.
func (a *StreamAPI) StreamWS(c *gin.Context) {
	channels, err := parseChannels(c)
	if err != nil {
		server.RespondWithError(c, err)
		return
	}

	stream.ServeWS(a.hub, &a.codec, a.streamCfg, a.log, c.Writer, c.Request, channels, a.sessionOpts...)
}

// parseChannels extracts and validates the channel list from the request
// query. An empty list is allowed: the client attaches with no subscriptions
// and adds some later (WebSocket) or just receives keepalives (SSE).
func parseChannels(c *gin.Context) ([]string, error) {
	var channels []string
	for _, raw := range c.QueryArray("channels") {
		for _, name := range strings.Split(raw, ",") {
			name = strings.TrimSpace(name)
			if name == "" {
				continue
			}
			if !validation.ValidChannel(name) {
				return nil, errors.InvalidInput("channels", "invalid channel name: "+name)
			}
			channels = append(channels, name)
		}
	}
	return util.Unique(channels), nil
}
