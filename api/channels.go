package api

import (
	"sort"

	"github.com/gin-gonic/gin"

	"github.com/skillsenselab/relay/errors"
	"github.com/skillsenselab/relay/server"
	"github.com/skillsenselab/relay/validation"
)

// ChannelInfo describes a single channel's current state.
type ChannelInfo struct {
	Channel     string `json:"channel"`
	Subscribers int    `json:"subscribers"`
}

// ChannelListResponse is the body of GET /v1/channels.
type ChannelListResponse struct {
	Channels    []ChannelInfo `json:"channels"`
	Connections int           `json:"connections"`
}

// ListChannels handles GET /v1/channels: every channel the registry knows,
// plus the total connection count. Channels whose last subscriber left are
// included; they are kept so their sequence counters survive.
func (a *StreamAPI) ListChannels(c *gin.Context) {
	reg := a.hub.Registry()

	names := reg.Channels()
	sort.Strings(names)

	infos := make([]ChannelInfo, 0, len(names))
	for _, name := range names {
		infos = append(infos, ChannelInfo{
			Channel:     name,
			Subscribers: reg.SubscriberCount(name),
		})
	}

	server.RespondOK(c, ChannelListResponse{
		Channels:    infos,
		Connections: a.hub.ConnectionCount(),
	})
}

// ChannelStats handles GET /v1/channels/:channel. Unknown channels are not
// an error: a channel exists implicitly, so an unsubscribed one reports zero
// subscribers.
func (a *StreamAPI) ChannelStats(c *gin.Context) {
	name := c.Param("channel")
	if !validation.ValidChannel(name) {
		server.RespondWithError(c, errors.InvalidInput("channel", "invalid channel name: "+name))
		return
	}

	server.RespondOK(c, ChannelInfo{
		Channel:     name,
		Subscribers: a.hub.Registry().SubscriberCount(name),
	})
}
