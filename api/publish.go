package api

import (
	"encoding/json"

	"github.com/gin-gonic/gin"

	"github.com/skillsenselab/relay/errors"
	"github.com/skillsenselab/relay/server"
	"github.com/skillsenselab/relay/validation"
)

// PublishRequest is the body of POST /v1/publish.
type PublishRequest struct {
	Channel string          `json:"channel" validate:"required,channel"`
	Event   string          `json:"event" validate:"required,min=1,max=128"`
	Payload json.RawMessage `json:"payload" validate:"required"`
}

// PublishResponse reports the assigned sequence number and the fan-out size
// at publish time.
type PublishResponse struct {
	Channel     string `json:"channel"`
	Seq         uint64 `json:"seq"`
	Subscribers int    `json:"subscribers"`
}

// Publish handles POST /v1/publish. The event is enqueued to every current
// subscriber of the channel; a channel with no subscribers still accepts the
// publish and advances its sequence.
func (a *StreamAPI) Publish(c *gin.Context) {
	var req PublishRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		server.RespondWithError(c, errors.DecodeFailed(err.Error()))
		return
	}

	if err := validation.Validate(&req); err != nil {
		server.RespondWithError(c, err)
		return
	}

	seq, err := a.publisher.Publish(c.Request.Context(), req.Channel, req.Event, req.Payload)
	if err != nil {
		server.RespondWithError(c, err)
		return
	}

	server.RespondOK(c, PublishResponse{
		Channel:     req.Channel,
		Seq:         seq,
		Subscribers: a.hub.Registry().SubscriberCount(req.Channel),
	})
}
