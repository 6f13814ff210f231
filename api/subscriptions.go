package api

import (
	"github.com/gin-gonic/gin"

	"github.com/skillsenselab/relay/errors"
	"github.com/skillsenselab/relay/server"
	"github.com/skillsenselab/relay/validation"
)

// SubscriptionRequest is the body of POST and DELETE /v1/subscriptions. It is
// the out-of-band subscription path for SSE clients, which have no
// client-to-server frames of their own: the client reads its conn_id from the
// connected event and manages subscriptions over REST.
type SubscriptionRequest struct {
	ConnID  string `json:"conn_id" validate:"required,uuid"`
	Channel string `json:"channel" validate:"required,channel"`
}

// SubscriptionResponse echoes the new subscription state of the channel.
type SubscriptionResponse struct {
	ConnID      string `json:"conn_id"`
	Channel     string `json:"channel"`
	Subscribed  bool   `json:"subscribed"`
	Subscribers int    `json:"subscribers"`
}

// Subscribe handles POST /v1/subscriptions. It goes through the session's
// state machine, so a draining connection is rejected the same way an
// in-band subscribe would be. The registry is updated before the response is
// written, so a publish issued after a 200 reaches the connection.
func (a *StreamAPI) Subscribe(c *gin.Context) {
	var req SubscriptionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		server.RespondWithError(c, errors.DecodeFailed(err.Error()))
		return
	}
	if err := validation.Validate(&req); err != nil {
		server.RespondWithError(c, err)
		return
	}

	sess, ok := a.sessions.Get(req.ConnID)
	if !ok {
		server.RespondWithError(c, errors.ConnectionClosed(req.ConnID))
		return
	}
	if err := sess.Subscribe(req.Channel); err != nil {
		server.RespondWithError(c, err)
		return
	}

	server.RespondOK(c, SubscriptionResponse{
		ConnID:      req.ConnID,
		Channel:     req.Channel,
		Subscribed:  true,
		Subscribers: a.hub.Registry().SubscriberCount(req.Channel),
	})
}

// Unsubscribe handles DELETE /v1/subscriptions. Removing a subscription that
// does not exist is a no-op, matching the hub's semantics.
func (a *StreamAPI) Unsubscribe(c *gin.Context) {
	var req SubscriptionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		server.RespondWithError(c, errors.DecodeFailed(err.Error()))
		return
	}
	if err := validation.Validate(&req); err != nil {
		server.RespondWithError(c, err)
		return
	}

	sess, ok := a.sessions.Get(req.ConnID)
	if !ok {
		server.RespondWithError(c, errors.ConnectionClosed(req.ConnID))
		return
	}
	sess.Unsubscribe(req.Channel)

	server.RespondOK(c, SubscriptionResponse{
		ConnID:      req.ConnID,
		Channel:     req.Channel,
		Subscribed:  false,
		Subscribers: a.hub.Registry().SubscriberCount(req.Channel),
	})
}
