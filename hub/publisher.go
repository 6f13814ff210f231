package hub

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/skillsenselab/relay/envelope"
	"github.com/skillsenselab/relay/errors"
	"github.com/skillsenselab/relay/logger"
)

const tracerName = "github.com/skillsenselab/relay/hub"

// Publisher accepts events and fans them out to every subscriber of the
// target channel. Fan-out is best-effort per subscriber: a slow or gone
// subscriber never blocks or fails delivery to the others, and Publish
// returns as soon as every subscriber's queue has been offered the event.
type Publisher struct {
	hub   *Hub
	codec envelope.Codec
	log   *logger.Logger
}

// NewPublisher creates a Publisher over the given hub.
func NewPublisher(h *Hub) *Publisher {
	return &Publisher{
		hub:   h,
		codec: envelope.NewCodec(h.cfg.MaxPayload),
		log:   h.log.WithComponent("publisher"),
	}
}

// Codec returns the codec publishers and transports share for this hub.
func (p *Publisher) Codec() envelope.Codec { return p.codec }

// Publish assigns the channel's next sequence number, builds the event, and
// hands it to every snapshotted subscriber's queue. Publishing to a channel
// with no subscribers succeeds and still consumes a sequence number.
// Publishers run on the caller's goroutine; the queue handoff is the only
// touch point with subscribers and it never blocks.
func (p *Publisher) Publish(ctx context.Context, channel, eventName string, payload []byte) (uint64, error) {
	_, span := otel.Tracer(tracerName).Start(ctx, "hub.publish")
	defer span.End()
	span.SetAttributes(attribute.String("channel", channel))

	if channel == "" {
		return 0, errors.MissingField("channel")
	}
	if len(payload) > p.codec.MaxPayload {
		return 0, errors.PayloadTooLarge(len(payload), p.codec.MaxPayload)
	}

	seq, subscribers := p.hub.registry.SnapshotForPublish(channel)
	event := envelope.Event{
		Channel: channel,
		Name:    eventName,
		Payload: payload,
		Seq:     seq,
		At:      time.Now().UnixMilli(),
	}

	delivered := 0
	for _, connID := range subscribers {
		q, ok := p.hub.queue(connID)
		if !ok {
			// Raced with a detach; the registry entry is already on its
			// way out.
			continue
		}
		accepted, evicted := q.Enqueue(event)
		if accepted {
			delivered++
		}
		// An eviction drops a previously queued event, a rejection drops
		// this one. Both are one lost delivery for this subscriber.
		if evicted || !accepted {
			p.hub.metrics.EventDropped(connID)
		}
	}

	p.hub.metrics.EventPublished(channel, len(subscribers))
	span.SetAttributes(
		attribute.Int64("seq", int64(seq)),
		attribute.Int("fanout", len(subscribers)),
	)
	p.log.Debug("Published", logger.Fields(
		logger.FieldChannel, channel,
		logger.FieldEvent, eventName,
		logger.FieldSeq, seq,
		"fanout", len(subscribers),
		"delivered", delivered,
	))
	return seq, nil
}
