package envelope

import (
	"bytes"
	"encoding/json"

	"github.com/skillsenselab/relay/errors"
)

// Version is the wire format version tag carried by every encoded envelope.
// Receivers reject envelopes with a tag they do not understand.
const Version = 1

// DefaultMaxPayload is the payload size limit used when a Codec is created
// with no explicit limit.
const DefaultMaxPayload = 64 * 1024

// Event is an immutable broadcast event. It is created by the publisher at
// publish time and never mutated afterwards.
type Event struct {
	// Channel is the name of the channel the event was published to.
	Channel string
	// Name is the application-level event name (e.g. "msg", "user.created").
	Name string
	// Payload is the opaque application payload.
	Payload []byte
	// Seq is the per-channel sequence number, strictly increasing and
	// gap-free as observed by a continuously connected subscriber.
	Seq uint64
	// At is the publish time in Unix milliseconds.
	At int64
}

// Equal reports whether two events are identical field for field.
func (e Event) Equal(other Event) bool {
	return e.Channel == other.Channel &&
		e.Name == other.Name &&
		e.Seq == other.Seq &&
		e.At == other.At &&
		bytes.Equal(e.Payload, other.Payload)
}

// wireEnvelope is the JSON wire shape. Payload is base64 on the wire via
// encoding/json's []byte handling.
type wireEnvelope struct {
	Version *int   `json:"v"`
	Channel string `json:"channel"`
	Event   string `json:"event"`
	Payload []byte `json:"payload,omitempty"`
	Seq     uint64 `json:"seq"`
	At      int64  `json:"at"`
}

// Codec encodes and decodes events to and from the versioned wire format.
// Both directions are pure; a Codec carries only its payload size limit.
type Codec struct {
	// MaxPayload is the maximum accepted payload size in bytes.
	MaxPayload int
}

// NewCodec creates a Codec with the given payload limit, or
// DefaultMaxPayload when maxPayload is not positive.
func NewCodec(maxPayload int) Codec {
	if maxPayload <= 0 {
		maxPayload = DefaultMaxPayload
	}
	return Codec{MaxPayload: maxPayload}
}

// Encode serializes an event into the versioned wire format.
// The output is deterministic for a given event.
func (c Codec) Encode(e Event) ([]byte, error) {
	if len(e.Payload) > c.MaxPayload {
		return nil, errors.PayloadTooLarge(len(e.Payload), c.MaxPayload)
	}
	v := Version
	data, err := json.Marshal(wireEnvelope{
		Version: &v,
		Channel: e.Channel,
		Event:   e.Name,
		Payload: e.Payload,
		Seq:     e.Seq,
		At:      e.At,
	})
	if err != nil {
		return nil, errors.Internal(err)
	}
	return data, nil
}

// Decode parses wire bytes back into an Event. It fails on truncated or
// otherwise invalid JSON, a missing or unknown version tag, and payloads
// over the configured maximum.
func (c Codec) Decode(data []byte) (Event, error) {
	var w wireEnvelope
	if err := json.Unmarshal(data, &w); err != nil {
		return Event{}, errors.DecodeFailed("invalid envelope").WithCause(err)
	}
	if w.Version == nil {
		return Event{}, errors.DecodeFailed("missing version tag")
	}
	if *w.Version != Version {
		return Event{}, errors.DecodeFailed("unknown version tag").WithDetail("version", *w.Version)
	}
	if len(w.Payload) > c.MaxPayload {
		return Event{}, errors.PayloadTooLarge(len(w.Payload), c.MaxPayload)
	}
	return Event{
		Channel: w.Channel,
		Name:    w.Event,
		Payload: w.Payload,
		Seq:     w.Seq,
		At:      w.At,
	}, nil
}
