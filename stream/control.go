package stream

import (
	"encoding/json"

	"github.com/skillsenselab/relay/errors"
	"github.com/skillsenselab/relay/validation"
)

// Control operations accepted on bidirectional transports.
const (
	OpSubscribe   = "subscribe"
	OpUnsubscribe = "unsubscribe"
)

// ControlMessage is an inbound subscription change request.
type ControlMessage struct {
	Op      string `json:"op" validate:"required,oneof=subscribe unsubscribe"`
	Channel string `json:"channel" validate:"required,channel"`
}

// Ack is the reply to a control message. Error is set when OK is false.
type Ack struct {
	Type    string `json:"type"`
	Op      string `json:"op"`
	Channel string `json:"channel"`
	OK      bool   `json:"ok"`
	Error   string `json:"error,omitempty"`
}

// DecodeControl parses and validates a control message.
func DecodeControl(data []byte) (ControlMessage, error) {
	var msg ControlMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return ControlMessage{}, errors.DecodeFailed("invalid control message").WithCause(err)
	}
	if err := validation.Validate(msg); err != nil {
		return ControlMessage{}, err
	}
	return msg, nil
}

// apply runs a control message against a session and builds the ack.
func (s *Session) apply(msg ControlMessage) Ack {
	ack := Ack{Type: "ack", Op: msg.Op, Channel: msg.Channel, OK: true}
	switch msg.Op {
	case OpSubscribe:
		if err := s.Subscribe(msg.Channel); err != nil {
			ack.OK = false
			ack.Error = err.Error()
		}
	case OpUnsubscribe:
		s.Unsubscribe(msg.Channel)
	}
	return ack
}
