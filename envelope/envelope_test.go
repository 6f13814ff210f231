package envelope

import (
	"strings"
	"testing"

	"github.com/skillsenselab/relay/errors"
)

func TestCodec_RoundTrip(t *testing.T) {
	codec := NewCodec(0)

	events := []Event{
		{Channel: "chat", Name: "msg", Payload: []byte("hi"), Seq: 1, At: 1700000000000},
		{Channel: "dash", Name: "metric", Payload: nil, Seq: 42, At: 0},
		{Channel: "a", Name: "", Payload: []byte{0x00, 0xff, 0x7f}, Seq: 0, At: -1},
	}

	for _, e := range events {
		data, err := codec.Encode(e)
		if err != nil {
			t.Fatalf("Encode(%v) failed: %v", e, err)
		}
		got, err := codec.Decode(data)
		if err != nil {
			t.Fatalf("Decode failed: %v", err)
		}
		if !got.Equal(e) {
			t.Errorf("round trip mismatch: sent %+v, got %+v", e, got)
		}
	}
}

func TestCodec_EncodeDeterministic(t *testing.T) {
	codec := NewCodec(0)
	e := Event{Channel: "chat", Name: "msg", Payload: []byte("hi"), Seq: 7, At: 99}

	first, err := codec.Encode(e)
	if err != nil {
		t.Fatalf("Encode failed: %v", err)
	}
	second, _ := codec.Encode(e)
	if string(first) != string(second) {
		t.Errorf("encoding not deterministic: %s vs %s", first, second)
	}
	if !strings.Contains(string(first), `"v":1`) {
		t.Errorf("expected version tag in wire form, got %s", first)
	}
}

func TestCodec_DecodeTruncated(t *testing.T) {
	codec := NewCodec(0)
	data, _ := codec.Encode(Event{Channel: "chat", Name: "msg", Payload: []byte("hello")})

	_, err := codec.Decode(data[:len(data)/2])
	if err == nil {
		t.Fatal("expected error for truncated input")
	}
	appErr, ok := errors.AsAppError(err)
	if !ok || appErr.Code != errors.ErrCodeDecodeFailed {
		t.Errorf("expected DECODE_FAILED, got %v", err)
	}
}

func TestCodec_DecodeMissingVersion(t *testing.T) {
	codec := NewCodec(0)
	_, err := codec.Decode([]byte(`{"channel":"chat","event":"msg","seq":1,"at":0}`))
	if err == nil {
		t.Fatal("expected error for missing version tag")
	}
}

func TestCodec_DecodeUnknownVersion(t *testing.T) {
	codec := NewCodec(0)
	_, err := codec.Decode([]byte(`{"v":9,"channel":"chat","event":"msg","seq":1,"at":0}`))
	if err == nil {
		t.Fatal("expected error for unknown version tag")
	}
	appErr, _ := errors.AsAppError(err)
	if appErr.Details["version"] != 9 {
		t.Errorf("expected version detail, got %v", appErr.Details)
	}
}

func TestCodec_PayloadLimit(t *testing.T) {
	codec := NewCodec(4)

	if _, err := codec.Encode(Event{Channel: "c", Payload: []byte("12345")}); err == nil {
		t.Error("expected encode to reject oversize payload")
	}

	// A permissive encoder paired with a strict decoder.
	big := NewCodec(0)
	data, err := big.Encode(Event{Channel: "c", Name: "e", Payload: []byte("12345")})
	if err != nil {
		t.Fatalf("Encode failed: %v", err)
	}
	_, err = codec.Decode(data)
	if err == nil {
		t.Fatal("expected decode to reject oversize payload")
	}
	appErr, ok := errors.AsAppError(err)
	if !ok || appErr.Code != errors.ErrCodePayloadTooLarge {
		t.Errorf("expected PAYLOAD_TOO_LARGE, got %v", err)
	}
}

func TestNewCodec_DefaultLimit(t *testing.T) {
	if NewCodec(0).MaxPayload != DefaultMaxPayload {
		t.Error("expected default payload limit")
	}
	if NewCodec(-5).MaxPayload != DefaultMaxPayload {
		t.Error("expected default payload limit for negative input")
	}
	if NewCodec(1024).MaxPayload != 1024 {
		t.Error("expected explicit payload limit")
	}
}
