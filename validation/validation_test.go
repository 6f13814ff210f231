package validation

import (
	"strings"
	"testing"
)

type testPublish struct {
	Channel string `json:"channel" validate:"required,channel"`
	Event   string `json:"event" validate:"required,max=128"`
}

func TestValidateStruct(t *testing.T) {
	err := Validate(testPublish{Channel: "orders.eu-west", Event: "order_created"})
	if err != nil {
		t.Errorf("expected no error for valid struct, got %v", err)
	}
}

func TestValidateMissingFields(t *testing.T) {
	err := Validate(testPublish{})
	if err == nil {
		t.Fatal("expected error for empty struct")
	}
	if !strings.Contains(err.Error(), "channel") {
		t.Errorf("expected channel in message, got %q", err.Error())
	}
	if !strings.Contains(err.Error(), "event") {
		t.Errorf("expected event in message, got %q", err.Error())
	}
}

func TestValidateBadChannel(t *testing.T) {
	err := Validate(testPublish{Channel: "bad channel!", Event: "e"})
	if err == nil {
		t.Fatal("expected error for malformed channel name")
	}
}

func TestValidChannel(t *testing.T) {
	valid := []string{"orders", "orders.eu-west", "a.b.c", "user_42", "A-1"}
	for _, name := range valid {
		if !ValidChannel(name) {
			t.Errorf("expected %q to be valid", name)
		}
	}

	invalid := []string{"", ".", "orders.", ".orders", "a..b", "has space", "semi;colon", strings.Repeat("x", 129)}
	for _, name := range invalid {
		if ValidChannel(name) {
			t.Errorf("expected %q to be invalid", name)
		}
	}
}
