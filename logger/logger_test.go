package logger

import (
	"testing"
)

func TestConfig_ApplyDefaults(t *testing.T) {
	cfg := &Config{}
	cfg.ApplyDefaults()

	if cfg.Level != "info" {
		t.Errorf("expected level 'info', got %q", cfg.Level)
	}
	if cfg.Format != "console" {
		t.Errorf("expected format 'console', got %q", cfg.Format)
	}
	if cfg.Output != "stdout" {
		t.Errorf("expected output 'stdout', got %q", cfg.Output)
	}
	if !cfg.Timestamp {
		t.Error("expected timestamp to default to true")
	}
}

func TestConfig_Validate(t *testing.T) {
	cfg := &Config{}
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config should validate, got: %v", err)
	}

	cfg.Level = "verbose"
	if err := cfg.Validate(); err == nil {
		t.Error("expected error for invalid level")
	}

	cfg.Level = "debug"
	cfg.Format = "xml"
	if err := cfg.Validate(); err == nil {
		t.Error("expected error for invalid format")
	}
}

func TestNew_JSONFormat(t *testing.T) {
	cfg := &Config{Level: "debug", Format: "json", Output: "stdout"}
	l := New(cfg, "relay")
	if l == nil {
		t.Fatal("expected logger")
	}
	// Must not panic.
	l.Debug("debug message")
	l.Info("info message", Fields("k", "v"))
}

func TestNew_InvalidLevelFallsBack(t *testing.T) {
	cfg := &Config{Level: "nonsense", Format: "json"}
	l := New(cfg, "relay")
	if l == nil {
		t.Fatal("expected logger despite invalid level")
	}
}

func TestWithComponent(t *testing.T) {
	l := NewDefault("relay").WithComponent("hub")
	if l == nil {
		t.Fatal("expected component logger")
	}
	l.Info("tagged")
}

func TestFields(t *testing.T) {
	m := Fields("channel", "chat", "seq", 7)
	if m["channel"] != "chat" {
		t.Errorf("expected channel 'chat', got %v", m["channel"])
	}
	if m["seq"] != 7 {
		t.Errorf("expected seq 7, got %v", m["seq"])
	}

	// Odd trailing key is dropped.
	m = Fields("only")
	if len(m) != 0 {
		t.Errorf("expected empty map, got %v", m)
	}

	// Non-string key is skipped.
	m = Fields(42, "v", "ok", true)
	if _, found := m["42"]; found {
		t.Error("non-string key should not be coerced")
	}
	if m["ok"] != true {
		t.Error("expected ok=true")
	}
}

func TestGetGlobalLogger(t *testing.T) {
	globalLogger = nil
	l := GetGlobalLogger()
	if l == nil {
		t.Fatal("expected lazily created global logger")
	}
	SetGlobalLogger(l)
	if GetGlobalLogger() != l {
		t.Error("expected the same global instance")
	}
}
