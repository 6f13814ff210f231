package config

import (
	"os"
	"testing"
)

type fakeFS struct {
	files map[string]string
}

func (f *fakeFS) Exists(path string) bool {
	_, ok := f.files[path]
	return ok
}

func (f *fakeFS) LoadEnv(path string) error {
	return nil
}

type testConfig struct {
	ServiceConfig `yaml:",inline" mapstructure:",squash"`
	Extra         string `yaml:"extra" mapstructure:"extra"`
}

func TestServiceConfig_ApplyDefaults(t *testing.T) {
	cfg := &ServiceConfig{Name: "relay"}
	cfg.ApplyDefaults()

	if cfg.Environment != "development" {
		t.Errorf("expected development, got %q", cfg.Environment)
	}
	if !cfg.Debug {
		t.Error("development should enable debug")
	}
	if cfg.Logging.ServiceName != "relay" {
		t.Errorf("expected logging service name 'relay', got %q", cfg.Logging.ServiceName)
	}
}

func TestServiceConfig_Validate(t *testing.T) {
	cfg := &ServiceConfig{}
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err == nil {
		t.Error("expected error for missing name")
	}

	cfg.Name = "relay"
	if err := cfg.Validate(); err != nil {
		t.Errorf("expected valid config, got: %v", err)
	}

	cfg.Environment = "testing"
	if err := cfg.Validate(); err == nil {
		t.Error("expected error for invalid environment")
	}
}

func TestLoadConfig_EnvOverride(t *testing.T) {
	os.Setenv("EXTRA", "from-env")
	defer os.Unsetenv("EXTRA")

	var cfg testConfig
	err := LoadConfig("relay", &cfg, WithFileSystem(&fakeFS{files: map[string]string{}}))
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	if cfg.Extra != "from-env" {
		t.Errorf("expected env override, got %q", cfg.Extra)
	}
}

func TestLoadConfig_NestedEnvKeys(t *testing.T) {
	os.Setenv("LOGGING_LEVEL", "debug")
	defer os.Unsetenv("LOGGING_LEVEL")

	var cfg testConfig
	err := LoadConfig("relay", &cfg, WithFileSystem(&fakeFS{files: map[string]string{}}))
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("expected nested env binding, got %q", cfg.Logging.Level)
	}
}

func TestEnvKeyVariants(t *testing.T) {
	variants := envKeyVariants("HUB_QUEUE_CAPACITY")
	want := map[string]bool{
		"hub_queue_capacity": true,
		"hub.queue.capacity": true,
		"hub.queue_capacity": true,
	}
	for _, v := range variants {
		if !want[v] {
			t.Errorf("unexpected variant %q", v)
		}
	}
	if len(variants) != 3 {
		t.Errorf("expected 3 variants, got %d: %v", len(variants), variants)
	}

	single := envKeyVariants("PORT")
	if len(single) != 1 || single[0] != "port" {
		t.Errorf("expected [port], got %v", single)
	}
}
