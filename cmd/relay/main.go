package main

import (
	"context"
	"fmt"
	"os"

	"github.com/skillsenselab/relay/api"
	"github.com/skillsenselab/relay/bootstrap"
	"github.com/skillsenselab/relay/component"
	"github.com/skillsenselab/relay/config"
	"github.com/skillsenselab/relay/hub"
	"github.com/skillsenselab/relay/observability"
	"github.com/skillsenselab/relay/server"
	"github.com/skillsenselab/relay/stream"
	"github.com/skillsenselab/relay/version"
)

const serviceName = "relay"

// RelayConfig is the full configuration for the relay service.
type RelayConfig struct {
	config.ServiceConfig `yaml:",inline" mapstructure:",squash"`

	Hub           hub.Config           `yaml:"hub" mapstructure:"hub"`
	Stream        stream.Config        `yaml:"stream" mapstructure:"stream"`
	Server        server.Config        `yaml:"server" mapstructure:"server"`
	Observability observability.Config `yaml:"observability" mapstructure:"observability"`
}

// ApplyDefaults applies defaults for every section.
func (c *RelayConfig) ApplyDefaults() {
	if c.Name == "" {
		c.Name = serviceName
	}
	if c.Version == "" {
		c.Version = version.Get().Version
	}
	c.ServiceConfig.ApplyDefaults()
	c.Hub.ApplyDefaults()
	c.Stream.ApplyDefaults()
	c.Server.ApplyDefaults()
	c.Observability.ApplyDefaults()
}

// Validate validates every section.
func (c *RelayConfig) Validate() error {
	if err := c.ServiceConfig.Validate(); err != nil {
		return err
	}
	if err := c.Hub.Validate(); err != nil {
		return err
	}
	if err := c.Stream.Validate(); err != nil {
		return err
	}
	if err := c.Server.Validate(); err != nil {
		return err
	}
	return c.Observability.Validate()
}

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "relay: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	var cfg RelayConfig
	if err := config.LoadConfig(serviceName, &cfg); err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	app, err := bootstrap.NewApp(&cfg)
	if err != nil {
		return err
	}

	obs := observability.NewComponent(cfg.Observability, app.Name, app.Version, cfg.Environment)
	if err := app.RegisterComponent(obs); err != nil {
		return err
	}

	// The hub component starts after observability, so its metric wiring can
	// pick up the instruments that component's Start built.
	h := hub.New(cfg.Hub, app.Logger)
	hubComp := hub.NewComponent(h, hub.WithMetricsSource(func() hub.Metrics {
		if m := obs.Metrics(); m != nil {
			return m
		}
		return nil
	}))
	if err := app.RegisterComponent(hubComp); err != nil {
		return err
	}

	srv := server.New(cfg.Server, app.Logger)
	srv.ApplyDefaults(app.Name, func(ctx context.Context) []component.Health {
		return app.Components.HealthAll(ctx)
	})
	if err := app.RegisterComponent(server.NewComponent(srv)); err != nil {
		return err
	}

	sessionOpts := []stream.SessionOption{
		stream.WithTransitionHook(func(connID string, from, to stream.State) {
			if m := obs.Metrics(); m != nil {
				m.RecordTransition(connID, from, to)
			}
		}),
	}
	streamAPI := api.NewStreamAPI(h, hub.NewPublisher(h), cfg.Stream, app.Logger, sessionOpts...)
	streamAPI.RegisterRoutes(srv.GinEngine())

	// Close subscriber queues before the server's graceful stop so open
	// streams drain and finish instead of riding out the shutdown timeout.
	app.OnStop(func(ctx context.Context) error {
		h.Shutdown()
		return nil
	})

	return app.Run(context.Background())
}
