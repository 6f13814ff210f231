package bootstrap

import (
	"github.com/skillsenselab/relay/config"
)

// Config is the interface constraint for application configuration types.
// Any struct that embeds config.ServiceConfig (value embedding) automatically
// satisfies this interface via promoted methods.
//
// Example:
//
//	type RelayConfig struct {
//	    config.ServiceConfig `yaml:",inline" mapstructure:",squash"`
//	    Hub hub.Config `yaml:"hub" mapstructure:"hub"`
//	}
//
//	app, err := bootstrap.NewApp(&cfg)
type Config interface {
	GetServiceConfig() *config.ServiceConfig
	ApplyDefaults()
	Validate() error
}
