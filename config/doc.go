// Package config provides layered configuration loading for relay services:
// a YAML config file as the base, overridden by environment variables,
// supplemented by a .env file. Services embed ServiceConfig in their own
// config struct and extend ApplyDefaults/Validate.
package config
