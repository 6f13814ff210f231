// Package logger provides structured logging for relay built on zerolog.
//
// It offers a global logger for package-level convenience plus instance
// loggers that can be tagged with a component name or enriched with fields:
//
//	log := logger.WithComponent("hub")
//	log.Info("channel created", logger.Fields("channel", name))
package logger
