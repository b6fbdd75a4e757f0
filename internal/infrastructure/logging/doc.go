// Package logging provides structured logging using uber/zap.
//
// Two modes are supported:
//   - Production: JSON output for machine parsing
//   - Development: colored console output for human readability
//
// Example Usage:
//
//	logger := logging.NewDefault()
//	logger.Info("daemon starting", zap.String("port", "8777"))
//	logger.Error("provider call failed", zap.Error(err))
package logging
