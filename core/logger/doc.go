// Package logger provides structured logging helpers built on Go's standard slog package.
//
// New builds a logger from options, and the attribute helpers give the queue
// and the demo driver consistent keys. Helpers return the empty slog.Attr for
// nil inputs, so they can be passed unconditionally.
//
// # Basic Usage
//
//	import "github.com/dmitrymomot/fanout/core/logger"
//
//	// Development: text format, debug level, stdout
//	log := logger.New(logger.WithDevelopment("fanout"))
//
//	// Production: JSON format, info level
//	log := logger.New(
//		logger.WithProduction("fanout"),
//		logger.WithOutput(os.Stderr),
//	)
//
//	log.Info("subscriber finished",
//		logger.Worker("subscriber", 3),
//		logger.Count("received", n),
//		logger.Error(err),
//	)
//
// # Queue Attributes
//
//	logger.Token(id)          // "token"
//	logger.Payload(msg)       // "payload"
//	logger.Capacity(16)       // "capacity"
//	logger.Size(4)            // "size"
//	logger.Buckets(32)        // "buckets"
//	logger.Waiters(2, 1)      // "waiters": {"getters": 2, "putters": 1}
//
// Discard returns a logger that drops everything; it is the default for
// components that accept a WithLogger option.
package logger
