package broadcast

import "log/slog"

const (
	// DefaultBuckets is the registry bucket count used when none is given.
	DefaultBuckets = 16

	// DefaultCompactThreshold is the publish-time reader count above which
	// the ledger folds every pending carry and rebases the count. Departed
	// subscribers stay in that count until their carry reaches the tail,
	// so a long-lived queue with heavy churn keeps growing it.
	DefaultCompactThreshold = 1 << 30
)

// Option configures a Queue.
type Option func(*options)

type options struct {
	buckets          int
	compactThreshold int
	hasher           any
	logger           *slog.Logger
}

// WithBuckets sets the initial registry bucket count.
func WithBuckets(n int) Option {
	return func(o *options) {
		o.buckets = n
	}
}

// WithCompactThreshold overrides DefaultCompactThreshold. Non-positive values are ignored.
func WithCompactThreshold(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.compactThreshold = n
		}
	}
}

// WithHasher replaces the token hash function. K must match the queue's token type.
func WithHasher[K comparable](h Hasher[K]) Option {
	return func(o *options) {
		if h != nil {
			o.hasher = h
		}
	}
}

// WithLogger sets the logger for internal diagnostics.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		if logger != nil {
			o.logger = logger
		}
	}
}
