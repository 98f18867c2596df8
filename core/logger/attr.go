package logger

import (
	"log/slog"
	"strconv"
	"time"
)

// Attribute helpers return the empty Attr for nil inputs, so callers can
// write log.Debug("msg", logger.Error(err)) without nil checks.

// Group creates a group of attributes under a single key.
func Group(name string, attrs ...slog.Attr) slog.Attr {
	return slog.Attr{Key: name, Value: slog.GroupValue(attrs...)}
}

// ============================================================================
// Error Handling
// ============================================================================

// Errors groups multiple non-nil errors under the key "errors".
// Uses index-based keys to preserve error order. Returns empty Attr for all nil errors.
func Errors(errs ...error) slog.Attr {
	count := 0
	for _, err := range errs {
		if err != nil {
			count++
		}
	}
	if count == 0 {
		return slog.Attr{}
	}

	as := make([]slog.Attr, 0, count)
	for i, err := range errs {
		if err != nil {
			as = append(as, slog.Any(strconv.Itoa(i), err))
		}
	}
	return slog.Attr{Key: "errors", Value: slog.GroupValue(as...)}
}

// Error creates an attribute for a single error under the key "error".
func Error(err error) slog.Attr {
	if err == nil {
		return slog.Attr{}
	}
	return slog.Any("error", err)
}

// ============================================================================
// Timing
// ============================================================================

// Duration creates an attribute for a duration.
func Duration(d time.Duration) slog.Attr {
	return slog.Duration("duration", d)
}

// Elapsed calculates and logs the duration since the start time.
func Elapsed(start time.Time) slog.Attr {
	return slog.Duration("elapsed", time.Since(start))
}

// ============================================================================
// Queue
// ============================================================================

// Token creates an attribute for a subscriber token.
func Token(token any) slog.Attr {
	if token == nil {
		return slog.Attr{}
	}
	return slog.Any("token", token)
}

// Payload creates an attribute for a message payload reference.
func Payload(v any) slog.Attr {
	if v == nil {
		return slog.Attr{}
	}
	return slog.Any("payload", v)
}

// Capacity creates an attribute for a queue capacity.
func Capacity(n int) slog.Attr {
	return slog.Int("capacity", n)
}

// Size creates an attribute for the number of retained messages.
func Size(n int) slog.Attr {
	return slog.Int("size", n)
}

// Buckets creates an attribute for a hash table bucket count.
func Buckets(n int) slog.Attr {
	return slog.Int("buckets", n)
}

// Waiters groups the number of parked getters and putters.
func Waiters(getters, putters int) slog.Attr {
	return Group("waiters", slog.Int("getters", getters), slog.Int("putters", putters))
}

// ============================================================================
// Generic Metadata
// ============================================================================

// Component creates an attribute for component names.
func Component(name string) slog.Attr {
	return slog.String("component", name)
}

// Worker creates an attribute identifying a demo or background worker.
func Worker(role string, id int) slog.Attr {
	return Group("worker", slog.String("role", role), slog.Int("id", id))
}

// Count creates a generic counter attribute.
func Count(key string, n int) slog.Attr {
	return slog.Int(key, n)
}
