package broadcast

import "errors"

// Queue state errors. None of them is retried internally.
var (
	// ErrAlreadyDestroyed is returned by Destroy when the queue has already been torn down.
	ErrAlreadyDestroyed = errors.New("broadcast: queue already destroyed")

	// ErrDestroyed is returned by every other operation once the queue is destroyed,
	// including callers that were parked in Put or Get when Destroy started.
	ErrDestroyed = errors.New("broadcast: queue destroyed")

	// ErrNotSubscribed is returned when the token has no live subscription.
	ErrNotSubscribed = errors.New("broadcast: not subscribed")

	// ErrAlreadySubscribed is returned when subscribing a token twice.
	ErrAlreadySubscribed = errors.New("broadcast: already subscribed")

	// ErrNotFound is returned by Remove when no retained message matches the payload.
	ErrNotFound = errors.New("broadcast: message not found")
)

// Argument errors.
var (
	ErrInvalidCapacity = errors.New("broadcast: capacity must not be negative")
	ErrInvalidBuckets  = errors.New("broadcast: bucket count must be positive")
	ErrInvalidHasher   = errors.New("broadcast: hasher does not match token type")
)
