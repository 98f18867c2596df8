package broadcast

// Config holds queue settings, designed for environment-based configuration.
type Config struct {
	Capacity         int `env:"BROADCAST_CAPACITY" envDefault:"16"`
	Buckets          int `env:"BROADCAST_BUCKETS" envDefault:"16"`
	CompactThreshold int `env:"BROADCAST_COMPACT_THRESHOLD" envDefault:"1073741824"`
}

// DefaultConfig returns the values applied by the envDefault tags.
func DefaultConfig() Config {
	return Config{
		Capacity:         16,
		Buckets:          DefaultBuckets,
		CompactThreshold: DefaultCompactThreshold,
	}
}

// NewFromConfig creates a queue from configuration. Capacity is taken as
// is, so zero is a valid (always full) queue; a zero bucket count falls back
// to DefaultBuckets. Options override config values.
func NewFromConfig[K, V comparable](cfg Config, opts ...Option) (*Queue[K, V], error) {
	if cfg.Buckets == 0 {
		cfg.Buckets = DefaultBuckets
	}

	allOpts := append([]Option{
		WithBuckets(cfg.Buckets),
		WithCompactThreshold(cfg.CompactThreshold),
	}, opts...)

	return New[K, V](cfg.Capacity, allOpts...)
}
