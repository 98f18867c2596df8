// Package config fills env-tagged structs from the process environment.
//
// Load parses into any struct type using caarlos0/env tags. The first call
// in a process also reads a .env file from the working directory through
// joho/godotenv; a missing file is ignored and variables already set in the
// environment win over the file.
//
//	type QueueConfig struct {
//		Capacity int    `env:"QUEUE_CAPACITY" envDefault:"16"`
//		Region   string `env:"QUEUE_REGION,required"`
//	}
//
//	var cfg QueueConfig
//	if err := config.Load(&cfg); err != nil {
//		return err // "config: parse config.QueueConfig: ..."
//	}
//
// MustLoad is the startup variant that panics instead of returning.
//
// # Per-Type Cache
//
// The parsed value is cached under its Go type. Later Load calls for the
// same type copy the cached value and do not look at the environment again,
// so changes made after the first load are not observed. A failed parse is
// not cached and the next call retries.
//
// # Errors
//
// A nil destination returns ErrNilConfig. Parse failures (missing required
// variables, malformed numbers or durations) are wrapped with the type name
// and keep the caarlos0/env error in the chain for errors.As.
package config
