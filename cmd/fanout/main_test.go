package main

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validConfig() Config {
	return Config{
		Mode:         "single",
		Publishers:   2,
		Subscribers:  4,
		Publications: 8,
		Removers:     1,
		Resizes:      2,
		ResizeEvery:  time.Millisecond,
		Duration:     time.Millisecond,
	}
}

func TestConfig_Validate(t *testing.T) {
	t.Parallel()

	require.NoError(t, validConfig().Validate())

	tests := []struct {
		name   string
		mutate func(*Config)
		errMsg string
	}{
		{"zero publishers", func(c *Config) { c.Publishers = 0 }, "FANOUT_PUBLISHERS"},
		{"negative publishers", func(c *Config) { c.Publishers = -1 }, "FANOUT_PUBLISHERS"},
		{"zero publications", func(c *Config) { c.Publications = 0 }, "FANOUT_PUBLICATIONS"},
		{"negative subscribers", func(c *Config) { c.Subscribers = -1 }, "FANOUT_SUBSCRIBERS"},
		{"negative removers", func(c *Config) { c.Removers = -2 }, "FANOUT_REMOVERS"},
		{"negative resizes", func(c *Config) { c.Resizes = -1 }, "FANOUT_RESIZES"},
		{"unknown mode", func(c *Config) { c.Mode = "burst" }, "FANOUT_MODE"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			cfg := validConfig()
			tt.mutate(&cfg)

			err := cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errMsg)
		})
	}

	t.Run("no subscribers or removers is allowed", func(t *testing.T) {
		t.Parallel()
		cfg := validConfig()
		cfg.Subscribers = 0
		cfg.Removers = 0
		assert.NoError(t, cfg.Validate())
	})
}

func TestRun_RejectsInvalidConfig(t *testing.T) {
	t.Setenv("FANOUT_MODE", "single")
	t.Setenv("FANOUT_PUBLICATIONS", "0")

	err := run()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "FANOUT_PUBLICATIONS")
}
