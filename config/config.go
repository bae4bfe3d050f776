// File: config/config.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Viper-backed configuration loading for the producer's tunables. New;
// SPEC_FULL.md Section 1 ambient stack addition (the original reads these
// two values from a boost::program_options/ini source at the call site
// rather than a dedicated config object).

package config

import (
	"github.com/cockroachdb/errors"
	"github.com/spf13/viper"

	"github.com/momentics/sessionmux/producer"
)

// Keys are the viper keys this package reads.
const (
	KeyMinimumPollingThreads         = "producer.minimum_polling_threads"
	KeyMaximumEventsPerPollingThread = "producer.maximum_events_per_polling_thread"
)

// Load builds a producer.Config from v, applying SPEC_FULL.md defaults
// for anything left unset. v may be nil, in which case defaults alone
// are used.
func Load(v *viper.Viper) (producer.Config, error) {
	if v == nil {
		v = viper.New()
	}

	v.SetDefault(KeyMinimumPollingThreads, 1)
	v.SetDefault(KeyMaximumEventsPerPollingThread, producer.DefaultEventsPerPollingThread)

	minThreads := v.GetInt(KeyMinimumPollingThreads)
	maxEvents := v.GetInt(KeyMaximumEventsPerPollingThread)

	if minThreads < 0 || maxEvents < 0 {
		return producer.Config{}, errors.Newf(
			"config: %s and %s must be non-negative, got %d and %d",
			KeyMinimumPollingThreads, KeyMaximumEventsPerPollingThread, minThreads, maxEvents,
		)
	}

	cfg := producer.Config{
		MinimumPollingThreads:         uint(minThreads),
		MaximumEventsPerPollingThread: uint(maxEvents),
	}
	return cfg.Normalize(), nil
}

// NewFromFile loads configuration from path (any format viper supports:
// yaml, json, toml, ini, env) and returns the normalized producer.Config.
func NewFromFile(path string) (producer.Config, error) {
	v := viper.New()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return producer.Config{}, errors.Wrapf(err, "config: reading %s", path)
	}
	return Load(v)
}
