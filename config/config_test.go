package config_test

import (
	"testing"

	"github.com/spf13/viper"

	"github.com/momentics/sessionmux/config"
	"github.com/momentics/sessionmux/producer"
)

func TestLoadAppliesDefaultsWhenNilViper(t *testing.T) {
	cfg, err := config.Load(nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.MinimumPollingThreads != 1 {
		t.Errorf("expected default MinimumPollingThreads=1, got %d", cfg.MinimumPollingThreads)
	}
	if cfg.MaximumEventsPerPollingThread != producer.DefaultEventsPerPollingThread {
		t.Errorf("expected default MaximumEventsPerPollingThread=%d, got %d",
			producer.DefaultEventsPerPollingThread, cfg.MaximumEventsPerPollingThread)
	}
}

func TestLoadReadsExplicitValues(t *testing.T) {
	v := viper.New()
	v.Set(config.KeyMinimumPollingThreads, 4)
	v.Set(config.KeyMaximumEventsPerPollingThread, 16)

	cfg, err := config.Load(v)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.MinimumPollingThreads != 4 {
		t.Errorf("expected MinimumPollingThreads=4, got %d", cfg.MinimumPollingThreads)
	}
	if cfg.MaximumEventsPerPollingThread != 16 {
		t.Errorf("expected MaximumEventsPerPollingThread=16, got %d", cfg.MaximumEventsPerPollingThread)
	}
}

func TestLoadRejectsNegativeValues(t *testing.T) {
	v := viper.New()
	v.Set(config.KeyMinimumPollingThreads, -1)

	if _, err := config.Load(v); err == nil {
		t.Fatal("expected an error for a negative MinimumPollingThreads")
	}
}

func TestLoadClampsMaximumEventsPerPollingThread(t *testing.T) {
	v := viper.New()
	v.Set(config.KeyMaximumEventsPerPollingThread, 1000)

	cfg, err := config.Load(v)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.MaximumEventsPerPollingThread != producer.MaxEventsPerPollingThread {
		t.Errorf("expected clamp to %d, got %d", producer.MaxEventsPerPollingThread, cfg.MaximumEventsPerPollingThread)
	}
}
