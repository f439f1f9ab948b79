package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Comms.TTLMs != 5000 {
		t.Errorf("ttl_ms = %d, want 5000", cfg.Comms.TTLMs)
	}
	if cfg.Hivemind.CooldownTicks != 300 {
		t.Errorf("cooldown_ticks = %d, want 300", cfg.Hivemind.CooldownTicks)
	}
	if cfg.Difficulty.Min != 0.1 || cfg.Difficulty.Max != 1.0 {
		t.Errorf("difficulty bounds = [%v, %v], want [0.1, 1]", cfg.Difficulty.Min, cfg.Difficulty.Max)
	}
	if cfg.Derived.TickMs != 17 {
		t.Errorf("TickMs = %d, want 17", cfg.Derived.TickMs)
	}
	for _, name := range []string{"baseline", "heavy", "fast", "adaptive"} {
		if _, ok := cfg.Archetype(name); !ok {
			t.Errorf("archetype %q missing", name)
		}
	}
}

func TestLoadOverridesOnlyPresentFields(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "override.yaml")
	data := []byte("hivemind:\n  cooldown_ticks: 120\n")
	if err := os.WriteFile(path, data, 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Hivemind.CooldownTicks != 120 {
		t.Errorf("cooldown_ticks = %d, want 120", cfg.Hivemind.CooldownTicks)
	}
	if cfg.Hivemind.Weights.SurroundOpen != 0.3 {
		t.Errorf("surround_open = %v, want default 0.3", cfg.Hivemind.Weights.SurroundOpen)
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestWriteYAMLRoundTrip(t *testing.T) {
	cfg := Default()
	cfg.Difficulty.Step = 0.08
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := cfg.WriteYAML(path); err != nil {
		t.Fatalf("WriteYAML: %v", err)
	}
	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if loaded.Difficulty.Step != 0.08 {
		t.Errorf("step = %v, want 0.08", loaded.Difficulty.Step)
	}
}
