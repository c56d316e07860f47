package fluid

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("DefaultConfig().Validate() = %v, want nil", err)
	}
	if cfg.SimResolution != 256 || cfg.DyeResolution != 1024 {
		t.Errorf("resolutions = %d/%d, want 256/1024", cfg.SimResolution, cfg.DyeResolution)
	}
	if !cfg.Paused {
		t.Error("Paused = false, want true")
	}
	if got := time.Duration(cfg.SettleDelay); got != 2500*time.Millisecond {
		t.Errorf("SettleDelay = %v, want 2.5s", got)
	}
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		field  string
	}{
		{"sim resolution", func(c *Config) { c.SimResolution = 0 }, "sim_resolution"},
		{"dye resolution", func(c *Config) { c.DyeResolution = -1 }, "dye_resolution"},
		{"pressure iterations", func(c *Config) { c.PressureIterations = 0 }, "pressure_iterations"},
		{"bloom iterations", func(c *Config) { c.BloomIterations = -2 }, "bloom_iterations"},
		{"settle delay", func(c *Config) { c.SettleDelay = Duration(-time.Second) }, "settle_delay"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if !errors.Is(err, ErrInvalidConfig) {
				t.Fatalf("Validate() = %v, want ErrInvalidConfig", err)
			}
			if !strings.Contains(err.Error(), tt.field) {
				t.Errorf("Validate() = %q, want mention of %s", err, tt.field)
			}
		})
	}
}

func TestConfigValidateAllowsNegativeTuning(t *testing.T) {
	cfg := DefaultConfig()
	cfg.DensityDissipation = -5
	cfg.SplatForce = -1
	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate() = %v, want nil", err)
	}
}

func TestDecodeConfig(t *testing.T) {
	cfg, err := DecodeConfig(strings.NewReader(`
sim_resolution = 128
shading = true
back_color = { r = 10, g = 20, b = 30 }
settle_delay = "500ms"
text = "hello"
`))
	if err != nil {
		t.Fatalf("DecodeConfig() error = %v", err)
	}
	if cfg.SimResolution != 128 {
		t.Errorf("SimResolution = %d, want 128", cfg.SimResolution)
	}
	if !cfg.Shading {
		t.Error("Shading = false, want true")
	}
	if want := (RGB{10, 20, 30}); cfg.BackColor != want {
		t.Errorf("BackColor = %v, want %v", cfg.BackColor, want)
	}
	if got := time.Duration(cfg.SettleDelay); got != 500*time.Millisecond {
		t.Errorf("SettleDelay = %v, want 500ms", got)
	}
	if cfg.DyeResolution != 1024 {
		t.Errorf("DyeResolution = %d, want default 1024", cfg.DyeResolution)
	}
}

func TestDecodeConfigErrors(t *testing.T) {
	tests := []struct {
		name string
		doc  string
	}{
		{"unknown key", "velocity = 3\n"},
		{"bad type", "curl = \"lots\"\n"},
		{"bad duration", "settle_delay = \"soon\"\n"},
		{"invalid value", "sim_resolution = 0\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := DecodeConfig(strings.NewReader(tt.doc)); !errors.Is(err, ErrInvalidConfig) {
				t.Errorf("DecodeConfig() = %v, want ErrInvalidConfig", err)
			}
		})
	}
}

func TestLoadConfigRoundTrip(t *testing.T) {
	want := DefaultConfig()
	want.Colorful = true
	want.BackColor = RGB{1, 2, 3}
	want.SettleDelay = Duration(3 * time.Second)

	data, err := want.MarshalTOML()
	if err != nil {
		t.Fatalf("MarshalTOML() error = %v", err)
	}
	path := filepath.Join(t.TempDir(), "fluid.toml")
	if err := os.WriteFile(path, data, 0o600); err != nil {
		t.Fatal(err)
	}

	got, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}
	if *got != *want {
		t.Errorf("LoadConfig() = %+v, want %+v", *got, *want)
	}
}

func TestLoadConfigMissingFile(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "missing.toml"))
	if !errors.Is(err, os.ErrNotExist) {
		t.Errorf("LoadConfig() = %v, want os.ErrNotExist", err)
	}
}

func TestNeedsRealloc(t *testing.T) {
	base := DefaultConfig()
	tests := []struct {
		name   string
		mutate func(*Config)
		want   bool
	}{
		{"curl", func(c *Config) { c.Curl = 1 }, false},
		{"sim resolution", func(c *Config) { c.SimResolution = 64 }, true},
		{"bloom iterations", func(c *Config) { c.BloomIterations = 2 }, true},
		{"sunrays resolution", func(c *Config) { c.SunraysResolution = 64 }, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			next := *base
			tt.mutate(&next)
			if got := base.needsRealloc(&next); got != tt.want {
				t.Errorf("needsRealloc() = %v, want %v", got, tt.want)
			}
		})
	}
}
