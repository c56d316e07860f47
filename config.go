package fluid

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/pelletier/go-toml/v2"
)

// RGB is a color triple. Config.BackColor uses 0-255 components, pointer
// and splat colors use nominal [0, 1] components that may exceed 1.
type RGB struct {
	R float32 `toml:"r"`
	G float32 `toml:"g"`
	B float32 `toml:"b"`
}

// Duration is a time.Duration that reads and writes as a Go duration
// string ("2.5s") in TOML.
type Duration time.Duration

// MarshalText implements encoding.TextMarshaler.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(time.Duration(d).String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	*d = Duration(v)
	return nil
}

// Config holds every simulation and rendering setting.
//
// A Config is owned by the goroutine running the Driver and is read on
// every frame, so plain field writes take effect on the next tick.
// Resolution changes reallocate the framebuffers.
type Config struct {
	SimResolution       int     `toml:"sim_resolution"`
	DyeResolution       int     `toml:"dye_resolution"`
	CaptureResolution   int     `toml:"capture_resolution"`
	DensityDissipation  float32 `toml:"density_dissipation"`
	VelocityDissipation float32 `toml:"velocity_dissipation"`
	Pressure            float32 `toml:"pressure"`
	PressureIterations  int     `toml:"pressure_iterations"`
	Curl                float32 `toml:"curl"`
	SplatRadius         float32 `toml:"splat_radius"`
	SplatForce          float32 `toml:"splat_force"`
	Shading             bool    `toml:"shading"`
	Colorful            bool    `toml:"colorful"`
	ColorUpdateSpeed    float32 `toml:"color_update_speed"`
	Paused              bool    `toml:"paused"`
	BackColor           RGB     `toml:"back_color,inline"`
	Transparent         bool    `toml:"transparent"`

	Bloom           bool    `toml:"bloom"`
	BloomIterations int     `toml:"bloom_iterations"`
	BloomResolution int     `toml:"bloom_resolution"`
	BloomIntensity  float32 `toml:"bloom_intensity"`
	BloomThreshold  float32 `toml:"bloom_threshold"`
	BloomSoftKnee   float32 `toml:"bloom_soft_knee"`

	Sunrays           bool    `toml:"sunrays"`
	SunraysResolution int     `toml:"sunrays_resolution"`
	SunraysWeight     float32 `toml:"sunrays_weight"`

	// Text is rendered into the dye field at startup. Empty disables
	// the text seed.
	Text string `toml:"text"`

	// SettleDissipation replaces DensityDissipation SettleDelay after
	// Activate.
	SettleDissipation float32  `toml:"settle_dissipation"`
	SettleDelay       Duration `toml:"settle_delay"`
}

// DefaultConfig returns the default settings.
func DefaultConfig() *Config {
	return &Config{
		SimResolution:       256,
		DyeResolution:       1024,
		CaptureResolution:   512,
		DensityDissipation:  0.7,
		VelocityDissipation: 0.6,
		Pressure:            0.4,
		PressureIterations:  20,
		Curl:                30,
		SplatRadius:         0.007,
		SplatForce:          3000,
		ColorUpdateSpeed:    10,
		Paused:              true,
		Bloom:               true,
		BloomIterations:     8,
		BloomResolution:     256,
		BloomIntensity:      0.8,
		BloomThreshold:      0.6,
		BloomSoftKnee:       0.7,
		Sunrays:             true,
		SunraysResolution:   196,
		SunraysWeight:       1.0,
		Text:                "fluid",
		SettleDissipation:   1.0,
		SettleDelay:         Duration(2500 * time.Millisecond),
	}
}

// Validate checks the structural settings. Dissipation, force and the
// other tuning values are not range checked.
func (c *Config) Validate() error {
	var errs []error
	positive := []struct {
		name  string
		value int
	}{
		{"sim_resolution", c.SimResolution},
		{"dye_resolution", c.DyeResolution},
		{"capture_resolution", c.CaptureResolution},
		{"bloom_resolution", c.BloomResolution},
		{"sunrays_resolution", c.SunraysResolution},
		{"pressure_iterations", c.PressureIterations},
	}
	for _, p := range positive {
		if p.value <= 0 {
			errs = append(errs, fmt.Errorf("%s must be positive, got %d", p.name, p.value))
		}
	}
	if c.BloomIterations < 0 {
		errs = append(errs, fmt.Errorf("bloom_iterations must not be negative, got %d", c.BloomIterations))
	}
	if c.SettleDelay < 0 {
		errs = append(errs, fmt.Errorf("settle_delay must not be negative, got %s", time.Duration(c.SettleDelay)))
	}
	if len(errs) == 0 {
		return nil
	}
	return fmt.Errorf("%w: %w", ErrInvalidConfig, errors.Join(errs...))
}

// needsRealloc reports whether switching from c to next changes the size
// of any framebuffer.
func (c *Config) needsRealloc(next *Config) bool {
	return c.SimResolution != next.SimResolution ||
		c.DyeResolution != next.DyeResolution ||
		c.BloomResolution != next.BloomResolution ||
		c.BloomIterations != next.BloomIterations ||
		c.SunraysResolution != next.SunraysResolution
}

// DecodeConfig reads TOML from r on top of DefaultConfig. Unknown keys
// are rejected and the result is validated.
func DecodeConfig(r io.Reader) (*Config, error) {
	cfg := DefaultConfig()
	dec := toml.NewDecoder(r).DisallowUnknownFields()
	if err := dec.Decode(cfg); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadConfig reads a TOML config file. Keys missing from the file keep
// their default values.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("fluid: load config: %w", err)
	}
	cfg, err := DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("fluid: load config %s: %w", path, err)
	}
	return cfg, nil
}

// MarshalTOML encodes the config as a TOML document that LoadConfig
// reads back unchanged.
func (c *Config) MarshalTOML() ([]byte, error) {
	return toml.Marshal(c)
}
