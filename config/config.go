// Package config defines the runtime configuration of the depth viewer.
package config

import (
	"encoding/json"
	"io"
	"os"
	"time"

	"github.com/pkg/errors"
	goutils "go.viam.com/utils"

	"go.viam.com/tofviewer/rimage"
)

const (
	// DefaultZoom is the fraction of the letterboxed rectangle the cloud fills.
	DefaultZoom = 0.95
	// DefaultFakeFPS is the synthetic source frame rate.
	DefaultFakeFPS = 30
	// DefaultStatsInterval is how often frame stats are logged.
	DefaultStatsInterval = 10 * time.Second
	// FollowSurface leaves the rotation to the surface orientation.
	FollowSurface = -1
)

// Config is the viewer's runtime configuration.
type Config struct {
	// DeviceModel overrides the detected device model code.
	DeviceModel string `json:"device_model,omitempty"`
	// Zoom must be in (0, 1].
	Zoom float32 `json:"zoom,omitempty"`
	// Rotation pins the display rotation to 0, 90, 180 or 270. FollowSurface follows the surface.
	Rotation int `json:"rotation"`
	// Sampling overrides the profile's sampling policy: "row-halving" or "full-rows".
	Sampling string `json:"sampling,omitempty"`
	// Fake generates synthetic frames instead of opening the camera.
	Fake    bool `json:"fake"`
	FakeFPS int  `json:"fake_fps,omitempty"`
	// StatsInterval controls debug frame stats. Zero disables them.
	StatsInterval time.Duration `json:"stats_interval,omitempty"`
	Debug         bool          `json:"debug,omitempty"`
}

// Default returns the configuration used when nothing is specified.
func Default() *Config {
	return &Config{
		Zoom:          DefaultZoom,
		Rotation:      FollowSurface,
		Fake:          true,
		FakeFPS:       DefaultFakeFPS,
		StatsInterval: DefaultStatsInterval,
	}
}

// Validate fills defaults and ensures all parts of the config are valid.
func (conf *Config) Validate(path string) error {
	if conf.Zoom == 0 {
		conf.Zoom = DefaultZoom
	}
	if conf.Zoom < 0 || conf.Zoom > 1 {
		return goutils.NewConfigValidationError(path, errors.Errorf("zoom must be in (0, 1], got %v", conf.Zoom))
	}
	switch conf.Rotation {
	case FollowSurface, 0, 90, 180, 270:
	default:
		return goutils.NewConfigValidationError(path,
			errors.Errorf("rotation must be one of -1, 0, 90, 180, 270, got %d", conf.Rotation))
	}
	if conf.Sampling != "" {
		if _, err := rimage.SamplingPolicyFromString(conf.Sampling); err != nil {
			return goutils.NewConfigValidationError(path, err)
		}
	}
	if conf.FakeFPS == 0 {
		conf.FakeFPS = DefaultFakeFPS
	}
	if conf.FakeFPS < 0 || conf.FakeFPS > 1000 {
		return goutils.NewConfigValidationError(path, errors.Errorf("fake_fps must be in [1, 1000], got %d", conf.FakeFPS))
	}
	if conf.StatsInterval < 0 {
		return goutils.NewConfigValidationError(path, errors.New("stats_interval cannot be negative"))
	}
	return nil
}

// SamplingOverride returns the configured sampling policy, if any.
func (conf *Config) SamplingOverride() (rimage.SamplingPolicy, bool) {
	if conf.Sampling == "" {
		return rimage.RowHalving, false
	}
	policy, err := rimage.SamplingPolicyFromString(conf.Sampling)
	if err != nil {
		return rimage.RowHalving, false
	}
	return policy, true
}

// FromReader reads a JSON config on top of the defaults and validates it.
func FromReader(r io.Reader) (*Config, error) {
	conf := Default()
	if err := json.NewDecoder(r).Decode(conf); err != nil {
		return nil, errors.Wrap(err, "cannot parse config")
	}
	if err := conf.Validate("config"); err != nil {
		return nil, err
	}
	return conf, nil
}

// Read reads the JSON config at path.
func Read(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "cannot read config file %q", path)
	}
	defer goutils.UncheckedErrorFunc(f.Close)
	return FromReader(f)
}
