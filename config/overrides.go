package config

import "time"

// Overrides holds settings given on the command line. A nil field was not given. Overrides are
// laid over the file at startup and again over every reloaded config, so an edit to the file never
// undoes a flag.
type Overrides struct {
	DeviceModel   *string
	Zoom          *float32
	Rotation      *int
	Sampling      *string
	Fake          *bool
	FakeFPS       *int
	StatsInterval *time.Duration
	Debug         bool
}

// Apply writes every given override into conf.
func (o Overrides) Apply(conf *Config) {
	if o.DeviceModel != nil {
		conf.DeviceModel = *o.DeviceModel
	}
	if o.Zoom != nil {
		conf.Zoom = *o.Zoom
	}
	if o.Rotation != nil {
		conf.Rotation = *o.Rotation
	}
	if o.Sampling != nil {
		conf.Sampling = *o.Sampling
	}
	if o.Fake != nil {
		conf.Fake = *o.Fake
	}
	if o.FakeFPS != nil {
		conf.FakeFPS = *o.FakeFPS
	}
	if o.StatsInterval != nil {
		conf.StatsInterval = *o.StatsInterval
	}
	conf.Debug = conf.Debug || o.Debug
}
